// Package chat holds the per-user conversation state machine: an ordered
// message list with at most one reply outstanding at a time.
package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hangout-backend/internal/models"
)

var (
	ErrEmptyMessage = errors.New("chat: message is empty")
	ErrPending      = errors.New("chat: a reply is already pending")
	ErrClosed       = errors.New("chat: conversation is closed")
	ErrEmptyReply   = errors.New("chat: model returned an empty reply")
)

// FailureNotice replaces the pending placeholder when a reply could not be
// produced.
const FailureNotice = "No se pudo obtener una respuesta. Inténtalo de nuevo."

const (
	defaultTimeout = 60 * time.Second
	recordTimeout  = 5 * time.Second
)

// Generator turns a prompt into a model reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Recorder persists completed messages of a conversation.
type Recorder interface {
	Append(ctx context.Context, userID uuid.UUID, msg models.ChatMessage) error
}

// Options configure a Controller. Zero values are usable.
type Options struct {
	Timeout  time.Duration
	Recorder Recorder
	History  []models.ChatMessage
}

// Controller owns one conversation. All methods are safe for concurrent use.
type Controller struct {
	userID   uuid.UUID
	gen      Generator
	recorder Recorder
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	messages   []models.ChatMessage
	pending    bool
	done       chan struct{}
	closed     bool
	lastActive time.Time
	subs       map[int]chan models.ChatState
	nextSub    int
}

func NewController(userID uuid.UUID, gen Generator, opts Options) *Controller {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	messages := make([]models.ChatMessage, 0, len(opts.History)+2)
	for _, m := range opts.History {
		if m.IsPending {
			continue
		}
		messages = append(messages, m)
	}

	return &Controller{
		userID:     userID,
		gen:        gen,
		recorder:   opts.Recorder,
		timeout:    timeout,
		ctx:        ctx,
		cancel:     cancel,
		messages:   messages,
		lastActive: time.Now(),
		subs:       make(map[int]chan models.ChatState),
	}
}

// SendMessage appends text as a USER message followed by a pending MODEL
// placeholder and asks the generator for a reply in the background.
// Blank input and calls made while a reply is pending leave the
// conversation untouched.
func (c *Controller) SendMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.pending {
		c.mu.Unlock()
		return ErrPending
	}

	now := time.Now().UTC()
	userMsg := models.ChatMessage{
		ID:          uuid.New(),
		Text:        text,
		Participant: models.ParticipantUser,
		CreatedAt:   now,
	}
	placeholder := models.ChatMessage{
		ID:          uuid.New(),
		Participant: models.ParticipantModel,
		IsPending:   true,
		CreatedAt:   now,
	}

	c.messages = append(c.messages, userMsg, placeholder)
	c.pending = true
	c.done = make(chan struct{})
	c.lastActive = time.Now()
	c.notifyLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	go c.respond(userMsg, placeholder.ID)
	return nil
}

func (c *Controller) respond(userMsg models.ChatMessage, placeholderID uuid.UUID) {
	defer c.wg.Done()

	c.record(userMsg)

	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	reply, err := c.gen.Generate(ctx, userMsg.Text)
	cancel()
	if err == nil && strings.TrimSpace(reply) == "" {
		err = ErrEmptyReply
	}

	final := models.ChatMessage{
		ID:          placeholderID,
		Participant: models.ParticipantModel,
		Text:        reply,
		CreatedAt:   time.Now().UTC(),
	}
	if err != nil {
		log.Printf("Chat %s: reply failed: %v", c.userID, err)
		final.Participant = models.ParticipantError
		final.Text = FailureNotice
	}

	// The reply is stored before the conversation accepts the next send, so
	// stored history keeps insertion order.
	c.record(final)

	c.mu.Lock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == placeholderID {
			c.messages[i] = final
			break
		}
	}
	c.pending = false
	close(c.done)
	c.done = nil
	c.lastActive = time.Now()
	c.notifyLocked()
	c.mu.Unlock()
}

// record runs detached from the controller scope so that the error that
// replaces a cancelled request still reaches the store.
func (c *Controller) record(msg models.ChatMessage) {
	if c.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.ctx), recordTimeout)
	defer cancel()
	if err := c.recorder.Append(ctx, c.userID, msg); err != nil {
		log.Printf("Chat %s: failed to record message %s: %v", c.userID, msg.ID, err)
	}
}

// Messages returns a snapshot in insertion order.
func (c *Controller) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Display returns a snapshot with the most recent message first.
func (c *Controller) Display() []models.ChatMessage {
	msgs := c.Messages()
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs
}

func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Controller) State() models.ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// LastActive is the time of the last send, reply or explicit Touch.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Controller) Touch() {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.mu.Unlock()
}

// Wait blocks until no reply is pending or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel that receives the current state right away and
// then after every change. Only the latest state is buffered; a slow reader
// skips intermediate snapshots. The channel is closed by the returned func or
// by Close.
func (c *Controller) Subscribe() (<-chan models.ChatState, func()) {
	ch := make(chan models.ChatState, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.stateLocked()
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// Close cancels an in-flight request, waits for its placeholder to settle
// and closes every subscription. Further sends fail with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()
}

func (c *Controller) snapshotLocked() []models.ChatMessage {
	out := make([]models.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Controller) stateLocked() models.ChatState {
	return models.ChatState{Messages: c.snapshotLocked(), Pending: c.pending}
}

func (c *Controller) notifyLocked() {
	if len(c.subs) == 0 {
		return
	}
	state := c.stateLocked()
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- state
	}
}
