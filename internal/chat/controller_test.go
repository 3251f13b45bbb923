package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hangout-backend/internal/models"
)

type stubGenerator struct {
	reply string
	err   error
	block chan struct{}

	mu      sync.Mutex
	prompts []string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.reply, g.err
}

func (g *stubGenerator) calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

type memRecorder struct {
	mu   sync.Mutex
	msgs map[uuid.UUID][]models.ChatMessage
	err  error
	// replyDelay slows down storing MODEL and ERROR messages.
	replyDelay time.Duration
}

func newMemRecorder() *memRecorder {
	return &memRecorder{msgs: make(map[uuid.UUID][]models.ChatMessage)}
}

func (r *memRecorder) Append(ctx context.Context, userID uuid.UUID, msg models.ChatMessage) error {
	if r.replyDelay > 0 && msg.Participant != models.ParticipantUser {
		time.Sleep(r.replyDelay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.msgs[userID] = append(r.msgs[userID], msg)
	return nil
}

func (r *memRecorder) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.msgs[userID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]models.ChatMessage(nil), msgs...), nil
}

func (r *memRecorder) recorded(userID uuid.UUID) []models.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ChatMessage(nil), r.msgs[userID]...)
}

func waitIdle(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
}

func TestSendMessage_BlankIsNoOp(t *testing.T) {
	gen := &stubGenerator{reply: "hola"}
	c := NewController(uuid.New(), gen, Options{})
	defer c.Close()

	for _, text := range []string{"", "   ", "\n\t"} {
		assert.ErrorIs(t, c.SendMessage(text), ErrEmptyMessage)
	}
	assert.Empty(t, c.Messages())
	assert.False(t, c.Pending())
	assert.Empty(t, gen.calls())
}

func TestSendMessage_Success(t *testing.T) {
	gen := &stubGenerator{reply: "Museo del Prado: pinacoteca."}
	c := NewController(uuid.New(), gen, Options{})
	defer c.Close()

	require.NoError(t, c.SendMessage("X"))
	waitIdle(t, c)

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.ParticipantUser, msgs[0].Participant)
	assert.Equal(t, "X", msgs[0].Text)
	assert.Equal(t, models.ParticipantModel, msgs[1].Participant)
	assert.Equal(t, "Museo del Prado: pinacoteca.", msgs[1].Text)
	assert.False(t, msgs[1].IsPending)
	assert.False(t, c.Pending())
	assert.Equal(t, []string{"X"}, gen.calls())
}

func TestSendMessage_FailureBecomesErrorMessage(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota exceeded")}
	c := NewController(uuid.New(), gen, Options{})
	defer c.Close()

	require.NoError(t, c.SendMessage("first"))
	waitIdle(t, c)
	gen.err = nil
	gen.reply = "ok"
	require.NoError(t, c.SendMessage("second"))
	waitIdle(t, c)

	msgs := c.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, models.ParticipantError, msgs[1].Participant)
	assert.Equal(t, FailureNotice, msgs[1].Text)
	assert.False(t, msgs[1].IsPending)
	assert.Equal(t, "first", msgs[0].Text)
	assert.Equal(t, models.ParticipantModel, msgs[3].Participant)
}

func TestSendMessage_EmptyReplyIsFailure(t *testing.T) {
	c := NewController(uuid.New(), &stubGenerator{reply: "  "}, Options{})
	defer c.Close()

	require.NoError(t, c.SendMessage("X"))
	waitIdle(t, c)

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.ParticipantError, msgs[1].Participant)
}

func TestSendMessage_RejectsWhilePending(t *testing.T) {
	gen := &stubGenerator{reply: "listo", block: make(chan struct{})}
	c := NewController(uuid.New(), gen, Options{})
	defer c.Close()

	require.NoError(t, c.SendMessage("X"))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].IsPending)
	assert.Equal(t, models.ParticipantModel, msgs[1].Participant)
	assert.True(t, c.Pending())

	assert.ErrorIs(t, c.SendMessage("Y"), ErrPending)
	assert.Len(t, c.Messages(), 2)

	close(gen.block)
	waitIdle(t, c)

	msgs = c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "listo", msgs[1].Text)
	assert.Len(t, gen.calls(), 1)
}

func TestSendMessage_Timeout(t *testing.T) {
	gen := &stubGenerator{block: make(chan struct{})}
	c := NewController(uuid.New(), gen, Options{Timeout: 20 * time.Millisecond})
	defer c.Close()

	require.NoError(t, c.SendMessage("X"))
	waitIdle(t, c)

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.ParticipantError, msgs[1].Participant)
}

func TestClose_CancelsInFlight(t *testing.T) {
	gen := &stubGenerator{block: make(chan struct{})}
	c := NewController(uuid.New(), gen, Options{})

	require.NoError(t, c.SendMessage("X"))
	c.Close()

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.ParticipantError, msgs[1].Participant)
	assert.False(t, c.Pending())
	assert.ErrorIs(t, c.SendMessage("again"), ErrClosed)

	c.Close()
}

func TestDisplay_ReversesInsertionOrder(t *testing.T) {
	c := NewController(uuid.New(), &stubGenerator{reply: "r"}, Options{})
	defer c.Close()

	require.NoError(t, c.SendMessage("a"))
	waitIdle(t, c)
	require.NoError(t, c.SendMessage("b"))
	waitIdle(t, c)

	var inserted, displayed []string
	for _, m := range c.Messages() {
		inserted = append(inserted, m.Text)
	}
	for _, m := range c.Display() {
		displayed = append(displayed, m.Text)
	}
	assert.Equal(t, []string{"a", "r", "b", "r"}, inserted)
	assert.Equal(t, []string{"r", "b", "r", "a"}, displayed)
	assert.Equal(t, "a", c.Messages()[0].Text)
}

func TestNewController_SeedsHistoryWithoutPending(t *testing.T) {
	history := []models.ChatMessage{
		{ID: uuid.New(), Text: "hola", Participant: models.ParticipantUser},
		{ID: uuid.New(), Text: "¿qué tal?", Participant: models.ParticipantModel},
		{ID: uuid.New(), Participant: models.ParticipantModel, IsPending: true},
	}
	c := NewController(uuid.New(), &stubGenerator{}, Options{History: history})
	defer c.Close()

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hola", msgs[0].Text)
	assert.False(t, c.Pending())
}

func TestSubscribe_ReceivesSnapshots(t *testing.T) {
	gen := &stubGenerator{reply: "r", block: make(chan struct{})}
	c := NewController(uuid.New(), gen, Options{})

	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	initial := <-updates
	assert.Empty(t, initial.Messages)
	assert.False(t, initial.Pending)

	require.NoError(t, c.SendMessage("X"))
	pending := <-updates
	assert.True(t, pending.Pending)
	require.Len(t, pending.Messages, 2)

	close(gen.block)

	timeout := time.After(2 * time.Second)
	for {
		select {
		case state := <-updates:
			if state.Pending {
				continue
			}
			require.Len(t, state.Messages, 2)
			assert.Equal(t, "r", state.Messages[1].Text)
			c.Close()
			_, open := <-updates
			assert.False(t, open)
			return
		case <-timeout:
			t.Fatal("timed out waiting for final state")
		}
	}
}

func TestRecorder_GetsCompletedMessages(t *testing.T) {
	userID := uuid.New()
	rec := newMemRecorder()
	c := NewController(userID, &stubGenerator{reply: "r"}, Options{Recorder: rec})

	require.NoError(t, c.SendMessage("X"))
	waitIdle(t, c)
	c.Close()

	recorded := rec.recorded(userID)
	require.Len(t, recorded, 2)
	assert.Equal(t, models.ParticipantUser, recorded[0].Participant)
	assert.Equal(t, "r", recorded[1].Text)
	assert.False(t, recorded[1].IsPending)
	assert.Equal(t, c.Messages()[1].ID, recorded[1].ID)
}

func TestRecorder_FailureDoesNotBreakConversation(t *testing.T) {
	rec := newMemRecorder()
	rec.err = errors.New("db down")
	c := NewController(uuid.New(), &stubGenerator{reply: "r"}, Options{Recorder: rec})
	defer c.Close()

	require.NoError(t, c.SendMessage("X"))
	waitIdle(t, c)
	assert.Equal(t, "r", c.Messages()[1].Text)
}

func TestWait_RespectsContext(t *testing.T) {
	gen := &stubGenerator{block: make(chan struct{})}
	c := NewController(uuid.New(), gen, Options{})
	defer c.Close()

	require.NoError(t, c.SendMessage("X"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.DeadlineExceeded)
	assert.True(t, c.Pending())
}

func TestRecorder_KeepsOrderAcrossBackToBackSends(t *testing.T) {
	rec := newMemRecorder()
	rec.replyDelay = 20 * time.Millisecond
	userID := uuid.New()
	c := NewController(userID, &stubGenerator{reply: "r"}, Options{Recorder: rec})
	defer c.Close()

	require.NoError(t, c.SendMessage("first"))
	waitIdle(t, c)
	require.NoError(t, c.SendMessage("second"))
	waitIdle(t, c)

	var stored []string
	for _, m := range rec.recorded(userID) {
		stored = append(stored, string(m.Participant)+":"+m.Text)
	}
	assert.Equal(t, []string{"USER:first", "MODEL:r", "USER:second", "MODEL:r"}, stored)
}
