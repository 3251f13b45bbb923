package chat

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"hangout-backend/internal/models"
)

// Store loads and persists conversation history.
type Store interface {
	Recorder
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.ChatMessage, error)
}

// Publisher fans chat state out to other processes (WebSocket hubs).
type Publisher interface {
	PublishChatState(ctx context.Context, userID uuid.UUID, state models.ChatState) error
}

type ManagerConfig struct {
	Timeout     time.Duration
	IdleTTL     time.Duration
	HistorySize int
}

// Manager keeps one Controller per user and closes the ones left idle.
type Manager struct {
	gen       Generator
	store     Store
	publisher Publisher
	cfg       ManagerConfig

	mu    sync.Mutex
	convs map[uuid.UUID]*Controller
}

// NewManager builds a manager. store and publisher may be nil.
func NewManager(gen Generator, store Store, publisher Publisher, cfg ManagerConfig) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 100
	}
	return &Manager{
		gen:       gen,
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		convs:     make(map[uuid.UUID]*Controller),
	}
}

// Get returns the user's conversation, creating it from stored history on
// first use.
func (m *Manager) Get(ctx context.Context, userID uuid.UUID) (*Controller, error) {
	m.mu.Lock()
	if c, ok := m.convs[userID]; ok {
		m.mu.Unlock()
		c.Touch()
		return c, nil
	}
	m.mu.Unlock()

	var history []models.ChatMessage
	if m.store != nil {
		msgs, err := m.store.ListRecent(ctx, userID, m.cfg.HistorySize)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("Chat %s: failed to load history, starting empty: %v", userID, err)
		}
		history = msgs
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.convs[userID]; ok {
		return c, nil
	}

	opts := Options{Timeout: m.cfg.Timeout, History: history}
	if m.store != nil {
		opts.Recorder = m.store
	}
	c := NewController(userID, m.gen, opts)
	m.convs[userID] = c

	if m.publisher != nil {
		updates, _ := c.Subscribe()
		go m.forward(userID, updates)
	}
	return c, nil
}

func (m *Manager) forward(userID uuid.UUID, updates <-chan models.ChatState) {
	for state := range updates {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.publisher.PublishChatState(ctx, userID, state); err != nil {
			log.Printf("Chat %s: failed to publish state: %v", userID, err)
		}
		cancel()
	}
}

// Evict closes and forgets the user's conversation, if any.
func (m *Manager) Evict(userID uuid.UUID) {
	m.mu.Lock()
	c, ok := m.convs[userID]
	delete(m.convs, userID)
	m.mu.Unlock()

	if ok {
		c.Close()
	}
}

// Len reports how many conversations are live.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.convs)
}

// Run evicts idle conversations until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.IdleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.evictIdle(now); n > 0 {
				log.Printf("Evicted %d idle conversations", n)
			}
		}
	}
}

// evictIdle closes conversations idle for longer than IdleTTL. Conversations
// waiting on a reply are kept.
func (m *Manager) evictIdle(now time.Time) int {
	var idle []*Controller

	m.mu.Lock()
	for id, c := range m.convs {
		if c.Pending() || now.Sub(c.LastActive()) < m.cfg.IdleTTL {
			continue
		}
		idle = append(idle, c)
		delete(m.convs, id)
	}
	m.mu.Unlock()

	for _, c := range idle {
		c.Close()
	}
	return len(idle)
}

// CloseAll cancels every in-flight request and drops all conversations.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	convs := m.convs
	m.convs = make(map[uuid.UUID]*Controller)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range convs {
		wg.Add(1)
		go func(c *Controller) {
			defer wg.Done()
			c.Close()
		}(c)
	}
	wg.Wait()
}
