package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hangout-backend/internal/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	states []models.ChatState
}

func (p *recordingPublisher) PublishChatState(ctx context.Context, userID uuid.UUID, state models.ChatState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, state)
	return nil
}

func (p *recordingPublisher) last() (models.ChatState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.states) == 0 {
		return models.ChatState{}, false
	}
	return p.states[len(p.states)-1], true
}

func TestManager_GetReusesAndSeedsFromStore(t *testing.T) {
	userID := uuid.New()
	store := newMemRecorder()
	require.NoError(t, store.Append(context.Background(), userID, models.ChatMessage{
		ID: uuid.New(), Text: "earlier", Participant: models.ParticipantUser,
	}))

	m := NewManager(&stubGenerator{reply: "r"}, store, nil, ManagerConfig{})
	defer m.CloseAll()

	c1, err := m.Get(context.Background(), userID)
	require.NoError(t, err)
	c2, err := m.Get(context.Background(), userID)
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	require.Len(t, c1.Messages(), 1)
	assert.Equal(t, "earlier", c1.Messages()[0].Text)

	other, err := m.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotSame(t, c1, other)
	assert.Equal(t, 2, m.Len())
}

func TestManager_EvictIdleSkipsPending(t *testing.T) {
	gen := &stubGenerator{block: make(chan struct{})}
	m := NewManager(gen, nil, nil, ManagerConfig{IdleTTL: time.Minute})
	defer m.CloseAll()

	idleUser, busyUser := uuid.New(), uuid.New()
	idle, err := m.Get(context.Background(), idleUser)
	require.NoError(t, err)
	busy, err := m.Get(context.Background(), busyUser)
	require.NoError(t, err)
	require.NoError(t, busy.SendMessage("X"))

	evicted := m.evictIdle(time.Now().Add(2 * time.Minute))

	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, m.Len())
	assert.ErrorIs(t, idle.SendMessage("late"), ErrClosed)

	fresh, err := m.Get(context.Background(), idleUser)
	require.NoError(t, err)
	assert.NotSame(t, idle, fresh)
}

func TestManager_CloseAllCancelsInFlight(t *testing.T) {
	gen := &stubGenerator{block: make(chan struct{})}
	m := NewManager(gen, nil, nil, ManagerConfig{})

	c, err := m.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, c.SendMessage("X"))

	m.CloseAll()

	assert.Equal(t, 0, m.Len())
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.ParticipantError, msgs[1].Participant)
}

func TestManager_Evict(t *testing.T) {
	m := NewManager(&stubGenerator{}, nil, nil, ManagerConfig{})
	userID := uuid.New()

	c, err := m.Get(context.Background(), userID)
	require.NoError(t, err)

	m.Evict(userID)
	m.Evict(userID)

	assert.Equal(t, 0, m.Len())
	assert.ErrorIs(t, c.SendMessage("X"), ErrClosed)
}

func TestManager_PublishesStateChanges(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewManager(&stubGenerator{reply: "r"}, nil, pub, ManagerConfig{})

	c, err := m.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, c.SendMessage("X"))
	waitIdle(t, c)

	assert.Eventually(t, func() bool {
		state, ok := pub.last()
		return ok && !state.Pending && len(state.Messages) == 2
	}, 2*time.Second, 10*time.Millisecond)

	m.CloseAll()
}
