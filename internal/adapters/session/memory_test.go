package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
)

// fakeClock is advanced by tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestStore_CreateSeedsGreeting(t *testing.T) {
	s := NewStore(0, nil)

	id, greeting, err := s.Create(context.Background(), "")
	require.NoError(t, err)

	_, err = uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, Greeting, greeting.Content)

	history, err := s.History(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entities.RoleAssistant, history[0].Role)
	assert.Equal(t, Greeting, history[0].Content)
}

func TestStore_CreateWithName(t *testing.T) {
	s := NewStore(0, nil)

	id, greeting, err := s.Create(context.Background(), "Priya")
	require.NoError(t, err)

	assert.Equal(t, "Hello Priya! Welcome to the Member Help Center. How can I help you today?", greeting.Content)
	name, err := s.MemberName(id)
	require.NoError(t, err)
	assert.Equal(t, "Priya", name)
}

func TestStore_AppendAndHistoryOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0, nil)
	id, _, err := s.Create(ctx, "")
	require.NoError(t, err)

	require.NoError(t, s.Append(ctx, id, entities.ConversationTurn{Role: entities.RoleUser, Content: "q1"}))
	require.NoError(t, s.Append(ctx, id, entities.ConversationTurn{Role: entities.RoleAssistant, Content: "a1"}))

	history, err := s.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "q1", history[1].Content)
	assert.Equal(t, "a1", history[2].Content)
	assert.False(t, history[1].Timestamp.IsZero())
}

func TestStore_HistoryIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0, nil)
	id, _, _ := s.Create(ctx, "")

	history, _ := s.History(ctx, id)
	history[0].Content = "tampered"

	again, _ := s.History(ctx, id)
	assert.Equal(t, Greeting, again[0].Content)
}

func TestStore_UnknownSession(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0, nil)

	_, err := s.History(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	err = s.Append(ctx, "nope", entities.ConversationTurn{Role: entities.RoleUser, Content: "hi"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = s.End(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_EndReturnsTranscriptAndForgets(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0, nil)
	id, _, _ := s.Create(ctx, "")
	require.NoError(t, s.Append(ctx, id, entities.ConversationTurn{Role: entities.RoleUser, Content: "bye"}))

	turns, err := s.End(ctx, id)
	require.NoError(t, err)
	assert.Len(t, turns, 2)

	_, err = s.History(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_ExpiryAndCleanup(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := NewStore(30*time.Minute, clock.Now)

	idle, _, _ := s.Create(ctx, "Sam")
	clock.Advance(20 * time.Minute)
	busy, _, _ := s.Create(ctx, "")
	clock.Advance(15 * time.Minute)

	_, err := s.History(ctx, idle)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.History(ctx, busy)
	assert.NoError(t, err)

	assert.Equal(t, map[string]int{"total": 2, "active": 1}, s.Stats())

	removed := s.CleanupExpired()
	require.Len(t, removed, 1)
	assert.Equal(t, idle, removed[0].ID)
	assert.Len(t, removed[0].Turns, 1)
	assert.Equal(t, "Sam", removed[0].MemberName)
	assert.Equal(t, map[string]int{"total": 1, "active": 1}, s.Stats())
}

func TestStore_AppendRefreshesActivity(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := NewStore(30*time.Minute, clock.Now)
	id, _, _ := s.Create(ctx, "")

	clock.Advance(25 * time.Minute)
	require.NoError(t, s.Append(ctx, id, entities.ConversationTurn{Role: entities.RoleUser, Content: "still here"}))
	clock.Advance(25 * time.Minute)

	_, err := s.History(ctx, id)
	assert.NoError(t, err)
}

func TestStore_ConcurrentSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0, nil)

	const n = 20
	ids := make([]string, n)
	for i := range ids {
		ids[i], _, _ = s.Create(ctx, "")
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = s.Append(ctx, id, entities.ConversationTurn{Role: entities.RoleUser, Content: fmt.Sprintf("s%d-%d", i, j)})
			}
		}(i, id)
	}
	wg.Wait()

	for i, id := range ids {
		history, err := s.History(ctx, id)
		require.NoError(t, err)
		require.Len(t, history, 11)
		for j, turn := range history[1:] {
			assert.Equal(t, fmt.Sprintf("s%d-%d", i, j), turn.Content)
		}
	}
}

func TestStore_CreateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewStore(0, nil).Create(ctx, "")

	assert.ErrorIs(t, err, context.Canceled)
}
