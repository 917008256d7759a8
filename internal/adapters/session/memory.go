// Package session keeps per-member conversation history in memory.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
)

// DefaultSessionWindow is how long a session survives without activity.
const DefaultSessionWindow = 30 * time.Minute

// Greeting opens every session.
const Greeting = "Hello! Welcome to the Member Help Center. How can I help you today?"

// ErrSessionNotFound is returned for unknown, ended or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// session represents an active conversation.
type session struct {
	startTime    time.Time
	lastActivity time.Time
	memberName   string
	turns        []entities.ConversationTurn
}

// Store implements ports.ConversationStore.
type Store struct {
	sessions map[string]*session
	window   time.Duration
	now      ports.Clock
	mu       sync.RWMutex
}

// NewStore creates a session store. A nil clock uses time.Now.
func NewStore(window time.Duration, now ports.Clock) *Store {
	if window <= 0 {
		window = DefaultSessionWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		sessions: make(map[string]*session),
		window:   window,
		now:      now,
	}
}

// Create opens a session seeded with the greeting and returns its ID.
// When memberName is given the greeting addresses the member.
func (s *Store) Create(ctx context.Context, memberName string) (string, entities.ConversationTurn, error) {
	if err := ctx.Err(); err != nil {
		return "", entities.ConversationTurn{}, err
	}

	now := s.now()
	greeting := entities.ConversationTurn{Role: entities.RoleAssistant, Content: Greeting, Timestamp: now}
	if memberName != "" {
		greeting.Content = fmt.Sprintf("Hello %s! Welcome to the Member Help Center. How can I help you today?", memberName)
	}

	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &session{
		startTime:    now,
		lastActivity: now,
		memberName:   memberName,
		turns:        []entities.ConversationTurn{greeting},
	}
	return id, greeting, nil
}

// Append adds a turn and refreshes the session's activity time.
func (s *Store) Append(ctx context.Context, sessionID string, turn entities.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.live(sessionID)
	if err != nil {
		return err
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = s.now()
	}
	sess.turns = append(sess.turns, turn)
	sess.lastActivity = s.now()
	return nil
}

// History returns a copy of the session's turns.
func (s *Store) History(ctx context.Context, sessionID string) ([]entities.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.live(sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]entities.ConversationTurn, len(sess.turns))
	copy(out, sess.turns)
	return out, nil
}

// MemberName returns the name given when the session was created.
func (s *Store) MemberName(sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.live(sessionID)
	if err != nil {
		return "", err
	}
	return sess.memberName, nil
}

// End removes the session and returns its full transcript.
func (s *Store) End(ctx context.Context, sessionID string) ([]entities.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return sess.turns, nil
}

// Expired is a session removed by CleanupExpired.
type Expired struct {
	ID         string
	MemberName string
	Turns      []entities.ConversationTurn
}

// CleanupExpired removes idle sessions and returns them so their
// transcripts can still be recorded.
func (s *Store) CleanupExpired() []Expired {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed []Expired
	for id, sess := range s.sessions {
		if now.Sub(sess.lastActivity) > s.window {
			removed = append(removed, Expired{ID: id, MemberName: sess.memberName, Turns: sess.turns})
			delete(s.sessions, id)
		}
	}
	return removed
}

// Stats returns current session statistics.
func (s *Store) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := 0
	now := s.now()
	for _, sess := range s.sessions {
		if now.Sub(sess.lastActivity) <= s.window {
			active++
		}
	}

	return map[string]int{
		"total":  len(s.sessions),
		"active": active,
	}
}

// live returns a session that exists and has not idled out. Caller holds mu.
func (s *Store) live(sessionID string) (*session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok || s.now().Sub(sess.lastActivity) > s.window {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}
