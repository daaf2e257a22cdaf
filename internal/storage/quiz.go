package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aliskhannn/quizier/internal/service"
)

var ErrTooManySessions = errors.New("too many live quiz sessions")

type session struct {
	runner    *service.Runner
	messageID int
	lastSeen  time.Time
}

// SessionStorage provides in-memory storage for quiz runners by session ID.
type SessionStorage struct {
	mu          sync.RWMutex
	sessions    map[string]*session
	maxSessions int
	now         func() time.Time
}

// NewSessionStorage creates a new SessionStorage holding at most maxSessions
// sessions. Zero means no limit.
func NewSessionStorage(maxSessions int) *SessionStorage {
	return &SessionStorage{
		sessions:    make(map[string]*session),
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// Store saves a runner under the given session ID. A runner previously stored
// under the same ID is closed. A new ID is refused with ErrTooManySessions
// once the limit is reached.
func (s *SessionStorage) Store(id string, r *service.Runner) error {
	s.mu.Lock()
	prev, exists := s.sessions[id]
	if !exists && s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		return fmt.Errorf("limit %d: %w", s.maxSessions, ErrTooManySessions)
	}
	s.sessions[id] = &session{runner: r, lastSeen: s.now()}
	s.mu.Unlock()

	if prev != nil && prev.runner != r {
		prev.runner.Close()
	}
	return nil
}

// Get retrieves the runner for a session ID and marks the session as used.
func (s *SessionStorage) Get(id string) (*service.Runner, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.runner, true
}

// Delete closes and removes the session. It reports whether it existed.
func (s *SessionStorage) Delete(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.runner.Close()
	}
	return ok
}

// SetMessageID remembers the chat message that renders the session.
func (s *SessionStorage) SetMessageID(id string, messageID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.messageID = messageID
	}
}

// MessageID returns the chat message that renders the session.
func (s *SessionStorage) MessageID(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || sess.messageID == 0 {
		return 0, false
	}
	return sess.messageID, true
}

// Len returns the number of live sessions.
func (s *SessionStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep closes and removes sessions not used since cutoff.
func (s *SessionStorage) Sweep(cutoff time.Time) int {
	var expired []*service.Runner

	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, sess.runner)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, r := range expired {
		r.Close()
	}
	return len(expired)
}
