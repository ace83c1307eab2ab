package storage

import (
	"context"
	"sync"
	"time"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

type session struct {
	values   map[string]string
	lastSeen time.Time
}

// SessionStore is a ports.EphemeralStore holding one map per session id.
// Sessions idle for longer than ttl are evicted.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*session
}

// NewSessionStore creates a store. A zero ttl disables expiry.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Get returns key for the session.
func (s *SessionStore) Get(_ context.Context, id, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.lookup(id)
	if sess == nil {
		return "", domain.NewNotFoundError("session", id)
	}

	v, ok := sess.values[key]
	if !ok {
		return "", domain.NewNotFoundError("session key", key)
	}

	return v, nil
}

// Set stores key for the session, creating it on first write.
func (s *SessionStore) Set(_ context.Context, id, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.lookup(id)
	if sess == nil {
		sess = &session{values: make(map[string]string)}
		s.sessions[id] = sess
	}

	sess.values[key] = value
	sess.lastSeen = s.now()

	return nil
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// Sweep evicts every expired session and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0

	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}

	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// lookup returns the live session or nil and marks it as seen. Caller
// holds mu.
func (s *SessionStore) lookup(id string) *session {
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}

	if s.expired(sess) {
		delete(s.sessions, id)
		return nil
	}

	sess.lastSeen = s.now()

	return sess
}

func (s *SessionStore) expired(sess *session) bool {
	return s.ttl > 0 && s.now().Sub(sess.lastSeen) > s.ttl
}
