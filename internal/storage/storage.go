package storage

import (
	"sync"
	"time"

	"github.com/asystent-elektryka/audytor/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SessionStore holds the live browser sessions, keyed by the id kept in the
// session cookie. Nothing is written to disk.
type SessionStore struct {
	sessions map[string]*session.Session
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session.Session),
	}
}

func (s *SessionStore) Get(sessionID string) (*session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, exists := s.sessions[sessionID]
	if exists {
		sess.Touch()
	}
	return sess, exists
}

// GetOrCreate returns the session for id, or a fresh one under a new id when
// id is empty or unknown.
func (s *SessionStore) GetOrCreate(sessionID string) (*session.Session, bool) {
	if sessionID != "" {
		if sess, ok := s.Get(sessionID); ok {
			return sess, false
		}
	}

	sess := session.New(uuid.NewString())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess, true
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Delete removes the session and releases whatever it holds.
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	sess, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if exists {
		sess.Close()
	}
}

// Sweep evicts sessions idle for longer than maxIdle. Sessions with an
// analysis in flight are kept until it settles.
func (s *SessionStore) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	var evicted []*session.Session
	for id, sess := range s.sessions {
		if sess.State().Status() == session.StatusInFlight {
			continue
		}
		if sess.LastSeen().Before(cutoff) {
			evicted = append(evicted, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range evicted {
		sess.Close()
		log.Debug().Str("session", sess.ID).Msg("idle session evicted")
	}
	return len(evicted)
}
