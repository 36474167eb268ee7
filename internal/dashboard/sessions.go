package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const sessionTTL = 12 * time.Hour

// sessionStore tracks logged-in admin sessions in memory. Sessions do not
// survive a process restart; the administrator logs in again.
type sessionStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

func newSessionStore() *sessionStore {
	return &sessionStore{tokens: make(map[string]time.Time)}
}

// Create issues a fresh opaque token.
func (s *sessionStore) Create() string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.tokens[token] = time.Now().Add(sessionTTL)
	return token
}

// Valid reports whether the token belongs to a live session.
func (s *sessionStore) Valid(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.tokens[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(s.tokens, token)
		return false
	}
	return true
}

// Delete revokes the token.
func (s *sessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// prune drops expired tokens. Caller holds the lock.
func (s *sessionStore) prune() {
	now := time.Now()
	for token, expiry := range s.tokens {
		if now.After(expiry) {
			delete(s.tokens, token)
		}
	}
}
