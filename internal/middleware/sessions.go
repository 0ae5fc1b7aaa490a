package middleware

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionTTL matches the auth cookie lifetime.
const SessionTTL = 30 * 24 * time.Hour

// Sessions holds the tokens issued at login. Tokens live in memory only, so
// a restart logs every viewer out.
type Sessions struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[string]time.Time
	now    func() time.Time
}

// NewSessions creates an empty session store.
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &Sessions{
		ttl:    ttl,
		tokens: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Issue returns a fresh random token.
func (s *Sessions) Issue() string {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.tokens[token] = s.now().Add(s.ttl)
	return token
}

// Valid reports whether token was issued and has not expired.
func (s *Sessions) Valid(token string) bool {
	if token == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.tokens[token]
	if !ok {
		return false
	}
	if s.now().After(expires) {
		delete(s.tokens, token)
		return false
	}
	return true
}

// Revoke forgets token.
func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

func (s *Sessions) prune() {
	now := s.now()
	for token, expires := range s.tokens {
		if now.After(expires) {
			delete(s.tokens, token)
		}
	}
}
