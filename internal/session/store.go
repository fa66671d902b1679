package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Kuroukai/Kuroukai-api/internal/model"
)

var (
	// ErrInvalidCredentials is returned when a login attempt does not match
	// the configured operator identity.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated is returned when no token is supplied or the token
	// is unknown to the store.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrSessionExpired is returned when a known token has outlived the
	// session TTL. The record is evicted as a side effect.
	ErrSessionExpired = errors.New("session expired")
)

// DefaultTTL is the fixed session lifetime.
const DefaultTTL = 24 * time.Hour

const tokenBytes = 32 // 256 bits

type clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Config is the operator identity and session tunables, passed explicitly
// at construction rather than read from the environment.
type Config struct {
	Username string
	Password string
	TTL      time.Duration
	Clock    clock
}

// Store holds admin sessions in a process-wide mutex-guarded map keyed by
// token. Expired sessions are only ever removed lazily, on the next
// authenticated-access attempt; there is no background sweep, so an
// expired-but-unaccessed session stays physically present and visible to
// List. That is deliberate.
type Store struct {
	mu       sync.Mutex
	sessions map[string]model.AdminSession

	username string
	password string
	ttl      time.Duration
	clock    clock
}

// NewStore creates a session store for the given operator identity.
func NewStore(cfg Config) *Store {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	clk := cfg.Clock
	if clk == nil {
		clk = systemClock{}
	}
	return &Store{
		sessions: make(map[string]model.AdminSession),
		username: cfg.Username,
		password: cfg.Password,
		ttl:      ttl,
		clock:    clk,
	}
}

// TTL returns the fixed session lifetime, used by the transport layer to
// set the cookie max age.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Authenticate checks the supplied credentials against the configured
// operator identity and, on success, creates a session and returns its
// token. IP and user agent are recorded for audit only; they are never an
// access condition. The store does no rate limiting of its own.
func (s *Store) Authenticate(username, password, ip, userAgent string) (string, error) {
	if username != s.username || password != s.password {
		return "", ErrInvalidCredentials
	}

	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}

	sess := model.AdminSession{
		Token:     token,
		CreatedAt: s.clock.Now(),
		IP:        ip,
		UserAgent: userAgent,
	}

	s.mu.Lock()
	s.sessions[token] = sess
	s.mu.Unlock()

	return token, nil
}

// RequireAuth resolves a token to its session. A missing or unknown token
// yields ErrUnauthenticated. A token past the TTL yields ErrSessionExpired
// and evicts the record; this is the store's only self-cleaning mechanism.
func (s *Store) RequireAuth(token string) (model.AdminSession, error) {
	if token == "" {
		return model.AdminSession{}, ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return model.AdminSession{}, ErrUnauthenticated
	}

	if s.clock.Now().Sub(sess.CreatedAt) > s.ttl {
		delete(s.sessions, token)
		return model.AdminSession{}, ErrSessionExpired
	}

	return sess, nil
}

// Logout removes the session. It is idempotent: logging out an unknown or
// already-removed token still succeeds, since the end state is the same.
func (s *Store) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// List returns snapshots of all stored sessions, in map iteration order.
// Entries that are logically expired but not yet evicted are included.
func (s *Store) List() []model.AdminSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.AdminSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// ClearAll removes every session and reports how many were removed.
func (s *Store) ClearAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.sessions)
	s.sessions = make(map[string]model.AdminSession)
	return n
}

// Count returns the number of stored sessions, used by telemetry.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
