// Package session owns the per-browser ledgers. A Session is created
// explicitly on first contact and torn down when it is ended, expires or
// is evicted for capacity.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/cache"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrEnded    = errors.New("session ended")
)

const (
	DefaultTTL         = 30 * time.Minute
	DefaultMaxSessions = 1000

	teardownTimeout = 5 * time.Second
)

// Session is a single browser's ledger. All ledger access goes through Do,
// which serializes concurrent requests for the same session.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	ledger *ledger.Ledger
	closed bool
}

// Do runs fn with exclusive access to the session's ledger.
func (s *Session) Do(fn func(*ledger.Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrEnded
	}
	return fn(s.ledger)
}

func (s *Session) close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.ledger.Close(ctx)
}

// Options configures a Manager.
type Options struct {
	TTL         time.Duration
	MaxSessions int
	// Now overrides time.Now; tests only.
	Now func() time.Time
}

type Manager struct {
	factory  ledger.StoreFactory
	sessions *cache.LRUCache[*Session]
	logger   *log.Logger
	now      func() time.Time
}

func NewManager(factory ledger.StoreFactory, opts Options, logger *log.Logger) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	m := &Manager{
		factory: factory,
		logger:  logger.WithComponent(log.ComponentSession),
		now:     opts.Now,
	}
	m.sessions = cache.NewLRUCache[*Session](opts.MaxSessions, opts.TTL,
		cache.WithSlidingTTL[*Session](),
		cache.WithEvictFunc[*Session](m.teardown),
		cache.WithClock[*Session](opts.Now),
	)
	return m
}

func (m *Manager) teardown(id string, s *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	if err := s.close(ctx); err != nil {
		m.logger.Warn("Session teardown failed", log.FieldSessionID, id, log.FieldError, err)
		return
	}
	m.logger.Debug("Session ended", log.FieldSessionID, id,
		"age", m.now().Sub(s.CreatedAt).Round(time.Second).String())
}

// Start creates a session with a fresh, empty ledger.
func (m *Manager) Start(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	store, err := m.factory.Open(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("open ledger store: %w", err)
	}
	s := &Session{
		ID:        id,
		CreatedAt: m.now(),
		ledger:    ledger.New(store),
	}
	m.sessions.Set(id, s)
	m.logger.Debug("Session started", log.FieldSessionID, id)
	return s, nil
}

// Get returns the live session for id and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	s, ok := m.sessions.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Resume returns the session for id, starting a new one when id is unknown
// or expired. The boolean reports whether a new session was started.
func (m *Manager) Resume(ctx context.Context, id string) (*Session, bool, error) {
	if s, err := m.Get(id); err == nil {
		return s, false, nil
	}
	s, err := m.Start(ctx)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// End tears down the session. Ending an unknown session is not an error.
func (m *Manager) End(id string) {
	m.sessions.Delete(id)
}

// CleanExpired tears down idle sessions. It satisfies cache.Cleaner so the
// cache manager can reap sessions on a ticker.
func (m *Manager) CleanExpired() int {
	return m.sessions.CleanExpired()
}

// Shutdown tears down every live session.
func (m *Manager) Shutdown() int {
	n := m.sessions.Purge()
	m.logger.Info("Sessions torn down", "count", n)
	return n
}

// Active returns the number of live sessions.
func (m *Manager) Active() int {
	return m.sessions.Size()
}
