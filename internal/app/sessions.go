package app

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/atelier-moda/storefront/internal/cart"
	"github.com/atelier-moda/storefront/internal/pricing"
)

// SessionManager owns one cart store per browser session and evicts sessions
// that have been idle longer than the TTL, releasing their queue workers.
type SessionManager struct {
	client    cart.CommerceAPI
	pricing   pricing.Config
	ttl       time.Duration
	sweep     time.Duration
	reconcile time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	store    *cart.Store
	lastSeen time.Time
}

// NewSessionManager creates a manager over the commerce client. Call Run to
// start the eviction janitor.
func NewSessionManager(client cart.CommerceAPI, policy pricing.Config, cfg SessionConfig) *SessionManager {
	return &SessionManager{
		client:    client,
		pricing:   policy,
		ttl:       cfg.TTL,
		sweep:     cfg.SweepInterval,
		reconcile: cfg.ReconcileTimeout,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

// Store returns the session's cart store, creating the session on first use,
// and refreshes its idle timer.
func (m *SessionManager) Store(id string) *cart.Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		s = &session{store: cart.NewStore(m.client, cart.Options{
			OwnerID:          id,
			Pricing:          m.pricing,
			ReconcileTimeout: m.reconcile,
		})}
		m.sessions[id] = s
	}
	s.lastSeen = m.now()
	return s.store
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run sweeps idle sessions until ctx is cancelled, then closes every
// remaining store.
func (m *SessionManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return nil
		case now := <-ticker.C:
			if n := m.evictIdle(now); n > 0 {
				zctx.From(ctx).Info("Evicted idle cart sessions", zap.Int("count", n))
			}
		}
	}
}

func (m *SessionManager) evictIdle(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) >= m.ttl {
			s.store.Close()
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (m *SessionManager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.store.Close()
		delete(m.sessions, id)
	}
}
