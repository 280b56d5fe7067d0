package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-moda/storefront/internal/commerce"
	"github.com/atelier-moda/storefront/internal/pricing"
)

type fakeCartBackend struct{}

func (fakeCartBackend) CreateCart(_ context.Context, ownerID string) (*commerce.Cart, error) {
	return &commerce.Cart{ID: "cart-1", OwnerID: ownerID}, nil
}

func (fakeCartBackend) MergeItems(_ context.Context, cartID string, _ []commerce.Item) (*commerce.Cart, error) {
	return &commerce.Cart{ID: cartID}, nil
}

func (fakeCartBackend) ReplaceItems(_ context.Context, cartID string, _ []commerce.Item) (*commerce.Cart, error) {
	return &commerce.Cart{ID: cartID}, nil
}

func newTestManager() *SessionManager {
	return NewSessionManager(fakeCartBackend{}, pricing.DefaultConfig(), SessionConfig{
		TTL:           3 * time.Minute,
		SweepInterval: time.Second,
	})
}

func TestSessionManager_OneStorePerSession(t *testing.T) {
	m := newTestManager()
	defer m.closeAll()

	a := m.Store("session-a")
	b := m.Store("session-b")
	assert.NotSame(t, a, b)
	assert.Same(t, a, m.Store("session-a"), "repeat lookups return the same store")
	assert.Equal(t, 2, m.Len())
}

func TestSessionManager_EvictsIdleSessions(t *testing.T) {
	m := newTestManager()
	defer m.closeAll()

	now := time.Now()
	m.now = func() time.Time { return now }

	store := m.Store("session-a")
	require.Equal(t, 1, m.Len())

	// Still within TTL: nothing evicted.
	assert.Zero(t, m.evictIdle(now.Add(time.Minute)))
	assert.Equal(t, 1, m.Len())

	// Past TTL: evicted and the store's worker is released.
	assert.Equal(t, 1, m.evictIdle(now.Add(4*time.Minute)))
	assert.Zero(t, m.Len())

	err := store.RemoveItem(context.Background(), "any")
	assert.Error(t, err, "evicted store must reject further use")
}

func TestSessionManager_TouchResetsIdleTimer(t *testing.T) {
	m := newTestManager()
	defer m.closeAll()

	now := time.Now()
	m.now = func() time.Time { return now }

	m.Store("session-a")

	// Activity two minutes in resets the timer.
	now = now.Add(2 * time.Minute)
	m.Store("session-a")

	assert.Zero(t, m.evictIdle(now.Add(2*time.Minute)), "recently touched session survives")
	assert.Equal(t, 1, m.evictIdle(now.Add(4*time.Minute)))
}

func TestSessionManager_RunClosesAllOnShutdown(t *testing.T) {
	m := newTestManager()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	store := m.Store("session-a")
	cancel()
	require.NoError(t, <-done)

	assert.Zero(t, m.Len())
	assert.Error(t, store.RemoveItem(context.Background(), "any"))
}
