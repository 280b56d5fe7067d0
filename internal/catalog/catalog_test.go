package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-moda/storefront/internal/commerce"
)

type fakeLister struct {
	mu       sync.Mutex
	calls    atomic.Int64
	products []commerce.Product
	err      error
}

func (f *fakeLister) ListProducts(context.Context) ([]commerce.Product, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func twoProducts() []commerce.Product {
	return []commerce.Product{
		{ID: "tee-01", Name: "Linen Tee", Price: decimal.RequireFromString("29.99"), Stock: 10},
		{ID: "bag-02", Name: "Canvas Bag", Price: decimal.RequireFromString("79.99"), Stock: 5},
	}
}

func TestList_CachesWithinTTL(t *testing.T) {
	lister := &fakeLister{products: twoProducts()}
	c := NewCache(lister, time.Minute)

	first, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), lister.calls.Load(), "fresh cache must not refetch")
}

func TestList_RefreshesAfterTTL(t *testing.T) {
	lister := &fakeLister{products: twoProducts()}
	c := NewCache(lister, time.Minute)

	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.List(context.Background())
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), lister.calls.Load())
}

func TestList_ServesStaleOnRefreshFailure(t *testing.T) {
	lister := &fakeLister{products: twoProducts()}
	c := NewCache(lister, time.Minute)

	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.List(context.Background())
	require.NoError(t, err)

	lister.mu.Lock()
	lister.err = errors.New("service down")
	lister.mu.Unlock()
	now = now.Add(2 * time.Minute)

	products, err := c.List(context.Background())
	require.NoError(t, err, "stale catalog beats an error page")
	assert.Len(t, products, 2)
}

func TestList_FailsWhenNothingCached(t *testing.T) {
	lister := &fakeLister{err: errors.New("service down")}
	c := NewCache(lister, time.Minute)

	_, err := c.List(context.Background())
	assert.Error(t, err)
}

func TestList_ConcurrentRefreshCollapses(t *testing.T) {
	lister := &fakeLister{products: twoProducts()}
	c := NewCache(lister, time.Minute)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.List(context.Background())
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, lister.calls.Load(), int64(2), "concurrent refreshes must collapse")
}

func TestGet(t *testing.T) {
	lister := &fakeLister{products: twoProducts()}
	c := NewCache(lister, time.Minute)

	p, err := c.Get(context.Background(), "bag-02")
	require.NoError(t, err)
	assert.Equal(t, "Canvas Bag", p.Name)
	assert.Equal(t, "79.99", p.Price.String())

	_, err = c.Get(context.Background(), "no-such-product")
	assert.ErrorIs(t, err, ErrNotFound)
}
