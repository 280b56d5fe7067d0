// Package catalog provides the read-only product view consumed by the
// storefront. Products are owned by the remote commerce service; within a
// session they are treated as immutable and served from a TTL cache.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/atelier-moda/storefront/internal/commerce"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item available for purchase.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock int
}

// Lister is the slice of the commerce client the cache needs.
type Lister interface {
	ListProducts(ctx context.Context) ([]commerce.Product, error)
}

// Cache caches the product catalog for a bounded time. Concurrent refreshes
// collapse into a single upstream call.
type Cache struct {
	lister Lister
	ttl    time.Duration
	now    func() time.Time

	sf singleflight.Group

	mu        sync.RWMutex
	products  []Product
	byID      map[string]Product
	fetchedAt time.Time
}

// NewCache creates a Cache over lister with the given freshness window.
func NewCache(lister Lister, ttl time.Duration) *Cache {
	return &Cache{
		lister: lister,
		ttl:    ttl,
		now:    time.Now,
	}
}

// List returns the catalog, refreshing it from the remote service when the
// cached copy is older than the TTL. The returned slice must not be mutated.
func (c *Cache) List(ctx context.Context) ([]Product, error) {
	c.mu.RLock()
	fresh := c.products != nil && c.now().Sub(c.fetchedAt) < c.ttl
	products := c.products
	c.mu.RUnlock()
	if fresh {
		return products, nil
	}

	v, err, _ := c.sf.Do("list", func() (any, error) {
		remote, err := c.lister.ListProducts(ctx)
		if err != nil {
			return nil, err
		}

		out := make([]Product, len(remote))
		byID := make(map[string]Product, len(remote))
		for i, p := range remote {
			cp := Product{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock}
			out[i] = cp
			byID[cp.ID] = cp
		}

		c.mu.Lock()
		c.products = out
		c.byID = byID
		c.fetchedAt = c.now()
		c.mu.Unlock()
		return out, nil
	})
	if err != nil {
		// Serve a stale copy rather than failing the page when one exists.
		c.mu.RLock()
		stale := c.products
		c.mu.RUnlock()
		if stale != nil {
			return stale, nil
		}
		return nil, err
	}
	return v.([]Product), nil
}

// Get returns the product with the given id, refreshing the catalog if
// needed. Returns ErrNotFound for unknown ids.
func (c *Cache) Get(ctx context.Context, id string) (*Product, error) {
	if _, err := c.List(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	p, ok := c.byID[id]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}
