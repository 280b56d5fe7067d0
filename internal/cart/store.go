package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atelier-moda/storefront/internal/catalog"
	"github.com/atelier-moda/storefront/internal/commerce"
	"github.com/atelier-moda/storefront/internal/pricing"
)

// CommerceAPI is the slice of the remote commerce client the store uses for
// reconciliation.
type CommerceAPI interface {
	CreateCart(ctx context.Context, ownerID string) (*commerce.Cart, error)
	ReplaceItems(ctx context.Context, cartID string, items []commerce.Item) (*commerce.Cart, error)
	MergeItems(ctx context.Context, cartID string, items []commerce.Item) (*commerce.Cart, error)
}

// Options configures a Store.
type Options struct {
	// OwnerID identifies the shopper when the remote cart is created.
	OwnerID string
	// Pricing is the shipping fee policy applied in snapshots.
	Pricing pricing.Config
	// ReconcileTimeout bounds each remote reconciliation call. A call that
	// exceeds it fails as a transport failure instead of blocking the queue
	// forever. Zero disables the bound.
	ReconcileTimeout time.Duration
	// QueueDepth is the mutation queue capacity. Defaults to 16.
	QueueDepth int
}

// Store serializes all mutations of one cart through a FIFO queue: at most
// one remote reconciliation is in flight at any time, and a second mutation
// queues behind it rather than racing. Each mutation is applied to local
// state first (optimistic), then reconciled remotely; on failure the local
// state is rolled back to the pre-mutation snapshot and the classified error
// is returned to the caller.
type Store struct {
	client  CommerceAPI
	opts    Options
	newID   func() string
	baseCtx func(context.Context) context.Context

	mu     sync.RWMutex
	state  State
	cartID string
	items  []LineItem

	tasks     chan task
	closed    chan struct{}
	closeOnce sync.Once
}

type task struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// NewStore creates a Store and starts its queue worker. Callers must Close
// the store when the session ends.
func NewStore(client CommerceAPI, opts Options) *Store {
	depth := opts.QueueDepth
	if depth <= 0 {
		depth = 16
	}
	s := &Store{
		client:  client,
		opts:    opts,
		newID:   func() string { return uuid.New().String() },
		baseCtx: context.WithoutCancel,
		state:   StateEmpty,
		tasks:   make(chan task, depth),
		closed:  make(chan struct{}),
	}
	go s.worker()
	return s
}

// Close stops the queue worker. Queued waiters receive ErrStoreClosed.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// Snapshot returns the current ordered line item collection and derived
// pricing. It never blocks on the queue and performs no I/O.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := cloneItems(s.items)
	return Snapshot{
		CartID:  s.cartID,
		State:   s.state,
		Items:   items,
		Pricing: pricing.Calculate(pricingItems(items), s.opts.Pricing),
	}
}

// AddItem adds quantity units of the product in the given variant. The
// remote cart is created lazily on the first add. An existing line with the
// same product and variant has its quantity increased instead of a new line
// being appended, mirroring the service's merge semantics.
func (s *Store) AddItem(ctx context.Context, product catalog.Product, variant Variant, quantity int) error {
	if quantity < 1 {
		return &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	if variant.Color == "" {
		return &ValidationError{Field: "color", Reason: "variant color is required"}
	}
	if variant.Size == "" {
		return &ValidationError{Field: "size", Reason: "variant size is required"}
	}

	return s.enqueueMutation(ctx, func(ctx context.Context) error {
		if err := s.ensureRemoteCart(ctx); err != nil {
			return err
		}

		s.mu.Lock()
		prev := cloneItems(s.items)
		cartID := s.cartID
		merged := false
		for i := range s.items {
			if s.items[i].ProductID == product.ID && s.items[i].Variant == variant {
				s.items[i].Quantity += quantity
				merged = true
				break
			}
		}
		if !merged {
			s.items = append(s.items, LineItem{
				ID:        s.newID(),
				ProductID: product.ID,
				Name:      product.Name,
				Variant:   variant,
				Quantity:  quantity,
				UnitPrice: product.Price,
			})
		}
		s.mu.Unlock()

		delta := commerce.Item{
			ProductID: product.ID,
			Color:     variant.Color,
			Size:      variant.Size,
			Quantity:  quantity,
			UnitPrice: product.Price,
		}
		rctx, cancel := s.reconcileCtx(ctx)
		defer cancel()
		if _, err := s.client.MergeItems(rctx, cartID, []commerce.Item{delta}); err != nil {
			s.restore(prev)
			return err
		}
		return nil
	})
}

// UpdateQuantity replaces the line item's quantity. A quantity of zero
// behaves as RemoveItem. Updating an unknown line item is a validation error.
func (s *Store) UpdateQuantity(ctx context.Context, lineItemID string, quantity int) error {
	if quantity < 0 {
		return &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, lineItemID)
	}

	return s.enqueueMutation(ctx, func(ctx context.Context) error {
		s.mu.Lock()
		idx := s.indexOf(lineItemID)
		if idx < 0 {
			s.mu.Unlock()
			return &ValidationError{Field: "line_item_id", Reason: "unknown line item"}
		}
		prev := cloneItems(s.items)
		s.items[idx].Quantity = quantity
		wire := wireItems(s.items)
		cartID := s.cartID
		s.mu.Unlock()

		return s.replaceRemote(ctx, cartID, wire, prev)
	})
}

// RemoveItem removes the line item. Removing a line item that does not
// exist is a no-op, not an error.
func (s *Store) RemoveItem(ctx context.Context, lineItemID string) error {
	return s.enqueueMutation(ctx, func(ctx context.Context) error {
		s.mu.Lock()
		idx := s.indexOf(lineItemID)
		if idx < 0 {
			s.mu.Unlock()
			return nil
		}
		prev := cloneItems(s.items)
		s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
		wire := wireItems(s.items)
		cartID := s.cartID
		s.mu.Unlock()

		return s.replaceRemote(ctx, cartID, wire, prev)
	})
}

// Submit acquires the mutation queue exclusively for the duration of fn.
// Queued mutations settle first (FIFO), then the store enters Submitting and
// fn runs with the remote cart identifier; mutations arriving in this window
// fail with ErrCheckoutInProgress. A nil return from fn clears the items and
// completes the cart; any error returns the store to Active with the items
// untouched.
func (s *Store) Submit(ctx context.Context, fn func(ctx context.Context, cartID string) error) error {
	return s.enqueue(ctx, func(ctx context.Context) error {
		s.mu.Lock()
		switch s.state {
		case StateCompleted:
			s.mu.Unlock()
			return ErrCartCompleted
		case StateEmpty:
			s.mu.Unlock()
			return ErrEmptyCart
		}
		if len(s.items) == 0 {
			s.mu.Unlock()
			return ErrEmptyCart
		}
		s.state = StateSubmitting
		cartID := s.cartID
		s.mu.Unlock()

		err := fn(ctx, cartID)

		s.mu.Lock()
		if err != nil {
			s.state = StateActive
		} else {
			s.items = nil
			s.state = StateCompleted
		}
		s.mu.Unlock()
		return err
	})
}

// --- queue machinery ---

func (s *Store) worker() {
	for {
		select {
		case t := <-s.tasks:
			t.done <- t.fn(t.ctx)
		case <-s.closed:
			for {
				select {
				case t := <-s.tasks:
					t.done <- ErrStoreClosed
				default:
					return
				}
			}
		}
	}
}

// enqueue submits fn to the FIFO queue and waits for its result. The caller
// context only guards the wait for a queue slot: once the task is accepted
// it runs to completion, so a reconciliation already issued to the remote
// client is never aborted mid-flight.
func (s *Store) enqueue(ctx context.Context, fn func(context.Context) error) error {
	t := task{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case s.tasks <- t:
	case <-s.closed:
		return ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-t.done:
		return err
	case <-s.closed:
		return ErrStoreClosed
	}
}

func (s *Store) enqueueMutation(ctx context.Context, fn func(context.Context) error) error {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	switch state {
	case StateSubmitting:
		return ErrCheckoutInProgress
	case StateCompleted:
		return ErrCartCompleted
	}

	return s.enqueue(ctx, func(ctx context.Context) error {
		// Re-check: the state may have advanced while the task was queued.
		s.mu.RLock()
		state := s.state
		s.mu.RUnlock()
		if state == StateCompleted {
			return ErrCartCompleted
		}
		return fn(ctx)
	})
}

// --- reconciliation helpers ---

// reconcileCtx derives the context for one remote call: detached from the
// caller's cancellation (no mid-flight aborts) but bounded by the configured
// timeout so a hung call cannot starve the queue.
func (s *Store) reconcileCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	base := s.baseCtx(ctx)
	if s.opts.ReconcileTimeout <= 0 {
		return base, func() {}
	}
	return context.WithTimeout(base, s.opts.ReconcileTimeout)
}

func (s *Store) ensureRemoteCart(ctx context.Context) error {
	s.mu.RLock()
	exists := s.state != StateEmpty
	s.mu.RUnlock()
	if exists {
		return nil
	}

	rctx, cancel := s.reconcileCtx(ctx)
	defer cancel()
	remote, err := s.client.CreateCart(rctx, s.opts.OwnerID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cartID = remote.ID
	s.state = StateActive
	s.mu.Unlock()
	return nil
}

func (s *Store) replaceRemote(ctx context.Context, cartID string, wire []commerce.Item, prev []LineItem) error {
	rctx, cancel := s.reconcileCtx(ctx)
	defer cancel()
	if _, err := s.client.ReplaceItems(rctx, cartID, wire); err != nil {
		s.restore(prev)
		return err
	}
	return nil
}

func (s *Store) restore(prev []LineItem) {
	s.mu.Lock()
	s.items = prev
	s.mu.Unlock()
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(lineItemID string) int {
	for i := range s.items {
		if s.items[i].ID == lineItemID {
			return i
		}
	}
	return -1
}

func wireItems(items []LineItem) []commerce.Item {
	out := make([]commerce.Item, len(items))
	for i, it := range items {
		out[i] = commerce.Item{
			ProductID: it.ProductID,
			Color:     it.Variant.Color,
			Size:      it.Variant.Size,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}
	return out
}
