// Package cart owns the authoritative local view of one shopper's cart and
// keeps it optimistically consistent with the remote cart resource.
package cart

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/atelier-moda/storefront/internal/pricing"
)

// State is the lifecycle position of a cart session.
type State string

const (
	// StateEmpty means no remote cart has been created yet.
	StateEmpty State = "empty"
	// StateActive means the remote cart identifier is known.
	StateActive State = "active"
	// StateSubmitting means a checkout attempt is in flight; mutations are
	// rejected until it resolves.
	StateSubmitting State = "submitting"
	// StateCompleted is terminal: checkout succeeded and a new cart must be
	// created for further shopping.
	StateCompleted State = "completed"
)

// Sentinel errors for store lifecycle violations.
var (
	ErrCheckoutInProgress = errors.New("checkout in progress")
	ErrCartCompleted      = errors.New("cart already completed")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrStoreClosed        = errors.New("cart store closed")
)

// ValidationError indicates malformed input caught before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Variant is the attribute selection required before a line item may be
// created. Both fields must be present.
type Variant struct {
	Color string
	Size  string
}

// LineItem is one cart line. Quantity is always >= 1; a line whose quantity
// would drop to zero is removed instead. UnitPrice is captured at add time.
type LineItem struct {
	ID        string
	ProductID string
	Name      string
	Variant   Variant
	Quantity  int
	UnitPrice decimal.Decimal
}

// Snapshot is an immutable copy of the store's observable state.
type Snapshot struct {
	CartID  string
	State   State
	Items   []LineItem
	Pricing pricing.Summary
}

func cloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

func pricingItems(items []LineItem) []pricing.Item {
	out := make([]pricing.Item, len(items))
	for i, it := range items {
		out[i] = pricing.Item{UnitPrice: it.UnitPrice, Quantity: it.Quantity}
	}
	return out
}
