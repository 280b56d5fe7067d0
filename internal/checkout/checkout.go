// Package checkout drives a cart through submission: field validation, a
// single remote checkout call, and a terminal success or failure report.
package checkout

import (
	"context"

	"github.com/atelier-moda/storefront/internal/cart"
	"github.com/atelier-moda/storefront/internal/commerce"
)

// CommerceAPI is the slice of the remote commerce client the orchestrator
// uses.
type CommerceAPI interface {
	SubmitCheckout(ctx context.Context, cartID string, order commerce.CheckoutOrder) (string, error)
}

// Payment holds the payment selection from the checkout form. Card fields
// are required when Method is MethodCard.
type Payment struct {
	Method     string
	CardNumber string
	Expiry     string
	CVV        string
}

// MethodCard is the card-based payment method.
const MethodCard = "card"

// Details is the checkout form: contact, shipping address, and payment.
type Details struct {
	Email      string
	FirstName  string
	LastName   string
	Address    string
	City       string
	PostalCode string
	Phone      string
	Payment    Payment
}

// Result is the outcome of one successful checkout attempt.
type Result struct {
	TrackingNumber string
}

// Orchestrator submits carts for settlement. It never retries on its own;
// a retry is a distinct user-initiated Submit call.
type Orchestrator struct {
	client CommerceAPI
}

// New creates an Orchestrator backed by client.
func New(client CommerceAPI) *Orchestrator {
	return &Orchestrator{client: client}
}

// Submit validates details, then submits the store's cart exactly once.
//
// A validation failure is reported synchronously and never reaches the
// network. On remote success the store's items are cleared and the cart
// completes; on remote failure the items are left untouched and the store
// returns to Active so the user may retry. The store rejects concurrent
// mutations for the duration of the attempt.
func (o *Orchestrator) Submit(ctx context.Context, store *cart.Store, details Details) (*Result, error) {
	if err := Validate(details); err != nil {
		return nil, err
	}

	order := commerce.CheckoutOrder{
		Email:         details.Email,
		FirstName:     details.FirstName,
		LastName:      details.LastName,
		Address:       details.Address,
		City:          details.City,
		PostalCode:    details.PostalCode,
		Phone:         details.Phone,
		PaymentMethod: details.Payment.Method,
		CardNumber:    details.Payment.CardNumber,
		CardExpiry:    details.Payment.Expiry,
		CardCVV:       details.Payment.CVV,
	}

	var tracking string
	err := store.Submit(ctx, func(ctx context.Context, cartID string) error {
		t, err := o.client.SubmitCheckout(ctx, cartID, order)
		tracking = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Result{TrackingNumber: tracking}, nil
}
