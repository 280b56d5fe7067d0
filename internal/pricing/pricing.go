// Package pricing derives order totals from a line item collection and a
// shipping fee policy. All functions are pure: no I/O, no stored state.
//
// Monetary values stay exact decimals internally; rounding to two places
// happens only in the Display helpers, so repeated recomputation never
// compounds rounding error.
package pricing

import "github.com/shopspring/decimal"

// Config is the shipping fee policy.
type Config struct {
	// FreeShippingThreshold is the subtotal above which shipping is free.
	FreeShippingThreshold decimal.Decimal
	// FlatShippingFee is charged whenever the subtotal does not exceed
	// the threshold. An empty cart is never charged a fee.
	FlatShippingFee decimal.Decimal
}

// DefaultConfig returns the storefront's standard policy: free shipping on
// orders over 100, flat fee of 10 otherwise.
func DefaultConfig() Config {
	return Config{
		FreeShippingThreshold: decimal.NewFromInt(100),
		FlatShippingFee:       decimal.NewFromInt(10),
	}
}

// Item is a priced cart line for calculation purposes.
type Item struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Summary holds the derived pricing for a line item collection.
// Invariant: Total = Subtotal + ShippingFee; ShippingFee is either zero or
// exactly the configured flat fee.
type Summary struct {
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
}

// Calculate derives the pricing summary for items under cfg.
func Calculate(items []Item, cfg Config) Summary {
	subtotal := decimal.Zero
	for _, it := range items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		subtotal = subtotal.Add(it.UnitPrice.Mul(qty))
	}

	fee := decimal.Zero
	if len(items) > 0 && subtotal.LessThanOrEqual(cfg.FreeShippingThreshold) {
		fee = cfg.FlatShippingFee
	}

	return Summary{
		Subtotal:    subtotal,
		ShippingFee: fee,
		Total:       subtotal.Add(fee),
	}
}

// DisplaySubtotal renders the subtotal rounded to two decimal places.
func (s Summary) DisplaySubtotal() string { return s.Subtotal.StringFixed(2) }

// DisplayShippingFee renders the shipping fee rounded to two decimal places.
func (s Summary) DisplayShippingFee() string { return s.ShippingFee.StringFixed(2) }

// DisplayTotal renders the total rounded to two decimal places.
func (s Summary) DisplayTotal() string { return s.Total.StringFixed(2) }
