package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculate(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		items    []Item
		subtotal string
		fee      string
		total    string
	}{
		{
			name: "free shipping above threshold",
			items: []Item{
				{UnitPrice: d("29.99"), Quantity: 2},
				{UnitPrice: d("79.99"), Quantity: 1},
			},
			subtotal: "139.97",
			fee:      "0",
			total:    "139.97",
		},
		{
			name: "flat fee below threshold",
			items: []Item{
				{UnitPrice: d("29.99"), Quantity: 2},
			},
			subtotal: "59.98",
			fee:      "10",
			total:    "69.98",
		},
		{
			name:     "empty cart pays nothing",
			items:    nil,
			subtotal: "0",
			fee:      "0",
			total:    "0",
		},
		{
			name: "subtotal exactly at threshold still pays fee",
			items: []Item{
				{UnitPrice: d("50"), Quantity: 2},
			},
			subtotal: "100",
			fee:      "10",
			total:    "110",
		},
		{
			name: "one cent above threshold ships free",
			items: []Item{
				{UnitPrice: d("100.01"), Quantity: 1},
			},
			subtotal: "100.01",
			fee:      "0",
			total:    "100.01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.items, cfg)
			assert.True(t, got.Subtotal.Equal(d(tt.subtotal)), "subtotal %s", got.Subtotal)
			assert.True(t, got.ShippingFee.Equal(d(tt.fee)), "fee %s", got.ShippingFee)
			assert.True(t, got.Total.Equal(d(tt.total)), "total %s", got.Total)
		})
	}
}

func TestCalculate_ExactDecimalArithmetic(t *testing.T) {
	// 0.1 added ten times must be exactly 1, not a float approximation.
	items := []Item{{UnitPrice: d("0.1"), Quantity: 10}}
	got := Calculate(items, DefaultConfig())
	assert.True(t, got.Subtotal.Equal(d("1")), "subtotal %s", got.Subtotal)
}

func TestCalculate_TotalIsSubtotalPlusFee(t *testing.T) {
	items := []Item{
		{UnitPrice: d("19.95"), Quantity: 3},
		{UnitPrice: d("4.50"), Quantity: 1},
	}
	got := Calculate(items, DefaultConfig())
	assert.True(t, got.Total.Equal(got.Subtotal.Add(got.ShippingFee)))
}

func TestDisplayHelpersRoundToTwoPlaces(t *testing.T) {
	s := Summary{
		Subtotal:    d("59.98"),
		ShippingFee: d("10"),
		Total:       d("69.98"),
	}
	assert.Equal(t, "59.98", s.DisplaySubtotal())
	assert.Equal(t, "10.00", s.DisplayShippingFee())
	assert.Equal(t, "69.98", s.DisplayTotal())
}
