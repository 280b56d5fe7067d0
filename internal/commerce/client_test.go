package commerce

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, Options{Timeout: time.Second})
}

func TestListProducts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/products", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"id":"tee-01","name":"Linen Tee","price":29.99,"stock":10},
			{"id":"bag-02","name":"Canvas Bag","price":79.99,"stock":5}
		]`)
	})

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "tee-01", products[0].ID)
	assert.Equal(t, "29.99", products[0].Price.String())
	assert.Equal(t, 5, products[1].Stock)
}

func TestCreateCart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/carts", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "session-1", body["owner_id"])

		_, _ = io.WriteString(w, `{"id":"cart-1","owner_id":"session-1","items":[]}`)
	})

	cart, err := client.CreateCart(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, "cart-1", cart.ID)
	assert.Equal(t, "session-1", cart.OwnerID)
}

func TestReplaceItems_SendsFullCollection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/carts/cart-1", r.URL.Path)

		var items []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&items))
		require.Len(t, items, 1)
		assert.Equal(t, "tee-01", items[0]["product_id"])
		assert.Equal(t, "black", items[0]["color"])
		assert.Equal(t, float64(3), items[0]["quantity"])

		_, _ = io.WriteString(w, `{"id":"cart-1","items":[{"product_id":"tee-01","color":"black","size":"M","quantity":3,"unit_price":29.99}]}`)
	})

	cart, err := client.ReplaceItems(context.Background(), "cart-1", []Item{
		{ProductID: "tee-01", Color: "black", Size: "M", Quantity: 3, UnitPrice: mustDecimal("29.99")},
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "29.99", cart.Items[0].UnitPrice.String())
}

func TestMergeItems_UsesPatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		_, _ = io.WriteString(w, `{"id":"cart-1","items":[]}`)
	})

	_, err := client.MergeItems(context.Background(), "cart-1", []Item{
		{ProductID: "tee-01", Color: "black", Size: "M", Quantity: 1, UnitPrice: mustDecimal("29.99")},
	})
	require.NoError(t, err)
}

func TestDeleteCart_EmptyBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, client.DeleteCart(context.Background(), "cart-1"))
}

func TestSubmitCheckout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/cart-1", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		payment, ok := body["payment"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "card", payment["method"])
		assert.Equal(t, "123", payment["cvv"])

		_, _ = io.WriteString(w, `{"tracking_number":"TRK-0001"}`)
	})

	tracking, err := client.SubmitCheckout(context.Background(), "cart-1", CheckoutOrder{
		Email:         "ada@example.com",
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Address:       "12 Analytical Way",
		City:          "London",
		PostalCode:    "N1 9GU",
		Phone:         "+44 20 7946 0958",
		PaymentMethod: "card",
		CardNumber:    "4242424242424242",
		CardExpiry:    "12/28",
		CardCVV:       "123",
	})
	require.NoError(t, err)
	assert.Equal(t, "TRK-0001", tracking)
}

func TestSubmitCheckout_MissingTrackingNumber(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := client.SubmitCheckout(context.Background(), "cart-1", CheckoutOrder{})
	require.Error(t, err)
	assert.True(t, IsTransportFailure(err))
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantRemote bool
		wantDetail string
	}{
		{
			name:       "rejection with string detail",
			status:     http.StatusNotFound,
			body:       `{"detail":"cart not found"}`,
			wantRemote: true,
			wantDetail: "cart not found",
		},
		{
			name:       "rejection with structured detail",
			status:     http.StatusUnprocessableEntity,
			body:       `{"detail":{"field":"quantity"}}`,
			wantRemote: true,
			wantDetail: `{"field":"quantity"}`,
		},
		{
			name:       "rejection with empty body keeps the status",
			status:     http.StatusBadGateway,
			body:       "",
			wantRemote: true,
		},
		{
			name:       "malformed error body is a transport failure",
			status:     http.StatusInternalServerError,
			body:       `<html>oops</html>`,
			wantRemote: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.FetchCart(context.Background(), "cart-1")
			require.Error(t, err)

			if tt.wantRemote {
				var remote *RemoteError
				require.ErrorAs(t, err, &remote)
				assert.Equal(t, tt.status, remote.Status)
				assert.Equal(t, tt.wantDetail, remote.Detail)
			} else {
				assert.True(t, IsTransportFailure(err))
				assert.False(t, IsRemoteRejected(err))
			}
		})
	}
}

func TestMalformedSuccessBodyIsTransportFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"id": truncated`)
	})

	_, err := client.FetchCart(context.Background(), "cart-1")
	require.Error(t, err)
	assert.True(t, IsTransportFailure(err))
}

func TestUnreachableServiceIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on
	client := New(srv.URL, Options{Timeout: time.Second})

	_, err := client.ListProducts(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransportFailure(err))
}

func TestTimeoutIsTransportFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ListProducts(ctx)
	require.Error(t, err)
	assert.True(t, IsTransportFailure(err))
}

func TestRemoteErrorNotFound(t *testing.T) {
	e := &RemoteError{Op: "fetch_cart", Status: http.StatusNotFound}
	assert.True(t, e.NotFound())
	assert.False(t, (&RemoteError{Status: http.StatusConflict}).NotFound())
}
