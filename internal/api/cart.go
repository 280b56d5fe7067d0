package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/atelier-moda/storefront/internal/cart"
)

// getCart returns the session's cart snapshot.
func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	snap := h.session(w, r).Snapshot()
	writeJSON(w, http.StatusOK, encodeSnapshot(snap))
}

type addItemRequest struct {
	ProductID string
	Color     string
	Size      string
	Quantity  int
}

// addItem adds a product variant to the session's cart.
func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	store := h.session(w, r)

	var req addItemRequest
	if err := decodeBody(r.Body, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id":
			req.ProductID, err = d.Str()
		case "color":
			req.Color, err = d.Str()
		case "size":
			req.Size, err = d.Str()
		case "quantity":
			req.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, r, &cart.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	product, err := h.catalog.Get(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	variant := cart.Variant{Color: req.Color, Size: req.Size}
	if err := store.AddItem(r.Context(), *product, variant, req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, encodeSnapshot(store.Snapshot()))
}

// updateItem replaces a line item's quantity. Zero removes the line.
func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	store := h.session(w, r)
	itemID := chi.URLParam(r, "itemID")

	quantity := -1
	if err := decodeBody(r.Body, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "quantity":
			quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, r, &cart.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	if err := store.UpdateQuantity(r.Context(), itemID, quantity); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, encodeSnapshot(store.Snapshot()))
}

// removeItem drops a line item. Removing an unknown line is a no-op.
func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	store := h.session(w, r)
	itemID := chi.URLParam(r, "itemID")

	if err := store.RemoveItem(r.Context(), itemID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, encodeSnapshot(store.Snapshot()))
}

func decodeBody(body io.Reader, field func(d *jx.Decoder, key string) error) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	d := jx.DecodeBytes(raw)
	return d.Obj(field)
}

func encodeSnapshot(snap cart.Snapshot) *jx.Encoder {
	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("cart_id", func(e *jx.Encoder) { e.Str(snap.CartID) })
		e.Field("state", func(e *jx.Encoder) { e.Str(string(snap.State)) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range snap.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
						e.Field("product_id", func(e *jx.Encoder) { e.Str(it.ProductID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
						e.Field("color", func(e *jx.Encoder) { e.Str(it.Variant.Color) })
						e.Field("size", func(e *jx.Encoder) { e.Str(it.Variant.Size) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("unit_price", func(e *jx.Encoder) { e.RawStr(it.UnitPrice.StringFixed(2)) })
					})
				}
			})
		})
		e.Field("pricing", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("subtotal", func(e *jx.Encoder) { e.RawStr(snap.Pricing.DisplaySubtotal()) })
				e.Field("shipping_fee", func(e *jx.Encoder) { e.RawStr(snap.Pricing.DisplayShippingFee()) })
				e.Field("total", func(e *jx.Encoder) { e.RawStr(snap.Pricing.DisplayTotal()) })
			})
		})
	})
	return e
}
