package api

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/atelier-moda/storefront/internal/cart"
	"github.com/atelier-moda/storefront/internal/checkout"
)

// submitCheckout validates the checkout form and submits the session's cart.
func (h *Handler) submitCheckout(w http.ResponseWriter, r *http.Request) {
	store := h.session(w, r)

	details, err := decodeCheckoutRequest(r)
	if err != nil {
		writeError(w, r, &cart.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	result, err := h.checkout.Submit(r.Context(), store, details)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("tracking_number", func(e *jx.Encoder) { e.Str(result.TrackingNumber) })
	})
	writeJSON(w, http.StatusOK, e)
}

func decodeCheckoutRequest(r *http.Request) (checkout.Details, error) {
	var d checkout.Details
	err := decodeBody(r.Body, func(dec *jx.Decoder, key string) error {
		var err error
		switch key {
		case "email":
			d.Email, err = dec.Str()
		case "first_name":
			d.FirstName, err = dec.Str()
		case "last_name":
			d.LastName, err = dec.Str()
		case "address":
			d.Address, err = dec.Str()
		case "city":
			d.City, err = dec.Str()
		case "postal_code":
			d.PostalCode, err = dec.Str()
		case "phone":
			d.Phone, err = dec.Str()
		case "payment":
			err = dec.Obj(func(dec *jx.Decoder, key string) error {
				var err error
				switch key {
				case "method":
					d.Payment.Method, err = dec.Str()
				case "card_number":
					d.Payment.CardNumber, err = dec.Str()
				case "expiry":
					d.Payment.Expiry, err = dec.Str()
				case "cvv":
					d.Payment.CVV, err = dec.Str()
				default:
					err = dec.Skip()
				}
				return err
			})
		default:
			err = dec.Skip()
		}
		return err
	})
	return d, err
}
