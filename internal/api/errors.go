package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/atelier-moda/storefront/internal/cart"
	"github.com/atelier-moda/storefront/internal/catalog"
	"github.com/atelier-moda/storefront/internal/checkout"
	"github.com/atelier-moda/storefront/internal/commerce"
)

// writeError maps an engine error onto the HTTP response.
//
//	validation failures            -> 422
//	unknown product                -> 404
//	checkout in progress/completed -> 409
//	commerce service rejection     -> 502 (detail passed through)
//	commerce transport failure     -> 504
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	msg := "internal error"

	var (
		cartVal     *cart.ValidationError
		checkoutVal *checkout.ValidationError
		remote      *commerce.RemoteError
		transport   *commerce.TransportError
	)
	switch {
	case errors.As(err, &cartVal):
		code, msg = http.StatusUnprocessableEntity, cartVal.Error()
	case errors.As(err, &checkoutVal):
		code, msg = http.StatusUnprocessableEntity, checkoutVal.Error()
	case errors.Is(err, cart.ErrEmptyCart):
		code, msg = http.StatusUnprocessableEntity, "cart is empty"
	case errors.Is(err, catalog.ErrNotFound):
		code, msg = http.StatusNotFound, "product not found"
	case errors.Is(err, cart.ErrCheckoutInProgress):
		code, msg = http.StatusConflict, "checkout in progress"
	case errors.Is(err, cart.ErrCartCompleted):
		code, msg = http.StatusConflict, "cart already completed"
	case errors.Is(err, cart.ErrStoreClosed):
		code, msg = http.StatusServiceUnavailable, "session expired"
	case errors.As(err, &remote):
		code = http.StatusBadGateway
		msg = "commerce service rejected the request"
		if remote.Detail != "" {
			msg = remote.Detail
		}
	case errors.As(err, &transport):
		code, msg = http.StatusGatewayTimeout, "commerce service unreachable"
	}

	if code == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("unclassified handler error", zap.Error(err))
	}

	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
	})
	writeJSON(w, code, e)
}

func writeJSON(w http.ResponseWriter, code int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
