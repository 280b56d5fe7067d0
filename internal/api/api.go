// Package api is the storefront's HTTP surface, consumed by the browser
// front-end. Each browser session is identified by a cookie and owns one
// cart store; handlers translate between JSON and the engine packages.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atelier-moda/storefront/internal/cart"
	"github.com/atelier-moda/storefront/internal/catalog"
	"github.com/atelier-moda/storefront/internal/checkout"
)

// SessionCookie is the cookie carrying the shopper's session identifier.
const SessionCookie = "storefront_session"

// Sessions resolves a session identifier to its cart store, creating the
// session when it does not exist yet.
type Sessions interface {
	Store(id string) *cart.Store
}

// Handler serves the storefront API.
type Handler struct {
	catalog  *catalog.Cache
	sessions Sessions
	checkout *checkout.Orchestrator
}

// NewHandler constructs a Handler with its engine dependencies.
func NewHandler(cat *catalog.Cache, sessions Sessions, orch *checkout.Orchestrator) *Handler {
	return &Handler{
		catalog:  cat,
		sessions: sessions,
		checkout: orch,
	}
}

// Routes returns the router for the /api subtree.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/products", h.listProducts)
	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addItem)
	r.Put("/cart/items/{itemID}", h.updateItem)
	r.Delete("/cart/items/{itemID}", h.removeItem)
	r.Post("/checkout", h.submitCheckout)
	return r
}

// session resolves the request's cart store. A missing or malformed cookie
// starts a fresh session and sets the cookie on the response.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *cart.Store {
	id := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, parseErr := uuid.Parse(c.Value); parseErr == nil {
			id = c.Value
		}
	}
	if id == "" {
		id = uuid.New().String()
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return h.sessions.Store(id)
}
