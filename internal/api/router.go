package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/hostsub/internal/hostservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *hostservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Hosts table.
	r.Get("/hosts", h.ListHosts)
	r.Get("/hosts/raw", h.RawHosts)
	r.Post("/hosts", h.CreateHost)
	r.Get("/hosts/{name}", h.GetHost)
	r.Put("/hosts/{name}", h.SetHost)
	r.Delete("/hosts/{name}", h.DeleteHost)

	// Network addresses.
	r.Get("/addresses", h.ListAddresses)
	r.Get("/addresses/diff", h.DiffAddresses)
	r.Post("/addresses/check", h.CheckAddresses)

	// Audit trail.
	r.Get("/history/mutations", h.ListMutations)
	r.Get("/history/notifications", h.ListNotifications)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
