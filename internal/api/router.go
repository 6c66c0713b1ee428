package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/essence"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *essence.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/essentia", h.ListEssentia)
	r.Post("/essentia", h.CreateEssence)

	r.Get("/hints", h.ListHints)
	r.Get("/hints/{id}", h.GetHint)

	r.Get("/messages", h.ListMessages)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
