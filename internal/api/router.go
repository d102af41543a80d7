package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/readitlater/internal/noteservice"
	"github.com/starford/readitlater/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// broker, if non-nil, receives note events and is mounted at GET /events.
// assetsRoot is the absolute vault assets directory served at /assets.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, broker *sse.Broker, assetsRoot string) chi.Router {
	var events NoteEvents
	if broker != nil {
		events = broker
	}
	h := NewHandler(svc, events)
	ah := NewAssetHandler(assetsRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Post("/notes", h.CreateNotes)
	r.Post("/preview", h.Preview)
	r.Get("/extractors", h.ListExtractors)
	r.Get("/assets/{filename}", ah.ServeFile)

	if broker != nil {
		r.Get("/events", broker.ServeHTTP)
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})

	return r
}
