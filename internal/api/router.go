package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/archdrift/engine/internal/api/handlers"
	mw "github.com/archdrift/engine/internal/api/middleware"
)

type Dependencies struct {
	WebhooksHandler *handlers.WebhooksHandler
	ProjectsHandler *handlers.ProjectsHandler
	ScansHandler    *handlers.ScansHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.RateLimit(10, 20))
	r.Use(chimid.Compress(5))

	// Health endpoints
	hh := handlers.NewHealthHandler()
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)

	// Webhook intake
	r.Post("/webhooks/github", dep.WebhooksHandler.GitHub)

	// Read API
	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/projects", func(pr chi.Router) {
			pr.Get("/", dep.ProjectsHandler.List)
			pr.Post("/", dep.ProjectsHandler.Create)
			pr.Get("/{id}", dep.ProjectsHandler.Get)
			pr.Get("/{id}/scans", dep.ProjectsHandler.ListScans)
		})

		api.Route("/scans", func(sr chi.Router) {
			sr.Get("/{id}", dep.ScansHandler.Get)
		})
	})

	return r
}
