package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/Shawm69/fbigposter/internal/service"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// operatorToken guards the constitution rewrite and proposal resolution
// routes; empty disables them.
func NewRouter(svc *service.Service, authEnabled bool, token, operatorToken string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Analysis and tactics.
	r.Post("/analysis", h.RunAnalysis)
	r.Get("/tactics/{pipeline}", h.GetTactics)
	r.Post("/tactics/{pipeline}/updates", h.ApplyUpdates)

	// Generation context.
	r.Get("/context/{pipeline}", h.BuildContext)

	// Metrics ingestion and post history.
	r.Post("/ingest", h.Ingest)
	r.Post("/posts", h.RecordPost)
	r.Get("/posts", h.ListPosts)

	// Constitution.
	r.Post("/constitution/check", h.CheckConstitution)
	r.Get("/constitution", h.GetConstitution)

	// Identity.
	r.Get("/soul", h.GetSoul)
	r.Post("/proposals", h.Propose)
	r.Get("/proposals", h.ListProposals)

	// Cycle and event feed.
	r.Post("/cycle", h.RunCycle)
	r.Get("/events", h.Events)

	// Operator-only writes.
	r.Group(func(r chi.Router) {
		r.Use(OperatorMiddleware(operatorToken))
		r.Put("/constitution", h.ReplaceConstitution)
		r.Post("/proposals/{id}/resolve", h.ResolveProposal)
	})

	return r
}
