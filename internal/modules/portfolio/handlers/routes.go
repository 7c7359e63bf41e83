package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the database browser routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/database", func(r chi.Router) {
		r.Get("/stats", h.HandleStats)
		r.Get("/ceo-agents", h.HandleAgents)
		r.Get("/companies", h.HandleCompanies)
		r.Get("/ideas", h.HandleIdeas)

		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/all", h.HandleAllHoldings)
			r.Get("/{wallet}", h.HandleWallet)
		})
	})
}
