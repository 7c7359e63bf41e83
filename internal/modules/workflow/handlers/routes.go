package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all company workflow routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/company-workflow/{companyId}", func(r chi.Router) {
		r.Get("/", h.HandleGetWorkflow)
		r.Post("/vote", h.HandleVote)
		r.Get("/votes", h.HandleGetVotes)
		r.Get("/votes/summary", h.HandleGetVoteSummary)
	})
}
