package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers company routes under the /api/ceo-agents prefix.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/companies", func(r chi.Router) {
		r.Get("/", h.HandleListCompanies)
		r.Get("/{id}", h.HandleGetCompany)
		r.Post("/{id}/approve", h.HandleApproveCompany)
	})
}
