package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers marketing routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/agents", func(r chi.Router) {
		r.Post("/marketing-strategy", h.HandleMarketingStrategy)
		r.Post("/bolt-prompt", h.HandleBoltPrompt)
		r.Post("/pdrs", h.HandleCreatePDR)
		r.Get("/pdrs/{id}", h.HandleGetPDR)
		r.Post("/pdrs/{id}/approve", h.HandleApprovePDR)
		r.Get("/activities", h.HandleActivities)
		r.Get("/posts", h.HandlePosts)
	})
}
