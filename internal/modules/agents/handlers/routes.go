package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers agent routes on a router already scoped to /api/ceo-agents.
// Company routes share that prefix, so the caller owns the Route block.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListAgents)
	r.Post("/", h.HandleCreateAgent)
	r.Get("/{id}", h.HandleGetAgent)
	r.Get("/{id}/holdings", h.HandleGetHoldings)
	r.Post("/{id}/buy-tokens", h.HandleBuyTokens)
	r.Post("/{id}/launch", h.HandleLaunchAgent)
}
