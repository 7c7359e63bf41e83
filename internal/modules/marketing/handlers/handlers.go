// Package handlers provides HTTP handlers for marketing, PDRs and the activity log.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aristath/foundry/internal/domain"
	"github.com/aristath/foundry/internal/modules/marketing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Service is the marketing behaviour behind the routes.
type Service interface {
	GenerateStrategy(ctx context.Context, req marketing.StrategyRequest) (*domain.MarketingStrategy, error)
	BoltPrompt(req marketing.BoltPromptRequest) *domain.BoltPrompt
	CreatePDR(ctx context.Context, idea domain.Idea, product *domain.ProductData) (int64, error)
	GetPDR(ctx context.Context, id int64) (*marketing.PDR, error)
	ApprovePDR(ctx context.Context, id int64) (*marketing.Approval, error)
	Activities(ctx context.Context) ([]marketing.Activity, error)
	Posts(ctx context.Context) ([]marketing.Post, error)
}

// Handler handles marketing HTTP requests
type Handler struct {
	service Service
	log     zerolog.Logger
}

// NewHandler creates a new marketing handler
func NewHandler(service Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "marketing").Logger(),
	}
}

// HandleMarketingStrategy handles POST /api/agents/marketing-strategy
func (h *Handler) HandleMarketingStrategy(w http.ResponseWriter, r *http.Request) {
	var req marketing.StrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Valid() {
		h.writeError(w, http.StatusBadRequest, "Idea and product data are required")
		return
	}

	strategy, err := h.service.GenerateStrategy(r.Context(), req)
	if err != nil {
		if marketing.IsClientError(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to generate marketing strategy")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"strategy": strategy,
		"postResp": strategy.Posts,
	})
}

// HandleBoltPrompt handles POST /api/agents/bolt-prompt
func (h *Handler) HandleBoltPrompt(w http.ResponseWriter, r *http.Request) {
	var req marketing.BoltPromptRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"boltPrompt": h.service.BoltPrompt(req),
	})
}

// HandleCreatePDR handles POST /api/agents/pdrs
func (h *Handler) HandleCreatePDR(w http.ResponseWriter, r *http.Request) {
	var req marketing.CreatePDRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Idea == nil || req.Product == nil {
		h.writeError(w, http.StatusBadRequest, "Idea and product are required")
		return
	}

	id, err := h.service.CreatePDR(r.Context(), *req.Idea, req.Product)
	if errors.Is(err, domain.ErrInvalidPayload) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create PDR")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"pdrId":   id,
	})
}

// HandleGetPDR handles GET /api/agents/pdrs/{id}
func (h *Handler) HandleGetPDR(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pdrID(w, r)
	if !ok {
		return
	}

	pdr, err := h.service.GetPDR(r.Context(), id)
	if errors.Is(err, marketing.ErrPDRNotFound) {
		h.writeError(w, http.StatusNotFound, "PDR not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("pdr_id", id).Msg("Failed to load PDR")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"pdr":     pdr,
	})
}

// HandleApprovePDR handles POST /api/agents/pdrs/{id}/approve
func (h *Handler) HandleApprovePDR(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pdrID(w, r)
	if !ok {
		return
	}

	approval, err := h.service.ApprovePDR(r.Context(), id)
	switch {
	case errors.Is(err, marketing.ErrPDRAlreadyApproved):
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "PDR already approved",
		})
		return
	case errors.Is(err, marketing.ErrPDRNotFound):
		h.writeError(w, http.StatusNotFound, "PDR not found")
		return
	case err != nil:
		h.log.Error().Err(err).Int64("pdr_id", id).Msg("Failed to approve PDR")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"strategy": approval.Strategy,
		"postResp": approval.Posts,
	})
}

// HandleActivities handles GET /api/agents/activities
func (h *Handler) HandleActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.service.Activities(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list activities")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"activities": activities,
	})
}

// HandlePosts handles GET /api/agents/posts
func (h *Handler) HandlePosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.Posts(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list posts")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"posts":   posts,
	})
}

func (h *Handler) pdrID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "Invalid PDR ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
