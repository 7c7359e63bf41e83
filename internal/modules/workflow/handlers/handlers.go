// Package handlers provides HTTP handlers for company workflows and votes.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aristath/foundry/internal/modules/workflow"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Service is the part of the workflow engine the handlers use.
type Service interface {
	Get(ctx context.Context, companyID int64) (*workflow.State, error)
	Vote(ctx context.Context, companyID int64, req workflow.VoteRequest) (*workflow.VoteResult, error)
	Votes(ctx context.Context, companyID int64) ([]workflow.Vote, error)
	VoteSummary(ctx context.Context, companyID int64) (*workflow.VoteSummary, error)
}

// Handler handles workflow HTTP requests
type Handler struct {
	service Service
	log     zerolog.Logger
}

// NewHandler creates a new workflow handler
func NewHandler(service Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "workflow").Logger(),
	}
}

// HandleGetWorkflow handles GET /api/company-workflow/{companyId}
func (h *Handler) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}

	state, err := h.service.Get(r.Context(), companyID)
	if errors.Is(err, workflow.ErrWorkflowNotFound) {
		h.writeError(w, http.StatusNotFound, "Workflow state not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("company_id", companyID).Msg("Failed to get workflow state")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"workflow": state,
	})
}

// HandleVote handles POST /api/company-workflow/{companyId}/vote
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}

	var req workflow.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Vote(r.Context(), companyID, req)
	switch {
	case errors.Is(err, workflow.ErrInvalidVote):
		h.writeError(w, http.StatusBadRequest, "Invalid vote. Must be approve or reject.")
		return
	case errors.Is(err, workflow.ErrWorkflowNotFound):
		h.writeError(w, http.StatusNotFound, "Workflow state not found")
		return
	case errors.Is(err, workflow.ErrNotVoting):
		h.writeError(w, http.StatusBadRequest, "Workflow is not awaiting a vote")
		return
	case err != nil:
		h.log.Error().Err(err).Int64("company_id", companyID).Msg("Failed to record vote")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Product Development Report " + req.Vote + "d successfully!",
		"vote":    result.Vote,
		"newStep": result.NewStep,
	})
}

// HandleGetVotes handles GET /api/company-workflow/{companyId}/votes
func (h *Handler) HandleGetVotes(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}

	votes, err := h.service.Votes(r.Context(), companyID)
	if err != nil {
		h.log.Error().Err(err).Int64("company_id", companyID).Msg("Failed to list votes")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"votes":   votes,
	})
}

// HandleGetVoteSummary handles GET /api/company-workflow/{companyId}/votes/summary
func (h *Handler) HandleGetVoteSummary(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}

	summary, err := h.service.VoteSummary(r.Context(), companyID)
	if err != nil {
		h.log.Error().Err(err).Int64("company_id", companyID).Msg("Failed to summarize votes")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"summary": summary,
	})
}

func (h *Handler) companyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "companyId"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "Invalid company ID")
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
