// Package handlers provides HTTP handlers for launched companies.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aristath/foundry/internal/modules/companies"
	"github.com/aristath/foundry/internal/modules/workflow"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CompanyStore reads companies.
type CompanyStore interface {
	GetByID(ctx context.Context, id int64) (*companies.Company, error)
	List(ctx context.Context) ([]companies.Company, error)
}

// Approver is the workflow operation behind the admin approve route.
type Approver interface {
	AdminApprove(ctx context.Context, companyID int64) (*workflow.State, error)
	Get(ctx context.Context, companyID int64) (*workflow.State, error)
}

// Handler handles company HTTP requests
type Handler struct {
	store    CompanyStore
	approver Approver
	log      zerolog.Logger
}

// NewHandler creates a new companies handler
func NewHandler(store CompanyStore, approver Approver, log zerolog.Logger) *Handler {
	return &Handler{
		store:    store,
		approver: approver,
		log:      log.With().Str("handler", "companies").Logger(),
	}
}

// HandleListCompanies handles GET /api/ceo-agents/companies
func (h *Handler) HandleListCompanies(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list companies")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"companies": list,
	})
}

// HandleGetCompany handles GET /api/ceo-agents/companies/{id}
// The workflow state is included when one exists.
func (h *Handler) HandleGetCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := h.companyID(w, r)
	if !ok {
		return
	}

	company, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("company_id", id).Msg("Failed to get company")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if company == nil {
		h.writeError(w, http.StatusNotFound, "Company not found")
		return
	}

	response := map[string]interface{}{
		"success": true,
		"company": company,
	}

	state, err := h.approver.Get(r.Context(), id)
	switch {
	case err == nil:
		response["workflow"] = state
	case errors.Is(err, workflow.ErrWorkflowNotFound):
	default:
		h.log.Warn().Err(err).Int64("company_id", id).Msg("Failed to load workflow for company")
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleApproveCompany handles POST /api/ceo-agents/companies/{id}/approve
func (h *Handler) HandleApproveCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := h.companyID(w, r)
	if !ok {
		return
	}

	state, err := h.approver.AdminApprove(r.Context(), id)
	switch {
	case errors.Is(err, companies.ErrCompanyNotFound):
		h.writeError(w, http.StatusNotFound, "Company not found")
		return
	case errors.Is(err, workflow.ErrWorkflowNotFound):
		h.writeError(w, http.StatusNotFound, "Workflow state not found")
		return
	case errors.Is(err, workflow.ErrNotVoting):
		h.writeError(w, http.StatusBadRequest, "Company is not awaiting approval")
		return
	case err != nil:
		h.log.Error().Err(err).Int64("company_id", id).Msg("Admin approval failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "PDR approved and marketing initiated!",
		"marketing": state.MarketingStrategy,
		"workflow":  state,
	})
}

func (h *Handler) companyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
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
