// Package handlers provides the read-only database browser routes.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aristath/foundry/internal/modules/portfolio"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Browser is the set of listing queries. *portfolio.Repository implements it.
type Browser interface {
	Stats(ctx context.Context) (*portfolio.Stats, error)
	Agents(ctx context.Context) ([]portfolio.AgentRow, error)
	Companies(ctx context.Context) ([]portfolio.CompanyRow, error)
	Holdings(ctx context.Context, wallet string) ([]portfolio.HoldingRow, error)
	Ideas(ctx context.Context, limit int) ([]portfolio.IdeaRow, error)
}

// Summarizer computes wallet summaries. *portfolio.Service implements it.
type Summarizer interface {
	WalletSummary(ctx context.Context, wallet string) (*portfolio.WalletSummary, error)
}

// Handler handles database browser requests
type Handler struct {
	browser    Browser
	summarizer Summarizer
	log        zerolog.Logger
}

// NewHandler creates a new database browser handler
func NewHandler(browser Browser, summarizer Summarizer, log zerolog.Logger) *Handler {
	return &Handler{
		browser:    browser,
		summarizer: summarizer,
		log:        log.With().Str("handler", "database").Logger(),
	}
}

// HandleStats handles GET /api/database/stats
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.browser.Stats(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Database stats error")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"agents":    stats.Agents,
		"companies": stats.Companies,
		"holdings":  stats.Holdings,
		"ideas":     stats.Ideas,
	})
}

// HandleAgents handles GET /api/database/ceo-agents
func (h *Handler) HandleAgents(w http.ResponseWriter, r *http.Request) {
	list, err := h.browser.Agents(r.Context())
	h.respondData(w, list, err, "Get CEO agents error")
}

// HandleCompanies handles GET /api/database/companies
func (h *Handler) HandleCompanies(w http.ResponseWriter, r *http.Request) {
	list, err := h.browser.Companies(r.Context())
	h.respondData(w, list, err, "Get companies error")
}

// HandleAllHoldings handles GET /api/database/portfolio/all
func (h *Handler) HandleAllHoldings(w http.ResponseWriter, r *http.Request) {
	list, err := h.browser.Holdings(r.Context(), "")
	h.respondData(w, list, err, "Get holdings error")
}

// HandleWallet handles GET /api/database/portfolio/{wallet}
func (h *Handler) HandleWallet(w http.ResponseWriter, r *http.Request) {
	wallet := chi.URLParam(r, "wallet")
	summary, err := h.summarizer.WalletSummary(r.Context(), wallet)
	if err != nil {
		h.log.Error().Err(err).Str("wallet", wallet).Msg("Wallet summary error")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    summary,
	})
}

// HandleIdeas handles GET /api/database/ideas?limit=
func (h *Handler) HandleIdeas(w http.ResponseWriter, r *http.Request) {
	limit := portfolio.DefaultIdeaLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	ideas, err := h.browser.Ideas(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Get ideas error")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"ideas":   ideas,
	})
}

func (h *Handler) respondData(w http.ResponseWriter, data interface{}, err error, msg string) {
	if err != nil {
		h.log.Error().Err(err).Msg(msg)
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
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
