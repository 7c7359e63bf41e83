// Package handlers provides HTTP handlers for CEO agents and their token sale.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/foundry/internal/events"
	"github.com/aristath/foundry/internal/modules/agents"
	"github.com/aristath/foundry/internal/modules/companies"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// AgentStore is the agent persistence the handlers use.
type AgentStore interface {
	Create(ctx context.Context, agent agents.Agent) (*agents.Agent, error)
	GetByID(ctx context.Context, id int64) (*agents.Agent, error)
	List(ctx context.Context) ([]agents.Agent, error)
	BuyTokens(ctx context.Context, agentID int64, req agents.BuyTokensRequest) (*agents.Purchase, error)
	HoldingsByAgent(ctx context.Context, agentID int64) ([]agents.Holding, error)
}

// Launcher converts an agent into a company.
type Launcher interface {
	Launch(ctx context.Context, agentID int64) (*companies.Company, error)
}

// CompanyFinder looks up the company an agent was launched as.
type CompanyFinder interface {
	GetByAgentID(ctx context.Context, agentID int64) (*companies.Company, error)
}

// EventEmitter publishes domain events.
type EventEmitter interface {
	EmitTyped(module string, data events.EventData)
}

// Waker schedules a processor pass.
type Waker interface {
	TriggerAfter(d time.Duration)
}

// Handler handles CEO agent HTTP requests
type Handler struct {
	store    AgentStore
	launcher Launcher
	finder   CompanyFinder
	events   EventEmitter
	waker    Waker
	log      zerolog.Logger
}

// NewHandler creates a new agents handler. events and waker may be nil.
func NewHandler(store AgentStore, launcher Launcher, finder CompanyFinder, events EventEmitter, waker Waker, log zerolog.Logger) *Handler {
	return &Handler{
		store:    store,
		launcher: launcher,
		finder:   finder,
		events:   events,
		waker:    waker,
		log:      log.With().Str("handler", "agents").Logger(),
	}
}

// HandleListAgents handles GET /api/ceo-agents
func (h *Handler) HandleListAgents(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list agents")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"agents":  list,
	})
}

// HandleCreateAgent handles POST /api/ceo-agents
func (h *Handler) HandleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req agents.CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	agent, err := h.store.Create(r.Context(), req.ToAgent(time.Now()))
	if errors.Is(err, agents.ErrDuplicateSymbol) {
		h.writeError(w, http.StatusBadRequest, "Token symbol already exists. Please choose a different symbol.")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create agent")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.events != nil {
		var launchDate int64
		if agent.LaunchDate != nil {
			launchDate = *agent.LaunchDate
		}
		h.events.EmitTyped("agents", &events.AgentCreatedData{
			AgentID:     agent.ID,
			Name:        agent.Name,
			TokenSymbol: agent.TokenSymbol,
			LaunchDate:  launchDate,
		})
	}
	if h.waker != nil {
		h.waker.TriggerAfter(0)
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "CEO Agent created successfully!",
		"agent":   agent,
	})
}

// HandleGetAgent handles GET /api/ceo-agents/{id}
func (h *Handler) HandleGetAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.agentID(w, r)
	if !ok {
		return
	}

	agent, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("agent_id", id).Msg("Failed to get agent")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if agent == nil {
		h.writeError(w, http.StatusNotFound, "CEO Agent not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"agent":   agent,
	})
}

// HandleGetHoldings handles GET /api/ceo-agents/{id}/holdings
func (h *Handler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	id, ok := h.agentID(w, r)
	if !ok {
		return
	}

	holdings, err := h.store.HoldingsByAgent(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("agent_id", id).Msg("Failed to list holdings")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"holdings": holdings,
	})
}

// HandleBuyTokens handles POST /api/ceo-agents/{id}/buy-tokens
func (h *Handler) HandleBuyTokens(w http.ResponseWriter, r *http.Request) {
	id, ok := h.agentID(w, r)
	if !ok {
		return
	}

	var req agents.BuyTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	purchase, err := h.store.BuyTokens(r.Context(), id, req)

	var validation *agents.ValidationError
	var insufficient *agents.InsufficientTokensError
	switch {
	case errors.As(err, &validation):
		h.writeError(w, http.StatusBadRequest, validation.Message)
		return
	case errors.Is(err, agents.ErrAgentNotFound):
		h.writeError(w, http.StatusNotFound, "CEO Agent not found")
		return
	case errors.As(err, &insufficient):
		h.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Not enough tokens available. Only %d tokens left.", insufficient.Available))
		return
	case err != nil:
		h.log.Error().Err(err).Int64("agent_id", id).Msg("Failed to buy tokens")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.events != nil {
		h.events.EmitTyped("agents", &events.TokensPurchasedData{
			AgentID:         id,
			Wallet:          req.UserWallet,
			Tokens:          purchase.TokensBought,
			TotalCost:       purchase.TotalCost,
			TokensAvailable: purchase.TokensAvailable,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  fmt.Sprintf("Successfully purchased %d %s tokens!", purchase.TokensBought, purchase.AgentName),
		"purchase": purchase,
	})
}

// HandleLaunchAgent handles POST /api/ceo-agents/{id}/launch
func (h *Handler) HandleLaunchAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.agentID(w, r)
	if !ok {
		return
	}

	company, err := h.launcher.Launch(r.Context(), id)
	if errors.Is(err, companies.ErrAlreadyLaunched) {
		h.writeAlreadyLaunched(w, r, id)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("agent_id", id).Msg("Failed to launch agent")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Agent launched successfully!",
		"company": company,
	})
}

// writeAlreadyLaunched answers a repeated launch with the existing company.
func (h *Handler) writeAlreadyLaunched(w http.ResponseWriter, r *http.Request, agentID int64) {
	existing, err := h.finder.GetByAgentID(r.Context(), agentID)
	if err != nil {
		h.log.Error().Err(err).Int64("agent_id", agentID).Msg("Failed to find launched company")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		h.writeError(w, http.StatusBadRequest, "Agent already launched!")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Agent already launched!",
		"company": existing,
	})
}

func (h *Handler) agentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "Invalid agent ID")
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
