package work

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers provides HTTP handlers for the work processor
type Handlers struct {
	processor  *Processor
	registry   *Registry
	completion *CompletionTracker
	log        zerolog.Logger
}

// NewHandlers creates new HTTP handlers for the work processor
func NewHandlers(processor *Processor, registry *Registry, completion *CompletionTracker, log zerolog.Logger) *Handlers {
	return &Handlers{
		processor:  processor,
		registry:   registry,
		completion: completion,
		log:        log.With().Str("handler", "work").Logger(),
	}
}

// RegisterRoutes registers HTTP routes for work management
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/work", func(r chi.Router) {
		r.Get("/types", h.ListWorkTypes)
		r.Post("/trigger", h.TriggerProcessor)
		r.Post("/{workType}/execute", h.ExecuteWorkType)
		r.Post("/{workType}/{subject}/execute", h.ExecuteWorkTypeWithSubject)
	})
}

type workTypeInfo struct {
	ID            string      `json:"id"`
	Description   string      `json:"description,omitempty"`
	Priority      string      `json:"priority"`
	IntervalMS    int64       `json:"interval_ms,omitempty"`
	OnDemand      bool        `json:"on_demand"`
	LastCompleted *Completion `json:"last_completed,omitempty"`
}

// ListWorkTypes returns all registered work types
func (h *Handlers) ListWorkTypes(w http.ResponseWriter, r *http.Request) {
	types := h.registry.ByPriority()

	response := make([]workTypeInfo, 0, len(types))
	for _, wt := range types {
		info := workTypeInfo{
			ID:          wt.ID,
			Description: wt.Description,
			Priority:    wt.Priority.String(),
			IntervalMS:  wt.Interval.Milliseconds(),
			OnDemand:    wt.FindSubjects == nil,
		}
		if c, ok := h.completion.LastCompletion(wt.ID); ok {
			info.LastCompleted = &c
		}
		response = append(response, info)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"types":   response,
		"status":  h.processor.Status(),
	})
}

// TriggerProcessor wakes the processor to look for work
func (h *Handlers) TriggerProcessor(w http.ResponseWriter, r *http.Request) {
	h.processor.Trigger()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  "triggered",
	})
}

// ExecuteWorkType manually executes a work type (global work)
func (h *Handlers) ExecuteWorkType(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, chi.URLParam(r, "workType"), "")
}

// ExecuteWorkTypeWithSubject manually executes a work type with a subject
func (h *Handlers) ExecuteWorkTypeWithSubject(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, chi.URLParam(r, "workType"), chi.URLParam(r, "subject"))
}

func (h *Handlers) execute(w http.ResponseWriter, r *http.Request, workType, subject string) {
	start := time.Now()
	err := h.processor.ExecuteNow(r.Context(), workType, subject)
	if err != nil {
		var unknown *UnknownWorkTypeError
		if errors.As(err, &unknown) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error().Err(err).Str("work_type", workType).Str("subject", subject).Msg("Manual execution failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"status":      "executed",
		"work_type":   workType,
		"subject":     subject,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
