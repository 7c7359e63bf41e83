package reliability

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler exposes on-demand backups.
type Handler struct {
	service *BackupService
	log     zerolog.Logger
}

// NewHandler creates a backup handler. service is nil when backups are not configured.
func NewHandler(service *BackupService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "backup").Logger(),
	}
}

// RegisterRoutes registers backup routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/system/backup", h.HandleBackup)
	r.Get("/system/backups", h.HandleListBackups)
}

// HandleBackup handles POST /api/system/backup
func (h *Handler) HandleBackup(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		h.writeError(w, http.StatusServiceUnavailable, "Backups are not configured")
		return
	}

	result, err := h.service.Backup(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("On-demand backup failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"backup":  result,
	})
}

// HandleListBackups handles GET /api/system/backups
func (h *Handler) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		h.writeError(w, http.StatusServiceUnavailable, "Backups are not configured")
		return
	}

	backups, err := h.service.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"backups": backups,
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
