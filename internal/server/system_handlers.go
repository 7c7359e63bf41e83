package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/aristath/foundry/internal/database"
	"github.com/aristath/foundry/internal/work"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Database is what the system routes read from the application database.
// *database.DB implements it.
type Database interface {
	QuickCheck(ctx context.Context) error
	GetStats() (*database.Stats, error)
}

// WorkStatus reports the work processor's queues. *work.Processor implements it.
type WorkStatus interface {
	Status() work.Status
}

// SystemHandlers serves health and status routes
type SystemHandlers struct {
	db      Database
	work    WorkStatus
	started time.Time
	log     zerolog.Logger
}

// NewSystemHandlers creates system handlers. work may be nil.
func NewSystemHandlers(db Database, work WorkStatus, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		db:      db,
		work:    work,
		started: time.Now(),
		log:     log.With().Str("handler", "system").Logger(),
	}
}

// SystemStatusResponse is returned by GET /api/system/status
type SystemStatusResponse struct {
	Success       bool            `json:"success"`
	Status        string          `json:"status"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	CPUPercent    float64         `json:"cpu_percent"`
	MemoryPercent float64         `json:"memory_percent"`
	Goroutines    int             `json:"goroutines"`
	Database      *database.Stats `json:"database,omitempty"`
	Work          *work.Status    `json:"work,omitempty"`
	LastChecked   string          `json:"last_checked"`
}

// HandleHealthCheck handles GET /api/health-check
func (h *SystemHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.QuickCheck(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Database health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"success": false,
			"message": "Database connection error",
			"error":   err.Error(),
		}, h.log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"message":    "API and database connection healthy",
		"apiVersion": APIVersion,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}, h.log)
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Success:       true,
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Goroutines:    runtime.NumGoroutine(),
		LastChecked:   time.Now().UTC().Format(time.RFC3339),
	}

	stats, err := h.db.GetStats()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get database stats")
		response.Status = "degraded"
	} else {
		response.Database = stats
	}

	if h.work != nil {
		status := h.work.Status()
		response.Work = &status
	}

	writeJSON(w, http.StatusOK, response, h.log)
}

// getSystemStats calculates CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// 100ms sample keeps the route responsive
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
