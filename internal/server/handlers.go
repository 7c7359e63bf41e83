package server

import (
	"net/http"
)

// APIVersion is reported by the health routes.
const APIVersion = "1.0.0"

// handleHealth handles liveness requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": APIVersion,
		"service": "foundry",
	}

	writeJSON(w, http.StatusOK, response, s.log)
}
