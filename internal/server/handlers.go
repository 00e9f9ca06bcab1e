package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// handleHealth reports service health, pinging each database
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	databases := make(map[string]string)

	for _, db := range s.container.Databases() {
		if err := db.QuickCheck(ctx); err != nil {
			s.log.Warn().Err(err).Str("database", db.Name()).Msg("Health check failed")
			databases[db.Name()] = "unavailable"
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		databases[db.Name()] = "ok"
	}

	response := map[string]interface{}{
		"status":    status,
		"version":   "1.0.0",
		"service":   "greenfolio",
		"databases": databases,
	}

	s.writeJSON(w, code, response)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
