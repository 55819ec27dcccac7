package infra

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tokengate/tokengate/internal/version"
)

// RootStatus returns JSON status and version information at /.
func (h *Handlers) RootStatus(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"name":    "tokengate",
		"version": version.Version,
		"status":  "running",
		"api":     "/v1",
		"admin":   "/api/admin",
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HealthCheck handler returns the application health status.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":         "active",
		"app":            "tokengate",
		"uptime_seconds": int64(time.Since(h.StartTime).Seconds()),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
