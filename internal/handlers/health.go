package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/taskdeck/taskdeck-api/internal/store"
)

// BrokerChecker is the optional event-broker health probe.
type BrokerChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthChecker handles health check requests
type HealthChecker struct {
	store  *store.FileStore
	broker BrokerChecker
}

// NewHealthChecker creates a new health checker. broker may be nil when no
// broker is configured.
func NewHealthChecker(st *store.FileStore, broker BrokerChecker) *HealthChecker {
	return &HealthChecker{store: st, broker: broker}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. Basic mode reports the server
// is up; ?mode=extended probes the data file location and the event broker.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if r.URL.Query().Get("mode") == "extended" {
		checks := make(map[string]string)

		if err := h.store.HealthCheck(); err != nil {
			response.Status = "unhealthy"
			checks["data_file"] = "unhealthy: " + err.Error()
		} else {
			checks["data_file"] = "healthy"
		}

		if h.broker == nil {
			checks["event_broker"] = "not_configured"
		} else if err := h.broker.HealthCheck(r.Context()); err != nil {
			response.Status = "unhealthy"
			checks["event_broker"] = "unhealthy: " + err.Error()
		} else {
			checks["event_broker"] = "healthy"
		}

		response.Checks = checks
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
