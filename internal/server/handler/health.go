package handler

import "net/http"

// ServiceName identifies the relay in health responses.
const ServiceName = "stx-ststx-signer"

// HealthHandler serves the liveness endpoint.
type HealthHandler struct{}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// HealthCheck responds with the service identity. It performs no
// dependency probes; a 200 means only that the process is serving.
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": ServiceName,
	})
}
