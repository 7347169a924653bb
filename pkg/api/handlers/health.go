package handlers

import (
	"net/http"

	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/dissect"
)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	dissector *dissect.Dissector
}

// NewHealthHandler returns a health handler. A nil dissector makes the
// readiness probe fail.
func NewHealthHandler(d *dissect.Dissector) *HealthHandler {
	return &HealthHandler{dissector: d}
}

// Liveness handles GET /health. It succeeds while the server responds.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "smbwire",
	}))
}

// Readiness handles GET /health/ready. The server is ready once a dissector
// is attached and the schema registry is populated.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.dissector == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("dissector not initialized"))
		return
	}
	schemas := len(binstruct.DefaultRegistry.Names())
	if schemas == 0 {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no schemas registered"))
		return
	}
	cfg := h.dissector.Config()
	writeJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"schemas":          schemas,
		"max_message_size": cfg.MaxMessageSize.String(),
		"max_depth":        cfg.MaxDepth,
	}))
}
