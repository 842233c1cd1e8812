package api

import (
	"net/http"

	"github.com/sprypt/faqbot/internal/app"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	app *app.App
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{app: a}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

// liveness reports process health plus index status. Always 200 while
// the process is up; use /ready to gate traffic on the index.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	health := h.app.Healthy()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "ok",
		"index_ready":         health.IndexReady,
		"index_size":          health.IndexSize,
		"services_configured": health.ServicesConfigured,
		"model":               health.ModelName,
		"embedder_model":      health.EmbedderModel,
	})
}

// readiness returns 200 only once the vector index has been built or
// loaded, so load balancers don't route questions into an empty index.
func (h *HealthHandler) readiness(w http.ResponseWriter, _ *http.Request) {
	if !h.app.Index.Ready() {
		http.Error(w, "index not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
