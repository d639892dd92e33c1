package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mcpbase/internal/lifecycle"
	"mcpbase/internal/metrics"
	"mcpbase/pkg/logging"
)

// OpsServer serves the operational HTTP endpoints next to the MCP
// transport: liveness, readiness, and Prometheus metrics. The endpoints
// are unauthenticated and meant for orchestrators, not clients.
//
// Routes:
//   - GET /healthz - Liveness probe, 503 once termination begins
//   - GET /readyz  - Readiness probe, 503 outside the Ready state
//   - GET /metrics - Prometheus text exposition
type OpsServer struct {
	addr       string
	httpServer *http.Server
	mu         sync.Mutex
}

// NewOpsServer creates an ops server listening on addr.
func NewOpsServer(addr string, lc *lifecycle.Manager, em *metrics.Emitter) *OpsServer {
	return &OpsServer{
		addr: addr,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewOpsRouter(lc, em),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// NewOpsRouter builds the ops endpoint router. It is split from OpsServer
// so tests can drive it through httptest without binding a port.
func NewOpsRouter(lc *lifecycle.Manager, em *metrics.Emitter) http.Handler {
	r := chi.NewRouter()

	// No request logging: probe traffic is periodic.
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if lc.IsHealthy() {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if lc.IsReady() {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"state":  lc.State().String(),
		})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(em.Registry(), promhttp.HandlerOpts{}))

	return r
}

// Start begins serving in a background goroutine.
func (o *OpsServer) Start() {
	o.mu.Lock()
	httpServer := o.httpServer
	o.mu.Unlock()

	logging.Info("Transport", "Starting ops endpoints on %s", o.addr)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Transport", err, "Ops server error")
		}
	}()
}

// Stop shuts the ops server down gracefully.
func (o *OpsServer) Stop(ctx context.Context) error {
	o.mu.Lock()
	httpServer := o.httpServer
	o.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Debug("Transport", "Failed to encode ops response: %v", err)
	}
}
