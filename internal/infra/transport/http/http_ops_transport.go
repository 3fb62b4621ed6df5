package http

import (
	"net/http"

	"github.com/mkrupp/postbox/internal/infra/metrics"
)

// OpsTransportConfig toggles the operational endpoints.
type OpsTransportConfig struct {
	// MetricsEnabled exposes Prometheus metrics on GET /metrics
	MetricsEnabled bool `env:"METRICS_ENABLED" default:"true"`
}

// OpsTransport serves the health and metrics endpoints.
type OpsTransport struct {
	cfg OpsTransportConfig
	mux *http.ServeMux
}

var _ HTTPTransport = (*OpsTransport)(nil)

// NewOpsTransport creates a new OpsTransport.
func NewOpsTransport(cfg OpsTransportConfig) *OpsTransport {
	ht := &OpsTransport{cfg: cfg}
	ht.mux = NewServeMux(ht)

	return ht
}

// RegisterRoutes implements HTTPTransport:
// - GET /healthz: liveness probe
// - GET /metrics: Prometheus exposition, if enabled.
func (ht *OpsTransport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", ht.HandleHealth)

	if ht.cfg.MetricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}
}

// ServeHTTP implements http.Handler.
func (ht *OpsTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

// HandleHealth reports that the process is serving.
func (ht *OpsTransport) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
