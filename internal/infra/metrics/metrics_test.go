package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/postbox/internal/infra/metrics"
)

func TestLoginAttempts(t *testing.T) {
	before := testutil.ToFloat64(metrics.LoginAttempts.WithLabelValues(metrics.LoginBlocked))

	metrics.LoginAttempts.WithLabelValues(metrics.LoginBlocked).Inc()

	assert.InDelta(t, before+1, testutil.ToFloat64(metrics.LoginAttempts.WithLabelValues(metrics.LoginBlocked)), 0)
}

func TestHandler(t *testing.T) {
	metrics.HTTPRequests.WithLabelValues(http.MethodGet, "GET /healthz", "200").Inc()

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "postbox_http_requests_total")
}
