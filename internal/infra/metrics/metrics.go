// Package metrics holds the Prometheus collectors exported by the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes recorded by LoginAttempts.
const (
	LoginSucceeded          = "succeeded"
	LoginInvalidInput       = "invalid_input"
	LoginInvalidCredentials = "invalid_credentials"
	LoginBlocked            = "blocked"
	LoginFailed             = "failed"
)

//nolint:gochecknoglobals
var (
	// HTTPRequests counts handled requests by method, route pattern and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postbox_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration records request latency by method and route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postbox_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// LoginAttempts counts login attempts by outcome.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postbox_login_attempts_total",
		Help: "Total number of login attempts by outcome",
	}, []string{"outcome"})

	// SessionsExpired counts sessions removed by the expiry janitor.
	SessionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postbox_sessions_expired_total",
		Help: "Total number of expired sessions removed",
	})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postbox_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})
)

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
