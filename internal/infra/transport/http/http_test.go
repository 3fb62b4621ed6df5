package http_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/postbox/internal/domain"
	context_ "github.com/mkrupp/postbox/internal/infra/context"
	"github.com/mkrupp/postbox/internal/infra/logging"
	"github.com/mkrupp/postbox/internal/infra/metrics"
	http_ "github.com/mkrupp/postbox/internal/infra/transport/http"
)

// mockAuthClient implements authclient.AuthClient for testing.
type mockAuthClient struct {
	tokens map[string]domain.Identity
	err    error
	calls  []string
	m      sync.Mutex
}

func (m *mockAuthClient) Authenticate(_ context.Context, token string) (domain.Identity, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	m.calls = append(m.calls, token)

	if m.err != nil {
		return domain.Identity{}, false, m.err
	}

	identity, ok := m.tokens[token]

	return identity, ok, nil
}

func identityHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := context_.IdentityFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)

			return
		}

		_ = http_.WriteJSON(w, http.StatusOK, map[string]string{
			"userId":    identity.UserID,
			"sessionId": identity.SessionID,
		})
	})
}

func TestAuthorizingMiddleware(t *testing.T) {
	t.Parallel()

	client := &mockAuthClient{
		tokens: map[string]domain.Identity{"good": {UserID: "u1", SessionID: "s1"}},
	}
	handler := http_.AuthorizingMiddleware(identityHandler(), client, logging.NewNopLogger())

	tests := []struct {
		name       string
		header     *string
		wantStatus int
		wantBody   string
	}{
		{"missing header", nil, http.StatusUnauthorized, `{"message":"Unauthorized"}`},
		{"empty header", ptr(""), http.StatusUnauthorized, `{"message":"Unauthorized"}`},
		{"blank bearer", ptr("Bearer "), http.StatusUnauthorized, `{"message":"Unauthorized"}`},
		{"unknown token", ptr("forged"), http.StatusUnauthorized, `{"message":"Unauthorized"}`},
		{"raw token", ptr("good"), http.StatusOK, `{"sessionId":"s1","userId":"u1"}`},
		{"bearer token", ptr("Bearer good"), http.StatusOK, `{"sessionId":"s1","userId":"u1"}`},
		{"lowercase scheme", ptr("bearer good"), http.StatusOK, `{"sessionId":"s1","userId":"u1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
			if tt.header != nil {
				req.Header.Set("Authorization", *tt.header)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestAuthorizingMiddlewareClientError(t *testing.T) {
	t.Parallel()

	client := &mockAuthClient{err: errors.New("store down")}
	handler := http_.AuthorizingMiddleware(identityHandler(), client, logging.NewNopLogger())

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "good")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			domain.NewValidationError(domain.FieldError{Field: "title", Message: "Required"}),
			http.StatusUnprocessableEntity,
			`{"errors":[{"field":"title","message":"Required"}]}`,
		},
		{fmt.Errorf("login: %w", domain.ErrInvalidCredentials), http.StatusUnprocessableEntity, `{"message":"Invalid credentials"}`},
		{domain.ErrUnauthorized, http.StatusUnauthorized, `{"message":"Unauthorized"}`},
		{domain.ErrForbidden, http.StatusForbidden, `{"message":"Forbidden"}`},
		{errors.Join(domain.ErrPostNotFound, io.EOF), http.StatusNotFound, `{"message":"Not found"}`},
		{domain.ErrUserAlreadyExists, http.StatusConflict, `{"message":"Username already taken"}`},
		{errors.New("disk on fire"), http.StatusInternalServerError, `{"message":"Internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			require.NoError(t, http_.WriteError(rec, tt.err))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	handler := http_.TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, ok := context_.RequestIDFromContext(r.Context())
		assert.True(t, ok)
		_, _ = io.WriteString(w, requestID)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	generated := rec.Header().Get(http_.RequestIDHeader)
	assert.Len(t, generated, 26)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(http_.RequestIDHeader, "incoming-id")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "incoming-id", rec.Header().Get(http_.RequestIDHeader))
	assert.Equal(t, "incoming-id", rec.Body.String())
}

func TestRescueingMiddleware(t *testing.T) {
	t.Parallel()

	handler := http_.RescueingMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), logging.NewNopLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}

func TestLoggingMiddlewareCapturesStatus(t *testing.T) {
	t.Parallel()

	var captured *http_.ResponseRecorder

	handler := http_.LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		captured, _ = w.(*http_.ResponseRecorder)
		_ = http_.WriteMessage(w, http.StatusNotFound, "Not found")
		w.WriteHeader(http.StatusTeapot)
	}), logging.NewNopLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/x", nil))

	require.NotNil(t, captured)
	assert.Equal(t, http.StatusNotFound, captured.Status)
	assert.Equal(t, rec.Body.Len(), captured.BytesSent)
}

func TestNewResponseRecorderReusesRecorder(t *testing.T) {
	t.Parallel()

	rec := http_.NewResponseRecorder(httptest.NewRecorder())

	assert.Same(t, rec, http_.NewResponseRecorder(rec))
	assert.Equal(t, http.StatusOK, rec.Status)
}

func TestOpsTransport(t *testing.T) {
	t.Parallel()

	ops := http_.NewOpsTransport(http_.OpsTransportConfig{MetricsEnabled: true})

	rec := httptest.NewRecorder()
	ops.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	ops.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	http_.NewOpsTransport(http_.OpsTransportConfig{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeShutsDownWithContext(t *testing.T) {
	t.Parallel()

	sock, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- http_.Serve(ctx, sock, http_.NewServeMux(http_.NewOpsTransport(http_.OpsTransportConfig{})), http_.HTTPTransportConfig{
			ReadHeaderTimeout: time.Second,
			ReadTimeout:       time.Second,
			WriteTimeout:      time.Second,
			ShutdownTimeout:   time.Second,
		})
	}()

	resp, err := http.Get("http://" + sock.Addr().String() + "/healthz") //nolint:noctx
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(http_.RequestIDHeader))

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func ptr[T any](v T) *T { return &v }

func TestMetricsMiddlewareLabelsRoute(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics-test/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	matched := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "GET /metrics-test/{id}", "202")
	before := testutil.ToFloat64(matched)

	handler := http_.MetricsMiddleware(mux)

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics-test/"+id, nil))
		assert.Equal(t, http.StatusAccepted, rec.Code)
	}

	assert.InDelta(t, before+2, testutil.ToFloat64(matched), 0)

	unmatched := metrics.HTTPRequests.WithLabelValues(http.MethodPost, "unmatched", "405")
	before = testutil.ToFloat64(unmatched)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/metrics-test/a", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.InDelta(t, before+1, testutil.ToFloat64(unmatched), 0)
}
