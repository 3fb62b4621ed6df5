package authsvc_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/postbox/internal/domain"
	http_ "github.com/mkrupp/postbox/internal/infra/transport/http"
	"github.com/mkrupp/postbox/internal/svc/authsvc"
)

func newTestTransport(t *testing.T) (*authsvc.HTTPTransport, *testEnv) {
	t.Helper()

	env := setupTestService(t)

	return authsvc.NewHTTPTransport(env.svc, authsvc.HTTPTransportConfig{
		HTTPTransportConfig: http_.HTTPTransportConfig{MaxBodyBytes: 1 << 16},
	}), env
}

func do(t *testing.T, handler http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func TestHTTPTransport_Login(t *testing.T) {
	t.Parallel()

	ht, _ := newTestTransport(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "short username",
			body:       `{"username":"ab","password":"validpassword123"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"errors":[{"field":"username","message":"String must contain at least 3 character(s)"}]}`,
		},
		{
			name:       "short password",
			body:       `{"username":"validuser","password":"123"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"errors":[{"field":"password","message":"String must contain at least 8 character(s)"}]}`,
		},
		{
			name:       "malformed json",
			body:       `{"username":`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"errors":[{"field":"body","message":"Invalid JSON"}]}`,
		},
		{
			name:       "wrong password",
			body:       `{"username":"validuser","password":"wrongpassword"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"message":"Invalid credentials"}`,
		},
		{
			name:       "unknown user",
			body:       `{"username":"nosuchuser","password":"wrongpassword"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"message":"Invalid credentials"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, ht, http.MethodPost, "/auth/login", tt.body, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}

	rec := do(t, ht, http.MethodPost, "/auth/login", `{"username":"validuser","password":"validpassword123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{"id", "userId", "token", "createdAt"}, keys(body))
}

func TestHTTPTransport_LogoutFlow(t *testing.T) {
	t.Parallel()

	ht, _ := newTestTransport(t)

	rec := do(t, ht, http.MethodPost, "/auth/login", `{"username":"validuser","password":"validpassword123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var created domain.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, ht, http.MethodGet, "/users/me", "", "Bearer "+created.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"validuser"`)
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec = do(t, ht, http.MethodPost, "/auth/logout", "", created.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Logged out"}`, rec.Body.String())

	unauthorized := `{"message":"Unauthorized"}`

	for _, token := range []string{created.Token, "", "never-issued"} {
		rec = do(t, ht, http.MethodPost, "/auth/logout", "", token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, token)
		assert.JSONEq(t, unauthorized, rec.Body.String(), token)
	}
}

func TestHTTPTransport_Register(t *testing.T) {
	t.Parallel()

	ht, _ := newTestTransport(t)

	rec := do(t, ht, http.MethodPost, "/auth/register", `{"username":"newuser","password":"password123"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{"id", "username", "createdAt"}, keys(body))

	rec = do(t, ht, http.MethodPost, "/auth/register", `{"username":"newuser","password":"password123"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"message":"Username already taken"}`, rec.Body.String())

	rec = do(t, ht, http.MethodPost, "/auth/register", `{"username":42,"password":"123"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"errors":[
		{"field":"username","message":"Expected string, received number"},
		{"field":"password","message":"String must contain at least 8 character(s)"}
	]}`, rec.Body.String())
}

func TestHTTPTransport_InternalError(t *testing.T) {
	t.Parallel()

	ht, env := newTestTransport(t)
	env.users.setErr(ErrRepoError)

	rec := do(t, ht, http.MethodPost, "/auth/login", `{"username":"validuser","password":"validpassword123"}`, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), ErrRepoError.Error())
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	return out
}
