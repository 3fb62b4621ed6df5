package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/postbox/internal/domain"
	context_ "github.com/mkrupp/postbox/internal/infra/context"
	"github.com/mkrupp/postbox/internal/infra/logging"
)

func TestConsoleHandlerLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := &logging.ConsoleHandler{
		Output:       &buf,
		Level:        slog.LevelInfo,
		LoggerLevels: map[string]slog.Level{"svc.authsvc": slog.LevelDebug, "repo": slog.LevelError},
	}

	ctx := context.Background()

	slog.New(handler).With(logging.LoggerNameKey, "svc.authsvc.auth_service").DebugContext(ctx, "auth debug")
	slog.New(handler).With(logging.LoggerNameKey, "repo.post").WarnContext(ctx, "repo warn")
	slog.New(handler).With(logging.LoggerNameKey, "svc.postsvc").DebugContext(ctx, "post debug")
	slog.New(handler).With(logging.LoggerNameKey, "svc.postsvc").InfoContext(ctx, "post info")

	out := buf.String()
	assert.Contains(t, out, "auth debug")
	assert.NotContains(t, out, "repo warn")
	assert.NotContains(t, out, "post debug")
	assert.Contains(t, out, "post info")
}

func TestContextHandlerAddsRequestValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(logging.NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := context_.WithRequestID(context.Background(), "request-1")
	ctx = context_.WithIdentity(ctx, domain.Identity{UserID: "user-1", SessionID: "session-1"})

	logger.InfoContext(ctx, "hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, map[string]any{"id": "request-1"}, record["request"])
	assert.Equal(t, map[string]any{"userId": "user-1", "sessionId": "session-1"}, record["auth"])
}

func TestNopLogger(t *testing.T) {
	t.Parallel()

	logger := logging.NewNopLogger()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logger.Error("dropped")
}

//nolint:paralleltest
func TestGetLoggerJSON(t *testing.T) {
	var buf bytes.Buffer

	logging.Configure(context.Background(), logging.LoggerConfig{
		Level:        "debug",
		JSON:         true,
		OutputHandle: &buf,
	}, "postbox.test")
	t.Cleanup(func() {
		logging.Configure(context.Background(), logging.LoggerConfig{Output: "discard"}, "")
	})

	logging.GetLogger("svc.test").DebugContext(context.Background(), "configured")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	last := lines[len(lines)-1]

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(last), &record))

	assert.Equal(t, "configured", record["msg"])
	assert.Equal(t, "svc.test", record[logging.LoggerNameKey])
	assert.Equal(t, "postbox.test", record["app"])
}
