package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/postbox/internal/domain"
	"github.com/mkrupp/postbox/internal/repo/sqlitedb"
	"github.com/mkrupp/postbox/internal/svc/authsvc"
	"github.com/mkrupp/postbox/internal/validate"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	return Config{
		Auth: authsvc.AuthConfig{BcryptCost: bcrypt.MinCost},
		DB: sqlitedb.Config{
			DatabasePath: filepath.Join(t.TempDir(), "postbox.db"),
			BusyTimeout:  time.Second,
		},
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := testConfig(t)

	created, err := run(ctx, cfg, validate.RegisterInput{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.NotEmpty(t, created.ID)

	_, err = run(ctx, cfg, validate.RegisterInput{Username: "alice", Password: "password123"})
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	_, err = run(ctx, cfg, validate.RegisterInput{Username: "bob", Password: "short"})

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "password", validationErr.Errors[0].Field)

	_, err = run(ctx, cfg, validate.RegisterInput{Username: "  ", Password: "password123"})
	require.ErrorIs(t, err, errNoUsername)
}

func TestReadLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "newline", in: "secret123\nignored\n", want: "secret123"},
		{name: "crlf", in: "secret123\r\n", want: "secret123"},
		{name: "no newline", in: "secret123", want: "secret123"},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := readLine(strings.NewReader(tt.in))
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
