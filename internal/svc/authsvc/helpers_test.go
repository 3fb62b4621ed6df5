package authsvc_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/postbox/internal/domain"
	"github.com/mkrupp/postbox/internal/infra/logging"
	"github.com/mkrupp/postbox/internal/repo/session"
	"github.com/mkrupp/postbox/internal/repo/user"
	"github.com/mkrupp/postbox/internal/svc/authsvc"
)

var ErrRepoError = errors.New("repository error")

// fakeClock is a manually advanced clock.
type fakeClock struct {
	now time.Time
	m   sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.m.Lock()
	defer c.m.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.m.Lock()
	defer c.m.Unlock()

	c.now = c.now.Add(d)
}

// mockUserRepository wraps the memory repository and can be switched to fail.
type mockUserRepository struct {
	*user.MemoryUserRepository

	err     error
	lookups int
	m       sync.Mutex
}

func newMockUserRepo() *mockUserRepository {
	return &mockUserRepository{MemoryUserRepository: user.NewMemoryUserRepository()}
}

func (m *mockUserRepository) setErr(err error) {
	m.m.Lock()
	defer m.m.Unlock()

	m.err = err
}

func (m *mockUserRepository) lookupCount() int {
	m.m.Lock()
	defer m.m.Unlock()

	return m.lookups
}

func (m *mockUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	m.m.Lock()
	m.lookups++
	err := m.err
	m.m.Unlock()

	if err != nil {
		return nil, false, err
	}

	return m.MemoryUserRepository.GetUserByUsername(ctx, username)
}

func (m *mockUserRepository) CreateUser(ctx context.Context, u *domain.User) error {
	m.m.Lock()
	err := m.err
	m.m.Unlock()

	if err != nil {
		return err
	}

	return m.MemoryUserRepository.CreateUser(ctx, u)
}

// mockSessionRepository wraps the memory repository, can fail and can report
// token collisions for the first n inserts.
type mockSessionRepository struct {
	*session.MemorySessionRepository

	err        error
	collisions int
	m          sync.Mutex
}

func newMockSessionRepo() *mockSessionRepository {
	return &mockSessionRepository{MemorySessionRepository: session.NewMemorySessionRepository()}
}

func (m *mockSessionRepository) CreateSession(ctx context.Context, s *domain.Session) error {
	m.m.Lock()
	err := m.err
	collide := m.collisions > 0
	if collide {
		m.collisions--
	}
	m.m.Unlock()

	if err != nil {
		return err
	}

	if collide {
		return domain.ErrSessionTokenExists
	}

	return m.MemorySessionRepository.CreateSession(ctx, s)
}

func (m *mockSessionRepository) GetSessionByToken(ctx context.Context, token string) (*domain.Session, bool, error) {
	m.m.Lock()
	err := m.err
	m.m.Unlock()

	if err != nil {
		return nil, false, err
	}

	return m.MemorySessionRepository.GetSessionByToken(ctx, token)
}

type testEnv struct {
	svc      *authsvc.AuthService
	users    *mockUserRepository
	sessions *mockSessionRepository
	limiter  *authsvc.MemoryRateLimiter
	clock    *fakeClock
}

const (
	testUsername = "validuser"
	testPassword = "validpassword123"
)

func testConfig() authsvc.AuthConfig {
	return authsvc.AuthConfig{
		BcryptCost: bcrypt.MinCost,
		SessionTTL: time.Hour,
		RateLimit: authsvc.RateLimiterConfig{
			Threshold: 5,
			Window:    15 * time.Minute,
		},
	}
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()

	cfg := testConfig()
	clock := newFakeClock()
	users := newMockUserRepo()
	sessions := newMockSessionRepo()
	limiter := authsvc.NewMemoryRateLimiter(cfg.RateLimit, clock.Now)

	svc, err := authsvc.NewAuthService(
		func() (user.Repository, error) { return users, nil },
		func() (session.Repository, error) { return sessions, nil },
		limiter,
		cfg,
	)
	require.NoError(t, err)

	svc.Log = logging.NewNopLogger()
	svc.Sessions.Now = clock.Now

	_, err = svc.Users.Create(context.Background(), testUsername, testPassword)
	require.NoError(t, err)

	return &testEnv{
		svc:      svc,
		users:    users,
		sessions: sessions,
		limiter:  limiter,
		clock:    clock,
	}
}
