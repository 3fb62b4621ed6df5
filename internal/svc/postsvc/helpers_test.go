package postsvc_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkrupp/postbox/internal/domain"
	"github.com/mkrupp/postbox/internal/infra/logging"
	"github.com/mkrupp/postbox/internal/repo/post"
	"github.com/mkrupp/postbox/internal/svc/postsvc"
)

var ErrRepoError = errors.New("repository error")

const (
	alice = "user-alice"
	bob   = "user-bob"
)

// fakeClock returns a fixed time until advanced.
type fakeClock struct {
	now time.Time
	m   sync.Mutex
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

// mockPostRepository wraps the memory repository and can be switched to fail.
type mockPostRepository struct {
	*post.MemoryPostRepository

	err error
	m   sync.Mutex
}

func (m *mockPostRepository) setErr(err error) {
	m.m.Lock()
	defer m.m.Unlock()

	m.err = err
}

func (m *mockPostRepository) getErr() error {
	m.m.Lock()
	defer m.m.Unlock()

	return m.err
}

func (m *mockPostRepository) CreatePost(ctx context.Context, p *domain.Post) error {
	if err := m.getErr(); err != nil {
		return err
	}

	return m.MemoryPostRepository.CreatePost(ctx, p)
}

func (m *mockPostRepository) ListPostsByAuthor(ctx context.Context, authorID string) ([]*domain.Post, error) {
	if err := m.getErr(); err != nil {
		return nil, err
	}

	return m.MemoryPostRepository.ListPostsByAuthor(ctx, authorID)
}

func (m *mockPostRepository) GetPost(ctx context.Context, id string) (*domain.Post, bool, error) {
	if err := m.getErr(); err != nil {
		return nil, false, err
	}

	return m.MemoryPostRepository.GetPost(ctx, id)
}

// mockAuthClient resolves a fixed set of tokens.
type mockAuthClient struct {
	tokens map[string]string
}

func (m *mockAuthClient) Authenticate(_ context.Context, token string) (domain.Identity, bool, error) {
	userID, ok := m.tokens[token]
	if !ok {
		return domain.Identity{}, false, nil
	}

	return domain.Identity{UserID: userID, SessionID: "session-" + userID}, true, nil
}

type testEnv struct {
	svc   *postsvc.RepoPostService
	repo  *mockPostRepository
	clock *fakeClock
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()

	repo := &mockPostRepository{MemoryPostRepository: post.NewMemoryPostRepository()}
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}

	svc, err := postsvc.NewRepoPostService(func() (post.Repository, error) { return repo, nil })
	require.NoError(t, err)

	svc.Log = logging.NewNopLogger()
	svc.Now = clock.Now

	t.Cleanup(func() { _ = svc.Close() })

	return &testEnv{svc: svc, repo: repo, clock: clock}
}

func ptr[T any](v T) *T {
	return &v
}
