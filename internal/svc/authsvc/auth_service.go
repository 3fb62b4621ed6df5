package authsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/postbox/internal/domain"
	"github.com/mkrupp/postbox/internal/infra/logging"
	"github.com/mkrupp/postbox/internal/infra/metrics"
	"github.com/mkrupp/postbox/internal/repo/session"
	"github.com/mkrupp/postbox/internal/repo/user"
	"github.com/mkrupp/postbox/internal/svc/authsvc/authclient"
	"github.com/mkrupp/postbox/internal/util/keylock"
	"github.com/mkrupp/postbox/internal/validate"
)

// LoggedOutMessage is the result message of a successful logout.
const LoggedOutMessage = "Logged out"

// AuthConfig contains configuration parameters for the authentication service.
type AuthConfig struct {
	// BcryptCost is the work factor of new password digests
	BcryptCost int `env:"BCRYPT_COST" default:"10"`

	// SessionTTL is the lifetime of a session; 0 issues sessions that never expire
	SessionTTL time.Duration `env:"SESSION_TTL" default:"24h"`

	// JanitorInterval is how often expired sessions and counters are removed
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" default:"1m"`

	RateLimit RateLimiterConfig `envPrefix:"RATE_LIMIT_"`
}

// AuthService provides login, logout, registration and token resolution.
type AuthService struct {
	Config    AuthConfig
	Users     *UserStore
	Sessions  *SessionStore
	Limiter   RateLimiter
	Validator *validate.Validator
	Log       logging.Logger

	// logins serializes login attempts per username.
	logins keylock.Locker
}

var _ authclient.AuthClient = (*AuthService)(nil)

// NewAuthService creates a new AuthService from the given repository factories, limiter and configuration.
// Returns an error if a repository cannot be created.
func NewAuthService(
	userRepoFactory user.RepositoryFactory,
	sessionRepoFactory session.RepositoryFactory,
	limiter RateLimiter,
	cfg AuthConfig,
) (*AuthService, error) {
	log := logging.GetLogger("svc.authsvc.auth_service")

	userRepo, err := userRepoFactory()
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	users, err := NewUserStore(userRepo, NewBcryptPasswordHasher(cfg.BcryptCost))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("new user store: %w", err), userRepo.Close())
	}

	sessionRepo, err := sessionRepoFactory()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("new session repo: %w", err), userRepo.Close())
	}

	return &AuthService{
		Config:    cfg,
		Users:     users,
		Sessions:  NewSessionStore(sessionRepo, cfg.SessionTTL),
		Limiter:   limiter,
		Validator: validate.New(),
		Log:       log,
	}, nil
}

// Login checks the credentials and issues a new session.
// Returns a *domain.ValidationError for malformed input and ErrInvalidCredentials for
// unknown users, wrong passwords and usernames with too many recent failures alike.
func (s *AuthService) Login(ctx context.Context, input validate.LoginInput) (_ *domain.Session, err error) {
	log := s.Log
	outcome := metrics.LoginFailed

	defer func() {
		metrics.LoginAttempts.WithLabelValues(outcome).Inc()

		switch outcome {
		case metrics.LoginSucceeded:
			log.DebugContext(ctx, "login successful")
		case metrics.LoginFailed:
			log.ErrorContext(ctx, "login failed", "error", err)
		default:
			log.InfoContext(ctx, "login rejected", "reason", outcome)
		}
	}()

	if err := s.Validator.Validate(&input); err != nil {
		outcome = metrics.LoginInvalidInput

		return nil, err //nolint:wrapcheck
	}

	log = log.With(logging.Group("user", "username", input.Username))

	unlock := s.logins.Lock(input.Username)
	defer unlock()

	blocked, err := s.Limiter.IsBlocked(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("check rate limit: %w", err)
	} else if blocked {
		outcome = metrics.LoginBlocked

		return nil, domain.ErrInvalidCredentials
	}

	found, ok, err := s.Users.FindByCredentials(ctx, input.Username, input.Password)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	} else if !ok {
		failures, err := s.Limiter.RecordFailure(ctx, input.Username)
		if err != nil {
			return nil, fmt.Errorf("record failure: %w", err)
		}

		log = log.With("failures", failures)
		outcome = metrics.LoginInvalidCredentials

		return nil, domain.ErrInvalidCredentials
	}

	if err := s.Limiter.Reset(ctx, input.Username); err != nil {
		return nil, fmt.Errorf("reset rate limit: %w", err)
	}

	created, err := s.Sessions.Create(ctx, found.ID)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	log = log.With(logging.Group("session", "id", created.ID, "userId", created.UserID))
	outcome = metrics.LoginSucceeded

	return created, nil
}

// Logout revokes the session behind token.
// Returns ErrUnauthorized for empty, unknown and expired tokens.
func (s *AuthService) Logout(ctx context.Context, token string) (_ *domain.MessageResponse, err error) {
	log := s.Log

	defer func() {
		if err != nil {
			log.InfoContext(ctx, "logout failed", "error", err)
		} else {
			log.DebugContext(ctx, "logout successful")
		}
	}()

	found, ok, err := s.Sessions.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	} else if !ok {
		return nil, domain.ErrUnauthorized
	}

	log = log.With(logging.Group("session", "id", found.ID, "userId", found.UserID))

	if err := s.Sessions.Delete(ctx, found.ID); err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}

	return &domain.MessageResponse{Message: LoggedOutMessage}, nil
}

// Authenticate implements authclient.AuthClient.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Identity, bool, error) {
	found, ok, err := s.Sessions.FindByToken(ctx, token)
	if err != nil {
		return domain.Identity{}, false, fmt.Errorf("find session: %w", err)
	} else if !ok {
		return domain.Identity{}, false, nil
	}

	return domain.Identity{UserID: found.UserID, SessionID: found.ID}, true, nil
}

// Register creates a new user account.
// Returns a *domain.ValidationError for malformed input and ErrUserAlreadyExists
// if the username is taken.
func (s *AuthService) Register(ctx context.Context, input validate.RegisterInput) (_ *domain.User, err error) {
	log := s.Log

	defer func() {
		if err != nil {
			log.InfoContext(ctx, "register user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}()

	if err := s.Validator.Validate(&input); err != nil {
		return nil, err //nolint:wrapcheck
	}

	log = log.With(logging.Group("user", "username", input.Username))

	created, err := s.Users.Create(ctx, input.Username, input.Password)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return created, nil
}

// CurrentUser returns the user with the given id.
// Returns ErrUserNotFound if it does not exist.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	found, ok, err := s.Users.Find(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	} else if !ok {
		return nil, domain.ErrUserNotFound
	}

	return found, nil
}

type pruner interface {
	Prune(now time.Time) int
}

// Cleanup removes expired sessions and closed rate-limit windows.
func (s *AuthService) Cleanup(ctx context.Context) error {
	n, err := s.Sessions.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}

	metrics.SessionsExpired.Add(float64(n))

	var pruned int
	if p, ok := s.Limiter.(pruner); ok {
		pruned = p.Prune(s.Sessions.Now())
	}

	s.Log.DebugContext(ctx, "cleanup done", "sessions", n, "counters", pruned)

	return nil
}

// RunJanitor calls Cleanup every Config.JanitorInterval until ctx is done.
func (s *AuthService) RunJanitor(ctx context.Context) {
	interval := s.Config.JanitorInterval
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Cleanup(ctx); err != nil {
				s.Log.ErrorContext(ctx, "cleanup failed", "error", err)
			}
		}
	}
}

// Close releases resources held by the service, such as database connections.
// Returns an error if cleanup fails.
func (s *AuthService) Close() error {
	return errors.Join(s.Users.Close(), s.Sessions.Close())
}
