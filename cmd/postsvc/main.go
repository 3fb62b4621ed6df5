package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/mkrupp/postbox/internal/domain"
	"github.com/mkrupp/postbox/internal/infra/config"
	"github.com/mkrupp/postbox/internal/infra/logging"
	"github.com/mkrupp/postbox/internal/infra/redisconn"
	http_ "github.com/mkrupp/postbox/internal/infra/transport/http"
	"github.com/mkrupp/postbox/internal/repo/post"
	"github.com/mkrupp/postbox/internal/repo/session"
	"github.com/mkrupp/postbox/internal/repo/sqlitedb"
	"github.com/mkrupp/postbox/internal/repo/user"
	"github.com/mkrupp/postbox/internal/svc/authsvc"
	"github.com/mkrupp/postbox/internal/svc/postsvc"
	"github.com/mkrupp/postbox/internal/validate"
)

const (
	appName = "postbox"
	svcName = "postsvc"
)

var errUnknownBackend = errors.New("unknown backend")

// BackendConfig selects where state is kept.
type BackendConfig struct {
	// Storage holds users and posts: sqlite or memory
	Storage string `env:"STORAGE" default:"sqlite"`
	// Sessions holds sessions: storage or redis
	Sessions string `env:"SESSIONS" default:"storage"`
	// RateLimit holds failed login counters: memory or redis
	RateLimit string `env:"RATE_LIMIT" default:"memory"`
}

// SeedConfig names a user created at startup unless it exists.
type SeedConfig struct {
	Username string `env:"USERNAME" default:""`
	Password string `env:"PASSWORD" default:""`
}

type Config struct {
	config.EnvConfig

	Log     logging.LoggerConfig      `envPrefix:"LOG_"`
	Auth    authsvc.AuthConfig        `envPrefix:"AUTH_"`
	HTTP    http_.HTTPTransportConfig `envPrefix:"HTTP_"`
	Ops     http_.OpsTransportConfig  `envPrefix:"OPS_"`
	Backend BackendConfig             `envPrefix:"BACKEND_"`
	DB      sqlitedb.Config           `envPrefix:"DB_"`
	Redis   redisconn.Config          `envPrefix:"REDIS_"`
	Seed    SeedConfig                `envPrefix:"SEED_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

type repositories struct {
	users    user.RepositoryFactory
	sessions session.RepositoryFactory
	posts    post.RepositoryFactory
	limiter  authsvc.RateLimiter
	closers  []func() error
}

func (r *repositories) Close() error {
	var errs []error
	for _, closer := range r.closers {
		errs = append(errs, closer())
	}

	return errors.Join(errs...)
}

//nolint:cyclop
func newRepositories(ctx context.Context, cfg Config) (_ *repositories, err error) {
	repos := &repositories{}

	defer func() {
		if err != nil {
			err = errors.Join(err, repos.Close())
		}
	}()

	switch cfg.Backend.Storage {
	case "sqlite":
		db, err := sqlitedb.Open(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}

		repos.closers = append(repos.closers, db.Close)
		repos.users = user.SQLiteUserRepositoryFactory(ctx, db)
		repos.sessions = session.SQLiteSessionRepositoryFactory(ctx, db)
		repos.posts = post.SQLitePostRepositoryFactory(ctx, db)
	case "memory":
		repos.users = user.MemoryUserRepositoryFactory()
		repos.sessions = session.MemorySessionRepositoryFactory()
		repos.posts = post.MemoryPostRepositoryFactory()
	default:
		return nil, fmt.Errorf("%w: storage %q", errUnknownBackend, cfg.Backend.Storage)
	}

	var client *redis.Client

	if cfg.Backend.Sessions == "redis" || cfg.Backend.RateLimit == "redis" {
		client, err = redisconn.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("new redis client: %w", err)
		}

		repos.closers = append(repos.closers, client.Close)
	}

	switch cfg.Backend.Sessions {
	case "storage":
	case "redis":
		repos.sessions = session.RedisSessionRepositoryFactory(client, cfg.Redis.KeyPrefix)
	default:
		return nil, fmt.Errorf("%w: sessions %q", errUnknownBackend, cfg.Backend.Sessions)
	}

	switch cfg.Backend.RateLimit {
	case "memory":
		repos.limiter = authsvc.NewMemoryRateLimiter(cfg.Auth.RateLimit, nil)
	case "redis":
		repos.limiter = authsvc.NewRedisRateLimiter(cfg.Auth.RateLimit, client, cfg.Redis.KeyPrefix)
	default:
		return nil, fmt.Errorf("%w: rate limit %q", errUnknownBackend, cfg.Backend.RateLimit)
	}

	return repos, nil
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.postsvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
		}

		log.InfoContext(ctx, "shutdown")
	}()

	repos, err := newRepositories(ctx, cfg)
	if err != nil {
		return fmt.Errorf("new repositories: %w", err)
	}
	defer repos.Close() //nolint:errcheck

	authSvc, err := authsvc.NewAuthService(repos.users, repos.sessions, repos.limiter, cfg.Auth)
	if err != nil {
		return fmt.Errorf("new auth service: %w", err)
	}
	defer authSvc.Close() //nolint:errcheck

	postSvc, err := postsvc.NewRepoPostService(repos.posts)
	if err != nil {
		return fmt.Errorf("new post service: %w", err)
	}
	defer postSvc.Close() //nolint:errcheck

	if err := seed(ctx, authSvc, cfg.Seed); err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	go authSvc.RunJanitor(ctx)

	mux := http_.NewServeMux(
		authsvc.NewHTTPTransport(authSvc, authsvc.HTTPTransportConfig{HTTPTransportConfig: cfg.HTTP}),
		postsvc.NewHTTPTransport(postSvc, authSvc, postsvc.HTTPTransportConfig{HTTPTransportConfig: cfg.HTTP}),
		http_.NewOpsTransport(cfg.Ops),
	)

	if err := http_.ListenAndServe(ctx, mux, cfg.HTTP); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

func seed(ctx context.Context, authSvc *authsvc.AuthService, cfg SeedConfig) error {
	if cfg.Username == "" {
		return nil
	}

	_, err := authSvc.Register(ctx, validate.RegisterInput{Username: cfg.Username, Password: cfg.Password})
	if errors.Is(err, domain.ErrUserAlreadyExists) {
		return nil
	}

	return err
}
