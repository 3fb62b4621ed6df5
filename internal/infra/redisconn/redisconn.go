// Package redisconn connects the service to Redis.
package redisconn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkrupp/postbox/internal/infra/logging"
	"github.com/mkrupp/postbox/internal/infra/metrics"
)

// Config holds configuration for the Redis client.
type Config struct {
	// URL is either a redis:// URL or a plain host:port address
	URL string `env:"URL" default:"localhost:6379"`
	// DialTimeout bounds connecting and the initial ping
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" default:"5s"`
	// KeyPrefix is prepended to every key written by the service
	KeyPrefix string `env:"KEY_PREFIX" default:"postbox:"`
}

type metricsHook struct{}

func (metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			metrics.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}

		return err
	}
}

func (metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			metrics.RedisErrors.WithLabelValues("pipeline").Inc()
		}

		return err
	}
}

// NewClient creates a client for cfg.URL and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	log := logging.GetLogger("infra.redis")

	var opts *redis.Options

	if strings.Contains(cfg.URL, "://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}

		opts = parsed
	} else {
		opts = &redis.Options{Addr: cfg.URL}
	}

	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})

	pingCtx := ctx

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc

		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()

		return nil, fmt.Errorf("ping: %w", err)
	}

	log.DebugContext(ctx, "redis connected", "addr", opts.Addr)

	return client, nil
}
