package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mkrupp/postbox/internal/infra/logging"
)

// HTTPTransportConfig contains configuration parameters for HTTP servers.
type HTTPTransportConfig struct {
	// ServerAddr is the network address to listen on
	ServerAddr string `env:"SERVER_ADDR" default:":8080"`
	// ReadHeaderTimeout is the timeout for reading request headers
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" default:"5s"`

	ReadTimeout  time.Duration `env:"READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" default:"10s"`

	// ShutdownTimeout bounds the wait for in-flight requests once the context is done
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`

	// MaxBodyBytes limits the size of request bodies
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" default:"1048576"`
}

// HTTPTransport defines the interface for HTTP handlers that can serve requests.
type HTTPTransport interface {
	http.Handler

	// RegisterRoutes adds the transport's routes to mux.
	RegisterRoutes(mux *http.ServeMux)
}

// NewServeMux registers the routes of all transports on one mux.
func NewServeMux(transports ...HTTPTransport) *http.ServeMux {
	mux := http.NewServeMux()

	for _, transport := range transports {
		transport.RegisterRoutes(mux)
	}

	return mux
}

// WithMiddleware wraps handler in the standard middleware chain:
// tracing, logging, panic recovery and metrics, outermost first.
func WithMiddleware(handler http.Handler, log logging.Logger) http.Handler {
	handler = MetricsMiddleware(handler)
	handler = RescueingMiddleware(handler, log)
	handler = LoggingMiddleware(handler, log)
	handler = TracingMiddleware(handler)

	return handler
}

// ListenAndServe starts an HTTP server with the given handler and configuration.
// It sets up standard middleware for logging, tracing, metrics and panic recovery.
// The server shuts down gracefully once ctx is done.
// Returns an error if the server fails to start or encounters an error while running.
func ListenAndServe(ctx context.Context, handler http.Handler, cfg HTTPTransportConfig) error {
	sock, err := net.Listen("tcp", cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	return Serve(ctx, sock, handler, cfg)
}

// Serve is ListenAndServe on an existing listener.
func Serve(ctx context.Context, sock net.Listener, handler http.Handler, cfg HTTPTransportConfig) error {
	log := logging.GetLogger("infra.transport.http")

	//nolint:exhaustruct
	server := &http.Server{
		Handler:           WithMiddleware(handler, log),
		ErrorLog:          logging.GetLogLogger(log, logging.LevelError),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- server.Serve(sock)
	}()

	log.InfoContext(ctx, "listening", "addr", sock.Addr().String())

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	log.InfoContext(ctx, "shutting down")

	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Join(fmt.Errorf("shutdown: %w", err), server.Close())
	}

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}
