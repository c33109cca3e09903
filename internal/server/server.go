package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, request ids, rate limiting, panic recovery.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own their routes.
// Implementations handle specific endpoints (OAuth callback, token API).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                                // Use adds middleware to the router's middleware stack
	Handle(path string, handler http.Handler, methods ...string) // Handle registers a handler for path, restricted to methods
	Handler(handler Handler)                                     // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request)            // ServeHTTP implements http.Handler for the entire router
}

// Options configures [NewService].
type Options struct {
	Credentials CredentialsSource
	Tokens      TokenService
	Production  bool
	RateLimit   int // requests per minute per client IP, 0 disables
	RateBurst   int
	// TrustedProxies may set X-Forwarded-For / X-Real-IP. Empty means the peer address is always used.
	TrustedProxies TrustedProxies
	Logger         *log.Logger
}

// NewService builds the token service router with the standard middleware stack.
func NewService(opts Options) *BasicRouter {
	if opts.Tokens == nil {
		opts.Tokens = NewOAuthTokens("", nil)
	}
	r := NewBasicRouter()
	r.Use(RequestID(), Logging(opts.Logger), Recover(opts.Logger), RateLimit(opts.RateLimit, opts.RateBurst, opts.TrustedProxies))
	NewAPI(opts.Credentials, opts.Tokens, opts.Production, opts.Logger).Register(r)
	return r
}

// ListenAndServe runs handler on addr until ctx is cancelled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down", "addr", addr)
		return srv.Shutdown(shutdownCtx)
	}
}
