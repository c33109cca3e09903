package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/statspot/internal/client"
	"github.com/desertthunder/statspot/internal/server"
	"github.com/desertthunder/statspot/internal/session"
	"github.com/desertthunder/statspot/internal/shared"
	"github.com/urfave/cli/v3"
)

// callbackServer listens on the redirect URI's host and forwards the landing request to the armed [server.CallbackHandler].
type callbackServer struct {
	path string
	srv  *http.Server
	addr string

	mu      sync.Mutex
	current *server.CallbackHandler
}

var _ server.Handler = (*callbackServer)(nil)

// startCallbackServer binds the redirect URI's host:port, which must be a loopback address.
func startCallbackServer(redirectURI string, logger *log.Logger) (*callbackServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: redirect_uri %q is not an absolute URL", shared.ErrInvalidConfig, redirectURI)
	}
	switch u.Hostname() {
	case "127.0.0.1", "localhost", "::1":
	default:
		return nil, fmt.Errorf("%w: redirect_uri must point at this machine for CLI login, got %s", shared.ErrInvalidConfig, u.Host)
	}

	path := u.Path
	if path == "" {
		path = "/callback"
	}

	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", u.Host, err)
	}

	cs := &callbackServer{path: path, addr: ln.Addr().String()}
	router := server.NewBasicRouter()
	router.Use(server.RequestID(), server.Logging(logger), server.Recover(logger))
	router.Handler(cs)

	cs.srv = &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := cs.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("callback listener stopped", "error", err)
		}
	}()
	logger.Debug("callback listener started", "addr", cs.addr, "path", path)
	return cs, nil
}

func (c *callbackServer) Routes() []string {
	return []string{c.path}
}

func (c *callbackServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	h := c.current
	c.mu.Unlock()

	if h == nil {
		http.Error(w, "no login in progress", http.StatusNotFound)
		return
	}
	h.ServeHTTP(w, r)
}

// Arm installs a fresh handler for one login attempt and returns its result channel.
func (c *callbackServer) Arm() <-chan server.CallbackResult {
	h := server.NewCallbackHandler(c.path, "")
	c.mu.Lock()
	c.current = h
	c.mu.Unlock()
	return h.Result()
}

func (c *callbackServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.srv.Shutdown(ctx)
}

// Login opens the authorization page, waits for the redirect and exchanges the code through the token service.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.session()
	if err != nil {
		return err
	}

	cb, err := startCallbackServer(r.authorizer.RedirectURI, shared.WithLogger(r.logger, "component", "callback"))
	if err != nil {
		return err
	}
	defer cb.Close()

	results := cb.Arm()
	out := ctrl.Dispatch(ctx, client.Event{Intent: client.IntentLogin})
	if out.AuthURL == "" {
		return fmt.Errorf("%s: %w", out.Notice, out.Err)
	}

	r.writePlain("%s\n", out.Notice)
	r.writePlain("If the browser did not open, visit:\n\n  %s\n\n", out.AuthURL)

	timeout := cmd.Duration("timeout")
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var res server.CallbackResult
	select {
	case res = <-results:
	case <-waitCtx.Done():
		return fmt.Errorf("%w: no redirect received within %s", shared.ErrTimeout, timeout)
	}

	out = ctrl.Dispatch(ctx, client.Event{
		Intent:      client.IntentCallback,
		Code:        res.Code,
		Error:       res.Error,
		Description: res.Description,
	})
	if out.Err != nil {
		return fmt.Errorf("%s: %w", out.Notice, out.Err)
	}

	r.writePlain("✓ Logged in\n")
	if exp := out.Token.ExpiresAt(); !exp.IsZero() {
		r.writePlain("Access token valid until %s\n", exp.Format(time.Kitchen))
	}
	return nil
}

// Logout signs out on the token service and clears the profile.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.session()
	if err != nil {
		return err
	}

	out := ctrl.Dispatch(ctx, client.Event{Intent: client.IntentLogout})
	if out.Err != nil {
		r.logger.Warn("logout finished with errors", "error", out.Err)
	}
	return r.writePlain("✓ %s\n", out.Notice)
}

// Refresh exchanges the refresh cookie for a new access token.
func (r *Runner) Refresh(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.session()
	if err != nil {
		return err
	}

	out := ctrl.Dispatch(ctx, client.Event{Intent: client.IntentRefresh})
	if out.Err != nil {
		return fmt.Errorf("%s: %w", out.Notice, out.Err)
	}

	r.writePlain("✓ %s\n", out.Notice)
	if exp := out.Token.ExpiresAt(); !exp.IsZero() {
		r.writePlain("Access token valid until %s\n", exp.Format(time.Kitchen))
	}
	return nil
}

// eventLister is implemented by profile stores that keep an audit trail.
type eventLister interface {
	Events(limit int) ([]session.Event, error)
}

// Status reports token service health and the local session without changing either.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.session(); err != nil {
		return err
	}

	r.writePlainHeader("Token service")
	r.writePlain("URL: %s\n", r.client.Service().BaseURL())
	health, err := r.client.Service().Health(ctx)
	switch {
	case err != nil:
		r.writePlain("Health: ✗ unreachable (%v)\n", err)
	case health.HasClient && health.HasSecret:
		r.writePlain("Health: ✓ ok\n")
	default:
		r.writePlain("Health: ✗ misconfigured (client id set: %t, secret set: %t)\n", health.HasClient, health.HasSecret)
	}

	r.writePlainln("")
	r.writePlainHeader("Session")
	r.writePlain("Client ID: %s\n", shared.Mask(r.authorizer.ClientID))
	r.writePlain("Redirect URI: %s\n", r.authorizer.RedirectURI)

	tok, err := r.client.Store().Read()
	if err != nil {
		r.writePlain("Access token: ✗ none\n")
	} else {
		r.writePlain("Access token: ✓ present (%s)\n", describeExpiry(tok.ExpiresAt()))
		if tok.Scope != "" {
			r.writePlain("Scopes: %s\n", tok.Scope)
		}
	}
	if r.client.HasRefreshCookie() {
		r.writePlain("Refresh cookie: ✓ stored\n")
	} else {
		r.writePlain("Refresh cookie: ✗ none\n")
	}

	lister, ok := r.client.Store().Storage().(eventLister)
	if !ok || cmd.Int("events") <= 0 {
		return nil
	}
	events, err := lister.Events(int(cmd.Int("events")))
	if err != nil {
		r.logger.Warn("failed to read session events", "error", err)
		return nil
	}
	if len(events) > 0 {
		r.writePlainln("Recent events:")
		for _, e := range events {
			r.writePlain("  %s  %-8s %s\n", e.CreatedAt.Local().Format(time.DateTime), e.Kind, e.Detail)
		}
	}
	return nil
}

func describeExpiry(exp time.Time) string {
	if exp.IsZero() {
		return "no expiry"
	}
	remaining := time.Until(exp).Round(time.Second)
	return fmt.Sprintf("expires in %s", remaining)
}
