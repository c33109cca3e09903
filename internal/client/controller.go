package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/statspot/internal/session"
	"github.com/desertthunder/statspot/internal/shared"
)

// State is the controller's view of the session.
type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	if s == LoggedIn {
		return "logged in"
	}
	return "logged out"
}

// Intent is a user or lifecycle action the controller reacts to.
type Intent int

const (
	IntentStart    Intent = iota // resume a stored session or refresh silently
	IntentLogin                  // begin the authorization redirect
	IntentCallback               // the redirect landed with a code or an error
	IntentRefresh                // explicit refresh request
	IntentLogout                 // tear the session down
)

func (i Intent) String() string {
	switch i {
	case IntentStart:
		return "start"
	case IntentLogin:
		return "login"
	case IntentCallback:
		return "callback"
	case IntentRefresh:
		return "refresh"
	case IntentLogout:
		return "logout"
	}
	return fmt.Sprintf("intent(%d)", int(i))
}

// Event carries an intent and, for callbacks, what the redirect delivered.
type Event struct {
	Intent      Intent
	Code        string
	Error       string
	Description string
}

// Outcome is what the presentation layer renders after an event.
type Outcome struct {
	State  State
	Token  *session.Token
	Notice string
	// AuthURL is set after IntentLogin so the user can open it by hand.
	AuthURL string
	Err     error
}

// Resetter clears in-memory dashboard state on logout.
type Resetter interface {
	Reset()
}

// Controller dispatches intents to the client and tracks the resulting state.
//
// Each step completes before state changes; it is not safe for concurrent Dispatch calls.
type Controller struct {
	client     *Client
	authorizer *Authorizer
	resetters  []Resetter
	state      State
	token      *session.Token
	logger     *log.Logger
}

// NewController creates a controller starting in [LoggedOut].
func NewController(c *Client, a *Authorizer, resetters ...Resetter) *Controller {
	return &Controller{client: c, authorizer: a, resetters: resetters, logger: c.logger}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Token returns the current session token, or nil when logged out.
func (c *Controller) Token() *session.Token {
	return c.token
}

// Dispatch performs the work for ev and returns the new outcome.
func (c *Controller) Dispatch(ctx context.Context, ev Event) Outcome {
	c.logger.Debug("dispatch", "intent", ev.Intent)

	switch ev.Intent {
	case IntentStart:
		return c.start(ctx)
	case IntentLogin:
		return c.login()
	case IntentCallback:
		return c.callback(ctx, ev)
	case IntentRefresh:
		return c.refresh(ctx)
	case IntentLogout:
		return c.logout(ctx)
	}
	return c.outcome("", fmt.Errorf("%w: %s", shared.ErrInvalidInput, ev.Intent))
}

// Unauthorized handles a token rejected by the data API: the token is dropped and the state falls back to logged out.
func (c *Controller) Unauthorized() Outcome {
	if err := c.client.store.Clear(); err != nil {
		c.logger.Warn("failed to clear rejected token", "error", err)
	}
	c.client.store.Record(session.EventExpired, "rejected by api")
	c.setLoggedOut()
	return c.outcome("Session expired. Please log in again.", nil)
}

func (c *Controller) start(ctx context.Context) Outcome {
	tok, err := c.client.Resume(ctx)
	if err != nil {
		c.setLoggedOut()
		return c.outcome("", nil)
	}
	c.setLoggedIn(tok)
	return c.outcome("", nil)
}

func (c *Controller) login() Outcome {
	authURL, err := c.authorizer.Begin()
	out := c.outcome("Opening Spotify authorization...", err)
	out.AuthURL = authURL
	if err != nil && authURL != "" {
		out.Notice = "Could not open a browser. Visit the authorization URL to continue."
	} else if err != nil {
		out.Notice = "Login could not start: " + err.Error()
	}
	return out
}

func (c *Controller) callback(ctx context.Context, ev Event) Outcome {
	if ev.Code == "" {
		reason := ev.Error
		if ev.Description != "" {
			reason = ev.Description
		}
		if reason == "" {
			reason = "no authorization code received"
		}
		return c.outcome("Authorization failed: "+reason, fmt.Errorf("%w: %s", shared.ErrAuthFailed, reason))
	}

	tok, err := c.client.Exchange(ctx, ev.Code, c.authorizer.RedirectURI)
	switch {
	case err == nil:
		c.setLoggedIn(tok)
		return c.outcome("", nil)
	case errors.Is(err, shared.ErrMissingVerifier):
		return c.outcome("Missing PKCE verifier. Try logging in again.", err)
	}

	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Code != "" {
		return c.outcome("Token exchange returned an error: "+ue.Notice(), err)
	}
	return c.outcome("Token exchange failed. Try again.", err)
}

func (c *Controller) refresh(ctx context.Context) Outcome {
	tok, err := c.client.Refresh(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNoSession) {
			c.setLoggedOut()
			return c.outcome("No saved session. Log in to continue.", err)
		}
		return c.outcome("Could not refresh the session. Try again.", err)
	}
	c.setLoggedIn(tok)
	return c.outcome("Session refreshed.", nil)
}

func (c *Controller) logout(ctx context.Context) Outcome {
	err := c.client.Logout(ctx)
	c.setLoggedOut()
	for _, r := range c.resetters {
		r.Reset()
	}
	return c.outcome("Signed out", err)
}

func (c *Controller) setLoggedIn(tok *session.Token) {
	c.state, c.token = LoggedIn, tok
}

func (c *Controller) setLoggedOut() {
	c.state, c.token = LoggedOut, nil
}

func (c *Controller) outcome(notice string, err error) Outcome {
	return Outcome{State: c.state, Token: c.token, Notice: notice, Err: err}
}
