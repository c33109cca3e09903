// Package client is the terminal side of the statspot login lifecycle.
//
// It plays the role a browser plays for a web dashboard: it holds the PKCE verifier and the short-lived
// access token in profile storage, keeps the token service's refresh cookie in a persistent [Jar], and talks to
// the token service for exchange, refresh and logout. The client secret and the refresh token value never
// pass through this package.
package client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/statspot/internal/session"
)

// DefaultRefreshTimeout bounds the silent refresh attempted at startup.
const DefaultRefreshTimeout = 3 * time.Second

// Options configures [New].
type Options struct {
	ServiceURL     string
	Store          *session.Store
	RefreshTimeout time.Duration
	Logger         *log.Logger
	// Transport overrides the HTTP transport to the token service.
	Transport http.RoundTripper
}

// Client performs the token lifecycle against the token service.
type Client struct {
	service        *ServiceClient
	store          *session.Store
	jar            *Jar
	refreshTimeout time.Duration
	logger         *log.Logger
}

// New wires a client whose cookie jar is backed by the store's profile storage.
func New(opts Options) (*Client, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("client: a session store is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = DefaultRefreshTimeout
	}

	svc := NewServiceClient(opts.ServiceURL, nil)
	jar, err := NewJar(opts.Store.Storage(), svc.BaseURL(), opts.Logger)
	if err != nil {
		return nil, err
	}
	svc.httpClient = &http.Client{Jar: jar, Transport: opts.Transport, Timeout: 30 * time.Second}

	return &Client{
		service:        svc,
		store:          opts.Store,
		jar:            jar,
		refreshTimeout: opts.RefreshTimeout,
		logger:         opts.Logger,
	}, nil
}

// Store returns the session store.
func (c *Client) Store() *session.Store {
	return c.store
}

// Service returns the raw token service client.
func (c *Client) Service() *ServiceClient {
	return c.service
}

// HasRefreshCookie reports whether a refresh cookie is held for the service.
func (c *Client) HasRefreshCookie() bool {
	return c.jar.Has(RefreshCookie)
}

// RefreshCookie is the cookie name the token service issues.
const RefreshCookie = "spotify_refresh"
