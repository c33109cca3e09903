package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/statspot/internal/shared"
	"golang.org/x/oauth2"
)

const (
	SpotifyAuthURL  = "https://accounts.spotify.com/authorize"
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Credentials are the confidential client credentials held by the service process.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Complete reports whether both halves are present.
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// CredentialsSource loads credentials from process configuration on every request,
// so a misconfigured service reports it per call instead of failing at boot.
type CredentialsSource func() Credentials

// StaticCredentials returns a [CredentialsSource] for fixed values.
func StaticCredentials(id, secret string) CredentialsSource {
	return func() Credentials { return Credentials{ClientID: id, ClientSecret: secret} }
}

// TokenService performs grants against the authorization server's token endpoint.
type TokenService interface {
	Exchange(ctx context.Context, creds Credentials, code, verifier, redirectURI string) (*oauth2.Token, error)
	Refresh(ctx context.Context, creds Credentials, refreshToken string) (*oauth2.Token, error)
}

// OAuthTokens implements [TokenService] with [oauth2.Config], authenticating with HTTP Basic.
type OAuthTokens struct {
	tokenURL   string
	httpClient *http.Client
}

// NewOAuthTokens creates a token service for tokenURL (defaults to Spotify's) using client for transport.
func NewOAuthTokens(tokenURL string, client *http.Client) *OAuthTokens {
	if tokenURL == "" {
		tokenURL = SpotifyTokenURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &OAuthTokens{tokenURL: tokenURL, httpClient: client}
}

func (o *OAuthTokens) config(creds Credentials, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   SpotifyAuthURL,
			TokenURL:  o.tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

func (o *OAuthTokens) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
}

// Exchange performs grant_type=authorization_code with the PKCE verifier.
func (o *OAuthTokens) Exchange(ctx context.Context, creds Credentials, code, verifier, redirectURI string) (*oauth2.Token, error) {
	tok, err := o.config(creds, redirectURI).Exchange(o.context(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrExchangeFailed, err)
	}
	return tok, nil
}

// Refresh performs grant_type=refresh_token.
//
// When the server does not rotate, the returned token carries the old refresh token.
func (o *OAuthTokens) Refresh(ctx context.Context, creds Credentials, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}
	src := o.config(creds, "").TokenSource(o.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	return tok, nil
}

// TokenResponse is the body returned to the client. It never carries the refresh token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// safeFields strips everything but the non-sensitive subset from tok.
func safeFields(tok *oauth2.Token) TokenResponse {
	resp := TokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   expiresIn(tok),
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		resp.Scope = scope
	}
	return resp
}

// expiresIn prefers the wire value and falls back to the computed expiry.
func expiresIn(tok *oauth2.Token) int64 {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	if tok.Expiry.IsZero() {
		return 0
	}
	return int64(time.Until(tok.Expiry).Round(time.Second) / time.Second)
}
