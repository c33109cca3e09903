package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

const (
	errMissingFields = "missing code or code_verifier"
	errMisconfigured = "server misconfigured: missing SPOTIFY_CLIENT_ID/SECRET"
	errMissingCookie = "missing_refresh"
	errExchange      = "exchange_failed"
	errRefresh       = "refresh_failed"

	maxBodyBytes = 16 << 10
)

// ExchangeRequest is the body accepted by POST /api/exchange.
type ExchangeRequest struct {
	Code         string `json:"code"`
	CodeVerifier string `json:"code_verifier"`
	RedirectURI  string `json:"redirect_uri"`
}

// HealthResponse reports whether credentials are configured without revealing them.
type HealthResponse struct {
	OK        bool `json:"ok"`
	HasClient bool `json:"hasClient"`
	HasSecret bool `json:"hasSecret"`
}

// API serves the token exchange, refresh, logout and health endpoints.
//
// It holds no token state; the refresh token only ever lives in the client's cookie.
type API struct {
	creds      CredentialsSource
	tokens     TokenService
	production bool
	logger     *log.Logger
}

// NewAPI creates the token service API. production forces the Secure cookie attribute.
func NewAPI(creds CredentialsSource, tokens TokenService, production bool, logger *log.Logger) *API {
	return &API{creds: creds, tokens: tokens, production: production, logger: logger}
}

// Register mounts all endpoints on r.
func (a *API) Register(r Router) {
	r.Handle("/api/exchange", http.HandlerFunc(a.Exchange), http.MethodPost)
	r.Handle("/api/refresh", http.HandlerFunc(a.Refresh), http.MethodGet, http.MethodPost)
	r.Handle("/api/logout", http.HandlerFunc(a.Logout), http.MethodPost)
	r.Handle("/api/health", http.HandlerFunc(a.Health), http.MethodGet)
}

func (a *API) secure(r *http.Request) bool {
	return a.production || r.TLS != nil
}

// Exchange trades an authorization code and PKCE verifier for tokens.
func (a *API) Exchange(w http.ResponseWriter, r *http.Request) {
	req, err := decodeExchange(w, r)
	if err != nil || req.Code == "" || req.CodeVerifier == "" {
		writeError(w, http.StatusBadRequest, errMissingFields)
		return
	}

	creds := a.creds()
	if !creds.Complete() {
		a.logger.Error("exchange: client credentials not configured")
		writeError(w, http.StatusInternalServerError, errMisconfigured)
		return
	}

	tok, err := a.tokens.Exchange(r.Context(), creds, req.Code, req.CodeVerifier, req.RedirectURI)
	if err != nil {
		a.upstreamFailure(w, "exchange", errExchange, err)
		return
	}

	if tok.RefreshToken != "" {
		setRefreshCookie(w, tok.RefreshToken, a.secure(r))
	}
	writeJSON(w, http.StatusOK, safeFields(tok))
}

// Refresh mints a new access token from the refresh cookie.
//
// The cookie is rewritten, renewing its Max-Age, whenever the upstream body carries a refresh token.
func (a *API) Refresh(w http.ResponseWriter, r *http.Request) {
	current := readRefreshCookie(r)
	if current == "" {
		writeError(w, http.StatusUnauthorized, errMissingCookie)
		return
	}

	creds := a.creds()
	if !creds.Complete() {
		a.logger.Error("refresh: client credentials not configured")
		writeError(w, http.StatusInternalServerError, errMisconfigured)
		return
	}

	tok, err := a.tokens.Refresh(r.Context(), creds, current)
	if err != nil {
		a.upstreamFailure(w, "refresh", errRefresh, err)
		return
	}

	if issued, _ := tok.Extra("refresh_token").(string); issued != "" {
		setRefreshCookie(w, issued, a.secure(r))
	}
	writeJSON(w, http.StatusOK, safeFields(tok))
}

// Logout clears the refresh cookie. Calling it repeatedly has the same effect.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	clearRefreshCookie(w, a.secure(r))
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

// Health reports liveness and configuration presence.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	creds := a.creds()
	writeJSON(w, http.StatusOK, HealthResponse{
		OK:        true,
		HasClient: creds.ClientID != "",
		HasSecret: creds.ClientSecret != "",
	})
}

// upstreamFailure forwards an authorization server error body verbatim, or reports a transport failure by tag.
func (a *API) upstreamFailure(w http.ResponseWriter, op, tag string, err error) {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && len(re.Body) > 0 {
		a.logger.Warn(op+": authorization server rejected grant", "code", re.ErrorCode)
		contentType := ""
		if re.Response != nil {
			contentType = re.Response.Header.Get("Content-Type")
		}
		writeRaw(w, http.StatusInternalServerError, contentType, re.Body)
		return
	}

	a.logger.Error(op+": token request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: tag, Message: "token endpoint unreachable"})
}

// decodeExchange accepts a JSON body, falling back to a form body.
func decodeExchange(w http.ResponseWriter, r *http.Request) (ExchangeRequest, error) {
	var req ExchangeRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		r.Body = body
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Code = r.PostForm.Get("code")
		req.CodeVerifier = r.PostForm.Get("code_verifier")
		req.RedirectURI = r.PostForm.Get("redirect_uri")
		return req, nil
	}

	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return ExchangeRequest{}, err
	}
	return req, nil
}
