package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"golang.org/x/oauth2"
)

const (
	FakeClientID     = "test_client_id"
	FakeClientSecret = "test_client_secret"
	FakeScope        = "user-top-read user-read-private user-read-email"
)

// FakeAccounts is an in-process stand-in for the Spotify accounts token endpoint.
//
// It enforces Basic client authentication, single-use codes bound to a PKCE challenge,
// and optional refresh token rotation.
type FakeAccounts struct {
	*httptest.Server

	mu        sync.Mutex
	rotate    bool
	echo      bool
	expiresIn int
	seq       int
	codes     map[string]string
	used      map[string]bool
	refresh   map[string]bool
	requests  []*http.Request
}

// NewFakeAccounts starts the fake server. It is closed with t.Cleanup by the caller.
func NewFakeAccounts() *FakeAccounts {
	f := &FakeAccounts{
		expiresIn: 3600,
		codes:     map[string]string{},
		used:      map[string]bool{},
		refresh:   map[string]bool{},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serveToken))
	return f
}

// TokenURL is the fake token endpoint.
func (f *FakeAccounts) TokenURL() string {
	return f.URL + "/api/token"
}

// IssueCode registers a code that can be exchanged with the verifier behind challenge.
func (f *FakeAccounts) IssueCode(challenge string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	code := fmt.Sprintf("code-%d", f.seq)
	f.codes[code] = challenge
	return code
}

// SetRotate makes refresh grants issue a new refresh token and revoke the old one.
func (f *FakeAccounts) SetRotate(rotate bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rotate = rotate
}

// SetEchoRefresh makes refresh responses repeat the presented refresh token when not rotating.
func (f *FakeAccounts) SetEchoRefresh(echo bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.echo = echo
}

// SetExpiresIn changes the lifetime reported with new access tokens.
func (f *FakeAccounts) SetExpiresIn(seconds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiresIn = seconds
}

// IssueRefresh registers a refresh token as valid.
func (f *FakeAccounts) IssueRefresh(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh[token] = true
}

// ValidRefresh reports whether token is currently accepted.
func (f *FakeAccounts) ValidRefresh(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh[token]
}

// Requests returns the number of token requests received.
func (f *FakeAccounts) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *FakeAccounts) serveToken(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r)

	if r.Method != http.MethodPost || r.URL.Path != "/api/token" {
		tokenError(w, http.StatusNotFound, "not_found", "")
		return
	}

	id, secret, ok := r.BasicAuth()
	if !ok || id != FakeClientID || secret != FakeClientSecret {
		tokenError(w, http.StatusUnauthorized, "invalid_client", "Invalid client")
		return
	}
	if err := r.ParseForm(); err != nil {
		tokenError(w, http.StatusBadRequest, "invalid_request", "malformed body")
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		f.grantCode(w, r)
	case "refresh_token":
		f.grantRefresh(w, r)
	default:
		tokenError(w, http.StatusBadRequest, "unsupported_grant_type", "")
	}
}

func (f *FakeAccounts) grantCode(w http.ResponseWriter, r *http.Request) {
	code := r.PostForm.Get("code")
	challenge, ok := f.codes[code]
	if !ok || f.used[code] {
		tokenError(w, http.StatusBadRequest, "invalid_grant", "Invalid authorization code")
		return
	}
	f.used[code] = true

	if oauth2.S256ChallengeFromVerifier(r.PostForm.Get("code_verifier")) != challenge {
		tokenError(w, http.StatusBadRequest, "invalid_grant", "code_verifier was incorrect")
		return
	}

	f.seq++
	rt := fmt.Sprintf("refresh-%d", f.seq)
	f.refresh[rt] = true
	f.writeToken(w, fmt.Sprintf("access-%d", f.seq), rt)
}

func (f *FakeAccounts) grantRefresh(w http.ResponseWriter, r *http.Request) {
	current := r.PostForm.Get("refresh_token")
	if !f.refresh[current] {
		tokenError(w, http.StatusBadRequest, "invalid_grant", "Refresh token revoked")
		return
	}

	f.seq++
	next := ""
	if f.rotate {
		delete(f.refresh, current)
		next = fmt.Sprintf("refresh-%d", f.seq)
		f.refresh[next] = true
	} else if f.echo {
		next = current
	}
	f.writeToken(w, fmt.Sprintf("access-%d", f.seq), next)
}

func (f *FakeAccounts) writeToken(w http.ResponseWriter, access, refresh string) {
	body := map[string]any{
		"access_token": access,
		"token_type":   "Bearer",
		"expires_in":   f.expiresIn,
		"scope":        FakeScope,
	}
	if refresh != "" {
		body["refresh_token"] = refresh
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func tokenError(w http.ResponseWriter, status int, code, desc string) {
	body := map[string]string{"error": code}
	if desc != "" {
		body["error_description"] = desc
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
