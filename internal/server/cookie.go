package server

import (
	"net/http"
	"net/url"
)

const (
	// RefreshCookie carries the refresh token between client and service.
	RefreshCookie = "spotify_refresh"

	refreshMaxAge = 60 * 60 * 24 * 30
)

// setRefreshCookie issues (or rotates) the refresh cookie with a fresh 30 day Max-Age.
func setRefreshCookie(w http.ResponseWriter, value string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    url.QueryEscape(value),
		Path:     "/",
		MaxAge:   refreshMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearRefreshCookie instructs the client to drop the cookie (Max-Age=0).
func clearRefreshCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// readRefreshCookie returns the decoded refresh token, or "" when absent.
func readRefreshCookie(r *http.Request) string {
	c, err := r.Cookie(RefreshCookie)
	if err != nil {
		return ""
	}
	v, err := url.QueryUnescape(c.Value)
	if err != nil {
		return c.Value
	}
	return v
}
