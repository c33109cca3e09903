package client

import (
	"errors"
	"net/url"
	"testing"

	"github.com/desertthunder/statspot/internal/pkce"
	"github.com/desertthunder/statspot/internal/session"
	"github.com/desertthunder/statspot/internal/shared"
)

func TestAuthorizer(t *testing.T) {
	newAuthorizer := func(cfg shared.SpotifyConfig) (*Authorizer, *session.Store, *string) {
		store := session.NewStore(session.NewMemoryStorage(), nil)
		a := NewAuthorizer(cfg, store)
		var visited string
		a.Navigate = func(u string) error {
			visited = u
			return nil
		}
		return a, store, &visited
	}

	cfg := shared.SpotifyConfig{ClientID: "cid", RedirectURI: "http://127.0.0.1:3000/callback", ShowDialog: true}

	t.Run("URL Parameters", func(t *testing.T) {
		a, store, visited := newAuthorizer(cfg)
		returned, err := a.Begin()
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		if returned != *visited {
			t.Errorf("returned URL differs from navigated URL")
		}

		u, _ := url.Parse(*visited)
		if u.Scheme+"://"+u.Host+u.Path != SpotifyAuthURL {
			t.Errorf("unexpected endpoint %s", u)
		}

		q := u.Query()
		want := map[string]string{
			"client_id":             "cid",
			"response_type":         "code",
			"redirect_uri":          "http://127.0.0.1:3000/callback",
			"scope":                 "user-top-read user-read-private user-read-email",
			"code_challenge_method": "S256",
			"show_dialog":           "true",
		}
		for k, v := range want {
			if q.Get(k) != v {
				t.Errorf("%s: expected %q, got %q", k, v, q.Get(k))
			}
		}
		if q.Has("state") {
			t.Error("state should be omitted")
		}

		verifier, err := store.Verifier()
		if err != nil {
			t.Fatalf("expected stored verifier: %v", err)
		}
		if q.Get("code_challenge") != pkce.DeriveChallenge(verifier) {
			t.Error("challenge does not match stored verifier")
		}
	})

	t.Run("Challenge Sent Verbatim", func(t *testing.T) {
		a, _, _ := newAuthorizer(cfg)
		verifier, err := pkce.GenerateVerifier()
		if err != nil {
			t.Fatalf("GenerateVerifier: %v", err)
		}
		challenge := pkce.DeriveChallenge(verifier)

		u, _ := url.Parse(a.URL(challenge))
		if got := u.Query().Get("code_challenge"); got != challenge {
			t.Errorf("expected challenge %q, got %q", challenge, got)
		}
		if got := u.Query().Get("code_challenge"); got == pkce.DeriveChallenge(challenge) {
			t.Error("challenge must not be hashed a second time")
		}
	})

	t.Run("New Login Replaces Verifier", func(t *testing.T) {
		a, store, _ := newAuthorizer(cfg)
		a.Begin()
		first, _ := store.Verifier()
		a.Begin()
		second, _ := store.Verifier()

		if first == second {
			t.Error("expected second login to overwrite the verifier")
		}
	})

	t.Run("No Dialog", func(t *testing.T) {
		noDialog := cfg
		noDialog.ShowDialog = false
		a, _, _ := newAuthorizer(noDialog)

		u, _ := url.Parse(a.URL("challenge"))
		if u.Query().Has("show_dialog") {
			t.Error("show_dialog should be omitted")
		}
	})

	t.Run("Placeholder Client ID", func(t *testing.T) {
		placeholder := cfg
		placeholder.ClientID = "your_spotify_client_id"
		a, store, _ := newAuthorizer(placeholder)

		if _, err := a.Begin(); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Fatalf("expected ErrMissingCredentials, got %v", err)
		}
		if _, err := store.Verifier(); !errors.Is(err, shared.ErrMissingVerifier) {
			t.Error("no verifier should be stored when login cannot start")
		}
	})

	t.Run("Navigation Failure Returns URL", func(t *testing.T) {
		a, _, _ := newAuthorizer(cfg)
		a.Navigate = func(string) error { return errors.New("no display") }

		u, err := a.Begin()
		if err == nil || u == "" {
			t.Errorf("expected URL and error, got %q, %v", u, err)
		}
	})
}
