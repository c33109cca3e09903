package client

import (
	"fmt"
	"strings"

	"github.com/desertthunder/statspot/internal/pkce"
	"github.com/desertthunder/statspot/internal/session"
	"github.com/desertthunder/statspot/internal/shared"
	"golang.org/x/oauth2"
)

const SpotifyAuthURL = "https://accounts.spotify.com/authorize"

// DefaultScopes are requested when none are configured.
var DefaultScopes = []string{"user-top-read", "user-read-private", "user-read-email"}

// Navigator sends the user to url. The default opens the system browser.
type Navigator func(url string) error

// Authorizer starts the authorization code + PKCE flow.
type Authorizer struct {
	ClientID    string
	RedirectURI string
	Scopes      []string
	ShowDialog  bool
	// AuthURL overrides the authorization endpoint.
	AuthURL  string
	Navigate Navigator

	store *session.Store
}

// NewAuthorizer creates an authorizer from the Spotify settings, persisting verifiers in store.
func NewAuthorizer(cfg shared.SpotifyConfig, store *session.Store) *Authorizer {
	clientID := cfg.ClientID
	if !cfg.HasClient() {
		clientID = ""
	}
	return &Authorizer{
		ClientID:    clientID,
		RedirectURI: cfg.RedirectURI,
		Scopes:      cfg.Scopes,
		ShowDialog:  cfg.ShowDialog,
		Navigate:    shared.OpenBrowser,
		store:       store,
	}
}

func (a *Authorizer) config() *oauth2.Config {
	scopes := a.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	authURL := a.AuthURL
	if authURL == "" {
		authURL = SpotifyAuthURL
	}
	return &oauth2.Config{
		ClientID:    a.ClientID,
		RedirectURL: a.RedirectURI,
		Scopes:      scopes,
		Endpoint:    oauth2.Endpoint{AuthURL: authURL},
	}
}

// URL builds the authorization URL for an already derived S256 challenge.
//
// oauth2.S256ChallengeOption takes the verifier, so the parameters are set directly.
func (a *Authorizer) URL(challenge string) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge_method", pkce.MethodS256),
		oauth2.SetAuthURLParam("code_challenge", challenge),
	}
	if a.ShowDialog {
		opts = append(opts, oauth2.SetAuthURLParam("show_dialog", "true"))
	}
	return a.config().AuthCodeURL("", opts...)
}

// Begin generates a fresh PKCE pair, stores its verifier (replacing any login in flight)
// and navigates to the authorization URL, which is also returned.
func (a *Authorizer) Begin() (string, error) {
	if a.ClientID == "" {
		return "", fmt.Errorf("%w: spotify client_id", shared.ErrMissingCredentials)
	}
	if strings.TrimSpace(a.RedirectURI) == "" {
		return "", fmt.Errorf("%w: spotify redirect_uri", shared.ErrMissingConfig)
	}

	pair, err := pkce.New()
	if err != nil {
		return "", err
	}
	if err := a.store.SaveVerifier(pair.Verifier); err != nil {
		return "", fmt.Errorf("failed to save verifier: %w", err)
	}

	authURL := a.URL(pair.Challenge)
	if a.Navigate != nil {
		if err := a.Navigate(authURL); err != nil {
			return authURL, err
		}
	}
	return authURL, nil
}
