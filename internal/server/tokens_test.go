package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/statspot/internal/shared"
	"golang.org/x/oauth2"
)

func TestSafeFields(t *testing.T) {
	t.Run("Wire Values", func(t *testing.T) {
		tok := (&oauth2.Token{AccessToken: "a", TokenType: "Bearer", RefreshToken: "r"}).
			WithExtra(map[string]any{"expires_in": float64(3600), "scope": "user-top-read"})

		got := safeFields(tok)
		if got.AccessToken != "a" || got.ExpiresIn != 3600 || got.Scope != "user-top-read" {
			t.Errorf("unexpected fields %+v", got)
		}
	})

	t.Run("Expiry Fallback", func(t *testing.T) {
		tok := &oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(time.Hour)}
		if got := safeFields(tok).ExpiresIn; got < 3590 || got > 3600 {
			t.Errorf("expected about 3600, got %d", got)
		}
	})

	t.Run("No Expiry", func(t *testing.T) {
		if got := safeFields(&oauth2.Token{AccessToken: "a"}).ExpiresIn; got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})
}

func TestOAuthTokens(t *testing.T) {
	t.Run("Refresh Requires Token", func(t *testing.T) {
		_, err := NewOAuthTokens("", nil).Refresh(context.Background(), Credentials{}, "")
		if !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})

	t.Run("Credentials Complete", func(t *testing.T) {
		if (Credentials{ClientID: "id"}).Complete() {
			t.Error("expected incomplete without secret")
		}
		if !(Credentials{ClientID: "id", ClientSecret: "s"}).Complete() {
			t.Error("expected complete")
		}
	})
}
