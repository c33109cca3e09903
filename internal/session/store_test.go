package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/statspot/internal/shared"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestStore(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)

	t.Run("Save And Read", func(t *testing.T) {
		c := &clock{t: base}
		store := NewStore(NewMemoryStorage(), c.now)

		saved, err := store.Save(Fields{AccessToken: "at", TokenType: "Bearer", ExpiresIn: 3600, Scope: "user-top-read"})
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if saved.ObtainedAt != base.UnixMilli() {
			t.Errorf("expected obtained_at %d, got %d", base.UnixMilli(), saved.ObtainedAt)
		}

		tok, err := store.Read()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if tok.AccessToken != "at" || tok.Scope != "user-top-read" {
			t.Errorf("unexpected token %+v", tok)
		}
	})

	t.Run("Save Replaces Previous", func(t *testing.T) {
		store := NewStore(NewMemoryStorage(), nil)
		if _, err := store.Save(Fields{AccessToken: "first", ExpiresIn: 3600}); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Save(Fields{AccessToken: "second", ExpiresIn: 3600}); err != nil {
			t.Fatal(err)
		}
		tok, err := store.Read()
		if err != nil || tok.AccessToken != "second" {
			t.Errorf("expected replaced token, got %+v (%v)", tok, err)
		}
	})

	t.Run("Save Rejects Empty", func(t *testing.T) {
		store := NewStore(NewMemoryStorage(), nil)
		if _, err := store.Save(Fields{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Absent", func(t *testing.T) {
		store := NewStore(NewMemoryStorage(), nil)
		if _, err := store.Read(); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("expected ErrNoSession, got %v", err)
		}
	})

	t.Run("Expiry Boundary", func(t *testing.T) {
		c := &clock{t: base}
		mem := NewMemoryStorage()
		store := NewStore(mem, c.now)
		if _, err := store.Save(Fields{AccessToken: "at", ExpiresIn: 3600}); err != nil {
			t.Fatal(err)
		}

		c.t = base.Add(3600*time.Second - time.Millisecond)
		if _, err := store.Read(); err != nil {
			t.Fatalf("token must be valid 1ms before expiry: %v", err)
		}

		c.t = base.Add(3600 * time.Second)
		if _, err := store.Read(); !errors.Is(err, shared.ErrNoSession) {
			t.Fatalf("token must be expired at the expiry instant, got %v", err)
		}
		if mem.Has(KeyToken) {
			t.Error("expired token must be purged")
		}
	})

	t.Run("Stale Stored Token", func(t *testing.T) {
		now := time.Now()
		mem := NewMemoryStorage()
		stale := Token{Fields: Fields{AccessToken: "old", ExpiresIn: 3600}, ObtainedAt: now.UnixMilli() - 3_601_000}
		data, _ := json.Marshal(stale)
		mem.Set(KeyToken, string(data))

		store := NewStore(mem, func() time.Time { return now })
		if _, err := store.Read(); !errors.Is(err, shared.ErrNoSession) {
			t.Fatalf("expected ErrNoSession, got %v", err)
		}
		if mem.Has(KeyToken) {
			t.Error("stale token must be cleared from storage")
		}
	})

	t.Run("No Expiry Information", func(t *testing.T) {
		mem := NewMemoryStorage()
		mem.Set(KeyToken, `{"access_token":"at"}`)
		store := NewStore(mem, nil)
		if _, err := store.Read(); err != nil {
			t.Errorf("token without expiry info should be readable, got %v", err)
		}
	})

	t.Run("Corrupt Value", func(t *testing.T) {
		mem := NewMemoryStorage()
		mem.Set(KeyToken, "{not json")
		store := NewStore(mem, nil)
		if _, err := store.Read(); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("expected ErrNoSession, got %v", err)
		}
		if mem.Has(KeyToken) {
			t.Error("corrupt token must be purged")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := NewStore(NewMemoryStorage(), nil)
		store.Save(Fields{AccessToken: "at", ExpiresIn: 10})
		if err := store.Clear(); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Read(); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("expected ErrNoSession after Clear, got %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Errorf("clearing twice should succeed, got %v", err)
		}
	})

	t.Run("Verifier Lifecycle", func(t *testing.T) {
		store := NewStore(NewMemoryStorage(), nil)
		if _, err := store.Verifier(); !errors.Is(err, shared.ErrMissingVerifier) {
			t.Fatalf("expected ErrMissingVerifier, got %v", err)
		}

		store.SaveVerifier("first")
		store.SaveVerifier("second")
		v, err := store.Verifier()
		if err != nil || v != "second" {
			t.Errorf("a new attempt must overwrite the verifier, got %q (%v)", v, err)
		}

		store.ClearVerifier()
		if _, err := store.Verifier(); !errors.Is(err, shared.ErrMissingVerifier) {
			t.Errorf("expected ErrMissingVerifier after clear, got %v", err)
		}
	})
}

func TestToken(t *testing.T) {
	tok := Token{Fields: Fields{AccessToken: "at", ExpiresIn: 60}, ObtainedAt: 1000}
	if got := tok.ExpiresAt().UnixMilli(); got != 61_000 {
		t.Errorf("expected expiry at 61000ms, got %d", got)
	}

	data, _ := json.Marshal(tok)
	var generic map[string]any
	json.Unmarshal(data, &generic)
	for _, k := range []string{"access_token", "token_type", "expires_in", "scope", "obtained_at"} {
		if _, ok := generic[k]; !ok {
			t.Errorf("stored token missing key %s: %s", k, data)
		}
	}
	if _, ok := generic["refresh_token"]; ok {
		t.Error(fmt.Sprintf("stored token must never carry a refresh token: %s", data))
	}
}
