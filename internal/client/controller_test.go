package client

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/statspot/internal/session"
	"github.com/desertthunder/statspot/internal/shared"
)

type resetCounter struct{ n int }

func (r *resetCounter) Reset() { r.n++ }

func TestController(t *testing.T) {
	ctx := context.Background()

	t.Run("Start Without Session Is Silent", func(t *testing.T) {
		h := newHarness(t)
		ctrl := NewController(h.client, h.authorizer)

		out := ctrl.Dispatch(ctx, Event{Intent: IntentStart})
		if out.State != LoggedOut || out.Notice != "" || out.Err != nil {
			t.Errorf("expected silent logged-out outcome, got %+v", out)
		}
	})

	t.Run("Login Then Callback", func(t *testing.T) {
		h := newHarness(t)
		ctrl := NewController(h.client, h.authorizer)

		out := ctrl.Dispatch(ctx, Event{Intent: IntentLogin})
		if out.Err != nil || out.AuthURL == "" {
			t.Fatalf("login failed: %+v", out)
		}

		challenge := strings.SplitN(out.AuthURL, "code_challenge=", 2)[1]
		challenge, _, _ = strings.Cut(challenge, "&")
		code := h.accounts.IssueCode(challenge)

		out = ctrl.Dispatch(ctx, Event{Intent: IntentCallback, Code: code})
		if out.State != LoggedIn || out.Token == nil || out.Err != nil {
			t.Fatalf("expected logged in, got %+v", out)
		}
		if ctrl.State() != LoggedIn || ctrl.Token() == nil {
			t.Error("controller state not updated")
		}
	})

	t.Run("Callback Error", func(t *testing.T) {
		h := newHarness(t)
		ctrl := NewController(h.client, h.authorizer)

		out := ctrl.Dispatch(ctx, Event{Intent: IntentCallback, Error: "access_denied"})
		if !errors.Is(out.Err, shared.ErrAuthFailed) || !strings.Contains(out.Notice, "access_denied") {
			t.Errorf("unexpected outcome %+v", out)
		}
		if out.State != LoggedOut {
			t.Error("expected logged out")
		}
	})

	t.Run("Callback Without Verifier", func(t *testing.T) {
		h := newHarness(t)
		ctrl := NewController(h.client, h.authorizer)

		out := ctrl.Dispatch(ctx, Event{Intent: IntentCallback, Code: "abc"})
		if out.Notice != "Missing PKCE verifier. Try logging in again." {
			t.Errorf("unexpected notice %q", out.Notice)
		}
	})

	t.Run("Callback Upstream Error", func(t *testing.T) {
		h := newHarness(t)
		ctrl := NewController(h.client, h.authorizer)
		h.authorize(t)

		out := ctrl.Dispatch(ctx, Event{Intent: IntentCallback, Code: "never-issued"})
		if !strings.HasPrefix(out.Notice, "Token exchange returned an error: ") {
			t.Errorf("unexpected notice %q", out.Notice)
		}
	})

	t.Run("Start Resumes Via Refresh", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		h.client.Store().Clear()

		ctrl := NewController(h.client, h.authorizer)
		if out := ctrl.Dispatch(ctx, Event{Intent: IntentStart}); out.State != LoggedIn {
			t.Errorf("expected logged in via refresh, got %+v", out)
		}
	})

	t.Run("Explicit Refresh Without Session", func(t *testing.T) {
		h := newHarness(t)
		ctrl := NewController(h.client, h.authorizer)

		out := ctrl.Dispatch(ctx, Event{Intent: IntentRefresh})
		if out.State != LoggedOut || !errors.Is(out.Err, shared.ErrNoSession) {
			t.Errorf("unexpected outcome %+v", out)
		}
	})

	t.Run("Logout Resets Dashboard", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		reset := &resetCounter{}
		ctrl := NewController(h.client, h.authorizer, reset)
		ctrl.Dispatch(ctx, Event{Intent: IntentStart})

		out := ctrl.Dispatch(ctx, Event{Intent: IntentLogout})
		if out.State != LoggedOut || out.Notice != "Signed out" || reset.n != 1 {
			t.Errorf("unexpected outcome %+v resets=%d", out, reset.n)
		}
	})

	t.Run("Unauthorized Clears Token", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		ctrl := NewController(h.client, h.authorizer)
		ctrl.Dispatch(ctx, Event{Intent: IntentStart})

		out := ctrl.Unauthorized()
		if out.State != LoggedOut || h.storage.Has(session.KeyToken) {
			t.Errorf("expected token cleared, got %+v", out)
		}
	})

	t.Run("Unknown Intent", func(t *testing.T) {
		h := newHarness(t)
		ctrl := NewController(h.client, h.authorizer)

		if out := ctrl.Dispatch(ctx, Event{Intent: Intent(99)}); !errors.Is(out.Err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", out.Err)
		}
	})
}
