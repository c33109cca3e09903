package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/statspot/internal/client"
	"github.com/desertthunder/statspot/internal/server"
	"github.com/desertthunder/statspot/internal/services"
	"github.com/desertthunder/statspot/internal/session"
	"github.com/desertthunder/statspot/internal/shared"
	"github.com/desertthunder/statspot/internal/stats"
	tu "github.com/desertthunder/statspot/internal/testing"
)

// fakeController returns a preset outcome per intent and records what it saw.
type fakeController struct {
	outcomes     map[client.Intent]client.Outcome
	events       []client.Event
	unauthorized int
}

func (f *fakeController) Dispatch(_ context.Context, ev client.Event) client.Outcome {
	f.events = append(f.events, ev)
	return f.outcomes[ev.Intent]
}

func (f *fakeController) Unauthorized() client.Outcome {
	f.unauthorized++
	return client.Outcome{State: client.LoggedOut, Notice: "Session expired. Please log in again."}
}

func loggedIn(access string) client.Outcome {
	tok := &session.Token{Fields: session.Fields{AccessToken: access, TokenType: "Bearer", ExpiresIn: 3600}}
	return client.Outcome{State: client.LoggedIn, Token: tok}
}

func newTestModel(t *testing.T, ctrl *fakeController, callbacks CallbackSource) *Model {
	t.Helper()
	fake := tu.NewFakeSpotify("good-token")
	t.Cleanup(fake.Close)

	m := NewModel(context.Background(), Options{
		Controller: ctrl,
		Dashboard:  stats.NewDashboard(log.New(io.Discard)),
		NewAPI: func(token string) (services.Service, error) {
			return services.NewSpotifyService(token, services.WithBaseURL(fake.APIURL()))
		},
		Callbacks: callbacks,
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// drain runs cmd and feeds each resulting message back into the model until no command remains.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil; i++ {
		if i > 10 {
			t.Fatal("command chain did not settle")
		}
		msg := cmd()
		if msg == nil {
			return
		}
		_, cmd = m.Update(msg)
	}
}

func press(m *Model, k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

func TestModel(t *testing.T) {
	t.Run("Start without session shows logged out screen", func(t *testing.T) {
		ctrl := &fakeController{outcomes: map[client.Intent]client.Outcome{
			client.IntentStart: {State: client.LoggedOut},
		}}
		m := newTestModel(t, ctrl, nil)

		drain(t, m, m.Init())

		if m.ViewState() != LoggedOutView {
			t.Fatalf("expected LoggedOutView, got %d", m.ViewState())
		}
		if !strings.Contains(m.View(), "Log in with Spotify") {
			t.Errorf("unexpected view: %s", m.View())
		}
	})

	t.Run("Start with session loads dashboard", func(t *testing.T) {
		ctrl := &fakeController{outcomes: map[client.Intent]client.Outcome{
			client.IntentStart: loggedIn("good-token"),
		}}
		m := newTestModel(t, ctrl, nil)

		drain(t, m, m.Init())

		if m.ViewState() != DashboardView {
			t.Fatalf("expected DashboardView, got %d (err %v)", m.ViewState(), m.err)
		}
		view := m.View()
		if !strings.Contains(view, "Night Listener") {
			t.Errorf("expected profile name in header, got: %s", view)
		}
		if !strings.Contains(view, "Tidal Static") {
			t.Errorf("expected top track in list, got: %s", view)
		}
	})

	t.Run("Login waits for callback then exchanges", func(t *testing.T) {
		ctrl := &fakeController{outcomes: map[client.Intent]client.Outcome{
			client.IntentStart:    {State: client.LoggedOut},
			client.IntentLogin:    {State: client.LoggedOut, AuthURL: "https://accounts.example/authorize"},
			client.IntentCallback: loggedIn("good-token"),
		}}
		results := make(chan server.CallbackResult, 1)
		results <- server.CallbackResult{Code: "abc"}
		close(results)
		m := newTestModel(t, ctrl, func() <-chan server.CallbackResult { return results })

		drain(t, m, m.Init())
		cmd := press(m, "l")
		if cmd == nil {
			t.Fatal("expected login command")
		}
		drain(t, m, cmd)

		if m.ViewState() != DashboardView {
			t.Fatalf("expected DashboardView after callback, got %d", m.ViewState())
		}
		last := ctrl.events[len(ctrl.events)-1]
		if last.Intent != client.IntentCallback || last.Code != "abc" {
			t.Errorf("expected callback intent with code, got %+v", last)
		}
	})

	t.Run("Denied authorization stays logged out", func(t *testing.T) {
		ctrl := &fakeController{outcomes: map[client.Intent]client.Outcome{
			client.IntentLogin: {State: client.LoggedOut, AuthURL: "https://accounts.example/authorize"},
			client.IntentCallback: {
				State:  client.LoggedOut,
				Notice: "Authorization failed: access_denied",
				Err:    shared.ErrAuthFailed,
			},
		}}
		results := make(chan server.CallbackResult, 1)
		results <- server.CallbackResult{Error: "access_denied"}
		m := newTestModel(t, ctrl, func() <-chan server.CallbackResult { return results })
		m.view = LoggedOutView

		drain(t, m, press(m, "l"))

		if m.ViewState() != LoggedOutView {
			t.Fatalf("expected LoggedOutView, got %d", m.ViewState())
		}
		if !strings.Contains(m.View(), "Authorization failed: access_denied") {
			t.Errorf("expected notice in view: %s", m.View())
		}
	})

	t.Run("Rejected token falls back to logged out", func(t *testing.T) {
		ctrl := &fakeController{outcomes: map[client.Intent]client.Outcome{
			client.IntentStart: loggedIn("revoked-token"),
		}}
		m := newTestModel(t, ctrl, nil)

		drain(t, m, m.Init())

		if ctrl.unauthorized != 1 {
			t.Errorf("expected Unauthorized to be called once, got %d", ctrl.unauthorized)
		}
		if m.ViewState() != LoggedOutView {
			t.Fatalf("expected LoggedOutView, got %d", m.ViewState())
		}
		if !strings.Contains(m.View(), "Session expired") {
			t.Errorf("expected expiry notice: %s", m.View())
		}
	})

	t.Run("Logout returns to logged out screen", func(t *testing.T) {
		ctrl := &fakeController{outcomes: map[client.Intent]client.Outcome{
			client.IntentStart:  loggedIn("good-token"),
			client.IntentLogout: {State: client.LoggedOut, Notice: "Signed out"},
		}}
		m := newTestModel(t, ctrl, nil)
		drain(t, m, m.Init())

		drain(t, m, press(m, "o"))

		if m.ViewState() != LoggedOutView {
			t.Fatalf("expected LoggedOutView, got %d", m.ViewState())
		}
		if !strings.Contains(m.View(), "Signed out") {
			t.Errorf("expected sign out notice: %s", m.View())
		}
	})
}

func TestDashboardNavigation(t *testing.T) {
	setup := func(t *testing.T) *Model {
		ctrl := &fakeController{outcomes: map[client.Intent]client.Outcome{
			client.IntentStart: loggedIn("good-token"),
		}}
		m := newTestModel(t, ctrl, nil)
		drain(t, m, m.Init())
		if m.ViewState() != DashboardView {
			t.Fatalf("setup: expected DashboardView, got %d", m.ViewState())
		}
		return m
	}

	t.Run("Tabs cycle", func(t *testing.T) {
		m := setup(t)
		press(m, "tab")
		if m.tab != ArtistsTab {
			t.Fatalf("expected artists tab, got %d", m.tab)
		}
		if !strings.Contains(m.View(), "Glass Harbor") {
			t.Errorf("expected artist in view: %s", m.View())
		}
		for range tabCount - 1 {
			press(m, "tab")
		}
		if m.tab != TracksTab {
			t.Errorf("expected wrap to tracks tab, got %d", m.tab)
		}
	})

	t.Run("Time range switches track list", func(t *testing.T) {
		m := setup(t)
		press(m, "t")
		press(m, "t")

		if ranges[m.rangeIdx] != services.ShortTerm {
			t.Fatalf("expected short term, got %s", ranges[m.rangeIdx])
		}
		first, ok := m.selectedTrack()
		if !ok || first.ID != "track-2" {
			t.Errorf("expected short term ordering, got %+v", first)
		}
	})

	t.Run("Search then clear", func(t *testing.T) {
		m := setup(t)
		press(m, "/")
		if !m.searching {
			t.Fatal("expected search input to be focused")
		}
		for _, r := range "rust" {
			press(m, string(r))
		}
		drain(t, m, press(m, "enter"))

		if got := m.dashboard.Query(); got != "rust" {
			t.Fatalf("expected query to be recorded, got %q", got)
		}
		if n := len(m.lists[TracksTab].Items()); n != 1 {
			t.Errorf("expected one matching track, got %d", n)
		}

		press(m, "esc")
		if m.dashboard.Query() != "" || len(m.lists[TracksTab].Items()) != 2 {
			t.Errorf("expected esc to restore the full view")
		}
	})

	t.Run("Track detail", func(t *testing.T) {
		m := setup(t)
		drain(t, m, press(m, "enter"))

		if m.ViewState() != DetailView {
			t.Fatalf("expected DetailView, got %d (err %v)", m.ViewState(), m.err)
		}
		if !strings.Contains(m.View(), "Tempo:") {
			t.Errorf("expected audio features in detail: %s", m.View())
		}

		press(m, "esc")
		if m.ViewState() != DashboardView {
			t.Errorf("expected esc to return to dashboard, got %d", m.ViewState())
		}
	})

	t.Run("Detail unavailable on artists tab", func(t *testing.T) {
		m := setup(t)
		press(m, "tab")
		if cmd := press(m, "enter"); cmd != nil {
			t.Errorf("expected no command for enter on artists tab")
		}
		if m.ViewState() != DashboardView {
			t.Errorf("expected to stay on dashboard, got %d", m.ViewState())
		}
	})
}

func TestApplyOutcomeAPIError(t *testing.T) {
	ctrl := &fakeController{}
	m := NewModel(context.Background(), Options{
		Controller: ctrl,
		Dashboard:  stats.NewDashboard(log.New(io.Discard)),
		NewAPI: func(string) (services.Service, error) {
			return nil, errors.New("boom")
		},
	})

	if cmd := m.applyOutcome(client.IntentStart, loggedIn("good-token")); cmd != nil {
		t.Error("expected no command when the API client cannot be built")
	}
	if m.ViewState() != LoggedOutView {
		t.Errorf("expected LoggedOutView, got %d", m.ViewState())
	}
}
