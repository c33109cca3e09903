package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/statspot/internal/client"
	"github.com/desertthunder/statspot/internal/formatter"
	"github.com/desertthunder/statspot/internal/server"
	"github.com/desertthunder/statspot/internal/services"
	"github.com/desertthunder/statspot/internal/shared"
	"github.com/desertthunder/statspot/internal/stats"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoggedOutView ViewState = iota
	LoadingView
	DashboardView
	DetailView
)

// Tab selects the list shown on the dashboard.
type Tab int

const (
	TracksTab Tab = iota
	ArtistsTab
	PlaylistsTab
	ChartsTab
	tabCount
)

var tabNames = [tabCount]string{"Top Tracks", "Top Artists", "Playlists", "Charts"}

var ranges = []services.TimeRange{services.ShortTerm, services.MediumTerm, services.LongTerm}

var rangeNames = map[services.TimeRange]string{
	services.ShortTerm:  "last 4 weeks",
	services.MediumTerm: "last 6 months",
	services.LongTerm:   "all time",
}

var periods = []stats.Period{stats.PeriodWeek, stats.PeriodMonth, stats.PeriodSixMonths, stats.PeriodYear}

// Dispatcher is the auth controller as seen by the UI.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev client.Event) client.Outcome
	Unauthorized() client.Outcome
}

// APIFactory builds a data API client for an access token.
type APIFactory func(accessToken string) (services.Service, error)

// CallbackSource arms the redirect listener for one login attempt.
type CallbackSource func() <-chan server.CallbackResult

// Options holds the Model's collaborators.
type Options struct {
	Controller Dispatcher
	Dashboard  *stats.Dashboard
	NewAPI     APIFactory
	Callbacks  CallbackSource
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	tab        Tab
	rangeIdx   int
	periodIdx  int
	controller Dispatcher
	dashboard  *stats.Dashboard
	newAPI     APIFactory
	callbacks  CallbackSource
	api        services.Service
	lists      [tabCount]list.Model
	search     textinput.Model
	searching  bool
	detail     *stats.TrackDetail
	authURL    string
	notice     string
	err        error
	width      int
	height     int
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	search := textinput.New()
	search.Placeholder = "Search tracks, artists, playlists"
	search.Prompt = "/ "
	search.CharLimit = 100

	m := &Model{
		ctx:        ctx,
		view:       LoadingView,
		rangeIdx:   1,
		controller: opts.Controller,
		dashboard:  opts.Dashboard,
		newAPI:     opts.NewAPI,
		callbacks:  opts.Callbacks,
		search:     search,
		help:       help.New(),
		keys:       newKeyMap(),
	}
	for i := range m.lists {
		l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
		l.SetFilteringEnabled(false)
		l.SetShowHelp(false)
		m.lists[i] = l
	}
	return m
}

// Init resumes a stored session or refreshes silently.
func (m *Model) Init() tea.Cmd {
	return m.dispatch(client.Event{Intent: client.IntentStart})
}

// ViewState reports the current screen.
func (m *Model) ViewState() ViewState {
	return m.view
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.lists {
			m.lists[i].SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoggedOutView:
			return m.handleLoggedOutKeys(msg)
		case LoadingView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case DashboardView:
			return m.handleDashboardKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgOutcome:
		data := msg.data.(outcomeData)
		return m, m.applyOutcome(data.intent, data.outcome)

	case MsgCallback:
		res := msg.data.(server.CallbackResult)
		m.view = LoadingView
		m.authURL = ""
		return m, m.dispatch(client.Event{
			Intent:      client.IntentCallback,
			Code:        res.Code,
			Error:       res.Error,
			Description: res.Description,
		})

	case MsgDashboardLoaded:
		err, _ := msg.data.(error)
		if errors.Is(err, shared.ErrTokenExpired) {
			return m, m.unauthorized()
		}
		m.view = DashboardView
		if err != nil {
			m.err = err
			m.notice = "Could not load your stats. Press r to try again."
			return m, nil
		}
		m.err = nil
		m.notice = ""
		m.rebuildLists()
		return m, nil

	case MsgSearchDone:
		data := msg.data.(viewData)
		if errors.Is(data.err, shared.ErrTokenExpired) {
			return m, m.unauthorized()
		}
		m.rebuildLists()
		if len(data.view.Tracks)+len(data.view.Artists)+len(data.view.Playlists) == 0 {
			m.notice = fmt.Sprintf("No results for %q", m.dashboard.Query())
		} else {
			m.notice = ""
		}
		return m, nil

	case MsgDetailLoaded:
		data := msg.data.(detailData)
		switch {
		case errors.Is(data.err, shared.ErrTokenExpired):
			return m, m.unauthorized()
		case data.err != nil:
			m.notice = "Could not load track details."
			m.err = data.err
			m.view = DashboardView
		default:
			m.detail = data.detail
			m.view = DetailView
		}
		return m, nil
	}
	return m, nil
}

// applyOutcome moves to the screen matching the controller's state.
func (m *Model) applyOutcome(intent client.Intent, out client.Outcome) tea.Cmd {
	m.notice = out.Notice
	m.err = out.Err

	if out.State == client.LoggedOut || out.Token == nil {
		m.api = nil
		m.detail = nil
		m.clearLists()
		m.view = LoggedOutView
		if intent == client.IntentLogin && out.AuthURL != "" {
			m.authURL = out.AuthURL
			return m.waitForCallback()
		}
		return nil
	}

	api, err := m.newAPI(out.Token.AccessToken)
	if err != nil {
		m.err = err
		m.notice = "Could not reach the Spotify API."
		m.view = LoggedOutView
		return nil
	}
	m.api = api

	if m.dashboard.Loaded() && intent != client.IntentCallback {
		m.view = DashboardView
		return nil
	}
	m.view = LoadingView
	return m.loadDashboard()
}

func (m *Model) unauthorized() tea.Cmd {
	out := m.controller.Unauthorized()
	return m.applyOutcome(client.IntentRefresh, out)
}

func (m *Model) handleLoggedOutKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.login):
		return m, m.dispatch(client.Event{Intent: client.IntentLogin})
	case key.Matches(msg, m.keys.refresh):
		m.view = LoadingView
		return m, m.dispatch(client.Event{Intent: client.IntentRefresh})
	}
	return m, nil
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case msg.String() == "tab":
		m.tab = (m.tab + 1) % tabCount
		return m, nil
	case msg.String() == "shift+tab":
		m.tab = (m.tab + tabCount - 1) % tabCount
		return m, nil
	case key.Matches(msg, m.keys.rng):
		if m.tab == ChartsTab {
			m.periodIdx = (m.periodIdx + 1) % len(periods)
		} else {
			m.rangeIdx = (m.rangeIdx + 1) % len(ranges)
		}
		m.rebuildLists()
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.searching = true
		m.search.SetValue(m.dashboard.Query())
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.back):
		if m.dashboard.Query() != "" {
			m.dashboard.Filter("")
			m.notice = ""
			m.rebuildLists()
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if t, ok := m.selectedTrack(); ok {
			m.view = LoadingView
			return m, m.loadDetail(t.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.logout):
		m.view = LoadingView
		return m, m.dispatch(client.Event{Intent: client.IntentLogout})
	case key.Matches(msg, m.keys.refresh):
		m.view = LoadingView
		m.dashboard.Reset()
		return m, m.dispatch(client.Event{Intent: client.IntentRefresh})
	}

	return m.updateList(msg)
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, m.runSearch(m.search.Value())
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.detail = nil
		m.view = DashboardView
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != DashboardView {
		return m, nil
	}
	var cmd tea.Cmd
	m.lists[m.tab], cmd = m.lists[m.tab].Update(msg)
	return m, cmd
}

func (m *Model) selectedTrack() (services.SpotifyTrack, bool) {
	if m.tab != TracksTab && m.tab != ChartsTab {
		return services.SpotifyTrack{}, false
	}
	item, ok := m.lists[m.tab].SelectedItem().(trackItem)
	return item.track, ok
}

// rebuildLists refreshes every list from the dashboard.
// With an active query the tracks tab shows the filtered view instead of the selected range.
func (m *Model) rebuildLists() {
	current := m.dashboard.Current()
	tracks := m.dashboard.TopTracks(ranges[m.rangeIdx])
	if m.dashboard.Query() != "" {
		tracks = current.Tracks
	}

	m.setList(TracksTab, trackItems(tracks), fmt.Sprintf("Top Tracks (%s)", rangeNames[ranges[m.rangeIdx]]))
	m.setList(ArtistsTab, artistItems(current.Artists), "Top Artists")
	m.setList(PlaylistsTab, playlistItems(current.Playlists), "Playlists")
	m.setList(ChartsTab, trackItems(m.dashboard.ChartTop(periods[m.periodIdx])), fmt.Sprintf("Top 5 (%s)", periods[m.periodIdx]))
}

func (m *Model) setList(tab Tab, items []list.Item, title string) {
	m.lists[tab].SetItems(items)
	m.lists[tab].Title = title
	m.lists[tab].ResetSelected()
}

func (m *Model) clearLists() {
	for i := range m.lists {
		m.lists[i].SetItems(nil)
	}
}

func (m *Model) dispatch(ev client.Event) tea.Cmd {
	return func() tea.Msg {
		return outcomeMsg(ev.Intent, m.controller.Dispatch(m.ctx, ev))
	}
}

func (m *Model) waitForCallback() tea.Cmd {
	if m.callbacks == nil {
		return nil
	}
	results := m.callbacks()
	if results == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case res, ok := <-results:
			if !ok {
				return nil
			}
			return callbackMsg(res)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) loadDashboard() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		return dashboardLoadedMsg(m.dashboard.Load(m.ctx, api))
	}
}

func (m *Model) runSearch(query string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		view, err := m.dashboard.Search(m.ctx, api, query)
		return searchDoneMsg(view, err)
	}
}

func (m *Model) loadDetail(trackID string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		detail, err := stats.LoadTrackDetail(m.ctx, api, trackID)
		return detailLoadedMsg(detail, err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoggedOutView:
		return m.renderLoggedOut()
	case LoadingView:
		return m.renderLoading()
	case DashboardView:
		return m.renderDashboard()
	case DetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) renderNotice() string {
	switch {
	case m.notice != "" && m.err != nil:
		return styles.err.Render(m.notice)
	case m.notice != "":
		return styles.ok.Render(m.notice)
	case m.err != nil:
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	return ""
}

func (m *Model) renderLoggedOut() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Spotify Stats"))
	b.WriteString("\nLog in with Spotify to see your top tracks, artists and playlists.\n")
	if notice := m.renderNotice(); notice != "" {
		fmt.Fprintf(&b, "\n%s\n", notice)
	}
	if m.authURL != "" {
		fmt.Fprintf(&b, "\n%s\n%s\n", styles.warn.Render("Waiting for authorization. If no browser opened, visit:"), m.authURL)
	}
	fmt.Fprintf(&b, "\n%s", m.help.ShortHelpView([]key.Binding{m.keys.login, m.keys.refresh, m.keys.quit}))
	return b.String()
}

func (m *Model) renderLoading() string {
	return fmt.Sprintf("%s\n\n%s", styles.title.Render("Spotify Stats"), styles.help.Render("Loading..."))
}

func (m *Model) renderTabs() string {
	tabs := make([]string, tabCount)
	for i, name := range tabNames {
		if Tab(i) == m.tab {
			tabs[i] = styles.activeTab.Render(name)
		} else {
			tabs[i] = styles.tab.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderDashboard() string {
	var b strings.Builder

	header := "Spotify Stats"
	if me := m.dashboard.Profile(); me != nil {
		header = fmt.Sprintf("Spotify Stats • %s", me.Name())
	}
	b.WriteString(styles.title.Render(header))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	if m.searching {
		fmt.Fprintf(&b, "%s\n", m.search.View())
	} else if q := m.dashboard.Query(); q != "" {
		fmt.Fprintf(&b, "%s\n", styles.help.Render(fmt.Sprintf("Showing results for %q (esc to clear)", q)))
	}
	if notice := m.renderNotice(); notice != "" {
		fmt.Fprintf(&b, "%s\n", notice)
	}

	b.WriteString(m.lists[m.tab].View())

	helpKeys := []key.Binding{m.keys.tab, m.keys.rng, m.keys.search}
	if m.tab == TracksTab || m.tab == ChartsTab {
		helpKeys = append(helpKeys, m.keys.enter)
	}
	helpKeys = append(helpKeys, m.keys.refresh, m.keys.logout, m.keys.quit)
	fmt.Fprintf(&b, "\n\n%s", m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderDetail() string {
	if m.detail == nil {
		return ""
	}
	body := string(formatter.TrackDetail(m.detail, formatter.FormatText))
	return fmt.Sprintf("%s\n%s\n%s", styles.title.Render("Track Details"), body, m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
}
