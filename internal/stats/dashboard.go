// Package stats holds the dashboard's session-scoped data and the derived views over it.
package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/statspot/internal/services"
	"github.com/desertthunder/statspot/internal/shared"
)

// TopLimit is requested for every top list and the playlist page.
const TopLimit = 50

// View is the subset of data a list screen renders.
type View struct {
	Tracks    []services.SpotifyTrack
	Artists   []services.SpotifyArtist
	Playlists []services.SpotifySimplePlaylist
}

// Dashboard is the data loaded for one logged-in session.
//
// All holds what was fetched; Current is what is displayed after filtering or searching.
// Charts keeps top tracks per time range.
type Dashboard struct {
	mu      sync.RWMutex
	me      *services.SpotifyUser
	all     View
	current View
	charts  map[services.TimeRange][]services.SpotifyTrack
	query   string
	loaded  bool
	logger  *log.Logger
}

// NewDashboard returns an empty dashboard.
func NewDashboard(logger *log.Logger) *Dashboard {
	if logger == nil {
		logger = log.Default()
	}
	return &Dashboard{logger: logger, charts: map[services.TimeRange][]services.SpotifyTrack{}}
}

// Load fetches the profile, top tracks for every range, medium-term top artists and playlists.
//
// Fetches run in sequence and the first failure aborts the load without replacing existing data.
// A [shared.ErrTokenExpired] is returned unwrapped so the caller can drop the token.
func (d *Dashboard) Load(ctx context.Context, api services.Service) error {
	me, err := api.UserProfile(ctx)
	if err != nil {
		return loadErr("profile", err)
	}

	charts := map[services.TimeRange][]services.SpotifyTrack{}
	for _, tr := range []services.TimeRange{services.ShortTerm, services.MediumTerm, services.LongTerm} {
		tracks, err := api.TopTracks(ctx, tr, TopLimit)
		if err != nil {
			return loadErr("top tracks", err)
		}
		charts[tr] = tracks
	}

	artists, err := api.TopArtists(ctx, services.MediumTerm, TopLimit)
	if err != nil {
		return loadErr("top artists", err)
	}

	playlists, err := api.UserPlaylists(ctx, TopLimit, 0)
	if err != nil {
		return loadErr("playlists", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.me = me
	d.charts = charts
	d.all = View{Tracks: charts[services.MediumTerm], Artists: artists, Playlists: playlists.Items}
	d.current = d.all
	d.query = ""
	d.loaded = true

	d.logger.Debug("dashboard loaded", "tracks", len(d.all.Tracks), "artists", len(artists), "playlists", len(playlists.Items))
	return nil
}

func loadErr(what string, err error) error {
	if errors.Is(err, shared.ErrTokenExpired) {
		return err
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// Reset drops everything, as after logout.
func (d *Dashboard) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.me = nil
	d.all = View{}
	d.current = View{}
	d.charts = map[services.TimeRange][]services.SpotifyTrack{}
	d.query = ""
	d.loaded = false
}

// Loaded reports whether data is present.
func (d *Dashboard) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// Profile returns the loaded user, or nil.
func (d *Dashboard) Profile() *services.SpotifyUser {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.me
}

// Current returns the displayed view.
func (d *Dashboard) Current() View {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

// TopTracks returns the loaded top tracks for a time range.
func (d *Dashboard) TopTracks(tr services.TimeRange) []services.SpotifyTrack {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.charts[tr]
}

// Query returns the active filter or search text.
func (d *Dashboard) Query() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.query
}

// Filter narrows the current view to entries matching query, case-insensitively.
// Tracks match on their name or any artist name; artists and playlists on their name.
// An empty query restores the full view.
func (d *Dashboard) Filter(query string) View {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.query = strings.TrimSpace(query)
	d.current = filterView(d.all, d.query)
	return d.current
}

func filterView(all View, query string) View {
	if query == "" {
		return all
	}
	q := strings.ToLower(query)
	contains := func(s string) bool { return strings.Contains(strings.ToLower(s), q) }

	var out View
	for _, t := range all.Tracks {
		if contains(t.Name) || anyArtist(t.Artists, contains) {
			out.Tracks = append(out.Tracks, t)
		}
	}
	for _, a := range all.Artists {
		if contains(a.Name) {
			out.Artists = append(out.Artists, a)
		}
	}
	for _, p := range all.Playlists {
		if contains(p.Name) {
			out.Playlists = append(out.Playlists, p)
		}
	}
	return out
}

func anyArtist(artists []services.SpotifyArtist, match func(string) bool) bool {
	for _, a := range artists {
		if match(a.Name) {
			return true
		}
	}
	return false
}

// Search replaces the displayed tracks and artists with API search results.
// Playlists keep the local filter. When the API call fails the local filter is used instead;
// an expired token is still reported.
func (d *Dashboard) Search(ctx context.Context, api services.Service, query string) (View, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return d.Filter(""), nil
	}

	result, err := api.Search(ctx, query, 20)
	if err != nil {
		d.logger.Warn("search failed, filtering locally", "error", err)
		view := d.Filter(query)
		if errors.Is(err, shared.ErrTokenExpired) {
			return view, err
		}
		return view, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.query = query
	d.current = View{
		Tracks:    result.Tracks.Items,
		Artists:   result.Artists.Items,
		Playlists: filterView(d.all, query).Playlists,
	}
	return d.current, nil
}

// Period selects a chart window.
type Period string

const (
	PeriodWeek      Period = "week"
	PeriodMonth     Period = "month"
	PeriodSixMonths Period = "6months"
	PeriodYear      Period = "year"
)

// ChartTop returns the five leading tracks for a chart period.
func (d *Dashboard) ChartTop(p Period) []services.SpotifyTrack {
	tr := services.ShortTerm
	switch p {
	case PeriodSixMonths:
		tr = services.MediumTerm
	case PeriodYear:
		tr = services.LongTerm
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	tracks := d.charts[tr]
	return tracks[:min(5, len(tracks))]
}
