// Spotify Web API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/statspot/internal/shared"
	"golang.org/x/oauth2"
)

const (
	SpotifyBaseURL        = "https://api.spotify.com/v1"
	DefaultRequestTimeout = 10 * time.Second
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// Name returns the display name, falling back to the user ID.
func (u SpotifyUser) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.ID
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// ArtistNames joins the credited artists with commas.
func (t SpotifyTrack) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Genres     []string       `json:"genres"`
	Popularity int            `json:"popularity"`
	Followers  followers      `json:"followers"`
	Images     []SpotifyImage `json:"images"`
	URI        string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Owner       Owner               `json:"owner"`
	Public      bool                `json:"public"`
	Tracks      simplePlaylistTrack `json:"tracks"`
	Images      []SpotifyImage      `json:"images"`
	URI         string              `json:"uri"`
}

// Paging is the envelope Spotify wraps list responses in.
type Paging[T any] struct {
	Items    []T     `json:"items"`
	Total    int     `json:"total"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists = Paging[SpotifySimplePlaylist]

// AudioFeatures summarizes a track's audio analysis. Ratios are in [0, 1].
type AudioFeatures struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Key              int     `json:"key"`  // pitch class, -1 when undetected
	Mode             int     `json:"mode"` // 1 major, 0 minor
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	DurationMS       int     `json:"duration_ms"`
}

// SearchResult holds the track and artist pages of a search.
type SearchResult struct {
	Tracks  Paging[SpotifyTrack]  `json:"tracks"`
	Artists Paging[SpotifyArtist] `json:"artists"`
}

// SpotifyService implements [Service] against the Spotify Web API.
//
// Requests carry the access token through an [oauth2.Transport]; the service never refreshes on its own.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// SpotifyOption customizes a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithBaseURL points the service at a different API root.
func WithBaseURL(u string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) SpotifyOption {
	return func(s *SpotifyService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTransport sets the underlying transport beneath the bearer token layer.
func WithTransport(rt http.RoundTripper) SpotifyOption {
	return func(s *SpotifyService) {
		s.httpClient.Transport.(*oauth2.Transport).Base = rt
	}
}

// NewSpotifyService creates a Web API client authorized with accessToken.
func NewSpotifyService(accessToken string, opts ...SpotifyOption) (*SpotifyService, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: access token is required", shared.ErrNotAuthenticated)
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	s := &SpotifyService{
		baseURL:    SpotifyBaseURL,
		httpClient: &http.Client{Transport: &oauth2.Transport{Source: src}},
		timeout:    DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated GET against the API and decodes the JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s did not respond within %s", shared.ErrTimeout, endpoint, s.timeout)
		}
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return shared.ErrTokenExpired
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrKeyNotFound, endpoint)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return min(limit, 50)
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "/me", &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: profile response has no id", shared.ErrAPIRequest)
	}
	return &user, nil
}

// TopTracks retrieves the user's top tracks for tr (up to 50).
func (s *SpotifyService) TopTracks(ctx context.Context, tr TimeRange, limit int) ([]SpotifyTrack, error) {
	var page Paging[SpotifyTrack]
	endpoint := fmt.Sprintf("/me/top/tracks?limit=%d&time_range=%s", clampLimit(limit), tr)
	if err := s.doRequest(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return validTracks(page.Items), nil
}

// TopArtists retrieves the user's top artists for tr (up to 50).
func (s *SpotifyService) TopArtists(ctx context.Context, tr TimeRange, limit int) ([]SpotifyArtist, error) {
	var page Paging[SpotifyArtist]
	endpoint := fmt.Sprintf("/me/top/artists?limit=%d&time_range=%s", clampLimit(limit), tr)
	if err := s.doRequest(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return validArtists(page.Items), nil
}

// UserPlaylists retrieves the current user's playlists with pagination.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", clampLimit(limit), max(offset, 0))

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	kept := response.Items[:0]
	for _, p := range response.Items {
		if p.ID != "" {
			kept = append(kept, p)
		}
	}
	response.Items = kept
	return &response, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	var track SpotifyTrack
	if err := s.doRequest(ctx, "/tracks/"+url.PathEscape(trackID), &track); err != nil {
		if errors.Is(err, shared.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
		}
		return nil, err
	}
	if track.ID == "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
	}
	return &track, nil
}

// AudioFeatures retrieves audio features for a track.
func (s *SpotifyService) AudioFeatures(ctx context.Context, trackID string) (*AudioFeatures, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	var features AudioFeatures
	if err := s.doRequest(ctx, "/audio-features/"+url.PathEscape(trackID), &features); err != nil {
		return nil, err
	}
	return &features, nil
}

// Search finds tracks and artists matching query.
func (s *SpotifyService) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track,artist")
	params.Set("limit", fmt.Sprint(clampLimit(limit)))

	var result SearchResult
	if err := s.doRequest(ctx, "/search?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	result.Tracks.Items = validTracks(result.Tracks.Items)
	result.Artists.Items = validArtists(result.Artists.Items)
	return &result, nil
}

// validTracks drops entries Spotify returns without an id (removed or local tracks).
func validTracks(items []SpotifyTrack) []SpotifyTrack {
	out := make([]SpotifyTrack, 0, len(items))
	for _, t := range items {
		if t.ID != "" && t.Name != "" {
			out = append(out, t)
		}
	}
	return out
}

func validArtists(items []SpotifyArtist) []SpotifyArtist {
	out := make([]SpotifyArtist, 0, len(items))
	for _, a := range items {
		if a.ID != "" && a.Name != "" {
			out = append(out, a)
		}
	}
	return out
}
