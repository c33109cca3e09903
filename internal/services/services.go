// package services defines the [Service] interface for the Spotify Web API endpoints the dashboard reads
package services

import (
	"context"
)

// Service defines the read-only listening statistics surface of a music provider.
type Service interface {
	// UserProfile retrieves the authenticated user's profile.
	UserProfile(ctx context.Context) (*SpotifyUser, error)

	// TopTracks retrieves the user's most played tracks over the given range.
	TopTracks(ctx context.Context, tr TimeRange, limit int) ([]SpotifyTrack, error)

	// TopArtists retrieves the user's most played artists over the given range.
	TopArtists(ctx context.Context, tr TimeRange, limit int) ([]SpotifyArtist, error)

	// UserPlaylists retrieves a page of the user's playlists.
	UserPlaylists(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error)

	// Track retrieves a single track by ID.
	Track(ctx context.Context, trackID string) (*SpotifyTrack, error)

	// AudioFeatures retrieves the audio analysis summary for a track.
	AudioFeatures(ctx context.Context, trackID string) (*AudioFeatures, error)

	// Search looks up tracks and artists matching query.
	Search(ctx context.Context, query string, limit int) (*SearchResult, error)

	// Name returns the name of the service
	Name() string
}

// TimeRange selects the affinity window for top items.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"  // about 4 weeks
	MediumTerm TimeRange = "medium_term" // about 6 months
	LongTerm   TimeRange = "long_term"   // about 1 year
)

// ParseTimeRange accepts the API names and the short aliases short, medium and long.
func ParseTimeRange(s string) (TimeRange, bool) {
	switch s {
	case "short", string(ShortTerm):
		return ShortTerm, true
	case "", "medium", string(MediumTerm):
		return MediumTerm, true
	case "long", string(LongTerm):
		return LongTerm, true
	}
	return "", false
}
