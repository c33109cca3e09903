package formatter

import (
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/statspot/internal/services"
	"github.com/desertthunder/statspot/internal/shared"
	"github.com/desertthunder/statspot/internal/stats"
)

func fixtureTracks() []services.SpotifyTrack {
	return []services.SpotifyTrack{
		{
			ID:         "track1",
			Name:       "Song One",
			Artists:    []services.SpotifyArtist{{ID: "a1", Name: "Artist One"}},
			Album:      services.SpotifyAlbum{Name: "Album One", ReleaseDate: "2021-04-02"},
			DurationMS: 180000,
			Popularity: 85,
		},
		{
			ID:         "track2",
			Name:       "Song, Two",
			Artists:    []services.SpotifyArtist{{ID: "a2", Name: "Artist Two"}, {ID: "a3", Name: "Guest"}},
			Album:      services.SpotifyAlbum{Name: "Album Two"},
			DurationMS: 245000,
			Popularity: 12,
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"text", FormatText},
		{"MD", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{" csv ", FormatCSV},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Fatalf("ParseFormat(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFormat("yaml"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestTracks(t *testing.T) {
	t.Run("Text", func(t *testing.T) {
		data, err := Tracks("Top Tracks", fixtureTracks(), FormatText)
		if err != nil {
			t.Fatalf("Tracks failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Top Tracks (2)") {
			t.Errorf("missing title, got: %s", output)
		}
		if !strings.Contains(output, " 1. Artist One - Song One [3:00]") {
			t.Errorf("missing first track, got: %s", output)
		}
		if !strings.Contains(output, " 2. Artist Two, Guest - Song, Two [4:05]") {
			t.Errorf("missing second track, got: %s", output)
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		data, err := Tracks("Top Tracks", fixtureTracks(), FormatMarkdown)
		if err != nil {
			t.Fatalf("Tracks failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "# Top Tracks\n") {
			t.Errorf("missing heading, got: %s", output)
		}
		if !strings.Contains(output, "1. Artist One - Song One (Album One) [3:00]") {
			t.Errorf("missing album suffix, got: %s", output)
		}
	})

	t.Run("CSV", func(t *testing.T) {
		data, err := Tracks("ignored", fixtureTracks(), FormatCSV)
		if err != nil {
			t.Fatalf("Tracks failed: %v", err)
		}

		rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected header plus 2 rows, got %d", len(rows))
		}
		if strings.Join(rows[0], ",") != "Rank,ID,Title,Artist,Album,Duration,Popularity" {
			t.Errorf("unexpected header: %v", rows[0])
		}
		if rows[2][2] != "Song, Two" {
			t.Errorf("expected quoted title to round trip, got %q", rows[2][2])
		}
		if rows[2][3] != "Artist Two, Guest" {
			t.Errorf("expected joined artists, got %q", rows[2][3])
		}
	})

	t.Run("Empty", func(t *testing.T) {
		data, err := Tracks("Top Tracks", nil, FormatText)
		if err != nil {
			t.Fatalf("Tracks failed: %v", err)
		}
		if string(data) != "Top Tracks (0)\n\n" {
			t.Errorf("unexpected output: %q", data)
		}
	})
}

func TestArtists(t *testing.T) {
	artists := []services.SpotifyArtist{
		{ID: "a1", Name: "Glass Harbor", Genres: []string{"dream pop", "shoegaze", "indie", "slowcore"}, Popularity: 70},
		{ID: "a2", Name: "Copper Lines"},
	}

	t.Run("Text caps genres at three", func(t *testing.T) {
		data, err := Artists("Top Artists", artists, FormatText)
		if err != nil {
			t.Fatalf("Artists failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Glass Harbor (dream pop, shoegaze, indie)") {
			t.Errorf("unexpected genres, got: %s", output)
		}
		if strings.Contains(output, "slowcore") {
			t.Errorf("expected fourth genre to be dropped, got: %s", output)
		}
		if !strings.Contains(output, " 2. Copper Lines\n") {
			t.Errorf("artist without genres should have no suffix, got: %s", output)
		}
	})

	t.Run("CSV", func(t *testing.T) {
		data, err := Artists("", artists, FormatCSV)
		if err != nil {
			t.Fatalf("Artists failed: %v", err)
		}
		if !strings.Contains(string(data), "dream pop; shoegaze; indie; slowcore") {
			t.Errorf("CSV should carry every genre, got: %s", data)
		}
	})
}

func TestPlaylists(t *testing.T) {
	playlists := []services.SpotifySimplePlaylist{
		{ID: "p1", Name: "Late Drive", Owner: services.Owner{ID: "listener1", DisplayName: "Night Listener"}, Public: true},
		{ID: "p2", Name: "Focus", Owner: services.Owner{ID: "listener1"}},
	}
	playlists[0].Tracks.Total = 24

	t.Run("Markdown", func(t *testing.T) {
		data, err := Playlists(playlists, FormatMarkdown)
		if err != nil {
			t.Fatalf("Playlists failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "- **Late Drive** by Night Listener, 24 tracks") {
			t.Errorf("unexpected output: %s", output)
		}
		if !strings.Contains(output, "- **Focus** by listener1, 0 tracks") {
			t.Errorf("owner should fall back to ID, got: %s", output)
		}
	})

	t.Run("CSV visibility", func(t *testing.T) {
		data, err := Playlists(playlists, FormatCSV)
		if err != nil {
			t.Fatalf("Playlists failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "p1,Late Drive,Night Listener,24,public") {
			t.Errorf("unexpected row, got: %s", output)
		}
		if !strings.Contains(output, "p2,Focus,listener1,0,private") {
			t.Errorf("unexpected row, got: %s", output)
		}
	})
}

func TestProfile(t *testing.T) {
	user := &services.SpotifyUser{ID: "listener1", DisplayName: "Night Listener", Country: "US", Product: "premium"}
	user.Followers.Total = 7

	output := string(Profile(user, FormatText))
	if !strings.Contains(output, "User: Night Listener (listener1)") {
		t.Errorf("unexpected output: %s", output)
	}
	if strings.Contains(output, "Email:") {
		t.Errorf("empty email should be omitted, got: %s", output)
	}

	md := string(Profile(user, FormatMarkdown))
	if !strings.Contains(md, "- **Followers**: 7") {
		t.Errorf("unexpected markdown: %s", md)
	}
}

func TestTrackDetail(t *testing.T) {
	track := fixtureTracks()[0]

	t.Run("With features", func(t *testing.T) {
		features := services.AudioFeatures{
			Danceability: 0.85, Energy: 0.8, Key: 9, Mode: 0, Tempo: 150.4,
			Valence: 0.25, Acousticness: 0.1, Liveness: 0.12, Speechiness: 0.05,
		}
		detail := &stats.TrackDetail{
			Track:      track,
			Features:   &features,
			Popularity: stats.PopularityLabel(track.Popularity),
			Mood:       stats.Mood(features),
			Insights:   stats.Insights(features),
		}

		output := string(TrackDetail(detail, FormatText))
		for _, want := range []string{
			"Artist One - Song One",
			"Tempo: 150 BPM",
			"Key: A Minor",
			"Danceability: 85%",
			"Insights:",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("missing %q in: %s", want, output)
			}
		}
	})

	t.Run("Without features", func(t *testing.T) {
		detail := &stats.TrackDetail{Track: track, Popularity: stats.PopularityLabel(track.Popularity)}

		output := string(TrackDetail(detail, FormatMarkdown))
		if !strings.HasPrefix(output, "# Artist One - Song One") {
			t.Errorf("missing heading: %s", output)
		}
		if !strings.Contains(output, "Audio features unavailable") {
			t.Errorf("expected unavailable notice: %s", output)
		}
		if strings.Contains(output, "Tempo") {
			t.Errorf("tempo should be absent: %s", output)
		}
	})
}
