package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/statspot/internal/shared"
	tu "github.com/desertthunder/statspot/internal/testing"
)

func newTestService(t *testing.T, token string) (*SpotifyService, *tu.FakeSpotify) {
	t.Helper()
	api := tu.NewFakeSpotify("good-token")
	t.Cleanup(api.Close)

	srv, err := NewSpotifyService(token, WithBaseURL(api.APIURL()))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return srv, api
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("Requires Token", func(t *testing.T) {
			_, err := NewSpotifyService("")
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("Name", func(t *testing.T) {
			srv, _ := NewSpotifyService("x")
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})
	})

	t.Run("UserProfile", func(t *testing.T) {
		srv, _ := newTestService(t, "good-token")
		user, err := srv.UserProfile(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.ID != "listener1" || user.Name() != "Night Listener" || user.Followers.Total != 12 {
			t.Errorf("unexpected user %+v", user)
		}
	})

	t.Run("Expired Token", func(t *testing.T) {
		srv, _ := newTestService(t, "stale-token")
		_, err := srv.UserProfile(ctx)
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("TopTracks", func(t *testing.T) {
		srv, api := newTestService(t, "good-token")

		tracks, err := srv.TopTracks(ctx, ShortTerm, 50)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 2 || tracks[0].ID != "track-2" {
			t.Fatalf("expected short term ordering, got %+v", tracks)
		}
		if got := tracks[0].ArtistNames(); got != "Copper Lines, Glass Harbor" {
			t.Errorf("unexpected artist names %q", got)
		}
		if api.Hits("/v1/me/top/tracks") != 1 {
			t.Errorf("expected one request")
		}
	})

	t.Run("TopArtists Drops Invalid Entries", func(t *testing.T) {
		srv, _ := newTestService(t, "good-token")

		artists, err := srv.TopArtists(ctx, MediumTerm, 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(artists) != 2 {
			t.Errorf("expected entry without id dropped, got %d artists", len(artists))
		}
	})

	t.Run("UserPlaylists", func(t *testing.T) {
		srv, _ := newTestService(t, "good-token")

		page, err := srv.UserPlaylists(ctx, 50, 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(page.Items) != 2 || page.Items[0].Tracks.Total != 48 {
			t.Errorf("unexpected playlists %+v", page.Items)
		}
	})

	t.Run("Track", func(t *testing.T) {
		srv, _ := newTestService(t, "good-token")

		t.Run("Found", func(t *testing.T) {
			track, err := srv.Track(ctx, "track-1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if track.Name != "Tidal Static" || track.Album.Name != "Low Tide" {
				t.Errorf("unexpected track %+v", track)
			}
		})

		t.Run("Not Found", func(t *testing.T) {
			_, err := srv.Track(ctx, "missing")
			if !errors.Is(err, shared.ErrTrackNotFound) {
				t.Errorf("expected ErrTrackNotFound, got %v", err)
			}
		})

		t.Run("Empty ID", func(t *testing.T) {
			_, err := srv.Track(ctx, "")
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("AudioFeatures", func(t *testing.T) {
		srv, _ := newTestService(t, "good-token")

		features, err := srv.AudioFeatures(ctx, "track-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if features.ID != "track-1" || features.Tempo != 150.4 || features.Key != 9 {
			t.Errorf("unexpected features %+v", features)
		}
	})

	t.Run("Search", func(t *testing.T) {
		srv, _ := newTestService(t, "good-token")

		result, err := srv.Search(ctx, "tidal", 20)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(result.Tracks.Items) != 1 || result.Tracks.Items[0].ID != "track-1" {
			t.Errorf("unexpected tracks %+v", result.Tracks.Items)
		}

		if _, err := srv.Search(ctx, "   ", 20); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for blank query, got %v", err)
		}
	})

	t.Run("Server Error", func(t *testing.T) {
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"boom"}`, http.StatusBadGateway)
		}))
		t.Cleanup(broken.Close)

		srv, _ := NewSpotifyService("x", WithBaseURL(broken.URL))
		_, err := srv.UserProfile(ctx)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(nil, errors.New("connection refused"))
		srv, _ := NewSpotifyService("x", WithBaseURL("http://spotify.invalid"), WithTransport(rt))

		_, err := srv.UserProfile(ctx)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Unreadable Body", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: &tu.FCloser{}}
		srv, _ := NewSpotifyService("x", WithBaseURL("http://spotify.invalid"), WithTransport(tu.NewMockRoundTripper(resp, nil)))

		_, err := srv.UserProfile(ctx)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		t.Cleanup(slow.Close)

		srv, _ := NewSpotifyService("x", WithBaseURL(slow.URL), WithTimeout(20*time.Millisecond))
		_, err := srv.UserProfile(ctx)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in   string
		want TimeRange
		ok   bool
	}{
		{"short", ShortTerm, true},
		{"medium_term", MediumTerm, true},
		{"", MediumTerm, true},
		{"long", LongTerm, true},
		{"forever", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTimeRange(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseTimeRange(%q) = %q, %v", tt.in, got, ok)
			}
		})
	}
}
