package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// FakeSpotify serves a small fixed library shaped like the Spotify Web API under /v1.
type FakeSpotify struct {
	*httptest.Server

	mu     sync.Mutex
	tokens map[string]bool
	hits   map[string]int
}

// NewFakeSpotify starts a fake Web API accepting the given bearer tokens.
func NewFakeSpotify(tokens ...string) *FakeSpotify {
	f := &FakeSpotify{tokens: map[string]bool{}, hits: map[string]int{}}
	for _, t := range tokens {
		f.tokens[t] = true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/me", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeFixture(w, FixtureUser)
	}))
	mux.HandleFunc("GET /v1/me/top/tracks", f.authed(func(w http.ResponseWriter, r *http.Request) {
		items := FixtureTracks
		if r.URL.Query().Get("time_range") == "short_term" {
			items = []map[string]any{FixtureTracks[1], FixtureTracks[0]}
		}
		writeFixture(w, page(items))
	}))
	mux.HandleFunc("GET /v1/me/top/artists", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeFixture(w, page(FixtureArtists))
	}))
	mux.HandleFunc("GET /v1/me/playlists", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeFixture(w, page(FixturePlaylists))
	}))
	mux.HandleFunc("GET /v1/tracks/{id}", f.authed(func(w http.ResponseWriter, r *http.Request) {
		for _, t := range FixtureTracks {
			if t["id"] == r.PathValue("id") {
				writeFixture(w, t)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		writeFixture(w, map[string]any{"error": map[string]any{"status": 404, "message": "Not found"}})
	}))
	mux.HandleFunc("GET /v1/audio-features/{id}", f.authed(func(w http.ResponseWriter, r *http.Request) {
		features := FixtureFeatures()
		features["id"] = r.PathValue("id")
		writeFixture(w, features)
	}))
	mux.HandleFunc("GET /v1/search", f.authed(func(w http.ResponseWriter, r *http.Request) {
		q := strings.ToLower(r.URL.Query().Get("q"))
		var tracks, artists []map[string]any
		for _, t := range FixtureTracks {
			if strings.Contains(strings.ToLower(t["name"].(string)), q) {
				tracks = append(tracks, t)
			}
		}
		for _, a := range FixtureArtists {
			if strings.Contains(strings.ToLower(a["name"].(string)), q) {
				artists = append(artists, a)
			}
		}
		writeFixture(w, map[string]any{"tracks": page(tracks), "artists": page(artists)})
	}))

	f.Server = httptest.NewServer(mux)
	return f
}

// APIURL is the base URL to hand to the Web API client.
func (f *FakeSpotify) APIURL() string {
	return f.URL + "/v1"
}

// Accept adds a bearer token to the accepted set.
func (f *FakeSpotify) Accept(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = true
}

// Revoke makes token answer 401.
func (f *FakeSpotify) Revoke(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
}

// Hits returns how many authorized requests reached path.
func (f *FakeSpotify) Hits(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *FakeSpotify) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")

		f.mu.Lock()
		valid := ok && f.tokens[token]
		if valid {
			f.hits[r.URL.Path]++
		}
		f.mu.Unlock()

		if !valid {
			w.WriteHeader(http.StatusUnauthorized)
			writeFixture(w, map[string]any{"error": map[string]any{"status": 401, "message": "The access token expired"}})
			return
		}
		next(w, r)
	}
}

func page(items []map[string]any) map[string]any {
	if items == nil {
		items = []map[string]any{}
	}
	return map[string]any{"items": items, "total": len(items), "limit": 50, "offset": 0, "next": nil}
}

func writeFixture(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

var FixtureUser = map[string]any{
	"id":           "listener1",
	"display_name": "Night Listener",
	"email":        "listener@example.com",
	"country":      "US",
	"product":      "premium",
	"followers":    map[string]any{"total": 12},
}

var FixtureArtists = []map[string]any{
	{"id": "artist-1", "name": "Glass Harbor", "genres": []string{"dream pop", "shoegaze"}, "popularity": 71, "followers": map[string]any{"total": 150000}},
	{"id": "artist-2", "name": "Copper Lines", "genres": []string{"indie rock"}, "popularity": 38, "followers": map[string]any{"total": 9000}},
	{"id": "", "name": "Unavailable"},
}

var FixtureTracks = []map[string]any{
	{
		"id": "track-1", "name": "Tidal Static", "duration_ms": 214000, "popularity": 85,
		"artists": []map[string]any{{"id": "artist-1", "name": "Glass Harbor"}},
		"album":   map[string]any{"id": "album-1", "name": "Low Tide", "release_date": "2023-05-12"},
	},
	{
		"id": "track-2", "name": "Rust Belt Radio", "duration_ms": 185500, "popularity": 42,
		"artists": []map[string]any{{"id": "artist-2", "name": "Copper Lines"}, {"id": "artist-1", "name": "Glass Harbor"}},
		"album":   map[string]any{"id": "album-2", "name": "Signal Loss", "release_date": "2021-10-01"},
	},
}

var FixturePlaylists = []map[string]any{
	{"id": "pl-1", "name": "Late Drive", "owner": map[string]any{"id": "listener1", "display_name": "Night Listener"}, "tracks": map[string]any{"total": 48}},
	{"id": "pl-2", "name": "Focus", "owner": map[string]any{"id": "listener1"}, "tracks": map[string]any{"total": 120}},
}

// FixtureFeatures returns a fresh copy of the audio features fixture.
func FixtureFeatures() map[string]any {
	return map[string]any{
		"danceability": 0.85, "energy": 0.8, "key": 9, "mode": 0,
		"speechiness": 0.05, "acousticness": 0.1, "instrumentalness": 0.0,
		"liveness": 0.12, "valence": 0.25, "tempo": 150.4, "duration_ms": 214000,
	}
}
