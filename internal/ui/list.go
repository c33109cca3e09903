package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/statspot/internal/services"
	"github.com/desertthunder/statspot/internal/shared"
)

var (
	_ list.Item = trackItem{}
	_ list.Item = artistItem{}
	_ list.Item = playlistItem{}
)

// trackItem wraps [services.SpotifyTrack] with its rank to implement [list.Item].
type trackItem struct {
	rank  int
	track services.SpotifyTrack
}

func (i trackItem) FilterValue() string { return i.track.Name + " " + i.track.ArtistNames() }
func (i trackItem) Title() string       { return fmt.Sprintf("%d. %s", i.rank, i.track.Name) }
func (i trackItem) Description() string {
	desc := i.track.ArtistNames()
	if i.track.Album.Name != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album.Name)
	}
	return fmt.Sprintf("%s • %s", desc, shared.FormatDuration(i.track.DurationMS))
}

// artistItem wraps [services.SpotifyArtist] to implement [list.Item].
type artistItem struct {
	rank   int
	artist services.SpotifyArtist
}

func (i artistItem) FilterValue() string { return i.artist.Name }
func (i artistItem) Title() string       { return fmt.Sprintf("%d. %s", i.rank, i.artist.Name) }
func (i artistItem) Description() string {
	if len(i.artist.Genres) == 0 {
		return fmt.Sprintf("popularity %d", i.artist.Popularity)
	}
	return strings.Join(i.artist.Genres[:min(3, len(i.artist.Genres))], ", ")
}

// playlistItem wraps [services.SpotifySimplePlaylist] to implement [list.Item].
type playlistItem struct {
	playlist services.SpotifySimplePlaylist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.Tracks.Total)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

func trackItems(tracks []services.SpotifyTrack) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{rank: i + 1, track: t}
	}
	return items
}

func artistItems(artists []services.SpotifyArtist) []list.Item {
	items := make([]list.Item, len(artists))
	for i, a := range artists {
		items[i] = artistItem{rank: i + 1, artist: a}
	}
	return items
}

func playlistItems(playlists []services.SpotifySimplePlaylist) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, p := range playlists {
		items[i] = playlistItem{playlist: p}
	}
	return items
}
