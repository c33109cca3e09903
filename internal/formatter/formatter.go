// package formatter renders dashboard data as plain text, Markdown or CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/statspot/internal/services"
	"github.com/desertthunder/statspot/internal/shared"
	"github.com/desertthunder/statspot/internal/stats"
)

// Format selects an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// ParseFormat accepts text, markdown (md) and csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
}

// Profile renders a user profile. CSV is not supported for a single record and falls back to text.
func Profile(u *services.SpotifyUser, f Format) []byte {
	var buf bytes.Buffer
	if f == FormatMarkdown {
		fmt.Fprintf(&buf, "# %s\n\n", u.Name())
		fmt.Fprintf(&buf, "- **ID**: %s\n", u.ID)
		if u.Email != "" {
			fmt.Fprintf(&buf, "- **Email**: %s\n", u.Email)
		}
		fmt.Fprintf(&buf, "- **Country**: %s\n", u.Country)
		fmt.Fprintf(&buf, "- **Plan**: %s\n", u.Product)
		fmt.Fprintf(&buf, "- **Followers**: %d\n", u.Followers.Total)
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "User: %s (%s)\n", u.Name(), u.ID)
	if u.Email != "" {
		fmt.Fprintf(&buf, "Email: %s\n", u.Email)
	}
	fmt.Fprintf(&buf, "Country: %s\nPlan: %s\nFollowers: %d\n", u.Country, u.Product, u.Followers.Total)
	return buf.Bytes()
}

// Tracks renders a numbered track list.
func Tracks(title string, tracks []services.SpotifyTrack, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		rows := [][]string{{"Rank", "ID", "Title", "Artist", "Album", "Duration", "Popularity"}}
		for i, t := range tracks {
			rows = append(rows, []string{
				strconv.Itoa(i + 1), t.ID, t.Name, t.ArtistNames(), t.Album.Name,
				shared.FormatDuration(t.DurationMS), strconv.Itoa(t.Popularity),
			})
		}
		return writeCSV(rows)
	case FormatMarkdown:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "# %s\n\n", title)
		for i, t := range tracks {
			album := ""
			if t.Album.Name != "" {
				album = fmt.Sprintf(" (%s)", t.Album.Name)
			}
			fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, t.ArtistNames(), t.Name, album, shared.FormatDuration(t.DurationMS))
		}
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s (%d)\n\n", title, len(tracks))
	for i, t := range tracks {
		fmt.Fprintf(&buf, "%2d. %s - %s [%s]\n", i+1, t.ArtistNames(), t.Name, shared.FormatDuration(t.DurationMS))
	}
	return buf.Bytes(), nil
}

// Artists renders a numbered artist list with genres.
func Artists(title string, artists []services.SpotifyArtist, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		rows := [][]string{{"Rank", "ID", "Name", "Genres", "Popularity", "Followers"}}
		for i, a := range artists {
			rows = append(rows, []string{
				strconv.Itoa(i + 1), a.ID, a.Name, strings.Join(a.Genres, "; "),
				strconv.Itoa(a.Popularity), strconv.Itoa(a.Followers.Total),
			})
		}
		return writeCSV(rows)
	case FormatMarkdown:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "# %s\n\n", title)
		for i, a := range artists {
			fmt.Fprintf(&buf, "%d. **%s**%s\n", i+1, a.Name, genreSuffix(a.Genres))
		}
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s (%d)\n\n", title, len(artists))
	for i, a := range artists {
		fmt.Fprintf(&buf, "%2d. %s%s\n", i+1, a.Name, genreSuffix(a.Genres))
	}
	return buf.Bytes(), nil
}

func genreSuffix(genres []string) string {
	if len(genres) == 0 {
		return ""
	}
	return " (" + strings.Join(genres[:min(3, len(genres))], ", ") + ")"
}

// Playlists renders the user's playlists with track counts.
func Playlists(playlists []services.SpotifySimplePlaylist, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		rows := [][]string{{"ID", "Name", "Owner", "Tracks", "Visibility"}}
		for _, p := range playlists {
			rows = append(rows, []string{p.ID, p.Name, ownerName(p.Owner), strconv.Itoa(p.Tracks.Total), visibility(p.Public)})
		}
		return writeCSV(rows)
	case FormatMarkdown:
		var buf bytes.Buffer
		buf.WriteString("# Playlists\n\n")
		for _, p := range playlists {
			fmt.Fprintf(&buf, "- **%s** by %s, %d tracks\n", p.Name, ownerName(p.Owner), p.Tracks.Total)
		}
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Playlists (%d)\n\n", len(playlists))
	for _, p := range playlists {
		fmt.Fprintf(&buf, "%s  %s (%d tracks)\n", p.ID, p.Name, p.Tracks.Total)
	}
	return buf.Bytes(), nil
}

func ownerName(o services.Owner) string {
	if o.DisplayName != "" {
		return o.DisplayName
	}
	return o.ID
}

func visibility(public bool) string {
	if public {
		return "public"
	}
	return "private"
}

// TrackDetail renders a track with its popularity, audio features and insights.
func TrackDetail(d *stats.TrackDetail, f Format) []byte {
	var buf bytes.Buffer
	t := d.Track
	heading, item := "%s - %s\n", "%s: %s\n"
	if f == FormatMarkdown {
		heading, item = "# %s - %s\n\n", "- **%s**: %s\n"
	}

	fmt.Fprintf(&buf, heading, t.ArtistNames(), t.Name)
	fmt.Fprintf(&buf, item, "Album", t.Album.Name)
	fmt.Fprintf(&buf, item, "Released", t.Album.ReleaseDate)
	fmt.Fprintf(&buf, item, "Duration", shared.FormatDuration(t.DurationMS))
	fmt.Fprintf(&buf, item, "Popularity", fmt.Sprintf("%d - %s", t.Popularity, d.Popularity))

	if d.Features == nil {
		buf.WriteString("\nAudio features unavailable for this track.\n")
		return buf.Bytes()
	}

	af := d.Features
	buf.WriteString("\n")
	fmt.Fprintf(&buf, item, "Tempo", fmt.Sprintf("%d BPM", int(af.Tempo+0.5)))
	fmt.Fprintf(&buf, item, "Key", stats.KeyName(af.Key)+" "+stats.ModeName(af.Mode))
	fmt.Fprintf(&buf, item, "Danceability", percent(af.Danceability))
	fmt.Fprintf(&buf, item, "Energy", percent(af.Energy))
	fmt.Fprintf(&buf, item, "Valence", percent(af.Valence))
	fmt.Fprintf(&buf, item, "Speechiness", percent(af.Speechiness))
	fmt.Fprintf(&buf, item, "Acousticness", percent(af.Acousticness))
	fmt.Fprintf(&buf, item, "Liveness", percent(af.Liveness))
	fmt.Fprintf(&buf, item, "Mood", d.Mood)

	if len(d.Insights) > 0 {
		if f == FormatMarkdown {
			buf.WriteString("\n## Insights\n\n")
		} else {
			buf.WriteString("\nInsights:\n")
		}
		for _, in := range d.Insights {
			fmt.Fprintf(&buf, "- %s %s\n", in.Icon, in.Text)
		}
	}
	return buf.Bytes()
}

func percent(ratio float64) string {
	return strconv.Itoa(stats.Percent(ratio)) + "%"
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.Bytes(), nil
}
