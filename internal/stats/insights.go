package stats

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/desertthunder/statspot/internal/services"
	"github.com/desertthunder/statspot/internal/shared"
)

// Insight is a one-line observation about a track's audio features.
type Insight struct {
	Icon string
	Text string
}

var pitchClasses = []string{"C", "C♯/D♭", "D", "D♯/E♭", "E", "F", "F♯/G♭", "G", "G♯/A♭", "A", "A♯/B♭", "B"}

// KeyName renders a pitch class, or "Unknown" when undetected.
func KeyName(key int) string {
	if key < 0 || key >= len(pitchClasses) {
		return "Unknown"
	}
	return pitchClasses[key]
}

// ModeName renders the modality.
func ModeName(mode int) string {
	if mode == 1 {
		return "Major"
	}
	return "Minor"
}

// Percent scales a [0, 1] ratio to a rounded percentage.
func Percent(ratio float64) int {
	return int(math.Round(ratio * 100))
}

// PopularityLabel describes a 0-100 popularity score.
func PopularityLabel(popularity int) string {
	switch {
	case popularity >= 80:
		return "🔥 Extremely popular! This is a major hit."
	case popularity >= 60:
		return "⭐ Very popular track with strong listener engagement."
	case popularity >= 40:
		return "👍 Moderately popular with a solid fanbase."
	case popularity >= 20:
		return "🎵 Niche appeal, loved by dedicated fans."
	default:
		return "💎 Hidden gem waiting to be discovered."
	}
}

// Mood places a track in the energy/valence quadrant, split at 60%.
func Mood(f services.AudioFeatures) string {
	energy, valence := Percent(f.Energy), Percent(f.Valence)
	switch {
	case energy > 60 && valence > 60:
		return "🎉 High-Energy Happy Song"
	case energy > 60:
		return "⚡ High-Energy Sad Song"
	case valence > 60:
		return "😌 Calm Happy Song"
	default:
		return "😔 Calm Sad Song"
	}
}

// Insights derives observations from audio features, in a fixed order: tempo, danceability,
// energy against valence, speechiness, acousticness, liveness, key.
func Insights(f services.AudioFeatures) []Insight {
	var out []Insight
	add := func(icon, text string) { out = append(out, Insight{Icon: icon, Text: text}) }
	bpm := int(math.Round(f.Tempo))

	if f.Tempo > 140 {
		add("🏃", fmt.Sprintf("At %d BPM, this is perfect for high-intensity workouts or running!", bpm))
	} else if f.Tempo < 80 {
		add("🧘", fmt.Sprintf("With a slow tempo of %d BPM, this is ideal for relaxation or meditation.", bpm))
	}

	if f.Danceability > 0.8 {
		add("💃", fmt.Sprintf("This track is %d%% danceable - it's impossible not to move to this!", Percent(f.Danceability)))
	}

	if f.Energy > 0.7 && f.Valence < 0.3 {
		add("🎸", "This is an energetic yet emotional track - perfect for cathartic moments.")
	} else if f.Energy < 0.3 && f.Valence > 0.7 {
		add("☀️", "A calm but happy song - great for peaceful, content moments.")
	}

	if f.Speechiness > 0.66 {
		add("🎤", "Heavy on the lyrics! This track is very speech-like, possibly rap or poetry.")
	} else if f.Speechiness > 0.33 {
		add("🗣️", "Good balance of vocals and instrumentals.")
	}

	if f.Acousticness > 0.8 {
		add("🎸", "Highly acoustic - this has that raw, organic sound.")
	} else if f.Acousticness < 0.2 {
		add("🎹", "Heavily produced with electronic elements dominating the sound.")
	}

	if f.Liveness > 0.8 {
		add("🎪", "Strong live performance vibes - might be recorded with an audience!")
	}

	// natural keys only
	switch f.Key {
	case 0, 2, 4, 5, 7, 9, 11:
		mode := ModeName(f.Mode)
		feel := "typically bright and uplifting"
		if mode == "Minor" {
			feel = "often associated with emotional or melancholic feelings"
		}
		add("🎼", fmt.Sprintf("Written in %s %s - %s.", KeyName(f.Key), mode, feel))
	}

	return out
}

// TrackDetail is everything the detail screen shows for one track.
type TrackDetail struct {
	Track      services.SpotifyTrack
	Features   *services.AudioFeatures // nil when the API withholds features
	Popularity string
	Mood       string
	Insights   []Insight
}

// LoadTrackDetail fetches a track and its audio features.
// Features are optional: any error other than an expired token leaves them nil.
func LoadTrackDetail(ctx context.Context, api services.Service, trackID string) (*TrackDetail, error) {
	track, err := api.Track(ctx, trackID)
	if err != nil {
		return nil, err
	}

	detail := &TrackDetail{Track: *track, Popularity: PopularityLabel(track.Popularity)}

	features, err := api.AudioFeatures(ctx, trackID)
	switch {
	case err == nil:
		detail.Features = features
		detail.Mood = Mood(*features)
		detail.Insights = Insights(*features)
	case errors.Is(err, shared.ErrTokenExpired):
		return nil, err
	}
	return detail, nil
}
