package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/statspot/internal/formatter"
	"github.com/desertthunder/statspot/internal/services"
	"github.com/desertthunder/statspot/internal/shared"
	"github.com/desertthunder/statspot/internal/stats"
	"github.com/urfave/cli/v3"
)

var rangeTitles = map[services.TimeRange]string{
	services.ShortTerm:  "last 4 weeks",
	services.MediumTerm: "last 6 months",
	services.LongTerm:   "all time",
}

// render writes data as JSON when --json is set, otherwise through encode in the --format encoding.
func (r *Runner) render(cmd *cli.Command, data any, encode func(formatter.Format) ([]byte, error)) error {
	if cmd.Bool("json") {
		return r.writeJSON(data, cmd.Bool("pretty"))
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	out, err := encode(format)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

func parseRange(cmd *cli.Command) (services.TimeRange, error) {
	tr, ok := services.ParseTimeRange(cmd.String("range"))
	if !ok {
		return "", fmt.Errorf("%w: --range must be short, medium or long", shared.ErrInvalidArgument)
	}
	return tr, nil
}

// Me prints the user's profile.
func (r *Runner) Me(ctx context.Context, cmd *cli.Command) error {
	api, err := r.spotify(ctx)
	if err != nil {
		return err
	}

	me, err := api.UserProfile(ctx)
	if err != nil {
		return r.apiError(err)
	}
	return r.render(cmd, me, func(f formatter.Format) ([]byte, error) {
		return formatter.Profile(me, f), nil
	})
}

// TopTracks lists the user's top tracks for a time range.
func (r *Runner) TopTracks(ctx context.Context, cmd *cli.Command) error {
	tr, err := parseRange(cmd)
	if err != nil {
		return err
	}
	api, err := r.spotify(ctx)
	if err != nil {
		return err
	}

	r.logger.Debug("fetching top tracks", "range", tr, "limit", cmd.Int("limit"))
	tracks, err := api.TopTracks(ctx, tr, int(cmd.Int("limit")))
	if err != nil {
		return r.apiError(err)
	}
	return r.render(cmd, tracks, func(f formatter.Format) ([]byte, error) {
		return formatter.Tracks(fmt.Sprintf("Top Tracks (%s)", rangeTitles[tr]), tracks, f)
	})
}

// TopArtists lists the user's top artists for a time range.
func (r *Runner) TopArtists(ctx context.Context, cmd *cli.Command) error {
	tr, err := parseRange(cmd)
	if err != nil {
		return err
	}
	api, err := r.spotify(ctx)
	if err != nil {
		return err
	}

	r.logger.Debug("fetching top artists", "range", tr, "limit", cmd.Int("limit"))
	artists, err := api.TopArtists(ctx, tr, int(cmd.Int("limit")))
	if err != nil {
		return r.apiError(err)
	}
	return r.render(cmd, artists, func(f formatter.Format) ([]byte, error) {
		return formatter.Artists(fmt.Sprintf("Top Artists (%s)", rangeTitles[tr]), artists, f)
	})
}

// Playlists lists the user's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	api, err := r.spotify(ctx)
	if err != nil {
		return err
	}

	page, err := api.UserPlaylists(ctx, int(cmd.Int("limit")), int(cmd.Int("offset")))
	if err != nil {
		return r.apiError(err)
	}
	return r.render(cmd, page, func(f formatter.Format) ([]byte, error) {
		return formatter.Playlists(page.Items, f)
	})
}

// Track shows one track with audio features and insights.
func (r *Runner) Track(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}
	api, err := r.spotify(ctx)
	if err != nil {
		return err
	}

	detail, err := stats.LoadTrackDetail(ctx, api, id)
	if err != nil {
		return r.apiError(err)
	}
	return r.render(cmd, detail, func(f formatter.Format) ([]byte, error) {
		if f == formatter.FormatCSV {
			return nil, fmt.Errorf("%w: csv is not available for a single track", shared.ErrInvalidArgument)
		}
		return formatter.TrackDetail(detail, f), nil
	})
}

// Search queries Spotify for tracks and artists.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	api, err := r.spotify(ctx)
	if err != nil {
		return err
	}

	result, err := api.Search(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return r.apiError(err)
	}
	return r.render(cmd, result, func(f formatter.Format) ([]byte, error) {
		tracks, err := formatter.Tracks(fmt.Sprintf("Tracks matching %q", query), result.Tracks.Items, f)
		if err != nil {
			return nil, err
		}
		if f == formatter.FormatCSV {
			return tracks, nil
		}
		artists, err := formatter.Artists(fmt.Sprintf("Artists matching %q", query), result.Artists.Items, f)
		if err != nil {
			return nil, err
		}
		return append(append(tracks, '\n'), artists...), nil
	})
}

// Chart loads the dashboard and prints the top five tracks for a period.
func (r *Runner) Chart(ctx context.Context, cmd *cli.Command) error {
	period := stats.Period(strings.ToLower(cmd.String("period")))
	switch period {
	case stats.PeriodWeek, stats.PeriodMonth, stats.PeriodSixMonths, stats.PeriodYear:
	default:
		return fmt.Errorf("%w: --period must be week, month, 6months or year", shared.ErrInvalidArgument)
	}
	api, err := r.spotify(ctx)
	if err != nil {
		return err
	}

	if err := r.dashboard.Load(ctx, api); err != nil {
		return r.apiError(err)
	}
	top := r.dashboard.ChartTop(period)
	return r.render(cmd, top, func(f formatter.Format) ([]byte, error) {
		return formatter.Tracks(fmt.Sprintf("Top 5 (%s)", period), top, f)
	})
}
