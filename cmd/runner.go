package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/statspot/internal/client"
	"github.com/desertthunder/statspot/internal/services"
	"github.com/desertthunder/statspot/internal/session"
	"github.com/desertthunder/statspot/internal/shared"
	"github.com/desertthunder/statspot/internal/stats"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The profile (storage, client, controller) is opened on first use so that `serve` never touches it.
type Runner struct {
	config     *shared.Config
	logger     *log.Logger
	output     io.Writer
	storage    session.Storage
	navigate   client.Navigator
	apiBaseURL string

	client     *client.Client
	authorizer *client.Authorizer
	controller *client.Controller
	dashboard  *stats.Dashboard
	closers    []io.Closer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
	// Storage replaces the configured profile store.
	Storage session.Storage
	// Navigate replaces opening the system browser.
	Navigate client.Navigator
	// APIBaseURL replaces the Spotify Web API base URL.
	APIBaseURL string
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		logger:     opts.Logger,
		output:     opts.Output,
		storage:    opts.Storage,
		navigate:   opts.Navigate,
		apiBaseURL: opts.APIBaseURL,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, loginCommand, logoutCommand, statusCommand, refreshCommand,
		meCommand, topCommand, playlistsCommand, trackCommand, searchCommand, chartCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger. Only valid before the profile is opened.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the profile store.
func (r *Runner) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// openStorage opens the profile store selected by client.storage.
func (r *Runner) openStorage() (session.Storage, error) {
	if r.storage != nil {
		return r.storage, nil
	}

	switch strings.ToLower(r.config.Client.Storage) {
	case "file":
		dir := shared.ProfilePath(r.config.Client.ProfileDir)
		r.logger.Debug("using file profile", "dir", dir)
		return session.NewFileStorage(dir)
	case "", "sqlite":
		path := shared.ProfilePath(r.config.Database.Path)
		r.logger.Debug("using sqlite profile", "path", path)
		s, err := session.OpenSQLiteStorage(path, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, s)
		return s, nil
	}
	return nil, fmt.Errorf("%w: unknown client.storage %q (want sqlite or file)", shared.ErrInvalidConfig, r.config.Client.Storage)
}

// session opens the profile and wires the auth controller on first use.
func (r *Runner) session() (*client.Controller, error) {
	if r.controller != nil {
		return r.controller, nil
	}

	storage, err := r.openStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	store := session.NewStore(storage, nil)

	c, err := client.New(client.Options{
		ServiceURL:     r.config.Client.ServiceURL,
		Store:          store,
		RefreshTimeout: r.config.Client.RefreshTimeout.Duration,
		Logger:         shared.WithLogger(r.logger, "component", "client"),
	})
	if err != nil {
		return nil, err
	}

	authorizer := client.NewAuthorizer(r.config.Credentials.Spotify, store)
	if r.navigate != nil {
		authorizer.Navigate = r.navigate
	}

	r.client = c
	r.authorizer = authorizer
	r.dashboard = stats.NewDashboard(shared.WithLogger(r.logger, "component", "stats"))
	r.controller = client.NewController(c, authorizer, r.dashboard)
	return r.controller, nil
}

// newAPI builds a Web API client for token.
func (r *Runner) newAPI(token string) (services.Service, error) {
	opts := []services.SpotifyOption{services.WithTimeout(r.config.Client.RequestTimeout.Duration)}
	if r.apiBaseURL != "" {
		opts = append(opts, services.WithBaseURL(r.apiBaseURL))
	}
	return services.NewSpotifyService(token, opts...)
}

// spotify resumes the session and returns a Web API client for it.
func (r *Runner) spotify(ctx context.Context) (services.Service, error) {
	ctrl, err := r.session()
	if err != nil {
		return nil, err
	}

	out := ctrl.Dispatch(ctx, client.Event{Intent: client.IntentStart})
	if out.State != client.LoggedIn {
		return nil, fmt.Errorf("%w: run 'statspot login' first", shared.ErrNotAuthenticated)
	}
	return r.newAPI(out.Token.AccessToken)
}

// apiError turns a rejected token into a logged-out session.
func (r *Runner) apiError(err error) error {
	if errors.Is(err, shared.ErrTokenExpired) && r.controller != nil {
		out := r.controller.Unauthorized()
		return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, out.Notice)
	}
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
