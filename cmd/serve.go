package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/statspot/internal/server"
	"github.com/desertthunder/statspot/internal/shared"
	"github.com/urfave/cli/v3"
)

// credentials reads the client id and secret from the loaded configuration on every request.
func (r *Runner) credentials() server.Credentials {
	spotify := r.config.Credentials.Spotify
	creds := server.Credentials{ClientSecret: spotify.ClientSecret}
	if spotify.HasClient() {
		creds.ClientID = spotify.ClientID
	}
	return creds
}

// Serve runs the token service until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}

	logger := shared.WithLogger(r.logger, "component", "server")
	if !r.credentials().Complete() {
		logger.Warn("SPOTIFY_CLIENT_ID/SECRET not set; exchange and refresh will answer 500")
	}
	if cfg.Production() {
		logger.Info("production mode: refresh cookie is Secure")
	}

	trusted, err := server.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	handler := server.NewService(server.Options{
		Credentials:    r.credentials,
		Production:     cfg.Production(),
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		TrustedProxies: trusted,
		Logger:         logger,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.ListenAndServe(ctx, cfg.Addr(), handler, logger)
}
