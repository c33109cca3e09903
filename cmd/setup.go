package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/statspot/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the embedded template when missing and initializes the profile store.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file exists, leaving it untouched", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Wrote %s\n", configPath)
	}

	config, err := shared.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	r.config = config

	r.logger.Info("initializing profile", "storage", config.Client.Storage)
	if _, err := r.openStorage(); err != nil {
		return fmt.Errorf("failed to initialize profile: %w", err)
	}

	switch config.Client.Storage {
	case "file":
		r.writePlain("✓ Profile directory ready: %s\n", shared.ProfilePath(config.Client.ProfileDir))
	default:
		r.writePlain("✓ Profile database ready: %s\n", shared.ProfilePath(config.Database.Path))
	}

	r.writePlainln("Next steps:")
	if !config.Credentials.Spotify.HasClient() || !config.Credentials.Spotify.HasSecret() {
		r.writePlain("1. Set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET (environment, .env or %s)\n", configPath)
	} else {
		r.writePlain("1. Credentials found (client id %s)\n", shared.Mask(config.Credentials.Spotify.ClientID))
	}
	r.writePlain("2. Register %s as a redirect URI in the Spotify dashboard\n", config.Credentials.Spotify.RedirectURI)
	r.writePlain("3. Run 'statspot serve' and then 'statspot login'\n")
	return nil
}
