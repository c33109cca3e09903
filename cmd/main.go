package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/statspot/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	configPath := defaultConfigPath
	if p, ok := os.LookupEnv("STATSPOT_CONFIG"); ok && p != "" {
		configPath = p
	}

	config, err := shared.LoadOrDefault(configPath)
	if err != nil {
		logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		config = shared.DefaultConfig()
		config.ApplyEnv(os.LookupEnv)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	runner := NewRunner(RunnerOpts{Config: config, Logger: logger})
	defer runner.Close()

	app := &cli.Command{
		Name:     "statspot",
		Usage:    "Spotify listening stats with a PKCE login and a minimal token service",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			logger.Error(err)
			runner.Close()
			os.Exit(2)
		}
		logger.Fatalf("application error: %v", err)
	}
}
