package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/statspot/internal/server"
	"github.com/desertthunder/statspot/internal/shared"
	"github.com/desertthunder/statspot/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive stats dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := filepath.Join(shared.ProfilePath(r.config.Client.ProfileDir), "tui.log")
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	ctrl, err := r.session()
	if err != nil {
		return err
	}

	cb, err := startCallbackServer(r.authorizer.RedirectURI, r.logger)
	if err != nil {
		r.logger.Error("login redirect cannot be received", "error", err)
	} else {
		defer cb.Close()
	}
	callbacks := func() <-chan server.CallbackResult {
		if cb == nil {
			return nil
		}
		return cb.Arm()
	}

	model := ui.NewModel(ctx, ui.Options{
		Controller: ctrl,
		Dashboard:  r.dashboard,
		NewAPI:     r.newAPI,
		Callbacks:  callbacks,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
