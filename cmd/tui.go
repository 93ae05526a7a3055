package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/favx/internal/favorites"
	"github.com/desertthunder/favx/internal/services"
	"github.com/desertthunder/favx/internal/session"
	"github.com/desertthunder/favx/internal/shared"
	"github.com/desertthunder/favx/internal/ui"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = "./tmp/favx-tui.log"
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.logger = fileLogger

	client := services.NewClient(r.config.API, r.httpClient, fileLogger)
	r.session = session.NewManager(client, r.store, fileLogger)
	r.favorites = favorites.NewManager(client, favorites.TokenFunc(r.session.Token), fileLogger)

	ready, err := r.session.Initialize(ctx)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.session, r.favorites, ready)
	model.SetLogger(fileLogger)

	if err := ui.Run(model); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
