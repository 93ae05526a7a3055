package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/favx/internal/shared"
)

const version = "0.1.0"

func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favx",
		Usage:   "Track favorite movies, shows, books and games",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (default: ./config.toml, then ~/.favx/config.toml)",
			},
			&cli.BoolFlag{
				Name:  "ephemeral",
				Usage: "Keep the session token in memory only, for this invocation",
			},
		},
		Before:   runner.prepare,
		After:    runner.cleanup,
		Commands: runner.register(),
	}
}

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
