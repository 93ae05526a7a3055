package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/favx/internal/favorites"
	"github.com/desertthunder/favx/internal/router"
	"github.com/desertthunder/favx/internal/services"
	"github.com/desertthunder/favx/internal/session"
	"github.com/desertthunder/favx/internal/shared"
	"github.com/desertthunder/favx/internal/tokenstore"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The API client and both managers are built in [Runner.prepare], once the config is known.
type Runner struct {
	config     *shared.Config
	configPath string
	store      tokenstore.Store
	closeStore func() error
	httpClient *http.Client
	client     *services.Client
	session    *session.Manager
	favorites  *favorites.Manager
	router     *router.Router
	logger     *log.Logger
	output     io.Writer
	open       func(string) error
	restored   bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      tokenstore.Store
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Open       func(string) error // opens a URL, defaults to [shared.OpenBrowser]
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		store:      opts.Store,
		closeStore: func() error { return nil },
		httpClient: opts.HTTPClient,
		router:     router.New(),
		logger:     opts.Logger,
		output:     opts.Output,
		open:       opts.Open,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, favoritesCommand, searchCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// prepare resolves the config and token store, then builds the client and managers.
func (r *Runner) prepare(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config == nil {
		config, used, err := shared.ResolveConfig(cmd.String("config"))
		if err != nil {
			return ctx, err
		}
		r.config, r.configPath = config, used
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Log.Level))

	if r.store == nil {
		storeConfig := *r.config
		if cmd.Bool("ephemeral") {
			storeConfig.Storage.Backend = "memory"
		}
		store, closeFn, err := tokenstore.Open(&storeConfig)
		if err != nil {
			return ctx, err
		}
		r.store, r.closeStore = store, closeFn
	}

	r.client = services.NewClient(r.config.API, r.httpClient, r.logger)
	r.session = session.NewManager(r.client, r.store, r.logger)
	r.favorites = favorites.NewManager(r.client, favorites.TokenFunc(r.session.Token), r.logger)
	r.restored = false

	r.logger.Debug("runner ready", "config", r.configPath, "api", r.client.BaseURL(), "storage", r.config.Storage.Backend)
	return ctx, nil
}

// cleanup releases the token store.
func (r *Runner) cleanup(ctx context.Context, cmd *cli.Command) error {
	return r.closeStore()
}

// restore loads the persisted session once and waits for the current user to load.
func (r *Runner) restore(ctx context.Context) error {
	if r.restored {
		return nil
	}
	r.restored = true

	done, err := r.session.Initialize(ctx)
	if err != nil {
		return err
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if !r.session.IsAuthenticated() && r.session.LastFailure() != "" {
		r.logger.Warn("stored session is no longer valid", "reason", r.session.LastFailure())
	}
	return nil
}

// guard restores the session and applies the route guard for path before a command runs.
func (r *Runner) guard(path string) cli.BeforeFunc {
	return func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if err := r.restore(ctx); err != nil {
			return ctx, err
		}

		route, decision, err := r.router.Navigate(path, r.session)
		if err != nil {
			return ctx, err
		}

		switch decision {
		case router.RedirectLogin:
			return ctx, fmt.Errorf("%w: run 'favx auth login' first", shared.ErrNotAuthenticated)
		case router.RedirectHome:
			return ctx, fmt.Errorf("%w as %s: run 'favx auth logout' first", shared.ErrAlreadySignedIn, r.username())
		}

		r.logger.Debug("route allowed", "command", cmd.Name, "route", route.Name)
		return ctx, nil
	}
}

// openDatabase opens the local database and brings its schema up to date.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func (r *Runner) username() string {
	if u := r.session.CurrentUser(); u != nil && u.Username != "" {
		return u.Username
	}
	return "unknown user"
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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

// writeRaw writes b followed by a newline.
func (r *Runner) writeRaw(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(b) == 0 || b[len(b)-1] != '\n' {
		if _, err := r.output.Write([]byte("\n")); err != nil {
			return fmt.Errorf("failed to write newline: %w", err)
		}
	}
	return nil
}
