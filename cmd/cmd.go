// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/favx/internal/formatter"
	"github.com/desertthunder/favx/internal/router"
)

// PasswordEnv supplies the password for auth commands when --password is not given.
const PasswordEnv = "FAVX_PASSWORD"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Account password",
			Sources: cli.EnvVars(PasswordEnv),
		},
	}
}

// favoriteFlags are the editable fields of a favorite.
func favoriteFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title"},
		&cli.StringFlag{Name: "type", Usage: "Media type (movie, show, book, game)"},
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Description"},
		&cli.StringFlag{Name: "external-id", Aliases: []string{"x"}, Usage: "Id in the source catalog"},
		&cli.StringFlag{Name: "poster", Usage: "Poster URL"},
		&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "watching, completed or plan_to_watch"},
		&cli.FloatFlag{Name: "rating", Aliases: []string{"r"}, Usage: "Rating from 0 to 10"},
		&cli.StringFlag{Name: "notes", Aliases: []string{"n"}, Usage: "Personal notes"},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the session",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account (does not sign in)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username", UsageText: "Account name"},
				},
				Flags:  credentialFlags(),
				Before: r.guard(router.PathRegister),
				Action: r.AuthRegister,
			},
			{
				Name:  "login",
				Usage: "Sign in and store the session token",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username", UsageText: "Account name"},
				},
				Flags:  credentialFlags(),
				Before: r.guard(router.PathLogin),
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and remove the stored token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show whether a session is active",
				Flags:  outputFlags(),
				Action: r.AuthStatus,
			},
			{
				Name:   "whoami",
				Usage:  "Print the signed-in user",
				Flags:  outputFlags(),
				Before: r.guard(router.PathHome),
				Action: r.AuthWhoami,
			},
		},
	}
}

func favoritesCommand(r *Runner) *cli.Command {
	guard := r.guard(router.PathFavorites)
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage tracked favorites",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List favorites",
				Flags: append(outputFlags(),
					&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Only items with this status"},
					&cli.StringFlag{Name: "type", Usage: "Only items of this media type"},
				),
				Before: guard,
				Action: r.FavoritesList,
			},
			{
				Name:  "get",
				Usage: "Show one favorite",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id", UsageText: "Favorite id"},
				},
				Flags:  outputFlags(),
				Before: guard,
				Action: r.FavoritesGet,
			},
			{
				Name:   "add",
				Usage:  "Track a new favorite",
				Flags:  append(favoriteFlags(), outputFlags()...),
				Before: guard,
				Action: r.FavoritesAdd,
			},
			{
				Name:  "update",
				Usage: "Change fields of a favorite; unset flags keep their value",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id", UsageText: "Favorite id"},
				},
				Flags:  append(favoriteFlags(), outputFlags()...),
				Before: guard,
				Action: r.FavoritesUpdate,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Stop tracking a favorite",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id", UsageText: "Favorite id"},
				},
				Before: guard,
				Action: r.FavoritesDelete,
			},
			{
				Name:  "export",
				Usage: "Write favorites to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "json, csv, markdown or txt",
						Value:   string(formatter.FormatJSON),
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: favorites.<ext>)",
					},
					&cli.BoolFlag{
						Name:  "stdout",
						Usage: "Print to stdout instead of writing a file",
					},
				},
				Before: guard,
				Action: r.FavoritesExport,
			},
			{
				Name:  "import",
				Usage: "Add favorites from a JSON or CSV file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path", UsageText: "File to import"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-history",
						Usage: "Do not record the run in the local database",
					},
				},
				Before: guard,
				Action: r.FavoritesImport,
			},
			{
				Name:  "history",
				Usage: "List recorded import runs",
				Flags: append(outputFlags(),
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum number of runs", Value: 20},
				),
				Action: r.FavoritesHistory,
			},
			{
				Name:  "open",
				Usage: "Open the poster of a favorite in the browser",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id", UsageText: "Favorite id"},
				},
				Before: guard,
				Action: r.FavoritesOpen,
			},
		},
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the catalog",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query", UsageText: "Search terms"},
		},
		Flags: append(outputFlags(),
			&cli.IntFlag{Name: "add", Aliases: []string{"a"}, Usage: "Track the nth result (1-based)"},
		),
		Before: r.guard(router.PathFavorites),
		Action: r.Search,
	}
}

func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Authorized GET, prints the raw response",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path", UsageText: "Path under the API base URL"},
				},
				Flags:  outputFlags(),
				Before: r.guard(router.PathHome),
				Action: r.APIGet,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Interactive terminal UI",
		Action: r.TUI,
	}
}
