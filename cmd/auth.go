package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/favx/internal/shared"
	"github.com/desertthunder/favx/internal/tokenstore"
)

// AuthStatusInfo is the output of `auth status`.
type AuthStatusInfo struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	API           string `json:"api"`
	Storage       string `json:"storage"`
	TokenFromEnv  bool   `json:"token_from_env"`
	Error         string `json:"error,omitempty"`
}

func credentials(cmd *cli.Command) (string, string, error) {
	username := strings.TrimSpace(cmd.StringArg("username"))
	if username == "" {
		return "", "", fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}
	password := cmd.String("password")
	if password == "" {
		return "", "", fmt.Errorf("%w: --password or %s", shared.ErrMissingArgument, PasswordEnv)
	}
	return username, password, nil
}

// AuthRegister creates an account. The new account is not signed in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	username, password, err := credentials(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("registering account", "username", username)

	resp, err := r.session.Register(ctx, username, password)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, r.session.LastFailure())
	}

	r.writePlain("✓ Account created for %s\n", username)
	if resp.Message != "" {
		r.writePlain("%s\n", resp.Message)
	}
	return r.writePlain("Run 'favx auth login %s' to sign in\n", username)
}

// AuthLogin signs in and persists the token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username, password, err := credentials(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("signing in", "username", username)

	if _, err := r.session.Login(ctx, username, password); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, r.session.LastFailure())
	}

	return r.writePlain("✓ Signed in as %s\n", r.username())
}

// AuthLogout removes the stored token. Signing out twice is not an error.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Logout(); err != nil {
		return err
	}
	if env, ok := r.store.(*tokenstore.EnvStore); ok && env.FromEnv() {
		r.logger.Warn("stored token removed, but " + tokenstore.EnvVar + " is still set")
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus reports the session state without failing when signed out.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.restore(ctx); err != nil {
		return err
	}

	info := AuthStatusInfo{
		Authenticated: r.session.IsAuthenticated(),
		API:           r.client.BaseURL(),
		Storage:       r.config.Storage.Backend,
		Error:         r.session.LastFailure(),
	}
	if info.Authenticated {
		info.Username = r.username()
		info.Error = ""
	}
	if env, ok := r.store.(*tokenstore.EnvStore); ok {
		info.TokenFromEnv = env.FromEnv()
	}

	if cmd.Bool("json") {
		return r.writeJSON(info, cmd.Bool("pretty"))
	}

	r.writePlain("API: %s\n", info.API)
	r.writePlain("Storage: %s\n", info.Storage)
	if !info.Authenticated {
		r.writePlain("Session: ✗ Not signed in\n")
		if info.Error != "" {
			r.writePlain("Last error: %s\n", info.Error)
		}
		return nil
	}

	r.writePlain("Session: ✓ Signed in as %s\n", info.Username)
	if info.TokenFromEnv {
		r.writePlain("Token: from %s\n", tokenstore.EnvVar)
	}
	return nil
}

// AuthWhoami prints the current user.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	user := r.session.CurrentUser()
	if user == nil {
		return fmt.Errorf("%w: current user not loaded", shared.ErrNotAuthenticated)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}
	return r.writePlain("%s (id %s)\n", user.Username, user.ID)
}
