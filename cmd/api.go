package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/favx/internal/formatter"
	"github.com/desertthunder/favx/internal/shared"
)

// APIGet makes a direct authorized GET request to the API
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := strings.TrimSpace(cmd.StringArg("path"))
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.client.Get(ctx, r.session.Token(), path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	if data, ok := resp.JSON(); ok {
		return r.writeJSON(data, !cmd.Bool("json") || cmd.Bool("pretty"))
	}
	return r.writeRaw(resp.Body)
}

// Search queries the catalog. With --add the chosen result is tracked as a movie.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	r.logger.Info("searching catalog", "query", query)

	resp, err := r.client.Search(ctx, r.session.Token(), query)
	if err != nil {
		return r.apiError(err, "search failed")
	}

	if n := cmd.Int("add"); n != 0 {
		if n < 1 || n > len(resp.Results) {
			return fmt.Errorf("%w: --add %d, %d results", shared.ErrInvalidFlag, n, len(resp.Results))
		}
		if err := r.fetch(ctx); err != nil {
			return err
		}
		in := resp.Results[n-1].AsInput()
		res, err := r.favorites.Add(ctx, in)
		if err != nil {
			return r.apiError(err, "failed to add favorite")
		}
		return r.writeAdd(cmd, res, in.Title)
	}

	if cmd.Bool("json") {
		return r.writeJSON(resp.Results, cmd.Bool("pretty"))
	}

	if len(resp.Results) == 0 {
		return r.writePlain("No results for %q\n", query)
	}
	for i, result := range resp.Results {
		line := fmt.Sprintf("%d. %s", i+1, result.Title)
		if len(result.ReleaseDate) >= 4 {
			line += fmt.Sprintf(" (%s)", result.ReleaseDate[:4])
		}
		if rating := formatter.RatingString(result.VoteAverage); rating != "" {
			line += fmt.Sprintf(" ★ %s", rating)
		}
		r.writePlain("%s\n", line)
	}
	return r.writePlainln("Track one with 'favx search --add N %s'", query)
}
