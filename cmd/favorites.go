package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/favx/internal/favorites"
	"github.com/desertthunder/favx/internal/formatter"
	"github.com/desertthunder/favx/internal/models"
	"github.com/desertthunder/favx/internal/repositories"
	"github.com/desertthunder/favx/internal/services"
	"github.com/desertthunder/favx/internal/shared"
	"github.com/desertthunder/favx/internal/tasks"
)

// AddOutput is the JSON output of `favorites add` and `search --add`.
type AddOutput struct {
	Outcome string              `json:"outcome"`
	Item    models.FavoriteItem `json:"item"`
}

// apiError turns a manager or client error into the error a command returns.
//
// A 401 ends the stored session.
func (r *Runner) apiError(err error, fallback string) error {
	r.logger.Debug("request failed", "error", err)

	switch {
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, context.Canceled):
		return err
	case services.IsStatus(err, http.StatusUnauthorized):
		if logoutErr := r.session.Logout(); logoutErr != nil {
			r.logger.Warn("failed to remove expired token", "error", logoutErr)
		}
		return fmt.Errorf("%w: session expired, run 'favx auth login'", shared.ErrNotAuthenticated)
	}

	if msg := services.Message(err, ""); msg != "" {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, msg)
	}
	return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, fallback, err)
}

func (r *Runner) fetch(ctx context.Context) error {
	if err := r.favorites.Fetch(ctx); err != nil {
		return r.apiError(err, "failed to load favorites")
	}
	return nil
}

// lookup fetches the collection and returns the item named by the id argument.
func (r *Runner) lookup(ctx context.Context, cmd *cli.Command) (models.FavoriteItem, error) {
	id := models.FlexID(strings.TrimSpace(cmd.StringArg("id")))
	if id.IsZero() {
		return models.FavoriteItem{}, fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	if err := r.fetch(ctx); err != nil {
		return models.FavoriteItem{}, err
	}
	item, ok := r.favorites.Get(id)
	if !ok {
		return models.FavoriteItem{}, fmt.Errorf("%w: %s", shared.ErrFavoriteNotFound, id)
	}
	return item, nil
}

// applyFlags overlays the favorite flags that were set on base and reports whether any were.
func applyFlags(cmd *cli.Command, base models.FavoriteInput) (models.FavoriteInput, bool) {
	changed := false
	str := func(name string, dst *string) {
		if cmd.IsSet(name) {
			*dst = strings.TrimSpace(cmd.String(name))
			changed = true
		}
	}

	str("title", &base.Title)
	str("description", &base.Description)
	str("poster", &base.PosterPath)
	str("notes", &base.Notes)

	if cmd.IsSet("type") {
		base.Type = models.MediaType(strings.ToLower(strings.TrimSpace(cmd.String("type"))))
		changed = true
	}
	if cmd.IsSet("status") {
		base.Status = models.Status(strings.ToLower(strings.TrimSpace(cmd.String("status"))))
		changed = true
	}
	if cmd.IsSet("external-id") {
		base.ExternalID = models.FlexID(strings.TrimSpace(cmd.String("external-id")))
		changed = true
	}
	if cmd.IsSet("rating") {
		base.Rating = models.Float(cmd.Float("rating"))
		changed = true
	}
	return base, changed
}

func (r *Runner) writeItem(item models.FavoriteItem) {
	line := fmt.Sprintf("%-4s [%s] %s - %s", item.ID, item.Type, item.Title, formatter.StatusLabel(item.Status))
	if rating := formatter.RatingString(item.Rating); rating != "" {
		line += fmt.Sprintf(" (%s/10)", rating)
	}
	r.writePlain("%s\n", line)
}

func (r *Runner) writeDetail(item models.FavoriteItem) {
	r.writePlainHeader(item.Title)
	r.writePlain("ID: %s\n", item.ID)
	r.writePlain("Type: %s\n", item.Type)
	r.writePlain("Status: %s\n", formatter.StatusLabel(item.Status))
	if rating := formatter.RatingString(item.Rating); rating != "" {
		r.writePlain("Rating: %s/10\n", rating)
	}
	if !item.ExternalID.IsZero() {
		r.writePlain("External ID: %s\n", item.ExternalID)
	}
	if item.PosterPath != "" {
		r.writePlain("Poster: %s\n", item.PosterPath)
	}
	if item.Description != "" {
		r.writePlainln("%s", item.Description)
	}
	if item.Notes != "" {
		r.writePlainln("Notes: %s", item.Notes)
	}
}

func (r *Runner) writeAdd(cmd *cli.Command, res *favorites.AddResult, title string) error {
	if cmd.Bool("json") {
		return r.writeJSON(AddOutput{Outcome: res.Outcome.String(), Item: res.Item}, cmd.Bool("pretty"))
	}
	if res.Outcome == favorites.Duplicate {
		if res.Item.ID.IsZero() {
			return r.writePlain("= %s is already tracked\n", title)
		}
		return r.writePlain("= %s is already tracked (id %s)\n", title, res.Item.ID)
	}
	return r.writePlain("✓ Added %s (id %s)\n", res.Item.Title, res.Item.ID)
}

// FavoritesList prints the collection, optionally filtered by status and type.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	status := models.Status(strings.ToLower(cmd.String("status")))
	if status != "" && !slices.Contains(models.Statuses, status) {
		return fmt.Errorf("%w: status %q", shared.ErrInvalidFlag, status)
	}
	mediaType := models.MediaType(strings.ToLower(cmd.String("type")))

	if err := r.fetch(ctx); err != nil {
		return err
	}

	items := []models.FavoriteItem{}
	for _, item := range r.favorites.Items() {
		if status != "" && item.Status != status {
			continue
		}
		if mediaType != "" && item.Type != mediaType {
			continue
		}
		items = append(items, item)
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}

	if len(items) == 0 {
		return r.writePlain("No favorites yet\n")
	}
	for _, item := range items {
		r.writeItem(item)
	}
	return r.writePlainln("%d favorites", len(items))
}

// FavoritesGet prints one favorite.
func (r *Runner) FavoritesGet(ctx context.Context, cmd *cli.Command) error {
	item, err := r.lookup(ctx, cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(item, cmd.Bool("pretty"))
	}
	r.writeDetail(item)
	return nil
}

// FavoritesAdd tracks a favorite built from flags. Duplicates are reported, not failed.
func (r *Runner) FavoritesAdd(ctx context.Context, cmd *cli.Command) error {
	in, _ := applyFlags(cmd, models.FavoriteInput{})
	if in.Title == "" || in.Type == "" {
		return fmt.Errorf("%w: --title and --type", shared.ErrMissingArgument)
	}

	if err := r.fetch(ctx); err != nil {
		return err
	}

	res, err := r.favorites.Add(ctx, in)
	if err != nil {
		return r.apiError(err, "failed to add favorite")
	}
	return r.writeAdd(cmd, res, in.Title)
}

// FavoritesUpdate changes the fields given as flags and keeps the rest.
func (r *Runner) FavoritesUpdate(ctx context.Context, cmd *cli.Command) error {
	item, err := r.lookup(ctx, cmd)
	if err != nil {
		return err
	}

	in, changed := applyFlags(cmd, item.Input())
	if !changed {
		return fmt.Errorf("%w: nothing to update", shared.ErrMissingArgument)
	}

	res, err := r.favorites.Update(ctx, item.ID, in)
	if err != nil {
		return r.apiError(err, "failed to update favorite")
	}

	if cmd.Bool("json") {
		return r.writeJSON(res.Item, cmd.Bool("pretty"))
	}
	return r.writePlain("✓ Updated %s\n", res.Item.Title)
}

// FavoritesDelete removes a favorite. An id the server no longer has counts as deleted.
func (r *Runner) FavoritesDelete(ctx context.Context, cmd *cli.Command) error {
	id := models.FlexID(strings.TrimSpace(cmd.StringArg("id")))
	if id.IsZero() {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	if err := r.fetch(ctx); err != nil {
		return err
	}

	name := "favorite " + id.String()
	if item, ok := r.favorites.Get(id); ok {
		name = item.Title
	}

	if _, err := r.favorites.Delete(ctx, id); err != nil {
		return r.apiError(err, "failed to delete favorite")
	}
	return r.writePlain("✓ Deleted %s\n", name)
}

// FavoritesExport writes the collection in the chosen format.
func (r *Runner) FavoritesExport(ctx context.Context, cmd *cli.Command) error {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.fetch(ctx); err != nil {
		return err
	}
	items := r.favorites.Items()

	if cmd.Bool("stdout") {
		data, err := formatter.Export(items, f)
		if err != nil {
			return err
		}
		return r.writeRaw(data)
	}

	path, err := formatter.WriteExport(items, f, cmd.String("output"))
	if err != nil {
		return err
	}
	r.logger.Info("exported favorites", "count", len(items), "format", f, "path", path)
	return r.writePlain("✓ Exported %d favorites to %s\n", len(items), path)
}

// FavoritesImport adds every entry of a JSON or CSV file and records the run in the local database.
func (r *Runner) FavoritesImport(ctx context.Context, cmd *cli.Command) error {
	path := strings.TrimSpace(cmd.StringArg("path"))
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if err := r.fetch(ctx); err != nil {
		return err
	}

	var runs tasks.RunRecorder
	if !cmd.Bool("no-history") {
		db, err := r.openDatabase()
		if err != nil {
			r.logger.Warn("import history unavailable", "error", err)
		} else {
			defer db.Close()
			runs = repositories.NewImportRunRepository(db)
		}
	}

	importer := tasks.NewImporter(r.favorites, runs, r.logger)

	progressCh := make(chan tasks.ProgressUpdate, 64)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for update := range progressCh {
			switch update.Phase {
			case tasks.DecodeInput:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ImportItems:
				if _, ok := update.Data.(tasks.ItemResult); ok {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.RecordRun:
				r.logger.Debug(update.Message)
			}
		}
	}()

	result, err := importer.RunFile(ctx, path, progressCh)
	close(progressCh)
	<-printed

	if result == nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Import Complete!")
	r.writePlain("Source: %s (%d items)\n", result.Run.Source, result.Run.Total)
	r.writePlain("Added: %d\n", result.Run.Added)
	r.writePlain("Already tracked: %d\n", result.Run.Duplicates)
	r.writePlain("Failed: %d\n", result.Run.Failed)

	if result.Run.Failed > 0 {
		r.writePlain("\nFailed items:\n")
		for _, item := range result.Items {
			if item.Err == nil {
				continue
			}
			r.writePlain("  ✗ %s: %s\n", item.Input.Title, services.Message(item.Err, item.Err.Error()))
		}
	}
	return err
}

// FavoritesHistory lists recorded import runs, newest first.
func (r *Runner) FavoritesHistory(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repositories.NewImportRunRepository(db).List(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if runs == nil {
			runs = []*models.ImportRun{}
		}
		return r.writeJSON(runs, cmd.Bool("pretty"))
	}

	if len(runs) == 0 {
		return r.writePlain("No imports recorded\n")
	}
	for _, run := range runs {
		r.writePlain("%s  %s  %s: %d added, %d duplicates, %d failed\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"), shortID(run.ID), run.Source, run.Added, run.Duplicates, run.Failed)
	}
	return nil
}

// FavoritesOpen opens the poster URL of a favorite.
func (r *Runner) FavoritesOpen(ctx context.Context, cmd *cli.Command) error {
	item, err := r.lookup(ctx, cmd)
	if err != nil {
		return err
	}
	if item.PosterPath == "" {
		return fmt.Errorf("%w: %s has no poster", shared.ErrInvalidArgument, item.Title)
	}
	if err := r.open(item.PosterPath); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return r.writePlain("✓ Opened poster for %s\n", item.Title)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
