// package formatter renders a favorites list to CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/favx/internal/models"
	"github.com/desertthunder/favx/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// CSVHeader is the first record of every CSV export. The importer reads the same columns.
var CSVHeader = []string{"ID", "External ID", "Type", "Title", "Status", "Rating", "Poster", "Description", "Notes"}

// ParseFormat resolves a format name or common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want json, csv, markdown or txt)", shared.ErrInvalidArgument, s)
	}
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	case FormatText:
		return ".txt"
	default:
		return ".json"
	}
}

// StatusLabel returns a display label for s.
func StatusLabel(s models.Status) string {
	switch s {
	case models.StatusWatching:
		return "Watching"
	case models.StatusCompleted:
		return "Completed"
	case models.StatusPlanToWatch:
		return "Plan to watch"
	case "":
		return "No status"
	default:
		return string(s)
	}
}

// RatingString formats r without trailing zeros, or returns "" when unrated.
func RatingString(r *float64) string {
	if r == nil {
		return ""
	}
	return strconv.FormatFloat(*r, 'f', -1, 64)
}

// ExportToCSV converts items to CSV with [CSVHeader] columns
func ExportToCSV(items []models.FavoriteItem) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range items {
		record := []string{
			item.ID.String(),
			item.ExternalID.String(),
			string(item.Type),
			item.Title,
			string(item.Status),
			RatingString(item.Rating),
			item.PosterPath,
			item.Description,
			item.Notes,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders items grouped by status under a top-level title.
func ExportToMarkdown(items []models.FavoriteItem, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Favorites"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Items**: %d\n\n", len(items)))

	for _, group := range groupByStatus(items) {
		buf.WriteString(fmt.Sprintf("## %s\n\n", StatusLabel(group.status)))
		for i, item := range group.items {
			buf.WriteString(fmt.Sprintf("%d. **%s** (%s)", i+1, item.Title, item.Type))
			if r := RatingString(item.Rating); r != "" {
				buf.WriteString(fmt.Sprintf(" %s/10", r))
			}
			buf.WriteString("\n")
			if item.Description != "" {
				buf.WriteString(fmt.Sprintf("   %s\n", item.Description))
			}
			if item.Notes != "" {
				buf.WriteString(fmt.Sprintf("   > %s\n", item.Notes))
			}
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts items to one line each
func ExportToText(items []models.FavoriteItem) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Favorites: %d\n\n", len(items)))
	for i, item := range items {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s - %s", i+1, item.Type, item.Title, StatusLabel(item.Status)))
		if r := RatingString(item.Rating); r != "" {
			buf.WriteString(fmt.Sprintf(" (%s/10)", r))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes items as a JSON array. A nil slice encodes as [].
func ExportToJSON(items []models.FavoriteItem, pretty bool) ([]byte, error) {
	if items == nil {
		items = []models.FavoriteItem{}
	}
	return shared.MarshalJSON(items, pretty)
}

// Export renders items in format f.
func Export(items []models.FavoriteItem, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(items)
	case FormatMarkdown:
		return ExportToMarkdown(items, "")
	case FormatText:
		return ExportToText(items)
	case FormatJSON:
		return ExportToJSON(items, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// WriteExport renders items in format f and writes them to path.
//
// An empty path defaults to favorites{ext} in the working directory. Parent
// directories are created. The written path is returned.
func WriteExport(items []models.FavoriteItem, f Format, path string) (string, error) {
	if path == "" {
		path = "favorites" + f.Ext()
	}

	data, err := Export(items, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return path, nil
}

type statusGroup struct {
	status models.Status
	items  []models.FavoriteItem
}

// groupByStatus orders groups by [models.Statuses], then any other status in first-seen order.
func groupByStatus(items []models.FavoriteItem) []statusGroup {
	index := map[models.Status]int{}
	var groups []statusGroup

	for _, st := range models.Statuses {
		index[st] = len(groups)
		groups = append(groups, statusGroup{status: st})
	}

	for _, item := range items {
		i, ok := index[item.Status]
		if !ok {
			i = len(groups)
			index[item.Status] = i
			groups = append(groups, statusGroup{status: item.Status})
		}
		groups[i].items = append(groups[i].items, item)
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g.items) > 0 {
			out = append(out, g)
		}
	}
	return out
}
