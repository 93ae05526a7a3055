package tasks

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/favx/internal/formatter"
	"github.com/desertthunder/favx/internal/models"
	"github.com/desertthunder/favx/internal/shared"
)

// DecodeFile reads import input from path. Files ending in .csv are read as CSV, everything else as JSON.
func DecodeFile(path string) ([]models.FavoriteInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	format := formatter.FormatJSON
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		format = formatter.FormatCSV
	}
	return Decode(f, format)
}

// Decode reads import input from r in format f. Only JSON and CSV are accepted.
func Decode(r io.Reader, f formatter.Format) ([]models.FavoriteInput, error) {
	switch f {
	case formatter.FormatJSON:
		return DecodeJSON(r)
	case formatter.FormatCSV:
		return DecodeCSV(r)
	default:
		return nil, fmt.Errorf("%w: cannot import %s", shared.ErrInvalidArgument, f)
	}
}

// DecodeJSON reads a JSON array of favorites. An exported list decodes as-is; ids are ignored.
func DecodeJSON(r io.Reader) ([]models.FavoriteInput, error) {
	var items []models.FavoriteInput
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		if errors.Is(err, io.EOF) {
			return []models.FavoriteInput{}, nil
		}
		return nil, fmt.Errorf("%w: invalid JSON import: %v", shared.ErrInvalidInput, err)
	}
	if items == nil {
		items = []models.FavoriteInput{}
	}
	return items, nil
}

// DecodeCSV reads CSV with a header row naming [formatter.CSVHeader] columns.
//
// Columns are matched by name, case-insensitively, and may appear in any order.
// Title and Type are required; unknown columns are ignored.
func DecodeCSV(r io.Reader) ([]models.FavoriteInput, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []models.FavoriteInput{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: invalid CSV header: %v", shared.ErrInvalidInput, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"title", "type"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: CSV header is missing %q column", shared.ErrInvalidInput, required)
		}
	}

	items := []models.FavoriteInput{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid CSV: %v", shared.ErrInvalidInput, err)
		}
		line, _ := reader.FieldPos(0)

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		in := models.FavoriteInput{
			ExternalID:  models.FlexID(field("external id")),
			Type:        models.MediaType(field("type")),
			Title:       field("title"),
			Status:      models.Status(field("status")),
			PosterPath:  field("poster"),
			Description: field("description"),
			Notes:       field("notes"),
		}
		if v := field("rating"); v != "" {
			rating, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: invalid rating %q", shared.ErrInvalidInput, line, v)
			}
			in.Rating = &rating
		}
		items = append(items, in)
	}
	return items, nil
}
