package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/favx/internal/models"
	"github.com/desertthunder/favx/internal/shared"
)

// ImportRunRepository persists [models.ImportRun] history.
type ImportRunRepository struct {
	db *sql.DB
}

// NewImportRunRepository creates a new [ImportRunRepository] with the given database connection
func NewImportRunRepository(db *sql.DB) *ImportRunRepository {
	return &ImportRunRepository{db: db}
}

// Create inserts run with a generated ID. StartedAt defaults to now.
func (r *ImportRunRepository) Create(run *models.ImportRun) error {
	if run.Source == "" {
		return fmt.Errorf("%w: import run source is empty", shared.ErrInvalidInput)
	}

	run.ID = shared.GenerateID()
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	query := `
		INSERT INTO import_runs (id, source, total, added, duplicates, failed, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, run.ID, run.Source, run.Total, run.Added, run.Duplicates, run.Failed, run.StartedAt, nullTime(run.FinishedAt))
	if err != nil {
		return fmt.Errorf("failed to insert import run: %w", err)
	}
	return nil
}

// Finish writes the final counts of run and stamps finished_at.
func (r *ImportRunRepository) Finish(run *models.ImportRun) error {
	now := time.Now()
	query := `
		UPDATE import_runs SET total = ?, added = ?, duplicates = ?, failed = ?, finished_at = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query, run.Total, run.Added, run.Duplicates, run.Failed, now, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update import run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("import run %s: %w", run.ID, ErrNotFound)
	}

	run.FinishedAt = &now
	return nil
}

// Get retrieves a run by ID.
func (r *ImportRunRepository) Get(id string) (*models.ImportRun, error) {
	query := `
		SELECT id, source, total, added, duplicates, failed, started_at, finished_at
		FROM import_runs WHERE id = ?
	`
	run, err := scanRun(r.db.QueryRow(query, id))
	if err != nil {
		return nil, scanNotFound(err, "import run "+id)
	}
	return run, nil
}

// List returns the most recent runs first, at most limit rows (0 means all).
func (r *ImportRunRepository) List(limit int) ([]*models.ImportRun, error) {
	query := `
		SELECT id, source, total, added, duplicates, failed, started_at, finished_at
		FROM import_runs ORDER BY started_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ImportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.ImportRun, error) {
	var (
		run        models.ImportRun
		finishedAt sql.NullTime
	)
	err := s.Scan(&run.ID, &run.Source, &run.Total, &run.Added, &run.Duplicates, &run.Failed, &run.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
