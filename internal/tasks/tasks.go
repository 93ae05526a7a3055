package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/favx/internal/favorites"
	"github.com/desertthunder/favx/internal/models"
	"github.com/desertthunder/favx/internal/shared"
)

// Adder adds one favorite. Implemented by [favorites.Manager].
type Adder interface {
	Add(ctx context.Context, in models.FavoriteInput) (*favorites.AddResult, error)
}

// RunRecorder persists import history. Implemented by repositories.ImportRunRepository.
type RunRecorder interface {
	Create(run *models.ImportRun) error
	Finish(run *models.ImportRun) error
}

// ItemResult is the outcome of importing a single input.
type ItemResult struct {
	Input   models.FavoriteInput // Input as given
	Item    models.FavoriteItem  // Stored or existing record (zero on failure)
	Outcome favorites.Outcome    // Added or Duplicate (zero on failure)
	Err     error                // Error if the add failed
}

// ImportResult contains all data from an import run.
type ImportResult struct {
	Run   models.ImportRun // Counts and timing; ID is empty when the run was not recorded
	Items []ItemResult     // Per-input results in input order
}

// Importer adds a batch of favorites one at a time.
type Importer struct {
	adder  Adder
	runs   RunRecorder
	logger *log.Logger
}

// NewImporter creates an [Importer]. runs may be nil to skip history; a nil logger discards.
func NewImporter(adder Adder, runs RunRecorder, logger *log.Logger) *Importer {
	if logger == nil {
		logger = shared.NewDiscardLogger()
	}
	return &Importer{adder: adder, runs: runs, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Importer) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run imports items under the source name "inline".
func (e *Importer) Run(ctx context.Context, items []models.FavoriteInput, progress chan<- ProgressUpdate) (*ImportResult, error) {
	return e.run(ctx, "inline", items, progress)
}

// RunFile decodes path with [DecodeFile] and imports the result under the path as source.
func (e *Importer) RunFile(ctx context.Context, path string, progress chan<- ProgressUpdate) (*ImportResult, error) {
	items, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, decodedUpdate(path, len(items)))
	return e.run(ctx, path, items, progress)
}

// run adds items sequentially. A failed add is counted and the loop continues;
// cancellation stops before the next item and returns the partial result with ctx.Err().
func (e *Importer) run(ctx context.Context, source string, items []models.FavoriteInput, progress chan<- ProgressUpdate) (*ImportResult, error) {
	if e.adder == nil {
		return nil, fmt.Errorf("%w: favorites manager not initialized", shared.ErrServiceUnavailable)
	}

	total := len(items)
	result := &ImportResult{
		Run:   models.ImportRun{Source: source, Total: total},
		Items: make([]ItemResult, 0, total),
	}

	recording := e.runs != nil
	if recording {
		if err := e.runs.Create(&result.Run); err != nil {
			e.logger.Warn("import history disabled for this run", "error", err)
			recording = false
		}
	}

	var runErr error
	for i, in := range items {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		e.sendProgress(progress, importingUpdate(i+1, total, in))

		res := ItemResult{Input: in}
		added, err := e.adder.Add(ctx, in)
		if err != nil {
			res.Err = err
			result.Run.Failed++
		} else {
			res.Item, res.Outcome = added.Item, added.Outcome
			switch added.Outcome {
			case favorites.Duplicate:
				result.Run.Duplicates++
			default:
				result.Run.Added++
			}
		}

		e.logger.Debug("import item", "step", i+1, "title", in.Title, "outcome", res.Outcome, "error", res.Err)
		result.Items = append(result.Items, res)
		e.sendProgress(progress, itemUpdate(i+1, total, res))
	}

	if recording {
		if err := e.runs.Finish(&result.Run); err != nil {
			e.logger.Warn("failed to record import run", "id", result.Run.ID, "error", err)
		} else {
			e.sendProgress(progress, recordUpdate(&result.Run))
		}
	}

	if runErr != nil {
		return result, runErr
	}

	e.sendProgress(progress, completeUpdate(result))
	if total > 0 && result.Run.Failed == total {
		return result, fmt.Errorf("all %d items failed to import", total)
	}
	return result, nil
}
