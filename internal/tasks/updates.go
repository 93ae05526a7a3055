package tasks

import (
	"fmt"

	"github.com/desertthunder/favx/internal/favorites"
	"github.com/desertthunder/favx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	DecodeInput Phase = iota
	ImportItems
	RecordRun
	Complete
)

func (p Phase) String() string {
	switch p {
	case DecodeInput:
		return "decode_input"
	case ImportItems:
		return "import_items"
	case RecordRun:
		return "record_run"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func decodedUpdate(source string, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DecodeInput,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Read %d items from %s", total, source),
	}
}

func importingUpdate(step, total int, in models.FavoriteInput) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s (%s)", step, total, in.Title, in.Type),
	}
}

func itemUpdate(step, total int, res ItemResult) ProgressUpdate {
	var msg string
	switch {
	case res.Err != nil:
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Input.Title, res.Err)
	case res.Outcome == favorites.Duplicate:
		msg = fmt.Sprintf("[%d/%d] = %s (already tracked)", step, total, res.Input.Title)
	default:
		msg = fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Input.Title)
	}
	return ProgressUpdate{
		Phase:   ImportItems,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func recordUpdate(run *models.ImportRun) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordRun,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Recorded import run %s", run.ID),
		Data:    run,
	}
}

func completeUpdate(res *ImportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Import finished: %d added, %d duplicates, %d failed", res.Run.Added, res.Run.Duplicates, res.Run.Failed),
		Data:    res,
	}
}
