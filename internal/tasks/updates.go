package tasks

import (
	"fmt"
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
	ParseRows Phase = iota
	ImportRows
	ImportDone
)

func (p Phase) String() string {
	switch p {
	case ParseRows:
		return "parse_rows"
	case ImportRows:
		return "import_rows"
	case ImportDone:
		return "import_done"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func parsingUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: ParseRows, Step: 1, Total: 1, Message: "Reading CSV..."}
}

func startedUpdate(total, workers int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportRows,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Importing %d songs with %d workers...", total, workers),
	}
}

func rowImportedUpdate(step, total int, res RowResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportRows,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (id %d)", step, total, res.Title, res.ID),
		Data:    res,
	}
}

func rowFailedUpdate(step, total int, res RowResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportRows,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ line %d: %v", step, total, res.Line, res.Error),
		Data:    res,
	}
}

func finishedUpdate(result *ImportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportDone,
		Step:    result.Total,
		Total:   result.Total,
		Message: fmt.Sprintf("Imported %d of %d songs (%d failed)", result.Imported, result.Total, result.Failed),
		Data:    result,
	}
}
