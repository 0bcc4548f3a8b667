package progress

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// LogHandler returns a Handler that writes every event as a structured
// slog record.
func LogHandler(logger *slog.Logger) Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(e Event) {
		attrs := []any{
			"operation_id", e.Operation.ID,
			"operation", e.Operation.Name,
			"event", string(e.Type),
			"status", string(e.Operation.Status),
			"stage", e.Operation.CurrentStage,
			"processed", e.Operation.ProcessedItems,
			"total", e.Operation.TotalItems,
		}
		if e.Err != nil {
			attrs = append(attrs, "error", e.Err.Error())
			logger.Error("progress event", attrs...)
			return
		}
		logger.Info("progress event", attrs...)
	}
}

// fileEvent is the JSON-line shape written by FileHandler.
type fileEvent struct {
	Type      EventType `json:"type"`
	Operation Snapshot  `json:"operation"`
	Error     string    `json:"error,omitempty"`
}

// FileHandler returns a Handler that appends one JSON line per event to w.
// Writes are serialised, since multiple operations may emit concurrently.
func FileHandler(w io.Writer) Handler {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	return func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		fe := fileEvent{Type: e.Type, Operation: e.Operation}
		if e.Err != nil {
			fe.Error = e.Err.Error()
		}
		_ = enc.Encode(fe)
	}
}

// CallbackHandler adapts a plain func(Event) into a Handler — present for
// symmetry with LogHandler/FileHandler so callers can register all three
// uniformly via Subscribe.
func CallbackHandler(fn func(Event)) Handler {
	return fn
}
