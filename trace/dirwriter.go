package trace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"loom/config"
)

// DirWriter is a Sink that persists each completed trace as its own JSON
// file under a directory. Write failures are logged to the debug log and
// otherwise swallowed: tracing must never take a conversation down.
type DirWriter struct {
	dir string

	mu     sync.Mutex
	events []Event
}

// NewDirWriter creates the directory if needed and returns a writer into it.
func NewDirWriter(dir string) (*DirWriter, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &DirWriter{dir: dir}, nil
}

// LogEvent buffers one event for the next complete trace.
func (w *DirWriter) LogEvent(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, ev)
}

// LogCompleteTrace folds the buffered events into the trace and writes it to
// trace_<timestamp>_<id>.json in the writer's directory.
func (w *DirWriter) LogCompleteTrace(tr Trace) {
	w.mu.Lock()
	if tr.ID == "" {
		tr.ID = uuid.New().String()
	}
	if tr.RecordedAt.IsZero() {
		tr.RecordedAt = time.Now()
	}
	if len(w.events) > 0 {
		tr.Events = append(append([]Event{}, w.events...), tr.Events...)
		w.events = nil
	}
	w.mu.Unlock()

	data, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("Failed to marshal trace %s: %v", tr.ID, err)
		}
		return
	}

	name := "trace_" + tr.RecordedAt.Format("20060102_150405") + "_" + tr.ID + ".json"
	if err := os.WriteFile(filepath.Join(w.dir, name), data, 0600); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("Failed to write trace %s: %v", tr.ID, err)
		}
	}
}
