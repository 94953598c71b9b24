package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger is the in-memory Sink. Events accumulate until a complete trace
// arrives, then fold into it; completed traces accumulate until saved.
// Safe for concurrent use so independent conversations can share one logger.
type Logger struct {
	mu     sync.Mutex
	events []Event
	traces []Trace
}

// NewLogger returns an empty in-memory trace logger.
func NewLogger() *Logger {
	return &Logger{}
}

// LogEvent buffers one event for the next complete trace.
func (l *Logger) LogEvent(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

// LogCompleteTrace finalizes a trace: it receives the buffered events,
// an ID and a timestamp if the caller left them empty, and joins the
// session's trace list. The event buffer clears so the next turn starts
// fresh.
func (l *Logger) LogCompleteTrace(tr Trace) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tr.ID == "" {
		tr.ID = uuid.New().String()
	}
	if tr.RecordedAt.IsZero() {
		tr.RecordedAt = time.Now()
	}
	if len(l.events) > 0 {
		tr.Events = append(append([]Event{}, l.events...), tr.Events...)
		l.events = nil
	}

	l.traces = append(l.traces, tr)
}

// CurrentTraces returns a copy of all traces completed so far.
func (l *Logger) CurrentTraces() []Trace {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Trace, len(l.traces))
	copy(out, l.traces)
	return out
}

// SaveAll writes every completed trace to path: a JSON array by default, or
// appended JSON lines when the path ends in .jsonl so repeated saves
// accumulate in one file.
func (l *Logger) SaveAll(path string) error {
	traces := l.CurrentTraces()
	if len(traces) == 0 {
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create trace directory: %w", err)
		}
	}

	if strings.HasSuffix(path, ".jsonl") {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open trace file: %w", err)
		}
		defer f.Close()
		enc := json.NewEncoder(f)
		for _, tr := range traces {
			if err := enc.Encode(tr); err != nil {
				return fmt.Errorf("failed to write trace: %w", err)
			}
		}
		return nil
	}

	data, err := json.MarshalIndent(traces, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal traces: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write trace file: %w", err)
	}
	return nil
}
