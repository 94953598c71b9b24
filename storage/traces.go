package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"loom/config"
	"loom/trace"
)

// TraceStore keeps completed interaction traces in a SQLite database. It
// implements trace.Sink, so it can be attached directly to an engine:
// events buffer in memory and fold into the trace that completes them,
// exactly like the in-memory logger, but the completed trace lands in the
// database instead.
type TraceStore struct {
	db *sql.DB

	mu     sync.Mutex
	events []trace.Event
}

// NewTraceStore opens (or creates) <dataDir>/traces.db and ensures the
// schema is current.
func NewTraceStore(dataDir string) (*TraceStore, error) {
	dbPath := filepath.Join(dataDir, "traces.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &TraceStore{db: db}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (ts *TraceStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS traces (
		id TEXT PRIMARY KEY,
		conversation_id TEXT,
		recorded_at DATETIME NOT NULL,
		final_output TEXT,
		events TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_traces_conversation ON traces(conversation_id);
	`

	if _, err := ts.db.Exec(schema); err != nil {
		return err
	}

	// Migration: the reward column arrived after the first schema version
	if err := ts.migrateSchema(); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	return nil
}

// migrateSchema adds missing columns to existing databases.
func (ts *TraceStore) migrateSchema() error {
	hasReward, err := ts.columnExists("traces", "reward")
	if err != nil {
		return fmt.Errorf("failed to check for reward column: %w", err)
	}

	if !hasReward {
		if _, err := ts.db.Exec(`ALTER TABLE traces ADD COLUMN reward REAL`); err != nil {
			return fmt.Errorf("failed to add reward column: %w", err)
		}
	}

	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info.
func (ts *TraceStore) columnExists(tableName, columnName string) (bool, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", tableName)
	rows, err := ts.db.Query(query)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == columnName {
			return true, nil
		}
	}

	return false, rows.Err()
}

// Insert writes one completed trace, assigning an ID and timestamp when
// missing.
func (ts *TraceStore) Insert(tr trace.Trace) error {
	if tr.ID == "" {
		tr.ID = uuid.New().String()
	}
	if tr.RecordedAt.IsZero() {
		tr.RecordedAt = time.Now()
	}

	events, err := json.Marshal(tr.Events)
	if err != nil {
		return fmt.Errorf("failed to marshal trace events: %w", err)
	}

	var reward sql.NullFloat64
	if tr.Reward != nil {
		reward = sql.NullFloat64{Float64: *tr.Reward, Valid: true}
	}

	_, err = ts.db.Exec(
		`INSERT OR REPLACE INTO traces (id, conversation_id, recorded_at, reward, final_output, events)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tr.ID, tr.ConversationID, tr.RecordedAt.UTC().Format(time.RFC3339Nano), reward, tr.FinalOutput, string(events),
	)
	if err != nil {
		return fmt.Errorf("failed to insert trace: %w", err)
	}

	return nil
}

// Get loads one trace by ID.
func (ts *TraceStore) Get(id string) (*trace.Trace, error) {
	row := ts.db.QueryRow(
		`SELECT id, conversation_id, recorded_at, reward, final_output, events FROM traces WHERE id = ?`,
		id,
	)
	tr, err := scanTrace(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to load trace %s: %w", id, err)
	}
	return tr, nil
}

// ListByConversation returns every trace recorded for one conversation,
// oldest first.
func (ts *TraceStore) ListByConversation(conversationID string) ([]trace.Trace, error) {
	rows, err := ts.db.Query(
		`SELECT id, conversation_id, recorded_at, reward, final_output, events
		 FROM traces WHERE conversation_id = ? ORDER BY recorded_at ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query traces: %w", err)
	}
	defer rows.Close()

	var traces []trace.Trace
	for rows.Next() {
		tr, err := scanTrace(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trace: %w", err)
		}
		traces = append(traces, *tr)
	}

	return traces, rows.Err()
}

func scanTrace(scan func(dest ...any) error) (*trace.Trace, error) {
	var tr trace.Trace
	var recordedAt, events string
	var reward sql.NullFloat64
	if err := scan(&tr.ID, &tr.ConversationID, &recordedAt, &reward, &tr.FinalOutput, &events); err != nil {
		return nil, err
	}

	if t, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
		tr.RecordedAt = t
	}
	if reward.Valid {
		tr.Reward = &reward.Float64
	}
	if err := json.Unmarshal([]byte(events), &tr.Events); err != nil {
		return nil, fmt.Errorf("corrupted events payload: %w", err)
	}

	return &tr, nil
}

// LogEvent implements trace.Sink by buffering the event for the next
// complete trace.
func (ts *TraceStore) LogEvent(ev trace.Event) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.events = append(ts.events, ev)
}

// LogCompleteTrace implements trace.Sink: buffered events fold into the
// trace and the result is inserted. Insert failures are logged and
// swallowed - tracing must never take a conversation down.
func (ts *TraceStore) LogCompleteTrace(tr trace.Trace) {
	ts.mu.Lock()
	if len(ts.events) > 0 {
		tr.Events = append(append([]trace.Event{}, ts.events...), tr.Events...)
		ts.events = nil
	}
	ts.mu.Unlock()

	if err := ts.Insert(tr); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("Failed to store trace: %v", err)
		}
	}
}

// Close releases the database handle.
func (ts *TraceStore) Close() error {
	return ts.db.Close()
}
