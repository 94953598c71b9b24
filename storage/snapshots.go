// Package storage persists conversation state: named snapshot files a
// conversation can resume from, substring search across stored transcripts,
// and a SQLite-backed store for interaction traces.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"loom/model"
)

// StoredSnapshot wraps a conversation snapshot with the bookkeeping a store
// needs: a stable ID for the filename, a human name, and timestamps.
type StoredSnapshot struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Model          string         `json:"model,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Snapshot       model.Snapshot `json:"snapshot"`
}

// SnapshotMetadata is a lightweight listing entry.
type SnapshotMetadata struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Model          string    `json:"model,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	MessageCount   int       `json:"message_count"`
}

// SnapshotStore persists snapshots as one JSON file each under
// <dataDir>/snapshots.
type SnapshotStore struct {
	snapshotsDir string
}

// NewSnapshotStore creates the snapshot directory if needed (0700 -
// user-only access) and returns a store over it.
func NewSnapshotStore(dataDir string) (*SnapshotStore, error) {
	snapshotsDir := filepath.Join(dataDir, "snapshots")

	if err := os.MkdirAll(snapshotsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create snapshots directory: %w", err)
	}

	return &SnapshotStore{snapshotsDir: snapshotsDir}, nil
}

// Save writes a snapshot to disk, assigning an ID and timestamps when they
// are missing. Saving an existing ID overwrites it in place.
func (s *SnapshotStore) Save(snap *StoredSnapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}

	snap.UpdatedAt = time.Now()
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = snap.UpdatedAt
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// Use 0600 permissions - snapshot files contain conversation history
	path := filepath.Join(s.snapshotsDir, snap.ID+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}

	return nil
}

// Load reads one snapshot by ID.
func (s *SnapshotStore) Load(id string) (*StoredSnapshot, error) {
	path := filepath.Join(s.snapshotsDir, id+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap StoredSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

// List returns metadata for all stored snapshots, newest first. Corrupted
// files are skipped rather than failing the whole listing.
func (s *SnapshotStore) List() ([]SnapshotMetadata, error) {
	entries, err := os.ReadDir(s.snapshotsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots directory: %w", err)
	}

	var snapshots []SnapshotMetadata

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.snapshotsDir, entry.Name()))
		if err != nil {
			continue // Skip corrupted files
		}

		var snap StoredSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			continue // Skip corrupted files
		}

		snapshots = append(snapshots, SnapshotMetadata{
			ID:             snap.ID,
			Name:           snap.Name,
			ConversationID: snap.ConversationID,
			Model:          snap.Model,
			CreatedAt:      snap.CreatedAt,
			UpdatedAt:      snap.UpdatedAt,
			MessageCount:   len(snap.Snapshot.Messages),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].UpdatedAt.After(snapshots[j].UpdatedAt)
	})

	return snapshots, nil
}

// Delete removes a snapshot from disk.
func (s *SnapshotStore) Delete(id string) error {
	path := filepath.Join(s.snapshotsDir, id+".json")
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete snapshot file: %w", err)
	}
	return nil
}
