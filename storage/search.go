package storage

import (
	"strings"
	"time"

	"loom/model"
)

// TranscriptMatch locates one matching message inside a stored snapshot.
type TranscriptMatch struct {
	SnapshotID   string
	SnapshotName string
	MessageIndex int
	Role         string
	Content      string
	Preview      string
	Timestamp    time.Time
}

// TranscriptSearch runs case-insensitive substring search over every stored
// snapshot's messages.
type TranscriptSearch struct {
	store *SnapshotStore
}

// NewTranscriptSearch creates a search over a snapshot store.
func NewTranscriptSearch(store *SnapshotStore) *TranscriptSearch {
	return &TranscriptSearch{store: store}
}

// Search returns every message containing the query, across all snapshots.
// System messages are skipped: they are assembled prompt scaffolding, not
// conversation content anyone searches for.
func (ts *TranscriptSearch) Search(query string) ([]TranscriptMatch, error) {
	if query == "" {
		return []TranscriptMatch{}, nil
	}

	listing, err := ts.store.List()
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var matches []TranscriptMatch

	for _, meta := range listing {
		snap, err := ts.store.Load(meta.ID)
		if err != nil {
			continue
		}

		for i, msg := range snap.Snapshot.Messages {
			if msg.Role == model.RoleSystem {
				continue
			}
			if !strings.Contains(strings.ToLower(msg.Content), queryLower) {
				continue
			}

			preview := msg.Content
			if len(preview) > 100 {
				preview = preview[:100] + "..."
			}

			matches = append(matches, TranscriptMatch{
				SnapshotID:   snap.ID,
				SnapshotName: snap.Name,
				MessageIndex: i,
				Role:         msg.Role,
				Content:      msg.Content,
				Preview:      preview,
				Timestamp:    msg.Timestamp,
			})
		}
	}

	return matches, nil
}
