package model

// Snapshot is the serializable projection of a conversation: ordered
// messages plus the most recent turn's tool-call records. No other fields
// are load-bearing; runtime counters are deliberately excluded so resuming
// an old snapshot never inherits stale bookkeeping.
type Snapshot struct {
	Messages      []Message        `json:"messages"`
	LastToolCalls []ToolCallResult `json:"last_tool_calls"`
}

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Messages:      CloneMessages(s.Messages),
		LastToolCalls: CloneToolCallResults(s.LastToolCalls),
	}
}
