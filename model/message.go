package model

import "time"

// Message roles, in the order they may appear in a conversation.
// A system message, when present, is always first.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents one entry in the conversation history.
type Message struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// CloneMessages deep-copies a message slice, including metadata maps.
// Snapshot and resume both rely on this so that the caller and the
// conversation never share mutable state.
func CloneMessages(messages []Message) []Message {
	if messages == nil {
		return nil
	}
	out := make([]Message, len(messages))
	for i, msg := range messages {
		out[i] = msg
		if msg.Metadata != nil {
			meta := make(map[string]string, len(msg.Metadata))
			for k, v := range msg.Metadata {
				meta[k] = v
			}
			out[i].Metadata = meta
		}
	}
	return out
}
