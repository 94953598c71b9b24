// Package trace records structured interaction traces: every conversation
// event of a turn plus a completed-trace summary suitable for training-data
// generation. Sinks are fire-and-forget: a failing sink never affects
// orchestration.
package trace

import "time"

// Event kinds the engine records.
const (
	KindMessage  = "message"
	KindThought  = "thought"
	KindToolCall = "tool_call"
)

// Event is one structured interaction event.
type Event struct {
	Kind string         `json:"kind"`
	At   time.Time      `json:"at"`
	Data map[string]any `json:"data,omitempty"`
}

// Trace is a completed interaction: the events that made it up, the final
// cleaned answer, and a reward slot downstream training code fills in later.
// Reward stays nil when nobody assigned one.
type Trace struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	RecordedAt     time.Time `json:"recorded_at"`
	Reward         *float64  `json:"reward"`
	FinalOutput    string    `json:"final_output,omitempty"`
	Events         []Event   `json:"events,omitempty"`
}

// Sink receives events as they happen and complete traces at turn end.
type Sink interface {
	LogEvent(ev Event)
	LogCompleteTrace(tr Trace)
}

// MessageEvent records a message entering the conversation.
func MessageEvent(role, content string) Event {
	return Event{
		Kind: KindMessage,
		At:   time.Now(),
		Data: map[string]any{"role": role, "content": content},
	}
}

// ThoughtEvent records an intercepted thought block.
func ThoughtEvent(content string) Event {
	return Event{
		Kind: KindThought,
		At:   time.Now(),
		Data: map[string]any{"content": content},
	}
}

// ToolCallEvent records a completed tool invocation.
func ToolCallEvent(name string, arguments map[string]any, result string) Event {
	return Event{
		Kind: KindToolCall,
		At:   time.Now(),
		Data: map[string]any{"tool_name": name, "arguments": arguments, "result": result},
	}
}
