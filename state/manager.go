// Package state owns the conversation transcript for a single orchestration
// loop: the ordered message history, the record of tool calls made during the
// current turn, and snapshot/resume.
//
// A Manager is not safe for concurrent use. Exactly one engine loop mutates a
// given instance at a time; independent conversations get independent
// managers.
package state

import (
	"github.com/google/uuid"

	"loom/model"
)

// Manager holds one conversation's mutable state. The engine never touches
// the message slice directly; every mutation goes through a Manager method so
// that snapshots always observe a consistent transcript.
type Manager struct {
	id            string
	messages      []model.Message
	lastToolCalls []model.ToolCallResult
	turnCount     int
}

// NewManager returns an empty conversation with a fresh ID.
func NewManager() *Manager {
	return &Manager{id: uuid.New().String()}
}

// ID identifies the conversation, for traces and snapshot metadata. Resume
// keeps the manager's ID; the transcript changes identity, the slot does not.
func (m *Manager) ID() string {
	return m.id
}

// AppendMessage adds a prepared message verbatim. The assembled first-turn
// system prompt enters the transcript through here.
func (m *Manager) AppendMessage(msg model.Message) {
	m.messages = append(m.messages, msg)
}

// AppendUserMessage records raw user input as a user-role message.
func (m *Manager) AppendUserMessage(content string) {
	m.messages = append(m.messages, model.NewMessage(model.RoleUser, content))
}

// AppendAssistantChunk records a span of assistant output. Consecutive
// chunks coalesce into one assistant message; a chunk following any other
// role starts a new one.
func (m *Manager) AppendAssistantChunk(content string) {
	if n := len(m.messages); n > 0 && m.messages[n-1].Role == model.RoleAssistant {
		m.messages[n-1].Content += content
		return
	}
	m.messages = append(m.messages, model.NewMessage(model.RoleAssistant, content))
}

// AppendToolResult injects a tool invocation's outcome: the transcript gains
// a tool-role message wrapping the result in the protocol's result block, and
// the call is recorded for DetailedResponse and snapshots.
func (m *Manager) AppendToolResult(name string, arguments map[string]any, result string) {
	m.messages = append(m.messages, model.NewMessage(model.RoleTool, model.WrapToolResult(result)))
	m.lastToolCalls = append(m.lastToolCalls, model.ToolCallResult{
		Name:      name,
		Arguments: arguments,
		Result:    result,
	})
}

// AppendToolError injects an error payload as a tool-role message without
// recording a tool call: the model sees the error and can self-correct, but
// rejected or failed attempts never count as completed calls.
func (m *Manager) AppendToolError(payload string) {
	m.messages = append(m.messages, model.NewMessage(model.RoleTool, model.WrapToolResult(payload)))
}

// Messages returns a copy of the transcript slice. The message values are
// shared; callers that need an independent deep copy should use Snapshot.
func (m *Manager) Messages() []model.Message {
	out := make([]model.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// SetMessages replaces the transcript wholesale. The context trimmer's
// output is applied through here.
func (m *Manager) SetMessages(messages []model.Message) {
	m.messages = messages
}

// MessageCount reports transcript length. Zero means the next turn is the
// conversation's first and gets the assembled system prompt.
func (m *Manager) MessageCount() int {
	return len(m.messages)
}

// LastToolCalls returns the tool calls recorded since the last ClearToolCalls.
func (m *Manager) LastToolCalls() []model.ToolCallResult {
	return model.CloneToolCallResults(m.lastToolCalls)
}

// ClearToolCalls empties the per-turn tool-call record. The engine calls
// this at the top of every Process so the record only ever describes the
// most recent turn.
func (m *Manager) ClearToolCalls() {
	m.lastToolCalls = nil
}

// BeginTurn increments the turn counter and returns the new value. The
// counter is runtime bookkeeping only; it is not persisted and resets on
// Resume.
func (m *Manager) BeginTurn() int {
	m.turnCount++
	return m.turnCount
}

// TurnCount reports how many turns this manager has begun since creation or
// the last Resume.
func (m *Manager) TurnCount() int {
	return m.turnCount
}

// Snapshot returns a deep copy of the persistent state: messages and the
// last turn's tool calls. The turn counter is deliberately absent.
func (m *Manager) Snapshot() model.Snapshot {
	return model.Snapshot{
		Messages:      model.CloneMessages(m.messages),
		LastToolCalls: model.CloneToolCallResults(m.lastToolCalls),
	}
}

// Resume replaces the conversation with the snapshot's contents. It never
// merges: whatever transcript the manager held is gone afterwards. The turn
// counter starts over; whether the next turn is treated as a first turn
// still follows from MessageCount, so resuming a non-empty conversation
// continues it rather than re-prompting.
func (m *Manager) Resume(snap model.Snapshot) {
	m.messages = model.CloneMessages(snap.Messages)
	m.lastToolCalls = model.CloneToolCallResults(snap.LastToolCalls)
	m.turnCount = 0
}
