package state

import (
	"reflect"
	"strings"
	"testing"

	"loom/model"
)

func TestAppendOperations(t *testing.T) {
	m := NewManager()
	m.AppendMessage(model.NewMessage(model.RoleSystem, "instructions"))
	m.AppendAssistantChunk("calling a tool")
	m.AppendToolResult("multiply", map[string]any{"a": float64(25), "b": float64(16)}, "400")
	m.AppendAssistantChunk("The answer is 400.")
	m.AppendUserMessage("thanks, and 3*3?")

	msgs := m.Messages()
	wantRoles := []string{
		model.RoleSystem,
		model.RoleAssistant,
		model.RoleTool,
		model.RoleAssistant,
		model.RoleUser,
	}
	if len(msgs) != len(wantRoles) {
		t.Fatalf("expected %d messages, got %d", len(wantRoles), len(msgs))
	}
	for i, role := range wantRoles {
		if msgs[i].Role != role {
			t.Errorf("message %d: expected role %q, got %q", i, role, msgs[i].Role)
		}
	}

	if msgs[2].Content != "<mcp_tool_result>\n400\n</mcp_tool_result>" {
		t.Errorf("tool result not wrapped: %q", msgs[2].Content)
	}

	calls := m.LastToolCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 recorded call, got %d", len(calls))
	}
	if calls[0].Name != "multiply" || calls[0].Result != "400" {
		t.Errorf("unexpected call record: %+v", calls[0])
	}
}

func TestAssistantChunksCoalesce(t *testing.T) {
	m := NewManager()
	m.AppendAssistantChunk("first ")
	m.AppendAssistantChunk("second")
	if m.MessageCount() != 1 {
		t.Fatalf("consecutive chunks should coalesce, got %d messages", m.MessageCount())
	}
	if got := m.Messages()[0].Content; got != "first second" {
		t.Errorf("unexpected coalesced content %q", got)
	}

	m.AppendUserMessage("next question")
	m.AppendAssistantChunk("third")
	if m.MessageCount() != 3 {
		t.Fatalf("chunk after user message should start a new message, got %d", m.MessageCount())
	}
}

func TestSnapshotResumeRoundTrip(t *testing.T) {
	m := NewManager()
	m.AppendMessage(model.NewMessage(model.RoleSystem, "instructions"))
	m.AppendAssistantChunk("working on it")
	m.AppendToolResult("divide", map[string]any{"a": float64(8), "b": float64(2)}, "4")
	m.BeginTurn()

	snap := m.Snapshot()

	// Diverge, then restore.
	m.AppendUserMessage("something else entirely")
	m.AppendAssistantChunk("a different reply")
	m.ClearToolCalls()
	m.Resume(snap)

	if !reflect.DeepEqual(m.Messages(), snap.Messages) {
		t.Errorf("messages did not round-trip:\n got %+v\nwant %+v", m.Messages(), snap.Messages)
	}
	if !reflect.DeepEqual(m.LastToolCalls(), snap.LastToolCalls) {
		t.Errorf("tool calls did not round-trip:\n got %+v\nwant %+v", m.LastToolCalls(), snap.LastToolCalls)
	}
	if m.TurnCount() != 0 {
		t.Errorf("turn count should reset on resume, got %d", m.TurnCount())
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	m := NewManager()
	m.AppendMessage(model.Message{
		Role:     model.RoleUser,
		Content:  "original",
		Metadata: map[string]string{"key": "value"},
	})
	m.AppendToolResult("echo", map[string]any{"text": "hi"}, "hi")

	snap := m.Snapshot()
	snap.Messages[0].Content = "mutated"
	snap.Messages[0].Metadata["key"] = "mutated"
	snap.LastToolCalls[0].Arguments["text"] = "mutated"

	msgs := m.Messages()
	if msgs[0].Content != "original" || msgs[0].Metadata["key"] != "value" {
		t.Error("mutating a snapshot leaked into the manager's messages")
	}
	if m.LastToolCalls()[0].Arguments["text"] != "hi" {
		t.Error("mutating a snapshot leaked into the manager's tool calls")
	}
}

func TestResumeReplacesNotMerges(t *testing.T) {
	donor := NewManager()
	donor.AppendMessage(model.NewMessage(model.RoleSystem, "instructions"))
	snap := donor.Snapshot()

	m := NewManager()
	m.AppendMessage(model.NewMessage(model.RoleSystem, "other instructions"))
	m.AppendUserMessage("one")
	m.AppendAssistantChunk("two")
	m.Resume(snap)

	if m.MessageCount() != 1 {
		t.Fatalf("resume should replace the transcript, got %d messages", m.MessageCount())
	}
	if m.Messages()[0].Content != "instructions" {
		t.Errorf("unexpected transcript after resume: %q", m.Messages()[0].Content)
	}

	// The restored state must not alias the snapshot.
	m.AppendUserMessage("post-resume")
	if len(snap.Messages) != 1 {
		t.Error("appending after resume mutated the snapshot")
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	m := NewManager()
	m.AppendUserMessage("one")
	m.AppendUserMessage("two")

	msgs := m.Messages()
	msgs[0], msgs[1] = msgs[1], msgs[0]

	if m.Messages()[0].Content != "one" {
		t.Error("reordering the returned slice leaked into the manager")
	}
}

func TestSetMessagesAppliesTrim(t *testing.T) {
	m := NewManager()
	m.AppendMessage(model.NewMessage(model.RoleSystem, "instructions"))
	m.AppendUserMessage("middle")
	m.AppendAssistantChunk("latest")

	trimmed := m.Messages()
	copy(trimmed[1:], trimmed[2:])
	trimmed = trimmed[:len(trimmed)-1]
	m.SetMessages(trimmed)

	msgs := m.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages after trim, got %d", len(msgs))
	}
	if msgs[0].Role != model.RoleSystem || msgs[1].Content != "latest" {
		t.Errorf("trim removed the wrong message: %+v", msgs)
	}
}

func TestClearToolCalls(t *testing.T) {
	m := NewManager()
	m.AppendToolResult("echo", nil, "hi")
	m.ClearToolCalls()
	if len(m.LastToolCalls()) != 0 {
		t.Error("tool calls survived ClearToolCalls")
	}
	if m.MessageCount() != 1 {
		t.Error("ClearToolCalls must not touch the transcript")
	}
}

func TestBeginTurn(t *testing.T) {
	m := NewManager()
	if got := m.BeginTurn(); got != 1 {
		t.Errorf("first turn should be 1, got %d", got)
	}
	if got := m.BeginTurn(); got != 2 {
		t.Errorf("second turn should be 2, got %d", got)
	}
}

func TestManagerIDs(t *testing.T) {
	a, b := NewManager(), NewManager()
	if a.ID() == "" || strings.TrimSpace(a.ID()) == "" {
		t.Error("manager ID is empty")
	}
	if a.ID() == b.ID() {
		t.Error("two managers share an ID")
	}

	id := a.ID()
	a.Resume(b.Snapshot())
	if a.ID() != id {
		t.Error("resume changed the manager's ID")
	}
}
