package model

import "testing"

func TestCloneMessagesIsDeep(t *testing.T) {
	original := []Message{
		NewMessage(RoleSystem, "instructions"),
		{Role: RoleUser, Content: "hello", Metadata: map[string]string{"source": "test"}},
	}

	cloned := CloneMessages(original)

	if len(cloned) != len(original) {
		t.Fatalf("expected %d messages, got %d", len(original), len(cloned))
	}

	cloned[1].Content = "changed"
	cloned[1].Metadata["source"] = "mutated"

	if original[1].Content != "hello" {
		t.Errorf("clone mutation leaked into original content: %q", original[1].Content)
	}
	if original[1].Metadata["source"] != "test" {
		t.Errorf("clone mutation leaked into original metadata: %q", original[1].Metadata["source"])
	}
}

func TestCloneMessagesNil(t *testing.T) {
	if got := CloneMessages(nil); got != nil {
		t.Errorf("expected nil for nil input, got %v", got)
	}
}

func TestCloneToolCallResultsIsDeep(t *testing.T) {
	original := []ToolCallResult{
		{
			Name:      "multiply",
			Arguments: map[string]any{"a": float64(25), "b": float64(16), "opts": map[string]any{"round": true}},
			Result:    "400",
		},
	}

	cloned := CloneToolCallResults(original)
	cloned[0].Arguments["a"] = float64(99)
	cloned[0].Arguments["opts"].(map[string]any)["round"] = false

	if original[0].Arguments["a"] != float64(25) {
		t.Errorf("top-level argument mutated: %v", original[0].Arguments["a"])
	}
	if original[0].Arguments["opts"].(map[string]any)["round"] != true {
		t.Errorf("nested argument mutated: %v", original[0].Arguments["opts"])
	}
}

func TestSnapshotClone(t *testing.T) {
	snap := Snapshot{
		Messages: []Message{
			NewMessage(RoleSystem, "sys"),
			NewMessage(RoleUser, "hi"),
		},
		LastToolCalls: []ToolCallResult{
			{Name: "divide", Arguments: map[string]any{"a": float64(8), "b": float64(2)}, Result: "4"},
		},
	}

	cloned := snap.Clone()
	cloned.Messages[0].Content = "mutated"
	cloned.LastToolCalls[0].Result = "mutated"

	if snap.Messages[0].Content != "sys" {
		t.Errorf("message mutated through clone: %q", snap.Messages[0].Content)
	}
	if snap.LastToolCalls[0].Result != "4" {
		t.Errorf("tool call mutated through clone: %q", snap.LastToolCalls[0].Result)
	}
}
