package storage

import (
	"testing"

	"loom/trace"
)

func TestTraceStoreInsertAndGet(t *testing.T) {
	store, err := NewTraceStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewTraceStore: %v", err)
	}
	defer store.Close()

	reward := 1.0
	tr := trace.Trace{
		ConversationID: "conv-1",
		Reward:         &reward,
		FinalOutput:    "the answer is 400",
		Events: []trace.Event{
			trace.MessageEvent("user", "what is 25*16?"),
			trace.ToolCallEvent("multiply", map[string]any{"a": float64(25), "b": float64(16)}, "400"),
		},
	}
	if err := store.Insert(tr); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	traces, err := store.ListByConversation("conv-1")
	if err != nil {
		t.Fatalf("ListByConversation: %v", err)
	}
	if len(traces) != 1 {
		t.Fatalf("expected 1 trace, got %d", len(traces))
	}

	got, err := store.Get(traces[0].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FinalOutput != "the answer is 400" {
		t.Errorf("FinalOutput = %q", got.FinalOutput)
	}
	if got.Reward == nil || *got.Reward != 1.0 {
		t.Errorf("Reward = %v", got.Reward)
	}
	if len(got.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got.Events))
	}
	if got.Events[1].Kind != trace.KindToolCall {
		t.Errorf("second event kind = %q", got.Events[1].Kind)
	}
	if got.RecordedAt.IsZero() {
		t.Error("RecordedAt not persisted")
	}
}

func TestTraceStoreNilReward(t *testing.T) {
	store, err := NewTraceStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewTraceStore: %v", err)
	}
	defer store.Close()

	if err := store.Insert(trace.Trace{ID: "t1", ConversationID: "c"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := store.Get("t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Reward != nil {
		t.Errorf("Reward should stay nil, got %v", *got.Reward)
	}
}

func TestTraceStoreAsSink(t *testing.T) {
	store, err := NewTraceStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewTraceStore: %v", err)
	}
	defer store.Close()

	var sink trace.Sink = store
	sink.LogEvent(trace.MessageEvent("user", "hello"))
	sink.LogEvent(trace.MessageEvent("assistant", "hi"))
	sink.LogCompleteTrace(trace.Trace{ConversationID: "conv-sink", FinalOutput: "hi"})

	traces, err := store.ListByConversation("conv-sink")
	if err != nil {
		t.Fatalf("ListByConversation: %v", err)
	}
	if len(traces) != 1 {
		t.Fatalf("expected 1 trace, got %d", len(traces))
	}
	if len(traces[0].Events) != 2 {
		t.Errorf("expected buffered events folded in, got %d", len(traces[0].Events))
	}

	// The buffer clears after a complete trace.
	sink.LogCompleteTrace(trace.Trace{ConversationID: "conv-sink-2"})
	traces, err = store.ListByConversation("conv-sink-2")
	if err != nil {
		t.Fatalf("ListByConversation: %v", err)
	}
	if len(traces) != 1 || len(traces[0].Events) != 0 {
		t.Errorf("expected a second trace with no events, got %+v", traces)
	}
}

func TestTraceStoreReopenKeepsData(t *testing.T) {
	dir := t.TempDir()

	store, err := NewTraceStore(dir)
	if err != nil {
		t.Fatalf("NewTraceStore: %v", err)
	}
	if err := store.Insert(trace.Trace{ID: "keep", ConversationID: "c"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewTraceStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.Get("keep"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}
