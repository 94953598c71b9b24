package engine

import "fmt"

// ToolExecutionError is a tool invocation failure the conversation cannot
// recover from, such as the tool transport being unreachable. Recoverable
// failures (timeouts, tool-side errors) never surface as this type; they are
// injected into the conversation for the model to react to.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q execution failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// MaxIterationsError means a turn hit the tool-call iteration guard without
// producing a final answer. Conversation state up to that point is intact:
// every completed tool result is committed, and the conversation can be
// snapshotted or continued.
type MaxIterationsError struct {
	Limit int
}

func (e *MaxIterationsError) Error() string {
	return fmt.Sprintf("turn exceeded %d generation rounds without a final answer", e.Limit)
}
