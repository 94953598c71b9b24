package stream

import "fmt"

// TruncatedCallError means the stream ended while a tool-call block was
// still open. The call can never complete, so the turn fails rather than
// guessing at a payload.
type TruncatedCallError struct {
	Partial string // body bytes buffered before the stream ended
}

func (e *TruncatedCallError) Error() string {
	return fmt.Sprintf("stream ended inside a tool call block (%d bytes buffered)", len(e.Partial))
}
