package tokens

import "loom/model"

// Trimmer enforces a maximum token budget over an ordered message history.
//
// While the estimate exceeds the budget and more than two messages remain,
// the second message (index 1) is removed. The first message (the system
// prompt) and the final message always survive, so trimming stops at two
// messages even if the result is still over budget. Trimming an
// already-trimmed or under-budget history is a no-op.
type Trimmer struct {
	MaxTokens int
	Estimator Estimator
}

// NewTrimmer builds a trimmer for the given budget. A nil estimator falls
// back to the heuristic default.
func NewTrimmer(maxTokens int, estimator Estimator) *Trimmer {
	if estimator == nil {
		estimator = &HeuristicEstimator{}
	}
	return &Trimmer{MaxTokens: maxTokens, Estimator: estimator}
}

// Trim removes messages in place (the backing array is reused) and returns
// the trimmed slice. Order of survivors is preserved.
func (t *Trimmer) Trim(messages []model.Message) []model.Message {
	for len(messages) > 2 && t.Estimator.EstimateMessages(messages) > t.MaxTokens {
		copy(messages[1:], messages[2:])
		messages = messages[:len(messages)-1]
	}
	return messages
}

// WouldTrim reports whether a call to Trim would remove anything.
func (t *Trimmer) WouldTrim(messages []model.Message) bool {
	return len(messages) > 2 && t.Estimator.EstimateMessages(messages) > t.MaxTokens
}
