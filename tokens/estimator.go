package tokens

import "loom/model"

// Estimator estimates token counts for conversation content.
// The default implementation uses a characters-per-token heuristic.
// Provide a custom implementation for model-exact counting.
type Estimator interface {
	// EstimateText estimates the token cost of a bare string.
	EstimateText(text string) int

	// EstimateMessages estimates the token cost of a message list,
	// including per-message serialization overhead.
	EstimateMessages(messages []model.Message) int
}

// HeuristicEstimator approximates tokens with a characters-per-token ratio
// plus a fixed overhead per message (role, separators). Rough, but good
// enough to drive trimming thresholds; not suitable for billing.
type HeuristicEstimator struct {
	CharsPerToken   int // defaults to 4 if zero
	MessageOverhead int // defaults to 4 if zero
}

func (e *HeuristicEstimator) ratio() int {
	if e.CharsPerToken <= 0 {
		return 4
	}
	return e.CharsPerToken
}

func (e *HeuristicEstimator) overhead() int {
	if e.MessageOverhead <= 0 {
		return 4
	}
	return e.MessageOverhead
}

func (e *HeuristicEstimator) EstimateText(text string) int {
	return len(text) / e.ratio()
}

func (e *HeuristicEstimator) EstimateMessages(messages []model.Message) int {
	total := 0
	for _, m := range messages {
		total += e.overhead()
		total += e.EstimateText(m.Content)
	}
	return total
}
