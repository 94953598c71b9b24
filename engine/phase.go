package engine

// Phase is where the turn loop currently is. A turn moves
// AwaitingInput → Prompting → Streaming, then cycles
// Streaming → InvokingTool → Injecting → Streaming for every tool call,
// and lands back at AwaitingInput when the final answer is out.
type Phase int

const (
	PhaseAwaitingInput Phase = iota
	PhasePrompting
	PhaseStreaming
	PhaseInvokingTool
	PhaseInjecting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingInput:
		return "awaiting-input"
	case PhasePrompting:
		return "prompting"
	case PhaseStreaming:
		return "streaming"
	case PhaseInvokingTool:
		return "invoking-tool"
	case PhaseInjecting:
		return "injecting"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}
