package model

import "encoding/json"

// ToolCallRequest is a tool-call block captured from the model stream.
// Name and Arguments hold the best-effort parse of Raw; when Raw is not
// valid JSON (or names no tool) they are left zero and the validator decides
// how to report it. Start and End are byte offsets of the block within the
// intercepted stream, including the delimiters.
type ToolCallRequest struct {
	Name      string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Raw       string         `json:"-"`
	Start     int            `json:"-"`
	End       int            `json:"-"`
}

// ToolCallResult records one completed tool invocation: what was called,
// with which arguments, and the textual result (tool output or an
// "ERROR: ..." payload the model can react to).
type ToolCallResult struct {
	Name      string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Result    string         `json:"result"`
}

// CloneToolCallResults deep-copies a result slice, including argument maps.
func CloneToolCallResults(calls []ToolCallResult) []ToolCallResult {
	if calls == nil {
		return nil
	}
	out := make([]ToolCallResult, len(calls))
	for i, call := range calls {
		out[i] = call
		out[i].Arguments = cloneArguments(call.Arguments)
	}
	return out
}

func cloneArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	// Arguments originate from JSON, so a marshal round-trip is a faithful
	// deep copy for every value shape they can contain.
	data, err := json.Marshal(args)
	if err != nil {
		out := make(map[string]any, len(args))
		for k, v := range args {
			out[k] = v
		}
		return out
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		out = make(map[string]any, len(args))
		for k, v := range args {
			out[k] = v
		}
	}
	return out
}
