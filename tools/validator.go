package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/sahilm/fuzzy"

	"loom/model"
)

// Kind classifies a validation failure.
type Kind int

const (
	// MalformedPayload means the captured block was not valid structured
	// data, or named no tool at all.
	MalformedPayload Kind = iota + 1

	// UnknownTool means the named tool is not in the schema set.
	UnknownTool

	// SchemaViolation means a required argument is missing or an argument
	// does not match its declared type.
	SchemaViolation
)

func (k Kind) String() string {
	switch k {
	case MalformedPayload:
		return "malformed payload"
	case UnknownTool:
		return "unknown tool"
	case SchemaViolation:
		return "schema violation"
	default:
		return "validation error"
	}
}

// ValidationError reports why a tool call was rejected. These are recovered
// locally by the engine: ResultPayload renders the string injected back into
// the conversation so the model can correct itself.
type ValidationError struct {
	Kind       Kind
	Tool       string
	Field      string
	Detail     string
	Suggestion string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case MalformedPayload:
		return fmt.Sprintf("malformed tool call payload: %s", e.Detail)
	case UnknownTool:
		if e.Suggestion != "" {
			return fmt.Sprintf("unknown tool %q (did you mean %q?)", e.Tool, e.Suggestion)
		}
		return fmt.Sprintf("unknown tool %q", e.Tool)
	case SchemaViolation:
		return fmt.Sprintf("tool %q argument %q: %s", e.Tool, e.Field, e.Detail)
	default:
		return e.Detail
	}
}

// ResultPayload renders the error as the tool-result text fed back to the
// model.
func (e *ValidationError) ResultPayload() string {
	return "ERROR: " + e.Error()
}

// ValidatedCall is a tool call that passed validation. Arguments include any
// extra entries the model supplied beyond the schema; unknown arguments pass
// through unchanged.
type ValidatedCall struct {
	Name      string
	Arguments map[string]any
}

// Validator checks captured tool calls against a fixed schema set. Build it
// once per conversation; validation itself is pure and has no side effects.
type Validator struct {
	schemas map[string]mcptypes.Tool
	names   []string
}

// NewValidator indexes the given schemas by tool name. Later duplicates of a
// name override earlier ones.
func NewValidator(schemas []mcptypes.Tool) *Validator {
	v := &Validator{
		schemas: make(map[string]mcptypes.Tool, len(schemas)),
		names:   make([]string, 0, len(schemas)),
	}
	for _, schema := range schemas {
		if _, seen := v.schemas[schema.Name]; !seen {
			v.names = append(v.names, schema.Name)
		}
		v.schemas[schema.Name] = schema
	}
	return v
}

// Names returns the known tool names in registration order.
func (v *Validator) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Validate runs the ordered checks: payload shape, tool existence, then
// required arguments and argument types. The returned error is always a
// *ValidationError.
func (v *Validator) Validate(req model.ToolCallRequest) (ValidatedCall, error) {
	name, args := req.Name, req.Arguments

	if name == "" {
		if req.Raw != "" {
			if _, _, err := ParsePayload(req.Raw); err != nil {
				return ValidatedCall{}, &ValidationError{Kind: MalformedPayload, Detail: err.Error()}
			}
		}
		return ValidatedCall{}, &ValidationError{Kind: MalformedPayload, Detail: "payload names no tool"}
	}

	schema, ok := v.schemas[name]
	if !ok {
		return ValidatedCall{}, &ValidationError{
			Kind:       UnknownTool,
			Tool:       name,
			Suggestion: v.suggest(name),
		}
	}

	if args == nil {
		args = map[string]any{}
	}

	for _, field := range schema.InputSchema.Required {
		if _, present := args[field]; !present {
			return ValidatedCall{}, &ValidationError{
				Kind:   SchemaViolation,
				Tool:   name,
				Field:  field,
				Detail: "missing required argument",
			}
		}
	}

	for field, value := range args {
		prop, declared := schema.InputSchema.Properties[field].(map[string]any)
		if !declared {
			continue // unknown extras pass through for forward compatibility
		}
		wantType, _ := prop["type"].(string)
		if wantType == "" {
			continue
		}
		if !typeCompatible(wantType, value) {
			return ValidatedCall{}, &ValidationError{
				Kind:   SchemaViolation,
				Tool:   name,
				Field:  field,
				Detail: fmt.Sprintf("expected %s, got %s", wantType, describeValue(value)),
			}
		}
	}

	return ValidatedCall{Name: name, Arguments: args}, nil
}

// suggest returns the closest known tool name, or "" when nothing ranks.
func (v *Validator) suggest(name string) string {
	matches := fuzzy.Find(name, v.names)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

// ParsePayload parses a captured tool-call payload as
// {"tool_name": ..., "arguments": {...}}. Models sometimes wrap the JSON in
// prose, so on failure the parse retries against the outermost brace pair.
// Arguments are never nil on success; a payload without an arguments field
// yields an empty map.
func ParsePayload(raw string) (string, map[string]any, error) {
	var payload struct {
		ToolName  string         `json:"tool_name"`
		Arguments map[string]any `json:"arguments"`
	}

	trimmed := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		start := strings.Index(trimmed, "{")
		end := strings.LastIndex(trimmed, "}")
		if start == -1 || end <= start {
			return "", nil, fmt.Errorf("invalid tool call payload: %w", err)
		}
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
			return "", nil, fmt.Errorf("invalid tool call payload: %w", err)
		}
	}

	if payload.Arguments == nil {
		payload.Arguments = map[string]any{}
	}
	return payload.ToolName, payload.Arguments, nil
}

func typeCompatible(declared string, value any) bool {
	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "number":
		switch value.(type) {
		case float64, float32, int, int64, json.Number:
			return true
		}
		return false
	case "integer":
		switch n := value.(type) {
		case int, int64:
			return true
		case float64:
			return n == math.Trunc(n)
		case json.Number:
			_, err := n.Int64()
			return err == nil
		}
		return false
	default:
		// Unrecognized declared types are not enforced.
		return true
	}
}

func describeValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		if v == math.Trunc(v) {
			return "integer"
		}
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", value)
	}
}
