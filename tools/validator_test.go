package tools

import (
	"errors"
	"strings"
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"loom/model"
)

func calculatorSchemas() []mcptypes.Tool {
	return []mcptypes.Tool{
		{
			Name:        "multiply",
			Description: "Multiply two integers",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"a": map[string]any{"type": "integer", "description": "First operand"},
					"b": map[string]any{"type": "integer", "description": "Second operand"},
				},
				Required: []string{"a", "b"},
			},
		},
		{
			Name:        "divide",
			Description: "Divide a by b",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"a": map[string]any{"type": "number"},
					"b": map[string]any{"type": "number"},
				},
				Required: []string{"a", "b"},
			},
		},
		{
			Name:        "echo",
			Description: "Echo a string back",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"text": map[string]any{"type": "string"},
				},
				Required: []string{"text"},
			},
		},
	}
}

func TestValidate(t *testing.T) {
	// calculatorSchemas plus one schema with no requirements for the
	// nil-arguments case.
	v := NewValidator(append(calculatorSchemas(), mcptypes.Tool{
		Name:        "noargs",
		InputSchema: mcptypes.ToolInputSchema{Type: "object"},
	}))

	tests := []struct {
		name     string
		req      model.ToolCallRequest
		wantKind Kind
		wantErr  string
		validate func(t *testing.T, call ValidatedCall)
	}{
		{
			name: "valid call",
			req: model.ToolCallRequest{
				Name:      "multiply",
				Arguments: map[string]any{"a": float64(25), "b": float64(16)},
			},
			validate: func(t *testing.T, call ValidatedCall) {
				if call.Name != "multiply" {
					t.Errorf("expected name multiply, got %q", call.Name)
				}
				if call.Arguments["a"] != float64(25) || call.Arguments["b"] != float64(16) {
					t.Errorf("arguments altered: %v", call.Arguments)
				}
			},
		},
		{
			name: "extra unknown argument passes through",
			req: model.ToolCallRequest{
				Name:      "multiply",
				Arguments: map[string]any{"a": float64(2), "b": float64(3), "precision": "high"},
			},
			validate: func(t *testing.T, call ValidatedCall) {
				if call.Arguments["precision"] != "high" {
					t.Errorf("extra argument not preserved: %v", call.Arguments)
				}
			},
		},
		{
			name:     "malformed payload",
			req:      model.ToolCallRequest{Raw: "this is not json at all"},
			wantKind: MalformedPayload,
		},
		{
			name:     "payload without tool_name",
			req:      model.ToolCallRequest{Raw: `{"arguments": {"a": 1}}`, Arguments: map[string]any{"a": float64(1)}},
			wantKind: MalformedPayload,
		},
		{
			name:     "unknown tool suggests nearest",
			req:      model.ToolCallRequest{Name: "mult", Arguments: map[string]any{}},
			wantKind: UnknownTool,
			wantErr:  "multiply",
		},
		{
			name:     "missing required argument",
			req:      model.ToolCallRequest{Name: "divide", Arguments: map[string]any{"a": float64(8)}},
			wantKind: SchemaViolation,
			wantErr:  `"b"`,
		},
		{
			name:     "wrong argument type",
			req:      model.ToolCallRequest{Name: "echo", Arguments: map[string]any{"text": float64(42)}},
			wantKind: SchemaViolation,
			wantErr:  "expected string",
		},
		{
			name:     "fractional value rejected for integer",
			req:      model.ToolCallRequest{Name: "multiply", Arguments: map[string]any{"a": 2.5, "b": float64(3)}},
			wantKind: SchemaViolation,
		},
		{
			name: "whole float accepted for integer",
			req: model.ToolCallRequest{
				Name:      "multiply",
				Arguments: map[string]any{"a": float64(25), "b": float64(16)},
			},
		},
		{
			name: "nil arguments with no required fields",
			req:  model.ToolCallRequest{Name: "noargs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, err := v.Validate(tt.req)

			if tt.wantKind == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if tt.validate != nil {
					tt.validate(t, call)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Kind != tt.wantKind {
				t.Errorf("expected kind %v, got %v", tt.wantKind, verr.Kind)
			}
			if tt.wantErr != "" && !strings.Contains(verr.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, verr.Error())
			}
		})
	}
}

func TestSchemaViolationNamesField(t *testing.T) {
	v := NewValidator(calculatorSchemas())

	_, err := v.Validate(model.ToolCallRequest{
		Name:      "divide",
		Arguments: map[string]any{"a": float64(10)},
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Field != "b" {
		t.Errorf("expected field b, got %q", verr.Field)
	}
	if !strings.HasPrefix(verr.ResultPayload(), "ERROR: ") {
		t.Errorf("result payload missing ERROR prefix: %q", verr.ResultPayload())
	}
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantName string
		wantArgs map[string]any
		wantErr  bool
	}{
		{
			name:     "plain payload",
			raw:      `{"tool_name": "multiply", "arguments": {"a": 25, "b": 16}}`,
			wantName: "multiply",
			wantArgs: map[string]any{"a": float64(25), "b": float64(16)},
		},
		{
			name:     "payload wrapped in prose",
			raw:      "Sure, calling the tool now: {\"tool_name\": \"echo\", \"arguments\": {\"text\": \"hi\"}} hope that helps",
			wantName: "echo",
			wantArgs: map[string]any{"text": "hi"},
		},
		{
			name:     "missing arguments defaults to empty map",
			raw:      `{"tool_name": "noargs"}`,
			wantName: "noargs",
			wantArgs: map[string]any{},
		},
		{
			name:    "no braces at all",
			raw:     "just some text",
			wantErr: true,
		},
		{
			name:    "braces but invalid json",
			raw:     "{tool_name: multiply}",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, err := ParsePayload(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got name=%q args=%v", name, args)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != tt.wantName {
				t.Errorf("expected name %q, got %q", tt.wantName, name)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("expected %d arguments, got %v", len(tt.wantArgs), args)
			}
			for k, want := range tt.wantArgs {
				if args[k] != want {
					t.Errorf("argument %q: expected %v, got %v", k, want, args[k])
				}
			}
		})
	}
}

func TestValidationIsPure(t *testing.T) {
	v := NewValidator(calculatorSchemas())
	req := model.ToolCallRequest{
		Name:      "multiply",
		Arguments: map[string]any{"a": float64(1), "b": float64(2)},
	}

	first, err := v.Validate(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := v.Validate(req)
	if err != nil {
		t.Fatalf("unexpected error on revalidation: %v", err)
	}
	if first.Name != second.Name || len(first.Arguments) != len(second.Arguments) {
		t.Errorf("validation not stable: %v vs %v", first, second)
	}
}
