package prompt

import (
	"encoding/json"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"loom/model"
)

// AssemblyError means a tool schema was too broken to render into a prompt.
// It is raised before any model call is made.
type AssemblyError struct {
	Index  int
	Detail string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("cannot assemble prompt: schema %d: %s", e.Index, e.Detail)
}

// toolEntry is the shape each schema takes inside the available-tools block.
// It matches the tools-file format, so what the model sees and what a
// deployment declares stay in one shape.
type toolEntry struct {
	ToolName    string         `json:"tool_name"`
	Description string         `json:"description"`
	Arguments   map[string]any `json:"arguments"`
	Required    []string       `json:"required,omitempty"`
}

type resourceEntry struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
}

// AvailableToolsBlock renders schemas as the delimited JSON block embedded
// in the system prompt. Entry order follows schema order; map keys are
// sorted by the JSON encoder, so output is deterministic for equal input.
func AvailableToolsBlock(schemas []mcptypes.Tool) (string, error) {
	entries := make([]toolEntry, 0, len(schemas))
	for i, schema := range schemas {
		if schema.Name == "" {
			return "", &AssemblyError{Index: i, Detail: "missing tool name"}
		}
		arguments := make(map[string]any, len(schema.InputSchema.Properties))
		for name, spec := range schema.InputSchema.Properties {
			arguments[name] = spec
		}
		entries = append(entries, toolEntry{
			ToolName:    schema.Name,
			Description: schema.Description,
			Arguments:   arguments,
			Required:    schema.InputSchema.Required,
		})
	}

	payload, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", &AssemblyError{Detail: err.Error()}
	}
	return model.AvailableToolsOpenTag + "\n" + string(payload) + "\n" + model.AvailableToolsCloseTag, nil
}

// AvailableResourcesBlock renders resource descriptors as the delimited
// JSON block embedded in the system prompt.
func AvailableResourcesBlock(resources []mcptypes.Resource) (string, error) {
	entries := make([]resourceEntry, 0, len(resources))
	for _, res := range resources {
		entries = append(entries, resourceEntry{
			URI:         res.URI,
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MIMEType,
		})
	}

	payload, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", &AssemblyError{Detail: err.Error()}
	}
	return model.AvailableResourcesOpenTag + "\n" + string(payload) + "\n" + model.AvailableResourcesCloseTag, nil
}
