package tools

import (
	"encoding/json"
	"fmt"
	"os"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// schemaFileEntry is one tool in an inline tools file. The shape matches the
// schema block rendered into prompts, so a tools file doubles as a readable
// record of what the model sees.
type schemaFileEntry struct {
	ToolName    string                    `json:"tool_name"`
	Description string                    `json:"description"`
	Arguments   map[string]map[string]any `json:"arguments"`
	Required    []string                  `json:"required"`
}

// LoadSchemaFile reads tool schemas from a JSON file: a list of
// {tool_name, description, arguments, required} entries. Used when a
// deployment declares its tools statically instead of discovering them from
// a tool server; the two sources are mutually exclusive (config validation
// rejects both).
func LoadSchemaFile(path string) ([]mcptypes.Tool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tools file: %w", err)
	}
	return ParseSchemaJSON(data)
}

// ParseSchemaJSON parses the tools-file format from raw JSON.
func ParseSchemaJSON(data []byte) ([]mcptypes.Tool, error) {
	var entries []schemaFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse tools file: %w", err)
	}

	schemas := make([]mcptypes.Tool, 0, len(entries))
	for i, entry := range entries {
		if entry.ToolName == "" {
			return nil, fmt.Errorf("tools file entry %d has no tool_name", i)
		}
		properties := make(map[string]any, len(entry.Arguments))
		for name, spec := range entry.Arguments {
			properties[name] = spec
		}
		schemas = append(schemas, mcptypes.Tool{
			Name:        entry.ToolName,
			Description: entry.Description,
			InputSchema: mcptypes.ToolInputSchema{
				Type:       "object",
				Properties: properties,
				Required:   entry.Required,
			},
		})
	}
	return schemas, nil
}
