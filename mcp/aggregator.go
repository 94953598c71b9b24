package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// ToolAggregator presents every running server's tools as one flat set.
// With a single server, tool names pass through untouched; with several,
// names are namespaced "server.tool" so the model can address them without
// collisions.
type ToolAggregator struct {
	manager *ServerManager
}

func NewToolAggregator(manager *ServerManager) *ToolAggregator {
	return &ToolAggregator{manager: manager}
}

// AllTools returns the aggregated tool list in server registration order.
func (ta *ToolAggregator) AllTools(ctx context.Context) ([]mcptypes.Tool, error) {
	names := ta.manager.ServerNames()
	namespaced := len(names) > 1

	var all []mcptypes.Tool
	for _, server := range names {
		tools, err := ta.manager.Tools(server)
		if err != nil {
			continue
		}
		for _, tool := range tools {
			if namespaced {
				tool.Name = server + "." + tool.Name
			}
			all = append(all, tool)
		}
	}
	return all, nil
}

// ExecuteTool routes one call to its server and flattens the reply into the
// string the conversation carries. Tool-level failures come back as JSON-RPC
// error payloads with a nil error, so the model reads them and adjusts;
// transport-level failures return an error wrapping ErrServerUnavailable.
func (ta *ToolAggregator) ExecuteTool(ctx context.Context, toolName string, args map[string]any) (string, error) {
	server, name := ta.resolve(toolName)
	cli, err := ta.manager.Client(server)
	if err != nil {
		return "", err
	}

	result, err := cli.CallTool(ctx, mcptypes.CallToolRequest{
		Params: mcptypes.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	switch {
	case err != nil && ctx.Err() != nil:
		// Timeouts and cancellation belong to the caller, not the server.
		return "", err
	case err != nil && transportDown(err):
		return "", fmt.Errorf("%w: server %q: %v", ErrServerUnavailable, server, err)
	case err != nil:
		return errorPayload(err.Error()), nil
	}

	flattened := FlattenResult(result)
	if result.IsError {
		return errorPayload(flattened), nil
	}
	return flattened, nil
}

// resolve splits a possibly namespaced tool name into server and tool. An
// unqualified name addresses the sole running server; with several servers
// it falls back to the first whose cached list has the tool.
func (ta *ToolAggregator) resolve(toolName string) (string, string) {
	names := ta.manager.ServerNames()

	if idx := strings.Index(toolName, "."); idx != -1 && len(names) > 1 {
		prefix := toolName[:idx]
		for _, server := range names {
			if server == prefix {
				return prefix, toolName[idx+1:]
			}
		}
	}
	if len(names) == 1 {
		return names[0], toolName
	}
	for _, server := range names {
		tools, err := ta.manager.Tools(server)
		if err != nil {
			continue
		}
		for _, tool := range tools {
			if tool.Name == toolName {
				return server, toolName
			}
		}
	}
	// No match; the client lookup reports the server as unavailable.
	return "", toolName
}

// FlattenResult reduces a CallToolResult to the string form the
// conversation carries: text blocks concatenated in order, other block
// kinds serialized as JSON.
func FlattenResult(result *mcptypes.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	var out strings.Builder
	for _, block := range result.Content {
		if text, ok := mcptypes.AsTextContent(block); ok {
			out.WriteString(text.Text)
			continue
		}
		data, err := json.Marshal(block)
		if err != nil {
			fmt.Fprintf(&out, "%v", block)
			continue
		}
		out.Write(data)
	}
	return out.String()
}

// errorPayload renders a tool failure as the JSON-RPC error object carried
// in a tool result, code -32603 (internal error).
func errorPayload(message string) string {
	payload := map[string]any{
		"error": map[string]any{
			"code":    -32603,
			"message": message,
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(`{"error": {"code": -32603, "message": %q}}`, message)
	}
	return string(data)
}

// transportDown classifies client errors that mean the pipe or connection
// is gone rather than the tool having failed.
func transportDown(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) || errors.Is(err, net.ErrClosed)
}
