package mcp

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"loom/config"
)

// Client is the tool-execution service the interaction loop talks to: it
// owns the configured servers, aggregates their tools, and routes calls.
// It satisfies both the engine's ToolRunner and ResourceLister interfaces.
type Client struct {
	manager    *ServerManager
	aggregator *ToolAggregator
}

// NewClient connects to every configured server. If any server fails, the
// ones already started are shut down and the failure is returned.
func NewClient(ctx context.Context, configs []ServerConfig) (*Client, error) {
	manager := NewServerManager()
	for _, cfg := range configs {
		if err := manager.StartServer(ctx, cfg); err != nil {
			if stopErr := manager.Shutdown(ctx); stopErr != nil && config.DebugLog != nil {
				config.DebugLog.Printf("[MCP] Cleanup after failed start: %v", stopErr)
			}
			return nil, err
		}
	}
	return &Client{manager: manager, aggregator: NewToolAggregator(manager)}, nil
}

// DiscoverTools returns every available tool, namespaced when more than one
// server is running. Called once at setup; the list is read-only afterwards.
func (c *Client) DiscoverTools(ctx context.Context) ([]mcptypes.Tool, error) {
	return c.aggregator.AllTools(ctx)
}

// ExecuteToolCall runs one validated call and returns the flattened result
// string. See ToolAggregator.ExecuteTool for the error contract.
func (c *Client) ExecuteToolCall(ctx context.Context, name string, arguments map[string]any) (string, error) {
	return c.aggregator.ExecuteTool(ctx, name, arguments)
}

// StartServer connects one more server at runtime.
func (c *Client) StartServer(ctx context.Context, cfg ServerConfig) error {
	return c.manager.StartServer(ctx, cfg)
}

// StopServer disconnects one server.
func (c *Client) StopServer(ctx context.Context, name string) error {
	return c.manager.StopServer(ctx, name)
}

// Shutdown stops every server in parallel.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.manager.Shutdown(ctx)
}
