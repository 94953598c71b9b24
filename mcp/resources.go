package mcp

import (
	"context"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"loom/config"
)

// ListResources aggregates resource descriptors across every running
// server. Servers that fail to answer, or do not implement resources, are
// skipped: resources enrich the first prompt but are never load-bearing.
func (c *Client) ListResources(ctx context.Context) ([]mcptypes.Resource, error) {
	var all []mcptypes.Resource
	for _, server := range c.manager.ServerNames() {
		cli, err := c.manager.Client(server)
		if err != nil {
			continue
		}
		result, err := cli.ListResources(ctx, mcptypes.ListResourcesRequest{})
		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[MCP] ListResources failed for '%s': %v", server, err)
			}
			continue
		}
		all = append(all, result.Resources...)
	}
	return all, nil
}

// ReadResource fetches one resource's contents by URI, trying servers in
// registration order until one answers.
func (c *Client) ReadResource(ctx context.Context, uri string) ([]mcptypes.ResourceContents, error) {
	var lastErr error
	for _, server := range c.manager.ServerNames() {
		cli, err := c.manager.Client(server)
		if err != nil {
			lastErr = err
			continue
		}
		result, err := cli.ReadResource(ctx, mcptypes.ReadResourceRequest{
			Params: mcptypes.ReadResourceParams{URI: uri},
		})
		if err != nil {
			lastErr = err
			continue
		}
		return result.Contents, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("failed to read resource %s: %w", uri, lastErr)
	}
	return nil, fmt.Errorf("no server provides resource %s", uri)
}
