package mcp

import (
	"os/exec"

	"github.com/mark3labs/mcp-go/client"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Transport names accepted in server configurations. An empty transport
// means stdio.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

// ServerConfig describes one tool server to connect to. Command, Args and
// Env apply to stdio servers; URL applies to the remote transports, where
// Env entries are sent as request headers.
type ServerConfig struct {
	Name      string
	Transport string
	Command   string
	Args      []string
	Env       map[string]string
	URL       string
}

func (c ServerConfig) remote() bool {
	return c.Transport == TransportSSE || c.Transport == TransportHTTP
}

// ServerProcess tracks one live server connection.
type ServerProcess struct {
	Name    string
	Process *exec.Cmd // nil for remote transports
	Client  *client.Client
	Tools   []mcptypes.Tool
	Running bool
	Remote  bool
	URL     string
}
