package mcp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"loom/config"
)

// protocolVersion is the MCP revision pinned in the initialize handshake.
const protocolVersion = "2025-06-18"

// closeTimeout bounds how long a shutdown waits for a client to close
// cleanly before the local process is killed.
const closeTimeout = 1 * time.Second

// ServerManager owns the lifecycle of every configured tool server:
// connect, initialize, cache the tool list, and shut down. Safe for
// concurrent use.
type ServerManager struct {
	servers map[string]*ServerProcess
	order   []string // registration order, keeps discovery deterministic
	mu      sync.RWMutex
}

func NewServerManager() *ServerManager {
	return &ServerManager{servers: make(map[string]*ServerProcess)}
}

// StartServer connects to one server, runs the initialize handshake, and
// caches its tools. Stdio servers are spawned as child processes; SSE and
// streamable-HTTP servers are dialed at their URL.
func (sm *ServerManager) StartServer(ctx context.Context, cfg ServerConfig) error {
	sm.mu.Lock()
	if proc := sm.servers[cfg.Name]; proc != nil && proc.Running {
		sm.mu.Unlock()
		return fmt.Errorf("server %s already running", cfg.Name)
	}
	sm.mu.Unlock()

	var mcpClient *client.Client
	var cmd *exec.Cmd
	var err error
	switch {
	case cfg.remote():
		mcpClient, err = sm.connectRemote(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to server %s: %w", cfg.Name, err)
		}
	default:
		mcpClient, cmd, err = sm.startLocal(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to start server %s: %w", cfg.Name, err)
		}
	}

	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: protocolVersion,
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    "loom",
				Version: "1.0.0",
			},
		},
	}
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		return fmt.Errorf("failed to initialize server %s: %w", cfg.Name, err)
	}

	toolsResult, err := mcpClient.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list tools for %s: %w", cfg.Name, err)
	}

	sm.mu.Lock()
	if _, seen := sm.servers[cfg.Name]; !seen {
		sm.order = append(sm.order, cfg.Name)
	}
	sm.servers[cfg.Name] = &ServerProcess{
		Name:    cfg.Name,
		Process: cmd,
		Client:  mcpClient,
		Tools:   toolsResult.Tools,
		Running: true,
		Remote:  cfg.remote(),
		URL:     cfg.URL,
	}
	sm.mu.Unlock()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Server '%s' up (%d tools)", cfg.Name, len(toolsResult.Tools))
	}
	return nil
}

// StopServer closes one server's client and, for stdio servers whose client
// would not close in time, kills the process.
func (sm *ServerManager) StopServer(ctx context.Context, name string) error {
	sm.mu.Lock()
	proc, exists := sm.servers[name]
	if !exists {
		sm.mu.Unlock()
		return fmt.Errorf("server %s not found", name)
	}

	// Remove from the map immediately so no new calls route here.
	proc.Running = false
	delete(sm.servers, name)
	for i, n := range sm.order {
		if n == name {
			sm.order = append(sm.order[:i], sm.order[i+1:]...)
			break
		}
	}
	sm.mu.Unlock()

	clientClosed := false
	if proc.Client != nil {
		closeCtx, cancel := context.WithTimeout(ctx, closeTimeout)
		defer cancel()

		closeDone := make(chan error, 1)
		go func() {
			closeDone <- proc.Client.Close()
		}()

		select {
		case err := <-closeDone:
			clientClosed = err == nil
		case <-closeCtx.Done():
			if config.DebugLog != nil {
				config.DebugLog.Printf("[MCP] Close timed out for '%s', killing the process", name)
			}
		}
	}

	if !clientClosed && !proc.Remote && proc.Process != nil && proc.Process.Process != nil {
		if err := proc.Process.Process.Kill(); err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[MCP] Error killing process for '%s': %v", name, err)
			}
		}
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Server '%s' stopped", name)
	}
	return nil
}

// Client returns the live client for a server. Failing here means the
// transport is gone, not that a tool misbehaved, so the error wraps
// ErrServerUnavailable.
func (sm *ServerManager) Client(name string) (*client.Client, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	proc, exists := sm.servers[name]
	if !exists || !proc.Running {
		return nil, fmt.Errorf("%w: server %q not running", ErrServerUnavailable, name)
	}
	return proc.Client, nil
}

// Tools returns the cached tool list for a server.
func (sm *ServerManager) Tools(name string) ([]mcptypes.Tool, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	proc, exists := sm.servers[name]
	if !exists || !proc.Running {
		return nil, fmt.Errorf("%w: server %q not running", ErrServerUnavailable, name)
	}
	return proc.Tools, nil
}

// ServerNames returns running servers in registration order.
func (sm *ServerManager) ServerNames() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	names := make([]string, len(sm.order))
	copy(names, sm.order)
	return names
}

// RefreshTools re-fetches one server's tool list.
func (sm *ServerManager) RefreshTools(ctx context.Context, name string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	proc, exists := sm.servers[name]
	if !exists || !proc.Running {
		return fmt.Errorf("%w: server %q not running", ErrServerUnavailable, name)
	}

	toolsResult, err := proc.Client.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("failed to refresh tools: %w", err)
	}
	proc.Tools = toolsResult.Tools
	return nil
}

// Shutdown stops every server in parallel and collects the failures.
func (sm *ServerManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	names := make([]string, 0, len(sm.servers))
	for name := range sm.servers {
		names = append(names, name)
	}
	sm.mu.Unlock()

	var wg sync.WaitGroup
	errChan := make(chan error, len(names))
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if err := sm.StopServer(ctx, name); err != nil {
				errChan <- err
			}
		}(name)
	}
	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// startLocal spawns a stdio server. The command func captures the child
// process so a hung shutdown can still kill it.
func (sm *ServerManager) startLocal(ctx context.Context, cfg ServerConfig) (*client.Client, *exec.Cmd, error) {
	var captured *exec.Cmd
	cmdFunc := func(ctx context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
		cmd := exec.CommandContext(ctx, command, args...)
		cmd.Env = env
		captured = cmd
		return cmd, nil
	}

	mcpClient, err := client.NewStdioMCPClientWithOptions(
		cfg.Command,
		mergedEnv(cfg.Env),
		cfg.Args,
		transport.WithCommandFunc(cmdFunc),
	)
	if err != nil {
		return nil, nil, err
	}

	if captured != nil && captured.Process != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Started local server '%s' (PID %d)", cfg.Name, captured.Process.Pid)
	}
	return mcpClient, captured, nil
}

// connectRemote dials an SSE or streamable-HTTP server and starts its
// transport, which must happen before the initialize handshake.
func (sm *ServerManager) connectRemote(ctx context.Context, cfg ServerConfig) (*client.Client, error) {
	headers := make(map[string]string)
	for key, value := range cfg.Env {
		headers[key] = value
	}

	var mcpClient *client.Client
	var err error
	switch cfg.Transport {
	case TransportSSE:
		var opts []transport.ClientOption
		if len(headers) > 0 {
			opts = append(opts, transport.WithHeaders(headers))
		}
		mcpClient, err = client.NewSSEMCPClient(cfg.URL, opts...)
	case TransportHTTP:
		var opts []transport.StreamableHTTPCOption
		if len(headers) > 0 {
			opts = append(opts, transport.WithHTTPHeaders(headers))
		}
		mcpClient, err = client.NewStreamableHttpClient(cfg.URL, opts...)
	default:
		return nil, fmt.Errorf("unknown transport type: %s", cfg.Transport)
	}
	if err != nil {
		return nil, err
	}

	if err := mcpClient.GetTransport().Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start %s transport: %w", cfg.Transport, err)
	}
	return mcpClient, nil
}

// mergedEnv layers the server's variables over the current environment so
// child processes keep PATH and friends.
func mergedEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
