// Package loom assembles a ready-to-use tool-call orchestrator from
// configuration: the model provider, the MCP tool servers, the tool schemas,
// trace sinks, snapshot persistence, and the engine that ties them together.
//
// The engine itself (package engine) depends only on narrow interfaces and
// can be wired by hand; this package is the batteries-included path:
//
//	cfg, err := config.Load()
//	// ...
//	orc, err := loom.New(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer orc.Close(context.Background())
//
//	answer, err := orc.Process(ctx, "What is 25*16?")
package loom

import (
	"context"
	"fmt"
	"os"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"loom/config"
	"loom/engine"
	"loom/mcp"
	"loom/model"
	"loom/provider"
	"loom/storage"
	"loom/tools"
	"loom/trace"
)

// Orchestrator is an assembled conversation stack. The engine surface
// (Process, ProcessDetailed, Snapshot, Resume) is exposed directly; the
// collaborators are exported for callers that need them.
type Orchestrator struct {
	Engine    *engine.Engine
	Provider  model.Provider
	Tools     []mcptypes.Tool
	Tracer    *trace.Logger
	Snapshots *storage.SnapshotStore

	mcpClient  *mcp.Client
	traceStore *storage.TraceStore
}

// New builds an orchestrator from a validated configuration. The context
// bounds setup work only (server connections, tool discovery); it is not
// retained.
func New(ctx context.Context, cfg *config.Config) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	config.InitDebugLog(dataDir)

	prov, err := provider.NewProvider(provider.Config{
		Type:    provider.MapProviderIDToType(cfg.Provider.Type),
		BaseURL: cfg.Provider.BaseURL,
		Model:   cfg.Provider.Model,
		APIKey:  resolveAPIKey(cfg, dataDir),
	})
	if err != nil {
		return nil, err
	}

	orc := &Orchestrator{Provider: prov}

	if len(cfg.Servers) > 0 {
		client, err := mcp.NewClient(ctx, serverConfigs(cfg.Servers))
		if err != nil {
			return nil, fmt.Errorf("failed to start MCP servers: %w", err)
		}
		orc.mcpClient = client
	}

	schemas, err := loadTools(ctx, cfg, orc.mcpClient)
	if err != nil {
		orc.shutdown(ctx)
		return nil, err
	}
	orc.Tools = schemas

	snapshotDir := dataDir
	if cfg.Engine.SnapshotDir != "" {
		snapshotDir = config.ExpandPath(cfg.Engine.SnapshotDir)
	}
	snapshots, err := storage.NewSnapshotStore(snapshotDir)
	if err != nil {
		orc.shutdown(ctx)
		return nil, err
	}
	orc.Snapshots = snapshots

	sink, err := orc.buildSinks(cfg, dataDir)
	if err != nil {
		orc.shutdown(ctx)
		return nil, err
	}

	engCfg := engine.Config{
		Provider:         prov,
		Sink:             sink,
		Tools:            schemas,
		MaxContextTokens: cfg.Engine.MaxContextTokens,
		MaxIterations:    cfg.Engine.MaxIterations,
		Sampler:          cfg.Sampler,
	}
	if cfg.Engine.ToolTimeoutSeconds > 0 {
		engCfg.ToolTimeout = time.Duration(cfg.Engine.ToolTimeoutSeconds) * time.Second
	}
	// A nil *mcp.Client must not become a non-nil interface value.
	if orc.mcpClient != nil {
		engCfg.Runner = orc.mcpClient
		engCfg.Resources = orc.mcpClient
	}

	eng, err := engine.New(engCfg)
	if err != nil {
		orc.shutdown(ctx)
		return nil, err
	}
	orc.Engine = eng

	return orc, nil
}

// NewFromFile loads, validates, and assembles from a config file path.
func NewFromFile(ctx context.Context, path string) (*Orchestrator, error) {
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg)
}

// buildSinks attaches the in-memory tracer, the SQLite trace store, and, if
// configured, the per-trace JSON directory writer.
func (o *Orchestrator) buildSinks(cfg *config.Config, dataDir string) (trace.Sink, error) {
	o.Tracer = trace.NewLogger()
	sinks := []trace.Sink{o.Tracer}

	store, err := storage.NewTraceStore(dataDir)
	if err != nil {
		return nil, err
	}
	o.traceStore = store
	sinks = append(sinks, store)

	if cfg.Engine.TraceDir != "" {
		writer, err := trace.NewDirWriter(config.ExpandPath(cfg.Engine.TraceDir))
		if err != nil {
			return nil, fmt.Errorf("failed to create trace directory: %w", err)
		}
		sinks = append(sinks, writer)
	}

	return trace.Fanout(sinks...), nil
}

// Process runs one turn and returns the final cleaned answer.
func (o *Orchestrator) Process(ctx context.Context, input string) (string, error) {
	return o.Engine.Process(ctx, input)
}

// ProcessDetailed runs one turn and additionally reports tool calls and the
// turn's event trace.
func (o *Orchestrator) ProcessDetailed(ctx context.Context, input string) (*engine.DetailedResponse, error) {
	return o.Engine.ProcessDetailed(ctx, input)
}

// Snapshot captures the conversation state.
func (o *Orchestrator) Snapshot() model.Snapshot {
	return o.Engine.Snapshot()
}

// Resume replaces the conversation state with a snapshot's contents.
func (o *Orchestrator) Resume(snap model.Snapshot) error {
	return o.Engine.Resume(snap)
}

// TraceStore exposes the SQLite trace store, for reward assignment and
// trace inspection after turns complete.
func (o *Orchestrator) TraceStore() *storage.TraceStore {
	return o.traceStore
}

// Close shuts down the MCP servers and releases storage handles.
func (o *Orchestrator) Close(ctx context.Context) error {
	return o.shutdown(ctx)
}

func (o *Orchestrator) shutdown(ctx context.Context) error {
	var firstErr error
	if o.mcpClient != nil {
		if err := o.mcpClient.Shutdown(ctx); err != nil {
			firstErr = err
		}
		o.mcpClient = nil
	}
	if o.traceStore != nil {
		if err := o.traceStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		o.traceStore = nil
	}
	return firstErr
}

// resolveAPIKey prefers environment variables, then falls back to the
// credential store on disk.
func resolveAPIKey(cfg *config.Config, dataDir string) string {
	if key := cfg.APIKey(); key != "" {
		return key
	}

	method := config.SecurityMethod(cfg.Security.Method)
	if method == "" {
		method = config.SecurityPlainText
	}
	store := config.NewCredentialStore(method, cfg.Security.SSHKeyPath)
	if err := store.Load(dataDir); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("Credential store unavailable: %v", err)
		}
		return ""
	}
	return store.Get(cfg.Provider.Type)
}

// loadTools resolves the tool schemas from whichever source the config
// names. Validate already rejected configs naming both.
func loadTools(ctx context.Context, cfg *config.Config, client *mcp.Client) ([]mcptypes.Tool, error) {
	switch {
	case cfg.Tools.File != "":
		schemas, err := tools.LoadSchemaFile(config.ExpandPath(cfg.Tools.File))
		if err != nil {
			return nil, fmt.Errorf("failed to load tools file: %w", err)
		}
		return schemas, nil
	case cfg.Tools.AutoDiscover:
		if client == nil {
			return nil, fmt.Errorf("tool auto-discovery requires MCP servers")
		}
		schemas, err := client.DiscoverTools(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool discovery failed: %w", err)
		}
		return schemas, nil
	default:
		return nil, nil
	}
}

// serverConfigs converts config entries to the MCP package's type.
func serverConfigs(servers []config.MCPServerConfig) []mcp.ServerConfig {
	out := make([]mcp.ServerConfig, len(servers))
	for i, srv := range servers {
		out[i] = mcp.ServerConfig{
			Name:      srv.Name,
			Transport: srv.Transport,
			Command:   srv.Command,
			Args:      srv.Args,
			Env:       srv.Env,
			URL:       srv.URL,
		}
	}
	return out
}
