package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"loom/model"
)

// ProviderConfig selects and addresses the model backend.
type ProviderConfig struct {
	Type      string `toml:"type"`                  // "ollama", "openai", "openrouter", "anthropic"
	BaseURL   string `toml:"base_url,omitempty"`    // override the backend's default endpoint
	Model     string `toml:"model"`                 // model identifier sent to the backend
	APIKeyEnv string `toml:"api_key_env,omitempty"` // environment variable holding the API key
}

// EngineConfig bounds the orchestration loop.
type EngineConfig struct {
	MaxIterations      int    `toml:"max_iterations"`       // tool-call rounds per turn before giving up
	MaxContextTokens   int    `toml:"max_context_tokens"`   // trim threshold for the conversation
	ToolTimeoutSeconds int    `toml:"tool_timeout_seconds"` // per-invocation tool deadline
	TraceDir           string `toml:"trace_dir,omitempty"`  // write one JSON file per trace when set
	SnapshotDir        string `toml:"snapshot_dir,omitempty"`
}

// ToolsConfig names where tool schemas come from. Exactly one source may be
// active: an explicit schema file, or discovery from the configured MCP
// servers.
type ToolsConfig struct {
	File         string `toml:"file,omitempty"`
	AutoDiscover bool   `toml:"auto_discover"`
}

// MCPServerConfig describes one tool server to launch or connect to.
type MCPServerConfig struct {
	Name      string            `toml:"name"`
	Transport string            `toml:"transport"` // "stdio", "sse", "http"
	Command   string            `toml:"command,omitempty"`
	Args      []string          `toml:"args,omitempty"`
	Env       map[string]string `toml:"env,omitempty"`
	URL       string            `toml:"url,omitempty"`
}

// SecurityConfig selects how API credentials are stored at rest.
type SecurityConfig struct {
	Method     string `toml:"method"` // "plaintext" or "ssh_key"
	SSHKeyPath string `toml:"ssh_key_path,omitempty"`
}

// Config is the single configuration document. It is loaded and validated
// once; components receive the already-validated values through their
// constructors and never re-read it.
type Config struct {
	DataDirectory string              `toml:"data_directory"`
	Provider      ProviderConfig      `toml:"provider"`
	Engine        EngineConfig        `toml:"engine"`
	Sampler       model.SamplerConfig `toml:"sampler"`
	Tools         ToolsConfig         `toml:"tools"`
	Servers       []MCPServerConfig   `toml:"mcp_servers"`
	Security      SecurityConfig      `toml:"security"`
}

var Debug = false
var DebugLog *log.Logger

// DataDir returns the expanded data directory path.
func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// APIKey resolves the provider's API key: the configured environment
// variable first, then the conventional variable for the provider type.
func (c *Config) APIKey() string {
	if c.Provider.APIKeyEnv != "" {
		if key := os.Getenv(c.Provider.APIKeyEnv); key != "" {
			return key
		}
	}
	switch c.Provider.Type {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "openrouter":
		return os.Getenv("OPENROUTER_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

func (c *Config) applyEnvOverrides() {
	if provider := os.Getenv("LOOM_PROVIDER"); provider != "" {
		c.Provider.Type = provider
	}
	if modelName := os.Getenv("LOOM_MODEL"); modelName != "" {
		c.Provider.Model = modelName
	}
	if baseURL := os.Getenv("LOOM_BASE_URL"); baseURL != "" {
		c.Provider.BaseURL = baseURL
	}
	if dataDir := os.Getenv("LOOM_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if toolsFile := os.Getenv("LOOM_TOOLS_FILE"); toolsFile != "" {
		c.Tools.File = toolsFile
	}
}

// Validate rejects contradictory or unusable settings in one place, so
// everything downstream can assume a coherent configuration.
func (c *Config) Validate() error {
	switch c.Provider.Type {
	case "ollama", "openai", "openrouter", "anthropic":
	case "":
		return fmt.Errorf("provider type is required")
	default:
		return fmt.Errorf("unknown provider type: %s", c.Provider.Type)
	}

	if c.Provider.Model == "" {
		return fmt.Errorf("provider model is required")
	}

	if c.Tools.File != "" && c.Tools.AutoDiscover {
		return fmt.Errorf("conflicting tool sources: set tools.file or tools.auto_discover, not both")
	}
	if c.Tools.AutoDiscover && len(c.Servers) == 0 {
		return fmt.Errorf("tools.auto_discover requires at least one [[mcp_servers]] entry")
	}

	if c.Engine.MaxIterations < 0 {
		return fmt.Errorf("engine.max_iterations cannot be negative")
	}
	if c.Engine.MaxContextTokens < 0 {
		return fmt.Errorf("engine.max_context_tokens cannot be negative")
	}

	for i, srv := range c.Servers {
		if srv.Name == "" {
			return fmt.Errorf("mcp_servers[%d]: name is required", i)
		}
		switch srv.Transport {
		case "stdio", "":
			if srv.Command == "" {
				return fmt.Errorf("mcp_servers[%d] (%s): stdio transport requires a command", i, srv.Name)
			}
		case "sse", "http":
			if srv.URL == "" {
				return fmt.Errorf("mcp_servers[%d] (%s): %s transport requires a url", i, srv.Name, srv.Transport)
			}
		default:
			return fmt.Errorf("mcp_servers[%d] (%s): unknown transport %q", i, srv.Name, srv.Transport)
		}
	}

	switch c.Security.Method {
	case "", "plaintext":
	case "ssh_key":
		if c.Security.SSHKeyPath == "" {
			return fmt.Errorf("security.method ssh_key requires security.ssh_key_path")
		}
	default:
		return fmt.Errorf("unknown security method: %s", c.Security.Method)
	}

	return nil
}

func CheckDebug() bool {
	debug := os.Getenv("LOOM_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// Create debug log with secure permissions (0600 - may contain sensitive debug info)
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (LOOM_DEBUG=%s) ===", os.Getenv("LOOM_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

// hasEnvConfig reports whether the environment alone carries a usable
// provider selection, letting headless runs skip config file creation.
func hasEnvConfig() bool {
	return os.Getenv("LOOM_PROVIDER") != "" && os.Getenv("LOOM_MODEL") != ""
}

// Load reads the config file (creating a default one on first run unless the
// environment fully specifies a provider), applies environment overrides,
// validates, and ensures the data directory exists with safe permissions.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := GetConfigFilePath()
	if FileExists(configPath) {
		loaded, err := LoadFromPath(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if !hasEnvConfig() {
		if err := CreateDefaultConfigFile(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	return cfg, nil
}
