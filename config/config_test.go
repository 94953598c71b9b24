package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Provider.Type = "ollama"
	cfg.Provider.Model = "llama3.1:latest"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing provider type",
			mutate:  func(c *Config) { c.Provider.Type = "" },
			wantErr: true,
		},
		{
			name:    "unknown provider type",
			mutate:  func(c *Config) { c.Provider.Type = "bedrock" },
			wantErr: true,
		},
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.Provider.Model = "" },
			wantErr: true,
		},
		{
			name: "tools file and auto discovery conflict",
			mutate: func(c *Config) {
				c.Tools.File = "tools.json"
				c.Tools.AutoDiscover = true
			},
			wantErr: true,
		},
		{
			name: "auto discovery without servers",
			mutate: func(c *Config) {
				c.Tools.AutoDiscover = true
			},
			wantErr: true,
		},
		{
			name: "auto discovery with a server",
			mutate: func(c *Config) {
				c.Tools.AutoDiscover = true
				c.Servers = []MCPServerConfig{{Name: "calc", Transport: "stdio", Command: "calc-server"}}
			},
		},
		{
			name:    "negative max iterations",
			mutate:  func(c *Config) { c.Engine.MaxIterations = -1 },
			wantErr: true,
		},
		{
			name: "stdio server without command",
			mutate: func(c *Config) {
				c.Servers = []MCPServerConfig{{Name: "calc", Transport: "stdio"}}
			},
			wantErr: true,
		},
		{
			name: "sse server without url",
			mutate: func(c *Config) {
				c.Servers = []MCPServerConfig{{Name: "calc", Transport: "sse"}}
			},
			wantErr: true,
		},
		{
			name: "unknown transport",
			mutate: func(c *Config) {
				c.Servers = []MCPServerConfig{{Name: "calc", Transport: "grpc", Command: "x"}}
			},
			wantErr: true,
		},
		{
			name: "ssh_key security without key path",
			mutate: func(c *Config) {
				c.Security.Method = "ssh_key"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected a validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestLoadFromPathLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
data_directory = "/tmp/loom-test"

[provider]
type = "openai"
model = "gpt-4o-mini"

[engine]
max_iterations = 3
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Provider.Type != "openai" || cfg.Provider.Model != "gpt-4o-mini" {
		t.Errorf("file values not applied: %+v", cfg.Provider)
	}
	if cfg.Engine.MaxIterations != 3 {
		t.Errorf("expected max_iterations 3, got %d", cfg.Engine.MaxIterations)
	}
	// Fields the file omits keep their defaults.
	if cfg.Engine.MaxContextTokens != 6000 {
		t.Errorf("default max_context_tokens lost: %d", cfg.Engine.MaxContextTokens)
	}
	if cfg.Engine.ToolTimeoutSeconds != 60 {
		t.Errorf("default tool_timeout_seconds lost: %d", cfg.Engine.ToolTimeoutSeconds)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LOOM_PROVIDER", "openrouter")
	t.Setenv("LOOM_MODEL", "meta-llama/llama-3.1-70b-instruct")
	t.Setenv("LOOM_BASE_URL", "https://openrouter.example/api/v1")
	t.Setenv("LOOM_TOOLS_FILE", "custom_tools.json")

	cfg := validConfig()
	cfg.applyEnvOverrides()

	if cfg.Provider.Type != "openrouter" {
		t.Errorf("LOOM_PROVIDER not applied: %s", cfg.Provider.Type)
	}
	if cfg.Provider.Model != "meta-llama/llama-3.1-70b-instruct" {
		t.Errorf("LOOM_MODEL not applied: %s", cfg.Provider.Model)
	}
	if cfg.Provider.BaseURL != "https://openrouter.example/api/v1" {
		t.Errorf("LOOM_BASE_URL not applied: %s", cfg.Provider.BaseURL)
	}
	if cfg.Tools.File != "custom_tools.json" {
		t.Errorf("LOOM_TOOLS_FILE not applied: %s", cfg.Tools.File)
	}
}

func TestAPIKeyResolution(t *testing.T) {
	cfg := validConfig()
	cfg.Provider.Type = "openai"

	t.Setenv("OPENAI_API_KEY", "conventional")
	if got := cfg.APIKey(); got != "conventional" {
		t.Errorf("conventional env var not used: %q", got)
	}

	cfg.Provider.APIKeyEnv = "MY_CUSTOM_KEY"
	t.Setenv("MY_CUSTOM_KEY", "custom")
	if got := cfg.APIKey(); got != "custom" {
		t.Errorf("configured env var should win: %q", got)
	}
}

func TestCredentialStorePlainTextRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store := NewCredentialStore(SecurityPlainText, "")
	if err := store.Set("openai", "sk-test"); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(dir); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(filepath.Join(dir, "credentials.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if perms := info.Mode().Perm(); perms != 0600 {
		t.Errorf("credentials file should be 0600, got %o", perms)
	}

	loaded := NewCredentialStore(SecurityPlainText, "")
	if err := loaded.Load(dir); err != nil {
		t.Fatal(err)
	}
	if got := loaded.Get("openai"); got != "sk-test" {
		t.Errorf("credential did not round-trip: %q", got)
	}
}
