package config

func DefaultConfig() *Config {
	return &Config{
		DataDirectory: "~/.local/share/loom",
		Provider: ProviderConfig{
			Type:    "ollama",
			BaseURL: "http://localhost:11434",
			Model:   "llama3.1:latest",
		},
		Engine: EngineConfig{
			MaxIterations:      6,
			MaxContextTokens:   6000,
			ToolTimeoutSeconds: 60,
		},
		Tools: ToolsConfig{
			AutoDiscover: false,
		},
		Security: SecurityConfig{
			Method: "plaintext",
		},
	}
}

func GenerateConfigTemplate() string {
	return `# Loom Configuration
# Location: ~/.config/loom/config.toml
# This file uses TOML format: https://toml.io

# Directory where snapshots, traces, and credentials are stored
data_directory = "~/.local/share/loom"

[provider]
# Backend type: "ollama", "openai", "openrouter", or "anthropic"
type = "ollama"

# Endpoint override (defaults shown for ollama)
base_url = "http://localhost:11434"

# Model identifier sent to the backend
model = "llama3.1:latest"

# Environment variable holding the API key (cloud providers)
# api_key_env = "OPENAI_API_KEY"

[engine]
# Tool-call rounds allowed per user turn before giving up
max_iterations = 6

# Conversation token budget; older messages are trimmed above this
max_context_tokens = 6000

# Per-invocation tool deadline in seconds
tool_timeout_seconds = 60

# Persist one JSON file per interaction trace (optional)
# trace_dir = "~/.local/share/loom/traces"

# Persist conversation snapshots here (optional)
# snapshot_dir = "~/.local/share/loom/snapshots"

[sampler]
# Sampling parameters forwarded to the backend (all optional)
# temperature = 0.7
# top_p = 0.9
# max_tokens = 2048

[tools]
# Load tool schemas from a JSON file...
# file = "tools.json"

# ...or discover them from the configured MCP servers (pick one)
auto_discover = false

[security]
# Credential storage: "plaintext" or "ssh_key"
method = "plaintext"
# ssh_key_path = "~/.ssh/id_ed25519"

# Tool servers (repeat the block per server)
# [[mcp_servers]]
# name = "calculator"
# transport = "stdio"
# command = "python"
# args = ["-m", "calculator_server"]
`
}
