package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LoadFromPath reads a config file, layered over the defaults so fields the
// file omits keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// ConfigFileExists checks for the config file without creating it (unlike
// Load, which writes a default one on first run).
func ConfigFileExists() bool {
	return FileExists(GetConfigFilePath())
}

// Save writes the config to its standard location.
func Save(cfg *Config) error {
	configDir := GetConfigDir()
	if err := EnsureDir(configDir); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := GetConfigFilePath()
	// Create with secure permissions (0600 - may name credential env vars and hosts)
	f, err := os.OpenFile(configPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile writes the commented template on first run. An
// existing file is left alone.
func CreateDefaultConfigFile() error {
	configDir := GetConfigDir()
	if err := EnsureDir(configDir); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := GetConfigFilePath()
	if FileExists(configPath) {
		return nil
	}

	content := GenerateConfigTemplate()
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
