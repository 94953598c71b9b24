package provider

import (
	"strings"
	"testing"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "ollama needs no key",
			cfg:  Config{Type: ProviderTypeOllama, Model: "llama3.1"},
		},
		{
			name:    "openai requires key",
			cfg:     Config{Type: ProviderTypeOpenAI, Model: "gpt-4o-mini"},
			wantErr: "API key is required",
		},
		{
			name:    "openrouter requires key",
			cfg:     Config{Type: ProviderTypeOpenRouter, Model: "meta-llama/llama-3.3-70b-instruct"},
			wantErr: "API key is required",
		},
		{
			name:    "anthropic requires key",
			cfg:     Config{Type: ProviderTypeAnthropic},
			wantErr: "API key is required",
		},
		{
			name: "anthropic with key",
			cfg:  Config{Type: ProviderTypeAnthropic, APIKey: "sk-test"},
		},
		{
			name:    "unknown type",
			cfg:     Config{Type: "bedrock"},
			wantErr: "unknown provider type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got provider %T", tt.wantErr, p)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p == nil {
				t.Fatal("nil provider without error")
			}
		})
	}
}

func TestNewProviderAppliesModelDefault(t *testing.T) {
	p, err := NewProvider(Config{Type: ProviderTypeOllama})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.GetModel() == "" {
		t.Error("expected a default model name")
	}
}

func TestMapProviderIDToType(t *testing.T) {
	tests := []struct {
		id   string
		want ProviderType
	}{
		{"ollama", ProviderTypeOllama},
		{"openrouter", ProviderTypeOpenRouter},
		{"openai", ProviderTypeOpenAI},
		{"anthropic", ProviderTypeAnthropic},
		{"something-else", ProviderType("something-else")},
	}

	for _, tt := range tests {
		if got := MapProviderIDToType(tt.id); got != tt.want {
			t.Errorf("MapProviderIDToType(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
