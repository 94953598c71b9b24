// Package provider implements model.Provider for the supported LLM
// backends: local Ollama, OpenAI (and OpenAI-compatible endpoints such as
// OpenRouter), and Anthropic.
//
// Each backend is a thin streaming adapter over its official SDK. The
// orchestration protocol is tag-based (tool calls travel inside the text
// stream and are recognized by the interceptor), so providers never touch
// native tool-calling APIs; they only deliver text fragments in generation
// order and honor mid-stream cancellation.
//
// The Provider interface itself lives in the model package (model/provider.go)
// to avoid import cycles: implementations here import model, and the engine
// consumes the interface without importing any concrete backend.
package provider

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // required for OpenAI/OpenRouter/Anthropic, unused for Ollama
}
