package model

import "context"

// Provider abstracts LLM backends (Ollama, OpenAI-compatible, Anthropic).
//
// This interface lives in the model package (not provider) to avoid import
// cycles: provider implementations import model, and the engine consumes the
// interface without importing any concrete backend.
type Provider interface {
	// Stream sends the request and delivers response text through the
	// callback, fragment by fragment, in generation order. It returns when
	// the stream ends, the context is cancelled, or the callback returns an
	// error. Implementations must honor mid-stream cancellation.
	Stream(ctx context.Context, req GenerationRequest, callback StreamCallback) error

	// GetModel returns the currently selected model name as sent to the API.
	GetModel() string

	// GetDisplayName returns the model name formatted for logs and traces.
	// For OpenRouter-style names this strips the vendor prefix.
	GetDisplayName() string

	// SetModel changes the active model for subsequent requests.
	SetModel(model string)

	// Ping checks if the backend is reachable.
	Ping(ctx context.Context) error
}

// GenerationRequest is one model call: the conversation so far plus
// sampling parameters.
type GenerationRequest struct {
	Messages []Message
	Sampler  SamplerConfig
}

// StreamCallback receives each text fragment as it arrives. Returning an
// error stops the stream; the provider surfaces that error from Stream.
type StreamCallback func(fragment string) error
