package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"loom/model"
)

// OllamaProvider streams from a local or remote Ollama server through the
// official client.
type OllamaProvider struct {
	client  *api.Client
	model   string
	baseURL string
}

// NewOllamaProvider creates an Ollama provider.
//
// baseURL defaults to "http://localhost:11434" and model to
// "llama3.1:latest". Returns an error only if the URL does not parse; the
// server is not contacted until Stream or Ping.
func NewOllamaProvider(baseURL, modelName string) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llama3.1:latest"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &OllamaProvider{
		client:  api.NewClient(parsedURL, http.DefaultClient),
		model:   modelName,
		baseURL: baseURL,
	}, nil
}

// Stream implements model.Provider. Fragments arrive through Ollama's
// response callback; a callback error aborts the stream and surfaces from
// here, as does context cancellation.
func (p *OllamaProvider) Stream(ctx context.Context, req model.GenerationRequest, callback model.StreamCallback) error {
	streaming := true
	chatReq := &api.ChatRequest{
		Model:    p.model,
		Messages: ConvertToOllamaMessages(req.Messages),
		Stream:   &streaming,
		Options:  ollamaOptions(req.Sampler),
	}

	respFunc := func(resp api.ChatResponse) error {
		if resp.Message.Content == "" || callback == nil {
			return nil
		}
		return callback(resp.Message.Content)
	}

	return p.client.Chat(ctx, chatReq, respFunc)
}

// ollamaOptions maps the sampler onto Ollama's request options map. Unset
// fields are omitted so the model's own defaults apply.
func ollamaOptions(sampler model.SamplerConfig) map[string]any {
	opts := map[string]any{}
	if sampler.Temperature != nil {
		opts["temperature"] = *sampler.Temperature
	}
	if sampler.TopP != nil {
		opts["top_p"] = *sampler.TopP
	}
	if sampler.MaxTokens > 0 {
		opts["num_predict"] = sampler.MaxTokens
	}
	if len(sampler.Stop) > 0 {
		opts["stop"] = sampler.Stop
	}
	if len(opts) == 0 {
		return nil
	}
	return opts
}

// GetModel implements model.Provider.
func (p *OllamaProvider) GetModel() string {
	return p.model
}

// GetDisplayName implements model.Provider. Ollama model names carry no
// vendor prefix, so the display name is the model name.
func (p *OllamaProvider) GetDisplayName() string {
	return p.model
}

// SetModel implements model.Provider.
func (p *OllamaProvider) SetModel(modelName string) {
	p.model = modelName
}

// Ping implements model.Provider with a lightweight list call.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := p.client.List(ctx); err != nil {
		return fmt.Errorf("Ollama ping failed: %w", err)
	}
	return nil
}
