package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"loom/model"
)

// OpenAIProvider streams chat completions through the official OpenAI SDK.
// It also serves any OpenAI-compatible endpoint; NewOpenRouterProvider is
// the preconfigured variant for OpenRouter.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	baseURL string

	// vendorPrefixed marks OpenRouter-style model names
	// ("meta-llama/llama-3.3-70b") whose display name drops the vendor.
	vendorPrefixed bool
}

// NewOpenAIProvider creates an OpenAI provider.
//
// baseURL defaults to "https://api.openai.com/v1" and model to
// "gpt-4o-mini". The API key is required.
func NewOpenAIProvider(baseURL, apiKey, modelName string) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenAIProvider{
		client:  client,
		model:   modelName,
		baseURL: baseURL,
	}, nil
}

// NewOpenRouterProvider creates a provider for OpenRouter's
// OpenAI-compatible API. baseURL defaults to "https://openrouter.ai/api/v1";
// the API key is required and model names keep their vendor prefix on the
// wire but lose it in GetDisplayName.
func NewOpenRouterProvider(baseURL, apiKey, modelName string) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}
	if modelName == "" {
		modelName = "meta-llama/llama-3.3-70b-instruct"
	}

	p, err := NewOpenAIProvider(baseURL, apiKey, modelName)
	if err != nil {
		return nil, err
	}
	p.vendorPrefixed = true
	return p, nil
}

// Stream implements model.Provider over the SDK's streaming completions.
func (p *OpenAIProvider) Stream(ctx context.Context, req model.GenerationRequest, callback model.StreamCallback) error {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: ConvertToOpenAIMessages(req.Messages),
	}
	applyOpenAISampler(&params, req.Sampler)

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" && callback != nil {
			if err := callback(delta); err != nil {
				return err
			}
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("OpenAI streaming error: %w", err)
	}
	return nil
}

// applyOpenAISampler maps the sampler onto request params, leaving unset
// fields at the API's defaults.
func applyOpenAISampler(params *openai.ChatCompletionNewParams, sampler model.SamplerConfig) {
	if sampler.Temperature != nil {
		params.Temperature = openai.Float(*sampler.Temperature)
	}
	if sampler.TopP != nil {
		params.TopP = openai.Float(*sampler.TopP)
	}
	if sampler.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(sampler.MaxTokens))
	}
	if len(sampler.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: sampler.Stop,
		}
	}
}

// GetModel implements model.Provider; returns the full API model name.
func (p *OpenAIProvider) GetModel() string {
	return p.model
}

// GetDisplayName implements model.Provider. OpenRouter model names drop the
// vendor prefix ("meta-llama/llama-3.3-70b" → "llama-3.3-70b").
func (p *OpenAIProvider) GetDisplayName() string {
	if p.vendorPrefixed {
		if _, name, ok := strings.Cut(p.model, "/"); ok {
			return name
		}
	}
	return p.model
}

// SetModel implements model.Provider.
func (p *OpenAIProvider) SetModel(modelName string) {
	p.model = modelName
}

// Ping implements model.Provider by listing models.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return fmt.Errorf("OpenAI ping failed: %w", err)
	}
	return nil
}
