package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"loom/model"
)

// defaultAnthropicMaxTokens applies when the sampler leaves MaxTokens unset;
// the Anthropic API requires an explicit value on every request.
const defaultAnthropicMaxTokens = 4096

// AnthropicProvider streams from the Anthropic Messages API through the
// official SDK.
type AnthropicProvider struct {
	client  *anthropic.Client
	model   anthropic.Model
	baseURL string
}

// NewAnthropicProvider creates an Anthropic provider.
//
// baseURL defaults to "https://api.anthropic.com". The API key is required;
// an empty model falls back to the current Sonnet release.
func NewAnthropicProvider(baseURL, apiKey, modelName string) (*AnthropicProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	anthropicModel := anthropic.Model(modelName)
	if modelName == "" {
		anthropicModel = anthropic.ModelClaudeSonnet4_5_20250929
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &AnthropicProvider{
		client:  &client,
		model:   anthropicModel,
		baseURL: baseURL,
	}, nil
}

// Stream implements model.Provider over the SDK's streaming Messages API,
// forwarding text deltas as they arrive.
func (p *AnthropicProvider) Stream(ctx context.Context, req model.GenerationRequest, callback model.StreamCallback) error {
	messages, system := convertToAnthropicMessages(req.Messages)

	maxTokens := req.Sampler.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Sampler.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Sampler.Temperature)
	}
	if req.Sampler.TopP != nil {
		params.TopP = anthropic.Float(*req.Sampler.TopP)
	}
	if len(req.Sampler.Stop) > 0 {
		params.StopSequences = req.Sampler.Stop
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		event := stream.Current()
		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if callback != nil {
					if err := callback(deltaVariant.Text); err != nil {
						return err
					}
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("Anthropic streaming error: %w", err)
	}
	return nil
}

// GetModel implements model.Provider.
func (p *AnthropicProvider) GetModel() string {
	return string(p.model)
}

// GetDisplayName implements model.Provider.
func (p *AnthropicProvider) GetDisplayName() string {
	return string(p.model)
}

// SetModel implements model.Provider.
func (p *AnthropicProvider) SetModel(modelName string) {
	p.model = anthropic.Model(modelName)
}

// Ping implements model.Provider. Anthropic has no health endpoint, so this
// makes a minimal one-token request.
func (p *AnthropicProvider) Ping(ctx context.Context) error {
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("Anthropic ping failed: %w", err)
	}
	return nil
}

// convertToAnthropicMessages splits the conversation into Anthropic's
// message array and system blocks: system-role messages move to the system
// parameter, and tool-role messages become user messages because the
// protocol's tool results are tagged text for the model to read, not native
// tool_result blocks.
func convertToAnthropicMessages(messages []model.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var systemBlocks []anthropic.TextBlockParam
	anthropicMsgs := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{
				Text: msg.Content,
			})
		case model.RoleAssistant:
			anthropicMsgs = append(anthropicMsgs,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)),
			)
		default:
			// user, tool, and anything unrecognized
			anthropicMsgs = append(anthropicMsgs,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)),
			)
		}
	}

	return anthropicMsgs, systemBlocks
}
