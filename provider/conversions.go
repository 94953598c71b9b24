package provider

import (
	"loom/model"

	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
)

// ConvertToOllamaMessages converts conversation messages to Ollama's API
// type. Roles pass through unchanged; Ollama's chat endpoint accepts the
// same role strings the conversation uses, including "tool".
func ConvertToOllamaMessages(messages []model.Message) []api.Message {
	out := make([]api.Message, len(messages))
	for i, msg := range messages {
		out[i] = api.Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return out
}

// ConvertToOpenAIMessages converts conversation messages to the OpenAI chat
// union type. Tool-role messages become user messages: the protocol's tool
// results are plain tagged text for the model to read, and the OpenAI tool
// role requires a native tool_call_id this conversation never has.
func ConvertToOpenAIMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			// user, tool, and anything unrecognized
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
