package llmclient

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/axionis47/agentprobe-go/pkg/apperrors"
)

// OpenAIClient is the Client implementation backing the "openai" and
// "xai" provider types. xAI's Grok API is wire-compatible with OpenAI's
// chat-completions endpoint, so a base URL override is the only
// difference between the two — there's no separate xAI SDK in the
// dependency surface.
type OpenAIClient struct {
	sdk      openai.Client
	provider string
}

// NewOpenAIClient constructs an OpenAIClient authenticated with apiKey.
// baseURL overrides the default API host when non-empty (required for
// xai, optional for openai). provider is recorded for error context only
// ("openai" or "xai").
func NewOpenAIClient(apiKey, baseURL, provider string) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{sdk: openai.NewClient(opts...), provider: provider}
}

// Chat implements Client.
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: convertMessagesToOpenAI(req.Messages, req.System),
	}
	if len(req.Tools) > 0 {
		params.Tools = convertToolsToOpenAI(req.Tools)
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	comp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, apperrors.NewLLMError(c.provider, req.Model, err)
	}
	if len(comp.Choices) == 0 {
		return nil, apperrors.NewLLMError(c.provider, req.Model, errNoChoices)
	}

	choice := comp.Choices[0]
	resp := &ChatResponse{
		Content:      choice.Message.Content,
		Model:        comp.Model,
		InputTokens:  int(comp.Usage.PromptTokens),
		OutputTokens: int(comp.Usage.CompletionTokens),
		StopReason:   string(choice.FinishReason),
	}
	for _, tc := range choice.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: NormalizeArguments(tc.Function.Arguments),
		})
	}
	return resp, nil
}

func convertMessagesToOpenAI(messages []Message, system string) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			calls := make([]openai.ChatCompletionMessageToolCallUnionParam, 0, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				args, _ := json.Marshal(tc.Arguments)
				calls = append(calls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: string(args),
						},
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{ToolCalls: calls},
			})
		case RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func convertToolsToOpenAI(tools []ToolDefinition) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  shared.FunctionParameters(t.ParametersSchema),
		}))
	}
	return out
}

var errNoChoices = &noChoicesError{}

type noChoicesError struct{}

func (e *noChoicesError) Error() string { return "provider returned no completion choices" }
