package llmclient

import (
	"context"
	"encoding/json"

	"google.golang.org/genai"

	"github.com/axionis47/agentprobe-go/pkg/apperrors"
)

// GoogleClient is the Client implementation backing the "google" and
// "vertexai" provider types. Gemini Developer API and Vertex AI are both
// served by the same genai.Client, distinguished only by which
// credentials/backend NewGoogleClient was configured with.
type GoogleClient struct {
	sdk      *genai.Client
	provider string
}

// NewGoogleClient constructs a GoogleClient against the Gemini Developer
// API, authenticated with apiKey.
func NewGoogleClient(ctx context.Context, apiKey string) (*GoogleClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperrors.NewLLMError("google", "", err)
	}
	return &GoogleClient{sdk: client, provider: "google"}, nil
}

// NewVertexAIClient constructs a GoogleClient against Vertex AI, using
// project/location-based credentials instead of an API key.
func NewVertexAIClient(ctx context.Context, project, location string) (*GoogleClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  project,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, apperrors.NewLLMError("vertexai", "", err)
	}
	return &GoogleClient{sdk: client, provider: "vertexai"}, nil
}

// Chat implements Client.
func (c *GoogleClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	contents := convertMessagesToGoogle(req.Messages)

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		config.Temperature = &temp
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if len(req.Tools) > 0 {
		config.Tools = convertToolsToGoogle(req.Tools)
	}

	result, err := c.sdk.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, apperrors.NewLLMError(c.provider, req.Model, err)
	}
	if len(result.Candidates) == 0 {
		return nil, apperrors.NewLLMError(c.provider, req.Model, errNoChoices)
	}

	resp := &ChatResponse{Model: req.Model}
	candidate := result.Candidates[0]
	resp.StopReason = string(candidate.FinishReason)
	if result.UsageMetadata != nil {
		resp.InputTokens = int(result.UsageMetadata.PromptTokenCount)
		resp.OutputTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				resp.Content += part.Text
			}
			if part.FunctionCall != nil {
				args, _ := json.Marshal(part.FunctionCall.Args)
				resp.ToolCalls = append(resp.ToolCalls, ToolCall{
					ID:        part.FunctionCall.ID,
					Name:      part.FunctionCall.Name,
					Arguments: NormalizeArguments(string(args)),
				})
			}
		}
	}
	return resp, nil
}

func convertMessagesToGoogle(messages []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			continue
		}

		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}

		var parts []*genai.Part
		if m.Content != "" {
			parts = append(parts, genai.NewPartFromText(m.Content))
		}
		if m.Role == RoleTool {
			parts = append(parts, genai.NewPartFromFunctionResponse(m.ToolName, map[string]any{"result": m.Content}))
		}
		for _, tc := range m.ToolCalls {
			parts = append(parts, genai.NewPartFromFunctionCall(tc.Name, tc.Arguments))
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}
	return out
}

func convertToolsToGoogle(tools []ToolDefinition) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertSchemaToGoogle(t.ParametersSchema),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func convertSchemaToGoogle(schema map[string]any) *genai.Schema {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var out genai.Schema
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return &out
}
