package llmclient

import (
	"context"
	"fmt"
	"os"

	"github.com/axionis47/agentprobe-go/pkg/config"
)

// NewFromProviderConfig builds the concrete Client for providerCfg, reading
// credentials from the environment variables it names (APIKeyEnv, or
// ProjectEnv/LocationEnv for vertexai). This is the one place provider
// selection happens — every caller downstream only ever sees the Client
// interface.
func NewFromProviderConfig(ctx context.Context, providerCfg *config.LLMProviderConfig) (Client, error) {
	switch providerCfg.Type {
	case config.LLMProviderTypeAnthropic:
		return NewAnthropicClient(os.Getenv(providerCfg.APIKeyEnv), providerCfg.BaseURL), nil

	case config.LLMProviderTypeOpenAI:
		return NewOpenAIClient(os.Getenv(providerCfg.APIKeyEnv), providerCfg.BaseURL, "openai"), nil

	case config.LLMProviderTypeXAI:
		baseURL := providerCfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.x.ai/v1"
		}
		return NewOpenAIClient(os.Getenv(providerCfg.APIKeyEnv), baseURL, "xai"), nil

	case config.LLMProviderTypeGoogle:
		return NewGoogleClient(ctx, os.Getenv(providerCfg.APIKeyEnv))

	case config.LLMProviderTypeVertexAI:
		return NewVertexAIClient(ctx, os.Getenv(providerCfg.ProjectEnv), os.Getenv(providerCfg.LocationEnv))

	default:
		return nil, fmt.Errorf("llmclient: unsupported provider type %q", providerCfg.Type)
	}
}
