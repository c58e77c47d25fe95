package llmclient

import "context"

// Client is the single abstraction every component uses to reach a
// language model. The interface is the seam for testing: production code
// wires a real provider backend (Anthropic, OpenAI/xAI, Google/Vertex AI —
// selected by the provider config's type in factory.go); tests wire Mock.
//
// Chat performs no retries of its own — callers decide whether and how to
// retry a failed call. Failures are always returned wrapped as
// *apperrors.LLMError by the concrete implementation.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}
