package config

import (
	"github.com/axionis47/agentprobe-go/pkg/evaluation"
	"github.com/axionis47/agentprobe-go/pkg/persona"
)

// AgentUnderTestConfig defines one configuration of the agent being
// evaluated: its system prompt, backing model, and sampling parameters.
// This is metadata only — ToPersona builds the runtime value the
// simulation package actually drives.
type AgentUnderTestConfig struct {
	Description  string  `yaml:"description,omitempty"`
	SystemPrompt string  `yaml:"system_prompt,omitempty"`
	LLMProvider  string  `yaml:"llm_provider" validate:"required"`
	Temperature  float64 `yaml:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
	MaxTokens    int     `yaml:"max_tokens" validate:"required,min=1"`
}

// ToPersona resolves cfg against a named LLM provider's model, producing
// the runtime AgentPersona the orchestrator needs.
func (cfg AgentUnderTestConfig) ToPersona(name, modelID string) persona.AgentPersona {
	return persona.AgentPersona{
		Name:         name,
		SystemPrompt: cfg.SystemPrompt,
		ModelID:      modelID,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
	}
}

// ScenarioConfig defines one simulated-user scenario: the persona driving
// the synthetic user, the environment budget the conversation runs under,
// and the evaluation hooks (rubric, expected tool sequence) that apply to
// conversations it produces.
type ScenarioConfig struct {
	Category              string            `yaml:"category" validate:"required"`
	Description           string            `yaml:"description,omitempty"`
	UserPersonality       string            `yaml:"user_personality" validate:"required"`
	UserExpertise         string            `yaml:"user_expertise" validate:"required"`
	UserGoal              string            `yaml:"user_goal" validate:"required"`
	InitialMessage        string            `yaml:"initial_message,omitempty"`
	MaxTurns              int               `yaml:"max_turns" validate:"required,min=1"`
	MaxTotalTokens        int               `yaml:"max_total_tokens" validate:"required,min=1"`
	TimeoutSeconds        float64           `yaml:"timeout_seconds" validate:"required,min=1"`
	ToolFailureRate       float64           `yaml:"tool_failure_rate,omitempty" validate:"omitempty,min=0,max=1"`
	ToolLatencyMS         int               `yaml:"tool_latency_ms,omitempty" validate:"omitempty,min=0"`
	AdversarialTurns      []int             `yaml:"adversarial_turns,omitempty"`
	ToolResponseOverrides map[string]string `yaml:"tool_response_overrides,omitempty"`
	ExpectedToolSequence  []string          `yaml:"expected_tool_sequence,omitempty"`
	RubricID              string            `yaml:"rubric_id,omitempty"`

	// UserLLMProvider names the LLM provider backing the simulated user
	// for this scenario. Empty means the agent's resolved provider is used.
	// Only the provider's Model is applied to the simulated user; its calls
	// go through the agent's LLM client.
	UserLLMProvider string `yaml:"user_llm_provider,omitempty"`
}

// ToUserPersona builds the runtime UserPersona for cfg.
func (cfg ScenarioConfig) ToUserPersona(modelID string) persona.UserPersona {
	return persona.UserPersona{
		Personality: cfg.UserPersonality,
		Expertise:   cfg.UserExpertise,
		Goal:        cfg.UserGoal,
		ModelID:     modelID,
	}
}

// ToEnvironment builds the runtime SimulationEnvironment for cfg.
func (cfg ScenarioConfig) ToEnvironment() persona.SimulationEnvironment {
	turns := make(map[int]struct{}, len(cfg.AdversarialTurns))
	for _, t := range cfg.AdversarialTurns {
		turns[t] = struct{}{}
	}
	return persona.SimulationEnvironment{
		MaxTurns:         cfg.MaxTurns,
		MaxTotalTokens:   cfg.MaxTotalTokens,
		TimeoutSeconds:   cfg.TimeoutSeconds,
		ToolFailureRate:  cfg.ToolFailureRate,
		ToolLatencyMS:    cfg.ToolLatencyMS,
		AdversarialTurns: turns,
	}
}

// RubricDimensionConfig is one scored facet of a RubricConfig.
type RubricDimensionConfig struct {
	Name        string   `yaml:"name" validate:"required"`
	Description string   `yaml:"description,omitempty"`
	Weight      float64  `yaml:"weight" validate:"required,min=0"`
	Criteria    []string `yaml:"criteria,omitempty"`
}

// RubricConfig names a set of weighted evaluation dimensions a model judge
// or rubric grader scores a conversation against, plus the pass threshold
// statistics use when computing pass rates.
type RubricConfig struct {
	Description   string                  `yaml:"description,omitempty"`
	Dimensions    []RubricDimensionConfig `yaml:"dimensions" validate:"required,min=1,dive"`
	PassThreshold float64                 `yaml:"pass_threshold" validate:"required,min=0,max=1"`
}

// ToDimensions converts cfg's dimensions to the evaluation package's
// runtime Dimension type.
func (cfg RubricConfig) ToDimensions() []evaluation.Dimension {
	dims := make([]evaluation.Dimension, 0, len(cfg.Dimensions))
	for _, d := range cfg.Dimensions {
		dims = append(dims, evaluation.Dimension{
			Name:        d.Name,
			Description: d.Description,
			Weight:      d.Weight,
			Criteria:    d.Criteria,
		})
	}
	return dims
}
