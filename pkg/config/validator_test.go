package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig() *Config {
	return &Config{
		Defaults:            &Defaults{},
		Queue:               DefaultQueueConfig(),
		Retention:           DefaultRetentionConfig(),
		AgentRegistry:       NewAgentRegistry(map[string]*AgentUnderTestConfig{}),
		ScenarioRegistry:    NewScenarioRegistry(map[string]*ScenarioConfig{}),
		RubricRegistry:      NewRubricRegistry(map[string]*RubricConfig{}),
		LLMProviderRegistry: NewLLMProviderRegistry(map[string]*LLMProviderConfig{}),
	}
}

func TestValidateAll_Empty(t *testing.T) {
	cfg := newTestConfig()
	v := NewValidator(cfg)
	require.NoError(t, v.ValidateAll())
}

func TestValidateAll_Order(t *testing.T) {
	// An agent referencing a missing LLM provider should surface as an
	// agent validation error, not be swallowed by queue/LLM provider
	// validation running first.
	cfg := newTestConfig()
	cfg.AgentRegistry = NewAgentRegistry(map[string]*AgentUnderTestConfig{
		"bot": {LLMProvider: "missing-provider", MaxTokens: 1024},
	})

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent validation failed")
	assert.Contains(t, err.Error(), "missing-provider")
}

func TestValidateAgents(t *testing.T) {
	providers := map[string]*LLMProviderConfig{
		"good-provider": {Type: LLMProviderTypeOpenAI, Model: "gpt-5", MaxToolResultTokens: 100000},
	}

	tests := []struct {
		name    string
		agent   *AgentUnderTestConfig
		wantErr string
	}{
		{
			name:  "valid agent",
			agent: &AgentUnderTestConfig{LLMProvider: "good-provider", MaxTokens: 1024, Temperature: 0.7},
		},
		{
			name:    "unknown LLM provider",
			agent:   &AgentUnderTestConfig{LLMProvider: "unknown", MaxTokens: 1024},
			wantErr: "LLM provider 'unknown' not found",
		},
		{
			name:    "max tokens zero",
			agent:   &AgentUnderTestConfig{LLMProvider: "good-provider", MaxTokens: 0},
			wantErr: "must be at least 1",
		},
		{
			name:    "temperature too high",
			agent:   &AgentUnderTestConfig{LLMProvider: "good-provider", MaxTokens: 1024, Temperature: 2.5},
			wantErr: "must be in [0, 2]",
		},
		{
			name:    "negative temperature",
			agent:   &AgentUnderTestConfig{LLMProvider: "good-provider", MaxTokens: 1024, Temperature: -0.1},
			wantErr: "must be in [0, 2]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			cfg.LLMProviderRegistry = NewLLMProviderRegistry(providers)
			cfg.AgentRegistry = NewAgentRegistry(map[string]*AgentUnderTestConfig{"bot": tt.agent})

			err := NewValidator(cfg).validateAgents()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateRubrics(t *testing.T) {
	tests := []struct {
		name    string
		rubric  *RubricConfig
		wantErr string
	}{
		{
			name: "valid rubric",
			rubric: &RubricConfig{
				Dimensions:    []RubricDimensionConfig{{Name: "helpfulness", Weight: 1.0}},
				PassThreshold: 0.7,
			},
		},
		{
			name:    "no dimensions",
			rubric:  &RubricConfig{PassThreshold: 0.7},
			wantErr: "at least one dimension required",
		},
		{
			name: "dimension missing name",
			rubric: &RubricConfig{
				Dimensions:    []RubricDimensionConfig{{Weight: 1.0}},
				PassThreshold: 0.7,
			},
			wantErr: "name required",
		},
		{
			name: "duplicate dimension name",
			rubric: &RubricConfig{
				Dimensions: []RubricDimensionConfig{
					{Name: "helpfulness", Weight: 0.5},
					{Name: "helpfulness", Weight: 0.5},
				},
				PassThreshold: 0.7,
			},
			wantErr: "duplicate dimension",
		},
		{
			name: "negative weight",
			rubric: &RubricConfig{
				Dimensions:    []RubricDimensionConfig{{Name: "helpfulness", Weight: -0.1}},
				PassThreshold: 0.7,
			},
			wantErr: "must be non-negative",
		},
		{
			name: "pass threshold out of range",
			rubric: &RubricConfig{
				Dimensions:    []RubricDimensionConfig{{Name: "helpfulness", Weight: 1.0}},
				PassThreshold: 1.5,
			},
			wantErr: "must be in [0, 1]",
		},
		{
			name: "negative pass threshold",
			rubric: &RubricConfig{
				Dimensions:    []RubricDimensionConfig{{Name: "helpfulness", Weight: 1.0}},
				PassThreshold: -0.1,
			},
			wantErr: "must be in [0, 1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			cfg.RubricRegistry = NewRubricRegistry(map[string]*RubricConfig{"r1": tt.rubric})

			err := NewValidator(cfg).validateRubrics()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateScenarios(t *testing.T) {
	rubrics := map[string]*RubricConfig{
		"default": {Dimensions: []RubricDimensionConfig{{Name: "helpfulness", Weight: 1.0}}, PassThreshold: 0.7},
	}
	providers := map[string]*LLMProviderConfig{
		"good-provider": {Type: LLMProviderTypeOpenAI, Model: "gpt-5", MaxToolResultTokens: 100000},
	}

	validScenario := func() *ScenarioConfig {
		return &ScenarioConfig{
			Category:        "billing",
			UserPersonality: "impatient",
			UserExpertise:   "novice",
			UserGoal:        "refund",
			MaxTurns:        5,
			MaxTotalTokens:  10000,
			TimeoutSeconds:  60,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ScenarioConfig)
		wantErr string
	}{
		{name: "valid scenario"},
		{
			name:    "missing category",
			mutate:  func(s *ScenarioConfig) { s.Category = "" },
			wantErr: "category",
		},
		{
			name:    "max turns zero",
			mutate:  func(s *ScenarioConfig) { s.MaxTurns = 0 },
			wantErr: "max_turns",
		},
		{
			name:    "max total tokens zero",
			mutate:  func(s *ScenarioConfig) { s.MaxTotalTokens = 0 },
			wantErr: "max_total_tokens",
		},
		{
			name:    "timeout seconds non-positive",
			mutate:  func(s *ScenarioConfig) { s.TimeoutSeconds = 0 },
			wantErr: "timeout_seconds",
		},
		{
			name:    "tool failure rate too high",
			mutate:  func(s *ScenarioConfig) { s.ToolFailureRate = 1.5 },
			wantErr: "tool_failure_rate",
		},
		{
			name:    "negative adversarial turn",
			mutate:  func(s *ScenarioConfig) { s.AdversarialTurns = []int{-1} },
			wantErr: "adversarial_turns",
		},
		{
			name:    "unknown rubric",
			mutate:  func(s *ScenarioConfig) { s.RubricID = "nonexistent" },
			wantErr: "rubric 'nonexistent' not found",
		},
		{
			name:    "valid rubric reference",
			mutate:  func(s *ScenarioConfig) { s.RubricID = "default" },
			wantErr: "",
		},
		{
			name:    "unknown user LLM provider",
			mutate:  func(s *ScenarioConfig) { s.UserLLMProvider = "nonexistent" },
			wantErr: "LLM provider 'nonexistent' not found",
		},
		{
			name:    "valid user LLM provider",
			mutate:  func(s *ScenarioConfig) { s.UserLLMProvider = "good-provider" },
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := validScenario()
			if tt.mutate != nil {
				tt.mutate(scenario)
			}

			cfg := newTestConfig()
			cfg.RubricRegistry = NewRubricRegistry(rubrics)
			cfg.LLMProviderRegistry = NewLLMProviderRegistry(providers)
			cfg.ScenarioRegistry = NewScenarioRegistry(map[string]*ScenarioConfig{"s1": scenario})

			err := NewValidator(cfg).validateScenarios()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	providers := map[string]*LLMProviderConfig{
		"good-provider": {Type: LLMProviderTypeOpenAI, Model: "gpt-5", MaxToolResultTokens: 100000},
	}
	rubrics := map[string]*RubricConfig{
		"default": {Dimensions: []RubricDimensionConfig{{Name: "helpfulness", Weight: 1.0}}, PassThreshold: 0.7},
	}

	tests := []struct {
		name     string
		defaults *Defaults
		wantErr  string
	}{
		{name: "nil defaults"},
		{name: "empty defaults", defaults: &Defaults{}},
		{
			name:     "valid defaults",
			defaults: &Defaults{LLMProvider: "good-provider", JudgeModel: "good-provider", RubricID: "default", NumConversations: 5},
		},
		{
			name:     "unknown llm provider",
			defaults: &Defaults{LLMProvider: "nonexistent"},
			wantErr:  "LLM provider 'nonexistent' not found",
		},
		{
			name:     "unknown judge model provider",
			defaults: &Defaults{JudgeModel: "nonexistent"},
			wantErr:  "LLM provider 'nonexistent' not found",
		},
		{
			name:     "unknown rubric",
			defaults: &Defaults{RubricID: "nonexistent"},
			wantErr:  "rubric 'nonexistent' not found",
		},
		{
			name:     "negative num conversations",
			defaults: &Defaults{NumConversations: -1},
			wantErr:  "must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			cfg.Defaults = tt.defaults
			cfg.LLMProviderRegistry = NewLLMProviderRegistry(providers)
			cfg.RubricRegistry = NewRubricRegistry(rubrics)

			err := NewValidator(cfg).validateDefaults()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateLLMProviders(t *testing.T) {
	t.Run("invalid provider type", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.LLMProviderRegistry = NewLLMProviderRegistry(map[string]*LLMProviderConfig{
			"bad": {Type: LLMProviderType("invalid"), Model: "m", MaxToolResultTokens: 10000},
		})
		err := NewValidator(cfg).validateLLMProviders()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid provider type")
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.LLMProviderRegistry = NewLLMProviderRegistry(map[string]*LLMProviderConfig{
			"bad": {Type: LLMProviderTypeOpenAI, MaxToolResultTokens: 10000},
		})
		err := NewValidator(cfg).validateLLMProviders()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model required")
	})

	t.Run("max_tool_result_tokens below floor", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.LLMProviderRegistry = NewLLMProviderRegistry(map[string]*LLMProviderConfig{
			"bad": {Type: LLMProviderTypeOpenAI, Model: "m", MaxToolResultTokens: 500},
		})
		err := NewValidator(cfg).validateLLMProviders()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be at least 1000")
	})

	t.Run("invalid google native tool", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.LLMProviderRegistry = NewLLMProviderRegistry(map[string]*LLMProviderConfig{
			"bad": {
				Type:                LLMProviderTypeGoogle,
				Model:               "gemini-2.5-pro",
				MaxToolResultTokens: 100000,
				NativeTools:         map[GoogleNativeTool]bool{GoogleNativeTool("bogus"): true},
			},
		})
		err := NewValidator(cfg).validateLLMProviders()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid native tool")
	})

	t.Run("referenced provider missing API key env is rejected", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.LLMProviderRegistry = NewLLMProviderRegistry(map[string]*LLMProviderConfig{
			"provider1": {Type: LLMProviderTypeOpenAI, Model: "gpt-5", APIKeyEnv: "TOTALLY_UNSET_KEY_VAR", MaxToolResultTokens: 100000},
		})
		cfg.AgentRegistry = NewAgentRegistry(map[string]*AgentUnderTestConfig{
			"bot": {LLMProvider: "provider1", MaxTokens: 1024},
		})
		err := NewValidator(cfg).validateLLMProviders()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TOTALLY_UNSET_KEY_VAR")
	})

	t.Run("unreferenced provider's missing API key env is not checked", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.LLMProviderRegistry = NewLLMProviderRegistry(map[string]*LLMProviderConfig{
			"provider1": {Type: LLMProviderTypeOpenAI, Model: "gpt-5", APIKeyEnv: "TOTALLY_UNSET_KEY_VAR", MaxToolResultTokens: 100000},
		})
		require.NoError(t, NewValidator(cfg).validateLLMProviders())
	})

	t.Run("referenced vertexai provider missing project/location env is rejected", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.LLMProviderRegistry = NewLLMProviderRegistry(map[string]*LLMProviderConfig{
			"provider1": {
				Type:                LLMProviderTypeVertexAI,
				Model:               "claude-sonnet-4-5",
				ProjectEnv:          "TOTALLY_UNSET_PROJECT_VAR",
				LocationEnv:         "TOTALLY_UNSET_LOCATION_VAR",
				MaxToolResultTokens: 100000,
			},
		})
		cfg.Defaults = &Defaults{LLMProvider: "provider1"}
		err := NewValidator(cfg).validateLLMProviders()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TOTALLY_UNSET_PROJECT_VAR")
	})

	t.Run("referenced via scenario user_llm_provider", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.LLMProviderRegistry = NewLLMProviderRegistry(map[string]*LLMProviderConfig{
			"provider1": {Type: LLMProviderTypeOpenAI, Model: "gpt-5", APIKeyEnv: "TOTALLY_UNSET_KEY_VAR", MaxToolResultTokens: 100000},
		})
		cfg.ScenarioRegistry = NewScenarioRegistry(map[string]*ScenarioConfig{
			"s1": {UserLLMProvider: "provider1"},
		})
		err := NewValidator(cfg).validateLLMProviders()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TOTALLY_UNSET_KEY_VAR")
	})
}

func TestValidateQueue_GracefulShutdownBounds(t *testing.T) {
	cfg := newTestConfig()
	cfg.Queue = &QueueConfig{WorkerCount: 3, MaxRetries: 3, GracefulShutdownTimeout: 5 * time.Second}
	require.NoError(t, NewValidator(cfg).validateQueue())
}
