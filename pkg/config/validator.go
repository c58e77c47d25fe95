package config

import (
	"fmt"
	"os"
)

// Validator validates configuration comprehensively with clear error messages
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast - stops at first error)
func (v *Validator) ValidateAll() error {
	// Validate in order: queue → LLM providers → agents → rubrics →
	// scenarios → defaults, so dependencies are validated before
	// dependents that reference them.

	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}

	if err := v.validateLLMProviders(); err != nil {
		return fmt.Errorf("LLM provider validation failed: %w", err)
	}

	if err := v.validateAgents(); err != nil {
		return fmt.Errorf("agent validation failed: %w", err)
	}

	if err := v.validateRubrics(); err != nil {
		return fmt.Errorf("rubric validation failed: %w", err)
	}

	if err := v.validateScenarios(); err != nil {
		return fmt.Errorf("scenario validation failed: %w", err)
	}

	if err := v.validateDefaults(); err != nil {
		return fmt.Errorf("defaults validation failed: %w", err)
	}

	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q == nil {
		return fmt.Errorf("queue configuration is nil")
	}

	if q.WorkerCount < 1 || q.WorkerCount > 50 {
		return fmt.Errorf("worker_count must be between 1 and 50, got %d", q.WorkerCount)
	}
	if q.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", q.MaxRetries)
	}
	if q.GracefulShutdownTimeout <= 0 {
		return fmt.Errorf("graceful_shutdown_timeout must be positive, got %v", q.GracefulShutdownTimeout)
	}

	return nil
}

func (v *Validator) validateDefaults() error {
	defaults := v.cfg.Defaults
	if defaults == nil {
		return nil
	}

	if defaults.LLMProvider != "" && !v.cfg.LLMProviderRegistry.Has(defaults.LLMProvider) {
		return NewValidationError("defaults", "", "llm_provider",
			fmt.Errorf("LLM provider '%s' not found", defaults.LLMProvider))
	}
	if defaults.JudgeModel != "" && !v.cfg.LLMProviderRegistry.Has(defaults.JudgeModel) {
		return NewValidationError("defaults", "", "judge_model",
			fmt.Errorf("LLM provider '%s' not found", defaults.JudgeModel))
	}
	if defaults.RubricID != "" && !v.cfg.RubricRegistry.Has(defaults.RubricID) {
		return NewValidationError("defaults", "", "rubric_id",
			fmt.Errorf("rubric '%s' not found", defaults.RubricID))
	}
	if defaults.NumConversations < 0 {
		return NewValidationError("defaults", "", "num_conversations", fmt.Errorf("must be non-negative"))
	}

	return nil
}

func (v *Validator) validateAgents() error {
	for name, agent := range v.cfg.AgentRegistry.GetAll() {
		if !v.cfg.LLMProviderRegistry.Has(agent.LLMProvider) {
			return NewValidationError("agent", name, "llm_provider", fmt.Errorf("LLM provider '%s' not found", agent.LLMProvider))
		}
		if agent.MaxTokens < 1 {
			return NewValidationError("agent", name, "max_tokens", fmt.Errorf("must be at least 1"))
		}
		if agent.Temperature < 0 || agent.Temperature > 2 {
			return NewValidationError("agent", name, "temperature", fmt.Errorf("must be in [0, 2]"))
		}
	}

	return nil
}

func (v *Validator) validateRubrics() error {
	for id, rubric := range v.cfg.RubricRegistry.GetAll() {
		if len(rubric.Dimensions) == 0 {
			return NewValidationError("rubric", id, "dimensions", fmt.Errorf("at least one dimension required"))
		}
		seen := make(map[string]bool, len(rubric.Dimensions))
		for _, dim := range rubric.Dimensions {
			if dim.Name == "" {
				return NewValidationError("rubric", id, "dimensions[].name", fmt.Errorf("name required"))
			}
			if seen[dim.Name] {
				return NewValidationError("rubric", id, "dimensions[].name", fmt.Errorf("duplicate dimension '%s'", dim.Name))
			}
			seen[dim.Name] = true
			if dim.Weight < 0 {
				return NewValidationError("rubric", id, fmt.Sprintf("dimensions[%s].weight", dim.Name), fmt.Errorf("must be non-negative"))
			}
		}
		if rubric.PassThreshold < 0 || rubric.PassThreshold > 1 {
			return NewValidationError("rubric", id, "pass_threshold", fmt.Errorf("must be in [0, 1]"))
		}
	}

	return nil
}

func (v *Validator) validateScenarios() error {
	for id, scenario := range v.cfg.ScenarioRegistry.GetAll() {
		if scenario.Category == "" {
			return NewValidationError("scenario", id, "category", fmt.Errorf("required"))
		}
		if scenario.MaxTurns < 1 {
			return NewValidationError("scenario", id, "max_turns", fmt.Errorf("must be at least 1"))
		}
		if scenario.MaxTotalTokens < 1 {
			return NewValidationError("scenario", id, "max_total_tokens", fmt.Errorf("must be at least 1"))
		}
		if scenario.TimeoutSeconds <= 0 {
			return NewValidationError("scenario", id, "timeout_seconds", fmt.Errorf("must be positive"))
		}
		if scenario.ToolFailureRate < 0 || scenario.ToolFailureRate > 1 {
			return NewValidationError("scenario", id, "tool_failure_rate", fmt.Errorf("must be in [0, 1]"))
		}
		for _, turn := range scenario.AdversarialTurns {
			if turn < 0 {
				return NewValidationError("scenario", id, "adversarial_turns", fmt.Errorf("turn index must be non-negative"))
			}
		}
		if scenario.RubricID != "" && !v.cfg.RubricRegistry.Has(scenario.RubricID) {
			return NewValidationError("scenario", id, "rubric_id", fmt.Errorf("rubric '%s' not found", scenario.RubricID))
		}
		if scenario.UserLLMProvider != "" && !v.cfg.LLMProviderRegistry.Has(scenario.UserLLMProvider) {
			return NewValidationError("scenario", id, "user_llm_provider", fmt.Errorf("LLM provider '%s' not found", scenario.UserLLMProvider))
		}
	}

	return nil
}

func (v *Validator) validateLLMProviders() error {
	referenced := v.collectReferencedLLMProviders()

	for name, provider := range v.cfg.LLMProviderRegistry.GetAll() {
		if !provider.Type.IsValid() {
			return NewValidationError("llm_provider", name, "type", fmt.Errorf("invalid provider type: %s", provider.Type))
		}
		if provider.Model == "" {
			return NewValidationError("llm_provider", name, "model", fmt.Errorf("model required"))
		}

		// Only validate env-backed credentials for providers an
		// agent/default actually references — an unused built-in
		// provider entry shouldn't block startup.
		if referenced[name] {
			if provider.APIKeyEnv != "" {
				if value := os.Getenv(provider.APIKeyEnv); value == "" {
					return NewValidationError("llm_provider", name, "api_key_env", fmt.Errorf("environment variable %s is not set", provider.APIKeyEnv))
				}
			}
			if provider.Type == LLMProviderTypeVertexAI {
				if provider.ProjectEnv != "" && os.Getenv(provider.ProjectEnv) == "" {
					return NewValidationError("llm_provider", name, "project_env", fmt.Errorf("environment variable %s is not set", provider.ProjectEnv))
				}
				if provider.LocationEnv != "" && os.Getenv(provider.LocationEnv) == "" {
					return NewValidationError("llm_provider", name, "location_env", fmt.Errorf("environment variable %s is not set", provider.LocationEnv))
				}
			}
		}

		if provider.MaxToolResultTokens < 1000 {
			return NewValidationError("llm_provider", name, "max_tool_result_tokens", fmt.Errorf("must be at least 1000"))
		}

		if provider.Type == LLMProviderTypeGoogle {
			for tool := range provider.NativeTools {
				if !tool.IsValid() {
					return NewValidationError("llm_provider", name, "native_tools", fmt.Errorf("invalid native tool: %s", tool))
				}
			}
		}
	}

	return nil
}

// collectReferencedLLMProviders returns the set of LLM provider names
// actually referenced by an agent-under-test configuration or by the
// system defaults.
func (v *Validator) collectReferencedLLMProviders() map[string]bool {
	referenced := make(map[string]bool)

	for _, agent := range v.cfg.AgentRegistry.GetAll() {
		if agent.LLMProvider != "" {
			referenced[agent.LLMProvider] = true
		}
	}
	for _, scenario := range v.cfg.ScenarioRegistry.GetAll() {
		if scenario.UserLLMProvider != "" {
			referenced[scenario.UserLLMProvider] = true
		}
	}
	if v.cfg.Defaults != nil {
		if v.cfg.Defaults.LLMProvider != "" {
			referenced[v.cfg.Defaults.LLMProvider] = true
		}
		if v.cfg.Defaults.JudgeModel != "" {
			referenced[v.cfg.Defaults.JudgeModel] = true
		}
	}

	return referenced
}
