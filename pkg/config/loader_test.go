package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	configDir := setupTestConfigDir(t)

	t.Setenv("GOOGLE_API_KEY", "test-key")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("XAI_API_KEY", "test-key")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("GOOGLE_CLOUD_LOCATION", "us-central1")

	ctx := context.Background()
	cfg, err := Initialize(ctx, configDir)

	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.NotNil(t, cfg.AgentRegistry)
	assert.NotNil(t, cfg.ScenarioRegistry)
	assert.NotNil(t, cfg.RubricRegistry)
	assert.NotNil(t, cfg.LLMProviderRegistry)
	assert.NotNil(t, cfg.Defaults)

	// Built-in LLM providers and default rubric always load
	assert.True(t, cfg.LLMProviderRegistry.Has("google-default"))
	assert.True(t, cfg.RubricRegistry.Has("default"))

	// User-defined entries from eval.yaml are present
	assert.True(t, cfg.AgentRegistry.Has("support-bot"))
	assert.True(t, cfg.ScenarioRegistry.Has("refund-request"))

	stats := cfg.Stats()
	assert.Equal(t, 1, stats.Agents)
	assert.Equal(t, 1, stats.Scenarios)
	assert.GreaterOrEqual(t, stats.Rubrics, 1)
	assert.Greater(t, stats.LLMProviders, 0)

	assert.Equal(t, "default", cfg.Defaults.RubricID)
	assert.Equal(t, 5, cfg.Defaults.NumConversations)
}

func TestInitializeConfigNotFound(t *testing.T) {
	ctx := context.Background()
	_, err := Initialize(ctx, "/nonexistent/directory")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestInitializeInvalidYAML(t *testing.T) {
	configDir := t.TempDir()

	err := os.WriteFile(filepath.Join(configDir, "eval.yaml"), []byte("{{{"), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(configDir, "rubrics.yaml"), []byte("rubrics: {}"), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(configDir, "llm-providers.yaml"), []byte("llm_providers: {}"), 0644)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = Initialize(ctx, configDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestInitializeValidationFailure(t *testing.T) {
	configDir := t.TempDir()

	invalidConfig := `
agents:
  support-bot:
    llm_provider: "nonexistent-provider"
    max_tokens: 1024

scenarios: {}
`
	err := os.WriteFile(filepath.Join(configDir, "eval.yaml"), []byte(invalidConfig), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(configDir, "rubrics.yaml"), []byte("rubrics: {}"), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(configDir, "llm-providers.yaml"), []byte("llm_providers: {}"), 0644)
	require.NoError(t, err)

	t.Setenv("GOOGLE_API_KEY", "test-key")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("XAI_API_KEY", "test-key")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("GOOGLE_CLOUD_LOCATION", "us-central1")

	ctx := context.Background()
	_, err = Initialize(ctx, configDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, err.Error(), "nonexistent-provider")
}

func TestLoadEvalYAML(t *testing.T) {
	configDir := t.TempDir()

	evalYAML := `
agents:
  support-bot:
    description: "Customer support agent"
    llm_provider: "anthropic-default"
    max_tokens: 4096
    temperature: 0.3

scenarios:
  refund-request:
    category: "billing"
    user_personality: "impatient"
    user_expertise: "novice"
    user_goal: "get a refund"
    max_turns: 8
    max_total_tokens: 20000
    timeout_seconds: 90
    tool_failure_rate: 0.1
    adversarial_turns: [2, 5]
    rubric_id: "default"

defaults:
  llm_provider: "anthropic-default"
  num_conversations: 10
`
	err := os.WriteFile(filepath.Join(configDir, "eval.yaml"), []byte(evalYAML), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(configDir, "rubrics.yaml"), []byte("rubrics: {}"), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(configDir, "llm-providers.yaml"), []byte("llm_providers: {}"), 0644)
	require.NoError(t, err)

	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg, err := Initialize(context.Background(), configDir)
	require.NoError(t, err)

	agent, err := cfg.GetAgent("support-bot")
	require.NoError(t, err)
	assert.Equal(t, "anthropic-default", agent.LLMProvider)
	assert.Equal(t, 4096, agent.MaxTokens)

	scenario, err := cfg.GetScenario("refund-request")
	require.NoError(t, err)
	assert.Equal(t, "billing", scenario.Category)
	assert.Equal(t, []int{2, 5}, scenario.AdversarialTurns)

	assert.Equal(t, 10, cfg.Defaults.NumConversations)
}

func TestLoadRubricsYAML(t *testing.T) {
	configDir := setupTestConfigDir(t)

	rubricsYAML := `
rubrics:
  strict:
    description: "Strict grading rubric"
    pass_threshold: 0.9
    dimensions:
      - name: "safety"
        weight: 1.0
`
	err := os.WriteFile(filepath.Join(configDir, "rubrics.yaml"), []byte(rubricsYAML), 0644)
	require.NoError(t, err)

	t.Setenv("GOOGLE_API_KEY", "test-key")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("XAI_API_KEY", "test-key")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("GOOGLE_CLOUD_LOCATION", "us-central1")

	cfg, err := Initialize(context.Background(), configDir)
	require.NoError(t, err)

	rubric, err := cfg.GetRubric("strict")
	require.NoError(t, err)
	assert.Equal(t, 0.9, rubric.PassThreshold)

	// The built-in default rubric still loads alongside user rubrics
	assert.True(t, cfg.RubricRegistry.Has("default"))
}

func TestLoadLLMProvidersYAML(t *testing.T) {
	configDir := setupTestConfigDir(t)

	llmYAML := `
llm_providers:
  custom-provider:
    type: "openai"
    model: "gpt-5-mini"
    api_key_env: "CUSTOM_KEY"
    max_tool_result_tokens: 100000
`
	err := os.WriteFile(filepath.Join(configDir, "llm-providers.yaml"), []byte(llmYAML), 0644)
	require.NoError(t, err)

	t.Setenv("GOOGLE_API_KEY", "test-key")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("XAI_API_KEY", "test-key")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("GOOGLE_CLOUD_LOCATION", "us-central1")

	cfg, err := Initialize(context.Background(), configDir)
	require.NoError(t, err)

	provider, err := cfg.GetLLMProvider("custom-provider")
	require.NoError(t, err)
	assert.Equal(t, "gpt-5-mini", provider.Model)

	// Built-in providers still load alongside the custom one
	assert.True(t, cfg.LLMProviderRegistry.Has("anthropic-default"))
}

func TestEnvironmentVariableInterpolationInConfig(t *testing.T) {
	configDir := t.TempDir()

	t.Setenv("TEST_LLM_PROVIDER", "anthropic-default")

	evalYAML := `
agents:
  support-bot:
    llm_provider: "${TEST_LLM_PROVIDER}"
    max_tokens: 1024

scenarios: {}
defaults:
  llm_provider: "${TEST_LLM_PROVIDER}"
`
	err := os.WriteFile(filepath.Join(configDir, "eval.yaml"), []byte(evalYAML), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(configDir, "rubrics.yaml"), []byte("rubrics: {}"), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(configDir, "llm-providers.yaml"), []byte("llm_providers: {}"), 0644)
	require.NoError(t, err)

	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg, err := Initialize(context.Background(), configDir)
	require.NoError(t, err)

	agent, err := cfg.GetAgent("support-bot")
	require.NoError(t, err)
	assert.Equal(t, "anthropic-default", agent.LLMProvider)
}

func TestQueueConfigMerging(t *testing.T) {
	t.Run("no queue section uses built-in defaults", func(t *testing.T) {
		configDir := setupTestConfigDir(t)
		setRequiredProviderEnv(t)

		cfg, err := Initialize(context.Background(), configDir)
		require.NoError(t, err)

		assert.Equal(t, DefaultQueueConfig().WorkerCount, cfg.Queue.WorkerCount)
		assert.Equal(t, DefaultQueueConfig().MaxRetries, cfg.Queue.MaxRetries)
	})

	t.Run("partial queue section overlays onto defaults", func(t *testing.T) {
		configDir := t.TempDir()
		evalYAML := `
agents: {}
scenarios: {}
queue:
  worker_count: 10
`
		err := os.WriteFile(filepath.Join(configDir, "eval.yaml"), []byte(evalYAML), 0644)
		require.NoError(t, err)
		err = os.WriteFile(filepath.Join(configDir, "rubrics.yaml"), []byte("rubrics: {}"), 0644)
		require.NoError(t, err)
		err = os.WriteFile(filepath.Join(configDir, "llm-providers.yaml"), []byte("llm_providers: {}"), 0644)
		require.NoError(t, err)
		setRequiredProviderEnv(t)

		cfg, err := Initialize(context.Background(), configDir)
		require.NoError(t, err)

		assert.Equal(t, 10, cfg.Queue.WorkerCount)
		// Unset fields fall back to the built-in default
		assert.Equal(t, DefaultQueueConfig().MaxRetries, cfg.Queue.MaxRetries)
	})

	t.Run("retention section overlays onto defaults", func(t *testing.T) {
		configDir := t.TempDir()
		evalYAML := `
agents: {}
scenarios: {}
retention:
  eval_run_retention_days: 30
`
		err := os.WriteFile(filepath.Join(configDir, "eval.yaml"), []byte(evalYAML), 0644)
		require.NoError(t, err)
		err = os.WriteFile(filepath.Join(configDir, "rubrics.yaml"), []byte("rubrics: {}"), 0644)
		require.NoError(t, err)
		err = os.WriteFile(filepath.Join(configDir, "llm-providers.yaml"), []byte("llm_providers: {}"), 0644)
		require.NoError(t, err)
		setRequiredProviderEnv(t)

		cfg, err := Initialize(context.Background(), configDir)
		require.NoError(t, err)

		assert.Equal(t, 30, cfg.Retention.EvalRunRetentionDays)
		assert.Equal(t, DefaultRetentionConfig().DeadLetterTTL, cfg.Retention.DeadLetterTTL)
	})
}

func TestLoadAppliesDefaultsFallbacks(t *testing.T) {
	configDir := t.TempDir()
	evalYAML := `
agents: {}
scenarios: {}
`
	err := os.WriteFile(filepath.Join(configDir, "eval.yaml"), []byte(evalYAML), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(configDir, "rubrics.yaml"), []byte("rubrics: {}"), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(configDir, "llm-providers.yaml"), []byte("llm_providers: {}"), 0644)
	require.NoError(t, err)
	setRequiredProviderEnv(t)

	cfg, err := Initialize(context.Background(), configDir)
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Defaults.RubricID)
	assert.Equal(t, 5, cfg.Defaults.NumConversations)
}

func setRequiredProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GOOGLE_API_KEY", "test-key")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("XAI_API_KEY", "test-key")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("GOOGLE_CLOUD_LOCATION", "us-central1")
}

func setupTestConfigDir(t *testing.T) string {
	dir := t.TempDir()

	evalYAML := `
agents:
  support-bot:
    llm_provider: "anthropic-default"
    max_tokens: 2048

scenarios:
  refund-request:
    category: "billing"
    user_personality: "impatient"
    user_expertise: "novice"
    user_goal: "get a refund"
    max_turns: 8
    max_total_tokens: 20000
    timeout_seconds: 90
`
	err := os.WriteFile(filepath.Join(dir, "eval.yaml"), []byte(evalYAML), 0644)
	require.NoError(t, err)

	err = os.WriteFile(filepath.Join(dir, "rubrics.yaml"), []byte("rubrics: {}\n"), 0644)
	require.NoError(t, err)

	err = os.WriteFile(filepath.Join(dir, "llm-providers.yaml"), []byte("llm_providers: {}\n"), 0644)
	require.NoError(t, err)

	return dir
}
