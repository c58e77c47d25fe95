package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// EvalYAMLConfig represents the complete eval.yaml file structure: agent
// under test configurations, scenarios, the system-wide defaults, queue,
// and retention settings.
type EvalYAMLConfig struct {
	Agents    map[string]AgentUnderTestConfig `yaml:"agents"`
	Scenarios map[string]ScenarioConfig       `yaml:"scenarios"`
	Defaults  *Defaults                       `yaml:"defaults"`
	Queue     *QueueConfig                    `yaml:"queue"`
	Retention *RetentionConfig                `yaml:"retention"`
}

// RubricsYAMLConfig represents the complete rubrics.yaml file structure.
type RubricsYAMLConfig struct {
	Rubrics map[string]RubricConfig `yaml:"rubrics"`
}

// LLMProvidersYAMLConfig represents the complete llm-providers.yaml file structure
type LLMProvidersYAMLConfig struct {
	LLMProviders map[string]LLMProviderConfig `yaml:"llm_providers"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load YAML files from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in + user-defined configurations
//  5. Build in-memory registries
//  6. Apply default values
//  7. Validate all configuration
//  8. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"agents", stats.Agents,
		"scenarios", stats.Scenarios,
		"rubrics", stats.Rubrics,
		"llm_providers", stats.LLMProviders)

	return cfg, nil
}

// load is the internal loader (not exported)
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{
		configDir: configDir,
	}

	evalConfig, err := loader.loadEvalYAML()
	if err != nil {
		return nil, NewLoadError("eval.yaml", err)
	}

	rubrics, err := loader.loadRubricsYAML()
	if err != nil {
		return nil, NewLoadError("rubrics.yaml", err)
	}

	llmProviders, err := loader.loadLLMProvidersYAML()
	if err != nil {
		return nil, NewLoadError("llm-providers.yaml", err)
	}

	builtin := GetBuiltinConfig()

	agents := mergeAgents(evalConfig.Agents)
	scenarios := mergeScenarios(evalConfig.Scenarios)
	rubricsMerged := mergeRubrics(builtin.DefaultRubric, rubrics)
	llmProvidersMerged := mergeLLMProviders(builtin.LLMProviders, llmProviders)

	agentRegistry := NewAgentRegistry(agents)
	scenarioRegistry := NewScenarioRegistry(scenarios)
	rubricRegistry := NewRubricRegistry(rubricsMerged)
	llmProviderRegistry := NewLLMProviderRegistry(llmProvidersMerged)

	defaults := evalConfig.Defaults
	if defaults == nil {
		defaults = &Defaults{}
	}
	if defaults.RubricID == "" {
		defaults.RubricID = "default"
	}
	if defaults.NumConversations == 0 {
		defaults.NumConversations = 5
	}

	// Resolve queue config (merge user YAML with built-in defaults).
	// Start with defaults, then merge user config on top to preserve
	// unset defaults.
	queueConfig := DefaultQueueConfig()
	if evalConfig.Queue != nil {
		if err := mergo.Merge(queueConfig, evalConfig.Queue, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge queue config: %w", err)
		}
	}

	retentionConfig := DefaultRetentionConfig()
	if evalConfig.Retention != nil {
		if err := mergo.Merge(retentionConfig, evalConfig.Retention, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge retention config: %w", err)
		}
	}

	return &Config{
		configDir:           configDir,
		Defaults:            defaults,
		Queue:               queueConfig,
		Retention:           retentionConfig,
		AgentRegistry:       agentRegistry,
		ScenarioRegistry:    scenarioRegistry,
		RubricRegistry:      rubricRegistry,
		LLMProviderRegistry: llmProviderRegistry,
	}, nil
}

// validate performs comprehensive validation on loaded configuration
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand ${VAR}/$VAR references before parsing. Missing variables
	// expand to empty string — validation catches required fields left
	// empty this way.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadEvalYAML() (*EvalYAMLConfig, error) {
	var cfg EvalYAMLConfig
	cfg.Agents = make(map[string]AgentUnderTestConfig)
	cfg.Scenarios = make(map[string]ScenarioConfig)

	if err := l.loadYAML("eval.yaml", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *configLoader) loadRubricsYAML() (map[string]RubricConfig, error) {
	var cfg RubricsYAMLConfig
	cfg.Rubrics = make(map[string]RubricConfig)

	if err := l.loadYAML("rubrics.yaml", &cfg); err != nil {
		return nil, err
	}
	return cfg.Rubrics, nil
}

func (l *configLoader) loadLLMProvidersYAML() (map[string]LLMProviderConfig, error) {
	var cfg LLMProvidersYAMLConfig
	cfg.LLMProviders = make(map[string]LLMProviderConfig)

	if err := l.loadYAML("llm-providers.yaml", &cfg); err != nil {
		return nil, err
	}
	return cfg.LLMProviders, nil
}
