package config

// Config is the umbrella configuration object that encapsulates all
// registries, defaults, and configuration state. This is the primary
// object returned by Initialize() and used throughout the application.
type Config struct {
	configDir string // Configuration directory path (for reference)

	// System-wide defaults
	Defaults  *Defaults
	Queue     *QueueConfig
	Retention *RetentionConfig

	// Component registries
	AgentRegistry       *AgentRegistry
	ScenarioRegistry    *ScenarioRegistry
	RubricRegistry      *RubricRegistry
	LLMProviderRegistry *LLMProviderRegistry
}

// Initialize is defined in loader.go

// ConfigStats contains statistics about loaded configuration
type ConfigStats struct {
	Agents       int
	Scenarios    int
	Rubrics      int
	LLMProviders int
}

// Stats returns configuration statistics for logging/monitoring
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		Agents:       len(c.AgentRegistry.GetAll()),
		Scenarios:    len(c.ScenarioRegistry.GetAll()),
		Rubrics:      len(c.RubricRegistry.GetAll()),
		LLMProviders: len(c.LLMProviderRegistry.GetAll()),
	}
}

// ConfigDir returns the configuration directory path
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetAgent retrieves an agent-under-test configuration by name.
// This is a convenience method that wraps AgentRegistry.Get().
func (c *Config) GetAgent(name string) (*AgentUnderTestConfig, error) {
	return c.AgentRegistry.Get(name)
}

// GetScenario retrieves a scenario configuration by ID.
// This is a convenience method that wraps ScenarioRegistry.Get().
func (c *Config) GetScenario(scenarioID string) (*ScenarioConfig, error) {
	return c.ScenarioRegistry.Get(scenarioID)
}

// GetRubric retrieves a rubric configuration by ID.
// This is a convenience method that wraps RubricRegistry.Get().
func (c *Config) GetRubric(rubricID string) (*RubricConfig, error) {
	return c.RubricRegistry.Get(rubricID)
}

// GetLLMProvider retrieves an LLM provider configuration by name.
// This is a convenience method that wraps LLMProviderRegistry.Get().
func (c *Config) GetLLMProvider(name string) (*LLMProviderConfig, error) {
	return c.LLMProviderRegistry.Get(name)
}
