package config

// mergeAgents merges user-defined agent-under-test configurations into a
// registry map. There is no built-in set of agent configurations — every
// agent under test is user-defined — so this just copies defensively.
func mergeAgents(userAgents map[string]AgentUnderTestConfig) map[string]*AgentUnderTestConfig {
	result := make(map[string]*AgentUnderTestConfig, len(userAgents))
	for name, agent := range userAgents {
		agentCopy := agent
		result[name] = &agentCopy
	}
	return result
}

// mergeScenarios merges user-defined scenario configurations into a
// registry map.
func mergeScenarios(userScenarios map[string]ScenarioConfig) map[string]*ScenarioConfig {
	result := make(map[string]*ScenarioConfig, len(userScenarios))
	for id, scenario := range userScenarios {
		scenarioCopy := scenario
		result[id] = &scenarioCopy
	}
	return result
}

// mergeRubrics merges the built-in default rubric with user-defined
// rubrics. User-defined rubrics override a built-in rubric with the same
// ID; the built-in rubric is always registered under "default".
func mergeRubrics(builtinDefault RubricConfig, userRubrics map[string]RubricConfig) map[string]*RubricConfig {
	result := make(map[string]*RubricConfig, len(userRubrics)+1)
	defaultCopy := builtinDefault
	result["default"] = &defaultCopy

	for id, rubric := range userRubrics {
		rubricCopy := rubric
		result[id] = &rubricCopy
	}
	return result
}

// mergeLLMProviders merges built-in and user-defined LLM provider configurations.
// User-defined providers override built-in providers with the same name.
func mergeLLMProviders(builtinProviders map[string]LLMProviderConfig, userProviders map[string]LLMProviderConfig) map[string]*LLMProviderConfig {
	result := make(map[string]*LLMProviderConfig)

	// First, add built-in providers
	for name, provider := range builtinProviders {
		providerCopy := provider
		result[name] = &providerCopy
	}

	// Then, override with user-defined providers (or add new ones)
	for name, userProvider := range userProviders {
		providerCopy := userProvider
		result[name] = &providerCopy
	}

	return result
}
