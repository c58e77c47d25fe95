package config

// Defaults contains system-wide default configurations applied when an
// eval run's request doesn't specify its own values.
type Defaults struct {
	// LLMProvider is the default provider used for both the agent under
	// test and the model judge when a scenario/agent doesn't override it.
	LLMProvider string `yaml:"llm_provider,omitempty"`

	// JudgeModel is the default LLM provider used for model-judge scoring.
	JudgeModel string `yaml:"judge_model,omitempty"`

	// NumConversations is the default conversation count per eval run.
	NumConversations int `yaml:"num_conversations,omitempty" validate:"omitempty,min=1"`

	// RubricID is the default rubric applied when a scenario doesn't name
	// one.
	RubricID string `yaml:"rubric_id,omitempty"`
}
