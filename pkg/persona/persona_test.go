package persona

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserPersona_BuildSystemPrompt_IncludesSentinels(t *testing.T) {
	p := UserPersona{
		Personality: "impatient",
		Expertise:   "novice",
		Goal:        "get a refund",
		ModelID:     "gpt-4o",
	}
	prompt := p.BuildSystemPrompt()

	assert.Contains(t, prompt, SentinelGoalAchieved)
	assert.Contains(t, prompt, SentinelFrustrated)
	assert.True(t, strings.Contains(prompt, p.Personality))
	assert.True(t, strings.Contains(prompt, p.Goal))
}

func TestUserPersona_BuildSystemPrompt_PureFunction(t *testing.T) {
	p := UserPersona{Personality: "calm", Expertise: "expert", Goal: "debug a crash"}
	assert.Equal(t, p.BuildSystemPrompt(), p.BuildSystemPrompt())
}

func TestDefaultEnvironment(t *testing.T) {
	env := DefaultEnvironment()
	assert.Equal(t, 10, env.MaxTurns)
	assert.Equal(t, 50000, env.MaxTotalTokens)
	assert.Equal(t, 120.0, env.TimeoutSeconds)
	assert.False(t, env.IsAdversarialTurn(0))
}

func TestSimulationEnvironment_IsAdversarialTurn(t *testing.T) {
	env := SimulationEnvironment{AdversarialTurns: map[int]struct{}{2: {}}}
	assert.True(t, env.IsAdversarialTurn(2))
	assert.False(t, env.IsAdversarialTurn(3))
}
