// Package persona holds the immutable configuration records that describe
// the tested agent, the simulated user, and the resource limits a
// conversation runs under. None of these types carry behavior beyond
// constructing a system prompt and the environment's adversarial-turn
// check — everything else is pure data.
package persona

import (
	"fmt"

	"github.com/axionis47/agentprobe-go/pkg/llmclient"
)

// AgentPersona describes the agent under test.
type AgentPersona struct {
	Name         string
	SystemPrompt string
	ModelID      string
	Temperature  float64 // must be in [0, 2]
	MaxTokens    int     // must be >= 1
	Tools        []llmclient.ToolDefinition
}

// UserPersona describes the simulated user. SystemPrompt is intentionally
// not a stored field: it is a pure function of Personality, Expertise,
// and Goal so that two personas built from the same fields always produce
// byte-identical prompts.
type UserPersona struct {
	Personality string
	Expertise   string
	Goal        string
	ModelID     string
}

// Sentinel tokens the user simulator may emit to end a conversation early.
const (
	SentinelGoalAchieved = "[GOAL_ACHIEVED]"
	SentinelFrustrated   = "[FRUSTRATED]"
)

// BuildSystemPrompt renders the user persona's system prompt. It always
// names both sentinel tokens verbatim and instructs the model when to use
// each, per the data model's invariant that a UserPersona's prompt must
// include them.
func (p UserPersona) BuildSystemPrompt() string {
	return fmt.Sprintf(`You are role-playing as a user interacting with an AI assistant.

Personality: %s
Expertise level: %s
Your goal: %s

Stay in character. Respond the way a real user with this personality and
expertise level would. Keep your messages natural and conversational.

If the assistant has fully accomplished your goal, respond with a message
that includes the exact text %s somewhere in it.

If you become frustrated because the assistant is not helping, is going in
circles, or is making things worse, respond with a message that includes
the exact text %s somewhere in it.

Do not explain that you are an AI or a simulation. Do not use the sentinel
tokens unless the corresponding condition is actually true.`,
		p.Personality, p.Expertise, p.Goal, SentinelGoalAchieved, SentinelFrustrated)
}
