package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axionis47/agentprobe-go/pkg/llmclient"
	"github.com/axionis47/agentprobe-go/pkg/persona"
	"github.com/axionis47/agentprobe-go/pkg/sandbox"
	"github.com/axionis47/agentprobe-go/pkg/transcript"
	"github.com/axionis47/agentprobe-go/pkg/usersim"
)

// S1: Goal early-exit.
func TestRun_GoalEarlyExit(t *testing.T) {
	agentLLM := llmclient.NewMock(&llmclient.ChatResponse{Content: "Try X"})
	userLLM := llmclient.NewMock(&llmclient.ChatResponse{Content: "Great, that worked! [GOAL_ACHIEVED]"})

	env := persona.SimulationEnvironment{MaxTurns: 5, MaxTotalTokens: 50000, TimeoutSeconds: 120}
	o := New(
		agentLLM,
		persona.AgentPersona{Name: "agent"},
		usersim.New(userLLM, persona.UserPersona{}, "Help me"),
		sandbox.New(env, nil),
		env,
		nil,
	)

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, transcript.StatusGoalAchieved, result.Status)
	assert.Equal(t, 2, result.UserTurnCount)
	assistantTurns := 0
	for _, turn := range result.Turns {
		if turn.Role == transcript.RoleAssistant {
			assistantTurns++
		}
	}
	assert.Equal(t, 1, assistantTurns)
}

// S2: Tool round-trip.
func TestRun_ToolRoundTrip(t *testing.T) {
	agentLLM := llmclient.NewMock(
		&llmclient.ChatResponse{
			Content: "",
			ToolCalls: []llmclient.ToolCall{
				{ID: "c1", Name: "get_weather", Arguments: map[string]any{"city": "London"}},
			},
		},
		&llmclient.ChatResponse{Content: "It is sunny."},
	)
	userLLM := llmclient.NewMock(&llmclient.ChatResponse{Content: "unused because initial message is set"})

	env := persona.SimulationEnvironment{MaxTurns: 1, MaxTotalTokens: 50000, TimeoutSeconds: 120}
	o := New(
		agentLLM,
		persona.AgentPersona{Name: "agent"},
		usersim.New(userLLM, persona.UserPersona{}, "What's the weather in London?"),
		sandbox.New(env, nil),
		env,
		nil,
	)

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Turns, 3)

	assert.Equal(t, transcript.RoleUser, result.Turns[0].Role)
	assert.Equal(t, transcript.RoleAssistant, result.Turns[1].Role)
	require.Len(t, result.Turns[1].ToolCalls, 1)
	require.Len(t, result.Turns[1].ToolResults, 1)
	assert.False(t, result.Turns[1].ToolResults[0].IsError)
	assert.Contains(t, result.Turns[1].ToolResults[0].Content, "temperature")

	assert.Equal(t, transcript.RoleAssistant, result.Turns[2].Role)
	assert.Equal(t, "It is sunny.", result.Turns[2].Content)

	assert.Equal(t, transcript.StatusCompleted, result.Status)
}

func TestRun_MaxTurnsZero_EmptyCompletedResult(t *testing.T) {
	env := persona.SimulationEnvironment{MaxTurns: 0}
	o := New(
		llmclient.NewMock(),
		persona.AgentPersona{},
		usersim.New(llmclient.NewMock(), persona.UserPersona{}, ""),
		sandbox.New(env, nil),
		env,
		nil,
	)

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, transcript.StatusCompleted, result.Status)
	assert.Empty(t, result.Turns)
	assert.Equal(t, 0, result.TotalTokens())
}

func TestRun_TokenBudgetStopsLoop(t *testing.T) {
	agentLLM := llmclient.NewMock(&llmclient.ChatResponse{Content: "ok", InputTokens: 100, OutputTokens: 100})
	userLLM := llmclient.NewMock(&llmclient.ChatResponse{Content: "go on"}, &llmclient.ChatResponse{Content: "go on"})

	env := persona.SimulationEnvironment{MaxTurns: 10, MaxTotalTokens: 150, TimeoutSeconds: 120}
	o := New(agentLLM, persona.AgentPersona{}, usersim.New(userLLM, persona.UserPersona{}, "start"), sandbox.New(env, nil), env, nil)

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, transcript.StatusCompleted, result.Status)
	assert.Equal(t, 1, result.UserTurnCount)
	assert.GreaterOrEqual(t, result.TotalTokens(), 150)
}

func TestRun_LLMErrorSetsFailedStatus(t *testing.T) {
	agentLLM := llmclient.NewMock()
	agentLLM.QueueError(assert.AnError)
	userLLM := llmclient.NewMock(&llmclient.ChatResponse{Content: "hello"})

	env := persona.SimulationEnvironment{MaxTurns: 3, TimeoutSeconds: 120}
	o := New(agentLLM, persona.AgentPersona{}, usersim.New(userLLM, persona.UserPersona{}, ""), sandbox.New(env, nil), env, nil)

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, transcript.StatusFailed, result.Status)
	assert.NotEmpty(t, result.ErrorMessage)
	// Partial turns (the user turn) are retained.
	assert.Len(t, result.Turns, 1)
}
