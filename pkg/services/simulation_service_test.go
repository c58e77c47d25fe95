package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axionis47/agentprobe-go/pkg/llmclient"
	"github.com/axionis47/agentprobe-go/pkg/persona"
	"github.com/axionis47/agentprobe-go/pkg/pipeline"
	"github.com/axionis47/agentprobe-go/pkg/store"
)

func TestSimulationService_RunEval_PersistsEachConversation(t *testing.T) {
	llm := llmclient.NewMock()
	llm.Func = func(ctx context.Context, req llmclient.ChatRequest) (*llmclient.ChatResponse, error) {
		return &llmclient.ChatResponse{Content: "hello there"}, nil
	}

	memStore := store.NewMemoryStore()
	ctx := context.Background()
	run, err := memStore.CreateEvalRun(ctx, store.EvalRun{AgentConfigID: "a", ScenarioID: "s", NumConversations: 2})
	require.NoError(t, err)

	svc := NewSimulationService(llm, memStore, nil, nil)
	spec := ScenarioSpec{
		AgentPersona:   persona.AgentPersona{Name: "agent", ModelID: "m", MaxTokens: 100},
		UserPersona:    persona.UserPersona{Personality: "curious", Expertise: "novice", Goal: "get help"},
		InitialMessage: "Hi, I need help.",
		Environment:    persona.SimulationEnvironment{MaxTurns: 1, MaxTotalTokens: 10000, TimeoutSeconds: 30},
	}

	err = svc.RunEval(ctx, run.ID, 2, spec)
	require.NoError(t, err)

	convs, err := memStore.ConversationsByEvalRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, convs, 2)

	got, err := memStore.GetEvalRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, store.EvalRunStatusCompleted, got.Status)
}

func TestSimulationService_RunEval_RejectsNonPositiveCount(t *testing.T) {
	svc := NewSimulationService(nil, store.NewMemoryStore(), nil, nil)
	err := svc.RunEval(context.Background(), "run-1", 0, ScenarioSpec{})
	assert.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestSimulationService_RunEval_PublishesCompletionEvents(t *testing.T) {
	llm := llmclient.NewMock()
	llm.Func = func(ctx context.Context, req llmclient.ChatRequest) (*llmclient.ChatResponse, error) {
		return &llmclient.ChatResponse{Content: "ok"}, nil
	}

	memStore := store.NewMemoryStore()
	ctx := context.Background()
	run, err := memStore.CreateEvalRun(ctx, store.EvalRun{AgentConfigID: "a", ScenarioID: "s"})
	require.NoError(t, err)

	producer := &recordingPublisher{}
	svc := NewSimulationService(llm, memStore, producer, nil)

	spec := ScenarioSpec{
		AgentPersona: persona.AgentPersona{Name: "agent", ModelID: "m", MaxTokens: 100},
		UserPersona:  persona.UserPersona{Personality: "curious", Expertise: "novice", Goal: "done"},
		Environment:  persona.SimulationEnvironment{MaxTurns: 1, MaxTotalTokens: 10000, TimeoutSeconds: 30},
	}
	require.NoError(t, svc.RunEval(ctx, run.ID, 1, spec))
	assert.Len(t, producer.calls, 1)
	assert.Equal(t, pipeline.TopicConversationCompleted, producer.calls[0].topic)
}

type recordingPublisher struct {
	calls []publishedEnvelope
}

type publishedEnvelope struct {
	topic    string
	envelope pipeline.EventEnvelope
}

func (p *recordingPublisher) Produce(ctx context.Context, topic string, envelope pipeline.EventEnvelope, key string) error {
	p.calls = append(p.calls, publishedEnvelope{topic: topic, envelope: envelope})
	return nil
}
