package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_EvalRunLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	run, err := s.CreateEvalRun(ctx, EvalRun{AgentConfigID: "a", ScenarioID: "s", NumConversations: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, EvalRunStatusPending, run.Status)

	require.NoError(t, s.UpdateEvalRunStatus(ctx, run.ID, EvalRunStatusRunning, ""))
	got, err := s.GetEvalRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, EvalRunStatusRunning, got.Status)
	assert.NotNil(t, got.StartedAt)
}

func TestMemoryStore_GetEvalRun_NotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetEvalRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_MetricAggregationFeedsEvaluationConsumer(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	run, err := s.CreateEvalRun(ctx, EvalRun{AgentConfigID: "a", ScenarioID: "s", NumConversations: 2})
	require.NoError(t, err)

	conv1, err := s.CreateConversation(ctx, Conversation{EvalRunID: run.ID, SequenceNum: 0, Status: "completed"})
	require.NoError(t, err)
	conv2, err := s.CreateConversation(ctx, Conversation{EvalRunID: run.ID, SequenceNum: 1, Status: "completed"})
	require.NoError(t, err)

	total, err := s.CompletedConversationCount(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	evaluated, err := s.EvaluatedConversationCount(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, evaluated)

	_, err = s.CreateEvaluation(ctx, Evaluation{ConversationID: conv1.ID, EvaluatorType: "rubric"})
	require.NoError(t, err)
	_, err = s.CreateEvaluation(ctx, Evaluation{ConversationID: conv2.ID, EvaluatorType: "rubric"})
	require.NoError(t, err)

	evaluated, err = s.EvaluatedConversationCount(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, evaluated)

	_, err = s.RecordMetric(ctx, Metric{ConversationID: conv1.ID, MetricName: "tokens_per_turn", Value: 10})
	require.NoError(t, err)
	_, err = s.RecordMetric(ctx, Metric{ConversationID: conv2.ID, MetricName: "tokens_per_turn", Value: 30})
	require.NoError(t, err)

	vals, err := s.MetricValuesByName(ctx, run.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []float64{10, 30}, vals["tokens_per_turn"])
}

func TestMemoryStore_RecordMetric_UpsertsOnDuplicateName(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	conv, err := s.CreateConversation(ctx, Conversation{EvalRunID: "run-1"})
	require.NoError(t, err)

	first, err := s.RecordMetric(ctx, Metric{ConversationID: conv.ID, MetricName: "avg_latency_ms", Value: 100})
	require.NoError(t, err)

	second, err := s.RecordMetric(ctx, Metric{ConversationID: conv.ID, MetricName: "avg_latency_ms", Value: 200})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	vals, err := s.MetricValuesByName(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []float64{200}, vals["avg_latency_ms"])
}
