package pipeline

// Topic names carried on the wire. These are stable identifiers, not Go
// types, since topic routing happens by string inside the broker.
const (
	TopicConversationCompleted = "agent.conversation.completed"
	TopicEvaluationCompleted   = "evaluation.score.completed"
	TopicMetricsAggregated     = "metrics.aggregated"
	TopicPipelineErrors        = "pipeline.errors"
)

// NewConversationCompletedEnvelope builds the envelope emitted when a
// simulation conversation finishes.
func NewConversationCompletedEnvelope(evalRunID, conversationID string, turnCount, totalTokens int, totalLatencyMS float64, status string) EventEnvelope {
	return EventEnvelope{
		Version:   1,
		EventType: TopicConversationCompleted,
		Payload: map[string]any{
			"event_id":         newEventID(),
			"timestamp":        nowISO8601(),
			"eval_run_id":      evalRunID,
			"conversation_id":  conversationID,
			"turn_count":       turnCount,
			"total_tokens":     totalTokens,
			"total_latency_ms": totalLatencyMS,
			"status":           status,
		},
	}
}

// NewEvaluationScoreCompletedEnvelope builds the envelope emitted when one
// evaluator finishes scoring one conversation.
func NewEvaluationScoreCompletedEnvelope(evalRunID, conversationID, evaluationID, evaluatorType string, overallScore float64, dimensionScores map[string]float64) EventEnvelope {
	return EventEnvelope{
		Version:   1,
		EventType: TopicEvaluationCompleted,
		Payload: map[string]any{
			"event_id":         newEventID(),
			"timestamp":        nowISO8601(),
			"eval_run_id":      evalRunID,
			"conversation_id":  conversationID,
			"evaluation_id":    evaluationID,
			"evaluator_type":   evaluatorType,
			"overall_score":    overallScore,
			"dimension_scores": dimensionScores,
		},
	}
}

// NewMetricsAggregatedEnvelope builds the envelope emitted once per metric
// name when a run's metrics are aggregated.
func NewMetricsAggregatedEnvelope(evalRunID, metricName string, mean, median, stdDev, minVal, maxVal float64, sampleCount int) EventEnvelope {
	return EventEnvelope{
		Version:   1,
		EventType: TopicMetricsAggregated,
		Payload: map[string]any{
			"event_id":     newEventID(),
			"timestamp":    nowISO8601(),
			"eval_run_id":  evalRunID,
			"metric_name":  metricName,
			"mean":         mean,
			"median":       median,
			"std_dev":      stdDev,
			"min_val":      minVal,
			"max_val":      maxVal,
			"sample_count": sampleCount,
		},
	}
}

// NewDeadLetterEnvelope builds the envelope published to the DLQ topic
// when a consumer exhausts its retries on a message.
func NewDeadLetterEnvelope(originalTopic, errMsg, originalValue string) EventEnvelope {
	return EventEnvelope{
		Version:   1,
		EventType: "pipeline.dead_letter",
		Payload: map[string]any{
			"original_topic": originalTopic,
			"error":          errMsg,
			"original_value": originalValue,
		},
	}
}
