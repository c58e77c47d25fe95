package pipeline

import (
	"context"
	"log/slog"

	"github.com/axionis47/agentprobe-go/pkg/statistics"
)

// RunMetricsStore is the narrow read surface the evaluation-completion
// consumer needs: how many conversations in a run finished, how many of
// those have at least one evaluation recorded, and the raw per-name metric
// samples to aggregate once they're all evaluated.
type RunMetricsStore interface {
	CompletedConversationCount(ctx context.Context, evalRunID string) (int, error)
	EvaluatedConversationCount(ctx context.Context, evalRunID string) (int, error)
	MetricValuesByName(ctx context.Context, evalRunID string) (map[string][]float64, error)
}

// NewEvaluationScoreCompletedHandler builds the HandlerFunc for the
// evaluation.score.completed topic. Every time one conversation's
// evaluation finishes, it checks whether the whole run is now evaluated;
// once it is, it aggregates every metric name and publishes one
// metrics.aggregated event per name.
func NewEvaluationScoreCompletedHandler(store RunMetricsStore, producer EventPublisher) HandlerFunc {
	return func(ctx context.Context, envelope EventEnvelope) error {
		evalRunID, _ := envelope.Payload["eval_run_id"].(string)
		if evalRunID == "" {
			return nil
		}

		total, err := store.CompletedConversationCount(ctx, evalRunID)
		if err != nil {
			return err
		}
		evaluated, err := store.EvaluatedConversationCount(ctx, evalRunID)
		if err != nil {
			return err
		}

		if evaluated < total {
			slog.Debug("evaluation incomplete", "eval_run_id", evalRunID, "evaluated", evaluated, "total", total)
			return nil
		}

		slog.Info("aggregating metrics", "eval_run_id", evalRunID, "conversation_count", total)

		metricGroups, err := store.MetricValuesByName(ctx, evalRunID)
		if err != nil {
			return err
		}

		for name, values := range metricGroups {
			agg := statistics.AggregateMetricValues(name, values)
			envelope := NewMetricsAggregatedEnvelope(evalRunID, agg.MetricName, agg.Mean, agg.Median, agg.StdDev, agg.MinVal, agg.MaxVal, agg.SampleCount)
			if err := producer.Produce(ctx, TopicMetricsAggregated, envelope, evalRunID); err != nil {
				return err
			}
		}
		return nil
	}
}
