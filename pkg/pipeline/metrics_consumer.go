package pipeline

import (
	"context"
	"log/slog"
)

// RunCompletionStore is the narrow write surface the metrics-aggregation
// consumer needs to mark a run finished.
type RunCompletionStore interface {
	MarkRunCompleted(ctx context.Context, evalRunID string) error
}

// NewMetricsAggregatedHandler builds the HandlerFunc for the
// metrics.aggregated topic: marks the run completed once its metrics have
// been aggregated.
func NewMetricsAggregatedHandler(store RunCompletionStore) HandlerFunc {
	return func(ctx context.Context, envelope EventEnvelope) error {
		evalRunID, _ := envelope.Payload["eval_run_id"].(string)
		if evalRunID == "" {
			return nil
		}

		if err := store.MarkRunCompleted(ctx, evalRunID); err != nil {
			return err
		}
		slog.Info("eval run completed", "eval_run_id", evalRunID)
		return nil
	}
}
