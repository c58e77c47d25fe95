package pipeline

import (
	"context"
	"log/slog"
)

// EvaluationDispatcher enqueues per-conversation evaluation work. Satisfied
// by the evaluation service; kept narrow so this consumer doesn't need to
// know about runs, scenarios, or rubrics.
type EvaluationDispatcher interface {
	DispatchEvaluation(ctx context.Context, conversationID string) error
}

// NewConversationCompletedHandler builds the HandlerFunc for the
// agent.conversation.completed topic: for conversations that finished
// successfully, it dispatches per-conversation evaluation work.
func NewConversationCompletedHandler(dispatcher EvaluationDispatcher) HandlerFunc {
	return func(ctx context.Context, envelope EventEnvelope) error {
		conversationID, _ := envelope.Payload["conversation_id"].(string)
		status, _ := envelope.Payload["status"].(string)

		if status != "completed" {
			slog.Debug("conversation skipped", "conversation_id", conversationID, "status", status)
			return nil
		}

		slog.Info("conversation event received", "conversation_id", conversationID)
		return dispatcher.DispatchEvaluation(ctx, conversationID)
	}
}
