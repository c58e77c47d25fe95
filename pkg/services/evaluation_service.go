package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/axionis47/agentprobe-go/pkg/evaluation"
	"github.com/axionis47/agentprobe-go/pkg/llmclient"
	"github.com/axionis47/agentprobe-go/pkg/pipeline"
	"github.com/axionis47/agentprobe-go/pkg/store"
	"github.com/axionis47/agentprobe-go/pkg/transcript"
)

// ConversationStore is the read/write surface EvaluationService needs.
type ConversationStore interface {
	GetConversation(ctx context.Context, conversationID string) (store.Conversation, error)
	CreateEvaluation(ctx context.Context, eval store.Evaluation) (store.Evaluation, error)
}

// DispatchEvaluation implements pkg/pipeline's EvaluationDispatcher: it
// loads the conversation to recover its eval_run_id, then runs
// EvaluateConversation. The conversation.completed consumer calls this
// directly off the poll loop, so scoring a single conversation never
// blocks other topics.
func (s *EvaluationService) DispatchEvaluation(ctx context.Context, conversationID string) error {
	conv, err := s.Store.GetConversation(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("load conversation for dispatch: %w", err)
	}
	return s.EvaluateConversation(ctx, conv.EvalRunID, conversationID)
}

// EvaluationService scores one completed conversation with every evaluator
// that applies to it. Grounded on the original evaluation_service.py's
// dispatch policy: model judge and rubric grader always run; the
// reference and trajectory evaluators run only when the conversation
// carries the data they need (expected_response turns, an expected tool
// sequence). One evaluator's failure is logged and skipped rather than
// aborting the others — spec §4.6/§7's per-evaluator isolation.
type EvaluationService struct {
	ModelJudge *evaluation.ModelJudge
	Store      ConversationStore
	Producer   pipeline.EventPublisher
	Logger     *slog.Logger

	Dimensions           []evaluation.Dimension
	ExpectedToolSequence []string // set per-scenario; empty disables the trajectory evaluator
}

// NewEvaluationService constructs an EvaluationService with a model judge
// backed by llm/model, using evaluation.DefaultDimensions() unless
// overridden on the returned value.
func NewEvaluationService(llm llmclient.Client, model string, s ConversationStore, producer pipeline.EventPublisher, logger *slog.Logger) *EvaluationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationService{
		ModelJudge: evaluation.NewModelJudge(llm, model),
		Store:      s,
		Producer:   producer,
		Logger:     logger,
		Dimensions: evaluation.DefaultDimensions(),
	}
}

// evaluatorEntry pairs an evaluator type name with the Evaluate call that
// produces its result — trajectory's extra `expected` parameter means it
// can't share the evaluation.Evaluator interface, so each entry closes
// over whatever it needs instead.
type evaluatorEntry struct {
	evaluatorType string
	run           func(ctx context.Context, turns []transcript.Turn) (evaluation.EvaluationResult, error)
}

// EvaluateConversation runs every applicable evaluator against
// conversationID's transcript and persists each result, publishing one
// evaluation.score.completed event per successful evaluation.
func (s *EvaluationService) EvaluateConversation(ctx context.Context, evalRunID, conversationID string) error {
	conv, err := s.Store.GetConversation(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}

	entries := []evaluatorEntry{
		{evaluatorType: string(evaluation.TypeRubricGrader), run: func(ctx context.Context, turns []transcript.Turn) (evaluation.EvaluationResult, error) {
			return evaluation.NewRubricGrader().Evaluate(ctx, turns, s.Dimensions)
		}},
	}
	if s.ModelJudge != nil {
		entries = append(entries, evaluatorEntry{evaluatorType: string(evaluation.TypeModelJudge), run: func(ctx context.Context, turns []transcript.Turn) (evaluation.EvaluationResult, error) {
			return s.ModelJudge.Evaluate(ctx, turns, s.Dimensions)
		}})
	}
	if hasExpectedResponse(conv.Turns) {
		entries = append(entries, evaluatorEntry{evaluatorType: string(evaluation.TypeReferenceBased), run: func(ctx context.Context, turns []transcript.Turn) (evaluation.EvaluationResult, error) {
			return evaluation.NewReferenceEvaluator().Evaluate(ctx, turns, s.Dimensions)
		}})
	}
	if len(s.ExpectedToolSequence) > 0 {
		entries = append(entries, evaluatorEntry{evaluatorType: string(evaluation.TypeTrajectory), run: func(ctx context.Context, turns []transcript.Turn) (evaluation.EvaluationResult, error) {
			return evaluation.NewTrajectoryEvaluator().Evaluate(ctx, turns, s.ExpectedToolSequence, s.Dimensions)
		}})
	}

	for _, entry := range entries {
		result, err := entry.run(ctx, conv.Turns)
		if err != nil {
			s.Logger.Error("evaluator failed", "evaluator_type", entry.evaluatorType, "conversation_id", conversationID, "error", err)
			continue
		}
		s.persistAndPublish(ctx, evalRunID, conversationID, entry.evaluatorType, result)
	}
	return nil
}

func (s *EvaluationService) persistAndPublish(ctx context.Context, evalRunID, conversationID, evaluatorType string, result evaluation.EvaluationResult) {
	overall := result.OverallScore
	eval, err := s.Store.CreateEvaluation(ctx, store.Evaluation{
		ConversationID: conversationID,
		EvaluatorType:  evaluatorType,
		Scores:         result.Scores,
		OverallScore:   &overall,
		Reasoning:      result.Reasoning,
		PerTurnScores:  result.PerTurnScores,
		Metadata:       result.Metadata,
	})
	if err != nil {
		s.Logger.Error("persist evaluation failed", "evaluator_type", evaluatorType, "conversation_id", conversationID, "error", err)
		return
	}

	if s.Producer == nil {
		return
	}
	envelope := pipeline.NewEvaluationScoreCompletedEnvelope(evalRunID, conversationID, eval.ID, evaluatorType, result.OverallScore, result.Scores)
	if err := s.Producer.Produce(ctx, pipeline.TopicEvaluationCompleted, envelope, evalRunID); err != nil {
		s.Logger.Error("publish evaluation.score.completed failed", "evaluator_type", evaluatorType, "conversation_id", conversationID, "error", err)
	}
}

func hasExpectedResponse(turns []transcript.Turn) bool {
	for _, t := range turns {
		if t.ExpectedResponse != "" {
			return true
		}
	}
	return false
}
