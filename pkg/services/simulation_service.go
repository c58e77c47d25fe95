package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/axionis47/agentprobe-go/pkg/adversarial"
	"github.com/axionis47/agentprobe-go/pkg/llmclient"
	"github.com/axionis47/agentprobe-go/pkg/orchestrator"
	"github.com/axionis47/agentprobe-go/pkg/persona"
	"github.com/axionis47/agentprobe-go/pkg/pipeline"
	"github.com/axionis47/agentprobe-go/pkg/sandbox"
	"github.com/axionis47/agentprobe-go/pkg/store"
	"github.com/axionis47/agentprobe-go/pkg/transcript"
	"github.com/axionis47/agentprobe-go/pkg/usersim"
)

// ScenarioSpec bundles what SimulationService needs to build one
// conversation's personas, environment, and adversarial injector — it
// stands in for what a scenario row plus its associated agent/user
// persona configuration would supply.
type ScenarioSpec struct {
	AgentPersona   persona.AgentPersona
	UserPersona    persona.UserPersona
	InitialMessage string
	Environment    persona.SimulationEnvironment
}

// EvalRunStore is the write surface SimulationService needs: creating and
// transitioning an eval run, and persisting each conversation it drives.
type EvalRunStore interface {
	UpdateEvalRunStatus(ctx context.Context, evalRunID, status, errorMessage string) error
	CreateConversation(ctx context.Context, conv store.Conversation) (store.Conversation, error)
}

// SimulationService runs a complete eval run: N conversations between an
// agent persona and a simulated user, under a shared scenario spec.
// Grounded on the original agent_simulation.py service's load-then-loop
// shape: validate, mark running, simulate each conversation in sequence,
// persist it, and emit a best-effort completion event — one conversation's
// failure doesn't abort the run.
type SimulationService struct {
	LLM      llmclient.Client
	Store    EvalRunStore
	Producer pipeline.EventPublisher
	Logger   *slog.Logger
}

// NewSimulationService constructs a SimulationService. A nil logger
// defaults to slog.Default().
func NewSimulationService(llm llmclient.Client, s EvalRunStore, producer pipeline.EventPublisher, logger *slog.Logger) *SimulationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulationService{LLM: llm, Store: s, Producer: producer, Logger: logger}
}

// RunEval drives numConversations sequential conversations for evalRunID
// against spec, persisting each one and publishing a best-effort
// conversation.completed event per conversation. It marks the run running
// at the start and completed at the end; a conversation that fails to
// simulate or persist is logged and skipped. The run is marked failed
// ("cancelled") only when ctx is cancelled between conversations.
func (s *SimulationService) RunEval(ctx context.Context, evalRunID string, numConversations int, spec ScenarioSpec) error {
	if numConversations <= 0 {
		return NewValidationError("num_conversations", "must be positive")
	}

	log := s.Logger.With("eval_run_id", evalRunID)

	if err := s.Store.UpdateEvalRunStatus(ctx, evalRunID, store.EvalRunStatusRunning, ""); err != nil {
		return fmt.Errorf("mark eval run running: %w", err)
	}
	log.Info("eval run started", "num_conversations", numConversations)

	for i := 0; i < numConversations; i++ {
		if ctx.Err() != nil {
			s.markRunFailed(evalRunID, "cancelled")
			return ctx.Err()
		}

		result, err := s.simulateOne(ctx, spec)
		if err != nil {
			log.Error("conversation simulation failed", "sequence_num", i, "error", err)
			continue
		}

		conv, err := s.persistConversation(ctx, evalRunID, i, result)
		if err != nil {
			log.Error("conversation persistence failed", "sequence_num", i, "error", err)
			continue
		}

		s.publishCompletion(evalRunID, conv)
	}

	if err := s.Store.UpdateEvalRunStatus(ctx, evalRunID, store.EvalRunStatusCompleted, ""); err != nil {
		return fmt.Errorf("mark eval run completed: %w", err)
	}
	log.Info("eval run completed")
	return nil
}

func (s *SimulationService) simulateOne(ctx context.Context, spec ScenarioSpec) (*transcript.ConversationResult, error) {
	userSim := usersim.New(s.LLM, spec.UserPersona, spec.InitialMessage)
	sb := sandbox.New(spec.Environment, nil)
	orch := orchestrator.New(s.LLM, spec.AgentPersona, userSim, sb, spec.Environment, adversarial.New(spec.Environment))
	return orch.Run(ctx)
}

func (s *SimulationService) persistConversation(ctx context.Context, evalRunID string, seq int, result *transcript.ConversationResult) (store.Conversation, error) {
	conv := store.Conversation{
		EvalRunID:         evalRunID,
		SequenceNum:       seq,
		Turns:             result.Turns,
		TurnCount:         result.TurnCount(),
		TotalTokens:       result.TotalTokens(),
		TotalInputTokens:  result.TotalInputTokens,
		TotalOutputTokens: result.TotalOutputTokens,
		TotalLatencyMS:    int(result.TotalLatencyMS),
		Status:            string(result.Status),
		ErrorMessage:      result.ErrorMessage,
	}
	return s.Store.CreateConversation(ctx, conv)
}

// publishCompletion emits conversation.completed best-effort: a publish
// failure is logged, never propagated, matching spec §7's event-delivery
// policy. A background context is used deliberately — the publish should
// still happen even if the caller's context is on its way out, the same
// discipline the teacher's services apply to critical writes.
func (s *SimulationService) publishCompletion(evalRunID string, conv store.Conversation) {
	if s.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	envelope := pipeline.NewConversationCompletedEnvelope(evalRunID, conv.ID, conv.TurnCount, conv.TotalTokens, float64(conv.TotalLatencyMS), conv.Status)
	if err := s.Producer.Produce(ctx, pipeline.TopicConversationCompleted, envelope, conv.ID); err != nil {
		s.Logger.Error("publish conversation.completed failed", "eval_run_id", evalRunID, "conversation_id", conv.ID, "error", err)
	}
}

func (s *SimulationService) markRunFailed(evalRunID, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Store.UpdateEvalRunStatus(ctx, evalRunID, store.EvalRunStatusFailed, reason); err != nil {
		s.Logger.Error("mark eval run failed also failed", "eval_run_id", evalRunID, "error", err)
	}
}
