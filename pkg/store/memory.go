package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store implementation backed by plain maps,
// guarded by a single mutex. It exists for tests and for the services
// layer's unit tests — nothing in it talks to a database.
type MemoryStore struct {
	mu            sync.Mutex
	evalRuns      map[string]EvalRun
	conversations map[string]Conversation
	evaluations   map[string][]Evaluation
	metrics       map[string][]Metric
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		evalRuns:      make(map[string]EvalRun),
		conversations: make(map[string]Conversation),
		evaluations:   make(map[string][]Evaluation),
		metrics:       make(map[string][]Metric),
	}
}

func (s *MemoryStore) CreateEvalRun(ctx context.Context, run EvalRun) (EvalRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.ID = uuid.NewString()
	if run.Status == "" {
		run.Status = EvalRunStatusPending
	}
	run.CreatedAt = time.Now().UTC()
	run.UpdatedAt = run.CreatedAt
	s.evalRuns[run.ID] = run
	return run, nil
}

func (s *MemoryStore) UpdateEvalRunStatus(ctx context.Context, evalRunID, status, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.evalRuns[evalRunID]
	if !ok {
		return ErrNotFound
	}
	run.Status = status
	run.ErrorMessage = errorMessage
	now := time.Now().UTC()
	run.UpdatedAt = now
	if status == EvalRunStatusRunning && run.StartedAt == nil {
		run.StartedAt = &now
	}
	if status == EvalRunStatusCompleted || status == EvalRunStatusFailed {
		run.CompletedAt = &now
	}
	s.evalRuns[evalRunID] = run
	return nil
}

func (s *MemoryStore) GetEvalRun(ctx context.Context, evalRunID string) (EvalRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.evalRuns[evalRunID]
	if !ok {
		return EvalRun{}, ErrNotFound
	}
	return run, nil
}

func (s *MemoryStore) CreateConversation(ctx context.Context, conv Conversation) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv.ID = uuid.NewString()
	if conv.Status == "" {
		conv.Status = "pending"
	}
	conv.CreatedAt = time.Now().UTC()
	conv.UpdatedAt = conv.CreatedAt
	s.conversations[conv.ID] = conv
	return conv, nil
}

func (s *MemoryStore) UpdateConversation(ctx context.Context, conv Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.conversations[conv.ID]
	if !ok {
		return ErrNotFound
	}
	conv.CreatedAt = existing.CreatedAt
	conv.UpdatedAt = time.Now().UTC()
	s.conversations[conv.ID] = conv
	return nil
}

func (s *MemoryStore) GetConversation(ctx context.Context, conversationID string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return conv, nil
}

func (s *MemoryStore) ConversationsByEvalRun(ctx context.Context, evalRunID string) ([]Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Conversation
	for _, conv := range s.conversations {
		if conv.EvalRunID == evalRunID {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateEvaluation(ctx context.Context, eval Evaluation) (Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eval.ID = uuid.NewString()
	eval.CreatedAt = time.Now().UTC()
	s.evaluations[eval.ConversationID] = append(s.evaluations[eval.ConversationID], eval)
	return eval, nil
}

func (s *MemoryStore) EvaluationsByConversation(ctx context.Context, conversationID string) ([]Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Evaluation(nil), s.evaluations[conversationID]...), nil
}

func (s *MemoryStore) RecordMetric(ctx context.Context, metric Metric) (Metric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.metrics[metric.ConversationID] {
		if existing.MetricName == metric.MetricName {
			metric.ID = existing.ID
			metric.CreatedAt = existing.CreatedAt
			s.metrics[metric.ConversationID][i] = metric
			return metric, nil
		}
	}

	metric.ID = uuid.NewString()
	metric.CreatedAt = time.Now().UTC()
	s.metrics[metric.ConversationID] = append(s.metrics[metric.ConversationID], metric)
	return metric, nil
}

func (s *MemoryStore) CompletedConversationCount(ctx context.Context, evalRunID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, conv := range s.conversations {
		if conv.EvalRunID != evalRunID {
			continue
		}
		if conv.Status == "completed" || conv.Status == "failed" {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) EvaluatedConversationCount(ctx context.Context, evalRunID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, conv := range s.conversations {
		if conv.EvalRunID != evalRunID {
			continue
		}
		if len(s.evaluations[conv.ID]) > 0 {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) MetricValuesByName(ctx context.Context, evalRunID string) (map[string][]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]float64)
	for _, conv := range s.conversations {
		if conv.EvalRunID != evalRunID {
			continue
		}
		for _, m := range s.metrics[conv.ID] {
			out[m.MetricName] = append(out[m.MetricName], m.Value)
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkRunCompleted(ctx context.Context, evalRunID string) error {
	return s.UpdateEvalRunStatus(ctx, evalRunID, EvalRunStatusCompleted, "")
}
