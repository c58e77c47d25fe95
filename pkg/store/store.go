package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned by single-row lookups when nothing matches.
var ErrNotFound = errors.New("store: not found")

// Store is the full persistence surface for eval runs, conversations,
// evaluations, and metrics. pkg/pipeline's consumers depend on the
// narrower RunMetricsStore/RunCompletionStore interfaces instead of this
// one directly — PostgresStore satisfies both. Their EvaluationDispatcher
// seam is satisfied by services.EvaluationService, not by a store.
type Store interface {
	CreateEvalRun(ctx context.Context, run EvalRun) (EvalRun, error)
	UpdateEvalRunStatus(ctx context.Context, evalRunID, status, errorMessage string) error
	GetEvalRun(ctx context.Context, evalRunID string) (EvalRun, error)

	CreateConversation(ctx context.Context, conv Conversation) (Conversation, error)
	UpdateConversation(ctx context.Context, conv Conversation) error
	GetConversation(ctx context.Context, conversationID string) (Conversation, error)
	ConversationsByEvalRun(ctx context.Context, evalRunID string) ([]Conversation, error)

	CreateEvaluation(ctx context.Context, eval Evaluation) (Evaluation, error)
	EvaluationsByConversation(ctx context.Context, conversationID string) ([]Evaluation, error)

	RecordMetric(ctx context.Context, metric Metric) (Metric, error)

	CompletedConversationCount(ctx context.Context, evalRunID string) (int, error)
	EvaluatedConversationCount(ctx context.Context, evalRunID string) (int, error)
	MetricValuesByName(ctx context.Context, evalRunID string) (map[string][]float64, error)
	MarkRunCompleted(ctx context.Context, evalRunID string) error
}

// PostgresStore is the pgx-backed Store implementation. It talks to Postgres
// directly with hand-written SQL rather than through a generated client —
// there's no schema-compiler layer between this type and the migrations in
// pkg/store/migrations.
type PostgresStore struct {
	pool *Pool
}

// NewPostgresStore wraps an already-opened Pool.
func NewPostgresStore(pool *Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

func (s *PostgresStore) CreateEvalRun(ctx context.Context, run EvalRun) (EvalRun, error) {
	configJSON, err := json.Marshal(run.Config)
	if err != nil {
		return EvalRun{}, fmt.Errorf("marshal config: %w", err)
	}
	if run.Status == "" {
		run.Status = EvalRunStatusPending
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO eval_runs (name, agent_config_id, scenario_id, rubric_id, status, num_conversations, config)
		VALUES (nullif($1, ''), $2, $3, nullif($4, ''), $5, $6, $7)
		RETURNING id, name, agent_config_id, scenario_id, coalesce(rubric_id::text, ''), status,
			num_conversations, config, coalesce(error_message, ''), started_at, completed_at, created_at, updated_at
	`, run.Name, run.AgentConfigID, run.ScenarioID, run.RubricID, run.Status, run.NumConversations, configJSON)
	return scanEvalRun(row)
}

func (s *PostgresStore) UpdateEvalRunStatus(ctx context.Context, evalRunID, status, errorMessage string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE eval_runs
		SET status = $2, error_message = nullif($3, ''), updated_at = NOW(),
			started_at = CASE WHEN $2 = 'running' AND started_at IS NULL THEN NOW() ELSE started_at END,
			completed_at = CASE WHEN $2 IN ('completed', 'failed') THEN NOW() ELSE completed_at END
		WHERE id = $1
	`, evalRunID, status, errorMessage)
	if err != nil {
		return fmt.Errorf("update eval run status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetEvalRun(ctx context.Context, evalRunID string) (EvalRun, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, coalesce(name, ''), agent_config_id, scenario_id, coalesce(rubric_id::text, ''), status,
			num_conversations, config, coalesce(error_message, ''), started_at, completed_at, created_at, updated_at
		FROM eval_runs WHERE id = $1
	`, evalRunID)
	return scanEvalRun(row)
}

func scanEvalRun(row pgx.Row) (EvalRun, error) {
	var run EvalRun
	var configJSON []byte
	err := row.Scan(&run.ID, &run.Name, &run.AgentConfigID, &run.ScenarioID, &run.RubricID, &run.Status,
		&run.NumConversations, &configJSON, &run.ErrorMessage, &run.StartedAt, &run.CompletedAt,
		&run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return EvalRun{}, ErrNotFound
	}
	if err != nil {
		return EvalRun{}, fmt.Errorf("scan eval run: %w", err)
	}
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &run.Config); err != nil {
			return EvalRun{}, fmt.Errorf("unmarshal config: %w", err)
		}
	}
	return run, nil
}

func (s *PostgresStore) CreateConversation(ctx context.Context, conv Conversation) (Conversation, error) {
	turnsJSON, err := json.Marshal(conv.Turns)
	if err != nil {
		return Conversation{}, fmt.Errorf("marshal turns: %w", err)
	}
	metaJSON, err := json.Marshal(nonNilMap(conv.Metadata))
	if err != nil {
		return Conversation{}, fmt.Errorf("marshal metadata: %w", err)
	}
	if conv.Status == "" {
		conv.Status = "pending"
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO conversations (eval_run_id, sequence_num, turns, turn_count, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, eval_run_id, sequence_num, turns, turn_count, total_tokens, total_input_tokens,
			total_output_tokens, total_latency_ms, status, coalesce(error_message, ''), metadata,
			started_at, completed_at, created_at, updated_at
	`, conv.EvalRunID, conv.SequenceNum, turnsJSON, conv.TurnCount, conv.Status, metaJSON)
	return scanConversation(row)
}

func (s *PostgresStore) UpdateConversation(ctx context.Context, conv Conversation) error {
	turnsJSON, err := json.Marshal(conv.Turns)
	if err != nil {
		return fmt.Errorf("marshal turns: %w", err)
	}
	metaJSON, err := json.Marshal(nonNilMap(conv.Metadata))
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE conversations
		SET turns = $2, turn_count = $3, total_tokens = $4, total_input_tokens = $5,
			total_output_tokens = $6, total_latency_ms = $7, status = $8,
			error_message = nullif($9, ''), metadata = $10, completed_at = $11, updated_at = NOW()
		WHERE id = $1
	`, conv.ID, turnsJSON, conv.TurnCount, conv.TotalTokens, conv.TotalInputTokens,
		conv.TotalOutputTokens, conv.TotalLatencyMS, conv.Status, conv.ErrorMessage, metaJSON, conv.CompletedAt)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, conversationID string) (Conversation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, eval_run_id, sequence_num, turns, turn_count, total_tokens, total_input_tokens,
			total_output_tokens, total_latency_ms, status, coalesce(error_message, ''), metadata,
			started_at, completed_at, created_at, updated_at
		FROM conversations WHERE id = $1
	`, conversationID)
	return scanConversation(row)
}

func (s *PostgresStore) ConversationsByEvalRun(ctx context.Context, evalRunID string) ([]Conversation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, eval_run_id, sequence_num, turns, turn_count, total_tokens, total_input_tokens,
			total_output_tokens, total_latency_ms, status, coalesce(error_message, ''), metadata,
			started_at, completed_at, created_at, updated_at
		FROM conversations WHERE eval_run_id = $1 ORDER BY sequence_num
	`, evalRunID)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	return out, rows.Err()
}

func scanConversation(row pgx.Row) (Conversation, error) {
	var conv Conversation
	var turnsJSON, metaJSON []byte
	err := row.Scan(&conv.ID, &conv.EvalRunID, &conv.SequenceNum, &turnsJSON, &conv.TurnCount,
		&conv.TotalTokens, &conv.TotalInputTokens, &conv.TotalOutputTokens, &conv.TotalLatencyMS,
		&conv.Status, &conv.ErrorMessage, &metaJSON, &conv.StartedAt, &conv.CompletedAt,
		&conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("scan conversation: %w", err)
	}
	if len(turnsJSON) > 0 {
		if err := json.Unmarshal(turnsJSON, &conv.Turns); err != nil {
			return Conversation{}, fmt.Errorf("unmarshal turns: %w", err)
		}
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &conv.Metadata); err != nil {
			return Conversation{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return conv, nil
}

func (s *PostgresStore) CreateEvaluation(ctx context.Context, eval Evaluation) (Evaluation, error) {
	scoresJSON, err := json.Marshal(eval.Scores)
	if err != nil {
		return Evaluation{}, fmt.Errorf("marshal scores: %w", err)
	}
	var perTurnJSON []byte
	if eval.PerTurnScores != nil {
		perTurnJSON, err = json.Marshal(eval.PerTurnScores)
		if err != nil {
			return Evaluation{}, fmt.Errorf("marshal per-turn scores: %w", err)
		}
	}
	metaJSON, err := json.Marshal(nonNilMap(eval.Metadata))
	if err != nil {
		return Evaluation{}, fmt.Errorf("marshal metadata: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO evaluations (conversation_id, evaluator_type, evaluator_id, rubric_id, scores,
			overall_score, reasoning, per_turn_scores, metadata)
		VALUES ($1, $2, nullif($3, ''), nullif($4, ''), $5, $6, $7, $8, $9)
		RETURNING id, conversation_id, evaluator_type, coalesce(evaluator_id, ''), coalesce(rubric_id::text, ''),
			scores, overall_score, coalesce(reasoning, ''), per_turn_scores, metadata, created_at
	`, eval.ConversationID, eval.EvaluatorType, eval.EvaluatorID, eval.RubricID, scoresJSON,
		eval.OverallScore, eval.Reasoning, perTurnJSON, metaJSON)
	return scanEvaluation(row)
}

func (s *PostgresStore) EvaluationsByConversation(ctx context.Context, conversationID string) ([]Evaluation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, evaluator_type, coalesce(evaluator_id, ''), coalesce(rubric_id::text, ''),
			scores, overall_score, coalesce(reasoning, ''), per_turn_scores, metadata, created_at
		FROM evaluations WHERE conversation_id = $1 ORDER BY created_at
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		eval, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, eval)
	}
	return out, rows.Err()
}

func scanEvaluation(row pgx.Row) (Evaluation, error) {
	var eval Evaluation
	var scoresJSON, perTurnJSON, metaJSON []byte
	err := row.Scan(&eval.ID, &eval.ConversationID, &eval.EvaluatorType, &eval.EvaluatorID, &eval.RubricID,
		&scoresJSON, &eval.OverallScore, &eval.Reasoning, &perTurnJSON, &metaJSON, &eval.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Evaluation{}, ErrNotFound
	}
	if err != nil {
		return Evaluation{}, fmt.Errorf("scan evaluation: %w", err)
	}
	if len(scoresJSON) > 0 {
		if err := json.Unmarshal(scoresJSON, &eval.Scores); err != nil {
			return Evaluation{}, fmt.Errorf("unmarshal scores: %w", err)
		}
	}
	if len(perTurnJSON) > 0 {
		if err := json.Unmarshal(perTurnJSON, &eval.PerTurnScores); err != nil {
			return Evaluation{}, fmt.Errorf("unmarshal per-turn scores: %w", err)
		}
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &eval.Metadata); err != nil {
			return Evaluation{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return eval, nil
}

func (s *PostgresStore) RecordMetric(ctx context.Context, metric Metric) (Metric, error) {
	metaJSON, err := json.Marshal(nonNilMap(metric.Metadata))
	if err != nil {
		return Metric{}, fmt.Errorf("marshal metadata: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO metrics (conversation_id, metric_name, value, unit, metadata)
		VALUES ($1, $2, $3, nullif($4, ''), $5)
		ON CONFLICT ON CONSTRAINT uq_metrics_conv_name
		DO UPDATE SET value = EXCLUDED.value, unit = EXCLUDED.unit, metadata = EXCLUDED.metadata
		RETURNING id, conversation_id, metric_name, value, coalesce(unit, ''), metadata, created_at
	`, metric.ConversationID, metric.MetricName, metric.Value, metric.Unit, metaJSON)

	var out Metric
	if err := row.Scan(&out.ID, &out.ConversationID, &out.MetricName, &out.Value, &out.Unit, &metaJSON, &out.CreatedAt); err != nil {
		return Metric{}, fmt.Errorf("scan metric: %w", err)
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &out.Metadata); err != nil {
			return Metric{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return out, nil
}

func (s *PostgresStore) CompletedConversationCount(ctx context.Context, evalRunID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM conversations
		WHERE eval_run_id = $1 AND status IN ('completed', 'failed')
	`, evalRunID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed conversations: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) EvaluatedConversationCount(ctx context.Context, evalRunID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(DISTINCT e.conversation_id)
		FROM evaluations e
		JOIN conversations c ON c.id = e.conversation_id
		WHERE c.eval_run_id = $1
	`, evalRunID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count evaluated conversations: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) MetricValuesByName(ctx context.Context, evalRunID string) (map[string][]float64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.metric_name, m.value
		FROM metrics m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.eval_run_id = $1
	`, evalRunID)
	if err != nil {
		return nil, fmt.Errorf("query metric values: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]float64)
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan metric value: %w", err)
		}
		out[name] = append(out[name], value)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkRunCompleted(ctx context.Context, evalRunID string) error {
	return s.UpdateEvalRunStatus(ctx, evalRunID, EvalRunStatusCompleted, "")
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
