package store

import (
	"time"

	"github.com/axionis47/agentprobe-go/pkg/transcript"
)

// EvalRun is one evaluation run: N conversations between a tested agent
// configuration and a scenario, against an optional rubric.
type EvalRun struct {
	ID               string
	Name             string
	AgentConfigID    string
	ScenarioID       string
	RubricID         string
	Status           string
	NumConversations int
	Config           map[string]any
	ErrorMessage     string
	StartedAt        *time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EvalRun statuses, mirroring the lifecycle an orchestrator drives a run
// through: pending -> running -> (completed | failed).
const (
	EvalRunStatusPending   = "pending"
	EvalRunStatusRunning   = "running"
	EvalRunStatusCompleted = "completed"
	EvalRunStatusFailed    = "failed"
)

// Conversation is one simulated conversation belonging to an EvalRun.
type Conversation struct {
	ID               string
	EvalRunID        string
	SequenceNum      int
	Turns            []transcript.Turn
	TurnCount        int
	TotalTokens      int
	TotalInputTokens int
	TotalOutputTokens int
	TotalLatencyMS   int
	Status           string
	ErrorMessage     string
	Metadata         map[string]any
	StartedAt        *time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Evaluation is one evaluator's scoring of one Conversation.
type Evaluation struct {
	ID             string
	ConversationID string
	EvaluatorType  string
	EvaluatorID    string
	RubricID       string
	Scores         map[string]float64
	OverallScore   *float64
	Reasoning      string
	PerTurnScores  []float64
	Metadata       map[string]any
	CreatedAt      time.Time
}

// Metric is one named, unit-tagged measurement attached to a Conversation
// (e.g. tokens_per_turn, avg_latency_ms) — the automated-metrics output
// and the statistics package's aggregation input both flow through here.
type Metric struct {
	ID             string
	ConversationID string
	MetricName     string
	Value          float64
	Unit           string
	Metadata       map[string]any
	CreatedAt      time.Time
}
