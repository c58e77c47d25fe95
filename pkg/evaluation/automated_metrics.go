package evaluation

import (
	"sort"

	"github.com/axionis47/agentprobe-go/pkg/transcript"
)

// AutomatedMetrics are cheap, reproducible measurements computed directly
// from a conversation's shape and timing — no LLM call, no heuristics over
// text content.
type AutomatedMetrics struct {
	TokensPerTurn         float64
	OutputInputRatio      float64
	AvgLatencyMS          float64
	P95LatencyMS          float64
	TurnsToResolution     int
	ConversationCompleted float64
	ToolCallCount         int
	ToolSuccessRate       float64
}

// ComputeAutomatedMetrics derives AutomatedMetrics from a finished
// conversation. It is a pure function, not an Evaluator: its inputs are the
// conversation's aggregates, not a dimension rubric.
func ComputeAutomatedMetrics(result transcript.ConversationResult) AutomatedMetrics {
	turnCount := result.TurnCount()

	m := AutomatedMetrics{
		TurnsToResolution: turnCount,
	}

	if turnCount > 0 {
		m.TokensPerTurn = float64(result.TotalTokens()) / float64(turnCount)
	}
	if result.TotalInputTokens > 0 {
		m.OutputInputRatio = float64(result.TotalOutputTokens) / float64(result.TotalInputTokens)
	}

	latencies := make([]float64, 0, turnCount)
	for _, t := range result.Turns {
		if t.Role != transcript.RoleAssistant {
			continue
		}
		latencies = append(latencies, t.LatencyMS)
	}
	if len(latencies) > 0 {
		m.AvgLatencyMS = mean(latencies)
		m.P95LatencyMS = percentile95(latencies)
	}

	if result.Status == transcript.StatusCompleted || result.Status == transcript.StatusGoalAchieved {
		m.ConversationCompleted = 1.0
	}

	totalCalls, successfulCalls := 0, 0
	for _, t := range result.Turns {
		for _, r := range t.ToolResults {
			totalCalls++
			if !r.IsError {
				successfulCalls++
			}
		}
	}
	m.ToolCallCount = totalCalls
	if totalCalls == 0 {
		m.ToolSuccessRate = 1.0
	} else {
		m.ToolSuccessRate = float64(successfulCalls) / float64(totalCalls)
	}

	return m
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// percentile95 follows the nearest-rank method: index = max(0, ceil-free
// floor(len*0.95) - 1) into the ascending-sorted sample.
func percentile95(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted))*0.95) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
