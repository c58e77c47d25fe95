package evaluation

import (
	"context"

	"github.com/axionis47/agentprobe-go/pkg/transcript"
)

// TrajectoryEvaluator scores how closely the actual sequence of tool calls
// an assistant made matches a scenario's expected tool sequence. It does not
// implement Evaluator: the expected sequence is scenario configuration, not
// part of the transcript itself.
type TrajectoryEvaluator struct{}

func NewTrajectoryEvaluator() *TrajectoryEvaluator { return &TrajectoryEvaluator{} }

func actualToolSequence(turns []transcript.Turn) []string {
	var seq []string
	for _, t := range turns {
		for _, call := range t.ToolCalls {
			seq = append(seq, call.Name)
		}
	}
	return seq
}

func (TrajectoryEvaluator) Evaluate(ctx context.Context, turns []transcript.Turn, expected []string, dimensions []Dimension) (EvaluationResult, error) {
	if len(expected) == 0 {
		return EvaluationResult{
			EvaluatorType: TypeTrajectory,
			Scores:        map[string]float64{"sequence_match": 0, "precision": 0, "recall": 0, "order_score": 0},
			OverallScore:  0,
			Reasoning:     "No expected tool sequence defined.",
		}, nil
	}

	actual := actualToolSequence(turns)

	sequenceMatch := float64(lcsLength(actual, expected)) / float64(len(expected))
	precision := toolPrecision(actual, expected)
	recall := toolRecall(actual, expected)
	orderScore := toolOrderScore(actual, expected)
	unnecessary := countUnnecessary(actual, expected)

	overall := 10 * (sequenceMatch + precision + recall + orderScore) / 4

	return EvaluationResult{
		EvaluatorType: TypeTrajectory,
		Scores: map[string]float64{
			"sequence_match": sequenceMatch,
			"precision":      precision,
			"recall":         recall,
			"order_score":    orderScore,
		},
		OverallScore: overall,
		Reasoning:    "scored against scenario-supplied expected tool sequence",
		Metadata:     map[string]any{"unnecessary_actions": unnecessary, "actual_sequence": actual, "expected_sequence": expected},
	}, nil
}

func toolPrecision(actual, expected []string) float64 {
	if len(actual) == 0 {
		return 0
	}
	expectedSet := toSet(expected)
	var hits int
	for _, t := range actual {
		if expectedSet[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(actual))
}

func toolRecall(actual, expected []string) float64 {
	if len(expected) == 0 {
		return 0
	}
	actualSet := toSet(actual)
	var hits int
	for _, t := range expected {
		if actualSet[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(expected))
}

func countUnnecessary(actual, expected []string) int {
	expectedSet := toSet(expected)
	var n int
	for _, t := range actual {
		if !expectedSet[t] {
			n++
		}
	}
	return n
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, t := range items {
		set[t] = true
	}
	return set
}

// toolOrderScore measures, among tool names common to both sequences, the
// fraction of pairs whose relative order agrees between actual and
// expected (a Kendall-tau-style concordance ratio over first-occurrence
// ranks). Fewer than two shared tools trivially agree.
func toolOrderScore(actual, expected []string) float64 {
	actualRank := firstOccurrenceRank(actual)
	expectedRank := firstOccurrenceRank(expected)

	var shared []string
	for name := range actualRank {
		if _, ok := expectedRank[name]; ok {
			shared = append(shared, name)
		}
	}
	if len(shared) < 2 {
		return 1.0
	}

	var concordant, total int
	for i := 0; i < len(shared); i++ {
		for j := i + 1; j < len(shared); j++ {
			x, y := shared[i], shared[j]
			actualOrder := actualRank[x] < actualRank[y]
			expectedOrder := expectedRank[x] < expectedRank[y]
			total++
			if actualOrder == expectedOrder {
				concordant++
			}
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(concordant) / float64(total)
}

func firstOccurrenceRank(seq []string) map[string]int {
	rank := make(map[string]int, len(seq))
	for i, name := range seq {
		if _, seen := rank[name]; !seen {
			rank[name] = i
		}
	}
	return rank
}
