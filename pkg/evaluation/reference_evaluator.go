package evaluation

import (
	"context"
	"strings"

	"github.com/axionis47/agentprobe-go/pkg/transcript"
)

// ReferenceEvaluator scores an assistant's responses against reference
// answers carried on the user turns that precede them, when a scenario
// supplies expected responses.
type ReferenceEvaluator struct{}

func NewReferenceEvaluator() *ReferenceEvaluator { return &ReferenceEvaluator{} }

type referencePair struct {
	actual, expected string
}

func extractReferencePairs(turns []transcript.Turn) []referencePair {
	var pairs []referencePair
	for i, t := range turns {
		if t.Role != transcript.RoleUser || t.ExpectedResponse == "" {
			continue
		}
		for j := i + 1; j < len(turns); j++ {
			if turns[j].Role == transcript.RoleAssistant {
				pairs = append(pairs, referencePair{actual: turns[j].Content, expected: t.ExpectedResponse})
				break
			}
		}
	}
	return pairs
}

func (ReferenceEvaluator) Evaluate(ctx context.Context, turns []transcript.Turn, dimensions []Dimension) (EvaluationResult, error) {
	pairs := extractReferencePairs(turns)
	if len(pairs) == 0 {
		return EvaluationResult{
			EvaluatorType: TypeReferenceBased,
			Scores:        map[string]float64{"token_overlap": 0, "lcs_ratio": 0, "exact_match": 0},
			OverallScore:  0,
			Reasoning:     "no reference answers present in this scenario",
		}, nil
	}

	var overlapSum, lcsSum, exactSum float64
	for _, p := range pairs {
		actualTokens := tokenize(p.actual)
		expectedTokens := tokenize(p.expected)

		overlapSum += tokenOverlapF1(actualTokens, expectedTokens)
		lcsSum += lcsRatio(actualTokens, expectedTokens)
		if normalizeForMatch(p.actual) == normalizeForMatch(p.expected) {
			exactSum++
		}
	}

	n := float64(len(pairs))
	avgOverlap := overlapSum / n
	avgLCS := lcsSum / n
	avgExact := exactSum / n

	overall := 10 * (0.4*avgOverlap + 0.4*avgLCS + 0.2*avgExact)

	return EvaluationResult{
		EvaluatorType: TypeReferenceBased,
		Scores: map[string]float64{
			"token_overlap": avgOverlap,
			"lcs_ratio":     avgLCS,
			"exact_match":   avgExact,
		},
		OverallScore: overall,
		Reasoning:    "scored against scenario-supplied reference answers",
		Metadata:     map[string]any{"pair_count": len(pairs)},
	}, nil
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

func normalizeForMatch(s string) string {
	return strings.Join(tokenize(s), " ")
}

// tokenOverlapF1 is the harmonic mean of precision and recall over the
// (unordered, deduplicated) token sets of actual and expected.
func tokenOverlapF1(actual, expected []string) float64 {
	if len(actual) == 0 || len(expected) == 0 {
		return 0
	}
	expectedSet := make(map[string]struct{}, len(expected))
	for _, tok := range expected {
		expectedSet[tok] = struct{}{}
	}
	actualSet := make(map[string]struct{}, len(actual))
	for _, tok := range actual {
		actualSet[tok] = struct{}{}
	}

	var overlap int
	for tok := range actualSet {
		if _, ok := expectedSet[tok]; ok {
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}
	precision := float64(overlap) / float64(len(actualSet))
	recall := float64(overlap) / float64(len(expectedSet))
	return 2 * precision * recall / (precision + recall)
}

// lcsRatio is the length of the longest common subsequence of tokens,
// normalized by the longer of the two sequences.
func lcsRatio(a, b []string) float64 {
	longer := max(len(a), len(b))
	if longer == 0 {
		return 0
	}
	return float64(lcsLength(a, b)) / float64(longer)
}

func lcsLength(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
