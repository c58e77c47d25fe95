package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestKrippendorffsAlpha_PerfectAgreement(t *testing.T) {
	matrix := [][]*float64{
		{ptr(5), ptr(5), ptr(5)},
		{ptr(8), ptr(8), ptr(8)},
		{ptr(3), ptr(3), ptr(3)},
	}
	assert.Equal(t, 1.0, KrippendorffsAlpha(matrix))
}

func TestKrippendorffsAlpha_SystematicDisagreement(t *testing.T) {
	matrix := [][]*float64{
		{ptr(1), ptr(10)},
		{ptr(10), ptr(1)},
		{ptr(1), ptr(10)},
		{ptr(10), ptr(1)},
	}
	assert.Less(t, KrippendorffsAlpha(matrix), 0.5)
}

func TestKrippendorffsAlpha_EmptyMatrixIsZero(t *testing.T) {
	assert.Equal(t, 0.0, KrippendorffsAlpha(nil))
}

func TestKrippendorffsAlpha_SingleRaterSkipped(t *testing.T) {
	matrix := [][]*float64{{ptr(5)}, {ptr(3)}}
	assert.Equal(t, 0.0, KrippendorffsAlpha(matrix))
}

func TestComputeReliability_FewerThanTwoRatersYieldsZero(t *testing.T) {
	evals := ConversationEvaluations{
		"c1": {{"helpfulness": 8}},
	}
	r := ComputeReliability(evals, []string{"helpfulness"})
	assert.Equal(t, 0.0, r.Alpha)
	assert.Equal(t, 1, r.NumItems)
}

func TestComputeReliability_PerDimensionAndOverall(t *testing.T) {
	evals := ConversationEvaluations{
		"c1": {{"helpfulness": 8, "safety": 9}, {"helpfulness": 8, "safety": 9}},
		"c2": {{"helpfulness": 3, "safety": 4}, {"helpfulness": 3, "safety": 4}},
	}
	r := ComputeReliability(evals, []string{"helpfulness", "safety"})
	assert.Equal(t, 1.0, r.Alpha)
	assert.Equal(t, 1.0, r.PerDimensionAlpha["helpfulness"])
	assert.Equal(t, 1.0, r.PerDimensionAlpha["safety"])
}

func TestPairwiseCorrelations_PerfectlyCorrelatedRaters(t *testing.T) {
	evals := ConversationEvaluations{
		"c1": {{"helpfulness": 1}, {"helpfulness": 1}},
		"c2": {{"helpfulness": 5}, {"helpfulness": 5}},
		"c3": {{"helpfulness": 9}, {"helpfulness": 9}},
	}
	corrs := PairwiseCorrelations(evals, "helpfulness")
	assert.Len(t, corrs, 1)
	assert.InDelta(t, 1.0, corrs[0].PearsonR, 1e-6)
	assert.Equal(t, 3, corrs[0].N)
}
