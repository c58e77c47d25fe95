package statistics

import (
	"math"
	"sort"
)

// AggregatedMetric is the descriptive statistics summary of one metric's
// values across a batch of conversations.
type AggregatedMetric struct {
	MetricName  string
	Mean        float64
	Median      float64
	StdDev      float64
	MinVal      float64
	MaxVal      float64
	SampleCount int
}

// AggregateMetricValues computes mean/median/stdev/min/max over values. An
// empty slice returns a zeroed AggregatedMetric with SampleCount 0.
func AggregateMetricValues(name string, values []float64) AggregatedMetric {
	if len(values) == 0 {
		return AggregatedMetric{MetricName: name}
	}

	n := len(values)
	mean := meanOf(values)
	median := medianOf(values)
	var stdDev float64
	if n >= 2 {
		stdDev = stdevOf(values, mean)
	}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	return AggregatedMetric{
		MetricName:  name,
		Mean:        round4(mean),
		Median:      round4(median),
		StdDev:      round4(stdDev),
		MinVal:      round4(minV),
		MaxVal:      round4(maxV),
		SampleCount: n,
	}
}

func medianOf(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}

// stdevOf is the sample standard deviation (Bessel-corrected, n-1 divisor),
// matching Python's statistics.stdev.
func stdevOf(values []float64, mean float64) float64 {
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// ZScoreCalibrate normalizes scores to zero mean, unit standard deviation.
// Fewer than two scores, or zero variance, returns the input unchanged.
func ZScoreCalibrate(scores []float64) []float64 {
	if len(scores) < 2 {
		return scores
	}
	mean := meanOf(scores)
	stdDev := stdevOf(scores, mean)
	if stdDev == 0 {
		return scores
	}
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = round4((s - mean) / stdDev)
	}
	return out
}

// WeightedDimensionAverage computes the weight-renormalized average of
// scores over the dimensions present in scores; weights absent from
// weights contribute zero. Returns 0 if no present dimension has weight.
func WeightedDimensionAverage(scores, weights map[string]float64) float64 {
	var totalWeight, weightedSum float64
	for dim, score := range scores {
		w := weights[dim]
		weightedSum += score * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return round4(weightedSum / totalWeight)
}
