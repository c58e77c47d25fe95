package statistics

import (
	"fmt"
	"math"
	"sort"
)

// Calibration summarizes agreement between paired human and model scores.
type Calibration struct {
	PearsonR    float64
	SpearmanRho float64
	MAE         float64
	RMSE        float64
	Bias        float64 // mean(model - human); positive means the model scores higher
	N           int
}

// CalibrationMetrics computes MAE, RMSE, bias, Pearson r, and Spearman rho
// between parallel human and model score slices. Both slices must have the
// same length and at least two paired observations.
func CalibrationMetrics(humanScores, modelScores []float64) (Calibration, error) {
	n := len(humanScores)
	if n != len(modelScores) {
		return Calibration{}, fmt.Errorf("length mismatch: %d human vs %d model", n, len(modelScores))
	}
	if n < 2 {
		return Calibration{}, fmt.Errorf("need at least 2 paired observations, got %d", n)
	}

	var maeSum, rmseSum, biasSum float64
	for i := 0; i < n; i++ {
		diff := humanScores[i] - modelScores[i]
		maeSum += math.Abs(diff)
		rmseSum += diff * diff
		biasSum += modelScores[i] - humanScores[i]
	}

	return Calibration{
		PearsonR:    round4(pearsonR(humanScores, modelScores)),
		SpearmanRho: round4(spearmanRho(humanScores, modelScores)),
		MAE:         round4(maeSum / float64(n)),
		RMSE:        round4(math.Sqrt(rmseSum / float64(n))),
		Bias:        round4(biasSum / float64(n)),
		N:           n,
	}, nil
}

func pearsonR(x, y []float64) float64 {
	n := len(x)
	if n < 2 {
		return 0
	}
	mx, my := meanOf(x), meanOf(y)

	var cov, sx, sy float64
	for i := 0; i < n; i++ {
		dx, dy := x[i]-mx, y[i]-my
		cov += dx * dy
		sx += dx * dx
		sy += dy * dy
	}
	sx, sy = math.Sqrt(sx), math.Sqrt(sy)
	if sx == 0 || sy == 0 {
		return 0
	}
	return cov / (sx * sy)
}

func spearmanRho(x, y []float64) float64 {
	return pearsonR(toRanks(x), toRanks(y))
}

// toRanks converts values to 1-based average ranks, ties sharing the mean
// rank of the positions they occupy.
func toRanks(values []float64) []float64 {
	n := len(values)
	type indexed struct {
		idx int
		val float64
	}
	sorted := make([]indexed, n)
	for i, v := range values {
		sorted[i] = indexed{i, v}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].val < sorted[j].val })

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j < n-1 && sorted[j+1].val == sorted[i].val {
			j++
		}
		avgRank := float64(i+j)/2.0 + 1.0
		for k := i; k <= j; k++ {
			ranks[sorted[k].idx] = avgRank
		}
		i = j + 1
	}
	return ranks
}

// CalibrationBin is one bucket of a calibration curve: the average human
// and model score for the model-score range it covers.
type CalibrationBin struct {
	BinCenter float64
	AvgHuman  float64
	AvgModel  float64
	Count     int
}

// CalibrationCurve buckets paired scores by model score into numBins
// equal-width bins and reports the average human/model score per bin.
// Perfect calibration shows AvgHuman ≈ AvgModel in every bin.
func CalibrationCurve(humanScores, modelScores []float64, numBins int) []CalibrationBin {
	if len(humanScores) == 0 || len(modelScores) == 0 {
		return nil
	}

	minScore, maxScore := modelScores[0], modelScores[0]
	for _, m := range modelScores {
		if m < minScore {
			minScore = m
		}
		if m > maxScore {
			maxScore = m
		}
	}

	if maxScore == minScore {
		return []CalibrationBin{{
			BinCenter: round2(minScore),
			AvgHuman:  round4(meanOf(humanScores)),
			AvgModel:  round4(minScore),
			Count:     len(humanScores),
		}}
	}

	binWidth := (maxScore - minScore) / float64(numBins)
	type pair struct{ h, m float64 }
	bins := make(map[int][]pair)

	for i := range modelScores {
		idx := int((modelScores[i] - minScore) / binWidth)
		if idx >= numBins {
			idx = numBins - 1
		}
		bins[idx] = append(bins[idx], pair{humanScores[i], modelScores[i]})
	}

	indices := make([]int, 0, len(bins))
	for idx := range bins {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	result := make([]CalibrationBin, 0, len(indices))
	for _, idx := range indices {
		pairs := bins[idx]
		center := minScore + (float64(idx)+0.5)*binWidth
		var sumH, sumM float64
		for _, p := range pairs {
			sumH += p.h
			sumM += p.m
		}
		result = append(result, CalibrationBin{
			BinCenter: round2(center),
			AvgHuman:  round4(sumH / float64(len(pairs))),
			AvgModel:  round4(sumM / float64(len(pairs))),
			Count:     len(pairs),
		})
	}
	return result
}
