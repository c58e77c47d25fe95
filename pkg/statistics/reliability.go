package statistics

import "math"

// Reliability summarizes interrater agreement across a set of rated items.
type Reliability struct {
	Alpha             float64
	NumItems          int
	NumRaters         int
	PerDimensionAlpha map[string]float64
}

// KrippendorffsAlpha computes Krippendorff's alpha for interval data.
// ratingsMatrix rows are items, columns are raters; a nil entry means that
// rater did not rate that item. 1.0 is perfect agreement, 0.0 is
// chance-level, negative values indicate systematic disagreement.
func KrippendorffsAlpha(ratingsMatrix [][]*float64) float64 {
	if len(ratingsMatrix) == 0 {
		return 0.0
	}

	var observedDiffsSq []float64
	var allValues []float64

	for _, row := range ratingsMatrix {
		values := make([]float64, 0, len(row))
		for _, v := range row {
			if v != nil {
				values = append(values, *v)
			}
		}
		allValues = append(allValues, values...)
		if len(values) < 2 {
			continue
		}
		for i := 0; i < len(values); i++ {
			for j := i + 1; j < len(values); j++ {
				d := values[i] - values[j]
				observedDiffsSq = append(observedDiffsSq, d*d)
			}
		}
	}

	if len(observedDiffsSq) == 0 || len(allValues) < 2 {
		return 0.0
	}

	dO := meanOf(observedDiffsSq)

	var expectedDiffsSq []float64
	for i := 0; i < len(allValues); i++ {
		for j := i + 1; j < len(allValues); j++ {
			d := allValues[i] - allValues[j]
			expectedDiffsSq = append(expectedDiffsSq, d*d)
		}
	}
	if len(expectedDiffsSq) == 0 {
		return 0.0
	}

	dE := meanOf(expectedDiffsSq)
	if dE == 0 {
		return 1.0
	}

	return round4(1.0 - dO/dE)
}

// ConversationEvaluations maps a conversation id to the list of per-rater
// score maps (dimension name -> score) recorded for it.
type ConversationEvaluations map[string][]map[string]float64

// ComputeReliability computes overall and per-dimension Krippendorff's
// alpha across a set of conversations, each rated by one or more raters.
func ComputeReliability(evals ConversationEvaluations, dimensions []string) Reliability {
	convIDs := make([]string, 0, len(evals))
	for id := range evals {
		convIDs = append(convIDs, id)
	}

	maxRaters := 0
	for _, v := range evals {
		if len(v) > maxRaters {
			maxRaters = len(v)
		}
	}

	if maxRaters < 2 {
		return Reliability{Alpha: 0.0, NumItems: len(convIDs), NumRaters: maxRaters}
	}

	overallMatrix := make([][]*float64, 0, len(convIDs))
	for _, cid := range convIDs {
		row := make([]*float64, maxRaters)
		for i := 0; i < maxRaters; i++ {
			if i >= len(evals[cid]) {
				continue
			}
			scores := evals[cid][i]
			var sum float64
			var count int
			for _, d := range dimensions {
				if v, ok := scores[d]; ok {
					sum += v
					count++
				}
			}
			if count > 0 {
				avg := sum / float64(count)
				row[i] = &avg
			}
		}
		overallMatrix = append(overallMatrix, row)
	}
	overallAlpha := KrippendorffsAlpha(overallMatrix)

	perDim := make(map[string]float64, len(dimensions))
	for _, dim := range dimensions {
		dimMatrix := make([][]*float64, 0, len(convIDs))
		for _, cid := range convIDs {
			row := make([]*float64, maxRaters)
			for i := 0; i < maxRaters; i++ {
				if i >= len(evals[cid]) {
					continue
				}
				if v, ok := evals[cid][i][dim]; ok {
					val := v
					row[i] = &val
				}
			}
			dimMatrix = append(dimMatrix, row)
		}
		perDim[dim] = KrippendorffsAlpha(dimMatrix)
	}

	return Reliability{
		Alpha:             overallAlpha,
		NumItems:          len(convIDs),
		NumRaters:         maxRaters,
		PerDimensionAlpha: perDim,
	}
}

// RaterPairCorrelation is the Pearson correlation between two raters'
// scores on one dimension, over the conversations both of them rated.
type RaterPairCorrelation struct {
	RaterA   int
	RaterB   int
	PearsonR float64
	N        int
}

// PairwiseCorrelations computes Pearson correlation between every pair of
// raters for a single dimension.
func PairwiseCorrelations(evals ConversationEvaluations, dimension string) []RaterPairCorrelation {
	convIDs := make([]string, 0, len(evals))
	for id := range evals {
		convIDs = append(convIDs, id)
	}
	maxRaters := 0
	for _, v := range evals {
		if len(v) > maxRaters {
			maxRaters = len(v)
		}
	}

	var results []RaterPairCorrelation
	for ra := 0; ra < maxRaters; ra++ {
		for rb := ra + 1; rb < maxRaters; rb++ {
			var xs, ys []float64
			for _, cid := range convIDs {
				row := evals[cid]
				if ra >= len(row) || rb >= len(row) {
					continue
				}
				va, okA := row[ra][dimension]
				vb, okB := row[rb][dimension]
				if okA && okB {
					xs = append(xs, va)
					ys = append(ys, vb)
				}
			}
			if len(xs) >= 2 {
				results = append(results, RaterPairCorrelation{
					RaterA:   ra,
					RaterB:   rb,
					PearsonR: round4(pearsonR(xs, ys)),
					N:        len(xs),
				})
			}
		}
	}
	return results
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
