package export

import "github.com/mhuss/foresight/internal/model"

// CandidateWeights maps a level's candidate set to soft training
// probabilities: the positive candidate gets positiveWeight, and the
// remainder is split evenly across the negatives. Weights are returned
// in candidate order and sum to 1.0.
//
// The 0.7 default lives in configuration, not here; the split is a
// training policy choice, not a property of the collected data.
func CandidateWeights(level model.Level, positiveWeight float64) []float64 {
	n := len(level.Candidates)
	if n == 0 {
		return nil
	}

	negatives := 0
	for _, c := range level.Candidates {
		if c.Label != 1 {
			negatives++
		}
	}

	weights := make([]float64, n)
	if negatives == 0 {
		// A level holding only its positive candidate gets full weight.
		for i := range weights {
			weights[i] = 1.0 / float64(n)
		}
		return weights
	}

	negativeWeight := (1.0 - positiveWeight) / float64(negatives)
	for i, c := range level.Candidates {
		if c.Label == 1 {
			weights[i] = positiveWeight
		} else {
			weights[i] = negativeWeight
		}
	}
	return weights
}
