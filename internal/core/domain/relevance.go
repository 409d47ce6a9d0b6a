package domain

import "math"

// CoverageLevel is a discrete verdict on whether a retrieval batch is
// sufficient to ground a confident answer. Downstream composers must not
// present an uncited answer for CoverageLow or CoverageNone.
type CoverageLevel string

const (
	CoverageHigh   CoverageLevel = "high"
	CoverageMedium CoverageLevel = "medium"
	CoverageLow    CoverageLevel = "low"
	CoverageNone   CoverageLevel = "none"
)

// CoveragePolicy holds the classification thresholds. The values are
// product policy, not algorithmic necessity: they were calibrated against
// one embedding model and corpus, and are expected to be tuned.
type CoveragePolicy struct {
	// HighMinCount and HighMinAvg gate the "high" verdict.
	HighMinCount int
	HighMinAvg   float64

	// MediumMinCount and MediumMinAvg gate the "medium" verdict.
	MediumMinCount int
	MediumMinAvg   float64
}

// DefaultCoveragePolicy returns the calibrated default thresholds.
func DefaultCoveragePolicy() CoveragePolicy {
	return CoveragePolicy{
		HighMinCount:   3,
		HighMinAvg:     0.70,
		MediumMinCount: 2,
		MediumMinAvg:   0.50,
	}
}

// Classify maps a batch's result count and average raw score to a
// coverage verdict. Thresholds are evaluated in order: a batch that has
// the count for "high" but not the average falls through to "medium",
// never straight to "low".
func (p CoveragePolicy) Classify(count int, avgScore float64) CoverageLevel {
	switch {
	case count >= p.HighMinCount && avgScore >= p.HighMinAvg:
		return CoverageHigh
	case count >= p.MediumMinCount && avgScore >= p.MediumMinAvg:
		return CoverageMedium
	case count >= 1:
		return CoverageLow
	default:
		return CoverageNone
	}
}

// ClassifyCoverage applies the default policy.
func ClassifyCoverage(count int, avgScore float64) CoverageLevel {
	return DefaultCoveragePolicy().Classify(count, avgScore)
}

// RelevanceShares converts a batch of raw similarity scores into relative
// relevance percentages via a max-shifted softmax. The shares are all
// non-negative and sum to 100 within floating-point tolerance. A single
// score yields 100; an empty batch yields nil (no divide-by-zero).
func RelevanceShares(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}

	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}

	// Shift by the max before exponentiating for numerical stability.
	exps := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		exps[i] = math.Exp(s - maxScore)
		sum += exps[i]
	}

	shares := make([]float64, len(scores))
	for i := range exps {
		shares[i] = 100 * exps[i] / sum
	}
	return shares
}

// AverageScore returns the mean of the raw scores, or 0 for an empty batch.
func AverageScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// NormalizeVector scales v to unit length in place and returns it.
// Inner product over unit vectors equals cosine similarity, which is the
// invariant every index backend relies on. A zero vector is returned
// unchanged.
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}
