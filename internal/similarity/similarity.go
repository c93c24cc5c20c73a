// Package similarity scores how alike two logo feature records are.
//
// The composite score blends three symmetric signals: agreement of the
// perceptual hashes, agreement of the aspect ratios and agreement of the
// dominant-color palettes. Palette agreement carries the largest weight because a
// recolored logo is a different logo even when its structure matches.
package similarity

import (
	"errors"
	"math"

	"github.com/ironsheep/logo-gallery/internal/features"
)

// Weights of the composite score. They sum to 1.
const (
	HashWeight   = 0.3
	AspectWeight = 0.2
	ColorWeight  = 0.5
)

// MatchType labels a composite score.
type MatchType string

const (
	MatchExact           MatchType = "exact"
	MatchVerySimilar     MatchType = "very similar"
	MatchSimilar         MatchType = "similar"
	MatchSomewhatSimilar MatchType = "somewhat similar"
	MatchDifferent       MatchType = "different"
	MatchError           MatchType = "error"
)

// Result is the outcome of comparing two feature records.
type Result struct {
	// Similarity is the composite score in [0, 1].
	Similarity float64 `json:"similarity"`

	// MatchType is Classify(Similarity), or MatchError when comparison failed.
	MatchType MatchType `json:"matchType"`
}

// errMissingFeatures is returned by Evaluate when either side is nil.
var errMissingFeatures = errors.New("feature record is missing")

// Classify maps a composite score to its label. Every threshold is exclusive:
// a score of exactly 0.85 is MatchSimilar, not MatchVerySimilar.
func Classify(score float64) MatchType {
	switch {
	case score > 0.98:
		return MatchExact
	case score > 0.85:
		return MatchVerySimilar
	case score > 0.70:
		return MatchSimilar
	case score > 0.55:
		return MatchSomewhatSimilar
	default:
		return MatchDifferent
	}
}

// Compare scores a against b. It never fails: when the records cannot be
// compared (for example a stored palette holds a corrupt hex value) the result
// is a zero score labelled MatchError, so one bad record cannot block an
// unrelated upload decision.
//
// Compare is symmetric: Compare(a, b) and Compare(b, a) yield the same score.
func Compare(a, b *features.ImageFeatures) Result {
	r, _ := Evaluate(a, b)
	return r
}

// Evaluate is Compare with the failure cause exposed for logging. On error the
// returned Result is still the degraded {0, MatchError}.
func Evaluate(a, b *features.ImageFeatures) (Result, error) {
	failed := Result{Similarity: 0, MatchType: MatchError}
	if a == nil || b == nil {
		return failed, errMissingFeatures
	}

	colorSim, err := ColorSimilarity(a.DominantColors, b.DominantColors)
	if err != nil {
		return failed, err
	}

	score := HashWeight*HashSimilarity(a.PerceptualHash, b.PerceptualHash) +
		AspectWeight*AspectRatioSimilarity(aspectRatio(a), aspectRatio(b)) +
		ColorWeight*colorSim
	score = math.Max(0, math.Min(1, score))

	return Result{Similarity: score, MatchType: Classify(score)}, nil
}

// HashSimilarity is the fraction of positions at which the two hashes agree,
// counted over the length of the shorter one. Two empty hashes score 0.
func HashSimilarity(a, b string) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}

	matches := 0
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(n)
}

// AspectRatioSimilarity is min(a, b) / max(a, b): 1 for equal ratios, tending
// to 0 as they diverge. Non-positive ratios score 0.
func AspectRatioSimilarity(a, b float64) float64 {
	if a <= 0 || b <= 0 || math.IsNaN(a) || math.IsNaN(b) {
		return 0
	}
	return math.Min(a, b) / math.Max(a, b)
}

// aspectRatio prefers the stored dimensions and falls back to the stored ratio.
func aspectRatio(f *features.ImageFeatures) float64 {
	if f.Width > 0 && f.Height > 0 {
		return float64(f.Width) / float64(f.Height)
	}
	return f.AspectRatio
}
