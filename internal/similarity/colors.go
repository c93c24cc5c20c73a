package similarity

import (
	"math"

	"github.com/ironsheep/logo-gallery/internal/features"
	"github.com/lucasb-eyer/go-colorful"
)

// maxRGBDistance is the distance between black and white in unit RGB space,
// the same bound as sqrt(3 * 255^2) in 8-bit space.
var maxRGBDistance = math.Sqrt(3)

type paletteEntry struct {
	color    colorful.Color
	coverage float64
}

// ColorSimilarity scores how well two palettes match.
//
// For every color of one palette the closest color of the other (by Euclidean
// RGB distance) is found and its similarity 1 - distance/maxDistance is weighted
// by the smaller of the two coverages. The weighted average is taken in both
// directions and the two are averaged, so the score does not depend on argument
// order. An empty palette, or zero total weight, scores 0.
//
// Returns an *InvalidColorError when a hex value cannot be parsed or a coverage
// is negative or NaN.
func ColorSimilarity(a, b []features.DominantColor) (float64, error) {
	pa, err := parsePalette(a)
	if err != nil {
		return 0, err
	}
	pb, err := parsePalette(b)
	if err != nil {
		return 0, err
	}
	if len(pa) == 0 || len(pb) == 0 {
		return 0, nil
	}

	return (directional(pa, pb) + directional(pb, pa)) / 2, nil
}

func parsePalette(colors []features.DominantColor) ([]paletteEntry, error) {
	entries := make([]paletteEntry, 0, len(colors))
	for _, c := range colors {
		parsed, err := colorful.Hex(c.Hex)
		if err != nil {
			return nil, &InvalidColorError{Value: c.Hex, Err: err}
		}
		if c.Coverage < 0 || math.IsNaN(c.Coverage) {
			return nil, &InvalidColorError{Value: c.Hex, Err: errInvalidCoverage}
		}
		entries = append(entries, paletteEntry{color: parsed, coverage: c.Coverage})
	}
	return entries, nil
}

func directional(from, to []paletteEntry) float64 {
	var weighted, total float64
	for _, src := range from {
		best := -1.0
		bestCoverage := 0.0
		for _, dst := range to {
			sim := 1 - src.color.DistanceRgb(dst.color)/maxRGBDistance
			if sim > best {
				best = sim
				bestCoverage = dst.coverage
			}
		}

		weight := math.Min(src.coverage, bestCoverage)
		weighted += weight * best
		total += weight
	}

	if total == 0 {
		return 0
	}
	return weighted / total
}
