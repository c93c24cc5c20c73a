package features

import (
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"
)

const (
	paletteSide = 50
	// MaxDominantColors is the palette size kept per image.
	MaxDominantColors = 5
)

// DominantColor is one palette entry of an image.
type DominantColor struct {
	// Hex is the color as "#RRGGBB".
	Hex string `json:"hex" bson:"hex"`

	// Coverage is the fraction (0-1) of the 50x50 sample grid with this exact color.
	Coverage float64 `json:"coverage" bson:"coverage"`
}

// DominantColors returns up to count of the most common exact colors in img.
//
// The image is downscaled to a 50x50 grid and alpha is discarded, so a
// translucent pixel counts as its straight RGB value. Exact RGB triples are
// counted without quantization; results are sorted by coverage descending, with
// ties broken by hex string so the output is deterministic.
func DominantColors(img image.Image, count int) []DominantColor {
	small := imaging.Resize(img, paletteSide, paletteSide, imaging.Lanczos)

	counts := make(map[[3]uint8]int)
	for y := 0; y < paletteSide; y++ {
		row := small.Pix[y*small.Stride:]
		for x := 0; x < paletteSide; x++ {
			i := x * 4
			counts[[3]uint8{row[i], row[i+1], row[i+2]}]++
		}
	}

	total := float64(paletteSide * paletteSide)
	colors := make([]DominantColor, 0, len(counts))
	for rgb, cnt := range counts {
		colors = append(colors, DominantColor{
			Hex:      fmt.Sprintf("#%02X%02X%02X", rgb[0], rgb[1], rgb[2]),
			Coverage: float64(cnt) / total,
		})
	}

	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Coverage != colors[j].Coverage {
			return colors[i].Coverage > colors[j].Coverage
		}
		return colors[i].Hex < colors[j].Hex
	})

	if len(colors) > count {
		colors = colors[:count]
	}
	return colors
}
