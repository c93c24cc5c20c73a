package similarity

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/anthonynsimon/bild/adjust"

	"github.com/ironsheep/logo-gallery/internal/features"
)

// createQuadrantImage paints each quadrant of the image with its own color
func createQuadrantImage(width, height int, tl, tr, bl, br color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			switch {
			case x < width/2 && y < height/2:
				img.SetRGBA(x, y, tl)
			case x >= width/2 && y < height/2:
				img.SetRGBA(x, y, tr)
			case x < width/2:
				img.SetRGBA(x, y, bl)
			default:
				img.SetRGBA(x, y, br)
			}
		}
	}
	return img
}

func extract(t *testing.T, img image.Image) *features.ImageFeatures {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	f, err := features.Extract(buf.Bytes())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	return f
}

func sampleFeatures(t *testing.T) map[string]*features.ImageFeatures {
	t.Helper()
	red := color.RGBA{200, 60, 60, 255}
	green := color.RGBA{60, 160, 60, 255}
	blue := color.RGBA{60, 60, 200, 255}
	gray := color.RGBA{180, 180, 180, 255}

	return map[string]*features.ImageFeatures{
		"quadrants":       extract(t, createQuadrantImage(100, 100, red, green, blue, gray)),
		"rotated palette": extract(t, createQuadrantImage(100, 100, gray, red, green, blue)),
		"wide":            extract(t, createQuadrantImage(300, 100, red, red, blue, blue)),
		"solid black":     extract(t, createQuadrantImage(40, 40, color.RGBA{0, 0, 0, 255}, color.RGBA{0, 0, 0, 255}, color.RGBA{0, 0, 0, 255}, color.RGBA{0, 0, 0, 255})),
		"tall":            extract(t, createQuadrantImage(50, 200, green, gray, gray, green)),
	}
}

func TestCompare_SelfSimilarity(t *testing.T) {
	for name, f := range sampleFeatures(t) {
		t.Run(name, func(t *testing.T) {
			r := Compare(f, f)
			if r.Similarity != 1.0 {
				t.Errorf("Similarity: got %v, want 1.0", r.Similarity)
			}
			if r.MatchType != MatchExact {
				t.Errorf("MatchType: got %q, want %q", r.MatchType, MatchExact)
			}
		})
	}
}

func TestCompare_SymmetryAndBounds(t *testing.T) {
	samples := sampleFeatures(t)
	for nameA, a := range samples {
		for nameB, b := range samples {
			ab := Compare(a, b)
			ba := Compare(b, a)
			if ab.Similarity != ba.Similarity {
				t.Errorf("%s vs %s: asymmetric scores %v / %v", nameA, nameB, ab.Similarity, ba.Similarity)
			}
			if ab.Similarity < 0 || ab.Similarity > 1 {
				t.Errorf("%s vs %s: score %v outside [0,1]", nameA, nameB, ab.Similarity)
			}
			if ab.MatchType != Classify(ab.Similarity) {
				t.Errorf("%s vs %s: MatchType %q does not match score %v", nameA, nameB, ab.MatchType, ab.Similarity)
			}
		}
	}
}

func TestCompare_BrightnessShift(t *testing.T) {
	img := createQuadrantImage(100, 100,
		color.RGBA{200, 60, 60, 255}, color.RGBA{60, 160, 60, 255},
		color.RGBA{60, 60, 200, 255}, color.RGBA{180, 180, 180, 255})
	brighter := adjust.Brightness(img, 0.05)

	r := Compare(extract(t, img), extract(t, brighter))
	if r.Similarity <= 0.70 {
		t.Errorf("brightness-shifted copy scored %v (%s), want > 0.70", r.Similarity, r.MatchType)
	}
}

func TestCompare_DifferentLogos(t *testing.T) {
	a := &features.ImageFeatures{
		Width: 100, Height: 100, AspectRatio: 1,
		PerceptualHash: strings.Repeat("0", 64),
		DominantColors: []features.DominantColor{{Hex: "#000000", Coverage: 1}},
	}
	b := &features.ImageFeatures{
		Width: 400, Height: 100, AspectRatio: 4,
		PerceptualHash: strings.Repeat("1", 64),
		DominantColors: []features.DominantColor{{Hex: "#FFFFFF", Coverage: 1}},
	}

	r := Compare(a, b)
	// hash 0, aspect 0.25, color 0
	if math.Abs(r.Similarity-0.05) > 1e-9 {
		t.Errorf("Similarity: got %v, want 0.05", r.Similarity)
	}
	if r.MatchType != MatchDifferent {
		t.Errorf("MatchType: got %q, want %q", r.MatchType, MatchDifferent)
	}
}

func TestCompare_InvalidColor(t *testing.T) {
	good := &features.ImageFeatures{
		Width: 10, Height: 10, PerceptualHash: strings.Repeat("1", 64),
		DominantColors: []features.DominantColor{{Hex: "#FF0000", Coverage: 1}},
	}
	corrupt := &features.ImageFeatures{
		Width: 10, Height: 10, PerceptualHash: strings.Repeat("1", 64),
		DominantColors: []features.DominantColor{{Hex: "#GG0000", Coverage: 1}},
	}

	r := Compare(good, corrupt)
	if r.Similarity != 0 || r.MatchType != MatchError {
		t.Errorf("Compare with corrupt palette: got %+v, want {0 error}", r)
	}

	_, err := Evaluate(corrupt, good)
	var colorErr *InvalidColorError
	if !errors.As(err, &colorErr) {
		t.Fatalf("Evaluate error is %T, want *InvalidColorError", err)
	}
	if colorErr.Value != "#GG0000" {
		t.Errorf("InvalidColorError.Value: got %q", colorErr.Value)
	}
}

func TestCompare_NilFeatures(t *testing.T) {
	r := Compare(nil, &features.ImageFeatures{})
	if r.MatchType != MatchError {
		t.Errorf("MatchType: got %q, want %q", r.MatchType, MatchError)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		want  MatchType
	}{
		{1.0, MatchExact},
		{0.99, MatchExact},
		{0.98, MatchVerySimilar},
		{0.86, MatchVerySimilar},
		{0.85, MatchSimilar},
		{0.71, MatchSimilar},
		{0.70, MatchSomewhatSimilar},
		{0.56, MatchSomewhatSimilar},
		{0.55, MatchDifferent},
		{0.0, MatchDifferent},
	}

	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%v): got %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestHashSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "0101", "0101", 1},
		{"opposite", "0000", "1111", 0},
		{"half", "0011", "0101", 0.5},
		{"length mismatch uses shorter", "1111", "11110000", 1},
		{"empty", "", "0101", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HashSimilarity(tt.a, tt.b); got != tt.want {
				t.Errorf("HashSimilarity: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAspectRatioSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"equal", 1.5, 1.5, 1},
		{"double", 2, 1, 0.5},
		{"reversed", 1, 2, 0.5},
		{"zero", 0, 1, 0},
		{"negative", -1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AspectRatioSimilarity(tt.a, tt.b); got != tt.want {
				t.Errorf("AspectRatioSimilarity: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColorSimilarity(t *testing.T) {
	red := features.DominantColor{Hex: "#FF0000", Coverage: 0.5}
	white := features.DominantColor{Hex: "#FFFFFF", Coverage: 0.5}
	black := features.DominantColor{Hex: "#000000", Coverage: 1}

	t.Run("identical palettes", func(t *testing.T) {
		got, err := ColorSimilarity([]features.DominantColor{red, white}, []features.DominantColor{red, white})
		if err != nil {
			t.Fatalf("ColorSimilarity failed: %v", err)
		}
		if got != 1 {
			t.Errorf("got %v, want 1", got)
		}
	})

	t.Run("black vs white", func(t *testing.T) {
		got, err := ColorSimilarity([]features.DominantColor{black}, []features.DominantColor{{Hex: "#FFFFFF", Coverage: 1}})
		if err != nil {
			t.Fatalf("ColorSimilarity failed: %v", err)
		}
		if math.Abs(got) > 1e-12 {
			t.Errorf("got %v, want 0", got)
		}
	})

	t.Run("empty palette", func(t *testing.T) {
		got, err := ColorSimilarity(nil, []features.DominantColor{black})
		if err != nil {
			t.Fatalf("ColorSimilarity failed: %v", err)
		}
		if got != 0 {
			t.Errorf("got %v, want 0", got)
		}
	})

	t.Run("zero coverage", func(t *testing.T) {
		zero := features.DominantColor{Hex: "#123456", Coverage: 0}
		got, err := ColorSimilarity([]features.DominantColor{zero}, []features.DominantColor{zero})
		if err != nil {
			t.Fatalf("ColorSimilarity failed: %v", err)
		}
		if got != 0 {
			t.Errorf("got %v, want 0", got)
		}
	})

	t.Run("negative coverage", func(t *testing.T) {
		bad := features.DominantColor{Hex: "#123456", Coverage: -0.1}
		_, err := ColorSimilarity([]features.DominantColor{bad}, []features.DominantColor{black})
		var colorErr *InvalidColorError
		if !errors.As(err, &colorErr) {
			t.Errorf("error is %T, want *InvalidColorError", err)
		}
	})
}
