package features

import (
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// HashLength is the number of characters in both fingerprints.
const HashLength = 64

const (
	averageHashSide    = 8
	perceptualHashSide = 32
	perceptualGrid     = 8
)

// grayGrid downscales img to exactly width x height (aspect ratio is not kept)
// and returns the luma of every cell in raster order.
func grayGrid(img image.Image, width, height int) []uint8 {
	gray := imaging.Grayscale(imaging.Resize(img, width, height, imaging.Lanczos))

	values := make([]uint8, 0, width*height)
	for y := 0; y < height; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < width; x++ {
			// Grayscale output has R == G == B; read R.
			values = append(values, row[x*4])
		}
	}
	return values
}

// AverageHash computes the brightness-threshold fingerprint of img.
//
// The image is reduced to an 8x8 grayscale grid and every cell emits "1" when
// its intensity is at least the grid mean, "0" otherwise, in raster order.
func AverageHash(img image.Image) string {
	cells := grayGrid(img, averageHashSide, averageHashSide)

	var sum int
	for _, v := range cells {
		sum += int(v)
	}
	mean := float64(sum) / float64(len(cells))

	var hash strings.Builder
	hash.Grow(HashLength)
	for _, v := range cells {
		if float64(v) >= mean {
			hash.WriteByte('1')
		} else {
			hash.WriteByte('0')
		}
	}
	return hash.String()
}

// PerceptualHash computes the gradient-direction fingerprint of img.
//
// The image is reduced to a 32x32 grayscale buffer. An 8x8 lattice is laid over
// it (one sample every 4 pixels on both axes) and each sample emits "1" when it
// is strictly brighter than the pixel that follows it in raster order. Samples
// whose neighbour falls outside the buffer emit "0". The result is always
// HashLength characters.
func PerceptualHash(img image.Image) string {
	pixels := grayGrid(img, perceptualHashSide, perceptualHashSide)
	step := perceptualHashSide / perceptualGrid

	var hash strings.Builder
	hash.Grow(HashLength)
	for row := 0; row < perceptualGrid && hash.Len() < HashLength; row++ {
		for col := 0; col < perceptualGrid && hash.Len() < HashLength; col++ {
			idx := row*step*perceptualHashSide + col*step
			if idx+1 < len(pixels) && pixels[idx] > pixels[idx+1] {
				hash.WriteByte('1')
			} else {
				hash.WriteByte('0')
			}
		}
	}

	out := hash.String()
	if len(out) < HashLength {
		out += strings.Repeat("0", HashLength-len(out))
	}
	return out
}
