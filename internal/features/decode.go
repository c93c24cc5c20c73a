package features

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"math"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Format names reported by SniffFormat.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatSVG  = "svg"
)

// maxRasterSide bounds the raster used for SVG documents with huge view boxes.
const maxRasterSide = 2048

// DefaultMaxPixels is the largest raster canvas Extract will decode.
const DefaultMaxPixels = 4096 * 4096

// svgSniffLen is how many leading bytes are searched for an <svg element.
const svgSniffLen = 1024

// SniffFormat reports the image format of data without decoding pixels.
//
// Returns FormatPNG, FormatJPEG or FormatSVG, or an empty string when the bytes
// are none of these. Raster formats are recognized by their headers; SVG is
// recognized by an <svg element near the start of the document.
func SniffFormat(data []byte) string {
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		switch format {
		case FormatPNG, FormatJPEG:
			return format
		}
		return ""
	}
	if isSVG(data) {
		return FormatSVG
	}
	return ""
}

func isSVG(data []byte) bool {
	head := data
	if len(head) > svgSniffLen {
		head = head[:svgSniffLen]
	}
	head = bytes.TrimLeft(head, "\xef\xbb\xbf \t\r\n")
	if !bytes.HasPrefix(head, []byte("<")) {
		return false
	}
	return bytes.Contains(head, []byte("<svg"))
}

// decode turns raw upload bytes into a non-premultiplied RGBA image.
//
// Go treats decoded PNG and JPEG pixels as sRGB, so cloning into *image.NRGBA is
// the normalization step: every later stage sees 8-bit straight RGB values no
// matter which color model the decoder produced.
//
// Raster headers are read first and a canvas larger than maxPixels is refused
// before any pixel buffer is allocated. SVG is exempt; its raster is capped at
// maxRasterSide instead.
func decode(data []byte, maxPixels int64) (*image.NRGBA, int, int, error) {
	if len(data) == 0 {
		return nil, 0, 0, undecodable(errors.New("empty input"))
	}

	if isSVG(data) {
		return decodeSVG(data)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, undecodable(err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, 0, 0, invalidDimensions(cfg.Width, cfg.Height)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, 0, 0, tooManyPixels(cfg.Width, cfg.Height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, undecodable(err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, 0, 0, invalidDimensions(bounds.Dx(), bounds.Dy())
	}

	return imaging.Clone(img), bounds.Dx(), bounds.Dy(), nil
}

// decodeSVG rasterizes an SVG document at its view-box size.
//
// The reported width and height are the view-box dimensions rounded up to whole
// pixels; the raster itself is capped at maxRasterSide on its longest edge.
func decodeSVG(data []byte) (*image.NRGBA, int, int, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, undecodable(fmt.Errorf("svg: %w", err))
	}

	width := int(math.Ceil(icon.ViewBox.W))
	height := int(math.Ceil(icon.ViewBox.H))
	if width <= 0 || height <= 0 {
		return nil, 0, 0, invalidDimensions(width, height)
	}

	rw, rh := width, height
	if longest := max(rw, rh); longest > maxRasterSide {
		scale := float64(maxRasterSide) / float64(longest)
		rw = max(1, int(float64(rw)*scale))
		rh = max(1, int(float64(rh)*scale))
	}

	icon.SetTarget(0, 0, float64(rw), float64(rh))
	canvas := image.NewRGBA(image.Rect(0, 0, rw, rh))
	scanner := rasterx.NewScannerGV(rw, rh, canvas, canvas.Bounds())
	icon.Draw(rasterx.NewDasher(rw, rh, scanner), 1)

	return imaging.Clone(canvas), width, height, nil
}
