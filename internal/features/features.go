package features

// ImageFeatures is the structural description of one uploaded image.
//
// Features are computed once at upload time and stored with the logo record;
// they are never recomputed or updated afterwards.
type ImageFeatures struct {
	// Width and Height are the decoded size in pixels; both are positive.
	Width  int `json:"width" bson:"width"`
	Height int `json:"height" bson:"height"`

	// AspectRatio is Width / Height.
	AspectRatio float64 `json:"aspectRatio" bson:"aspectRatio"`

	// AverageHash and PerceptualHash are HashLength characters of '0'/'1'.
	AverageHash    string `json:"averageHash" bson:"averageHash"`
	PerceptualHash string `json:"perceptualHash" bson:"perceptualHash"`

	// DominantColors holds up to MaxDominantColors entries, largest coverage first.
	DominantColors []DominantColor `json:"dominantColors" bson:"dominantColors"`
}

// Extract decodes data and computes its feature record.
//
// Parameters:
//   - data: Raw file bytes. PNG, JPEG and SVG are supported.
//
// Returns:
//   - *ImageFeatures: The complete feature record.
//   - error: An *ExtractionError when the bytes cannot be decoded or decode to a
//     non-positive width or height. No partial record is returned on error.
//
// Extract is deterministic: identical input bytes always produce identical
// hashes and palettes. Raster canvases above DefaultMaxPixels are rejected.
func Extract(data []byte) (*ImageFeatures, error) {
	return ExtractWithLimit(data, DefaultMaxPixels)
}

// ExtractWithLimit is Extract with a caller-chosen bound on the raster canvas.
// A PNG or JPEG whose header declares more than maxPixels pixels fails with an
// *ExtractionError matching both ErrInvalidDimensions and ErrTooManyPixels,
// without decoding. A maxPixels of zero or less disables the bound.
func ExtractWithLimit(data []byte, maxPixels int64) (*ImageFeatures, error) {
	img, width, height, err := decode(data, maxPixels)
	if err != nil {
		return nil, err
	}

	return &ImageFeatures{
		Width:          width,
		Height:         height,
		AspectRatio:    float64(width) / float64(height),
		AverageHash:    AverageHash(img),
		PerceptualHash: PerceptualHash(img),
		DominantColors: DominantColors(img, MaxDominantColors),
	}, nil
}
