// Package features extracts the structural descriptors used to detect duplicate
// and near-duplicate logo uploads.
//
// A feature record is computed once per uploaded file and persisted next to the
// logo. It consists of the decoded dimensions, two 64-bit fingerprints rendered as
// "0"/"1" strings and a short palette of the most prevalent colors.
//
// # Fingerprints
//
// Two independent hashes are computed from grayscale downscales of the image:
//   - AverageHash: 8x8 grid, each cell compared against the grid mean. Captures
//     coarse luminance layout and survives recompression.
//   - PerceptualHash: 32x32 grid sampled on an 8x8 lattice, each sample compared
//     against its next raster neighbour. Encodes gradient direction, so it
//     survives uniform brightness and contrast shifts.
//
// Both are pure functions of the decoded pixels: identical bytes always yield
// identical hashes.
//
// # Dominant Colors
//
// The image is downscaled to 50x50, alpha is dropped and exact RGB triples are
// counted. Up to five colors are returned, most prevalent first, each with its
// coverage as a fraction of the 2500 sampled pixels.
//
// # Supported Formats
//
// PNG and JPEG are decoded with the standard decoders. SVG documents are
// rasterized at their view-box size before analysis.
//
// # Error Handling
//
// Every failure is reported as a single *ExtractionError that wraps either
// ErrUndecodable or ErrInvalidDimensions together with the underlying cause. A
// partially populated feature record is never returned.
package features
