// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Matching constants
const (
	// HistogramBins is the number of intensity buckets used by the histogram scorer
	HistogramBins = 256

	// HistogramScale is the upper bound of the min-max histogram normalization
	HistogramScale = 255.0
)

// Gallery constants
const (
	// MaxGalleryImageSize is the maximum dimension (width or height) kept for a reference image.
	// Larger references are downscaled at load time.
	MaxGalleryImageSize = 512

	// MaxFacePixels caps the declared width*height of any decoded image (4096x4096).
	MaxFacePixels = 4096 * 4096
)
