package facematch

import (
	"image"
	"math"

	"github.com/kozaktomas/facegate/internal/constants"
)

// histogram counts pixels per intensity level.
type histogram [constants.HistogramBins]float64

// computeHistogram builds the intensity histogram of a grayscale image.
func computeHistogram(img *image.Gray) histogram {
	var h histogram
	if img == nil {
		return h
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[img.PixOffset(bounds.Min.X, y):]
		for _, v := range row[:bounds.Dx()] {
			h[v]++
		}
	}
	return h
}

// normalizeMinMax rescales the bins linearly so the smallest becomes 0 and the
// largest becomes HistogramScale. A flat histogram collapses to all zeros.
func (h *histogram) normalizeMinMax() {
	lo, hi := h[0], h[0]
	for _, v := range h {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	scale := 0.0
	if hi-lo > 0 {
		scale = constants.HistogramScale / (hi - lo)
	}
	for i := range h {
		h[i] = (h[i] - lo) * scale
	}
}

// correlation computes the Pearson correlation of two histograms in [-1, 1].
// Returns 0 when either histogram has no variance: a degenerate comparison
// must never look like a match.
func correlation(a, b *histogram) float64 {
	n := float64(len(a))
	var sumA, sumB float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
	}
	meanA := sumA / n
	meanB := sumB / n

	var num, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		num += da * db
		varA += da * da
		varB += db * db
	}

	denom := math.Sqrt(varA * varB)
	if denom < 1e-12 {
		return 0
	}
	return max(-1, min(1, num/denom))
}
