package facematch

import (
	"fmt"
	"math/bits"
	"strings"
)

// DifferenceHashScorer compares 64-bit difference hashes of the two images.
// The score is 1 - 2*d/64 for a Hamming distance d, so identical hashes
// score 1 and complementary hashes score -1. It reacts to structure rather
// than overall brightness, unlike HistogramScorer.
type DifferenceHashScorer struct{}

// Score implements Scorer.
func (DifferenceHashScorer) Score(face, reference Image) float64 {
	if face.Empty() || reference.Empty() {
		return 0
	}
	d := bits.OnesCount64(differenceHash(face) ^ differenceHash(reference))
	return 1 - 2*float64(d)/64
}

// differenceHash scales the image to 9x8 and sets one bit per horizontally
// adjacent pair where the left pixel is brighter.
func differenceHash(img Image) uint64 {
	small := img.Resize(9, 8)
	var hash uint64
	bit := 63
	for y := range 8 {
		row := small.gray.Pix[y*small.gray.Stride:]
		for x := range 8 {
			if row[x] > row[x+1] {
				hash |= 1 << bit
			}
			bit--
		}
	}
	return hash
}

// Scorer names accepted by ScorerByName.
const (
	ScorerHistogram = "histogram"
	ScorerDHash     = "dhash"
)

// ScorerByName returns the scorer registered under name.
func ScorerByName(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ScorerHistogram:
		return HistogramScorer{}, nil
	case ScorerDHash:
		return DifferenceHashScorer{}, nil
	default:
		return nil, fmt.Errorf("unknown scorer %q (want %s or %s)", name, ScorerHistogram, ScorerDHash)
	}
}
