package facematch

// Scorer compares an observed face with a reference of identical dimensions.
// Higher is more similar; implementations return values in [-1, 1].
type Scorer interface {
	Score(face, reference Image) float64
}

// HistogramScorer correlates min-max normalized intensity histograms.
// It is cheap and approximate: lighting changes move the score more than identity does.
type HistogramScorer struct{}

// Score implements Scorer.
func (HistogramScorer) Score(face, reference Image) float64 {
	hf := computeHistogram(face.gray)
	hr := computeHistogram(reference.gray)
	hf.normalizeMinMax()
	hr.normalizeMinMax()
	return correlation(&hf, &hr)
}

// Matcher finds the best gallery identity for an observed face.
type Matcher struct {
	scorer Scorer
}

// NewMatcher creates a matcher using scorer, or HistogramScorer when scorer is nil.
func NewMatcher(scorer Scorer) *Matcher {
	if scorer == nil {
		scorer = HistogramScorer{}
	}
	return &Matcher{scorer: scorer}
}

// Score compares face against every identity in gallery order.
// Each reference is scaled to the face's dimensions, never the face to the reference.
// The best candidate starts at score 0 with no label and is only replaced by a
// strictly greater score, so ties keep the earliest identity and non-positive
// scores never name anyone. An empty gallery or empty face yields {"", 0}.
func (m *Matcher) Score(face Image, identities []Identity) MatchResult {
	var best MatchResult
	if face.Empty() {
		return best
	}

	for _, id := range identities {
		score, ok := m.scoreOne(face, id)
		if ok && score > best.Score {
			best = MatchResult{Label: id.Label, Score: score}
		}
	}
	return best
}

// ScoreEach returns the raw score of every identity in gallery order, negative
// scores included. Identities whose reference cannot be scaled are omitted.
func (m *Matcher) ScoreEach(face Image, identities []Identity) []MatchResult {
	if face.Empty() {
		return nil
	}
	out := make([]MatchResult, 0, len(identities))
	for _, id := range identities {
		if score, ok := m.scoreOne(face, id); ok {
			out = append(out, MatchResult{Label: id.Label, Score: score})
		}
	}
	return out
}

func (m *Matcher) scoreOne(face Image, id Identity) (float64, bool) {
	ref := id.Reference.Resize(face.Width(), face.Height())
	if ref.Empty() {
		return 0, false
	}
	return m.scorer.Score(face, ref), true
}
