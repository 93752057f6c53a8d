// Package facematch scores observed face regions against enrolled references
// and turns the best score into an access decision.
package facematch

// Identity is one enrolled person: a unique label and its reference image.
type Identity struct {
	Label     string
	Reference Image
}

// MatchResult is the best candidate found for one observed face.
// An empty Label means the gallery was empty or no candidate scored above zero.
type MatchResult struct {
	Label string  `json:"label,omitempty"`
	Score float64 `json:"score"`
}

// HasLabel reports whether the result names an enrolled identity.
func (r MatchResult) HasLabel() bool {
	return r.Label != ""
}

// Verdict is the outcome of the decision policy.
type Verdict string

const (
	VerdictAccept Verdict = "accept" // Label matched above the threshold
	VerdictReject Verdict = "reject" // No label, or score at or below the threshold
)

// Decision is a thresholded MatchResult. Label is only set on Accept.
type Decision struct {
	Verdict Verdict `json:"verdict"`
	Label   string  `json:"label,omitempty"`
	Score   float64 `json:"score"`
}

// Accepted reports whether the decision grants access.
func (d Decision) Accepted() bool {
	return d.Verdict == VerdictAccept
}
