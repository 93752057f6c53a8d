package facematch

// Decide thresholds a match result. It accepts only when the result names an
// identity and its score is strictly greater than threshold.
func Decide(result MatchResult, threshold float64) Decision {
	if result.HasLabel() && result.Score > threshold {
		return Decision{Verdict: VerdictAccept, Label: result.Label, Score: result.Score}
	}
	return Decision{Verdict: VerdictReject, Score: result.Score}
}
