// Package evaluate classifies a model's free-text answer as a
// discoverability success or failure and attaches a heuristic confidence.
// Everything here is pure: same text in, same verdict out, no side effects.
package evaluate

import "strings"

// Confidence tiers. The exact values are product decisions carried through
// the scoring pipeline and the report thresholds — do not re-tune them.
const (
	ConfidenceFailed  = 0.0
	ConfidenceHedged  = 0.3
	ConfidenceLikely  = 0.6
	ConfidenceCited   = 0.8
	ConfidenceDefault = 0.7
)

// failurePhrases declare the response a miss. Matching is a case-insensitive
// substring check, so legitimate text like "cannot find X in the literature"
// is misclassified — known limitation, kept as-is.
var failurePhrases = []string{
	"information not available",
	"cannot find",
	"can't find",
	"insufficient information",
	"no information",
	"not mentioned",
	"unable to determine",
	"does not contain",
}

// hedgePhrases suggest the model is guessing.
var hedgePhrases = []string{"might be", "possibly", "perhaps", "unclear"}

// likelyPhrases suggest moderate certainty.
var likelyPhrases = []string{"likely", "probably"}

// citationPhrases indicate the model is grounding its answer.
var citationPhrases = []string{"according to", "based on", "the content states"}

// Score returns whether the response text counts as a successful answer
// and its heuristic confidence in [0,1].
func Score(responseText string) (success bool, confidence float64) {
	lower := strings.ToLower(responseText)

	if containsAny(lower, failurePhrases) {
		return false, ConfidenceFailed
	}
	if containsAny(lower, hedgePhrases) {
		return true, ConfidenceHedged
	}
	if containsAny(lower, likelyPhrases) {
		return true, ConfidenceLikely
	}
	if containsAny(lower, citationPhrases) {
		return true, ConfidenceCited
	}
	return true, ConfidenceDefault
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
