// Package mention scans model responses for fingerprint terms and scores
// how prominently the user's brand surfaces versus named competitors.
// The analyzer is pure text processing — no network calls.
package mention

import (
	"math"
	"sort"
	"strings"

	"github.com/discoverly/visibility-service/internal/model"
)

const (
	// snippetRadius is the window captured around a term's first occurrence.
	snippetRadius = 50

	// frequencyWeight converts occurrence counts into a 0-100 score.
	frequencyWeight = 20

	// mentionBonusPerHit and mentionBonusCap reward repeated brand presence
	// in the visibility score.
	mentionBonusPerHit = 10
	mentionBonusCap    = 30

	// longResponsePenalty applies when the answer exceeds longResponseLength
	// characters — mentions buried in long answers are less visible.
	longResponsePenalty = 10
	longResponseLength  = 1000

	// accuracyExact scores a term reproduced with its original casing;
	// accuracyApprox scores a case-insensitive-only match.
	accuracyExact  = 100
	accuracyApprox = 90
)

// Analysis is the result of scanning one response against a fingerprint.
type Analysis struct {
	UserMentions       []model.ContentMention
	CompetitorMentions []model.ContentMention
}

// Analyze detects every fingerprint term in the response text. User-side
// terms are the company name, product names, and unique claims; the
// competitor side is the competitor names. One ContentMention is produced
// per matched term, folding all its occurrences into the prominence score.
func Analyze(responseText string, fp model.ContentFingerprint) Analysis {
	var a Analysis
	seen := make(map[string]struct{})

	addUser := func(term string, kind model.MentionType) {
		if m, ok := detect(responseText, term, kind, seen); ok {
			a.UserMentions = append(a.UserMentions, m)
		}
	}

	addUser(fp.CompanyName, model.MentionCompany)
	for _, p := range fp.ProductNames {
		addUser(p, model.MentionProduct)
	}
	for _, c := range fp.UniqueClaims {
		addUser(c, model.MentionClaim)
	}

	for _, name := range fp.CompetitorNames {
		if m, ok := detect(responseText, name, model.MentionCompany, seen); ok {
			a.CompetitorMentions = append(a.CompetitorMentions, m)
		}
	}

	return a
}

// detect builds the ContentMention for one term, or reports false when the
// term is empty, already handled, or absent from the text.
func detect(text, term string, kind model.MentionType, seen map[string]struct{}) (model.ContentMention, bool) {
	term = strings.TrimSpace(term)
	if term == "" {
		return model.ContentMention{}, false
	}
	key := strings.ToLower(term)
	if _, dup := seen[key]; dup {
		return model.ContentMention{}, false
	}

	lowerText := strings.ToLower(text)
	first := strings.Index(lowerText, key)
	if first < 0 {
		return model.ContentMention{}, false
	}
	seen[key] = struct{}{}

	occurrences := strings.Count(lowerText, key)

	accuracy := accuracyApprox
	if strings.HasPrefix(text[first:], term) {
		accuracy = accuracyExact
	}

	return model.ContentMention{
		Source:      term,
		ContentType: kind,
		Snippet:     snippet(text, first, len(term)),
		Prominence:  prominence(first, occurrences, len(text)),
		Accuracy:    accuracy,
	}, true
}

// prominence averages a position score (100 at the start of the text,
// decaying linearly to 0 at the end) with a frequency score
// (min(occurrences*20, 100)), rounded to the nearest integer.
func prominence(firstIndex, occurrences, textLen int) int {
	position := 0.0
	if textLen > 0 {
		position = 100 * (1 - float64(firstIndex)/float64(textLen))
	}
	frequency := math.Min(float64(occurrences*frequencyWeight), 100)
	return clamp(int(math.Round((position+frequency)/2)), 0, 100)
}

// snippet extracts the ±50 character window around a match.
func snippet(text string, index, termLen int) string {
	start := index - snippetRadius
	if start < 0 {
		start = 0
	}
	end := index + termLen + snippetRadius
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}

// VisibilityScore folds the user mentions of one response into a 0-100
// score: average prominence, plus a capped bonus for mention count, minus
// a penalty for overly long answers. No user mentions means zero.
func VisibilityScore(mentions []model.ContentMention, responseLength int) int {
	if len(mentions) == 0 {
		return 0
	}

	sum := 0
	for _, m := range mentions {
		sum += m.Prominence
	}
	score := sum / len(mentions)

	bonus := len(mentions) * mentionBonusPerHit
	if bonus > mentionBonusCap {
		bonus = mentionBonusCap
	}
	score += bonus

	if responseLength > longResponseLength {
		score -= longResponsePenalty
	}

	return clamp(score, 0, 100)
}

// CompetitiveRank returns the 1-based position of the user's best mention
// among all mentions sorted by prominence descending, or -1 when the user
// is never mentioned. The sort is stable with user mentions first, so ties
// favor the user.
func CompetitiveRank(userMentions, competitorMentions []model.ContentMention) int {
	if len(userMentions) == 0 {
		return -1
	}

	type entry struct {
		prominence int
		user       bool
	}
	all := make([]entry, 0, len(userMentions)+len(competitorMentions))
	for _, m := range userMentions {
		all = append(all, entry{m.Prominence, true})
	}
	for _, m := range competitorMentions {
		all = append(all, entry{m.Prominence, false})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].prominence > all[j].prominence
	})

	for i, e := range all {
		if e.user {
			return i + 1
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
