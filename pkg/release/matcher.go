package release

import (
	"regexp"
	"slices"

	"github.com/hbollon/go-edlib"
)

var numberRe = regexp.MustCompile(`\b(\d+)\b`)

// MatchConfidence grades how closely two titles agree.
type MatchConfidence int

const (
	ConfidenceNone   MatchConfidence = iota // score < 0.70
	ConfidenceLow                           // score >= 0.70
	ConfidenceMedium                        // score >= 0.85
	ConfidenceHigh                          // score >= 0.95
)

func (c MatchConfidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// MatchResult is the outcome of a fuzzy title comparison.
type MatchResult struct {
	Title      string
	Score      float64 // 0.0 - 1.0
	Confidence MatchConfidence
}

// Compare scores a single candidate title against a query. Both sides are
// run through CleanTitle first, so "Léon: The Professional" and
// "Leon the Professional" compare as equal.
func Compare(query, candidate string) MatchResult {
	q := CleanTitle(query)
	c := CleanTitle(candidate)

	score := float64(edlib.JaroWinklerSimilarity(q, c))
	score = adjustForNumbers(score, numberRe.FindAllString(q, -1), numberRe.FindAllString(c, -1))

	res := MatchResult{Title: candidate, Score: score, Confidence: confidenceFor(score)}
	if res.Confidence == ConfidenceNone {
		res.Title = ""
	}
	return res
}

// MatchTitle returns the best-scoring candidate for query. Ties keep the
// earliest candidate.
func MatchTitle(query string, candidates []string) MatchResult {
	best := MatchResult{Confidence: ConfidenceNone}
	for _, candidate := range candidates {
		res := Compare(query, candidate)
		if res.Score > best.Score {
			best = res
		}
	}
	return best
}

func confidenceFor(score float64) MatchConfidence {
	switch {
	case score >= 0.95:
		return ConfidenceHigh
	case score >= 0.85:
		return ConfidenceMedium
	case score >= 0.70:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// adjustForNumbers rewards sequel numbers that agree and penalizes ones that
// don't, so "Toy Story 2" does not match "Toy Story 3".
func adjustForNumbers(score float64, queryNums, candidateNums []string) float64 {
	if len(queryNums) == 0 {
		return score
	}
	if len(candidateNums) == 0 {
		return score * 0.85
	}
	for _, n := range queryNums {
		if slices.Contains(candidateNums, n) {
			return min(score*1.05, 1.0)
		}
	}
	return score * 0.90
}
