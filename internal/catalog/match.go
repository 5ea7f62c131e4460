package catalog

import (
	"strconv"
	"strings"
)

const maxCandidates = 10

// selectCandidate applies the match tiers to candidates in response order and
// returns the index of the winner and its tier, or -1.
//
// Tier 1 (external id) is checked across every candidate before tier 2 so a
// later id match always beats an earlier title match. Only tier 1 skips the
// type filter; an empty MediaType matches every type.
func selectCandidate(cands []candidate, q Query) (int, int) {
	if len(cands) > maxCandidates {
		cands = cands[:maxCandidates]
	}

	if q.ExternalID != "" {
		for i, c := range cands {
			if c.ExternalID != "" && c.ExternalID == q.ExternalID {
				return i, TierExternalID
			}
		}
	}

	want := objectTypeFor(q.MediaType)
	title := strings.ToLower(strings.TrimSpace(q.Title))

	for i, c := range cands {
		if want != "" && c.ObjectType != want {
			continue
		}
		ct := strings.ToLower(strings.TrimSpace(c.Title))
		if ct == "" || (!strings.Contains(ct, title) && !strings.Contains(title, ct)) {
			continue
		}
		if q.Year == 0 || c.Year.Int() == q.Year || string(c.Year) == strconv.Itoa(q.Year) {
			return i, TierTitleYear
		}
	}

	for i, c := range cands {
		if want == "" || c.ObjectType == want {
			return i, TierFirstType
		}
	}
	return -1, 0
}
