package automation

import "github.com/vmunix/reelroute/pkg/torznab"

// PickBest returns the result with the most seeders among those with at
// least minSeeders and a usable magnet. Results under the floor are not
// candidates at all. Ties keep the earlier result.
func PickBest(results []torznab.Result, minSeeders int) (torznab.Result, bool) {
	best := -1
	for i, r := range results {
		if r.Seeders < minSeeders || r.MagnetURI == "" {
			continue
		}
		if best < 0 || r.Seeders > results[best].Seeders {
			best = i
		}
	}
	if best < 0 {
		return torznab.Result{}, false
	}
	return results[best], true
}
