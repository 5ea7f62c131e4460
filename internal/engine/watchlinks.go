package engine

import (
	"sort"
	"strings"
	"unicode"

	"github.com/vmunix/reelroute/internal/catalog"
)

// ProviderKey turns a provider name into a watch-link key:
// "Amazon Freevee" becomes "amazon_freevee".
func ProviderKey(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// WatchLinks builds the external watch-link map from offers. The first offer
// per key wins; offers without a URL are skipped.
func WatchLinks(offers []catalog.StreamOffer) map[string]string {
	links := make(map[string]string)
	for _, o := range offers {
		key := ProviderKey(o.ProviderName)
		if key == "" || o.URL == "" {
			continue
		}
		if _, ok := links[key]; !ok {
			links[key] = o.URL
		}
	}
	return links
}

// ExternalLink is a named provider page opened outside the player.
type ExternalLink struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func sortedLinks(m map[string]string) []ExternalLink {
	out := make([]ExternalLink, 0, len(m))
	for k, v := range m {
		out = append(out, ExternalLink{Key: k, URL: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
