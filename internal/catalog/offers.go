package catalog

import (
	"fmt"
	"slices"
	"strings"
)

const maxAllOffers = 20

// Known free and ad-supported providers by upstream provider ID.
var freeProviders = map[int]string{
	73:  "Tubi",
	300: "Pluto TV",
	613: "Amazon Freevee",
	207: "The Roku Channel",
	12:  "Crackle",
	538: "Plex",
	191: "Kanopy",
	212: "hoopla",
}

var freeMonetizations = []string{MonetizationFree, MonetizationAds, MonetizationFlatrateAndAds}

// DefaultFreeProviderIDs returns the built-in allow-list.
func DefaultFreeProviderIDs() []int {
	ids := make([]int, 0, len(freeProviders))
	for id := range freeProviders {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func providerName(id int) string {
	if name, ok := freeProviders[id]; ok {
		return name
	}
	return fmt.Sprintf("Provider %d", id)
}

type graphQLOffer struct {
	MonetizationType string `json:"monetizationType"`
	StandardWebURL   string `json:"standardWebURL"`
	Package          struct {
		PackageID int    `json:"packageId"`
		ClearName string `json:"clearName"`
	} `json:"package"`
}

func fromGraphQLOffer(o graphQLOffer) StreamOffer {
	name := o.Package.ClearName
	if name == "" {
		name = providerName(o.Package.PackageID)
	}
	return StreamOffer{
		ProviderName: name,
		ProviderID:   o.Package.PackageID,
		URL:          o.StandardWebURL,
		Monetization: strings.ToUpper(o.MonetizationType),
	}
}

type restOffer struct {
	ProviderID       int    `json:"provider_id"`
	MonetizationType string `json:"monetization_type"`
	URLs             struct {
		StandardWeb string `json:"standard_web"`
	} `json:"urls"`
}

func fromRestOffer(o restOffer) StreamOffer {
	return StreamOffer{
		ProviderName: providerName(o.ProviderID),
		ProviderID:   o.ProviderID,
		URL:          o.URLs.StandardWeb,
		Monetization: strings.ToUpper(o.MonetizationType),
	}
}

// isFree reports whether an offer can be watched without a subscription.
func isFree(o StreamOffer, allow map[int]bool) bool {
	return allow[o.ProviderID] || slices.Contains(freeMonetizations, o.Monetization)
}

// freeOffers keeps qualifying offers, first occurrence per provider.
func freeOffers(offers []StreamOffer, allow map[int]bool) []StreamOffer {
	seen := make(map[int]bool)
	out := []StreamOffer{}
	for _, o := range offers {
		if !isFree(o, allow) || seen[o.ProviderID] {
			continue
		}
		seen[o.ProviderID] = true
		out = append(out, o)
	}
	return out
}

type offerKey struct {
	providerID   int
	monetization string
}

// allOffers keeps the first maxAllOffers raw offers, first occurrence per
// provider and monetization pair.
func allOffers(offers []StreamOffer) []StreamOffer {
	if len(offers) > maxAllOffers {
		offers = offers[:maxAllOffers]
	}
	seen := make(map[offerKey]bool)
	out := []StreamOffer{}
	for _, o := range offers {
		k := offerKey{o.ProviderID, o.Monetization}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, o)
	}
	return out
}
