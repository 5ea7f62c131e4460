// Package catalog finds legal streaming offers for a title by querying a
// catalog-offers service, with a GraphQL primary and a REST fallback.
package catalog

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/vmunix/reelroute/internal/library"
)

// Monetization types as reported upstream. Other values pass through.
const (
	MonetizationFree           = "FREE"
	MonetizationAds            = "ADS"
	MonetizationFlatrateAndAds = "FLATRATE_AND_ADS"
	MonetizationFlatrate       = "FLATRATE"
	MonetizationRent           = "RENT"
	MonetizationBuy            = "BUY"
)

// StreamOffer is a single way to watch a title.
type StreamOffer struct {
	ProviderName string `json:"provider_name"`
	ProviderID   int    `json:"provider_id"`
	URL          string `json:"url"`
	Monetization string `json:"monetization"`
}

// Query is the input to Lookup. MediaType may be empty.
type Query struct {
	Title      string              `json:"title"`
	Year       int                 `json:"year,omitempty"`
	MediaType  library.ContentType `json:"media_type,omitempty"`
	ExternalID string              `json:"external_id,omitempty"`
}

// QueryFor builds a lookup query from a content reference.
func QueryFor(ref library.ContentRef) Query {
	return Query{Title: ref.Title, Year: ref.Year, MediaType: ref.MediaType, ExternalID: ref.ExternalID}
}

// Match tiers, in precedence order.
const (
	TierExternalID = 1
	TierTitleYear  = 2
	TierFirstType  = 3
)

// Result is the outcome of a lookup. FreeOffers and AllOffers are never nil.
type Result struct {
	Found        bool          `json:"found"`
	MatchedTitle string        `json:"matched_title,omitempty"`
	MatchedYear  int           `json:"matched_year,omitempty"`
	MatchTier    int           `json:"match_tier,omitempty"`
	Confidence   string        `json:"confidence,omitempty"`
	Source       string        `json:"source,omitempty"` // "graphql" or "rest"
	FreeOffers   []StreamOffer `json:"free_offers"`
	AllOffers    []StreamOffer `json:"all_offers"`
}

func notFound() Result {
	return Result{FreeOffers: []StreamOffer{}, AllOffers: []StreamOffer{}}
}

// candidate is a search hit in schema-neutral form.
type candidate struct {
	Title      string
	Year       flexString
	ObjectType string // MOVIE or SHOW
	ExternalID string
	Offers     []StreamOffer
}

// objectTypeFor maps a content type to the upstream object type.
func objectTypeFor(t library.ContentType) string {
	switch t {
	case library.ContentTypeMovie:
		return "MOVIE"
	case library.ContentTypeTV:
		return "SHOW"
	default:
		return ""
	}
}

// flexString decodes a JSON string or number into its string form. The
// catalog reports years and ids as either.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// Int returns the numeric value, or 0.
func (f flexString) Int() int {
	n, _ := strconv.Atoi(string(f))
	return n
}
