package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vmunix/reelroute/internal/metrics"
	"github.com/vmunix/reelroute/pkg/release"
)

const (
	defaultGraphQLURL = "https://apis.justwatch.com/graphql"
	defaultRESTURL    = "https://apis.justwatch.com/content"
)

// Matcher looks up streaming offers for titles.
type Matcher struct {
	graphQLURL string
	restURL    string
	country    string
	language   string
	freeIDs    map[int]bool
	httpClient *http.Client
	metrics    *metrics.Metrics
	log        *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithEndpoints sets the GraphQL and REST base URLs. Empty values keep the
// defaults.
func WithEndpoints(graphQLURL, restURL string) Option {
	return func(m *Matcher) {
		if graphQLURL != "" {
			m.graphQLURL = graphQLURL
		}
		if restURL != "" {
			m.restURL = strings.TrimSuffix(restURL, "/")
		}
	}
}

// WithLocale sets the catalog country and language.
func WithLocale(country, language string) Option {
	return func(m *Matcher) {
		if country != "" {
			m.country = strings.ToUpper(country)
		}
		if language != "" {
			m.language = strings.ToLower(language)
		}
	}
}

// WithFreeProviderIDs replaces the free-provider allow-list. An empty list
// keeps the default.
func WithFreeProviderIDs(ids []int) Option {
	return func(m *Matcher) {
		if len(ids) == 0 {
			return
		}
		m.freeIDs = make(map[int]bool, len(ids))
		for _, id := range ids {
			m.freeIDs[id] = true
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(m *Matcher) {
		m.httpClient = hc
	}
}

// WithMetrics records upstream calls and lookup outcomes.
func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Matcher) {
		m.metrics = mx
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Matcher) {
		if log != nil {
			m.log = log.With("component", "catalog")
		}
	}
}

// NewMatcher creates a Matcher.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{
		graphQLURL: defaultGraphQLURL,
		restURL:    defaultRESTURL,
		country:    "US",
		language:   "en",
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        slog.Default().With("component", "catalog"),
	}
	WithFreeProviderIDs(DefaultFreeProviderIDs())(m)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Lookup finds the best catalog match for q and extracts its offers.
//
// Lookup never fails. Upstream errors on the primary endpoint fall back to
// the REST endpoint; if that also fails, or nothing matches, the result has
// Found=false and empty offer lists.
func (m *Matcher) Lookup(ctx context.Context, q Query) Result {
	log := m.log.With("title", q.Title, "year", q.Year, "media_type", q.MediaType)
	if strings.TrimSpace(q.Title) == "" {
		log.Warn("catalog lookup without title")
		m.metrics.CatalogLookup("not_found")
		return notFound()
	}

	source := "graphql"
	start := time.Now()
	cands, err := m.searchGraphQL(ctx, q.Title)
	m.metrics.ObserveUpstream(metrics.ServiceCatalogGraphQL, start, err)
	if err != nil {
		log.Warn("primary catalog search failed, trying fallback", "error", err)
		m.metrics.CatalogLookup("fallback")

		source = "rest"
		start = time.Now()
		cands, err = m.searchREST(ctx, q.Title)
		m.metrics.ObserveUpstream(metrics.ServiceCatalogREST, start, err)
		if err != nil {
			log.Error("catalog lookup failed", "error", err)
			m.metrics.CatalogLookup("error")
			return notFound()
		}
	}

	idx, tier := selectCandidate(cands, q)
	if idx < 0 {
		log.Info("no catalog match", "candidates", len(cands), "source", source)
		m.metrics.CatalogLookup("not_found")
		return notFound()
	}

	c := cands[idx]
	res := Result{
		Found:        true,
		MatchedTitle: c.Title,
		MatchedYear:  c.Year.Int(),
		MatchTier:    tier,
		Confidence:   release.Compare(q.Title, c.Title).Confidence.String(),
		Source:       source,
		FreeOffers:   freeOffers(c.Offers, m.freeIDs),
		AllOffers:    allOffers(c.Offers),
	}
	log.Info("catalog match",
		"matched_title", res.MatchedTitle,
		"tier", tier,
		"source", source,
		"free_offers", len(res.FreeOffers),
		"duration_ms", time.Since(start).Milliseconds())
	m.metrics.CatalogLookup("found")
	return res
}
