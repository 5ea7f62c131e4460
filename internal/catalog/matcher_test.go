package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmunix/reelroute/internal/library"
)

const inceptionGraphQL = `{
  "data": {"popularTitles": {"edges": [
    {"node": {
      "objectType": "MOVIE",
      "content": {"title": "Inception", "originalReleaseYear": 2010, "externalIds": {"tmdbId": "27205"}},
      "offers": [
        {"monetizationType": "FREE", "standardWebURL": "https://tubitv.com/movies/inception", "package": {"packageId": 73, "clearName": "Tubi"}},
        {"monetizationType": "FLATRATE", "standardWebURL": "https://netflix.com/title/1", "package": {"packageId": 8, "clearName": "Netflix"}},
        {"monetizationType": "RENT", "standardWebURL": "https://tv.apple.com/1", "package": {"packageId": 2, "clearName": "Apple TV"}},
        {"monetizationType": "BUY", "standardWebURL": "https://tv.apple.com/1", "package": {"packageId": 2, "clearName": "Apple TV"}}
      ]
    }}
  ]}}
}`

const scenarioBGraphQL = `{
  "data": {"popularTitles": {"edges": [
    {"node": {"objectType": "MOVIE", "content": {"title": "Inception", "originalReleaseYear": 2010, "externalIds": {"tmdbId": "11111"}}, "offers": []}},
    {"node": {"objectType": "SHOW", "content": {"title": "Inception Stories", "originalReleaseYear": 2012, "externalIds": {"tmdbId": "22222"}}, "offers": []}},
    {"node": {"objectType": "MOVIE", "content": {"title": "Inception", "originalReleaseYear": "2010", "externalIds": {"tmdbId": 27205}},
      "offers": [{"monetizationType": "ADS", "standardWebURL": "https://pluto.tv/inception", "package": {"packageId": 300, "clearName": "Pluto TV"}}]}}
  ]}}
}`

const inceptionREST = `{
  "items": [
    {"title": "Inception", "object_type": "movie", "original_release_year": 2010,
     "external_ids": [{"provider": "imdb", "external_id": "tt1375666"}, {"provider": "tmdb", "external_id": "27205"}],
     "offers": [
       {"provider_id": 73, "monetization_type": "free", "urls": {"standard_web": "https://tubitv.com/movies/inception"}},
       {"provider_id": 73, "monetization_type": "ads", "urls": {"standard_web": "https://tubitv.com/movies/inception-ads"}}
     ]}
  ]
}`

type fakeCatalog struct {
	graphQL      http.HandlerFunc
	rest         http.HandlerFunc
	graphQLCalls atomic.Int32
	restCalls    atomic.Int32
}

func (f *fakeCatalog) server(t *testing.T) *Matcher {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /graphql", func(w http.ResponseWriter, r *http.Request) {
		f.graphQLCalls.Add(1)
		f.graphQL(w, r)
	})
	mux.HandleFunc("GET /content/titles/en_US/popular", func(w http.ResponseWriter, r *http.Request) {
		f.restCalls.Add(1)
		f.rest(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewMatcher(WithEndpoints(srv.URL+"/graphql", srv.URL+"/content"))
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func fail(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}

func TestLookup_FreeTubiOffer(t *testing.T) {
	f := &fakeCatalog{
		graphQL: func(w http.ResponseWriter, r *http.Request) {
			var req graphQLRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, float64(10), req.Variables["first"])
			assert.Equal(t, map[string]any{"searchQuery": "Inception"}, req.Variables["filter"])
			respond(inceptionGraphQL)(w, r)
		},
		rest: fail(http.StatusInternalServerError),
	}
	m := f.server(t)

	res := m.Lookup(context.Background(), Query{Title: "Inception", Year: 2010, MediaType: library.ContentTypeMovie})

	require.True(t, res.Found)
	assert.Equal(t, "Inception", res.MatchedTitle)
	assert.Equal(t, 2010, res.MatchedYear)
	assert.Equal(t, TierTitleYear, res.MatchTier)
	assert.Equal(t, "high", res.Confidence)
	assert.Equal(t, "graphql", res.Source)
	require.Len(t, res.FreeOffers, 1)
	assert.Equal(t, "Tubi", res.FreeOffers[0].ProviderName)
	assert.Equal(t, 73, res.FreeOffers[0].ProviderID)
	assert.Equal(t, MonetizationFree, res.FreeOffers[0].Monetization)
	assert.Len(t, res.AllOffers, 4)
	assert.Zero(t, f.restCalls.Load())
}

func TestLookup_ExternalIDWins(t *testing.T) {
	f := &fakeCatalog{graphQL: respond(scenarioBGraphQL), rest: fail(http.StatusInternalServerError)}
	m := f.server(t)

	res := m.Lookup(context.Background(), Query{
		Title: "Inception", Year: 2010, MediaType: library.ContentTypeMovie, ExternalID: "27205",
	})

	require.True(t, res.Found)
	assert.Equal(t, TierExternalID, res.MatchTier)
	require.Len(t, res.FreeOffers, 1)
	assert.Equal(t, "https://pluto.tv/inception", res.FreeOffers[0].URL)
}

func TestLookup_FallsBackToREST(t *testing.T) {
	tests := []struct {
		name    string
		graphQL http.HandlerFunc
	}{
		{"server error", fail(http.StatusBadGateway)},
		{"graphql error list", respond(`{"errors": [{"message": "Cannot query field \"popularTitles\""}]}`)},
		{"malformed body", respond(`{"data": `)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeCatalog{graphQL: tt.graphQL, rest: respond(inceptionREST)}
			m := f.server(t)

			res := m.Lookup(context.Background(), Query{Title: "Inception", Year: 2010, MediaType: library.ContentTypeMovie, ExternalID: "27205"})

			require.True(t, res.Found)
			assert.Equal(t, "rest", res.Source)
			assert.Equal(t, TierExternalID, res.MatchTier)
			require.Len(t, res.FreeOffers, 1)
			assert.Equal(t, "Tubi", res.FreeOffers[0].ProviderName)
			assert.Equal(t, "https://tubitv.com/movies/inception", res.FreeOffers[0].URL)
			assert.Len(t, res.AllOffers, 2, "FREE and ADS are distinct pairs")
			assert.Equal(t, int32(1), f.graphQLCalls.Load())
			assert.Equal(t, int32(1), f.restCalls.Load())
		})
	}
}

func TestLookup_RESTQuery(t *testing.T) {
	f := &fakeCatalog{
		graphQL: fail(http.StatusServiceUnavailable),
		rest: func(w http.ResponseWriter, r *http.Request) {
			var body restRequest
			require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("body")), &body))
			assert.Equal(t, "Inception", body.Query)
			assert.Equal(t, 10, body.PageSize)
			respond(`{"items": []}`)(w, r)
		},
	}
	m := f.server(t)

	res := m.Lookup(context.Background(), Query{Title: "Inception"})
	assert.False(t, res.Found)
}

func TestLookup_BothFail(t *testing.T) {
	f := &fakeCatalog{graphQL: fail(http.StatusInternalServerError), rest: fail(http.StatusInternalServerError)}
	m := f.server(t)

	res := m.Lookup(context.Background(), Query{Title: "Inception", MediaType: library.ContentTypeMovie})

	assert.False(t, res.Found)
	assert.NotNil(t, res.FreeOffers)
	assert.NotNil(t, res.AllOffers)
	assert.Empty(t, res.FreeOffers)
	assert.Empty(t, res.AllOffers)
}

func TestLookup_NoMatchDoesNotFallBack(t *testing.T) {
	f := &fakeCatalog{graphQL: respond(`{"data": {"popularTitles": {"edges": []}}}`), rest: respond(inceptionREST)}
	m := f.server(t)

	res := m.Lookup(context.Background(), Query{Title: "Inception", MediaType: library.ContentTypeMovie})

	assert.False(t, res.Found)
	assert.Zero(t, f.restCalls.Load())
}

func TestLookup_EmptyTitle(t *testing.T) {
	f := &fakeCatalog{graphQL: respond(inceptionGraphQL), rest: respond(inceptionREST)}
	m := f.server(t)

	res := m.Lookup(context.Background(), Query{ExternalID: "27205"})
	assert.False(t, res.Found)
	assert.Zero(t, f.graphQLCalls.Load())
}

func TestLookup_CustomAllowList(t *testing.T) {
	srv := httptest.NewServer(respond(inceptionGraphQL))
	defer srv.Close()

	m := NewMatcher(WithEndpoints(srv.URL, srv.URL), WithFreeProviderIDs([]int{8}))
	res := m.Lookup(context.Background(), Query{Title: "Inception", MediaType: library.ContentTypeMovie})

	require.True(t, res.Found)
	require.Len(t, res.FreeOffers, 2)
	assert.Equal(t, 73, res.FreeOffers[0].ProviderID, "FREE monetization still qualifies")
	assert.Equal(t, 8, res.FreeOffers[1].ProviderID)
}

func TestQueryFor(t *testing.T) {
	ref := library.ContentRef{Title: "The Office", Year: 2005, MediaType: library.ContentTypeTV, Season: 1, Episode: 2, ExternalID: "2316"}
	assert.Equal(t, Query{Title: "The Office", Year: 2005, MediaType: library.ContentTypeTV, ExternalID: "2316"}, QueryFor(ref))
}
