package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveUpstream(t *testing.T) {
	m := New()

	m.ObserveUpstream(ServiceDebrid, time.Now(), nil)
	m.ObserveUpstream(ServiceDebrid, time.Now(), errors.New("boom"))
	m.ObserveUpstream(ServiceDebrid, time.Now(), nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues(ServiceDebrid, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues(ServiceDebrid, "error")))
}

func TestCatalogLookup(t *testing.T) {
	m := New()
	m.CatalogLookup("found")
	m.CatalogLookup("found")
	m.CatalogLookup("not_found")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.catalogLookups.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogLookups.WithLabelValues("not_found")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpstream(ServiceTorznab, time.Now(), nil)
		m.CatalogLookup("found")
		m.ObserveHTTP(http.MethodGet, "/api/v1/status", 200, time.Millisecond)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "/api/v1/status", 200, 10*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `reelroute_http_requests_total{method="GET",route="/api/v1/status",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
