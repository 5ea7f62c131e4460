package debrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeRD is an in-memory stand-in for the debrid REST API.
type fakeRD struct {
	t *testing.T

	mu         sync.Mutex
	torrents   map[string]map[string]any // id -> info response
	selected   map[string]bool
	unrestrict map[string]map[string]any
	addErr     *errorResponse
	addStatus  int
	selectErr  *errorResponse

	requests atomic.Int32
}

func newFakeRD(t *testing.T) *fakeRD {
	return &fakeRD{
		t:          t,
		torrents:   make(map[string]map[string]any),
		selected:   make(map[string]bool),
		unrestrict: make(map[string]map[string]any),
	}
}

func (f *fakeRD) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /torrents/addMagnet", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(f.t, r.ParseForm())
		if f.addErr != nil {
			writeJSON(w, f.addStatus, f.addErr)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": "TID1", "uri": "https://api.example/torrents/info/TID1"})
	})
	mux.HandleFunc("POST /torrents/selectFiles/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(f.t, r.ParseForm())
		assert.Equal(f.t, "all", r.PostForm.Get("files"))
		if f.selectErr != nil {
			writeJSON(w, http.StatusServiceUnavailable, f.selectErr)
			return
		}
		f.mu.Lock()
		f.selected[r.PathValue("id")] = true
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /torrents/info/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		info, ok := f.torrents[r.PathValue("id")]
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown_ressource", ErrorCode: 7})
			return
		}
		writeJSON(w, http.StatusOK, info)
	})
	mux.HandleFunc("POST /unrestrict/link", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(f.t, r.ParseForm())
		f.mu.Lock()
		resp, ok := f.unrestrict[r.PostForm.Get("link")]
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "hoster_unavailable", ErrorCode: 19})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
	mux.HandleFunc("DELETE /torrents/delete/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		delete(f.torrents, r.PathValue("id"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		assert.Equal(f.t, "Bearer test-token", r.Header.Get("Authorization"))
		mux.ServeHTTP(w, r)
	})
}

func (f *fakeRD) setTorrent(id, status string, progress float64, links ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if links == nil {
		links = []string{}
	}
	f.torrents[id] = map[string]any{
		"id": id, "filename": "Inception.2010.1080p.mkv", "status": status, "progress": progress, "links": links,
	}
}

func (f *fakeRD) setUnrestrict(link, download string, streamable int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unrestrict[link] = map[string]any{
		"download": download, "filename": "Inception.2010.1080p.mkv", "filesize": 1500000000, "streamable": streamable,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newTestResolver starts the fake and returns a resolver with no sync delay.
func newTestResolver(t *testing.T, f *fakeRD, opts ...Option) *Resolver {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	opts = append([]Option{WithBaseURL(srv.URL), WithSyncDelay(time.Millisecond)}, opts...)
	r := NewResolver("test-token", opts...)
	r.sleep = func(context.Context, time.Duration) error { return nil }
	return r
}

// countingTransport counts requests that reach the network.
type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return http.DefaultTransport.RoundTrip(req)
}
