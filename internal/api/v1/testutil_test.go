package v1

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/reelroute/internal/catalog"
	"github.com/vmunix/reelroute/internal/debrid"
	"github.com/vmunix/reelroute/internal/engine"
	"github.com/vmunix/reelroute/internal/library"
	"github.com/vmunix/reelroute/internal/migrations"
	"github.com/vmunix/reelroute/internal/registry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "open db")
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err, "apply schema")
	return db
}

func testDeps(t *testing.T) ServerDeps {
	t.Helper()
	reg := registry.Default()
	return ServerDeps{
		Library:  library.NewStore(setupTestDB(t)),
		Registry: reg,
		Engine:   engine.New(reg),
		Logger:   testLogger(),
	}
}

func newTestServer(t *testing.T, deps ServerDeps) http.Handler {
	t.Helper()
	srv, err := NewWithDeps(deps)
	require.NoError(t, err)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// fakeCatalog returns a fixed result and records the query.
type fakeCatalog struct {
	result catalog.Result
	got    catalog.Query
}

func (f *fakeCatalog) Lookup(_ context.Context, q catalog.Query) catalog.Result {
	f.got = q
	return f.result
}

// fakeDebrid answers from fields; zero values mean success with empty data.
type fakeDebrid struct {
	job     *debrid.Job
	stream  *debrid.Stream
	outcome *debrid.Outcome
	err     error
	deleted []string
}

func (f *fakeDebrid) AddMagnet(_ context.Context, magnet string) (*debrid.Job, error) {
	if err := debrid.ValidateMagnet(magnet); err != nil {
		return nil, err
	}
	return f.job, f.err
}

func (f *fakeDebrid) PollStatus(context.Context, string) (*debrid.Job, error) {
	return f.job, f.err
}

func (f *fakeDebrid) UnrestrictLink(context.Context, string) (*debrid.Stream, error) {
	return f.stream, f.err
}

func (f *fakeDebrid) ResolveMagnetSync(context.Context, string) (*debrid.Outcome, error) {
	return f.outcome, f.err
}

func (f *fakeDebrid) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}
