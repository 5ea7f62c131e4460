package automation_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/reelroute/internal/automation"
	"github.com/vmunix/reelroute/internal/events"
	"github.com/vmunix/reelroute/internal/library"
	"github.com/vmunix/reelroute/internal/migrations"
	"github.com/vmunix/reelroute/pkg/torznab"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPolicy() automation.Policy {
	return automation.Policy{
		MinSeeders:    5,
		BatchLimit:    10,
		SearchRetries: 2,
		RetryDelay:    time.Millisecond,
	}
}

func setupStore(t *testing.T) *library.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err)
	return library.NewStore(db)
}

func addMovie(t *testing.T, store *library.Store, title string, year int) *library.Content {
	t.Helper()
	c := &library.Content{ContentRef: library.ContentRef{Title: title, Year: year, MediaType: library.ContentTypeMovie}}
	require.NoError(t, store.AddContent(c))
	return c
}

func magnetResult(title string, seeders int) torznab.Result {
	return torznab.Result{
		Title:     title,
		Seeders:   seeders,
		MagnetURI: "magnet:?xt=urn:btih:" + title,
	}
}

// recorder is an events.Publisher that keeps what it was given.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType())
	}
	return out
}
