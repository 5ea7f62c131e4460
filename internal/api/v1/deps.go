package v1

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vmunix/reelroute/internal/automation"
	"github.com/vmunix/reelroute/internal/catalog"
	"github.com/vmunix/reelroute/internal/debrid"
	"github.com/vmunix/reelroute/internal/engine"
	"github.com/vmunix/reelroute/internal/events"
	"github.com/vmunix/reelroute/internal/library"
	"github.com/vmunix/reelroute/internal/metrics"
	"github.com/vmunix/reelroute/internal/registry"
)

// ErrMissingDependency is returned when a required dependency is nil.
var ErrMissingDependency = errors.New("missing required dependency")

// Catalog finds streaming offers for a title.
type Catalog interface {
	Lookup(ctx context.Context, q catalog.Query) catalog.Result
}

// DebridClient is the debrid job API exposed to operators.
type DebridClient interface {
	AddMagnet(ctx context.Context, magnet string) (*debrid.Job, error)
	PollStatus(ctx context.Context, torrentID string) (*debrid.Job, error)
	UnrestrictLink(ctx context.Context, link string) (*debrid.Stream, error)
	ResolveMagnetSync(ctx context.Context, magnet string) (*debrid.Outcome, error)
	Delete(ctx context.Context, torrentID string) error
}

// IndexerAPI represents an indexer that can be queried.
type IndexerAPI interface {
	URL() string
	Caps(ctx context.Context) error // Simple connectivity test
}

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	Library  *library.Store
	Registry *registry.Registry
	Engine   *engine.Engine

	// Optional dependencies (nil if not configured)
	Catalog    Catalog
	Debrid     DebridClient
	Automation *automation.Service
	Indexer    IndexerAPI
	EventLog   *events.EventLog
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Library == nil {
		return errors.New("library store is required")
	}
	if d.Registry == nil {
		return errors.New("source registry is required")
	}
	if d.Engine == nil {
		return errors.New("engine is required")
	}
	return nil
}
