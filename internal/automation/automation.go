// Package automation runs the admin bulk tooling: torrent auto-resolve for
// single items and batches, and catalog refreshes whose proposals an
// operator approves before anything is written.
package automation

//go:generate mockgen -destination=mocks/automation.go -package=mocks . Searcher,Debrid,Catalog,Metadata

import (
	"context"
	"log/slog"
	"time"

	"github.com/vmunix/reelroute/internal/catalog"
	"github.com/vmunix/reelroute/internal/debrid"
	"github.com/vmunix/reelroute/internal/events"
	"github.com/vmunix/reelroute/internal/library"
	"github.com/vmunix/reelroute/internal/metrics"
	"github.com/vmunix/reelroute/internal/tmdb"
	"github.com/vmunix/reelroute/pkg/torznab"
)

// Searcher queries a torrent index.
type Searcher interface {
	Search(ctx context.Context, query string, categories []int) ([]torznab.Result, error)
}

// Debrid turns a magnet into playable streams.
type Debrid interface {
	ResolveMagnetSync(ctx context.Context, magnet string) (*debrid.Outcome, error)
}

// Catalog looks up legal streaming offers.
type Catalog interface {
	Lookup(ctx context.Context, q catalog.Query) catalog.Result
}

// Metadata fills in titles for refs that only carry a TMDB id.
type Metadata interface {
	GetMovie(ctx context.Context, tmdbID int64) (*tmdb.Movie, error)
	GetTV(ctx context.Context, tmdbID int64) (*tmdb.TV, error)
}

// Policy holds the tunable limits of the bulk tooling.
type Policy struct {
	MinSeeders    int           // results below this are never picked
	BatchLimit    int           // default item count for bulk resolve
	ResolveDelay  time.Duration // pause between bulk resolve items
	RefreshDelay  time.Duration // pause between catalog lookups
	SearchRetries int           // extra attempts after a transient index failure
	RetryDelay    time.Duration
}

// DefaultPolicy returns the stock limits.
func DefaultPolicy() Policy {
	return Policy{
		MinSeeders:    5,
		BatchLimit:    10,
		ResolveDelay:  time.Second,
		RefreshDelay:  500 * time.Millisecond,
		SearchRetries: 2,
		RetryDelay:    time.Second,
	}
}

// Service wires the resolution components to the content store.
type Service struct {
	store    *library.Store
	searcher Searcher
	debrid   Debrid
	catalog  Catalog
	meta     Metadata
	bus      events.Publisher
	tracker  *StatusTracker
	policy   Policy
	metrics  *metrics.Metrics
	log      *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Service.
type Option func(*Service)

// WithSearcher sets the torrent index used by auto-resolve.
func WithSearcher(s Searcher) Option {
	return func(svc *Service) { svc.searcher = s }
}

// WithDebrid sets the debrid resolver used by auto-resolve.
func WithDebrid(d Debrid) Option {
	return func(svc *Service) { svc.debrid = d }
}

// WithCatalog sets the catalog matcher used by refresh.
func WithCatalog(c Catalog) Option {
	return func(svc *Service) { svc.catalog = c }
}

// WithMetadata enables title enrichment from TMDB.
func WithMetadata(m Metadata) Option {
	return func(svc *Service) { svc.meta = m }
}

// WithPublisher sets where progress events go.
func WithPublisher(p events.Publisher) Option {
	return func(svc *Service) { svc.bus = p }
}

// WithPolicy overrides the default limits.
func WithPolicy(p Policy) Option {
	return func(svc *Service) { svc.policy = p }
}

// WithMetrics records torrent index calls.
func WithMetrics(m *metrics.Metrics) Option {
	return func(svc *Service) { svc.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(svc *Service) {
		if log != nil {
			svc.log = log.With("component", "automation")
		}
	}
}

// New creates a Service. Collaborators that are not set make the
// operations needing them return ErrNotConfigured.
func New(store *library.Store, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		policy: DefaultPolicy(),
		log:    slog.Default().With("component", "automation"),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.tracker = NewStatusTracker(svc.bus, svc.log)
	return svc
}

// Tracker returns the debrid status tracker shared with the API.
func (s *Service) Tracker() *StatusTracker {
	return s.tracker
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, e); err != nil {
		s.log.Warn("publish event failed", "type", e.EventType(), "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
