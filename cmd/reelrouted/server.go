package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"
	_ "modernc.org/sqlite"

	v1 "github.com/vmunix/reelroute/internal/api/v1"
	"github.com/vmunix/reelroute/internal/automation"
	"github.com/vmunix/reelroute/internal/catalog"
	"github.com/vmunix/reelroute/internal/config"
	"github.com/vmunix/reelroute/internal/debrid"
	"github.com/vmunix/reelroute/internal/engine"
	"github.com/vmunix/reelroute/internal/events"
	"github.com/vmunix/reelroute/internal/library"
	"github.com/vmunix/reelroute/internal/metrics"
	"github.com/vmunix/reelroute/internal/migrations"
	"github.com/vmunix/reelroute/internal/registry"
	"github.com/vmunix/reelroute/internal/server"
	"github.com/vmunix/reelroute/internal/tmdb"
	"github.com/vmunix/reelroute/pkg/torznab"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger writes to stdout and, when server.log_file is set, to a rotated
// file as well. The returned closer releases the file.
func newLogger(cfg config.ServerConfig) (*slog.Logger, io.Closer) {
	var out io.Writer = os.Stdout
	var closer io.Closer = io.NopCloser(nil)
	if cfg.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		}
		out = io.MultiWriter(os.Stdout, lj)
		closer = lj
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})), closer
}

func runServer(configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, logCloser := newLogger(cfg.Server)
	defer func() { _ = logCloser.Close() }()

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite", cfg.Database.Path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	// Run migrations
	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// === Stores and infrastructure (always created) ===
	libraryStore := library.NewStore(db)
	eventLog := events.NewEventLog(db)
	bus := events.NewBus(eventLog, logger)
	defer func() { _ = bus.Close() }()
	mx := metrics.New()

	reg := registry.Default().WithOverrides(registry.Overrides{
		Disabled: cfg.Mirrors.Disabled,
		Priority: cfg.Mirrors.Priority,
	})
	eng := engine.New(reg)

	matcherOpts := []catalog.Option{
		catalog.WithEndpoints(cfg.Catalog.GraphQLURL, cfg.Catalog.RESTURL),
		catalog.WithLocale(cfg.Catalog.Country, cfg.Catalog.Language),
		catalog.WithHTTPClient(&http.Client{Timeout: cfg.Catalog.Timeout}),
		catalog.WithMetrics(mx),
		catalog.WithLogger(logger),
	}
	if len(cfg.Catalog.FreeProviderIDs) > 0 {
		matcherOpts = append(matcherOpts, catalog.WithFreeProviderIDs(cfg.Catalog.FreeProviderIDs))
	}
	matcher := catalog.NewMatcher(matcherOpts...)

	// === Clients (optional - nil if not configured) ===
	var resolver *debrid.Resolver
	if cfg.Debrid.Token != "" {
		resolver = debrid.NewResolver(cfg.Debrid.Token,
			debrid.WithBaseURL(cfg.Debrid.URL),
			debrid.WithRateLimit(cfg.Debrid.RequestsPerMinute),
			debrid.WithSyncDelay(cfg.Debrid.SyncDelay),
			debrid.WithMaxLinks(cfg.Debrid.MaxLinks),
			debrid.WithMetrics(mx),
			debrid.WithLogger(logger),
		)
	}

	var indexer *torznab.Client
	if cfg.Torznab.URL != "" {
		indexer = torznab.NewClient(cfg.Torznab.URL, cfg.Torznab.APIKey, logger)
	}

	var tmdbClient *tmdb.Client
	if cfg.TMDB.APIKey != "" {
		tmdbClient = tmdb.NewClient(cfg.TMDB.APIKey, tmdb.WithMetrics(mx))
	}

	// === Services ===
	automationOpts := []automation.Option{
		automation.WithCatalog(matcher),
		automation.WithPublisher(bus),
		automation.WithMetrics(mx),
		automation.WithLogger(logger),
		automation.WithPolicy(automation.Policy{
			MinSeeders:    cfg.Automation.MinSeeders,
			BatchLimit:    cfg.Automation.BatchLimit,
			ResolveDelay:  cfg.Automation.ResolveDelay,
			RefreshDelay:  cfg.Automation.RefreshDelay,
			SearchRetries: cfg.Automation.SearchRetries,
			RetryDelay:    automation.DefaultPolicy().RetryDelay,
		}),
	}
	if indexer != nil {
		automationOpts = append(automationOpts, automation.WithSearcher(indexer))
	}
	if resolver != nil {
		automationOpts = append(automationOpts, automation.WithDebrid(resolver))
	}
	if tmdbClient != nil {
		automationOpts = append(automationOpts, automation.WithMetadata(tmdbClient))
	}
	svc := automation.New(libraryStore, automationOpts...)

	// === HTTP Setup ===
	deps := v1.ServerDeps{
		Library:    libraryStore,
		Registry:   reg,
		Engine:     eng,
		Catalog:    matcher,
		Automation: svc,
		EventLog:   eventLog,
		Metrics:    mx,
		Logger:     logger,
	}
	// Interface fields stay nil rather than holding a typed nil pointer.
	if resolver != nil {
		deps.Debrid = resolver
	}
	if indexer != nil {
		deps.Indexer = indexer
	}
	apiV1, err := v1.NewWithDeps(deps)
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", apiV1.Handler())
	mux.Handle("GET /metrics", mx.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting",
		"version", version,
		"addr", addr,
		"database", cfg.Database.Path,
		"mirrors", reg.Len(),
		"debrid", resolver != nil,
		"torznab", indexer != nil,
		"tmdb", tmdbClient != nil,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := server.NewRunner(mux, eventLog, server.Config{
		Addr:           addr,
		EventRetention: cfg.Events.Retention,
		PruneInterval:  cfg.Events.PruneInterval,
	}, logger)
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("server stopped")
	return nil
}
