// Package server runs the daemon's long-lived components.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pruner drops persisted events older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Config for the runner.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	EventRetention  time.Duration
	PruneInterval   time.Duration
}

// Runner owns the HTTP server and the event log housekeeping.
type Runner struct {
	handler http.Handler
	pruner  Pruner
	config  Config
	logger  *slog.Logger
}

// NewRunner creates a new runner. pruner may be nil.
func NewRunner(handler http.Handler, pruner Pruner, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Runner{
		handler: handler,
		pruner:  pruner,
		config:  cfg,
		logger:  logger.With("component", "runner"),
	}
}

// Run serves HTTP and prunes the event log until ctx is canceled or a
// component fails. A clean shutdown returns nil.
func (r *Runner) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              r.config.Addr,
		Handler:           r.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), r.config.ShutdownTimeout)
		defer cancel()
		r.logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	if r.pruner != nil && r.config.EventRetention > 0 && r.config.PruneInterval > 0 {
		g.Go(func() error {
			r.pruneLoop(ctx)
			return nil
		})
	}

	return g.Wait()
}

func (r *Runner) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(r.config.PruneInterval)
	defer ticker.Stop()

	for {
		r.prune(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) prune(ctx context.Context) {
	n, err := r.pruner.Prune(ctx, r.config.EventRetention)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("event prune failed", "error", err)
		}
		return
	}
	if n > 0 {
		r.logger.Info("pruned events", "count", n, "retention", r.config.EventRetention)
	}
}
