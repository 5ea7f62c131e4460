package automation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vmunix/reelroute/internal/debrid"
	"github.com/vmunix/reelroute/internal/events"
)

// StatusTracker remembers the last status seen per torrent and publishes a
// DebridStatusChanged event whenever a poll observes a different one.
// Torrents are dropped once they reach a terminal status.
type StatusTracker struct {
	mu   sync.Mutex
	last map[string]debrid.Status
	bus  events.Publisher
	log  *slog.Logger
}

// NewStatusTracker creates a tracker. bus may be nil.
func NewStatusTracker(bus events.Publisher, log *slog.Logger) *StatusTracker {
	if log == nil {
		log = slog.Default()
	}
	return &StatusTracker{last: make(map[string]debrid.Status), bus: bus, log: log}
}

// Observe records job's status for contentID (0 when unknown) and reports
// whether it changed. A change the debrid state machine does not allow is
// still recorded and published, but logged as a warning.
func (t *StatusTracker) Observe(ctx context.Context, contentID int64, job *debrid.Job) bool {
	if job == nil || job.TorrentID == "" {
		return false
	}

	t.mu.Lock()
	prev, seen := t.last[job.TorrentID]
	changed := !seen || prev != job.Status
	if job.Status.IsTerminal() {
		delete(t.last, job.TorrentID)
	} else {
		t.last[job.TorrentID] = job.Status
	}
	t.mu.Unlock()

	if !changed {
		return false
	}
	if seen && !prev.CanTransitionTo(job.Status) {
		t.log.Warn("unexpected debrid status transition",
			"torrent_id", job.TorrentID, "from", prev, "to", job.Status)
	}
	if t.bus != nil {
		err := t.bus.Publish(ctx, &events.DebridStatusChanged{
			BaseEvent: events.NewBaseEvent(events.EventDebridStatusChanged, events.EntityContent, contentID),
			TorrentID: job.TorrentID,
			From:      string(prev),
			To:        string(job.Status),
			Progress:  job.Progress,
		})
		if err != nil {
			t.log.Warn("publish event failed", "type", events.EventDebridStatusChanged, "torrent_id", job.TorrentID, "error", err)
		}
	}
	return true
}

// Forget drops a torrent, e.g. after it was deleted upstream.
func (t *StatusTracker) Forget(torrentID string) {
	t.mu.Lock()
	delete(t.last, torrentID)
	t.mu.Unlock()
}

// Len returns the number of torrents being tracked.
func (t *StatusTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.last)
}
