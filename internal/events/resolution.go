package events

// Entity types
const (
	EntityContent = "content"
	EntityTorrent = "torrent"
	EntityBatch   = "batch"
)

// Event type constants
const (
	EventDebridStatusChanged  = "debrid.status.changed"
	EventAutoResolveCompleted = "autoresolve.completed"
	EventAutoResolveFailed    = "autoresolve.failed"
	EventBulkResolveFinished  = "autoresolve.batch.finished"
	EventCatalogRefreshed     = "catalog.refreshed"
	EventCatalogApplied       = "catalog.applied"
)

// DebridStatusChanged is emitted when a polled torrent changes state.
type DebridStatusChanged struct {
	BaseEvent
	TorrentID string `json:"torrent_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Progress  int    `json:"progress"`
}

// AutoResolveCompleted is emitted when auto-resolve persisted a stream or
// left a torrent in progress.
type AutoResolveCompleted struct {
	BaseEvent
	ContentID   int64  `json:"content_id"`
	ReleaseName string `json:"release_name"`
	Seeders     int    `json:"seeders"`
	TorrentID   string `json:"torrent_id"`
	Status      string `json:"status"`
	StreamURL   string `json:"stream_url,omitempty"`
}

// AutoResolveFailed is emitted when auto-resolve gave up on an item.
type AutoResolveFailed struct {
	BaseEvent
	ContentID int64  `json:"content_id"`
	Reason    string `json:"reason"`
}

// BulkResolveFinished summarizes a bulk auto-resolve run.
type BulkResolveFinished struct {
	BaseEvent
	RunID     string `json:"run_id"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// CatalogRefreshed is emitted after a catalog refresh produced proposals.
type CatalogRefreshed struct {
	BaseEvent
	RunID     string `json:"run_id"`
	Scanned   int    `json:"scanned"`
	Proposals int    `json:"proposals"`
}

// CatalogApplied is emitted when approved watch links were written.
type CatalogApplied struct {
	BaseEvent
	ContentID int64    `json:"content_id"`
	Providers []string `json:"providers"`
}
