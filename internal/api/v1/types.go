package v1

import (
	"time"

	"github.com/vmunix/reelroute/internal/debrid"
	"github.com/vmunix/reelroute/internal/engine"
	"github.com/vmunix/reelroute/internal/library"
	"github.com/vmunix/reelroute/internal/registry"
)

// statusResponse is the response for GET /status.
type statusResponse struct {
	Status        string   `json:"status"`
	Content       int      `json:"content"`
	MissingStream int      `json:"missing_stream"`
	Mirrors       []string `json:"mirrors"`
	Services      struct {
		Catalog    bool `json:"catalog"`
		Debrid     bool `json:"debrid"`
		Indexer    bool `json:"indexer"`
		Automation bool `json:"automation"`
		EventLog   bool `json:"event_log"`
	} `json:"services"`
	IndexerError string `json:"indexer_error,omitempty"`
}

// sourcesResponse is the response for GET /sources.
type sourcesResponse struct {
	Sources []registry.SourceCandidate `json:"sources"`
	Total   int                        `json:"total"`
}

// lookupRequest is the body for POST /lookup.
type lookupRequest struct {
	Title      string              `json:"title"`
	Year       int                 `json:"year"`
	MediaType  library.ContentType `json:"media_type"`
	ExternalID string              `json:"external_id"`
}

// contentRequest is the body for POST /content.
type contentRequest struct {
	library.ContentRef
	VideoEmbedURL      string            `json:"video_embed_url"`
	ExternalWatchLinks map[string]string `json:"external_watch_links"`
}

// listContentResponse is the response for GET /content.
type listContentResponse struct {
	Items  []*library.Content `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

type embedRequest struct {
	VideoEmbedURL string `json:"video_embed_url"`
}

type linksRequest struct {
	Links map[string]string `json:"links"`
}

// planResponse is the response for GET /content/{id}/plan.
type planResponse struct {
	ContentID     int64                 `json:"content_id"`
	Sources       []engine.Source       `json:"sources"`
	ExternalLinks []engine.ExternalLink `json:"external_links"`
	DefaultIndex  int                   `json:"default_index"` // -1 when there is nothing to play
}

type fallbackRequest struct {
	FailedIndex int `json:"failed_index"`
}

// fallbackResponse names the source to try after a playback failure.
type fallbackResponse struct {
	Index  int           `json:"index"`
	Source engine.Source `json:"source"`
}

type magnetRequest struct {
	Magnet string `json:"magnet"`
}

type unrestrictRequest struct {
	Link string `json:"link"`
}

// jobResponse is a debrid job plus the reason it failed, if it did.
type jobResponse struct {
	debrid.Job
	Error string `json:"error,omitempty"`
}

type batchRequest struct {
	Limit int `json:"limit"`
}

// EventResponse is a single event in API responses.
type EventResponse struct {
	ID         int64     `json:"id"`
	EventType  string    `json:"event_type"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Payload    string    `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

type listEventsResponse struct {
	Items []EventResponse `json:"items"`
	Total int             `json:"total"`
}
