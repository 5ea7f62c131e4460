// Package library stores content items and their curated playback data.
package library

import (
	"time"
)

// ContentType distinguishes movies from TV episodes.
type ContentType string

const (
	ContentTypeMovie ContentType = "movie"
	ContentTypeTV    ContentType = "tv"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	return t == ContentTypeMovie || t == ContentTypeTV
}

// ContentRef identifies a playable title.
type ContentRef struct {
	Title      string      `json:"title"`
	Year       int         `json:"year,omitempty"`
	MediaType  ContentType `json:"media_type"`
	Season     int         `json:"season,omitempty"`
	Episode    int         `json:"episode,omitempty"`
	ExternalID string      `json:"external_id,omitempty"` // TMDB id
}

// IsEpisode reports whether the ref names a single TV episode.
func (r ContentRef) IsEpisode() bool {
	return r.MediaType == ContentTypeTV && r.Season > 0 && r.Episode > 0
}

// Content is a stored title plus the playback data computed for it.
type Content struct {
	ID int64 `json:"id"`
	ContentRef
	VideoEmbedURL      string            `json:"video_embed_url,omitempty"`
	ExternalWatchLinks map[string]string `json:"external_watch_links,omitempty"`
	AddedAt            time.Time         `json:"added_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// HasStream reports whether any playback source has been curated.
func (c *Content) HasStream() bool {
	return c.VideoEmbedURL != "" || len(c.ExternalWatchLinks) > 0
}
