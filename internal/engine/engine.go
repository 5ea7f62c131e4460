// Package engine decides which sources to offer for a title and in what
// order, and tracks fallback through them when playback fails.
package engine

import (
	"github.com/vmunix/reelroute/internal/library"
	"github.com/vmunix/reelroute/internal/registry"
)

// Source origins.
const (
	OriginCurated = "curated"
	OriginMirror  = "mirror"
)

// Source is one playable entry in a plan.
type Source struct {
	Name   string       `json:"name"`
	URL    string       `json:"url"`
	Kind   PlaybackKind `json:"kind"`
	Origin string       `json:"origin"`
}

// Plan is the ordered set of sources for a title. Sources is the in-app
// fallback chain; ExternalLinks open outside the player and never take part
// in fallback.
type Plan struct {
	Sources       []Source       `json:"sources"`
	ExternalLinks []ExternalLink `json:"external_links"`
}

// Engine builds playback plans.
type Engine struct {
	registry *registry.Registry
}

// New creates an Engine over a mirror registry.
func New(reg *registry.Registry) *Engine {
	return &Engine{registry: reg}
}

// Plan orders the sources for c: the curated video_embed_url first, then
// every registry mirror when the title has an external id.
func (e *Engine) Plan(c *library.Content) Plan {
	p := Plan{Sources: []Source{}, ExternalLinks: sortedLinks(c.ExternalWatchLinks)}

	if c.VideoEmbedURL != "" {
		p.Sources = append(p.Sources, Source{
			Name:   "primary",
			URL:    c.VideoEmbedURL,
			Kind:   Classify(c.VideoEmbedURL),
			Origin: OriginCurated,
		})
	}

	if c.ExternalID != "" && e.registry != nil {
		for _, m := range e.registry.GetAllStreamUrls(c.ExternalID, c.MediaType, c.Season, c.Episode) {
			p.Sources = append(p.Sources, Source{
				Name:   m.Name,
				URL:    m.URL,
				Kind:   Classify(m.URL),
				Origin: OriginMirror,
			})
		}
	}
	return p
}

// Default returns the source a player should start with.
func (p Plan) Default() (Source, bool) {
	if len(p.Sources) == 0 {
		return Source{}, false
	}
	return p.Sources[0], true
}
