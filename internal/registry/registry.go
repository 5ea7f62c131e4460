// Package registry holds the fallback embed mirrors tried when a title has no
// curated stream.
package registry

import (
	"fmt"
	"slices"

	"github.com/vmunix/reelroute/internal/library"
)

// URLFunc builds a mirror URL for a title. season and episode are zero for
// movies and whole-series lookups.
type URLFunc func(externalID string, season, episode int) string

// Provider is a generic embed mirror.
type Provider struct {
	Name     string
	Priority int // lower is tried first
	Movie    URLFunc
	Episode  URLFunc
	Series   URLFunc // optional; used for TV without an episode, defaults to Movie
}

// SourceCandidate is one mirror URL for a title.
type SourceCandidate struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Priority int    `json:"priority"`
}

// Registry is an immutable, priority-ordered list of providers.
type Registry struct {
	providers []Provider
}

// New creates a registry from providers, sorted by ascending priority.
// Providers with equal priority keep their relative order.
func New(providers []Provider) *Registry {
	sorted := slices.Clone(providers)
	slices.SortStableFunc(sorted, func(a, b Provider) int {
		return a.Priority - b.Priority
	})
	return &Registry{providers: sorted}
}

// Default returns the built-in mirror list.
func Default() *Registry {
	return New(DefaultProviders())
}

// Overrides adjusts the default list from configuration.
type Overrides struct {
	Disabled []string
	Priority map[string]int
}

// WithOverrides returns a new registry with disabled providers removed and
// priorities replaced. Unknown names are ignored.
func (r *Registry) WithOverrides(o Overrides) *Registry {
	var out []Provider
	for _, p := range r.providers {
		if slices.Contains(o.Disabled, p.Name) {
			continue
		}
		if prio, ok := o.Priority[p.Name]; ok {
			p.Priority = prio
		}
		out = append(out, p)
	}
	return New(out)
}

// Len returns the number of providers.
func (r *Registry) Len() int {
	return len(r.providers)
}

// Names returns provider names in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name
	}
	return names
}

// GetAllStreamUrls builds one URL per provider, in priority order.
func (r *Registry) GetAllStreamUrls(externalID string, mediaType library.ContentType, season, episode int) []SourceCandidate {
	out := make([]SourceCandidate, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, SourceCandidate{
			Name:     p.Name,
			URL:      p.url(externalID, mediaType, season, episode),
			Priority: p.Priority,
		})
	}
	return out
}

// GetPrimaryStreamUrl returns the highest-priority candidate. ok is false
// when the registry is empty.
func (r *Registry) GetPrimaryStreamUrl(externalID string, mediaType library.ContentType, season, episode int) (SourceCandidate, bool) {
	if len(r.providers) == 0 {
		return SourceCandidate{}, false
	}
	return r.GetAllStreamUrls(externalID, mediaType, season, episode)[0], true
}

func (p Provider) url(externalID string, mediaType library.ContentType, season, episode int) string {
	switch {
	case mediaType == library.ContentTypeTV && season > 0 && episode > 0:
		return p.Episode(externalID, season, episode)
	case mediaType == library.ContentTypeTV && p.Series != nil:
		return p.Series(externalID, 0, 0)
	default:
		return p.Movie(externalID, 0, 0)
	}
}

func path(format string) URLFunc {
	return func(id string, _, _ int) string { return fmt.Sprintf(format, id) }
}

func episodePath(format string) URLFunc {
	return func(id string, s, e int) string { return fmt.Sprintf(format, id, s, e) }
}

// DefaultProviders returns the built-in mirrors.
func DefaultProviders() []Provider {
	return []Provider{
		{
			Name:     "vidsrc",
			Priority: 1,
			Movie:    path("https://vidsrc.xyz/embed/movie/%s"),
			Series:   path("https://vidsrc.xyz/embed/tv/%s"),
			Episode:  episodePath("https://vidsrc.xyz/embed/tv/%s/%d-%d"),
		},
		{
			Name:     "vidsrc.to",
			Priority: 2,
			Movie:    path("https://vidsrc.to/embed/movie/%s"),
			Series:   path("https://vidsrc.to/embed/tv/%s"),
			Episode:  episodePath("https://vidsrc.to/embed/tv/%s/%d/%d"),
		},
		{
			Name:     "embed.su",
			Priority: 3,
			Movie:    path("https://embed.su/embed/movie/%s"),
			Series:   path("https://embed.su/embed/tv/%s"),
			Episode:  episodePath("https://embed.su/embed/tv/%s/%d/%d"),
		},
		{
			Name:     "vidlink",
			Priority: 4,
			Movie:    path("https://vidlink.pro/movie/%s"),
			Series:   path("https://vidlink.pro/tv/%s"),
			Episode:  episodePath("https://vidlink.pro/tv/%s/%d/%d"),
		},
		{
			Name:     "autoembed",
			Priority: 5,
			Movie:    path("https://player.autoembed.cc/embed/movie/%s"),
			Series:   path("https://player.autoembed.cc/embed/tv/%s"),
			Episode:  episodePath("https://player.autoembed.cc/embed/tv/%s/%d/%d"),
		},
		{
			Name:     "2embed",
			Priority: 6,
			Movie:    path("https://www.2embed.cc/embed/%s"),
			Series:   path("https://www.2embed.cc/embedtvfull/%s"),
			Episode:  episodePath("https://www.2embed.cc/embedtv/%s&s=%d&e=%d"),
		},
		{
			Name:     "multiembed",
			Priority: 7,
			Movie:    path("https://multiembed.mov/?video_id=%s&tmdb=1"),
			Episode:  episodePath("https://multiembed.mov/?video_id=%s&tmdb=1&s=%d&e=%d"),
		},
		{
			Name:     "smashystream",
			Priority: 8,
			Movie:    path("https://player.smashy.stream/movie/%s"),
			Series:   path("https://player.smashy.stream/tv/%s"),
			Episode:  episodePath("https://player.smashy.stream/tv/%s?s=%d&e=%d"),
		},
	}
}
