package engine

import (
	"errors"
	"sync"
)

// ErrNoMoreSources is returned when the last source has failed.
var ErrNoMoreSources = errors.New("no more sources")

// Cursor tracks the active source of a plan. The index only moves forward,
// one step per failure of the active source, and never wraps.
type Cursor struct {
	mu        sync.Mutex
	sources   []Source
	current   int
	exhausted bool
}

// NewCursor starts at the first source.
func NewCursor(sources []Source) *Cursor {
	return &Cursor{sources: sources, exhausted: len(sources) == 0}
}

// Index returns the active index.
func (c *Cursor) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Current returns the active source. ok is false once every source failed.
func (c *Cursor) Current() (Source, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exhausted {
		return Source{}, false
	}
	return c.sources[c.current], true
}

// Advance reports that the source at failedIndex failed to play. Reports for
// any index other than the active one are stale and leave the cursor where
// it is. Failing the last source returns ErrNoMoreSources.
func (c *Cursor) Advance(failedIndex int) (Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.exhausted {
		return Source{}, ErrNoMoreSources
	}
	if failedIndex != c.current {
		return c.sources[c.current], nil
	}
	if c.current+1 >= len(c.sources) {
		c.exhausted = true
		return Source{}, ErrNoMoreSources
	}
	c.current++
	return c.sources[c.current], nil
}

// Exhausted reports whether every source has failed.
func (c *Cursor) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exhausted
}
