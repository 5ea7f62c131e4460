package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sources(names ...string) []Source {
	out := make([]Source, len(names))
	for i, n := range names {
		out[i] = Source{Name: n, URL: "https://" + n + "/x"}
	}
	return out
}

func TestCursor_AdvancesOneStepToEnd(t *testing.T) {
	c := NewCursor(sources("a", "b", "c"))

	cur, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "a", cur.Name)

	next, err := c.Advance(0)
	require.NoError(t, err)
	assert.Equal(t, "b", next.Name)
	assert.Equal(t, 1, c.Index())

	next, err = c.Advance(1)
	require.NoError(t, err)
	assert.Equal(t, "c", next.Name)

	_, err = c.Advance(2)
	assert.ErrorIs(t, err, ErrNoMoreSources)
	assert.True(t, c.Exhausted())
	assert.Equal(t, 2, c.Index(), "never wraps to 0")

	_, ok = c.Current()
	assert.False(t, ok)
	_, err = c.Advance(2)
	assert.ErrorIs(t, err, ErrNoMoreSources)
}

func TestCursor_StaleFailureIgnored(t *testing.T) {
	c := NewCursor(sources("a", "b", "c"))
	_, err := c.Advance(0)
	require.NoError(t, err)

	// a late error from source 0 must not skip source 1
	cur, err := c.Advance(0)
	require.NoError(t, err)
	assert.Equal(t, "b", cur.Name)
	assert.Equal(t, 1, c.Index())

	// nor may a future index jump ahead
	cur, err = c.Advance(2)
	require.NoError(t, err)
	assert.Equal(t, "b", cur.Name)
}

func TestCursor_Monotonic(t *testing.T) {
	c := NewCursor(sources("a", "b", "c", "d", "e"))
	events := []int{0, 0, 3, 1, 1, 2, 0, 3, 4, 4}

	prev := c.Index()
	for _, failed := range events {
		_, _ = c.Advance(failed)
		idx := c.Index()
		assert.GreaterOrEqual(t, idx, prev)
		assert.LessOrEqual(t, idx-prev, 1)
		prev = idx
	}
	assert.True(t, c.Exhausted())
}

func TestCursor_Empty(t *testing.T) {
	c := NewCursor(nil)
	_, ok := c.Current()
	assert.False(t, ok)
	_, err := c.Advance(0)
	assert.ErrorIs(t, err, ErrNoMoreSources)
}
