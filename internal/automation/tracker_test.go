package automation

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/reelroute/internal/debrid"
	"github.com/vmunix/reelroute/internal/events"
)

type capture struct {
	got []events.Event
	err error
}

func (c *capture) Publish(_ context.Context, e events.Event) error {
	c.got = append(c.got, e)
	return c.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatusTracker_PublishesOnChange(t *testing.T) {
	ctx := context.Background()
	bus := &capture{}
	tr := NewStatusTracker(bus, discardLogger())

	assert.True(t, tr.Observe(ctx, 7, &debrid.Job{TorrentID: "T1", Status: debrid.StatusQueued}))
	assert.False(t, tr.Observe(ctx, 7, &debrid.Job{TorrentID: "T1", Status: debrid.StatusQueued}))
	assert.True(t, tr.Observe(ctx, 7, &debrid.Job{TorrentID: "T1", Status: debrid.StatusDownloading, Progress: 40}))
	assert.False(t, tr.Observe(ctx, 7, nil))

	require.Len(t, bus.got, 2)
	second := bus.got[1].(*events.DebridStatusChanged)
	assert.Equal(t, "queued", second.From)
	assert.Equal(t, "downloading", second.To)
	assert.Equal(t, 40, second.Progress)
	assert.Equal(t, int64(7), second.EntityID())
}

func TestStatusTracker_Forget(t *testing.T) {
	ctx := context.Background()
	tr := NewStatusTracker(nil, discardLogger())

	tr.Observe(ctx, 0, &debrid.Job{TorrentID: "T1", Status: debrid.StatusDownloading})
	tr.Forget("T1")
	assert.Zero(t, tr.Len())
	assert.True(t, tr.Observe(ctx, 0, &debrid.Job{TorrentID: "T1", Status: debrid.StatusDownloading}))
}

func TestStatusTracker_DropsTerminalJobs(t *testing.T) {
	ctx := context.Background()
	bus := &capture{}
	tr := NewStatusTracker(bus, discardLogger())

	tr.Observe(ctx, 1, &debrid.Job{TorrentID: "T1", Status: debrid.StatusDownloading})
	tr.Observe(ctx, 2, &debrid.Job{TorrentID: "T2", Status: debrid.StatusQueued})
	assert.Equal(t, 2, tr.Len())

	assert.True(t, tr.Observe(ctx, 1, &debrid.Job{TorrentID: "T1", Status: debrid.StatusDownloaded, Progress: 100}))
	assert.True(t, tr.Observe(ctx, 2, &debrid.Job{TorrentID: "T2", Status: debrid.StatusDead}))
	assert.Zero(t, tr.Len())

	require.Len(t, bus.got, 4)
	last := bus.got[3].(*events.DebridStatusChanged)
	assert.Equal(t, "queued", last.From)
	assert.Equal(t, "dead", last.To)
}

func TestStatusTracker_WarnsOnIllegalTransition(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	bus := &capture{}
	tr := NewStatusTracker(bus, slog.New(slog.NewTextHandler(&buf, nil)))

	tr.Observe(ctx, 0, &debrid.Job{TorrentID: "T1", Status: debrid.StatusQueued})
	tr.Observe(ctx, 0, &debrid.Job{TorrentID: "T1", Status: debrid.StatusDownloading})
	assert.NotContains(t, buf.String(), "unexpected debrid status transition")

	assert.True(t, tr.Observe(ctx, 0, &debrid.Job{TorrentID: "T1", Status: debrid.StatusQueued}))
	assert.Contains(t, buf.String(), "unexpected debrid status transition")
	assert.Contains(t, buf.String(), "from=downloading")
	assert.Contains(t, buf.String(), "to=queued")
	assert.Len(t, bus.got, 3, "illegal transitions are still published")
}

func TestStatusTracker_LogsPublishError(t *testing.T) {
	var buf bytes.Buffer
	bus := &capture{err: errors.New("disk full")}
	tr := NewStatusTracker(bus, slog.New(slog.NewTextHandler(&buf, nil)))

	assert.True(t, tr.Observe(context.Background(), 0, &debrid.Job{TorrentID: "T1", Status: debrid.StatusQueued}))
	assert.Contains(t, buf.String(), "publish event failed")
	assert.Contains(t, buf.String(), "disk full")
}
