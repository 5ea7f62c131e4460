package debrid

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMagnet = "magnet:?xt=urn:btih:ABC"

func TestAddMagnet_InvalidMagnetMakesNoRequest(t *testing.T) {
	transport := &countingTransport{}
	r := NewResolver("test-token",
		WithBaseURL("http://127.0.0.1:1"),
		WithHTTPClient(&http.Client{Transport: transport}))

	for _, input := range []string{"not-a-magnet-link", "", "http://example.com/file.torrent"} {
		job, err := r.AddMagnet(context.Background(), input)
		assert.Nil(t, job)
		assert.ErrorIs(t, err, ErrInvalidMagnet, input)
	}
	assert.Zero(t, transport.calls.Load())
}

func TestAddMagnet_SelectsAllFiles(t *testing.T) {
	f := newFakeRD(t)
	r := newTestResolver(t, f)

	job, err := r.AddMagnet(context.Background(), testMagnet)
	require.NoError(t, err)
	assert.Equal(t, "TID1", job.TorrentID)
	assert.Equal(t, StatusQueued, job.Status)
	assert.True(t, f.selected["TID1"], "files must be selected before returning")
	assert.Equal(t, int32(2), f.requests.Load())
}

func TestAddMagnet_ServiceRejected(t *testing.T) {
	f := newFakeRD(t)
	f.addErr = &errorResponse{Error: "too_many_active_downloads", ErrorCode: 21}
	f.addStatus = http.StatusForbidden
	r := newTestResolver(t, f)

	_, err := r.AddMagnet(context.Background(), testMagnet)
	require.ErrorIs(t, err, ErrServiceRejected)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "too_many_active_downloads", apiErr.Message)
	assert.Equal(t, 21, apiErr.Code)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, int32(1), f.requests.Load(), "rejections are not retried")
}

func TestAddMagnet_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewResolver("test-token", WithBaseURL(srv.URL))
	_, err := r.AddMagnet(context.Background(), testMagnet)
	assert.ErrorIs(t, err, ErrTransport)
	assert.False(t, errors.Is(err, ErrServiceRejected))
}

func TestPollStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		progress float64
		links    []string
		want     Status
		wantErr  error
	}{
		{"conversion", "magnet_conversion", 0, nil, StatusAdding, nil},
		{"queued", "queued", 0, nil, StatusQueued, nil},
		{"downloading", "downloading", 42.7, nil, StatusDownloading, nil},
		{"uploading", "uploading", 100, nil, StatusDownloading, nil},
		{"downloaded", "downloaded", 100, []string{"https://real-debrid.com/d/l1"}, StatusDownloaded, nil},
		{"downloaded without links", "downloaded", 100, nil, StatusError, ErrAnomalousState},
		{"dead", "dead", 3, nil, StatusDead, nil},
		{"virus", "virus", 0, nil, StatusVirus, nil},
		{"unknown", "something_new", 0, nil, StatusError, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeRD(t)
			f.setTorrent("TID1", tt.status, tt.progress, tt.links...)
			r := newTestResolver(t, f)

			job, err := r.PollStatus(context.Background(), "TID1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NotNil(t, job)
			assert.Equal(t, tt.want, job.Status)
			assert.Equal(t, int(tt.progress), job.Progress)
		})
	}
}

func TestPollStatus_Idempotent(t *testing.T) {
	f := newFakeRD(t)
	f.setTorrent("TID1", "downloaded", 100, "https://real-debrid.com/d/l1")
	r := newTestResolver(t, f)

	first, err := r.PollStatus(context.Background(), "TID1")
	require.NoError(t, err)
	second, err := r.PollStatus(context.Background(), "TID1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPollStatus_AfterDelete(t *testing.T) {
	f := newFakeRD(t)
	f.setTorrent("TID1", "downloading", 10)
	r := newTestResolver(t, f)

	require.NoError(t, r.Delete(context.Background(), "TID1"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := r.PollStatus(ctx, "TID1")
	assert.Nil(t, job)
	require.ErrorIs(t, err, ErrTransport)
	assert.False(t, errors.Is(err, ErrServiceRejected))
	assert.Contains(t, err.Error(), "unknown_ressource")
}

func TestUnrestrictLink_Idempotent(t *testing.T) {
	f := newFakeRD(t)
	f.setUnrestrict("https://real-debrid.com/d/l1", "https://download.real-debrid.com/d/XYZ/Inception.mkv", 1)
	r := newTestResolver(t, f)

	a, err := r.UnrestrictLink(context.Background(), "https://real-debrid.com/d/l1")
	require.NoError(t, err)
	b, err := r.UnrestrictLink(context.Background(), "https://real-debrid.com/d/l1")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, &Stream{
		DownloadURL: "https://download.real-debrid.com/d/XYZ/Inception.mkv",
		Filename:    "Inception.2010.1080p.mkv",
		Filesize:    1500000000,
		Streamable:  true,
	}, a)
}

func TestResolveMagnetSync_AlreadyCached(t *testing.T) {
	f := newFakeRD(t)
	f.setTorrent("TID1", "downloaded", 100, "l1")
	f.setUnrestrict("l1", "https://download.real-debrid.com/d/XYZ/Inception.mkv", 1)
	r := newTestResolver(t, f)

	out, err := r.ResolveMagnetSync(context.Background(), testMagnet)
	require.NoError(t, err)
	assert.True(t, out.Resolved)
	assert.Equal(t, StatusDownloaded, out.Status)
	require.Len(t, out.Streams, 1)
	assert.True(t, out.Streams[0].Streamable)
	assert.Equal(t, "https://download.real-debrid.com/d/XYZ/Inception.mkv", out.Streams[0].DownloadURL)
}

func TestResolveMagnetSync_InProgress(t *testing.T) {
	f := newFakeRD(t)
	f.setTorrent("TID1", "downloading", 37)
	r := newTestResolver(t, f)

	out, err := r.ResolveMagnetSync(context.Background(), testMagnet)
	require.NoError(t, err)
	assert.False(t, out.Resolved)
	assert.Equal(t, "TID1", out.TorrentID)
	assert.Equal(t, StatusDownloading, out.Status)
	assert.Equal(t, 37, out.Progress)
	assert.Empty(t, out.Streams)
}

func TestResolveMagnetSync_FiltersAndCapsLinks(t *testing.T) {
	f := newFakeRD(t)
	links := []string{"l1", "l2", "l3", "l4"}
	f.setTorrent("TID1", "downloaded", 100, links...)
	f.setUnrestrict("l1", "https://dl/1.mkv", 1)
	f.setUnrestrict("l2", "https://dl/2.nfo", 0)
	f.setUnrestrict("l3", "https://dl/3.mkv", 1)
	f.setUnrestrict("l4", "https://dl/4.mkv", 1)
	r := newTestResolver(t, f, WithMaxLinks(3))

	out, err := r.ResolveMagnetSync(context.Background(), testMagnet)
	require.NoError(t, err)
	require.Len(t, out.Streams, 2)
	assert.Equal(t, "https://dl/1.mkv", out.Streams[0].DownloadURL)
	assert.Equal(t, "https://dl/3.mkv", out.Streams[1].DownloadURL)
}

func TestResolveMagnetSync_AnomalousState(t *testing.T) {
	f := newFakeRD(t)
	f.setTorrent("TID1", "downloaded", 100)
	r := newTestResolver(t, f)

	out, err := r.ResolveMagnetSync(context.Background(), testMagnet)
	require.ErrorIs(t, err, ErrAnomalousState)
	require.NotNil(t, out)
	assert.Equal(t, StatusError, out.Status)
	assert.False(t, out.Resolved)
}

func TestResolveMagnetSync_UnrestrictFails(t *testing.T) {
	f := newFakeRD(t)
	f.setTorrent("TID1", "downloaded", 100, "missing")
	r := newTestResolver(t, f)

	out, err := r.ResolveMagnetSync(context.Background(), testMagnet)
	require.ErrorIs(t, err, ErrTransport)
	assert.False(t, out.Resolved)
}

func TestResolveMagnetSync_WaitsSyncDelay(t *testing.T) {
	f := newFakeRD(t)
	f.setTorrent("TID1", "queued", 0)
	r := newTestResolver(t, f, WithSyncDelay(1500*time.Millisecond))

	var waited time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		waited = d
		return nil
	}
	_, err := r.ResolveMagnetSync(context.Background(), testMagnet)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, waited)
}

func TestResolveMagnetSync_Cancelled(t *testing.T) {
	f := newFakeRD(t)
	f.setTorrent("TID1", "queued", 0)
	r := newTestResolver(t, f)
	r.sleep = sleepContext
	r.syncDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	out, err := r.ResolveMagnetSync(ctx, testMagnet)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, out)
	assert.Equal(t, "TID1", out.TorrentID)
}

func TestResolveMagnetSync_PollFailureKeepsTorrentID(t *testing.T) {
	f := newFakeRD(t)
	r := newTestResolver(t, f)

	// Added upstream, but info for TID1 answers 404.
	out, err := r.ResolveMagnetSync(context.Background(), testMagnet)
	require.ErrorIs(t, err, ErrTransport)
	require.NotNil(t, out)
	assert.Equal(t, "TID1", out.TorrentID)
	assert.Equal(t, StatusQueued, out.Status)
	assert.False(t, out.Resolved)
}

func TestAddMagnet_SelectFailureReturnsJob(t *testing.T) {
	f := newFakeRD(t)
	f.selectErr = &errorResponse{Error: "service_unavailable", ErrorCode: 25}
	r := newTestResolver(t, f)

	job, err := r.AddMagnet(context.Background(), testMagnet)
	require.ErrorIs(t, err, ErrTransport)
	require.NotNil(t, job)
	assert.Equal(t, "TID1", job.TorrentID)
	assert.Equal(t, StatusWaitingFilesSelection, job.Status)

	out, err := r.ResolveMagnetSync(context.Background(), testMagnet)
	require.Error(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "TID1", out.TorrentID)
	assert.Equal(t, StatusWaitingFilesSelection, out.Status)
}

func TestValidateMagnet(t *testing.T) {
	assert.NoError(t, ValidateMagnet(testMagnet))
	assert.NoError(t, ValidateMagnet("  MAGNET:?xt=urn:btih:abc"))
	assert.ErrorIs(t, ValidateMagnet("magnet"), ErrInvalidMagnet)
}
