package debrid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vmunix/reelroute/internal/metrics"
)

const (
	defaultSyncDelay = 2 * time.Second
	defaultMaxLinks  = 5
)

// Job is a snapshot of a torrent on the debrid service.
type Job struct {
	TorrentID string   `json:"torrent_id"`
	Status    Status   `json:"status"`
	Progress  int      `json:"progress"` // 0-100
	Filename  string   `json:"filename,omitempty"`
	Links     []string `json:"links,omitempty"` // cached-service links, input to UnrestrictLink
}

// Stream is a direct URL produced by UnrestrictLink.
type Stream struct {
	DownloadURL string `json:"download_url"`
	Filename    string `json:"filename"`
	Filesize    int64  `json:"filesize"`
	Streamable  bool   `json:"streamable"`
}

// Outcome is the result of ResolveMagnetSync. Resolved is true when Streams
// holds at least one playable URL; otherwise Status tells the caller whether
// to keep polling TorrentID.
type Outcome struct {
	TorrentID string   `json:"torrent_id"`
	Status    Status   `json:"status"`
	Progress  int      `json:"progress"`
	Resolved  bool     `json:"resolved"`
	Streams   []Stream `json:"streams,omitempty"`
}

// Resolver talks to the debrid service. It never retries; retry policy
// belongs to the caller. Polling is caller-driven through PollStatus.
type Resolver struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	syncDelay  time.Duration
	maxLinks   int
	sleep      func(ctx context.Context, d time.Duration) error
	metrics    *metrics.Metrics
	log        *slog.Logger
}

// NewResolver creates a Resolver authenticated with an API token.
func NewResolver(token string, opts ...Option) *Resolver {
	r := &Resolver{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    newLimiter(0),
		syncDelay:  defaultSyncDelay,
		maxLinks:   defaultMaxLinks,
		sleep:      sleepContext,
		log:        slog.Default().With("component", "debrid"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ValidateMagnet checks that s is a magnet URI.
func ValidateMagnet(s string) error {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "magnet:") {
		return ErrInvalidMagnet
	}
	return nil
}

// AddMagnet submits a magnet and selects all of its files. Without the
// selection the torrent never leaves waiting_files_selection. If the
// selection fails the torrent already exists upstream, so the job is
// returned alongside the error.
func (r *Resolver) AddMagnet(ctx context.Context, magnet string) (*Job, error) {
	if err := ValidateMagnet(magnet); err != nil {
		return nil, err
	}

	var added addMagnetResponse
	form := url.Values{"magnet": {strings.TrimSpace(magnet)}}
	if err := r.do(ctx, "add magnet", http.MethodPost, "/torrents/addMagnet", form, &added); err != nil {
		return nil, err
	}
	if added.ID == "" {
		return nil, &TransportError{Op: "add magnet", Err: errors.New("response without torrent id")}
	}

	form = url.Values{"files": {"all"}}
	if err := r.do(ctx, "select files", http.MethodPost, "/torrents/selectFiles/"+url.PathEscape(added.ID), form, nil); err != nil {
		return &Job{TorrentID: added.ID, Status: StatusWaitingFilesSelection}, fmt.Errorf("torrent %s: %w", added.ID, err)
	}

	r.log.Info("magnet added", "torrent_id", added.ID)
	return &Job{TorrentID: added.ID, Status: StatusQueued}, nil
}

// PollStatus fetches the current state of a torrent once. A torrent that
// reports downloaded with no links comes back with StatusError and
// ErrAnomalousState. A torrent unknown upstream is a transport error.
func (r *Resolver) PollStatus(ctx context.Context, torrentID string) (*Job, error) {
	var info torrentInfo
	err := r.do(ctx, "torrent info", http.MethodGet, "/torrents/info/"+url.PathEscape(torrentID), nil, &info)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, &TransportError{Op: "torrent info", StatusCode: http.StatusNotFound, Err: fmt.Errorf("torrent %s: %s", torrentID, apiErr.Message)}
		}
		return nil, err
	}

	job := &Job{
		TorrentID: torrentID,
		Status:    mapStatus(info.Status),
		Progress:  min(max(int(info.Progress), 0), 100),
		Filename:  info.Filename,
		Links:     info.Links,
	}
	if job.Status == StatusDownloaded && len(job.Links) == 0 {
		r.log.Error("torrent downloaded without links", "torrent_id", torrentID)
		job.Status = StatusError
		return job, fmt.Errorf("torrent %s: %w", torrentID, ErrAnomalousState)
	}
	return job, nil
}

// UnrestrictLink converts a cached-service link into a direct URL.
func (r *Resolver) UnrestrictLink(ctx context.Context, link string) (*Stream, error) {
	var ur unrestrictResponse
	if err := r.do(ctx, "unrestrict link", http.MethodPost, "/unrestrict/link", url.Values{"link": {link}}, &ur); err != nil {
		return nil, err
	}
	return &Stream{
		DownloadURL: ur.Download,
		Filename:    ur.Filename,
		Filesize:    ur.Filesize,
		Streamable:  ur.Streamable == 1,
	}, nil
}

// Delete removes a torrent from the account.
func (r *Resolver) Delete(ctx context.Context, torrentID string) error {
	return r.do(ctx, "delete torrent", http.MethodDelete, "/torrents/delete/"+url.PathEscape(torrentID), nil, nil)
}

// ResolveMagnetSync adds a magnet, waits the sync delay, and polls once. If
// the torrent is already downloaded, up to maxLinks links are unrestricted
// and the streamable ones returned. Otherwise the outcome carries the
// in-progress status for the caller to keep polling. Once the torrent
// exists upstream every error comes with an outcome carrying its id.
func (r *Resolver) ResolveMagnetSync(ctx context.Context, magnet string) (*Outcome, error) {
	added, err := r.AddMagnet(ctx, magnet)
	if added == nil {
		return nil, err
	}
	pending := &Outcome{TorrentID: added.TorrentID, Status: added.Status}
	if err != nil {
		return pending, err
	}
	if err := r.sleep(ctx, r.syncDelay); err != nil {
		return pending, err
	}

	job, err := r.PollStatus(ctx, added.TorrentID)
	if err != nil {
		if job != nil {
			return &Outcome{TorrentID: job.TorrentID, Status: job.Status, Progress: job.Progress}, err
		}
		r.log.Warn("poll after add failed", "torrent_id", added.TorrentID, "error", err)
		return pending, err
	}

	out := &Outcome{TorrentID: job.TorrentID, Status: job.Status, Progress: job.Progress}
	if job.Status != StatusDownloaded {
		return out, nil
	}

	links := job.Links
	if len(links) > r.maxLinks {
		links = links[:r.maxLinks]
	}
	var firstErr error
	for _, link := range links {
		s, err := r.UnrestrictLink(ctx, link)
		if err != nil {
			r.log.Warn("unrestrict failed", "torrent_id", job.TorrentID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if s.Streamable {
			out.Streams = append(out.Streams, *s)
		}
	}
	if len(out.Streams) == 0 && firstErr != nil {
		return out, firstErr
	}
	out.Resolved = len(out.Streams) > 0
	return out, nil
}
