package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/vmunix/reelroute/internal/debrid"
	"github.com/vmunix/reelroute/internal/events"
	"github.com/vmunix/reelroute/internal/library"
	"github.com/vmunix/reelroute/internal/metrics"
	"github.com/vmunix/reelroute/pkg/release"
	"github.com/vmunix/reelroute/pkg/torznab"
)

// ResolveResult describes one auto-resolve attempt that reached debrid.
type ResolveResult struct {
	ContentID   int64         `json:"content_id"`
	Title       string        `json:"title"`
	Query       string        `json:"query"`
	ReleaseName string        `json:"release_name"`
	Seeders     int           `json:"seeders"`
	Confidence  string        `json:"confidence"`
	TorrentID   string        `json:"torrent_id"`
	Status      debrid.Status `json:"status"`
	Progress    int           `json:"progress"`
	Resolved    bool          `json:"resolved"`
	StreamURL   string        `json:"stream_url,omitempty"`
}

// ItemFailure is a batch item that could not be resolved.
type ItemFailure struct {
	ContentID int64  `json:"content_id"`
	Title     string `json:"title"`
	Error     string `json:"error"`
}

// BatchReport summarizes a bulk auto-resolve run.
type BatchReport struct {
	RunID     string          `json:"run_id"`
	Attempted int             `json:"attempted"`
	Succeeded []ResolveResult `json:"succeeded"`
	Failed    []ItemFailure   `json:"failed"`
	Duration  time.Duration   `json:"duration"`
}

// AutoResolve searches the torrent index for a content item, hands the best
// seeded magnet to debrid and stores the first streamable URL as the item's
// embed URL. A torrent still downloading is reported with its id so the
// operator can keep polling; that is not an error. A job that ended without
// a streamable file returns ErrNotResolved.
func (s *Service) AutoResolve(ctx context.Context, contentID int64) (*ResolveResult, error) {
	c, err := s.store.GetContent(contentID)
	if err != nil {
		return nil, fmt.Errorf("get content %d: %w", contentID, err)
	}

	res, err := s.autoResolve(ctx, c)
	if err != nil {
		s.log.Warn("auto-resolve failed", "content_id", contentID, "title", c.Title, "error", err)
		s.publish(ctx, &events.AutoResolveFailed{
			BaseEvent: events.NewBaseEvent(events.EventAutoResolveFailed, events.EntityContent, contentID),
			ContentID: contentID,
			Reason:    err.Error(),
		})
		return res, err
	}

	s.publish(ctx, &events.AutoResolveCompleted{
		BaseEvent:   events.NewBaseEvent(events.EventAutoResolveCompleted, events.EntityContent, contentID),
		ContentID:   contentID,
		ReleaseName: res.ReleaseName,
		Seeders:     res.Seeders,
		TorrentID:   res.TorrentID,
		Status:      string(res.Status),
		StreamURL:   res.StreamURL,
	})
	return res, nil
}

func (s *Service) autoResolve(ctx context.Context, c *library.Content) (*ResolveResult, error) {
	if s.searcher == nil || s.debrid == nil {
		return nil, ErrNotConfigured
	}

	ref, err := s.Enrich(ctx, c.ContentRef)
	if err != nil {
		return nil, err
	}

	query := release.SearchQuery(ref.Title, ref.Year, ref.Season, ref.Episode)
	results, err := s.search(ctx, query, categoriesFor(ref.MediaType))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	best, ok := PickBest(results, s.policy.MinSeeders)
	if !ok {
		return nil, fmt.Errorf("%w (%d results, floor %d)", ErrNoTorrents, len(results), s.policy.MinSeeders)
	}

	res := &ResolveResult{
		ContentID:   c.ID,
		Title:       ref.Title,
		Query:       query,
		ReleaseName: best.Title,
		Seeders:     best.Seeders,
		Confidence:  release.Compare(ref.Title, release.Parse(best.Title).Title).Confidence.String(),
	}
	s.log.Info("torrent picked", "content_id", c.ID, "release", best.Title, "seeders", best.Seeders, "confidence", res.Confidence)

	outcome, err := s.debrid.ResolveMagnetSync(ctx, best.MagnetURI)
	if outcome != nil {
		res.TorrentID = outcome.TorrentID
		res.Status = outcome.Status
		res.Progress = outcome.Progress
		s.tracker.Observe(ctx, c.ID, &debrid.Job{TorrentID: outcome.TorrentID, Status: outcome.Status, Progress: outcome.Progress})
	}
	if err != nil {
		return res, fmt.Errorf("debrid: %w", err)
	}

	if !outcome.Resolved {
		// Downloaded with nothing streamable is as final as a failed job.
		if outcome.Status.IsTerminal() {
			return res, fmt.Errorf("debrid job %s ended %s: %w", outcome.TorrentID, outcome.Status, ErrNotResolved)
		}
		return res, nil
	}

	res.Resolved = true
	res.StreamURL = outcome.Streams[0].DownloadURL
	if err := s.store.SetVideoEmbedURL(c.ID, res.StreamURL); err != nil {
		return res, fmt.Errorf("store embed url: %w", err)
	}
	return res, nil
}

// search queries the index, retrying only failures marked transient.
func (s *Service) search(ctx context.Context, query string, cats []int) ([]torznab.Result, error) {
	return retry.DoWithData(
		func() ([]torznab.Result, error) {
			start := time.Now()
			results, err := s.searcher.Search(ctx, query, cats)
			s.metrics.ObserveUpstream(metrics.ServiceTorznab, start, err)
			return results, err
		},
		retry.Context(ctx),
		retry.Attempts(uint(max(s.policy.SearchRetries, 0))+1),
		retry.Delay(s.policy.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, torznab.ErrUnavailable) }),
		retry.OnRetry(func(n uint, err error) {
			s.log.Debug("retrying index search", "query", query, "attempt", n+1, "error", err)
		}),
	)
}

func categoriesFor(t library.ContentType) []int {
	switch t {
	case library.ContentTypeMovie:
		return []int{torznab.CategoryMovies}
	case library.ContentTypeTV:
		return []int{torznab.CategoryTV}
	default:
		return []int{torznab.CategoryMovies, torznab.CategoryTV}
	}
}

// BulkAutoResolve runs AutoResolve over up to limit items that have no
// embed URL, one at a time with the policy delay between items. Individual
// failures are collected; only a store error or cancellation stops the run.
func (s *Service) BulkAutoResolve(ctx context.Context, limit int) (*BatchReport, error) {
	if limit <= 0 {
		limit = s.policy.BatchLimit
	}
	items, _, err := s.store.ListContent(library.ContentFilter{MissingEmbed: true, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list pending content: %w", err)
	}

	start := time.Now()
	report := &BatchReport{
		RunID:     uuid.NewString(),
		Succeeded: []ResolveResult{},
		Failed:    []ItemFailure{},
	}
	log := s.log.With("run_id", report.RunID)
	log.Info("bulk auto-resolve started", "items", len(items))

	for i, c := range items {
		if i > 0 {
			if err := s.sleep(ctx, s.policy.ResolveDelay); err != nil {
				report.Duration = time.Since(start)
				return report, err
			}
		}
		report.Attempted++

		res, err := s.AutoResolve(ctx, c.ID)
		if err != nil {
			report.Failed = append(report.Failed, ItemFailure{ContentID: c.ID, Title: c.Title, Error: err.Error()})
			continue
		}
		report.Succeeded = append(report.Succeeded, *res)
	}

	report.Duration = time.Since(start)
	log.Info("bulk auto-resolve finished",
		"attempted", report.Attempted,
		"succeeded", len(report.Succeeded),
		"failed", len(report.Failed),
		"duration_ms", report.Duration.Milliseconds())

	s.publish(ctx, &events.BulkResolveFinished{
		BaseEvent: events.NewBaseEvent(events.EventBulkResolveFinished, events.EntityBatch, 0),
		RunID:     report.RunID,
		Attempted: report.Attempted,
		Succeeded: len(report.Succeeded),
		Failed:    len(report.Failed),
	})
	return report, nil
}
