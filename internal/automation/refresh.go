package automation

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/vmunix/reelroute/internal/catalog"
	"github.com/vmunix/reelroute/internal/engine"
	"github.com/vmunix/reelroute/internal/events"
	"github.com/vmunix/reelroute/internal/library"
)

// Proposal is a set of free watch links found for one item, waiting for
// operator approval.
type Proposal struct {
	ContentID    int64                 `json:"content_id"`
	Title        string                `json:"title"`
	Year         int                   `json:"year,omitempty"`
	MatchedTitle string                `json:"matched_title"`
	MatchedYear  int                   `json:"matched_year,omitempty"`
	MatchTier    int                   `json:"match_tier"`
	Confidence   string                `json:"confidence"`
	Offers       []catalog.StreamOffer `json:"offers"`
	Links        map[string]string     `json:"links"`
}

// Unmatched is an item the refresh could not propose links for.
type Unmatched struct {
	ContentID int64  `json:"content_id"`
	Title     string `json:"title"`
	Reason    string `json:"reason"`
}

// RefreshReport is the result of a catalog refresh. Nothing in it has been
// written to the store.
type RefreshReport struct {
	RunID     string        `json:"run_id"`
	Scanned   int           `json:"scanned"`
	Proposals []Proposal    `json:"proposals"`
	Unmatched []Unmatched   `json:"unmatched"`
	Duration  time.Duration `json:"duration"`
}

// ApplyReport lists the items whose watch links were written.
type ApplyReport struct {
	Applied []int64 `json:"applied"`
	Skipped []int64 `json:"skipped"`
}

// CatalogRefresh looks up every item that has no stream at all (up to
// limit, 0 for all) and proposes watch links from the free offers found.
// Lookups run one at a time with the policy refresh delay between them.
func (s *Service) CatalogRefresh(ctx context.Context, limit int) (*RefreshReport, error) {
	if s.catalog == nil {
		return nil, ErrNotConfigured
	}
	items, _, err := s.store.ListContent(library.ContentFilter{MissingStream: true, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list content without streams: %w", err)
	}

	start := time.Now()
	report := &RefreshReport{
		RunID:     uuid.NewString(),
		Proposals: []Proposal{},
		Unmatched: []Unmatched{},
	}
	log := s.log.With("run_id", report.RunID)
	log.Info("catalog refresh started", "items", len(items))

	for i, c := range items {
		if i > 0 {
			if err := s.sleep(ctx, s.policy.RefreshDelay); err != nil {
				report.Duration = time.Since(start)
				return report, err
			}
		}
		report.Scanned++

		p, reason := s.propose(ctx, c)
		if p == nil {
			report.Unmatched = append(report.Unmatched, Unmatched{ContentID: c.ID, Title: c.Title, Reason: reason})
			continue
		}
		report.Proposals = append(report.Proposals, *p)
	}

	report.Duration = time.Since(start)
	log.Info("catalog refresh finished",
		"scanned", report.Scanned,
		"proposals", len(report.Proposals),
		"duration_ms", report.Duration.Milliseconds())

	s.publish(ctx, &events.CatalogRefreshed{
		BaseEvent: events.NewBaseEvent(events.EventCatalogRefreshed, events.EntityBatch, 0),
		RunID:     report.RunID,
		Scanned:   report.Scanned,
		Proposals: len(report.Proposals),
	})
	return report, nil
}

func (s *Service) propose(ctx context.Context, c *library.Content) (*Proposal, string) {
	ref, err := s.Enrich(ctx, c.ContentRef)
	if err != nil {
		return nil, err.Error()
	}

	res := s.catalog.Lookup(ctx, catalog.QueryFor(ref))
	if !res.Found {
		return nil, "no catalog match"
	}
	links := engine.WatchLinks(res.FreeOffers)
	if len(links) == 0 {
		return nil, "no free offers"
	}
	return &Proposal{
		ContentID:    c.ID,
		Title:        ref.Title,
		Year:         ref.Year,
		MatchedTitle: res.MatchedTitle,
		MatchedYear:  res.MatchedYear,
		MatchTier:    res.MatchTier,
		Confidence:   res.Confidence,
		Offers:       res.FreeOffers,
		Links:        links,
	}, ""
}

// Apply writes the links of approved proposals in a single transaction.
// Proposals whose id is not in approved are skipped.
func (s *Service) Apply(ctx context.Context, proposals []Proposal, approved []int64) (*ApplyReport, error) {
	report := &ApplyReport{Applied: []int64{}, Skipped: []int64{}}

	tx, err := s.store.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range proposals {
		if !slices.Contains(approved, p.ContentID) || len(p.Links) == 0 {
			report.Skipped = append(report.Skipped, p.ContentID)
			continue
		}
		if err := tx.SetExternalWatchLinks(p.ContentID, p.Links); err != nil {
			return nil, fmt.Errorf("content %d: %w", p.ContentID, err)
		}
		report.Applied = append(report.Applied, p.ContentID)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	for _, p := range proposals {
		if !slices.Contains(report.Applied, p.ContentID) {
			continue
		}
		s.publish(ctx, &events.CatalogApplied{
			BaseEvent: events.NewBaseEvent(events.EventCatalogApplied, events.EntityContent, p.ContentID),
			ContentID: p.ContentID,
			Providers: slices.Sorted(maps.Keys(p.Links)),
		})
	}
	s.log.Info("watch links applied", "applied", len(report.Applied), "skipped", len(report.Skipped))
	return report, nil
}
