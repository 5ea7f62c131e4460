package automation

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vmunix/reelroute/internal/library"
)

// Enrich fills Title and Year from TMDB when ref carries only an external
// id. Refs that already have a title are returned unchanged.
func (s *Service) Enrich(ctx context.Context, ref library.ContentRef) (library.ContentRef, error) {
	if ref.Title != "" {
		return ref, nil
	}
	if ref.ExternalID == "" || s.meta == nil {
		return ref, ErrMissingTitle
	}
	id, err := strconv.ParseInt(ref.ExternalID, 10, 64)
	if err != nil {
		return ref, fmt.Errorf("external id %q: %w", ref.ExternalID, ErrMissingTitle)
	}

	switch ref.MediaType {
	case library.ContentTypeTV:
		tv, err := s.meta.GetTV(ctx, id)
		if err != nil {
			return ref, fmt.Errorf("tmdb tv %d: %w", id, err)
		}
		ref.Title = tv.Name
		if ref.Year == 0 {
			ref.Year = tv.Year()
		}
	default:
		movie, err := s.meta.GetMovie(ctx, id)
		if err != nil {
			return ref, fmt.Errorf("tmdb movie %d: %w", id, err)
		}
		ref.Title = movie.Title
		if ref.Year == 0 {
			ref.Year = movie.Year()
		}
	}

	s.log.Debug("enriched ref from tmdb", "external_id", ref.ExternalID, "title", ref.Title, "year", ref.Year)
	return ref, nil
}
