package v1

import (
	"errors"
	"net/http"

	"github.com/vmunix/reelroute/internal/engine"
	"github.com/vmunix/reelroute/internal/library"
)

// loadContent fetches the {id} content item, writing the error response
// itself when that fails.
func (s *Server) loadContent(w http.ResponseWriter, r *http.Request) (*library.Content, bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return nil, false
	}
	c, err := s.deps.Library.GetContent(id)
	if err != nil {
		writeLibraryError(w, err)
		return nil, false
	}
	return c, true
}

func writeLibraryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Content not found")
	case errors.Is(err, library.ErrDuplicate):
		writeError(w, http.StatusConflict, "DUPLICATE", err.Error())
	case errors.Is(err, library.ErrConstraint):
		writeError(w, http.StatusBadRequest, "CONSTRAINT", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
	}
}

func (s *Server) listContent(w http.ResponseWriter, r *http.Request) {
	filter := library.ContentFilter{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", "limit and offset must be non-negative")
		return
	}

	q := r.URL.Query()
	if typeStr := q.Get("type"); typeStr != "" {
		t := library.ContentType(typeStr)
		if !t.Valid() {
			writeError(w, http.StatusBadRequest, "INVALID_TYPE", "type must be movie or tv")
			return
		}
		filter.Type = &t
	}
	if ext := q.Get("external_id"); ext != "" {
		filter.ExternalID = &ext
	}
	switch q.Get("missing") {
	case "":
	case "embed":
		filter.MissingEmbed = true
	case "stream":
		filter.MissingStream = true
	default:
		writeError(w, http.StatusBadRequest, "INVALID_FILTER", "missing must be embed or stream")
		return
	}

	items, total, err := s.deps.Library.ListContent(filter)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	if items == nil {
		items = []*library.Content{}
	}
	writeJSON(w, http.StatusOK, listContentResponse{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset})
}

func (s *Server) getContent(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadContent(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) addContent(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !req.MediaType.Valid() {
		writeError(w, http.StatusBadRequest, "INVALID_TYPE", "media_type must be movie or tv")
		return
	}
	if req.Title == "" && req.ExternalID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "title or external_id is required")
		return
	}

	ref := req.ContentRef
	if ref.Title == "" && s.deps.Automation != nil {
		enriched, err := s.deps.Automation.Enrich(r.Context(), ref)
		if err != nil {
			s.log.Warn("enrich on add failed", "external_id", ref.ExternalID, "error", err)
		} else {
			ref = enriched
		}
	}

	c := &library.Content{
		ContentRef:         ref,
		VideoEmbedURL:      req.VideoEmbedURL,
		ExternalWatchLinks: req.ExternalWatchLinks,
	}
	if err := s.deps.Library.AddContent(c); err != nil {
		writeLibraryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) deleteContent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	if err := s.deps.Library.DeleteContent(id); err != nil {
		writeLibraryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setEmbed(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	var req embedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.deps.Library.SetVideoEmbedURL(id, req.VideoEmbedURL); err != nil {
		writeLibraryError(w, err)
		return
	}
	s.getContent(w, r)
}

func (s *Server) setLinks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	var req linksRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.deps.Library.SetExternalWatchLinks(id, req.Links); err != nil {
		writeLibraryError(w, err)
		return
	}
	s.getContent(w, r)
}

func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadContent(w, r)
	if !ok {
		return
	}
	plan := s.deps.Engine.Plan(c)
	resp := planResponse{
		ContentID:     c.ID,
		Sources:       plan.Sources,
		ExternalLinks: plan.ExternalLinks,
		DefaultIndex:  -1,
	}
	if _, ok := plan.Default(); ok {
		resp.DefaultIndex = 0
	}
	writeJSON(w, http.StatusOK, resp)
}

// fallback answers "the source at failed_index did not play, what next?".
// It replays the plan's cursor up to the failed index, so the answer is
// always the immediate successor or a final failure.
func (s *Server) fallback(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadContent(w, r)
	if !ok {
		return
	}
	var req fallbackRequest
	if !decodeBody(w, r, &req) {
		return
	}

	plan := s.deps.Engine.Plan(c)
	if req.FailedIndex < 0 || req.FailedIndex >= len(plan.Sources) {
		writeError(w, http.StatusBadRequest, "INVALID_INDEX", "failed_index is out of range")
		return
	}

	cursor := engine.NewCursor(plan.Sources)
	for i := 0; i < req.FailedIndex; i++ {
		_, _ = cursor.Advance(i)
	}
	next, err := cursor.Advance(req.FailedIndex)
	if errors.Is(err, engine.ErrNoMoreSources) {
		writeError(w, http.StatusGone, "NO_MORE_SOURCES", "Every source has failed")
		return
	}
	writeJSON(w, http.StatusOK, fallbackResponse{Index: cursor.Index(), Source: next})
}
