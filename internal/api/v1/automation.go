package v1

import (
	"errors"
	"net/http"

	"github.com/vmunix/reelroute/internal/automation"
	"github.com/vmunix/reelroute/internal/library"
)

type applyRequest struct {
	Proposals []automation.Proposal `json:"proposals"`
	Approved  []int64               `json:"approved"`
}

// autoResolveResponse always carries the attempt, with Error set when the
// item could not be resolved.
type autoResolveResponse struct {
	*automation.ResolveResult
	Error string `json:"error,omitempty"`
}

func (s *Server) autoResolve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	res, err := s.deps.Automation.AutoResolve(r.Context(), id)
	switch {
	case errors.Is(err, library.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Content not found")
	case errors.Is(err, automation.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", err.Error())
	case err != nil && res == nil:
		writeError(w, http.StatusUnprocessableEntity, "UNRESOLVED", err.Error())
	case err != nil:
		writeJSON(w, http.StatusUnprocessableEntity, autoResolveResponse{ResolveResult: res, Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, autoResolveResponse{ResolveResult: res})
	}
}

func (s *Server) bulkResolve(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	report, err := s.deps.Automation.BulkAutoResolve(r.Context(), req.Limit)
	if err != nil && report == nil {
		writeError(w, http.StatusInternalServerError, "BATCH_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	report, err := s.deps.Automation.CatalogRefresh(r.Context(), req.Limit)
	switch {
	case errors.Is(err, automation.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", err.Error())
	case err != nil && report == nil:
		writeError(w, http.StatusInternalServerError, "REFRESH_ERROR", err.Error())
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	report, err := s.deps.Automation.Apply(r.Context(), req.Proposals, req.Approved)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
