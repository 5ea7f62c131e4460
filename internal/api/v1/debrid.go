package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/vmunix/reelroute/internal/debrid"
)

func writeDebridError(w http.ResponseWriter, err error) {
	writeDebridErrorFor(w, err, "")
}

// writeDebridErrorFor maps a debrid error to a response. torrentID names a
// job that was created upstream before the failure so the caller can keep
// polling or delete it.
func writeDebridErrorFor(w http.ResponseWriter, err error, torrentID string) {
	status, code, msg := http.StatusInternalServerError, "DEBRID_ERROR", err.Error()
	var apiErr *debrid.APIError
	switch {
	case errors.Is(err, debrid.ErrInvalidMagnet):
		status, code = http.StatusBadRequest, "INVALID_MAGNET"
	case errors.As(err, &apiErr):
		status, code, msg = http.StatusUnprocessableEntity, "SERVICE_REJECTED", apiErr.Message
	case errors.Is(err, debrid.ErrAnomalousState):
		status, code = http.StatusBadGateway, "ANOMALOUS_STATE"
	case errors.Is(err, debrid.ErrTransport):
		status, code = http.StatusBadGateway, "UPSTREAM_ERROR"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "TIMEOUT"
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code, TorrentID: torrentID})
}

// observe feeds a polled job to the status tracker so changes become events.
func (s *Server) observe(r *http.Request, job *debrid.Job) {
	if s.deps.Automation == nil {
		return
	}
	s.deps.Automation.Tracker().Observe(r.Context(), int64(queryInt(r, "content_id", 0)), job)
}

func (s *Server) addMagnet(w http.ResponseWriter, r *http.Request) {
	var req magnetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	job, err := s.deps.Debrid.AddMagnet(r.Context(), req.Magnet)
	if err != nil {
		if job == nil {
			writeDebridError(w, err)
			return
		}
		s.observe(r, job)
		writeDebridErrorFor(w, err, job.TorrentID)
		return
	}
	s.observe(r, job)
	writeJSON(w, http.StatusCreated, jobResponse{Job: *job})
}

func (s *Server) pollTorrent(w http.ResponseWriter, r *http.Request) {
	job, err := s.deps.Debrid.PollStatus(r.Context(), r.PathValue("id"))
	if err != nil && !(job != nil && errors.Is(err, debrid.ErrAnomalousState)) {
		writeDebridError(w, err)
		return
	}
	s.observe(r, job)

	resp := jobResponse{Job: *job}
	if err != nil {
		s.log.Warn("anomalous debrid job", "torrent_id", job.TorrentID, "error", err)
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) deleteTorrent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Debrid.Delete(r.Context(), id); err != nil {
		writeDebridError(w, err)
		return
	}
	if s.deps.Automation != nil {
		s.deps.Automation.Tracker().Forget(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) unrestrict(w http.ResponseWriter, r *http.Request) {
	var req unrestrictRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Link == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "link is required")
		return
	}
	stream, err := s.deps.Debrid.UnrestrictLink(r.Context(), req.Link)
	if err != nil {
		writeDebridError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stream)
}

func (s *Server) resolveMagnet(w http.ResponseWriter, r *http.Request) {
	var req magnetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	outcome, err := s.deps.Debrid.ResolveMagnetSync(r.Context(), req.Magnet)
	if err != nil {
		if outcome == nil {
			writeDebridError(w, err)
			return
		}
		s.observe(r, &debrid.Job{TorrentID: outcome.TorrentID, Status: outcome.Status, Progress: outcome.Progress})
		writeDebridErrorFor(w, err, outcome.TorrentID)
		return
	}
	s.observe(r, &debrid.Job{TorrentID: outcome.TorrentID, Status: outcome.Status, Progress: outcome.Progress})
	writeJSON(w, http.StatusOK, outcome)
}
