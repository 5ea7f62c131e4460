// Package v1 implements the native REST API.
package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vmunix/reelroute/internal/catalog"
	"github.com/vmunix/reelroute/internal/library"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Server is the v1 API server.
type Server struct {
	deps ServerDeps
	log  *slog.Logger
}

// NewWithDeps creates a new v1 API server with explicit dependencies.
func NewWithDeps(deps ServerDeps) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingDependency, err)
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{deps: deps, log: log.With("component", "api")}, nil
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("GET /api/v1/status", s.getStatus)
	mux.HandleFunc("GET /api/v1/sources", s.listSources)
	mux.HandleFunc("POST /api/v1/lookup", s.requireCatalog(s.lookup))

	// Content
	mux.HandleFunc("GET /api/v1/content", s.listContent)
	mux.HandleFunc("POST /api/v1/content", s.addContent)
	mux.HandleFunc("GET /api/v1/content/{id}", s.getContent)
	mux.HandleFunc("DELETE /api/v1/content/{id}", s.deleteContent)
	mux.HandleFunc("PUT /api/v1/content/{id}/embed", s.setEmbed)
	mux.HandleFunc("PUT /api/v1/content/{id}/links", s.setLinks)
	mux.HandleFunc("GET /api/v1/content/{id}/plan", s.getPlan)
	mux.HandleFunc("POST /api/v1/content/{id}/fallback", s.fallback)
	mux.HandleFunc("GET /api/v1/content/{id}/events", s.requireEventLog(s.listContentEvents))

	// Debrid
	mux.HandleFunc("POST /api/v1/debrid/torrents", s.requireDebrid(s.addMagnet))
	mux.HandleFunc("GET /api/v1/debrid/torrents/{id}", s.requireDebrid(s.pollTorrent))
	mux.HandleFunc("DELETE /api/v1/debrid/torrents/{id}", s.requireDebrid(s.deleteTorrent))
	mux.HandleFunc("POST /api/v1/debrid/unrestrict", s.requireDebrid(s.unrestrict))
	mux.HandleFunc("POST /api/v1/debrid/resolve", s.requireDebrid(s.resolveMagnet))

	// Automation
	mux.HandleFunc("POST /api/v1/automation/resolve/{id}", s.requireAutomation(s.autoResolve))
	mux.HandleFunc("POST /api/v1/automation/resolve", s.requireAutomation(s.bulkResolve))
	mux.HandleFunc("POST /api/v1/automation/refresh", s.requireAutomation(s.refresh))
	mux.HandleFunc("POST /api/v1/automation/apply", s.requireAutomation(s.apply))

	// Events
	mux.HandleFunc("GET /api/v1/events", s.requireEventLog(s.listEvents))
}

// Handler returns the routed API wrapped with request metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.instrument(mux)
}

// Error response
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	TorrentID string `json:"torrent_id,omitempty"` // set when a debrid job exists despite the error
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	writeJSON(w, code, errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeBody reads a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return false
	}
	return true
}

// pathID extracts the integer {id} from the URL path.
func pathID(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	if idStr == "" {
		return 0, fmt.Errorf("missing path parameter: id")
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	_, total, err := s.deps.Library.ListContent(library.ContentFilter{Limit: 1})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	_, missing, err := s.deps.Library.ListContent(library.ContentFilter{MissingStream: true, Limit: 1})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := statusResponse{
		Status:        "ok",
		Content:       total,
		MissingStream: missing,
		Mirrors:       s.deps.Registry.Names(),
	}
	resp.Services.Catalog = s.deps.Catalog != nil
	resp.Services.Debrid = s.deps.Debrid != nil
	resp.Services.Automation = s.deps.Automation != nil
	resp.Services.EventLog = s.deps.EventLog != nil

	if s.deps.Indexer != nil {
		resp.Services.Indexer = true
		if err := s.deps.Indexer.Caps(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.IndexerError = err.Error()
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listSources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	externalID := q.Get("external_id")
	if externalID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "external_id is required")
		return
	}
	mediaType := library.ContentType(q.Get("type"))
	if mediaType == "" {
		mediaType = library.ContentTypeMovie
	}
	if !mediaType.Valid() {
		writeError(w, http.StatusBadRequest, "INVALID_TYPE", "type must be movie or tv")
		return
	}

	sources := s.deps.Registry.GetAllStreamUrls(externalID, mediaType, queryInt(r, "season", 0), queryInt(r, "episode", 0))
	writeJSON(w, http.StatusOK, sourcesResponse{Sources: sources, Total: len(sources)})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.MediaType != "" && !req.MediaType.Valid() {
		writeError(w, http.StatusBadRequest, "INVALID_TYPE", "media_type must be movie or tv")
		return
	}

	ref := library.ContentRef{Title: req.Title, Year: req.Year, MediaType: req.MediaType, ExternalID: req.ExternalID}
	if ref.Title == "" && s.deps.Automation != nil {
		enriched, err := s.deps.Automation.Enrich(r.Context(), ref)
		if err != nil {
			writeError(w, http.StatusBadRequest, "MISSING_TITLE", err.Error())
			return
		}
		ref = enriched
	}
	if ref.Title == "" {
		writeError(w, http.StatusBadRequest, "MISSING_TITLE", "title is required")
		return
	}

	res := s.deps.Catalog.Lookup(r.Context(), catalog.QueryFor(ref))
	writeJSON(w, http.StatusOK, res)
}
