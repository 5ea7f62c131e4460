package v1

import (
	"net/http"

	"github.com/vmunix/reelroute/internal/events"
)

func toEventResponses(raw []events.RawEvent) []EventResponse {
	out := make([]EventResponse, len(raw))
	for i, e := range raw {
		out[i] = EventResponse{
			ID:         e.ID,
			EventType:  e.EventType,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Payload:    e.Payload,
			OccurredAt: e.OccurredAt,
		}
	}
	return out
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", "limit must be non-negative")
		return
	}
	const maxLimit = 1000
	if limit > maxLimit {
		limit = maxLimit
	}

	raw, err := s.deps.EventLog.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}
	items := toEventResponses(raw)
	writeJSON(w, http.StatusOK, listEventsResponse{Items: items, Total: len(items)})
}

func (s *Server) listContentEvents(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	raw, err := s.deps.EventLog.ForEntity(r.Context(), events.EntityContent, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}
	items := toEventResponses(raw)
	writeJSON(w, http.StatusOK, listEventsResponse{Items: items, Total: len(items)})
}
