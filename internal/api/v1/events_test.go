package v1

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/reelroute/internal/events"
)

func TestEvents_NotConfigured(t *testing.T) {
	h := newTestServer(t, testDeps(t))
	w := do(t, h, http.MethodGet, "/api/v1/events", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "NO_EVENT_LOG", decode[errorResponse](t, w).Code)
}

func TestEvents_Recent(t *testing.T) {
	deps := testDeps(t)
	deps.EventLog = events.NewEventLog(setupTestDB(t))
	for i := int64(1); i <= 3; i++ {
		_, err := deps.EventLog.Append(context.Background(), &events.AutoResolveFailed{
			BaseEvent: events.NewBaseEvent(events.EventAutoResolveFailed, events.EntityContent, i),
			ContentID: i,
			Reason:    "no torrent meets the seeder floor",
		})
		require.NoError(t, err)
	}
	h := newTestServer(t, deps)

	w := do(t, h, http.MethodGet, "/api/v1/events?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[listEventsResponse](t, w)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, int64(3), resp.Items[0].EntityID)
	assert.Equal(t, int64(2), resp.Items[1].EntityID)

	w = do(t, h, http.MethodGet, "/api/v1/events?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
