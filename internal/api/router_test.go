package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ramonvasc/comunicahub/internal/database/testutil"
	"github.com/ramonvasc/comunicahub/internal/feed"
	"github.com/ramonvasc/comunicahub/internal/ingest"
	"github.com/ramonvasc/comunicahub/internal/kv"
	"github.com/ramonvasc/comunicahub/internal/registry"
	"github.com/ramonvasc/comunicahub/internal/services"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)

	comms, err := services.NewCommunicationService(db)
	require.NoError(t, err)
	deadlines, err := services.NewDeadlineService(db)
	require.NoError(t, err)
	appointments, err := services.NewAppointmentService(db)
	require.NoError(t, err)
	matcher, err := registry.NewMatcher(db)
	require.NoError(t, err)
	pipeline, err := ingest.NewPipeline(db, comms, matcher)
	require.NoError(t, err)
	reads, err := feed.NewReadStateStore(kv.NewDatabaseStore(db))
	require.NoError(t, err)
	aggregator, err := feed.NewAggregator(comms, deadlines, appointments, reads)
	require.NoError(t, err)

	router, err := NewRouter(Deps{
		DB:             db,
		Pipeline:       pipeline,
		Aggregator:     aggregator,
		FeedWindowDays: 7,
	})
	require.NoError(t, err)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_IngestThenListAndFeed(t *testing.T) {
	router := newTestRouter(t)

	batch := `{
		"records": [{
			"external_id": 1,
			"hash": "h1",
			"process_number": "1234567-89.2024.8.01.0001",
			"text": "Intimacao da parte",
			"published_at": "2026-08-25T08:00:00Z",
			"recipients": [{"name": "Maria da Silva", "pole": "passive"}]
		}],
		"seed": {
			"processes": [{"id": "P1", "process_code": "1234567-89.2024.8.01.0001", "client_id": "C1"}]
		}
	}`

	rec := doJSON(t, router, http.MethodPost, "/api/ingest", batch)
	require.Equal(t, http.StatusOK, rec.Code)

	var ingestResp struct {
		Data ingest.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ingestResp))
	require.Equal(t, ingest.Summary{Saved: 1}, ingestResp.Data)

	rec = doJSON(t, router, http.MethodGet, "/api/communications?read=false", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp struct {
		Data []struct {
			ID        string  `json:"id"`
			Hash      string  `json:"hash"`
			ProcessID *string `json:"process_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Len(t, listResp.Data, 1)
	require.Equal(t, "h1", listResp.Data[0].Hash)
	require.NotNil(t, listResp.Data[0].ProcessID)
	require.Equal(t, "P1", *listResp.Data[0].ProcessID)

	rec = doJSON(t, router, http.MethodGet, "/api/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var feedResp struct {
		Data []feed.Item `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feedResp))
	require.Len(t, feedResp.Data, 1)
	require.Equal(t, feed.SourceIntimation, feedResp.Data[0].SourceType)
	require.Equal(t, feed.PriorityUrgent, feedResp.Data[0].Priority)
	require.False(t, feedResp.Data[0].IsRead)

	itemID := feedResp.Data[0].ID
	rec = doJSON(t, router, http.MethodPost, "/api/notifications/"+itemID+"/read", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// The communication is now read, so the feed drains.
	rec = doJSON(t, router, http.MethodGet, "/api/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	feedResp.Data = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feedResp))
	require.Empty(t, feedResp.Data)
}

func TestRouter_IngestRejectsEmptyBatch(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/ingest", `{"records": []}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_GetUnknownCommunicationIs404(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/communications/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_UnknownRouteIsJSON404(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/unknown", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "not found")
}
