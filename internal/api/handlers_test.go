package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vitalsd/internal/sensor"
	"vitalsd/internal/storage"
	"vitalsd/internal/trigger"
	"vitalsd/internal/vitals"
	"vitalsd/internal/websocket"
)

func testWebDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "templates"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "templates", "index.html"),
		[]byte("<html><body>dashboard</body></html>"), 0o644))
	return dir
}

func testServer(t *testing.T, store storage.Store) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()
	hub := websocket.NewHub(logger)
	go hub.Run()

	h, err := NewQueryHandler(store, hub, testWebDir(t), 100, logger)
	require.NoError(t, err)

	srv := httptest.NewServer(SetupDashboardRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func seed(t *testing.T, store storage.Store, readings ...vitals.Reading) {
	t.Helper()
	for _, r := range readings {
		_, err := store.Append(context.Background(), r)
		require.NoError(t, err)
	}
}

func getJSON(t *testing.T, url string, v interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestHandleLatest(t *testing.T) {
	store := storage.NewMemory()
	seed(t, store,
		vitals.Reading{Timestamp: time.Now().Add(-time.Second), HeartRate: 70, SpO2: 98, Status: vitals.StatusNormal},
		vitals.Reading{Timestamp: time.Now(), HeartRate: 75, SpO2: 97, Status: vitals.StatusNormal},
	)
	srv := testServer(t, store)

	var got vitals.Reading
	resp := getJSON(t, srv.URL+"/api/latest", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 75, got.HeartRate)
}

func TestHandleLatestEmpty(t *testing.T) {
	srv := testServer(t, storage.NewMemory())

	var got map[string]string
	resp := getJSON(t, srv.URL+"/api/latest", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no data available", got["error"])
}

func TestHandleHistoryChronological(t *testing.T) {
	store := storage.NewMemory()
	base := time.Now()
	seed(t, store,
		vitals.Reading{Timestamp: base, HeartRate: 70, SpO2: 98, Status: vitals.StatusNormal},
		vitals.Reading{Timestamp: base.Add(time.Second), HeartRate: 72, SpO2: 97, Status: vitals.StatusNormal},
		vitals.Reading{Timestamp: base.Add(2 * time.Second), HeartRate: 74, SpO2: 96, Status: vitals.StatusNormal},
	)
	srv := testServer(t, store)

	var got []vitals.Reading
	resp := getJSON(t, srv.URL+"/api/history?limit=2", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, got, 2)
	// Oldest of the returned window first.
	assert.Equal(t, 72, got[0].HeartRate)
	assert.Equal(t, 74, got[1].HeartRate)
}

func TestHandleHistoryEmptyIsArray(t *testing.T) {
	srv := testServer(t, storage.NewMemory())

	var got []vitals.Reading
	resp := getJSON(t, srv.URL+"/api/history", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHandleHistoryBadLimit(t *testing.T) {
	srv := testServer(t, storage.NewMemory())
	resp := getJSON(t, srv.URL+"/api/history?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleSummary(t *testing.T) {
	store := storage.NewMemory()
	now := time.Now()
	seed(t, store,
		vitals.Reading{Timestamp: now, HeartRate: 72, SpO2: 97, Status: vitals.StatusNormal},
		vitals.Reading{Timestamp: now, HeartRate: 80, SpO2: 96, Status: vitals.StatusNormal},
	)
	srv := testServer(t, store)

	var got vitals.DailySummary
	resp := getJSON(t, srv.URL+"/api/summary?date="+now.Format("2006-01-02"), &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, got.SampleCount)
	require.NotNil(t, got.AvgHeartRate)
	assert.Equal(t, 76.0, *got.AvgHeartRate)
	require.NotNil(t, got.AvgSpO2)
	assert.Equal(t, 96.5, *got.AvgSpO2)
}

func TestHandleSummaryBadDate(t *testing.T) {
	srv := testServer(t, storage.NewMemory())
	resp := getJSON(t, srv.URL+"/api/summary?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleStatistics(t *testing.T) {
	store := storage.NewMemory()
	seed(t, store, vitals.Reading{Timestamp: time.Now(), HeartRate: 72, SpO2: 97, Status: vitals.StatusNormal})
	srv := testServer(t, store)

	var got storage.Statistics
	resp := getJSON(t, srv.URL+"/api/statistics", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, got.Today.SampleCount)
	assert.Equal(t, 1, got.AllTime.SampleCount)
}

func TestHandleExportCSV(t *testing.T) {
	store := storage.NewMemory()
	seed(t, store,
		vitals.Reading{Timestamp: time.Now(), HeartRate: 72, SpO2: 97, Status: vitals.StatusNormal},
		vitals.Reading{Timestamp: time.Now(), HeartRate: 80, SpO2: 96, Status: vitals.StatusAlert},
	)
	srv := testServer(t, store)

	resp, err := http.Get(srv.URL + "/api/export?format=csv")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment; filename=health_data_")

	var sb strings.Builder
	_, err = io.Copy(&sb, resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,timestamp,heart_rate,spo2,status", lines[0])
}

func TestHandleExportBadFormat(t *testing.T) {
	srv := testServer(t, storage.NewMemory())
	resp := getJSON(t, srv.URL+"/api/export?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleExportBadRange(t *testing.T) {
	srv := testServer(t, storage.NewMemory())
	resp := getJSON(t, srv.URL+"/api/export?from=2026-01-02&to=2026-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleExportJSON(t *testing.T) {
	store := storage.NewMemory()
	seed(t, store, vitals.Reading{Timestamp: time.Now(), HeartRate: 72, SpO2: 97, Status: vitals.StatusNormal})
	srv := testServer(t, store)

	var got struct {
		RecordCount int              `json:"record_count"`
		Data        []vitals.Reading `json:"data"`
	}
	resp := getJSON(t, srv.URL+"/api/export", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, got.RecordCount)
	require.Len(t, got.Data, 1)
}

func controlServer(t *testing.T, hardware *sensor.HardwareSource) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()
	controller := trigger.New(storage.NewMemory(), logger, trigger.Config{Cooldown: time.Minute})
	controller.Observe(vitals.Reading{Timestamp: time.Now(), HeartRate: 72, SpO2: 97, Status: vitals.StatusNormal})

	h := NewControlHandler(controller, hardware, logger)
	srv := httptest.NewServer(SetupControlRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func TestHandleManualSaveDebounced(t *testing.T) {
	srv := controlServer(t, nil)

	resp, err := http.Post(srv.URL+"/save", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	// Second press lands inside the cooldown window.
	resp, err = http.Post(srv.URL+"/save", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestHandleIngest(t *testing.T) {
	hw := sensor.NewHardware(4)
	srv := controlServer(t, hw)

	resp, err := http.Post(srv.URL+"/ingest", "application/json",
		strings.NewReader(`{"heart_rate": 88, "spo2": 95}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	r, err := hw.Next()
	require.NoError(t, err)
	assert.Equal(t, 88, r.HeartRate)
}

func TestHandleIngestBadPayload(t *testing.T) {
	srv := controlServer(t, sensor.NewHardware(4))

	resp, err := http.Post(srv.URL+"/ingest", "application/json",
		strings.NewReader(`{"temperature": 36.6}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleIngestSimulatedMode(t *testing.T) {
	srv := controlServer(t, nil)

	resp, err := http.Post(srv.URL+"/ingest", "application/json",
		strings.NewReader(`{"heart_rate": 88, "spo2": 95}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
