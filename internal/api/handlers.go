package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	gwebsocket "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"vitalsd/internal/storage"
	"vitalsd/internal/vitals"
	"vitalsd/internal/websocket"
)

var upgrader = gwebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const dateLayout = "2006-01-02"

// QueryHandler serves the read-only dashboard API. Every endpoint is a
// side-effect-free read over the store; empty results are empty arrays,
// never errors.
type QueryHandler struct {
	store        storage.Store
	hub          *websocket.Hub
	tmpl         *template.Template
	webDir       string
	log          *zap.Logger
	historyLimit int
}

func NewQueryHandler(store storage.Store, hub *websocket.Hub, webDir string,
	historyLimit int, logger *zap.Logger) (*QueryHandler, error) {
	tmpl, err := template.ParseGlob(filepath.Join(webDir, "templates", "*.html"))
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &QueryHandler{
		store:        store,
		hub:          hub,
		tmpl:         tmpl,
		webDir:       webDir,
		log:          logger,
		historyLimit: historyLimit,
	}, nil
}

// HandleLatest returns the most recent reading.
func (h *QueryHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	latest, err := h.store.Latest(r.Context())
	if err != nil {
		h.serverError(w, "query latest", err)
		return
	}
	if latest == nil {
		writeJSON(w, http.StatusOK, map[string]string{"error": "no data available"})
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// HandleHistory returns recent readings in chronological order, ready
// for charting.
func (h *QueryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := h.historyLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	readings, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.serverError(w, "query history", err)
		return
	}

	// Recent is most-recent-first; charts want oldest-first.
	result := make([]vitals.Reading, 0, len(readings))
	for i := len(readings) - 1; i >= 0; i-- {
		result = append(result, readings[i])
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleSummary returns the daily summary for ?date=YYYY-MM-DD,
// defaulting to today.
func (h *QueryHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		day = parsed
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)

	summary, err := h.store.DailySummary(r.Context(), start, start.Add(24*time.Hour))
	if err != nil {
		h.serverError(w, "query summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleStatistics returns the today and all-time aggregate blocks.
func (h *QueryHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Statistics(r.Context())
	if err != nil {
		h.serverError(w, "query statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleEvents returns recent save events for auditing.
func (h *QueryHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	limit := h.historyLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	events, err := h.store.RecentEvents(r.Context(), limit)
	if err != nil {
		h.serverError(w, "query events", err)
		return
	}
	if events == nil {
		events = []vitals.SaveEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleExport materializes a snapshot of readings in ?from=&to= as CSV
// or JSON. The store is not locked; a reading appended mid-export may or
// may not appear.
func (h *QueryHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	from, to := now.Add(-24*time.Hour), now

	var err error
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = parseTimeParam(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid from")
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = parseTimeParam(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid to")
			return
		}
	}
	if !from.Before(to) {
		writeError(w, http.StatusBadRequest, "from must precede to")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		writeError(w, http.StatusBadRequest, "format must be csv or json")
		return
	}

	readings, err := h.store.Range(r.Context(), from, to)
	if err != nil {
		h.serverError(w, "query export range", err)
		return
	}
	if readings == nil {
		readings = []vitals.Reading{}
	}

	filename := fmt.Sprintf("health_data_%s.%s", now.Format("20060102"), format)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		cw := csv.NewWriter(w)
		cw.Write([]string{"id", "timestamp", "heart_rate", "spo2", "status"})
		for _, rd := range readings {
			cw.Write([]string{
				strconv.FormatInt(rd.ID, 10),
				rd.Timestamp.Format(time.RFC3339),
				strconv.Itoa(rd.HeartRate),
				strconv.Itoa(rd.SpO2),
				string(rd.Status),
			})
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			h.log.Error("write csv export", zap.Error(err))
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"export_date":  now,
		"record_count": len(readings),
		"data":         readings,
	})
}

// HandleWebSocket upgrades the connection and registers the client with
// the live-feed hub.
func (h *QueryHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &websocket.Client{Hub: h.hub, Conn: conn, Send: make(chan []byte, 256), Log: h.log}
	h.hub.RegisterClient(client)

	go client.WritePump()
	go client.ReadPump()

	go h.sendInitialData(client)
}

// ServeDashboard renders the dashboard page.
func (h *QueryHandler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	if err := h.tmpl.ExecuteTemplate(w, "index.html", nil); err != nil {
		h.log.Error("render dashboard", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// sendInitialData pushes recent history to a newly connected client so
// its chart is not empty until the next tick.
func (h *QueryHandler) sendInitialData(client *websocket.Client) {
	readings, err := h.store.Recent(context.Background(), h.historyLimit)
	if err != nil {
		h.log.Error("load initial history", zap.Error(err))
		return
	}
	if len(readings) == 0 {
		return
	}

	// Oldest first, same as /api/history.
	ordered := make([]vitals.Reading, 0, len(readings))
	for i := len(readings) - 1; i >= 0; i-- {
		ordered = append(ordered, readings[i])
	}
	messageBytes, err := json.Marshal(map[string]interface{}{
		"type":    "history",
		"payload": ordered,
	})
	if err != nil {
		h.log.Error("marshal initial history", zap.Error(err))
		return
	}

	select {
	case client.Send <- messageBytes:
	case <-time.After(5 * time.Second):
		h.log.Debug("timeout sending initial history")
	}
}

func (h *QueryHandler) serverError(w http.ResponseWriter, msg string, err error) {
	h.log.Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "storage unavailable")
}

// parseTimeParam accepts RFC 3339 or a bare date.
func parseTimeParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateLayout, raw, time.Local)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
