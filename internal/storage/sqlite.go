// internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"vitalsd/internal/vitals"
)

const defaultOpTimeout = 5 * time.Second

// SQLiteStore keeps readings in a single SQLite file shared between the
// monitor and dashboard processes. WAL mode lets the dashboard read
// while the monitor appends.
type SQLiteStore struct {
	db        *sql.DB
	opTimeout time.Duration
}

// NewSQLite opens (and if needed creates) the database at path. Use
// ":memory:" in tests. Every operation carries a bounded timeout so a
// wedged file fails with ErrPersistence instead of hanging the loop.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// The driver serialises access per connection; one connection keeps
	// transaction semantics simple and is plenty at one write per tick.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, opTimeout: defaultOpTimeout}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("apply %q: %w", p, err)
		}
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS readings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			heart_rate INTEGER NOT NULL,
			spo2 INTEGER NOT NULL,
			status TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_readings_timestamp ON readings(timestamp);`,
		`CREATE TABLE IF NOT EXISTS save_events (
			id TEXT PRIMARY KEY,
			trigger_type TEXT NOT NULL,
			reading_id INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *SQLiteStore) Append(ctx context.Context, r vitals.Reading) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (timestamp, heart_rate, spo2, status) VALUES (?, ?, ?, ?)`,
		r.Timestamp.UnixNano(), r.HeartRate, r.SpO2, string(r.Status))
	if err != nil {
		return 0, fmt.Errorf("%w: insert reading: %v", ErrPersistence, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: reading id: %v", ErrPersistence, err)
	}
	return id, nil
}

func (s *SQLiteStore) Latest(ctx context.Context) (*vitals.Reading, error) {
	rows, err := s.Recent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]vitals.Reading, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, heart_rate, spo2, status FROM readings
		 ORDER BY timestamp DESC, id DESC LIMIT ?`, clampLimit(n))
	if err != nil {
		return nil, fmt.Errorf("%w: query recent: %v", ErrPersistence, err)
	}
	defer rows.Close()
	return scanReadings(rows)
}

func (s *SQLiteStore) Range(ctx context.Context, from, to time.Time) ([]vitals.Reading, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, heart_rate, spo2, status FROM readings
		 WHERE timestamp >= ? AND timestamp < ?
		 ORDER BY timestamp ASC, id ASC`, from.UnixNano(), to.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("%w: query range: %v", ErrPersistence, err)
	}
	defer rows.Close()
	return scanReadings(rows)
}

func (s *SQLiteStore) Since(ctx context.Context, id int64, limit int) ([]vitals.Reading, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, heart_rate, spo2, status FROM readings
		 WHERE id > ? ORDER BY id ASC LIMIT ?`, id, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: query since: %v", ErrPersistence, err)
	}
	defer rows.Close()
	return scanReadings(rows)
}

func (s *SQLiteStore) DailySummary(ctx context.Context, start, end time.Time) (vitals.DailySummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	summary := vitals.DailySummary{WindowStart: start, WindowEnd: end}

	var (
		count, alerts    int
		avgHR, avgSpO2   sql.NullFloat64
		minHR, maxHR     sql.NullInt64
		minSpO2, maxSpO2 sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(heart_rate), AVG(spo2),
		        MIN(heart_rate), MAX(heart_rate), MIN(spo2), MAX(spo2),
		        COALESCE(SUM(CASE WHEN status = 'alert' THEN 1 ELSE 0 END), 0)
		 FROM readings WHERE timestamp >= ? AND timestamp < ?`,
		start.UnixNano(), end.UnixNano()).
		Scan(&count, &avgHR, &avgSpO2, &minHR, &maxHR, &minSpO2, &maxSpO2, &alerts)
	if err != nil {
		return summary, fmt.Errorf("%w: query summary: %v", ErrPersistence, err)
	}

	summary.SampleCount = count
	summary.AlertCount = alerts
	if count > 0 {
		hr := round1(avgHR.Float64)
		spo2 := round1(avgSpO2.Float64)
		summary.AvgHeartRate = &hr
		summary.AvgSpO2 = &spo2
		summary.MinHeartRate = int(minHR.Int64)
		summary.MaxHeartRate = int(maxHR.Int64)
		summary.MinSpO2 = int(minSpO2.Int64)
		summary.MaxSpO2 = int(maxSpO2.Int64)
	}
	return summary, nil
}

func (s *SQLiteStore) Statistics(ctx context.Context) (Statistics, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	today, err := s.DailySummary(ctx, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return Statistics{}, err
	}
	allTime, err := s.DailySummary(ctx, time.Unix(0, 0), now.Add(time.Second))
	if err != nil {
		return Statistics{}, err
	}
	return Statistics{Today: today, AllTime: allTime}, nil
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, ev vitals.SaveEvent) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO save_events (id, trigger_type, reading_id, created_at) VALUES (?, ?, ?, ?)`,
		ev.ID, string(ev.Trigger), ev.ReadingID, ev.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("%w: insert save event: %v", ErrPersistence, err)
	}
	return nil
}

func (s *SQLiteStore) RecentEvents(ctx context.Context, n int) ([]vitals.SaveEvent, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trigger_type, reading_id, created_at FROM save_events
		 ORDER BY created_at DESC LIMIT ?`, clampLimit(n))
	if err != nil {
		return nil, fmt.Errorf("%w: query events: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var events []vitals.SaveEvent
	for rows.Next() {
		var (
			ev      vitals.SaveEvent
			trig    string
			created int64
		)
		if err := rows.Scan(&ev.ID, &trig, &ev.ReadingID, &created); err != nil {
			return nil, fmt.Errorf("%w: scan save event: %v", ErrPersistence, err)
		}
		ev.Trigger = vitals.Trigger(trig)
		ev.CreatedAt = time.Unix(0, created)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate events: %v", ErrPersistence, err)
	}
	return events, nil
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	for _, stmt := range []string{`DELETE FROM readings`, `DELETE FROM save_events`} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: reset: %v", ErrPersistence, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanReadings(rows *sql.Rows) ([]vitals.Reading, error) {
	var readings []vitals.Reading
	for rows.Next() {
		var (
			r      vitals.Reading
			ts     int64
			status string
		)
		if err := rows.Scan(&r.ID, &ts, &r.HeartRate, &r.SpO2, &status); err != nil {
			return nil, fmt.Errorf("%w: scan reading: %v", ErrPersistence, err)
		}
		r.Timestamp = time.Unix(0, ts)
		r.Status = vitals.Status(status)
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate readings: %v", ErrPersistence, err)
	}
	return readings, nil
}
