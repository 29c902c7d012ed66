// internal/vitals/models.go
package vitals

import "time"

// Status classifies a reading against the clinical thresholds.
type Status string

const (
	StatusNormal Status = "normal"
	StatusAlert  Status = "alert"
)

// Absolute sensor bounds. Values outside these ranges are clamped
// before classification or storage; nothing out of range is ever persisted.
const (
	HeartRateFloor = 40
	HeartRateCeil  = 140
	SpO2Floor      = 85
	SpO2Ceil       = 100
)

// Reading - one vital-sign sample. Immutable once created; owned by the
// store after persistence.
type Reading struct {
	ID        int64     `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	HeartRate int       `json:"heart_rate"`
	SpO2      int       `json:"spo2"`
	Status    Status    `json:"status"`
}

// DailySummary - aggregate over a time window, recomputed on demand.
// Averages are nil when the window holds no readings: zero would look
// like a valid (and alarming) measurement.
type DailySummary struct {
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
	AvgHeartRate *float64  `json:"avg_heart_rate"`
	AvgSpO2      *float64  `json:"avg_spo2"`
	MinHeartRate int       `json:"min_heart_rate,omitempty"`
	MaxHeartRate int       `json:"max_heart_rate,omitempty"`
	MinSpO2      int       `json:"min_spo2,omitempty"`
	MaxSpO2      int       `json:"max_spo2,omitempty"`
	SampleCount  int       `json:"sample_count"`
	AlertCount   int       `json:"alert_count"`
}

// Trigger names why a reading was persisted.
type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerInterval Trigger = "interval"
	TriggerStartup  Trigger = "startup"
)

// SaveEvent - audit record for one persisted reading.
type SaveEvent struct {
	ID        string    `json:"id"`
	Trigger   Trigger   `json:"trigger"`
	ReadingID int64     `json:"reading_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Alert - structure broadcast to dashboard clients when a reading
// crosses a threshold.
type Alert struct {
	Timestamp time.Time  `json:"timestamp"`
	Severity  string     `json:"severity"`
	Message   string     `json:"message"`
	Tags      []IssueTag `json:"tags"`
	HeartRate int        `json:"heart_rate"`
	SpO2      int        `json:"spo2"`
}
