// internal/vitals/classifier.go
package vitals

import (
	"fmt"
	"strings"
)

// IssueTag identifies which threshold a reading violated.
type IssueTag string

const (
	IssueLowHR   IssueTag = "LOW_HR"
	IssueHighHR  IssueTag = "HIGH_HR"
	IssueLowSpO2 IssueTag = "LOW_SPO2"
)

// Thresholds hold the clinical alert boundaries. The zero value is not
// usable; start from DefaultThresholds or the loaded config.
type Thresholds struct {
	HRMin   int
	HRMax   int
	SpO2Min int
}

func DefaultThresholds() Thresholds {
	return Thresholds{HRMin: 60, HRMax: 100, SpO2Min: 95}
}

// ClampHeartRate constrains a raw value to the absolute sensor range.
func ClampHeartRate(hr int) int {
	if hr < HeartRateFloor {
		return HeartRateFloor
	}
	if hr > HeartRateCeil {
		return HeartRateCeil
	}
	return hr
}

// ClampSpO2 constrains a raw value to the absolute sensor range.
func ClampSpO2(spo2 int) int {
	if spo2 < SpO2Floor {
		return SpO2Floor
	}
	if spo2 > SpO2Ceil {
		return SpO2Ceil
	}
	return spo2
}

// Classify maps a clamped sample to its status. Pure and total over the
// sensor domains.
func (t Thresholds) Classify(hr, spo2 int) Status {
	if hr < t.HRMin || hr > t.HRMax || spo2 < t.SpO2Min {
		return StatusAlert
	}
	return StatusNormal
}

// Describe returns the set of violated thresholds. Empty iff the sample
// classifies as normal.
func (t Thresholds) Describe(hr, spo2 int) []IssueTag {
	var tags []IssueTag
	if hr < t.HRMin {
		tags = append(tags, IssueLowHR)
	}
	if hr > t.HRMax {
		tags = append(tags, IssueHighHR)
	}
	if spo2 < t.SpO2Min {
		tags = append(tags, IssueLowSpO2)
	}
	return tags
}

// AlertFor builds a broadcastable alert for a reading, or nil when the
// reading is normal.
func (t Thresholds) AlertFor(r Reading) *Alert {
	tags := t.Describe(r.HeartRate, r.SpO2)
	if len(tags) == 0 {
		return nil
	}

	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		switch tag {
		case IssueLowHR:
			parts = append(parts, fmt.Sprintf("heart rate %d bpm below %d", r.HeartRate, t.HRMin))
		case IssueHighHR:
			parts = append(parts, fmt.Sprintf("heart rate %d bpm above %d", r.HeartRate, t.HRMax))
		case IssueLowSpO2:
			parts = append(parts, fmt.Sprintf("SpO2 %d%% below %d%%", r.SpO2, t.SpO2Min))
		}
	}

	return &Alert{
		Timestamp: r.Timestamp,
		Severity:  "WARN",
		Message:   "Vitals alert: " + strings.Join(parts, "; "),
		Tags:      tags,
		HeartRate: r.HeartRate,
		SpO2:      r.SpO2,
	}
}
