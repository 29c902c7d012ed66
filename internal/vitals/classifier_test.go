package vitals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name string
		hr   int
		spo2 int
		want Status
	}{
		{"resting normal", 70, 98, StatusNormal},
		{"low heart rate", 45, 98, StatusAlert},
		{"high heart rate", 110, 98, StatusAlert},
		{"low oxygen", 70, 90, StatusAlert},
		{"hr lower bound is normal", 60, 98, StatusNormal},
		{"hr upper bound is normal", 100, 98, StatusNormal},
		{"just below hr bound", 59, 98, StatusAlert},
		{"just above hr bound", 101, 98, StatusAlert},
		{"spo2 bound is normal", 70, 95, StatusNormal},
		{"just below spo2 bound", 70, 94, StatusAlert},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, th.Classify(tt.hr, tt.spo2))
		})
	}
}

func TestDescribe(t *testing.T) {
	th := DefaultThresholds()

	assert.Empty(t, th.Describe(70, 98))
	assert.Equal(t, []IssueTag{IssueLowHR}, th.Describe(45, 98))
	assert.Equal(t, []IssueTag{IssueHighHR}, th.Describe(120, 98))
	assert.Equal(t, []IssueTag{IssueLowSpO2}, th.Describe(70, 90))
	assert.Equal(t, []IssueTag{IssueLowHR, IssueLowSpO2}, th.Describe(45, 90))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, HeartRateFloor, ClampHeartRate(10))
	assert.Equal(t, HeartRateCeil, ClampHeartRate(300))
	assert.Equal(t, 72, ClampHeartRate(72))

	assert.Equal(t, SpO2Floor, ClampSpO2(60))
	assert.Equal(t, SpO2Ceil, ClampSpO2(120))
	assert.Equal(t, 97, ClampSpO2(97))
}

func TestAlertFor(t *testing.T) {
	th := DefaultThresholds()

	assert.Nil(t, th.AlertFor(Reading{HeartRate: 70, SpO2: 98}))

	alert := th.AlertFor(Reading{HeartRate: 45, SpO2: 90})
	require.NotNil(t, alert)
	assert.Equal(t, "WARN", alert.Severity)
	assert.Equal(t, []IssueTag{IssueLowHR, IssueLowSpO2}, alert.Tags)
	assert.Contains(t, alert.Message, "heart rate 45")
	assert.Contains(t, alert.Message, "SpO2 90")
}
