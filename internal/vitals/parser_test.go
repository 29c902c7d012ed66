package vitals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReading(t *testing.T) {
	r, err := ParseReading([]byte(`{"heart_rate": 72, "spo2": 97}`))
	require.NoError(t, err)
	assert.Equal(t, 72, r.HeartRate)
	assert.Equal(t, 97, r.SpO2)
	assert.WithinDuration(t, time.Now(), r.Timestamp, time.Second)
}

func TestParseReadingAliases(t *testing.T) {
	r, err := ParseReading([]byte(`{"hr": 80, "oxygen": 96}`))
	require.NoError(t, err)
	assert.Equal(t, 80, r.HeartRate)
	assert.Equal(t, 96, r.SpO2)
}

func TestParseReadingClampsOutOfRange(t *testing.T) {
	r, err := ParseReading([]byte(`{"heart_rate": 300, "spo2": 40}`))
	require.NoError(t, err)
	assert.Equal(t, HeartRateCeil, r.HeartRate)
	assert.Equal(t, SpO2Floor, r.SpO2)
}

func TestParseReadingDeviceTimestamp(t *testing.T) {
	r, err := ParseReading([]byte(`{"heart_rate": 72, "spo2": 97, "timestamp": "2026-08-30T12:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), r.Timestamp.UTC())
}

func TestParseReadingMissingVitals(t *testing.T) {
	_, err := ParseReading([]byte(`{"temperature": 36.6}`))
	assert.ErrorIs(t, err, ErrNoVitals)
}

func TestParseReadingBadJSON(t *testing.T) {
	_, err := ParseReading([]byte(`not json`))
	assert.Error(t, err)
}
