package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, 60*time.Second, cfg.AutoSaveInterval)
	assert.Equal(t, 3*time.Second, cfg.ManualSaveCooldown)
	assert.Equal(t, 60, cfg.HRMin)
	assert.Equal(t, 100, cfg.HRMax)
	assert.Equal(t, 95, cfg.SpO2Min)
	assert.Equal(t, "health_data.db", cfg.DatabasePath)
	assert.Equal(t, 8080, cfg.MonitorPort)
	assert.Equal(t, 8081, cfg.DashboardPort)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.Equal(t, "simulated", cfg.SensorSource)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.CloudEnabled)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("TICK_INTERVAL_SECONDS", "5")
	t.Setenv("AUTO_SAVE_INTERVAL_SECONDS", "120")
	t.Setenv("MANUAL_SAVE_COOLDOWN_SECONDS", "10")
	t.Setenv("HR_MIN", "55")
	t.Setenv("SENSOR_SOURCE", "hardware")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.TickInterval)
	assert.Equal(t, 120*time.Second, cfg.AutoSaveInterval)
	assert.Equal(t, 10*time.Second, cfg.ManualSaveCooldown)
	assert.Equal(t, 55, cfg.HRMin)
	assert.Equal(t, "hardware", cfg.SensorSource)
}

func TestLoadRejectsUnknownSource(t *testing.T) {
	t.Setenv("SENSOR_SOURCE", "telepathy")

	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestThresholds(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	th := cfg.Thresholds()
	assert.Equal(t, 60, th.HRMin)
	assert.Equal(t, 100, th.HRMax)
	assert.Equal(t, 95, th.SpO2Min)
}
