// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"vitalsd/internal/vitals"
)

// Config collects every tunable the monitor and dashboard read. Keys are
// flat so the environment surface stays the documented one
// (TICK_INTERVAL_SECONDS, HR_MIN, ...) without a prefix or replacer.
type Config struct {
	TickInterval       time.Duration
	AutoSaveInterval   time.Duration
	ManualSaveCooldown time.Duration

	HRMin   int
	HRMax   int
	SpO2Min int

	DatabasePath  string
	MonitorPort   int
	DashboardPort int
	HistoryLimit  int

	SensorSource string // "simulated" or "hardware"
	SensorSeed   int64  // 0 picks a time-based seed

	LogLevel  string
	LogFormat string

	CloudEnabled bool
	CloudURL     string
	CloudAPIKey  string
}

// Load reads config.yaml from path (optional) and the environment.
// Environment variables win over the file; defaults cover everything, so
// a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		TickInterval:       time.Duration(v.GetInt("tick_interval_seconds")) * time.Second,
		AutoSaveInterval:   time.Duration(v.GetInt("auto_save_interval_seconds")) * time.Second,
		ManualSaveCooldown: time.Duration(v.GetInt("manual_save_cooldown_seconds")) * time.Second,
		HRMin:              v.GetInt("hr_min"),
		HRMax:              v.GetInt("hr_max"),
		SpO2Min:            v.GetInt("spo2_min"),
		DatabasePath:       v.GetString("database_path"),
		MonitorPort:        v.GetInt("monitor_port"),
		DashboardPort:      v.GetInt("dashboard_port"),
		HistoryLimit:       v.GetInt("history_limit"),
		SensorSource:       v.GetString("sensor_source"),
		SensorSeed:         v.GetInt64("sensor_seed"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
		CloudEnabled:       v.GetBool("cloud_enabled"),
		CloudURL:           v.GetString("cloud_url"),
		CloudAPIKey:        v.GetString("cloud_api_key"),
	}

	if cfg.SensorSource != "simulated" && cfg.SensorSource != "hardware" {
		return nil, fmt.Errorf("invalid sensor_source %q", cfg.SensorSource)
	}
	return cfg, nil
}

// Thresholds exposes the clinical boundaries in classifier form.
func (c *Config) Thresholds() vitals.Thresholds {
	return vitals.Thresholds{HRMin: c.HRMin, HRMax: c.HRMax, SpO2Min: c.SpO2Min}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tick_interval_seconds", 1)
	v.SetDefault("auto_save_interval_seconds", 60)
	v.SetDefault("manual_save_cooldown_seconds", 3)
	v.SetDefault("hr_min", 60)
	v.SetDefault("hr_max", 100)
	v.SetDefault("spo2_min", 95)
	v.SetDefault("database_path", "health_data.db")
	v.SetDefault("monitor_port", 8080)
	v.SetDefault("dashboard_port", 8081)
	v.SetDefault("history_limit", 100)
	v.SetDefault("sensor_source", "simulated")
	v.SetDefault("sensor_seed", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("cloud_enabled", false)
	v.SetDefault("cloud_url", "https://api.thingspeak.com/update")
	v.SetDefault("cloud_api_key", "")
}
