// internal/alerting/alerter.go
package alerting

import (
	"go.uber.org/zap"

	"vitalsd/internal/vitals"
	"vitalsd/internal/websocket"
)

// Alerter fans threshold alerts out to the configured channels. Today
// that is the dashboard websocket hub and the log; an SMS or email
// notifier would slot in beside them.
type Alerter struct {
	hub *websocket.Hub
	log *zap.Logger
}

func NewAlerter(hub *websocket.Hub, logger *zap.Logger) *Alerter {
	return &Alerter{hub: hub, log: logger}
}

// Process dispatches one alert. Nil alerts (normal readings) are ignored
// so callers can pass Thresholds.AlertFor output directly.
func (a *Alerter) Process(alert *vitals.Alert) {
	if alert == nil {
		return
	}

	tags := make([]string, len(alert.Tags))
	for i, t := range alert.Tags {
		tags[i] = string(t)
	}
	a.log.Warn("vitals alert",
		zap.String("message", alert.Message),
		zap.Strings("tags", tags),
		zap.Int("heart_rate", alert.HeartRate),
		zap.Int("spo2", alert.SpO2))

	if a.hub != nil {
		a.hub.BroadcastAlert(*alert)
	}
}
