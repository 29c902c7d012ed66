package api

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"vitalsd/internal/sensor"
	"vitalsd/internal/trigger"
	"vitalsd/internal/vitals"
)

// ControlHandler serves the monitor process's small control surface:
// the manual save trigger and, when a hardware source is configured,
// the ingest endpoint the circuit posts readings to.
type ControlHandler struct {
	controller *trigger.Controller
	hardware   *sensor.HardwareSource // nil when running simulated
	log        *zap.Logger
}

func NewControlHandler(controller *trigger.Controller, hardware *sensor.HardwareSource,
	logger *zap.Logger) *ControlHandler {
	return &ControlHandler{controller: controller, hardware: hardware, log: logger}
}

// HandleManualSave is the button press. Idempotent and safe at any time.
// A trigger arriving while a save is in flight or cooling down reports
// 429 and is dropped, not queued.
func (h *ControlHandler) HandleManualSave(w http.ResponseWriter, r *http.Request) {
	if h.controller.TriggerManual() {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "save triggered"})
		return
	}
	writeError(w, http.StatusTooManyRequests, "save in progress or cooling down")
}

// HandleIngest receives readings posted by the physical circuit.
func (h *ControlHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if h.hardware == nil {
		writeError(w, http.StatusConflict, "monitor is running the simulated sensor")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4096))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read body")
		return
	}
	defer r.Body.Close()

	reading, err := vitals.ParseReading(body)
	if err != nil {
		if errors.Is(err, vitals.ErrNoVitals) {
			writeError(w, http.StatusBadRequest, "payload has no vital-sign fields")
			return
		}
		writeError(w, http.StatusBadRequest, "cannot parse payload")
		return
	}

	if !h.hardware.Offer(reading) {
		// Buffer full; the device resends on its next cycle.
		h.log.Debug("ingest sample dropped")
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

func (h *ControlHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
