// internal/sensor/hardware.go
package sensor

import (
	"errors"

	"vitalsd/internal/vitals"
)

// ErrSourceClosed is returned by Next once a hardware source shuts down.
var ErrSourceClosed = errors.New("sensor source closed")

// HardwareSource is fed by readings the physical circuit posts to the
// monitor's ingest endpoint. Next blocks until a sample arrives or the
// source is closed.
type HardwareSource struct {
	samples chan vitals.Reading
	done    chan struct{}
}

func NewHardware(buffer int) *HardwareSource {
	if buffer <= 0 {
		buffer = 16
	}
	return &HardwareSource{
		samples: make(chan vitals.Reading, buffer),
		done:    make(chan struct{}),
	}
}

// Offer hands a parsed reading to the source. Returns false when the
// buffer is full or the source is closed; the circuit will post again on
// its next cycle, so dropping is fine.
func (h *HardwareSource) Offer(r vitals.Reading) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.samples <- r:
		return true
	default:
		return false
	}
}

func (h *HardwareSource) Next() (vitals.Reading, error) {
	select {
	case r := <-h.samples:
		return r, nil
	case <-h.done:
		return vitals.Reading{}, ErrSourceClosed
	}
}

func (h *HardwareSource) Close() error {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
	return nil
}
