// internal/sensor/sensor.go
package sensor

import "vitalsd/internal/vitals"

// Source produces one vital-sign sample per call. The monitor loop never
// depends on which variant is behind it.
type Source interface {
	Next() (vitals.Reading, error)
	Close() error
}
