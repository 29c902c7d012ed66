// internal/vitals/parser.go
package vitals

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoVitals indicates a payload that parsed as JSON but carried no
// recognizable vital-sign fields.
var ErrNoVitals = errors.New("payload contains no vital-sign fields")

// ParseReading unmarshals a raw sensor payload into a Reading. The real
// circuit and the emulator both post small JSON objects, but key names
// drift between firmware versions, so a few aliases are accepted.
// Values are clamped here; the caller never sees an out-of-range sample.
func ParseReading(rawData []byte) (Reading, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(rawData, &payload); err != nil {
		return Reading{}, fmt.Errorf("unmarshal sensor payload: %w", err)
	}

	hr, hrOK := intField(payload, "heart_rate", "hr", "bpm")
	spo2, spo2OK := intField(payload, "spo2", "blood_oxygen", "oxygen")
	if !hrOK || !spo2OK {
		return Reading{}, ErrNoVitals
	}

	r := Reading{
		Timestamp: time.Now(),
		HeartRate: ClampHeartRate(hr),
		SpO2:      ClampSpO2(spo2),
	}

	// Overwrite the receive time when the device supplied its own stamp.
	if tsStr, ok := payload["timestamp"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, tsStr); err == nil {
			r.Timestamp = t
		}
	}

	return r, nil
}

// intField returns the first of the named keys holding a numeric value.
// JSON numbers decode as float64; some clients send strings of digits,
// which we do not accept.
func intField(payload map[string]interface{}, keys ...string) (int, bool) {
	for _, key := range keys {
		switch v := payload[key].(type) {
		case float64:
			return int(v), true
		case int:
			return v, true
		}
	}
	return 0, false
}
