// internal/sensor/simulated.go
package sensor

import (
	"math/rand"
	"time"

	"vitalsd/internal/vitals"
)

const (
	maxHRStep   = 2 // per-tick random-walk bound for heart rate
	maxSpO2Step = 1 // per-tick random-walk bound for SpO2

	// Rough chance per tick that the simulated wearer changes activity
	// level, shifting the heart-rate target.
	activityShiftChance = 0.05
)

// SimulatedSource replaces the MAX30102 sensor with a smooth bounded
// random walk. Each call nudges the previous values by a small delta and
// clamps to the sensor domains. Deterministic for a fixed seed.
type SimulatedSource struct {
	rng *rand.Rand

	hr   int
	spo2 int

	// hrTarget pulls the walk toward the current activity level so the
	// trace drifts rather than jumping when activity changes.
	hrTarget int
}

// NewSimulated builds a source seeded for reproducibility. Seed 0 picks
// a time-based seed, matching normal operation.
func NewSimulated(seed int64) *SimulatedSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedSource{
		rng:      rand.New(rand.NewSource(seed)),
		hr:       75,
		spo2:     98,
		hrTarget: 75,
	}
}

// Next advances the random walk and returns the sample. Never fails;
// the error is part of the Source contract for hardware variants.
func (s *SimulatedSource) Next() (vitals.Reading, error) {
	if s.rng.Float64() < activityShiftChance {
		s.shiftActivity()
	}

	s.hr = vitals.ClampHeartRate(s.hr + s.step(s.hr, s.hrTarget, maxHRStep))
	s.spo2 = vitals.ClampSpO2(s.spo2 + s.step(s.spo2, 98, maxSpO2Step))

	return vitals.Reading{
		Timestamp: time.Now(),
		HeartRate: s.hr,
		SpO2:      s.spo2,
	}, nil
}

func (s *SimulatedSource) Close() error { return nil }

// step returns a delta in [-max, +max], biased one notch toward target
// so the walk trends without exceeding the per-tick bound.
func (s *SimulatedSource) step(current, target, max int) int {
	delta := s.rng.Intn(2*max+1) - max
	if current < target && delta < max {
		delta++
	} else if current > target && delta > -max {
		delta--
	}
	return delta
}

// shiftActivity re-bases the heart-rate target on a new activity level:
// rest, normal or active.
func (s *SimulatedSource) shiftActivity() {
	switch s.rng.Intn(3) {
	case 0: // rest
		s.hrTarget = 60 + s.rng.Intn(11)
	case 1: // normal
		s.hrTarget = 70 + s.rng.Intn(16)
	default: // active
		s.hrTarget = 85 + s.rng.Intn(26)
	}
}
