// internal/storage/memory.go
package storage

import (
	"context"
	"sync"
	"time"

	"vitalsd/internal/vitals"
)

// MemoryStore is an in-process Store used by tests and demo setups that
// do not want a database file on disk.
type MemoryStore struct {
	mu       sync.RWMutex
	readings []vitals.Reading
	events   []vitals.SaveEvent
	nextID   int64
	closed   bool
}

func NewMemory() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) Append(_ context.Context, r vitals.Reading) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrPersistence
	}

	r.ID = s.nextID
	s.nextID++
	s.readings = append(s.readings, r)
	return r.ID, nil
}

func (s *MemoryStore) Latest(_ context.Context) (*vitals.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.readings) == 0 {
		return nil, nil
	}
	r := s.readings[len(s.readings)-1]
	return &r, nil
}

func (s *MemoryStore) Recent(_ context.Context, n int) ([]vitals.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n = clampLimit(n)
	if n > len(s.readings) {
		n = len(s.readings)
	}

	// Copy in reverse so callers get most-recent-first without sharing
	// the backing slice.
	result := make([]vitals.Reading, 0, n)
	for i := len(s.readings) - 1; i >= len(s.readings)-n; i-- {
		result = append(result, s.readings[i])
	}
	return result, nil
}

func (s *MemoryStore) Range(_ context.Context, from, to time.Time) ([]vitals.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []vitals.Reading
	for _, r := range s.readings {
		if !r.Timestamp.Before(from) && r.Timestamp.Before(to) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *MemoryStore) Since(_ context.Context, id int64, limit int) ([]vitals.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit = clampLimit(limit)
	var result []vitals.Reading
	for _, r := range s.readings {
		if r.ID > id {
			result = append(result, r)
			if len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

func (s *MemoryStore) DailySummary(ctx context.Context, start, end time.Time) (vitals.DailySummary, error) {
	rows, err := s.Range(ctx, start, end)
	if err != nil {
		return vitals.DailySummary{}, err
	}

	summary := vitals.DailySummary{WindowStart: start, WindowEnd: end, SampleCount: len(rows)}
	if len(rows) == 0 {
		return summary, nil
	}

	var hrSum, spo2Sum int
	summary.MinHeartRate = rows[0].HeartRate
	summary.MaxHeartRate = rows[0].HeartRate
	summary.MinSpO2 = rows[0].SpO2
	summary.MaxSpO2 = rows[0].SpO2
	for _, r := range rows {
		hrSum += r.HeartRate
		spo2Sum += r.SpO2
		if r.HeartRate < summary.MinHeartRate {
			summary.MinHeartRate = r.HeartRate
		}
		if r.HeartRate > summary.MaxHeartRate {
			summary.MaxHeartRate = r.HeartRate
		}
		if r.SpO2 < summary.MinSpO2 {
			summary.MinSpO2 = r.SpO2
		}
		if r.SpO2 > summary.MaxSpO2 {
			summary.MaxSpO2 = r.SpO2
		}
		if r.Status == vitals.StatusAlert {
			summary.AlertCount++
		}
	}

	avgHR := round1(float64(hrSum) / float64(len(rows)))
	avgSpO2 := round1(float64(spo2Sum) / float64(len(rows)))
	summary.AvgHeartRate = &avgHR
	summary.AvgSpO2 = &avgSpO2
	return summary, nil
}

func (s *MemoryStore) Statistics(ctx context.Context) (Statistics, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	today, err := s.DailySummary(ctx, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return Statistics{}, err
	}
	allTime, err := s.DailySummary(ctx, time.Unix(0, 0), now.Add(time.Second))
	if err != nil {
		return Statistics{}, err
	}
	return Statistics{Today: today, AllTime: allTime}, nil
}

func (s *MemoryStore) AppendEvent(_ context.Context, ev vitals.SaveEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrPersistence
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *MemoryStore) RecentEvents(_ context.Context, n int) ([]vitals.SaveEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n = clampLimit(n)
	if n > len(s.events) {
		n = len(s.events)
	}
	result := make([]vitals.SaveEvent, 0, n)
	for i := len(s.events) - 1; i >= len(s.events)-n; i-- {
		result = append(result, s.events[i])
	}
	return result, nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = nil
	s.events = nil
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
