// internal/storage/store.go
package storage

import (
	"context"
	"errors"
	"math"
	"time"

	"vitalsd/internal/vitals"
)

// ErrPersistence wraps any storage-layer failure (unavailable file,
// timeout, bad row). Callers treat a save that fails with it as dropped;
// there is no retry queue.
var ErrPersistence = errors.New("persistence failure")

// Recent never returns more rows than this regardless of the requested
// limit, to keep dashboard polls bounded.
const MaxRecent = 1000

// Statistics bundles the dashboard's two summary windows.
type Statistics struct {
	Today   vitals.DailySummary `json:"today"`
	AllTime vitals.DailySummary `json:"all_time"`
}

// Store is the durable append-only reading log shared by the monitor
// (single writer) and dashboard (concurrent readers) processes.
type Store interface {
	// Append persists one reading atomically and returns its id. A
	// failed append reports ErrPersistence; it never partially writes.
	Append(ctx context.Context, r vitals.Reading) (int64, error)

	// Latest returns the most recent reading, or nil when the log is empty.
	Latest(ctx context.Context) (*vitals.Reading, error)

	// Recent returns up to n readings, most recent first.
	Recent(ctx context.Context, n int) ([]vitals.Reading, error)

	// Range returns readings in [from, to) ascending by timestamp.
	Range(ctx context.Context, from, to time.Time) ([]vitals.Reading, error)

	// Since returns up to limit readings with id greater than the given
	// one, ascending. Used by the live feed poller.
	Since(ctx context.Context, id int64, limit int) ([]vitals.Reading, error)

	// DailySummary aggregates readings in [start, end). Computed on
	// demand; an empty window yields SampleCount 0 and nil averages.
	DailySummary(ctx context.Context, start, end time.Time) (vitals.DailySummary, error)

	// Statistics returns the today and all-time summary windows.
	Statistics(ctx context.Context) (Statistics, error)

	AppendEvent(ctx context.Context, ev vitals.SaveEvent) error
	RecentEvents(ctx context.Context, n int) ([]vitals.SaveEvent, error)

	// Reset clears every reading and save event. Test and demo setup
	// only; the simulation loop never calls it.
	Reset(ctx context.Context) error

	Close() error
}

func clampLimit(n int) int {
	if n <= 0 || n > MaxRecent {
		return MaxRecent
	}
	return n
}

// round1 applies the summary rounding policy: one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
