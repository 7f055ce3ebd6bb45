package domain

import (
	"context"
	"time"
)

// CorridorStore is the read side of the aggregates storage this layer
// consumes. The periodic broadcaster polls it once per tick.
type CorridorStore interface {
	// ListCorridorMetricsForDate returns all corridor aggregates recorded for
	// the calendar date of the given instant (UTC).
	ListCorridorMetricsForDate(ctx context.Context, date time.Time) ([]CorridorMetric, error)
}
