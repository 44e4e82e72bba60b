package planlog

import (
	"context"
	"time"

	"github.com/kilianp07/trajplan/core/metrics"
)

// Sink records planning events into a Store.
type Sink struct {
	Store   Store
	Timeout time.Duration
}

// NewSink returns a sink writing to store with a five second timeout.
func NewSink(store Store) *Sink {
	return &Sink{Store: store, Timeout: 5 * time.Second}
}

// RecordPlanning appends the event as a Record.
func (s *Sink) RecordPlanning(ev metrics.PlanningEvent) error {
	ctx := context.Background()
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	return s.Store.Append(ctx, FromEvent(ev))
}
