// Package planlog keeps a queryable history of planning attempts.
package planlog

import (
	"context"
	"sort"
	"time"

	"github.com/kilianp07/trajplan/core/metrics"
)

// Record is one planning attempt as persisted.
type Record struct {
	Timestamp  time.Time  `json:"timestamp"`
	AttemptID  string     `json:"attempt_id"`
	WorkerID   string     `json:"worker_id,omitempty"`
	Kind       string     `json:"kind"`
	Status     string     `json:"status"`
	Reason     string     `json:"reason,omitempty"`
	LatencyMS  float64    `json:"latency_ms"`
	Regions    int        `json:"regions"`
	Vertices   int        `json:"vertices"`
	Expansions int        `json:"expansions"`
	Truncated  bool       `json:"truncated,omitempty"`
	FinishTime *time.Time `json:"finish_time,omitempty"`
}

// FromEvent converts a metrics event into a Record.
func FromEvent(ev metrics.PlanningEvent) Record {
	r := Record{
		Timestamp:  ev.Time,
		AttemptID:  ev.AttemptID,
		WorkerID:   ev.WorkerID,
		Kind:       ev.Kind,
		Status:     ev.Status,
		Reason:     ev.Reason,
		LatencyMS:  float64(ev.Latency.Microseconds()) / 1000,
		Regions:    ev.Regions,
		Vertices:   ev.Vertices,
		Expansions: ev.Expansions,
		Truncated:  ev.Truncated,
	}
	if !ev.FinishTime.IsZero() {
		ft := ev.FinishTime
		r.FinishTime = &ft
	}
	return r
}

// Query defines filters for retrieving records. Zero fields match anything.
type Query struct {
	Start    time.Time
	End      time.Time
	WorkerID string
	Kind     string
	Status   string
	// Limit keeps the most recent matches when positive.
	Limit int
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.WorkerID != "" && r.WorkerID != q.WorkerID {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	return q.Status == "" || r.Status == q.Status
}

// Store persists Records and supports querying. Implementations are safe for
// concurrent use.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// sortAndLimit orders records by time and keeps the last q.Limit.
func sortAndLimit(recs []Record, limit int) []Record {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp.Before(recs[j].Timestamp) })
	if limit > 0 && len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	return recs
}
