package metrics

import "time"

// Planning request kinds.
const (
	KindFixTime     = "fix_time"
	KindMinimumTime = "minimum_time"
)

// Attempt outcomes.
const (
	StatusFeasible   = "feasible"
	StatusInfeasible = "infeasible"
	StatusError      = "error"
)

// PlanningEvent describes a single planning attempt.
type PlanningEvent struct {
	AttemptID  string
	WorkerID   string
	Kind       string
	Status     string
	Reason     string
	Latency    time.Duration
	Regions    int
	Vertices   int
	Expansions int
	Truncated  bool
	// FinishTime is zero unless Status is StatusFeasible.
	FinishTime time.Time
	Time       time.Time
}

// MetricsSink records planning attempts for observability purposes.
type MetricsSink interface {
	RecordPlanning(ev PlanningEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlanning(PlanningEvent) error { return nil }
