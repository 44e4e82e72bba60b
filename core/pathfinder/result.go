package pathfinder

import (
	"time"

	"github.com/kilianp07/trajplan/core/motion"
)

// Reason explains why a plan is infeasible.
type Reason string

const (
	// ReasonNoPath means the mesh holds no route to any finish vertex.
	ReasonNoPath Reason = "no_path"
	// ReasonExpansionLimit means the search gave up at MaxExpansions.
	ReasonExpansionLimit Reason = "expansion_limit"
	// ReasonNoFinish means every Minimum-Time finish candidate was rejected
	// before the search.
	ReasonNoFinish Reason = "no_finish"
)

// Stats describes the work done for a single call.
type Stats struct {
	Regions    int
	Pieces     int
	Vertices   int
	Expansions int
	Truncated  bool
	Finishes   int
}

// Result is the outcome of a planning call. Trajectory is only set when
// Feasible is true; an infeasible plan never carries a partial trajectory.
type Result struct {
	Feasible   bool
	Reason     Reason
	Trajectory motion.DecomposedTrajectory
	Stats      Stats
}

// FinishTime is the absolute arrival time of a feasible plan.
func (r Result) FinishTime() time.Time {
	if !r.Feasible {
		return time.Time{}
	}
	return r.Trajectory.FinishTime()
}

// Composed returns the absolute trajectory of a feasible plan.
func (r Result) Composed() motion.Trajectory {
	if !r.Feasible {
		return motion.Trajectory{}
	}
	return r.Trajectory.Composed()
}
