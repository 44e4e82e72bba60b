// Package export writes planned trajectories as JSON, CSV or an HTML chart
// of the arc-time plane.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/trajplan/core/motion"
	"github.com/kilianp07/trajplan/core/planner"
)

// Point is one trajectory waypoint.
type Point struct {
	Time   time.Time `json:"time"`
	Offset float64   `json:"offset_s"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
}

// ProfilePoint is one vertex of the arc-time profile.
type ProfilePoint struct {
	Arc     float64 `json:"arc"`
	Seconds float64 `json:"seconds"`
}

// Plan is the exported form of a planning attempt.
type Plan struct {
	WorkerID   string         `json:"worker_id,omitempty"`
	AttemptID  string         `json:"attempt_id"`
	Feasible   bool           `json:"feasible"`
	Reason     string         `json:"reason,omitempty"`
	StartTime  *time.Time     `json:"start_time,omitempty"`
	FinishTime *time.Time     `json:"finish_time,omitempty"`
	Points     []Point        `json:"points,omitempty"`
	Profile    []ProfilePoint `json:"profile,omitempty"`
	Vertices   int            `json:"vertices"`
	Expansions int            `json:"expansions"`
}

// NewPlan converts a planner selection. Offsets are relative to epoch.
func NewPlan(sel planner.Selection, epoch time.Time) Plan {
	res := sel.Result
	p := Plan{
		WorkerID:   sel.WorkerID,
		AttemptID:  sel.AttemptID,
		Feasible:   res.Feasible,
		Reason:     string(res.Reason),
		Vertices:   res.Stats.Vertices,
		Expansions: res.Stats.Expansions,
	}
	if !res.Feasible {
		return p
	}
	start, finish := res.Trajectory.StartTime(), res.Trajectory.FinishTime()
	p.StartTime, p.FinishTime = &start, &finish
	p.Points = Points(res.Composed(), epoch)
	for _, v := range res.Trajectory.ArcTimePath().Points() {
		p.Profile = append(p.Profile, ProfilePoint{Arc: v.X, Seconds: v.Y})
	}
	return p
}

// Points flattens a trajectory.
func Points(traj motion.Trajectory, epoch time.Time) []Point {
	out := make([]Point, 0, traj.Len())
	for _, tp := range traj.Points() {
		out = append(out, Point{Time: tp.Time, Offset: tp.Time.Sub(epoch).Seconds(), X: tp.Location.X, Y: tp.Location.Y})
	}
	return out
}

// WriteJSON writes the plan to w in JSON format.
func WriteJSON(w io.Writer, plan Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

// WriteCSV writes the plan's waypoints to w, one row per point.
func WriteCSV(w io.Writer, plan Plan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"worker_id", "time", "offset_s", "x", "y"}); err != nil {
		return err
	}
	for _, p := range plan.Points {
		rec := []string{
			plan.WorkerID,
			p.Time.Format(time.RFC3339Nano),
			strconv.FormatFloat(p.Offset, 'f', -1, 64),
			strconv.FormatFloat(p.X, 'f', -1, 64),
			strconv.FormatFloat(p.Y, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
