package motion

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// TrajectoryPoint is a location at an absolute instant.
type TrajectoryPoint struct {
	Location r2.Vec
	Time     time.Time
}

// Trajectory is an immutable sequence of timed locations with linear motion
// between consecutive points.
type Trajectory struct {
	points []TrajectoryPoint
}

// NewTrajectory validates and copies the points.
func NewTrajectory(points ...TrajectoryPoint) (Trajectory, error) {
	if len(points) == 0 {
		return Trajectory{}, fmt.Errorf("%w: %w", ErrInvalidTrajectory, ErrEmptyPath)
	}
	for i, p := range points {
		if !finite(p.Location.X) || !finite(p.Location.Y) {
			return Trajectory{}, fmt.Errorf("%w: point %d is not finite", ErrInvalidTrajectory, i)
		}
		if i == 0 {
			continue
		}
		prev := points[i-1]
		if p.Time.Before(prev.Time) {
			return Trajectory{}, fmt.Errorf("%w: point %d goes back in time", ErrInvalidTrajectory, i)
		}
		if p.Time.Equal(prev.Time) && p.Location != prev.Location {
			return Trajectory{}, fmt.Errorf("%w: point %d jumps at %s", ErrInvalidTrajectory, i, p.Time.Format(time.RFC3339Nano))
		}
	}
	return Trajectory{points: append([]TrajectoryPoint(nil), points...)}, nil
}

// MustTrajectory is like NewTrajectory but panics on error.
func MustTrajectory(points ...TrajectoryPoint) Trajectory {
	t, err := NewTrajectory(points...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Trajectory) IsEmpty() bool               { return len(t.points) == 0 }
func (t Trajectory) Len() int                    { return len(t.points) }
func (t Trajectory) Point(i int) TrajectoryPoint { return t.points[i] }
func (t Trajectory) Points() []TrajectoryPoint {
	return append([]TrajectoryPoint(nil), t.points...)
}

func (t Trajectory) StartTime() time.Time    { return t.points[0].Time }
func (t Trajectory) FinishTime() time.Time   { return t.points[len(t.points)-1].Time }
func (t Trajectory) Duration() time.Duration { return t.FinishTime().Sub(t.StartTime()) }

// Interpolate returns the location at instant at. The second result is false
// outside the trajectory's time span.
func (t Trajectory) Interpolate(at time.Time) (r2.Vec, bool) {
	if t.IsEmpty() || at.Before(t.StartTime()) || at.After(t.FinishTime()) {
		return r2.Vec{}, false
	}
	for i := 1; i < len(t.points); i++ {
		a, b := t.points[i-1], t.points[i]
		if at.After(b.Time) {
			continue
		}
		span := b.Time.Sub(a.Time)
		if span <= 0 {
			return b.Location, true
		}
		f := float64(at.Sub(a.Time)) / float64(span)
		return r2.Add(a.Location, r2.Scale(f, r2.Sub(b.Location, a.Location))), true
	}
	return t.points[len(t.points)-1].Location, true
}

// MaxSpeed returns the largest segment speed in distance units per second.
func (t Trajectory) MaxSpeed() float64 {
	var v float64
	for i := 1; i < len(t.points); i++ {
		dt := t.points[i].Time.Sub(t.points[i-1].Time).Seconds()
		if dt <= 0 {
			continue
		}
		v = math.Max(v, r2.Norm(r2.Sub(t.points[i].Location, t.points[i-1].Location))/dt)
	}
	return v
}

// SpatialPath returns the locations visited, in order.
func (t Trajectory) SpatialPath() SpatialPath {
	pts := make([]r2.Vec, len(t.points))
	for i, p := range t.points {
		pts[i] = p.Location
	}
	return SpatialPath{points: pts, arcs: cumulative(pts)}
}

// Trace returns the visited locations without consecutive duplicates.
func (t Trajectory) Trace() []r2.Vec {
	return t.SpatialPath().Trace()
}

// Decompose splits the trajectory into its spatial path and its arc-time
// profile relative to the start time.
func (t Trajectory) Decompose() (DecomposedTrajectory, error) {
	if t.IsEmpty() {
		return DecomposedTrajectory{}, fmt.Errorf("%w: %w", ErrInvalidTrajectory, ErrEmptyPath)
	}
	base := t.StartTime()
	spatial := t.SpatialPath()
	pts := make([]r2.Vec, len(t.points))
	for i, p := range t.points {
		pts[i] = r2.Vec{X: spatial.arcs[i], Y: p.Time.Sub(base).Seconds()}
	}
	d := DecomposedTrajectory{
		base:     base,
		spatial:  spatial,
		arcTime:  ArcTimePath{points: pts},
		composed: &composition{},
	}
	d.composed.once.Do(func() { d.composed.traj = t })
	return d, nil
}

func cumulative(pts []r2.Vec) []float64 {
	arcs := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		arcs[i] = arcs[i-1] + r2.Norm(r2.Sub(pts[i], pts[i-1]))
	}
	return arcs
}
