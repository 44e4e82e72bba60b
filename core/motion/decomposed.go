package motion

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// arcSlack absorbs rounding when an arc-time profile ends on the path length.
const arcSlack = 1e-9

// DecomposedTrajectory is a trajectory held as a base time, a spatial path
// and an arc-time profile along it. The composed form is computed on first
// use and shared by copies.
type DecomposedTrajectory struct {
	base     time.Time
	spatial  SpatialPath
	arcTime  ArcTimePath
	composed *composition
}

type composition struct {
	once sync.Once
	traj Trajectory
	err  error
}

// NewDecomposedTrajectory checks that the profile stays on the path.
func NewDecomposedTrajectory(base time.Time, spatial SpatialPath, arcTime ArcTimePath) (DecomposedTrajectory, error) {
	if spatial.IsEmpty() || arcTime.IsEmpty() {
		return DecomposedTrajectory{}, ErrEmptyPath
	}
	length := spatial.Length()
	slack := arcSlack * math.Max(1, length)
	if arcTime.Start().X < -slack || arcTime.Finish().X > length+slack {
		return DecomposedTrajectory{}, fmt.Errorf("%w: arc range [%g, %g] exceeds path length %g",
			ErrInvalidPath, arcTime.Start().X, arcTime.Finish().X, length)
	}
	return DecomposedTrajectory{
		base:     base,
		spatial:  spatial,
		arcTime:  arcTime,
		composed: &composition{},
	}, nil
}

func (d DecomposedTrajectory) IsZero() bool             { return d.composed == nil }
func (d DecomposedTrajectory) BaseTime() time.Time      { return d.base }
func (d DecomposedTrajectory) SpatialPath() SpatialPath { return d.spatial }
func (d DecomposedTrajectory) ArcTimePath() ArcTimePath { return d.arcTime }

func (d DecomposedTrajectory) StartTime() time.Time {
	return d.base.Add(Duration(d.arcTime.StartTime()))
}

func (d DecomposedTrajectory) FinishTime() time.Time {
	return d.base.Add(Duration(d.arcTime.FinishTime()))
}

// Composed returns the absolute trajectory. Every spatial vertex passed by
// the profile becomes a trajectory point, as does every profile breakpoint.
func (d DecomposedTrajectory) Composed() Trajectory {
	traj, _ := d.Compose()
	return traj
}

// Compose is Composed with the construction error exposed.
func (d DecomposedTrajectory) Compose() (Trajectory, error) {
	if d.composed == nil {
		return Trajectory{}, ErrEmptyPath
	}
	d.composed.once.Do(func() {
		d.composed.traj, d.composed.err = d.compose()
	})
	return d.composed.traj, d.composed.err
}

func (d DecomposedTrajectory) compose() (Trajectory, error) {
	pts := d.arcTime.points
	out := make([]TrajectoryPoint, 0, len(pts)+d.spatial.Len())
	add := func(arc, sec float64) {
		p := TrajectoryPoint{Location: d.spatial.Interpolate(arc), Time: d.base.Add(Duration(sec))}
		if n := len(out); n > 0 {
			last := out[n-1]
			if last.Time.Equal(p.Time) {
				// sub-nanosecond steps collapse onto the later location
				out[n-1].Location = p.Location
				return
			}
		}
		out = append(out, p)
	}
	add(pts[0].X, pts[0].Y)
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		if b.X > a.X {
			for j, arc := range d.spatial.arcs {
				if arc <= a.X || arc >= b.X || (j > 0 && d.spatial.arcs[j-1] == arc) {
					continue
				}
				add(arc, a.Y+(arc-a.X)/(b.X-a.X)*(b.Y-a.Y))
			}
		}
		add(b.X, b.Y)
	}
	return NewTrajectory(out...)
}
