package motion

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// ArcTimePath is a velocity profile along a SpatialPath. X is the arc length
// and Y the time in seconds relative to a base time. Both coordinates are
// non-decreasing and the arc only advances while time does.
type ArcTimePath struct {
	points []r2.Vec
}

// NewArcTimePath copies the points into a new profile.
func NewArcTimePath(points ...r2.Vec) (ArcTimePath, error) {
	if len(points) == 0 {
		return ArcTimePath{}, ErrEmptyPath
	}
	for i, v := range points {
		if !finite(v.X) || !finite(v.Y) {
			return ArcTimePath{}, fmt.Errorf("%w: point %d is not finite", ErrInvalidPath, i)
		}
		if i == 0 {
			continue
		}
		prev := points[i-1]
		if v.X < prev.X || v.Y < prev.Y {
			return ArcTimePath{}, fmt.Errorf("%w: point %d goes backwards", ErrInvalidPath, i)
		}
		if v.Y == prev.Y && v.X != prev.X {
			return ArcTimePath{}, fmt.Errorf("%w: point %d moves without time passing", ErrInvalidPath, i)
		}
	}
	return ArcTimePath{points: append([]r2.Vec(nil), points...)}, nil
}

func (p ArcTimePath) IsEmpty() bool      { return len(p.points) == 0 }
func (p ArcTimePath) Len() int           { return len(p.points) }
func (p ArcTimePath) Point(i int) r2.Vec { return p.points[i] }
func (p ArcTimePath) Points() []r2.Vec   { return append([]r2.Vec(nil), p.points...) }
func (p ArcTimePath) Start() r2.Vec      { return p.points[0] }
func (p ArcTimePath) Finish() r2.Vec     { return p.points[len(p.points)-1] }

// StartTime returns the first time offset in seconds.
func (p ArcTimePath) StartTime() float64 { return p.points[0].Y }

// FinishTime returns the last time offset in seconds.
func (p ArcTimePath) FinishTime() float64 { return p.points[len(p.points)-1].Y }

// MaxVelocity returns the largest arc speed over all segments.
func (p ArcTimePath) MaxVelocity() float64 {
	var v float64
	for i := 1; i < len(p.points); i++ {
		ds := p.points[i].X - p.points[i-1].X
		dt := p.points[i].Y - p.points[i-1].Y
		if dt > 0 {
			v = math.Max(v, ds/dt)
		}
	}
	return v
}

// Seconds converts a duration to floating seconds.
func Seconds(d time.Duration) float64 { return d.Seconds() }

// Duration converts floating seconds to the nearest duration.
func Duration(sec float64) time.Duration {
	return time.Duration(math.Round(sec * float64(time.Second)))
}
