package motion

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// SpatialPath is an immutable polyline parameterised by arc length.
type SpatialPath struct {
	points []r2.Vec
	arcs   []float64
}

// Segment is one straight piece of a SpatialPath.
type Segment struct {
	From, To            r2.Vec
	StartArc, FinishArc float64
}

// Length returns the arc length covered by the segment.
func (s Segment) Length() float64 { return s.FinishArc - s.StartArc }

// NewSpatialPath copies the points into a new path.
func NewSpatialPath(points ...r2.Vec) (SpatialPath, error) {
	if len(points) == 0 {
		return SpatialPath{}, ErrEmptyPath
	}
	for i, v := range points {
		if !finite(v.X) || !finite(v.Y) {
			return SpatialPath{}, fmt.Errorf("%w: point %d is not finite", ErrInvalidPath, i)
		}
	}
	pts := append([]r2.Vec(nil), points...)
	return SpatialPath{points: pts, arcs: cumulative(pts)}, nil
}

// MustSpatialPath is like NewSpatialPath but panics on error.
func MustSpatialPath(points ...r2.Vec) SpatialPath {
	p, err := NewSpatialPath(points...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p SpatialPath) IsEmpty() bool { return len(p.points) == 0 }
func (p SpatialPath) Len() int      { return len(p.points) }

func (p SpatialPath) Point(i int) r2.Vec { return p.points[i] }
func (p SpatialPath) Arc(i int) float64  { return p.arcs[i] }
func (p SpatialPath) Points() []r2.Vec   { return append([]r2.Vec(nil), p.points...) }
func (p SpatialPath) Arcs() []float64    { return append([]float64(nil), p.arcs...) }
func (p SpatialPath) Start() r2.Vec      { return p.points[0] }
func (p SpatialPath) Finish() r2.Vec     { return p.points[len(p.points)-1] }
func (p SpatialPath) NumSegments() int   { return max(len(p.points)-1, 0) }
func (p SpatialPath) Segment(i int) Segment {
	return Segment{From: p.points[i], To: p.points[i+1], StartArc: p.arcs[i], FinishArc: p.arcs[i+1]}
}

// Length returns the total arc length.
func (p SpatialPath) Length() float64 {
	if len(p.arcs) == 0 {
		return 0
	}
	return p.arcs[len(p.arcs)-1]
}

// Interpolate returns the location at the given arc length, clamped to the
// path ends.
func (p SpatialPath) Interpolate(arc float64) r2.Vec {
	n := len(p.points)
	if arc <= 0 || n == 1 {
		return p.points[0]
	}
	if arc >= p.arcs[n-1] {
		return p.points[n-1]
	}
	i := sort.SearchFloat64s(p.arcs, arc)
	if p.arcs[i] == arc {
		return p.points[i]
	}
	a, b := p.points[i-1], p.points[i]
	f := (arc - p.arcs[i-1]) / (p.arcs[i] - p.arcs[i-1])
	return r2.Add(a, r2.Scale(f, r2.Sub(b, a)))
}

// SubPath returns the part of the path between two arc lengths.
func (p SpatialPath) SubPath(from, to float64) (SpatialPath, error) {
	if p.IsEmpty() {
		return SpatialPath{}, ErrEmptyPath
	}
	if from > to || from < 0 || to > p.Length() {
		return SpatialPath{}, fmt.Errorf("%w: arc interval [%g, %g] outside [0, %g]", ErrInvalidPath, from, to, p.Length())
	}
	pts := []r2.Vec{p.Interpolate(from)}
	for i, a := range p.arcs {
		if a > from && a < to {
			pts = append(pts, p.points[i])
		}
	}
	if to > from {
		pts = append(pts, p.Interpolate(to))
	}
	return NewSpatialPath(pts...)
}

// Trace returns the points with consecutive duplicates removed.
func (p SpatialPath) Trace() []r2.Vec {
	return dedupe(p.points)
}

func dedupe(pts []r2.Vec) []r2.Vec {
	out := make([]r2.Vec, 0, len(pts))
	for _, v := range pts {
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}
	return out
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
