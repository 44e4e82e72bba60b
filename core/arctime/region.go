// Package arctime maps moving obstacles into the arc-time plane of a fixed
// route and searches that plane for collision-free velocity profiles.
package arctime

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/kilianp07/trajplan/core/geom"
	"github.com/kilianp07/trajplan/core/motion"
)

// snapTol is the relative distance under which piece coordinates are merged
// so that seams between neighbouring pieces coincide.
const snapTol = 1e-12

// Window restricts region construction to obstacle motion overlapping
// [From, To] seconds after the base time.
type Window struct {
	From, To float64
}

// ForbiddenRegion holds the arc-time points at which the mover is inside one
// obstacle. Pieces are counter-clockwise convex polygons; a two-vertex piece
// is the time interval {arc} x (t0, t1) of a mover held at that arc, used
// for stationary movers and for the two ends of a path.
type ForbiddenRegion struct {
	Index    int
	Obstacle motion.DynamicObstacle
	Pieces   []geom.Polygon
}

func (r ForbiddenRegion) IsEmpty() bool { return len(r.Pieces) == 0 }

// Vertices returns the distinct piece vertices in lexicographic order.
func (r ForbiddenRegion) Vertices() []r2.Vec {
	var pts []r2.Vec
	for _, p := range r.Pieces {
		pts = append(pts, p...)
	}
	return uniqueSorted(pts)
}

func (r ForbiddenRegion) Bounds() r2.Box {
	var pts []r2.Vec
	for _, p := range r.Pieces {
		pts = append(pts, p...)
	}
	return geom.BoundsOf(pts...)
}

// Area sums the piece areas.
func (r ForbiddenRegion) Area() float64 {
	var a float64
	for _, p := range r.Pieces {
		if len(p) > 2 {
			a += p.Area()
		}
	}
	return a
}

// Contains reports whether v is a colliding state: inside a piece, on an
// open time interval, or on a seam with pieces on both sides.
func (r ForbiddenRegion) Contains(v r2.Vec) bool {
	var dirs []r2.Vec
	for _, p := range r.Pieces {
		if len(p) == 2 {
			if geom.OnSegment(v, p[0], p[1]) && v != p[0] && v != p[1] {
				return true
			}
			continue
		}
		if geom.ContainsOpen(p, v) {
			return true
		}
		for i := range p {
			a, b := p[i], p[(i+1)%len(p)]
			if v == a || v == b || !geom.OnSegment(v, a, b) {
				continue
			}
			d := r2.Sub(b, a)
			for _, o := range dirs {
				if geom.Orient(r2.Vec{}, o, d) == 0 && r2.Dot(o, d) < 0 {
					return true
				}
			}
			dirs = append(dirs, d)
		}
	}
	return false
}

// RegionBuilder computes forbidden regions along a path whose arc length is
// measured from its first point and whose time is measured from BaseTime.
type RegionBuilder struct {
	BaseTime time.Time
	Path     motion.SpatialPath
	Window   *Window
}

// Build returns one region per obstacle, in input order. It only fails on
// malformed input.
func (b RegionBuilder) Build(obstacles []motion.DynamicObstacle) ([]ForbiddenRegion, error) {
	if b.Path.IsEmpty() {
		return nil, motion.ErrEmptyPath
	}
	regions := make([]ForbiddenRegion, len(obstacles))
	for i, o := range obstacles {
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("obstacle %d: %w", i, err)
		}
		regions[i] = ForbiddenRegion{Index: i, Obstacle: o, Pieces: b.pieces(o)}
	}
	snap(regions)
	return regions, nil
}

func (b RegionBuilder) pieces(o motion.DynamicObstacle) []geom.Polygon {
	parts := o.Shape.ConvexParts()
	traj := o.Trajectory
	stationary := b.Path.Length() == 0
	var out []geom.Polygon
	for j := 1; j < traj.Len(); j++ {
		p0, p1 := traj.Point(j-1), traj.Point(j)
		t0 := p0.Time.Sub(b.BaseTime).Seconds()
		t1 := p1.Time.Sub(b.BaseTime).Seconds()
		if t1 <= t0 {
			continue
		}
		if b.Window != nil && (t1 <= b.Window.From || t0 >= b.Window.To) {
			continue
		}
		w := r2.Scale(1/(t1-t0), r2.Sub(p1.Location, p0.Location))
		out = append(out, intervalPieces(b.Path.Start(), 0, p0.Location, w, t0, t1, parts)...)
		if stationary {
			continue
		}
		// a mover parked at either end of the path is exposed along the
		// region's clipped edge, which visibility would otherwise treat as
		// touchable boundary
		out = append(out, intervalPieces(b.Path.Finish(), b.Path.Length(), p0.Location, w, t0, t1, parts)...)
		for i := 0; i < b.Path.NumSegments(); i++ {
			seg := b.Path.Segment(i)
			if seg.Length() == 0 {
				continue
			}
			out = append(out, pairPieces(seg, p0.Location, w, t0, t1, parts)...)
		}
	}
	return out
}

// pairPieces maps one path segment against one obstacle segment. With u the
// mover direction and w the obstacle velocity, the mover sits at
// c + σu - τw relative to the obstacle, σ and τ being the local arc and time.
func pairPieces(seg motion.Segment, o0, w r2.Vec, t0, t1 float64, parts []geom.Polygon) []geom.Polygon {
	s0, s1 := seg.StartArc, seg.FinishArc
	u := r2.Scale(1/seg.Length(), r2.Sub(seg.To, seg.From))
	c := r2.Sub(seg.From, o0)
	rect := r2.Box{Min: r2.Vec{X: s0, Y: t0}, Max: r2.Vec{X: s1, Y: t1}}
	det := r2.Cross(u, w)

	var out []geom.Polygon
	for _, part := range parts {
		var piece geom.Polygon
		if det != 0 {
			pre := make(geom.Polygon, len(part))
			for k, q := range part {
				r := r2.Sub(q, c)
				pre[k] = r2.Vec{X: s0 + r2.Cross(r, w)/det, Y: t0 + r2.Cross(r, u)/det}
			}
			piece = geom.ClipConvex(pre.CCW(), geom.BoxPlanes(rect)...)
		} else {
			// parallel or stationary obstacle: collision depends on σ - kτ only
			lo, hi, ok := lineInterval(part, c, u)
			if !ok {
				continue
			}
			k := r2.Dot(w, u)
			shift := s0 - k*t0
			piece = geom.ClipConvex(geom.Rect(s0, t0, s1, t1),
				geom.HalfPlane{N: r2.Vec{X: 1, Y: -k}, C: lo + shift},
				geom.HalfPlane{N: r2.Vec{X: -1, Y: k}, C: -(hi + shift)},
			)
		}
		if piece != nil {
			out = append(out, piece)
		}
	}
	return out
}

// intervalPieces returns the times at which a mover held at p, which sits
// at the given arc, is inside the obstacle.
func intervalPieces(p r2.Vec, arc float64, o0, w r2.Vec, t0, t1 float64, parts []geom.Polygon) []geom.Polygon {
	c := r2.Sub(p, o0)
	var out []geom.Polygon
	for _, part := range parts {
		lo, hi, ok := lineInterval(part, c, r2.Scale(-1, w))
		if !ok {
			continue
		}
		lo, hi = math.Max(lo, 0), math.Min(hi, t1-t0)
		if lo >= hi {
			continue
		}
		out = append(out, geom.Polygon{{X: arc, Y: t0 + lo}, {X: arc, Y: t0 + hi}})
	}
	return out
}

// lineInterval returns the open parameter interval over which c + λd lies in
// the interior of the convex polygon.
func lineInterval(poly geom.Polygon, c, d r2.Vec) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(-1), math.Inf(1)
	n := len(poly)
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		e := r2.Sub(b, a)
		k0 := r2.Cross(e, r2.Sub(c, a))
		k1 := r2.Cross(e, d)
		switch {
		case k1 > 0:
			lo = math.Max(lo, -k0/k1)
		case k1 < 0:
			hi = math.Min(hi, -k0/k1)
		default:
			if geom.Orient(a, b, c) <= 0 {
				return 0, 0, false
			}
		}
	}
	return lo, hi, lo < hi
}

// snap merges nearly equal coordinates across all pieces.
func snap(regions []ForbiddenRegion) {
	var xs, ys []float64
	for _, r := range regions {
		for _, p := range r.Pieces {
			for _, v := range p {
				xs = append(xs, v.X)
				ys = append(ys, v.Y)
			}
		}
	}
	mx, my := clusters(xs), clusters(ys)
	for i := range regions {
		pieces := regions[i].Pieces[:0]
		for _, p := range regions[i].Pieces {
			q := make(geom.Polygon, 0, len(p))
			for _, v := range p {
				s := r2.Vec{X: mx[v.X], Y: my[v.Y]}
				if len(q) > 0 && q[len(q)-1] == s {
					continue
				}
				q = append(q, s)
			}
			for len(q) > 1 && q[0] == q[len(q)-1] {
				q = q[:len(q)-1]
			}
			if len(p) == 2 && len(q) == 2 || len(q) >= 3 {
				pieces = append(pieces, q)
			}
		}
		regions[i].Pieces = pieces
	}
}

func clusters(vals []float64) map[float64]float64 {
	sort.Float64s(vals)
	m := make(map[float64]float64, len(vals))
	var rep float64
	for i, v := range vals {
		if i == 0 || v-rep > snapTol*math.Max(1, math.Max(math.Abs(v), math.Abs(rep))) {
			rep = v
		}
		m[v] = rep
	}
	return m
}

func uniqueSorted(pts []r2.Vec) []r2.Vec {
	sort.Slice(pts, func(i, j int) bool { return geom.Less(pts[i], pts[j]) })
	out := pts[:0]
	for i, v := range pts {
		if i == 0 || v != pts[i-1] {
			out = append(out, v)
		}
	}
	return out
}
