package geom

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrInvalidShape is returned when a polygon cannot be used as an obstacle
// or region shape.
var ErrInvalidShape = errors.New("invalid shape")

// Shape is implemented by every obstacle geometry kind. Algorithms only
// consume the convex decomposition.
type Shape interface {
	// ConvexParts returns counter-clockwise convex polygons whose union is
	// the shape.
	ConvexParts() []Polygon
	Bounds() r2.Box
	Validate() error
}

// Polygon is a simple ring of vertices. The closing vertex is not repeated.
type Polygon []r2.Vec

// Rect returns the counter-clockwise rectangle spanning the two corners.
func Rect(minX, minY, maxX, maxY float64) Polygon {
	return Polygon{{X: minX, Y: minY}, {X: maxX, Y: minY}, {X: maxX, Y: maxY}, {X: minX, Y: maxY}}
}

// Square returns an axis-aligned square of the given side centred on c.
func Square(c r2.Vec, side float64) Polygon {
	h := side / 2
	return Rect(c.X-h, c.Y-h, c.X+h, c.Y+h)
}

// SignedArea is positive for counter-clockwise rings.
func (p Polygon) SignedArea() float64 {
	var sum float64
	for i := range p {
		a, b := p[i], p[(i+1)%len(p)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

func (p Polygon) Area() float64 { return math.Abs(p.SignedArea()) }

// CCW returns p in counter-clockwise order, copying only when a reversal is needed.
func (p Polygon) CCW() Polygon {
	if p.SignedArea() >= 0 {
		return p
	}
	out := make(Polygon, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (p Polygon) Bounds() r2.Box {
	return BoundsOf(p...)
}

// BoundsOf returns the bounding box of the points. Degenerate boxes are kept
// as is, unlike r2.Box.Union which drops zero-volume boxes.
func BoundsOf(pts ...r2.Vec) r2.Box {
	if len(pts) == 0 {
		return r2.Box{}
	}
	b := r2.Box{Min: pts[0], Max: pts[0]}
	for _, v := range pts[1:] {
		b.Min.X = math.Min(b.Min.X, v.X)
		b.Min.Y = math.Min(b.Min.Y, v.Y)
		b.Max.X = math.Max(b.Max.X, v.X)
		b.Max.Y = math.Max(b.Max.Y, v.Y)
	}
	return b
}

// Overlaps reports whether two closed boxes share a point.
func Overlaps(a, b r2.Box) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X && a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}

func (p Polygon) Translate(d r2.Vec) Polygon {
	out := make(Polygon, len(p))
	for i, v := range p {
		out[i] = r2.Add(v, d)
	}
	return out
}

// Reflect returns the point reflection of p through the origin. Orientation
// is preserved.
func (p Polygon) Reflect() Polygon {
	out := make(Polygon, len(p))
	for i, v := range p {
		out[i] = r2.Vec{X: -v.X, Y: -v.Y}
	}
	return out
}

// IsConvex reports whether a simple polygon is convex. Collinear vertices are
// allowed.
func (p Polygon) IsConvex() bool {
	n := len(p)
	if n < 3 {
		return false
	}
	var pos, neg bool
	for i := range p {
		switch Orient(p[i], p[(i+1)%n], p[(i+2)%n]) {
		case 1:
			pos = true
		case -1:
			neg = true
		}
	}
	return pos != neg
}

// Validate checks that p is a simple polygon with finite coordinates and a
// non-empty interior.
func (p Polygon) Validate() error {
	n := len(p)
	if n < 3 {
		return fmt.Errorf("%w: polygon needs at least 3 vertices, got %d", ErrInvalidShape, n)
	}
	for i, v := range p {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			return fmt.Errorf("%w: vertex %d is not finite", ErrInvalidShape, i)
		}
		if v == p[(i+1)%n] {
			return fmt.Errorf("%w: vertex %d repeats", ErrInvalidShape, i)
		}
	}
	collinear := true
	for i := range p {
		a, b, c := p[i], p[(i+1)%n], p[(i+2)%n]
		if Orient(a, b, c) != 0 {
			collinear = false
			continue
		}
		// the ring folds back on itself at b
		if r2.Dot(r2.Sub(b, a), r2.Sub(c, b)) < 0 {
			return fmt.Errorf("%w: edges at vertex %d overlap", ErrInvalidShape, (i+1)%n)
		}
	}
	if collinear {
		return fmt.Errorf("%w: polygon has no interior", ErrInvalidShape)
	}
	for i := 0; i < n; i++ {
		a, b := p[i], p[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if SegmentsIntersect(a, b, p[j], p[(j+1)%n]) {
				return fmt.Errorf("%w: edges %d and %d intersect", ErrInvalidShape, i, j)
			}
		}
	}
	return nil
}

// ConvexParts returns p itself when convex and an ear-clipping triangulation
// otherwise.
func (p Polygon) ConvexParts() []Polygon {
	ccw := p.CCW()
	if ccw.IsConvex() {
		return []Polygon{ccw}
	}
	return triangulate(ccw)
}

// ContainsOpen reports whether q lies in the interior of the counter-clockwise
// convex polygon c.
func ContainsOpen(c Polygon, q r2.Vec) bool {
	for i := range c {
		if Orient(c[i], c[(i+1)%len(c)], q) <= 0 {
			return false
		}
	}
	return len(c) >= 3
}

// ContainsClosed reports whether q lies in the counter-clockwise convex
// polygon c or on its boundary.
func ContainsClosed(c Polygon, q r2.Vec) bool {
	for i := range c {
		if Orient(c[i], c[(i+1)%len(c)], q) < 0 {
			return false
		}
	}
	return len(c) >= 3
}

// OnBoundary reports whether q lies on an edge of c.
func OnBoundary(c Polygon, q r2.Vec) bool {
	for i := range c {
		if OnSegment(q, c[i], c[(i+1)%len(c)]) {
			return true
		}
	}
	return false
}

func triangulate(p Polygon) []Polygon {
	ring := append(Polygon(nil), p...)
	var out []Polygon
	for len(ring) > 3 {
		n := len(ring)
		clipped := false
		for i := 0; i < n; i++ {
			prev, cur, next := ring[(i+n-1)%n], ring[i], ring[(i+1)%n]
			o := Orient(prev, cur, next)
			if o == 0 {
				ring = append(ring[:i], ring[i+1:]...)
				clipped = true
				break
			}
			if o < 0 {
				continue
			}
			tri := Polygon{prev, cur, next}
			ear := true
			for j, v := range ring {
				if j == i || j == (i+n-1)%n || j == (i+1)%n {
					continue
				}
				if v == prev || v == cur || v == next {
					continue
				}
				if ContainsClosed(tri, v) {
					ear = false
					break
				}
			}
			if !ear {
				continue
			}
			out = append(out, tri)
			ring = append(ring[:i], ring[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			break
		}
	}
	if len(ring) == 3 && Orient(ring[0], ring[1], ring[2]) > 0 {
		out = append(out, ring)
	}
	return out
}

// MultiPolygon is a union of polygons. Parts may overlap.
type MultiPolygon []Polygon

func (m MultiPolygon) ConvexParts() []Polygon {
	var out []Polygon
	for _, p := range m {
		out = append(out, p.ConvexParts()...)
	}
	return out
}

func (m MultiPolygon) Bounds() r2.Box {
	var pts []r2.Vec
	for _, p := range m {
		pts = append(pts, p...)
	}
	return BoundsOf(pts...)
}

func (m MultiPolygon) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("%w: empty multipolygon", ErrInvalidShape)
	}
	for i, p := range m {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
	}
	return nil
}
