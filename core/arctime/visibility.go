package arctime

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/kilianp07/trajplan/core/geom"
)

// VisibilityChecker answers straight-line visibility queries against the
// union of a set of forbidden regions. It is read-only after construction.
type VisibilityChecker struct {
	pieces []piece
}

type piece struct {
	poly geom.Polygon
	box  r2.Box
}

type span struct{ lo, hi float64 }

// NewVisibilityChecker indexes every piece of every region.
func NewVisibilityChecker(regions []ForbiddenRegion) *VisibilityChecker {
	c := &VisibilityChecker{}
	for _, r := range regions {
		for _, p := range r.Pieces {
			c.pieces = append(c.pieces, piece{poly: p, box: p.Bounds()})
		}
	}
	return c
}

// Len returns the number of indexed pieces.
func (c *VisibilityChecker) Len() int { return len(c.pieces) }

// Corners returns every piece vertex once, in lexicographic order.
func (c *VisibilityChecker) Corners() []r2.Vec {
	var pts []r2.Vec
	for _, p := range c.pieces {
		pts = append(pts, p.poly...)
	}
	return uniqueSorted(pts)
}

// Check reports whether the segment pq avoids the interior of every region.
// Boundaries and corners may be touched. A zero-length segment is blocked as
// soon as it touches any region geometry.
func (c *VisibilityChecker) Check(p, q r2.Vec) bool {
	bounds := geom.BoundsOf(p, q)
	var left, right []span
	for _, pc := range c.pieces {
		if !geom.Overlaps(bounds, pc.box) {
			continue
		}
		if len(pc.poly) == 2 {
			if blocksInterval(p, q, pc.poly[0], pc.poly[1]) {
				return false
			}
			continue
		}
		if p == q {
			if geom.ContainsClosed(pc.poly, p) {
				return false
			}
			continue
		}
		if geom.SegmentCrossesInterior(p, q, pc.poly) {
			return false
		}
		left, right = seams(p, q, pc.poly, left, right)
	}
	for _, l := range left {
		for _, r := range right {
			if math.Min(l.hi, r.hi) > math.Max(l.lo, r.lo) {
				// the segment runs along a seam covered from both sides
				return false
			}
		}
	}
	return true
}

// seams records the stretches where pq runs along an edge of poly, split by
// the side of pq the polygon lies on.
func seams(p, q r2.Vec, poly geom.Polygon, left, right []span) ([]span, []span) {
	dir := r2.Sub(q, p)
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		if geom.Orient(p, q, a) != 0 || geom.Orient(p, q, b) != 0 {
			continue
		}
		s, ok := overlap(p, q, a, b)
		if !ok {
			continue
		}
		// counter-clockwise pieces lie to the left of their edges
		if r2.Dot(r2.Sub(b, a), dir) > 0 {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	return left, right
}

// overlap returns the positive-length overlap of two collinear segments,
// measured along the dominant axis of pq.
func overlap(p, q, a, b r2.Vec) (span, bool) {
	coord := func(v r2.Vec) float64 { return v.X }
	if math.Abs(q.Y-p.Y) > math.Abs(q.X-p.X) {
		coord = func(v r2.Vec) float64 { return v.Y }
	}
	lo := math.Max(math.Min(coord(p), coord(q)), math.Min(coord(a), coord(b)))
	hi := math.Min(math.Max(coord(p), coord(q)), math.Max(coord(a), coord(b)))
	return span{lo: lo, hi: hi}, lo < hi
}

// blocksInterval reports whether pq meets the open time interval ab, or, for
// a zero-length segment, its closure.
func blocksInterval(p, q, a, b r2.Vec) bool {
	if p == q {
		return geom.OnSegment(p, a, b)
	}
	if geom.Orient(p, q, a) == 0 && geom.Orient(p, q, b) == 0 {
		_, ok := overlap(p, q, a, b)
		return ok
	}
	return geom.SegmentsIntersect(p, q, a, b) && !geom.OnSegment(a, p, q) && !geom.OnSegment(b, p, q)
}
