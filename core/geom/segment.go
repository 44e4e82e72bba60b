package geom

import "gonum.org/v1/gonum/spatial/r2"

// SegmentCrossesInterior reports whether the closed segment pq meets the
// interior of the counter-clockwise convex polygon c. Touching the boundary
// is not a crossing. A zero-length segment crosses when its point is interior.
func SegmentCrossesInterior(p, q r2.Vec, c Polygon) bool {
	n := len(c)
	if n < 3 {
		return false
	}
	if p == q {
		return ContainsOpen(c, p)
	}
	// an edge line with the whole segment on its outer side separates them
	for i := 0; i < n; i++ {
		a, b := c[i], c[(i+1)%n]
		if Orient(a, b, p) <= 0 && Orient(a, b, q) <= 0 {
			return false
		}
	}
	// so does the segment's own line when the polygon sits on one side of it
	var left, right bool
	for _, v := range c {
		switch Orient(p, q, v) {
		case 1:
			left = true
		case -1:
			right = true
		}
		if left && right {
			return true
		}
	}
	return false
}
