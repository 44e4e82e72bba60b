package geom

import (
	"math"
	"math/big"

	"gonum.org/v1/gonum/spatial/r2"
)

const epsilon = 1.1102230246251565e-16 // 2^-53

// ccwErrBound bounds the rounding error of the floating-point determinant.
var ccwErrBound = (3 + 16*epsilon) * epsilon

// Orient returns the sign of the orientation determinant of c relative to the
// directed line a->b: +1 when c lies to the left, -1 to the right and 0 when
// the three points are collinear. The result is exact.
func Orient(a, b, c r2.Vec) int {
	detLeft := (a.X - c.X) * (b.Y - c.Y)
	detRight := (a.Y - c.Y) * (b.X - c.X)
	det := detLeft - detRight

	var detSum float64
	switch {
	case detLeft > 0:
		if detRight <= 0 {
			return sign(det)
		}
		detSum = detLeft + detRight
	case detLeft < 0:
		if detRight >= 0 {
			return sign(det)
		}
		detSum = -detLeft - detRight
	default:
		if a.X == c.X || b.Y == c.Y {
			return -sign(a.Y-c.Y) * sign(b.X-c.X)
		}
		return orientExact(a, b, c)
	}
	if math.Abs(det) >= ccwErrBound*detSum {
		return sign(det)
	}
	return orientExact(a, b, c)
}

func orientExact(a, b, c r2.Vec) int {
	rat := func(f float64) *big.Rat { return new(big.Rat).SetFloat64(f) }
	cx, cy := rat(c.X), rat(c.Y)
	acx := new(big.Rat).Sub(rat(a.X), cx)
	acy := new(big.Rat).Sub(rat(a.Y), cy)
	bcx := new(big.Rat).Sub(rat(b.X), cx)
	bcy := new(big.Rat).Sub(rat(b.Y), cy)
	left := new(big.Rat).Mul(acx, bcy)
	right := new(big.Rat).Mul(acy, bcx)
	return left.Cmp(right)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Less orders points lexicographically by X then Y.
func Less(a, b r2.Vec) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// OnSegment reports whether p lies on the closed segment ab.
func OnSegment(p, a, b r2.Vec) bool {
	if Orient(a, b, p) != 0 {
		return false
	}
	return within(p, a, b)
}

// within reports whether p lies in the bounding box of a and b. Only
// meaningful for collinear points.
func within(p, a, b r2.Vec) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// SegmentsIntersect reports whether the closed segments ab and cd share a point.
func SegmentsIntersect(a, b, c, d r2.Vec) bool {
	o1 := Orient(a, b, c)
	o2 := Orient(a, b, d)
	o3 := Orient(c, d, a)
	o4 := Orient(c, d, b)
	if o1*o2 < 0 && o3*o4 < 0 {
		return true
	}
	return (o1 == 0 && within(c, a, b)) ||
		(o2 == 0 && within(d, a, b)) ||
		(o3 == 0 && within(a, c, d)) ||
		(o4 == 0 && within(b, c, d))
}

// SegmentsCross reports whether ab and cd intersect in a single point that is
// interior to both segments.
func SegmentsCross(a, b, c, d r2.Vec) bool {
	return Orient(a, b, c)*Orient(a, b, d) < 0 && Orient(c, d, a)*Orient(c, d, b) < 0
}
