package geom

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// HalfPlane is the closed set of points v with N·v >= C.
type HalfPlane struct {
	N r2.Vec
	C float64
}

// MinX keeps points with X >= x.
func MinX(x float64) HalfPlane { return HalfPlane{N: r2.Vec{X: 1}, C: x} }

// MaxX keeps points with X <= x.
func MaxX(x float64) HalfPlane { return HalfPlane{N: r2.Vec{X: -1}, C: -x} }

// MinY keeps points with Y >= y.
func MinY(y float64) HalfPlane { return HalfPlane{N: r2.Vec{Y: 1}, C: y} }

// MaxY keeps points with Y <= y.
func MaxY(y float64) HalfPlane { return HalfPlane{N: r2.Vec{Y: -1}, C: -y} }

// BoxPlanes returns the four half-planes bounding b.
func BoxPlanes(b r2.Box) []HalfPlane {
	return []HalfPlane{MinX(b.Min.X), MaxX(b.Max.X), MinY(b.Min.Y), MaxY(b.Max.Y)}
}

func (h HalfPlane) eval(v r2.Vec) float64 {
	switch {
	case h.N.Y == 0:
		return h.N.X*v.X - h.C
	case h.N.X == 0:
		return h.N.Y*v.Y - h.C
	}
	return h.N.X*v.X + h.N.Y*v.Y - h.C
}

// cut returns the intersection of edge ab with the boundary of h. The edge is
// ordered before interpolating so both polygons sharing the edge get the same
// point; axis-aligned boundaries get the cut coordinate exactly.
func (h HalfPlane) cut(a, b r2.Vec, da, db float64) r2.Vec {
	if Less(b, a) {
		a, b = b, a
		da, db = db, da
	}
	t := da / (da - db)
	p := r2.Vec{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)}
	switch {
	case h.N.Y == 0:
		p.X = h.C / h.N.X
	case h.N.X == 0:
		p.Y = h.C / h.N.Y
	}
	if a.X == b.X {
		p.X = a.X
	}
	if a.Y == b.Y {
		p.Y = a.Y
	}
	return p
}

// ClipConvex intersects the convex polygon with every half-plane. It returns
// nil when the result has an empty interior.
func ClipConvex(poly Polygon, planes ...HalfPlane) Polygon {
	out := poly
	for _, h := range planes {
		out = clipOne(out, h)
		if out == nil {
			return nil
		}
	}
	return out
}

func clipOne(poly Polygon, h HalfPlane) Polygon {
	n := len(poly)
	out := make(Polygon, 0, n+1)
	for i := 0; i < n; i++ {
		cur, next := poly[i], poly[(i+1)%n]
		dc, dn := h.eval(cur), h.eval(next)
		if dc >= 0 {
			out = append(out, cur)
		}
		if (dc > 0 && dn < 0) || (dc < 0 && dn > 0) {
			out = append(out, h.cut(cur, next, dc, dn))
		}
	}
	return normalize(out)
}

// normalize drops repeated vertices and returns nil for rings without an
// interior.
func normalize(p Polygon) Polygon {
	out := make(Polygon, 0, len(p))
	for _, v := range p {
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	if len(out) < 3 {
		return nil
	}
	for i := range out {
		if Orient(out[i], out[(i+1)%len(out)], out[(i+2)%len(out)]) != 0 {
			return out
		}
	}
	return nil
}

// ConvexHull returns the counter-clockwise convex hull of the points with
// collinear points removed. Fewer than three distinct non-collinear points
// yield nil.
func ConvexHull(pts []r2.Vec) Polygon {
	ps := append([]r2.Vec(nil), pts...)
	sort.Slice(ps, func(i, j int) bool { return Less(ps[i], ps[j]) })
	uniq := ps[:0]
	for i, v := range ps {
		if i == 0 || v != ps[i-1] {
			uniq = append(uniq, v)
		}
	}
	ps = uniq
	if len(ps) < 3 {
		return nil
	}
	hull := make(Polygon, 0, 2*len(ps))
	for _, v := range ps {
		for len(hull) >= 2 && Orient(hull[len(hull)-2], hull[len(hull)-1], v) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, v)
	}
	lower := len(hull) + 1
	for i := len(ps) - 2; i >= 0; i-- {
		v := ps[i]
		for len(hull) >= lower && Orient(hull[len(hull)-2], hull[len(hull)-1], v) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, v)
	}
	hull = hull[:len(hull)-1]
	if len(hull) < 3 {
		return nil
	}
	return hull
}

// MinkowskiSum returns the sum of two convex polygons.
func MinkowskiSum(a, b Polygon) Polygon {
	pts := make([]r2.Vec, 0, len(a)*len(b))
	for _, u := range a {
		for _, v := range b {
			pts = append(pts, r2.Add(u, v))
		}
	}
	return ConvexHull(pts)
}
