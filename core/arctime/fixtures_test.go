package arctime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/kilianp07/trajplan/core/geom"
	"github.com/kilianp07/trajplan/core/motion"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type waypoint struct {
	x, y, t float64
}

func trajectory(t *testing.T, wps ...waypoint) motion.Trajectory {
	t.Helper()
	pts := make([]motion.TrajectoryPoint, len(wps))
	for i, w := range wps {
		pts[i] = motion.TrajectoryPoint{Location: r2.Vec{X: w.x, Y: w.y}, Time: epoch.Add(motion.Duration(w.t))}
	}
	tr, err := motion.NewTrajectory(pts...)
	require.NoError(t, err)
	return tr
}

func unitObstacle(t *testing.T, wps ...waypoint) motion.DynamicObstacle {
	t.Helper()
	o, err := motion.NewDynamicObstacle(geom.Square(r2.Vec{}, 1), trajectory(t, wps...))
	require.NoError(t, err)
	return o
}

// uTurn is the route (1,4) -> (4,4) -> (4,1) -> (1,1).
func uTurn() motion.SpatialPath {
	return motion.MustSpatialPath(r2.Vec{X: 1, Y: 4}, r2.Vec{X: 4, Y: 4}, r2.Vec{X: 4, Y: 1}, r2.Vec{X: 1, Y: 1})
}

// crossing is a unit square descending across the U-turn, pausing in between.
func crossing(t *testing.T) motion.DynamicObstacle {
	return unitObstacle(t,
		waypoint{2.5, 5.5, 0}, waypoint{2.5, 2.5, 3}, waypoint{2.5, 2.5, 7}, waypoint{2.5, -0.5, 10})
}

func buildRegions(t *testing.T, path motion.SpatialPath, obstacles ...motion.DynamicObstacle) []ForbiddenRegion {
	t.Helper()
	regions, err := RegionBuilder{BaseTime: epoch, Path: path}.Build(obstacles)
	require.NoError(t, err)
	return regions
}

// collides is the ground truth: the mover point at arc s and time t lies
// strictly inside the obstacle.
func collides(path motion.SpatialPath, o motion.DynamicObstacle, s, sec float64) bool {
	at := epoch.Add(motion.Duration(sec))
	loc, ok := o.Trajectory.Interpolate(at)
	if !ok {
		return false
	}
	rel := r2.Sub(path.Interpolate(s), loc)
	switch shape := o.Shape.(type) {
	case geom.Polygon:
		return insideRing(shape, rel)
	case geom.MultiPolygon:
		for _, ring := range shape {
			if insideRing(ring, rel) {
				return true
			}
		}
		return false
	}
	for _, part := range o.Shape.ConvexParts() {
		if geom.ContainsOpen(part, rel) {
			return true
		}
	}
	return false
}

// insideRing reports whether q lies in the open interior of a simple ring,
// convex or not, by its winding number.
func insideRing(ring geom.Polygon, q r2.Vec) bool {
	wn := 0
	for i := range ring {
		a, b := ring[i], ring[(i+1)%len(ring)]
		if geom.OnSegment(q, a, b) {
			return false
		}
		if a.Y <= q.Y {
			if b.Y > q.Y && geom.Orient(a, b, q) > 0 {
				wn++
			}
		} else if b.Y <= q.Y && geom.Orient(a, b, q) < 0 {
			wn--
		}
	}
	return wn != 0
}
