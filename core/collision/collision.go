// Package collision verifies trajectories against moving obstacles in the
// arc-time plane.
package collision

import (
	"fmt"

	"github.com/kilianp07/trajplan/core/arctime"
	"github.com/kilianp07/trajplan/core/motion"
)

// Collides reports whether the point mover following traj enters the
// interior of any obstacle. Touching an obstacle's boundary is not a
// collision. Obstacles are expected to be buffered by the mover's extent.
func Collides(traj motion.Trajectory, obstacles []motion.DynamicObstacle) (bool, error) {
	d, err := traj.Decompose()
	if err != nil {
		return false, fmt.Errorf("decompose trajectory: %w", err)
	}
	b := arctime.RegionBuilder{
		BaseTime: d.BaseTime(),
		Path:     d.SpatialPath(),
		Window:   &arctime.Window{From: 0, To: motion.Seconds(traj.Duration())},
	}
	regions, err := b.Build(obstacles)
	if err != nil {
		return false, err
	}
	profile := d.ArcTimePath()
	if profile.Len() == 1 {
		p := profile.Start()
		for _, r := range regions {
			if r.Contains(p) {
				return true, nil
			}
		}
		return false, nil
	}
	checker := arctime.NewVisibilityChecker(regions)
	for i := 1; i < profile.Len(); i++ {
		a, b := profile.Point(i-1), profile.Point(i)
		if a == b {
			continue
		}
		if !checker.Check(a, b) {
			return true, nil
		}
	}
	return false, nil
}

// First returns the index of the first obstacle traj collides with, or -1.
func First(traj motion.Trajectory, obstacles []motion.DynamicObstacle) (int, error) {
	for i := range obstacles {
		hit, err := Collides(traj, obstacles[i:i+1])
		if err != nil {
			return -1, fmt.Errorf("obstacle %d: %w", i, err)
		}
		if hit {
			return i, nil
		}
	}
	return -1, nil
}
