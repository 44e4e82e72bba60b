package planner

import (
	"fmt"

	"github.com/kilianp07/trajplan/core/geom"
	"github.com/kilianp07/trajplan/core/motion"
)

// BufferedObstacle turns another worker into an obstacle for a point mover.
// The shape is the worker's footprint grown by the reflected mover
// footprint, so the mover's reference point enters it exactly when the two
// footprints overlap.
func BufferedObstacle(workerShape, moverShape geom.Shape, traj motion.Trajectory) (motion.DynamicObstacle, error) {
	if err := workerShape.Validate(); err != nil {
		return motion.DynamicObstacle{}, fmt.Errorf("%w: worker shape: %w", motion.ErrInvalidObstacle, err)
	}
	if err := moverShape.Validate(); err != nil {
		return motion.DynamicObstacle{}, fmt.Errorf("%w: mover shape: %w", motion.ErrInvalidObstacle, err)
	}
	var parts geom.MultiPolygon
	for _, w := range workerShape.ConvexParts() {
		for _, m := range moverShape.ConvexParts() {
			if sum := geom.MinkowskiSum(w, m.Reflect()); len(sum) >= 3 {
				parts = append(parts, sum)
			}
		}
	}
	var shape geom.Shape = parts
	if len(parts) == 1 {
		shape = parts[0]
	}
	return motion.NewDynamicObstacle(shape, traj)
}
