package motion

import (
	"fmt"

	"github.com/kilianp07/trajplan/core/geom"
)

// DynamicObstacle is a rigid shape following a trajectory. The shape is given
// relative to the trajectory's reference point and the obstacle only exists
// during the trajectory's time span.
type DynamicObstacle struct {
	Shape      geom.Shape
	Trajectory Trajectory
}

// NewDynamicObstacle validates the obstacle.
func NewDynamicObstacle(shape geom.Shape, traj Trajectory) (DynamicObstacle, error) {
	o := DynamicObstacle{Shape: shape, Trajectory: traj}
	if err := o.Validate(); err != nil {
		return DynamicObstacle{}, err
	}
	return o, nil
}

func (o DynamicObstacle) Validate() error {
	if o.Shape == nil {
		return fmt.Errorf("%w: missing shape", ErrInvalidObstacle)
	}
	if err := o.Shape.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidObstacle, err)
	}
	if o.Trajectory.IsEmpty() {
		return fmt.Errorf("%w: missing trajectory", ErrInvalidObstacle)
	}
	return nil
}
