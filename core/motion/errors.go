package motion

import "errors"

var (
	// ErrEmptyPath is returned when a path or trajectory has no points.
	ErrEmptyPath = errors.New("empty path")
	// ErrInvalidPath is returned for non-finite or non-monotone path points.
	ErrInvalidPath = errors.New("invalid path")
	// ErrInvalidTrajectory is returned for trajectories that go back in time or
	// jump between locations at a single instant.
	ErrInvalidTrajectory = errors.New("invalid trajectory")
	// ErrInvalidObstacle is returned when an obstacle has no shape or no motion.
	ErrInvalidObstacle = errors.New("invalid obstacle")
)
