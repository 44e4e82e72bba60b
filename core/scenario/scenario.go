// Package scenario reads planning scenarios from YAML or JSON files. Times in
// a scenario are seconds relative to its epoch.
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/trajplan/core/geom"
	"github.com/kilianp07/trajplan/core/motion"
	"github.com/kilianp07/trajplan/core/pathfinder"
	"github.com/kilianp07/trajplan/core/planner"
)

// Scenario modes.
const (
	ModeFixTime     = "fix_time"
	ModeMinimumTime = "minimum_time"
)

// ErrInvalidScenario is wrapped by every validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

// Point is an [x, y] pair.
type Point [2]float64

func (p Point) vec() r2.Vec { return r2.Vec{X: p[0], Y: p[1]} }

// Waypoint is a location reached at T seconds after the epoch.
type Waypoint struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	T float64 `json:"t" yaml:"t"`
}

// ShapeDef is either a single polygon or a list of polygon parts.
type ShapeDef struct {
	Polygon []Point   `json:"polygon,omitempty" yaml:"polygon,omitempty"`
	Parts   [][]Point `json:"parts,omitempty" yaml:"parts,omitempty"`
}

// IsZero reports whether no shape was given.
func (s ShapeDef) IsZero() bool { return len(s.Polygon) == 0 && len(s.Parts) == 0 }

// Shape converts the definition.
func (s ShapeDef) Shape() (geom.Shape, error) {
	switch {
	case len(s.Polygon) > 0 && len(s.Parts) > 0:
		return nil, fmt.Errorf("%w: shape has both polygon and parts", ErrInvalidScenario)
	case len(s.Polygon) > 0:
		return polygon(s.Polygon), nil
	case len(s.Parts) > 0:
		m := make(geom.MultiPolygon, len(s.Parts))
		for i, p := range s.Parts {
			m[i] = polygon(p)
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: empty shape", ErrInvalidScenario)
}

func polygon(pts []Point) geom.Polygon {
	p := make(geom.Polygon, len(pts))
	for i, v := range pts {
		p[i] = v.vec()
	}
	return p
}

// ObstacleDef is another worker moving through the plane.
type ObstacleDef struct {
	ID        string     `json:"id" yaml:"id"`
	Shape     ShapeDef   `json:"shape" yaml:"shape"`
	Waypoints []Waypoint `json:"waypoints" yaml:"waypoints"`
}

// CandidateDef is one worker competing for a task in batch mode.
type CandidateDef struct {
	WorkerID           string  `json:"worker_id" yaml:"worker_id"`
	Path               []Point `json:"path" yaml:"path"`
	MaxSpeed           float64 `json:"max_speed" yaml:"max_speed"`
	StartTime          float64 `json:"start_time" yaml:"start_time"`
	EarliestFinishTime float64 `json:"earliest_finish_time" yaml:"earliest_finish_time"`
	LatestFinishTime   float64 `json:"latest_finish_time" yaml:"latest_finish_time"`
	BufferDuration     float64 `json:"buffer_duration" yaml:"buffer_duration"`
}

// Scenario describes one planning problem.
type Scenario struct {
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Epoch       time.Time `json:"epoch" yaml:"epoch"`
	Mode        string    `json:"mode" yaml:"mode"`
	WorkerID    string    `json:"worker_id" yaml:"worker_id"`
	// MoverShape, when set, grows every obstacle by the mover's footprint.
	MoverShape ShapeDef `json:"mover_shape,omitempty" yaml:"mover_shape,omitempty"`

	Path               []Point `json:"path" yaml:"path"`
	MaxSpeed           float64 `json:"max_speed" yaml:"max_speed"`
	StartTime          float64 `json:"start_time" yaml:"start_time"`
	FinishTime         float64 `json:"finish_time,omitempty" yaml:"finish_time,omitempty"`
	EarliestFinishTime float64 `json:"earliest_finish_time,omitempty" yaml:"earliest_finish_time,omitempty"`
	LatestFinishTime   float64 `json:"latest_finish_time,omitempty" yaml:"latest_finish_time,omitempty"`
	BufferDuration     float64 `json:"buffer_duration,omitempty" yaml:"buffer_duration,omitempty"`

	Obstacles  []ObstacleDef  `json:"obstacles,omitempty" yaml:"obstacles,omitempty"`
	Candidates []CandidateDef `json:"candidates,omitempty" yaml:"candidates,omitempty"`
	// Trajectory is checked by the verify command.
	Trajectory []Waypoint `json:"trajectory,omitempty" yaml:"trajectory,omitempty"`
}

// Load reads a scenario from a .yaml, .yml or .json file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	sc, err := Decode(f, ext)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// Decode reads a scenario in the given format ("yaml", "yml" or "json").
func Decode(r io.Reader, format string) (*Scenario, error) {
	var sc Scenario
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&sc); err != nil {
			return nil, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&sc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported scenario format: %s", format)
	}
	sc.SetDefaults()
	return &sc, nil
}

// SetDefaults fills the mode and epoch.
func (s *Scenario) SetDefaults() {
	if s.Mode == "" {
		s.Mode = ModeMinimumTime
	}
	if s.Epoch.IsZero() {
		s.Epoch = time.Unix(0, 0).UTC()
	}
}

// Validate checks the parts required by the scenario's mode.
func (s *Scenario) Validate() error {
	switch s.Mode {
	case ModeFixTime, ModeMinimumTime:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidScenario, s.Mode)
	}
	if len(s.Path) == 0 && len(s.Candidates) == 0 && len(s.Trajectory) == 0 {
		return fmt.Errorf("%w: nothing to plan or verify", ErrInvalidScenario)
	}
	for i, o := range s.Obstacles {
		if len(o.Waypoints) == 0 {
			return fmt.Errorf("%w: obstacle %d (%s) has no waypoints", ErrInvalidScenario, i, o.ID)
		}
	}
	for i, c := range s.Candidates {
		if c.WorkerID == "" {
			return fmt.Errorf("%w: candidate %d has no worker_id", ErrInvalidScenario, i)
		}
	}
	return nil
}

// At converts a second offset to an absolute time.
func (s *Scenario) At(sec float64) time.Time {
	return s.Epoch.Add(motion.Duration(sec))
}

// Offset converts an absolute time to seconds after the epoch.
func (s *Scenario) Offset(t time.Time) float64 {
	return t.Sub(s.Epoch).Seconds()
}

// DynamicObstacles converts the obstacles, buffering them by MoverShape when
// it is set.
func (s *Scenario) DynamicObstacles() ([]motion.DynamicObstacle, error) {
	var mover geom.Shape
	if !s.MoverShape.IsZero() {
		m, err := s.MoverShape.Shape()
		if err != nil {
			return nil, fmt.Errorf("mover shape: %w", err)
		}
		mover = m
	}
	out := make([]motion.DynamicObstacle, 0, len(s.Obstacles))
	for i, o := range s.Obstacles {
		shape, err := o.Shape.Shape()
		if err != nil {
			return nil, fmt.Errorf("obstacle %d (%s): %w", i, o.ID, err)
		}
		traj, err := s.trajectory(o.Waypoints)
		if err != nil {
			return nil, fmt.Errorf("obstacle %d (%s): %w", i, o.ID, err)
		}
		var obs motion.DynamicObstacle
		if mover != nil {
			obs, err = planner.BufferedObstacle(shape, mover, traj)
		} else {
			obs, err = motion.NewDynamicObstacle(shape, traj)
		}
		if err != nil {
			return nil, fmt.Errorf("obstacle %d (%s): %w", i, o.ID, err)
		}
		out = append(out, obs)
	}
	return out, nil
}

// SpatialPath converts the scenario's path.
func (s *Scenario) SpatialPath() (motion.SpatialPath, error) {
	return spatialPath(s.Path)
}

// FixTimeRequest builds the request for ModeFixTime.
func (s *Scenario) FixTimeRequest() (pathfinder.FixTimeRequest, error) {
	path, err := s.SpatialPath()
	if err != nil {
		return pathfinder.FixTimeRequest{}, err
	}
	obs, err := s.DynamicObstacles()
	if err != nil {
		return pathfinder.FixTimeRequest{}, err
	}
	return pathfinder.FixTimeRequest{
		Path:       path,
		MaxSpeed:   s.MaxSpeed,
		Obstacles:  obs,
		StartTime:  s.At(s.StartTime),
		FinishTime: s.At(s.FinishTime),
	}, nil
}

// MinimumTimeRequest builds the request for ModeMinimumTime.
func (s *Scenario) MinimumTimeRequest() (pathfinder.MinimumTimeRequest, error) {
	path, err := s.SpatialPath()
	if err != nil {
		return pathfinder.MinimumTimeRequest{}, err
	}
	obs, err := s.DynamicObstacles()
	if err != nil {
		return pathfinder.MinimumTimeRequest{}, err
	}
	return pathfinder.MinimumTimeRequest{
		Path:               path,
		MaxSpeed:           s.MaxSpeed,
		Obstacles:          obs,
		StartTime:          s.At(s.StartTime),
		EarliestFinishTime: s.At(s.EarliestFinishTime),
		LatestFinishTime:   s.At(s.LatestFinishTime),
		BufferDuration:     motion.Duration(s.BufferDuration),
	}, nil
}

// PlannerCandidates builds one minimum-time candidate per CandidateDef. All
// candidates share the scenario's obstacles.
func (s *Scenario) PlannerCandidates() ([]planner.Candidate, error) {
	obs, err := s.DynamicObstacles()
	if err != nil {
		return nil, err
	}
	out := make([]planner.Candidate, 0, len(s.Candidates))
	for i, c := range s.Candidates {
		path, err := spatialPath(c.Path)
		if err != nil {
			return nil, fmt.Errorf("candidate %d (%s): %w", i, c.WorkerID, err)
		}
		out = append(out, planner.Candidate{
			WorkerID: c.WorkerID,
			Request: pathfinder.MinimumTimeRequest{
				Path:               path,
				MaxSpeed:           c.MaxSpeed,
				Obstacles:          obs,
				StartTime:          s.At(c.StartTime),
				EarliestFinishTime: s.At(c.EarliestFinishTime),
				LatestFinishTime:   s.At(c.LatestFinishTime),
				BufferDuration:     motion.Duration(c.BufferDuration),
			},
		})
	}
	return out, nil
}

// VerifyTrajectory converts the trajectory to check.
func (s *Scenario) VerifyTrajectory() (motion.Trajectory, error) {
	if len(s.Trajectory) == 0 {
		return motion.Trajectory{}, fmt.Errorf("%w: no trajectory to verify", ErrInvalidScenario)
	}
	return s.trajectory(s.Trajectory)
}

func (s *Scenario) trajectory(wps []Waypoint) (motion.Trajectory, error) {
	pts := make([]motion.TrajectoryPoint, len(wps))
	for i, w := range wps {
		pts[i] = motion.TrajectoryPoint{Location: r2.Vec{X: w.X, Y: w.Y}, Time: s.At(w.T)}
	}
	return motion.NewTrajectory(pts...)
}

func spatialPath(pts []Point) (motion.SpatialPath, error) {
	vs := make([]r2.Vec, len(pts))
	for i, p := range pts {
		vs[i] = p.vec()
	}
	return motion.NewSpatialPath(vs...)
}
