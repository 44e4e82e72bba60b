// Package pathfinder plans the speed profile of a mover along a fixed
// spatial path so that it avoids moving obstacles. Both entry points are pure
// functions of their request; a Pathfinder only holds tuning settings and
// may be shared by concurrent callers.
package pathfinder

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/kilianp07/trajplan/core/arctime"
	corelogger "github.com/kilianp07/trajplan/core/logger"
	"github.com/kilianp07/trajplan/core/motion"
)

// ErrInvalidRequest is wrapped by every precondition failure.
var ErrInvalidRequest = errors.New("invalid planning request")

// Planning request kinds, used in logs and metrics.
const (
	KindFixTime     = "fix_time"
	KindMinimumTime = "minimum_time"
)

// FixTimeRequest asks for a profile that reaches the end of Path exactly at
// FinishTime.
type FixTimeRequest struct {
	Path       motion.SpatialPath
	MaxSpeed   float64
	Obstacles  []motion.DynamicObstacle
	StartTime  time.Time
	FinishTime time.Time
}

// MinimumTimeRequest asks for the earliest arrival at the end of Path within
// [EarliestFinishTime, LatestFinishTime] after which the mover can stay put
// for BufferDuration.
type MinimumTimeRequest struct {
	Path               motion.SpatialPath
	MaxSpeed           float64
	Obstacles          []motion.DynamicObstacle
	StartTime          time.Time
	EarliestFinishTime time.Time
	LatestFinishTime   time.Time
	BufferDuration     time.Duration
}

// Pathfinder runs planning requests with a fixed configuration.
type Pathfinder struct {
	cfg      Config
	strategy arctime.MeshStrategy
	weight   arctime.WeightFunc
	log      corelogger.Logger
}

// New validates cfg and returns a Pathfinder. A nil logger disables logging.
func New(cfg Config, log corelogger.Logger) (*Pathfinder, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pathfinder config: %w", err)
	}
	strategy, _ := arctime.ParseMeshStrategy(cfg.MeshStrategy)
	weight, _ := arctime.ParseWeight(cfg.Weight)
	return &Pathfinder{cfg: cfg, strategy: strategy, weight: weight, log: corelogger.OrNop(log)}, nil
}

// Config returns the effective configuration.
func (p *Pathfinder) Config() Config { return p.cfg }

// FixTime plans a profile arriving at the end of the path at FinishTime.
func (p *Pathfinder) FixTime(req FixTimeRequest) (Result, error) {
	if err := checkMotion(req.Path, req.MaxSpeed); err != nil {
		return Result{}, err
	}
	if !req.StartTime.Before(req.FinishTime) {
		return Result{}, fmt.Errorf("%w: start time %s is not before finish time %s",
			ErrInvalidRequest, req.StartTime.Format(time.RFC3339Nano), req.FinishTime.Format(time.RFC3339Nano))
	}
	length := req.Path.Length()
	finish := motion.Seconds(req.FinishTime.Sub(req.StartTime))

	checker, stats, err := p.regions(req.StartTime, req.Path, req.Obstacles, finish)
	if err != nil {
		return Result{}, err
	}
	mesh, err := arctime.NewMesh(p.meshConfig(req.MaxSpeed, length, finish), checker,
		r2.Vec{}, checker.Corners(), []r2.Vec{{X: length, Y: finish}})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	stats.Finishes = 1
	route, ok := arctime.SearchFixed(mesh, mesh.Finishes()[0])
	return p.conclude(KindFixTime, req.StartTime, req.Path, mesh, route, ok, stats)
}

// MinimumTime plans the earliest admissible arrival at the end of the path.
func (p *Pathfinder) MinimumTime(req MinimumTimeRequest) (Result, error) {
	if err := checkMotion(req.Path, req.MaxSpeed); err != nil {
		return Result{}, err
	}
	switch {
	case !req.StartTime.Before(req.LatestFinishTime):
		return Result{}, fmt.Errorf("%w: start time %s is not before latest finish time %s",
			ErrInvalidRequest, req.StartTime.Format(time.RFC3339Nano), req.LatestFinishTime.Format(time.RFC3339Nano))
	case req.EarliestFinishTime.After(req.LatestFinishTime):
		return Result{}, fmt.Errorf("%w: earliest finish time is after latest finish time", ErrInvalidRequest)
	case req.BufferDuration < 0:
		return Result{}, fmt.Errorf("%w: negative buffer duration %s", ErrInvalidRequest, req.BufferDuration)
	}
	length := req.Path.Length()
	lo := math.Max(0, motion.Seconds(req.EarliestFinishTime.Sub(req.StartTime)))
	hi := motion.Seconds(req.LatestFinishTime.Sub(req.StartTime))
	buffer := motion.Seconds(req.BufferDuration)

	checker, stats, err := p.regions(req.StartTime, req.Path, req.Obstacles, hi+buffer)
	if err != nil {
		return Result{}, err
	}
	corners := checker.Corners()
	finishes := p.finishCandidates(checker, corners, length, req.MaxSpeed, lo, hi, buffer)
	stats.Finishes = len(finishes)
	if len(finishes) == 0 {
		p.log.Debugw("no admissible finish time", fields(KindMinimumTime, stats, ReasonNoFinish))
		return Result{Reason: ReasonNoFinish, Stats: stats}, nil
	}
	if length == 0 && finishes[0].Y == 0 {
		stats.Vertices = 1
		if !checker.Check(r2.Vec{}, r2.Vec{}) {
			// already there but occupied at the start
			p.log.Debugw("no trajectory found", fields(KindMinimumTime, stats, ReasonNoPath))
			return Result{Reason: ReasonNoPath, Stats: stats}, nil
		}
		route := arctime.Route{Points: []r2.Vec{{}}}
		return p.conclude(KindMinimumTime, req.StartTime, req.Path, nil, route, true, stats)
	}
	mesh, err := arctime.NewMesh(p.meshConfig(req.MaxSpeed, length, hi), checker, r2.Vec{}, corners, finishes)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	route, ok := arctime.SearchEarliest(mesh)
	return p.conclude(KindMinimumTime, req.StartTime, req.Path, mesh, route, ok, stats)
}

func checkMotion(path motion.SpatialPath, maxSpeed float64) error {
	if path.IsEmpty() {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, motion.ErrEmptyPath)
	}
	if !(maxSpeed > 0) || math.IsInf(maxSpeed, 0) {
		return fmt.Errorf("%w: max speed must be positive and finite, got %g", ErrInvalidRequest, maxSpeed)
	}
	return nil
}

// regions builds the forbidden regions for obstacle motion up to horizon
// seconds after base.
func (p *Pathfinder) regions(base time.Time, path motion.SpatialPath, obstacles []motion.DynamicObstacle, horizon float64) (*arctime.VisibilityChecker, Stats, error) {
	b := arctime.RegionBuilder{BaseTime: base, Path: path, Window: &arctime.Window{From: 0, To: horizon}}
	regions, err := b.Build(obstacles)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	var stats Stats
	for _, r := range regions {
		if !r.IsEmpty() {
			stats.Regions++
		}
	}
	checker := arctime.NewVisibilityChecker(regions)
	stats.Pieces = checker.Len()
	return checker, stats, nil
}

func (p *Pathfinder) meshConfig(maxSpeed, length, maxTime float64) arctime.MeshConfig {
	return arctime.MeshConfig{
		Strategy:        p.strategy,
		MaxVelocity:     maxSpeed,
		LazyVelocity:    p.cfg.LazyVelocity * maxSpeed,
		MinStopDuration: p.cfg.MinStopSeconds,
		Bounds:          arctime.Bounds{MinArc: 0, MaxArc: length, MinTime: 0, MaxTime: maxTime},
		Weight:          p.weight,
		MaxExpansions:   p.cfg.MaxExpansions,
	}
}

// finishCandidates lists the arrival times worth trying: the window ends,
// the full-speed arrival from the start and from every region corner, and
// corners lying on the finish arc. With a buffer, a candidate must allow a
// wait of that length at the finish arc.
func (p *Pathfinder) finishCandidates(checker *arctime.VisibilityChecker, corners []r2.Vec, length, speed, lo, hi, buffer float64) []r2.Vec {
	times := []float64{lo, hi, length / speed}
	for _, c := range corners {
		if c.X <= length {
			times = append(times, c.Y+(length-c.X)/speed)
		}
	}
	sort.Float64s(times)
	var out []r2.Vec
	for _, t := range times {
		if t < lo || t > hi {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Y == t {
			continue
		}
		f := r2.Vec{X: length, Y: t}
		if buffer > 0 && !checker.Check(f, r2.Vec{X: length, Y: t + buffer}) {
			continue
		}
		out = append(out, f)
		if p.cfg.FinishCandidates > 0 && len(out) == p.cfg.FinishCandidates {
			break
		}
	}
	return out
}

func (p *Pathfinder) conclude(kind string, base time.Time, path motion.SpatialPath, mesh *arctime.Mesh, route arctime.Route, ok bool, stats Stats) (Result, error) {
	if mesh != nil {
		stats.Vertices = mesh.Len()
		stats.Expansions = mesh.Expansions()
		stats.Truncated = mesh.Truncated()
	}
	if !ok {
		reason := ReasonNoPath
		if stats.Truncated {
			reason = ReasonExpansionLimit
		}
		p.log.Debugw("no trajectory found", fields(kind, stats, reason))
		return Result{Reason: reason, Stats: stats}, nil
	}
	profile, err := motion.NewArcTimePath(route.Points...)
	if err != nil {
		return Result{}, fmt.Errorf("arc-time profile: %w", err)
	}
	traj, err := motion.NewDecomposedTrajectory(base, path, profile)
	if err != nil {
		return Result{}, fmt.Errorf("decomposed trajectory: %w", err)
	}
	if _, err := traj.Compose(); err != nil {
		return Result{}, fmt.Errorf("compose trajectory: %w", err)
	}
	f := fields(kind, stats, "")
	f["finish_seconds"] = profile.FinishTime()
	f["profile_points"] = profile.Len()
	p.log.Debugw("trajectory found", f)
	return Result{Feasible: true, Trajectory: traj, Stats: stats}, nil
}

func fields(kind string, s Stats, reason Reason) map[string]any {
	f := map[string]any{
		"kind":       kind,
		"regions":    s.Regions,
		"pieces":     s.Pieces,
		"vertices":   s.Vertices,
		"expansions": s.Expansions,
		"finishes":   s.Finishes,
		"feasible":   reason == "",
	}
	if reason != "" {
		f["reason"] = string(reason)
	}
	if s.Truncated {
		f["truncated"] = true
	}
	return f
}
