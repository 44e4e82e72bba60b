// Package planner evaluates planning attempts for an outer scheduler. It
// runs candidates concurrently, keeps the best one, records every attempt
// and announces accepted plans on the event bus.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	corelogger "github.com/kilianp07/trajplan/core/logger"
	"github.com/kilianp07/trajplan/core/metrics"
	"github.com/kilianp07/trajplan/core/motion"
	"github.com/kilianp07/trajplan/core/pathfinder"
	"github.com/kilianp07/trajplan/internal/eventbus"
)

var (
	// ErrNoCandidates is returned by Best for an empty candidate list.
	ErrNoCandidates = errors.New("no candidates")
	// ErrNoFeasiblePlan is returned by Best when every candidate failed.
	ErrNoFeasiblePlan = errors.New("no feasible plan")
)

// Candidate is one Minimum-Time attempt on behalf of a worker.
type Candidate struct {
	WorkerID string
	Request  pathfinder.MinimumTimeRequest
}

// Selection is the outcome of a planning attempt.
type Selection struct {
	// Index is the position of the candidate passed to Best, or 0 for
	// single attempts.
	Index     int
	WorkerID  string
	AttemptID string
	Result    pathfinder.Result
}

// PlanAccepted is published when a feasible plan is selected.
type PlanAccepted struct {
	AttemptID  string
	WorkerID   string
	Kind       string
	Trajectory motion.DecomposedTrajectory
	Time       time.Time
}

// Planner wraps a Pathfinder with bookkeeping.
type Planner struct {
	cfg  Config
	pf   *pathfinder.Pathfinder
	sink metrics.MetricsSink
	bus  *eventbus.TypedBus[PlanAccepted]
	log  corelogger.Logger
	now  func() time.Time
}

// New creates a Planner. sink, bus and log may be nil.
func New(cfg Config, pf *pathfinder.Pathfinder, sink metrics.MetricsSink, bus *eventbus.TypedBus[PlanAccepted], log corelogger.Logger) (*Planner, error) {
	if pf == nil {
		return nil, fmt.Errorf("planner: nil pathfinder")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("planner config: %w", err)
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Planner{cfg: cfg, pf: pf, sink: sink, bus: bus, log: corelogger.OrNop(log), now: time.Now}, nil
}

// FixTime runs a single Fix-Time attempt for workerID.
func (p *Planner) FixTime(ctx context.Context, workerID string, req pathfinder.FixTimeRequest) (Selection, error) {
	if err := ctx.Err(); err != nil {
		return Selection{}, err
	}
	sel, err := p.attempt(pathfinder.KindFixTime, workerID, func() (pathfinder.Result, error) {
		return p.pf.FixTime(req)
	})
	if err != nil {
		return sel, err
	}
	p.accept(pathfinder.KindFixTime, sel)
	return sel, nil
}

// MinimumTime runs a single Minimum-Time attempt for workerID.
func (p *Planner) MinimumTime(ctx context.Context, workerID string, req pathfinder.MinimumTimeRequest) (Selection, error) {
	if err := ctx.Err(); err != nil {
		return Selection{}, err
	}
	sel, err := p.attempt(pathfinder.KindMinimumTime, workerID, func() (pathfinder.Result, error) {
		return p.pf.MinimumTime(req)
	})
	if err != nil {
		return sel, err
	}
	p.accept(pathfinder.KindMinimumTime, sel)
	return sel, nil
}

// Best evaluates the candidates concurrently and returns the feasible one
// finishing first; ties go to the lowest index. Candidates with invalid
// requests are skipped. When ctx is cancelled pending attempts are abandoned
// and the context error is returned.
func (p *Planner) Best(ctx context.Context, cands []Candidate) (Selection, error) {
	if len(cands) == 0 {
		return Selection{}, ErrNoCandidates
	}
	sels := make([]Selection, len(cands))
	errs := make([]error, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, c := range cands {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sel, err := p.attempt(pathfinder.KindMinimumTime, c.WorkerID, func() (pathfinder.Result, error) {
				return p.pf.MinimumTime(c.Request)
			})
			sel.Index = i
			sels[i], errs[i] = sel, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Selection{}, err
	}
	if err := ctx.Err(); err != nil {
		return Selection{}, err
	}

	best := -1
	for i, s := range sels {
		if errs[i] != nil || !s.Result.Feasible {
			continue
		}
		if best < 0 || s.Result.FinishTime().Before(sels[best].Result.FinishTime()) {
			best = i
		}
	}
	if best < 0 {
		var failed []error
		for i, err := range errs {
			if err != nil {
				failed = append(failed, fmt.Errorf("candidate %d (%s): %w", i, cands[i].WorkerID, err))
			}
		}
		return Selection{}, errors.Join(append([]error{ErrNoFeasiblePlan}, failed...)...)
	}
	p.log.Infof("selected worker %s (candidate %d of %d) finishing at %s",
		sels[best].WorkerID, best, len(cands), sels[best].Result.FinishTime().Format(time.RFC3339Nano))
	p.accept(pathfinder.KindMinimumTime, sels[best])
	return sels[best], nil
}

func (p *Planner) attempt(kind, workerID string, run func() (pathfinder.Result, error)) (Selection, error) {
	sel := Selection{WorkerID: workerID, AttemptID: uuid.NewString()}
	start := p.now()
	res, err := run()
	ev := metrics.PlanningEvent{
		AttemptID:  sel.AttemptID,
		WorkerID:   workerID,
		Kind:       kind,
		Latency:    p.now().Sub(start),
		Regions:    res.Stats.Regions,
		Vertices:   res.Stats.Vertices,
		Expansions: res.Stats.Expansions,
		Truncated:  res.Stats.Truncated,
		Time:       start,
	}
	switch {
	case err != nil:
		ev.Status = metrics.StatusError
		ev.Reason = err.Error()
	case res.Feasible:
		ev.Status = metrics.StatusFeasible
		ev.FinishTime = res.FinishTime()
	default:
		ev.Status = metrics.StatusInfeasible
		ev.Reason = string(res.Reason)
	}
	if rerr := p.sink.RecordPlanning(ev); rerr != nil {
		p.log.Warnf("record planning attempt %s: %v", sel.AttemptID, rerr)
	}
	if err != nil {
		return sel, err
	}
	sel.Result = res
	return sel, nil
}

func (p *Planner) accept(kind string, sel Selection) {
	if p.bus == nil || !sel.Result.Feasible {
		return
	}
	p.bus.Publish(PlanAccepted{
		AttemptID:  sel.AttemptID,
		WorkerID:   sel.WorkerID,
		Kind:       kind,
		Trajectory: sel.Result.Trajectory,
		Time:       p.now(),
	})
}
