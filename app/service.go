// Package app wires configuration into a ready-to-use planning service.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/trajplan/config"
	"github.com/kilianp07/trajplan/core/collision"
	coremetrics "github.com/kilianp07/trajplan/core/metrics"
	"github.com/kilianp07/trajplan/core/pathfinder"
	"github.com/kilianp07/trajplan/core/planlog"
	"github.com/kilianp07/trajplan/core/planner"
	"github.com/kilianp07/trajplan/core/scenario"
	"github.com/kilianp07/trajplan/infra/logger"
	"github.com/kilianp07/trajplan/infra/metrics"
	"github.com/kilianp07/trajplan/infra/mqtt"
	"github.com/kilianp07/trajplan/internal/eventbus"
)

// Options toggles the outward-facing parts of the service.
type Options struct {
	// Publish forwards accepted plans to MQTT. Requires mqtt.broker.
	Publish bool
	// Gatherer backs the /metrics endpoint. Nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// Service holds the planner and the infrastructure around it.
type Service struct {
	Planner *planner.Planner
	Bus     *eventbus.TypedBus[planner.PlanAccepted]
	Store   planlog.Store

	publisher *mqtt.TrajectoryPublisher
	forwarded <-chan struct{}
	promErr   chan error
	stop      context.CancelFunc
	log       logger.Logger
}

// New builds a Service from the configuration. Background work stops when
// ctx is cancelled or Close is called.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Service, error) {
	log := logger.New("service")
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	store, err := planlog.Open(cfg.PlanLog)
	if err != nil {
		return nil, fmt.Errorf("planlog: %w", err)
	}
	if store != nil {
		sink = coremetrics.NewMultiSink(sink, planlog.NewSink(store))
	}
	pf, err := pathfinder.New(cfg.Planner, logger.New("pathfinder"))
	if err != nil {
		return nil, closeOnError(store, err)
	}
	bus := eventbus.NewTyped[planner.PlanAccepted]()
	pl, err := planner.New(cfg.Batch, pf, sink, bus, logger.New("planner"))
	if err != nil {
		return nil, closeOnError(store, fmt.Errorf("planner: %w", err))
	}

	ctx, stop := context.WithCancel(ctx)
	svc := &Service{Planner: pl, Bus: bus, Store: store, stop: stop, log: log}
	if opts.Publish {
		if !cfg.MQTT.Enabled() {
			stop()
			return nil, closeOnError(store, errors.New("publishing requires mqtt.broker"))
		}
		pub, err := mqtt.NewTrajectoryPublisher(cfg.MQTT, logger.New("mqtt_publisher"))
		if err != nil {
			stop()
			return nil, closeOnError(store, fmt.Errorf("mqtt publisher: %w", err))
		}
		svc.publisher = pub
		svc.forwarded = mqtt.StartPlanForwarder(ctx, bus, pub, logger.New("plan_forwarder"))
	}
	if addr := cfg.Metrics.PrometheusAddr; addr != "" {
		svc.promErr = make(chan error, 1)
		go func() {
			svc.promErr <- metrics.StartPromServer(ctx, addr, opts.Gatherer)
		}()
	}
	return svc, nil
}

func closeOnError(store planlog.Store, err error) error {
	if store != nil {
		if cerr := store.Close(); cerr != nil {
			return errors.Join(err, cerr)
		}
	}
	return err
}

// Plan runs the scenario's facade for its worker.
func (s *Service) Plan(ctx context.Context, sc *scenario.Scenario) (planner.Selection, error) {
	switch sc.Mode {
	case scenario.ModeFixTime:
		req, err := sc.FixTimeRequest()
		if err != nil {
			return planner.Selection{}, err
		}
		return s.Planner.FixTime(ctx, sc.WorkerID, req)
	default:
		req, err := sc.MinimumTimeRequest()
		if err != nil {
			return planner.Selection{}, err
		}
		return s.Planner.MinimumTime(ctx, sc.WorkerID, req)
	}
}

// Batch evaluates every candidate of the scenario and returns the best one.
func (s *Service) Batch(ctx context.Context, sc *scenario.Scenario) (planner.Selection, error) {
	cands, err := sc.PlannerCandidates()
	if err != nil {
		return planner.Selection{}, err
	}
	return s.Planner.Best(ctx, cands)
}

// Verification is the outcome of checking a trajectory.
type Verification struct {
	Collides bool
	// Obstacle is the index of the first obstacle hit, or -1.
	Obstacle int
}

// Verify checks the scenario's trajectory against its obstacles.
func (s *Service) Verify(sc *scenario.Scenario) (Verification, error) {
	traj, err := sc.VerifyTrajectory()
	if err != nil {
		return Verification{}, err
	}
	obs, err := sc.DynamicObstacles()
	if err != nil {
		return Verification{}, err
	}
	idx, err := collision.First(traj, obs)
	if err != nil {
		return Verification{}, err
	}
	return Verification{Collides: idx >= 0, Obstacle: idx}, nil
}

// Hold blocks until ctx is done or the metrics server fails.
func (s *Service) Hold(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-s.promErr:
		return err
	}
}

// Close flushes pending plans to MQTT and releases resources.
func (s *Service) Close() error {
	s.Bus.Close()
	if s.forwarded != nil {
		<-s.forwarded
	}
	s.stop()
	if s.publisher != nil {
		s.publisher.Disconnect()
	}
	if s.Store != nil {
		return s.Store.Close()
	}
	return nil
}
