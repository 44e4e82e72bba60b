package metrics

import (
	"errors"

	coremetrics "github.com/kilianp07/trajplan/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records planning attempts in Prometheus metrics.
type PromSink struct {
	attempts *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	vertices *prometheus.HistogramVec
	regions  *prometheus.HistogramVec
}

// NewPromSink registers planning metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planning_attempts_total",
		Help: "Total number of planning attempts",
	}, []string{"kind", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planning_duration_seconds",
		Help:    "Wall time spent planning a single request",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"kind"})
	vertices := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planning_mesh_vertices",
		Help:    "Number of mesh vertices per planning attempt",
		Buckets: prometheus.ExponentialBuckets(4, 2, 12),
	}, []string{"kind"})
	regions := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planning_forbidden_regions",
		Help:    "Number of forbidden regions per planning attempt",
		Buckets: prometheus.LinearBuckets(0, 2, 10),
	}, []string{"kind"})

	var err error
	if attempts, err = register(reg, attempts); err != nil {
		return nil, err
	}
	if latency, err = register(reg, latency); err != nil {
		return nil, err
	}
	if vertices, err = register(reg, vertices); err != nil {
		return nil, err
	}
	if regions, err = register(reg, regions); err != nil {
		return nil, err
	}
	return &PromSink{attempts: attempts, latency: latency, vertices: vertices, regions: regions}, nil
}

// register returns the already registered collector when one with the same
// descriptor exists so sinks can be created more than once per process.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// RecordPlanning increments the attempt counter and observes the histograms.
func (s *PromSink) RecordPlanning(ev coremetrics.PlanningEvent) error {
	s.attempts.WithLabelValues(ev.Kind, ev.Status).Inc()
	s.latency.WithLabelValues(ev.Kind).Observe(ev.Latency.Seconds())
	if ev.Status != coremetrics.StatusError {
		s.vertices.WithLabelValues(ev.Kind).Observe(float64(ev.Vertices))
		s.regions.WithLabelValues(ev.Kind).Observe(float64(ev.Regions))
	}
	return nil
}
