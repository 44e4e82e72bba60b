// Package metrics defines the sink interface used to observe planning
// attempts. Sinks like the Prometheus and InfluxDB ones in infra/metrics or
// the planning log record one PlanningEvent per attempt and can be combined
// with NewMultiSink. The factory helpers return a MultiSink automatically
// when multiple sinks are configured.
package metrics
