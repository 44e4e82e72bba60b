package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/trajplan/core/metrics"
	"github.com/kilianp07/trajplan/infra/logger"
)

// InfluxSink writes planning attempts to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPlanning writes the attempt as a single line protocol point.
func (s *InfluxSink) RecordPlanning(ev coremetrics.PlanningEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, planningPoint(ev))
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func planningPoint(ev coremetrics.PlanningEvent) *write.Point {
	p := write.NewPointWithMeasurement("planning_attempt").
		AddTag("kind", ev.Kind).
		AddTag("status", ev.Status).
		AddTag("truncated", strconv.FormatBool(ev.Truncated))
	if ev.WorkerID != "" {
		p = p.AddTag("worker_id", ev.WorkerID)
	}
	p = p.AddField("attempt_id", ev.AttemptID).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000)).
		AddField("regions", ev.Regions).
		AddField("vertices", ev.Vertices).
		AddField("expansions", ev.Expansions)
	if ev.Reason != "" {
		p = p.AddField("reason", ev.Reason)
	}
	if !ev.FinishTime.IsZero() {
		p = p.AddField("finish_unix_ms", ev.FinishTime.UnixMilli())
	}
	return p.SetTime(ev.Time)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
