package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/trajplan/config"
	"github.com/kilianp07/trajplan/core/planlog"
	"github.com/kilianp07/trajplan/core/scenario"
)

const crossing = `
epoch: 2026-01-01T00:00:00Z
worker_id: agv-1
path: [[0, 0], [3, 0]]
max_speed: 1
latest_finish_time: 20
obstacles:
  - id: parked
    shape:
      polygon: [[-0.5, -0.5], [0.5, -0.5], [0.5, 0.5], [-0.5, 0.5]]
    waypoints:
      - {x: 1.5, y: 5, t: 0}
      - {x: 1.5, y: 5, t: 6}
candidates:
  - worker_id: slow
    path: [[0, 0], [3, 0]]
    max_speed: 0.5
    latest_finish_time: 20
  - worker_id: fast
    path: [[0, 0], [3, 0]]
    max_speed: 1
    latest_finish_time: 20
trajectory:
  - {x: 0, y: 0, t: 0}
  - {x: 3, y: 0, t: 3}
`

func newService(t *testing.T) *Service {
	t.Helper()
	cfg := config.Default()
	cfg.PlanLog = planlog.Config{Backend: planlog.BackendJSONL, Path: filepath.Join(t.TempDir(), "plans.jsonl")}
	cfg.PlanLog.SetDefaults()
	svc, err := New(context.Background(), cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func load(t *testing.T) *scenario.Scenario {
	t.Helper()
	sc, err := scenario.Decode(strings.NewReader(crossing), "yaml")
	require.NoError(t, err)
	require.NoError(t, sc.Validate())
	return sc
}

func TestServicePlanRecordsAttempt(t *testing.T) {
	svc := newService(t)
	sc := load(t)
	sel, err := svc.Plan(context.Background(), sc)
	require.NoError(t, err)
	require.True(t, sel.Result.Feasible)
	assert.Equal(t, "agv-1", sel.WorkerID)
	assert.InDelta(t, 3.0, sc.Offset(sel.Result.FinishTime()), 1e-9)

	recs, err := svc.Store.Query(context.Background(), planlog.Query{WorkerID: "agv-1"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, sel.AttemptID, recs[0].AttemptID)
	assert.Equal(t, "feasible", recs[0].Status)
}

func TestServiceFixTime(t *testing.T) {
	svc := newService(t)
	sc := load(t)
	sc.Mode = scenario.ModeFixTime
	sc.FinishTime = 5
	sel, err := svc.Plan(context.Background(), sc)
	require.NoError(t, err)
	require.True(t, sel.Result.Feasible)
	assert.InDelta(t, 5.0, sc.Offset(sel.Result.FinishTime()), 1e-9)
}

func TestServiceBatch(t *testing.T) {
	svc := newService(t)
	sel, err := svc.Batch(context.Background(), load(t))
	require.NoError(t, err)
	assert.Equal(t, "fast", sel.WorkerID)
	assert.Equal(t, 1, sel.Index)
}

func TestServiceVerify(t *testing.T) {
	svc := newService(t)
	sc := load(t)
	v, err := svc.Verify(sc)
	require.NoError(t, err)
	assert.False(t, v.Collides)
	assert.Equal(t, -1, v.Obstacle)

	// park the obstacle on the path
	sc.Obstacles[0].Waypoints[0].Y = 0
	sc.Obstacles[0].Waypoints[1].Y = 0
	v, err = svc.Verify(sc)
	require.NoError(t, err)
	assert.True(t, v.Collides)
	assert.Equal(t, 0, v.Obstacle)
}

func TestServicePublishRequiresBroker(t *testing.T) {
	cfg := config.Default()
	_, err := New(context.Background(), cfg, Options{Publish: true})
	assert.ErrorContains(t, err, "mqtt.broker")
}

func TestServiceHoldReturnsOnCancel(t *testing.T) {
	svc := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, svc.Hold(ctx))
}
