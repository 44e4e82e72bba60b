package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioYAML = `
name: corridor
epoch: 2026-01-01T00:00:00Z
worker_id: agv-1
path: [[0, 0], [3, 0]]
max_speed: 1
latest_finish_time: 20
obstacles:
  - id: crossing
    shape:
      polygon: [[-0.5, -0.5], [0.5, -0.5], [0.5, 0.5], [-0.5, 0.5]]
    waypoints:
      - {x: 1.5, y: 0, t: 0}
      - {x: 1.5, y: 0, t: 4}
candidates:
  - worker_id: slow
    path: [[0, 0], [3, 0]]
    max_speed: 0.5
    latest_finish_time: 20
  - worker_id: fast
    path: [[0, 0], [3, 0]]
    max_speed: 2
    latest_finish_time: 20
trajectory:
  - {x: 0, y: 0, t: 0}
  - {x: 3, y: 0, t: 3}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0o644))
	return path
}

func TestPlanJSON(t *testing.T) {
	out, err := run(t, "plan", "-s", writeScenario(t))
	require.NoError(t, err)
	var plan struct {
		WorkerID   string `json:"worker_id"`
		Feasible   bool   `json:"feasible"`
		FinishTime string `json:"finish_time"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.True(t, plan.Feasible)
	assert.Equal(t, "agv-1", plan.WorkerID)
	// the obstacle holds arc [1, 2] until t=4, so the mover leaves arc 1 at 4
	assert.Equal(t, "2026-01-01T00:00:06Z", plan.FinishTime)
}

func TestPlanCSVAndChart(t *testing.T) {
	chart := filepath.Join(t.TempDir(), "chart.html")
	out, err := run(t, "plan", "-s", writeScenario(t), "--format", "csv", "--chart", chart)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "worker_id,time,offset_s,x,y", lines[0])
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "agv-1,2026-01-01T00:00:06Z,6,3,0"))

	html, err := os.ReadFile(chart)
	require.NoError(t, err)
	assert.Contains(t, string(html), "obstacle 0")
}

func TestPlanRejectsFormat(t *testing.T) {
	_, err := run(t, "plan", "-s", writeScenario(t), "--format", "xml")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestPlanRequiresScenario(t *testing.T) {
	_, err := run(t, "plan")
	assert.ErrorContains(t, err, "--scenario")
}

func TestVerify(t *testing.T) {
	out, err := run(t, "verify", "-s", writeScenario(t))
	assert.ErrorContains(t, err, "collides")
	assert.Contains(t, out, "crossing")
}

func TestBatch(t *testing.T) {
	out, err := run(t, "batch", "-s", writeScenario(t))
	require.NoError(t, err)
	var plan struct {
		WorkerID string `json:"worker_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, "fast", plan.WorkerID)
}

func TestPublishWithoutBroker(t *testing.T) {
	_, err := run(t, "plan", "-s", writeScenario(t), "--publish")
	assert.ErrorContains(t, err, "mqtt.broker")
}
