package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/kilianp07/trajplan/core/geom"
	"github.com/kilianp07/trajplan/core/pathfinder"
)

const crossingYAML = `
name: crossing
epoch: 2026-01-01T08:00:00Z
mode: minimum_time
worker_id: agv-1
path: [[0, 0], [6, 0]]
max_speed: 2
start_time: 1
earliest_finish_time: 0
latest_finish_time: 20
buffer_duration: 1.5
obstacles:
  - id: agv-2
    shape:
      polygon: [[-0.5, -0.5], [0.5, -0.5], [0.5, 0.5], [-0.5, 0.5]]
    waypoints:
      - {x: 3, y: -5, t: 0}
      - {x: 3, y: 5, t: 10}
candidates:
  - worker_id: agv-1
    path: [[0, 0], [6, 0]]
    max_speed: 2
    latest_finish_time: 20
  - worker_id: agv-3
    path: [[0, 1], [0, 9]]
    max_speed: 1
    start_time: 2
    latest_finish_time: 30
trajectory:
  - {x: 0, y: 0, t: 0}
  - {x: 6, y: 0, t: 3}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	sc, err := Load(writeFile(t, "crossing.yaml", crossingYAML))
	require.NoError(t, err)
	require.NoError(t, sc.Validate())

	assert.Equal(t, "crossing", sc.Name)
	assert.Equal(t, ModeMinimumTime, sc.Mode)
	assert.True(t, sc.Epoch.Equal(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)))
	require.Len(t, sc.Path, 2)
	assert.Equal(t, Point{6, 0}, sc.Path[1])
	require.Len(t, sc.Obstacles, 1)
	assert.Equal(t, 10.0, sc.Obstacles[0].Waypoints[1].T)

	req, err := sc.MinimumTimeRequest()
	require.NoError(t, err)
	assert.Equal(t, 6.0, req.Path.Length())
	assert.Equal(t, 2.0, req.MaxSpeed)
	assert.True(t, req.StartTime.Equal(sc.Epoch.Add(time.Second)))
	assert.True(t, req.LatestFinishTime.Equal(sc.Epoch.Add(20*time.Second)))
	assert.Equal(t, 1500*time.Millisecond, req.BufferDuration)
	require.Len(t, req.Obstacles, 1)
	assert.IsType(t, geom.Polygon{}, req.Obstacles[0].Shape)
	assert.True(t, req.Obstacles[0].Trajectory.StartTime().Equal(sc.Epoch))
}

func TestDecodeJSON(t *testing.T) {
	const doc = `{
  "epoch": "2026-01-01T00:00:00Z",
  "mode": "fix_time",
  "path": [[0, 0], [3, 0]],
  "max_speed": 1,
  "finish_time": 5
}`
	sc, err := Decode(strings.NewReader(doc), "json")
	require.NoError(t, err)
	require.NoError(t, sc.Validate())
	req, err := sc.FixTimeRequest()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, req.FinishTime.Sub(req.StartTime))
	assert.Empty(t, req.Obstacles)
}

func TestDecodeDefaults(t *testing.T) {
	sc, err := Decode(strings.NewReader("path: [[0, 0], [1, 0]]\nmax_speed: 1\n"), "yml")
	require.NoError(t, err)
	assert.Equal(t, ModeMinimumTime, sc.Mode)
	assert.True(t, sc.Epoch.Equal(time.Unix(0, 0)))
	assert.Equal(t, 2.5, sc.Offset(sc.At(2.5)))
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	_, err := Decode(strings.NewReader(""), "toml")
	assert.Error(t, err)
	_, err = Load(writeFile(t, "bad.yaml", "path: [[0, 0], [1"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]Scenario{
		"unknown mode": {Mode: "fastest", Path: []Point{{0, 0}}},
		"empty":        {Mode: ModeMinimumTime},
		"no waypoints": {Mode: ModeMinimumTime, Path: []Point{{0, 0}}, Obstacles: []ObstacleDef{{ID: "x"}}},
		"anonymous":    {Mode: ModeMinimumTime, Candidates: []CandidateDef{{Path: []Point{{0, 0}}}}},
	}
	for name, sc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, sc.Validate(), ErrInvalidScenario)
		})
	}
}

func TestBufferedObstacles(t *testing.T) {
	sc, err := Decode(strings.NewReader(crossingYAML), "yaml")
	require.NoError(t, err)
	sc.MoverShape = ShapeDef{Polygon: []Point{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}}}

	obs, err := sc.DynamicObstacles()
	require.NoError(t, err)
	require.Len(t, obs, 1)
	poly, ok := obs[0].Shape.(geom.Polygon)
	require.True(t, ok)
	assert.InDelta(t, 4.0, poly.Area(), 1e-9)
}

func TestShapeDef(t *testing.T) {
	_, err := ShapeDef{}.Shape()
	assert.ErrorIs(t, err, ErrInvalidScenario)

	_, err = ShapeDef{Polygon: []Point{{0, 0}}, Parts: [][]Point{{{0, 0}}}}.Shape()
	assert.ErrorIs(t, err, ErrInvalidScenario)

	s, err := ShapeDef{Parts: [][]Point{
		{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		{{1, 0}, {2, 0}, {2, 1}, {1, 1}},
	}}.Shape()
	require.NoError(t, err)
	require.NoError(t, s.Validate())
	assert.Equal(t, r2.Box{Min: r2.Vec{}, Max: r2.Vec{X: 2, Y: 1}}, s.Bounds())
}

func TestPlannerCandidates(t *testing.T) {
	sc, err := Decode(strings.NewReader(crossingYAML), "yaml")
	require.NoError(t, err)
	cands, err := sc.PlannerCandidates()
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "agv-3", cands[1].WorkerID)
	assert.Equal(t, 8.0, cands[1].Request.Path.Length())
	assert.True(t, cands[1].Request.StartTime.Equal(sc.At(2)))
	assert.Len(t, cands[1].Request.Obstacles, 1)
}

func TestVerifyTrajectory(t *testing.T) {
	sc, err := Decode(strings.NewReader(crossingYAML), "yaml")
	require.NoError(t, err)
	traj, err := sc.VerifyTrajectory()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, traj.Duration())

	sc.Trajectory = nil
	_, err = sc.VerifyTrajectory()
	assert.ErrorIs(t, err, ErrInvalidScenario)
}

func TestScenarioPlansWithoutObstacles(t *testing.T) {
	const doc = `
path: [[0, 0], [6, 0]]
max_speed: 2
latest_finish_time: 10
`
	sc, err := Decode(strings.NewReader(doc), "yaml")
	require.NoError(t, err)
	req, err := sc.MinimumTimeRequest()
	require.NoError(t, err)
	pf, err := pathfinder.New(pathfinder.Config{}, nil)
	require.NoError(t, err)
	res, err := pf.MinimumTime(req)
	require.NoError(t, err)
	require.True(t, res.Feasible)
	assert.InDelta(t, 3.0, sc.Offset(res.FinishTime()), 1e-9)
}
