package motion

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/kilianp07/trajplan/core/geom"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func at(sec float64) time.Time { return epoch.Add(Duration(sec)) }

func uTurn() SpatialPath {
	return MustSpatialPath(r2.Vec{X: 1, Y: 4}, r2.Vec{X: 4, Y: 4}, r2.Vec{X: 4, Y: 1}, r2.Vec{X: 1, Y: 1})
}

func TestSpatialPathArcs(t *testing.T) {
	p := uTurn()
	assert.Equal(t, 9.0, p.Length())
	assert.Equal(t, 3, p.NumSegments())
	assert.Equal(t, Segment{From: r2.Vec{X: 4, Y: 4}, To: r2.Vec{X: 4, Y: 1}, StartArc: 3, FinishArc: 6}, p.Segment(1))

	assert.Equal(t, r2.Vec{X: 1, Y: 4}, p.Interpolate(-1))
	assert.Equal(t, r2.Vec{X: 2.5, Y: 4}, p.Interpolate(1.5))
	assert.Equal(t, r2.Vec{X: 4, Y: 4}, p.Interpolate(3))
	assert.Equal(t, r2.Vec{X: 4, Y: 2}, p.Interpolate(5))
	assert.Equal(t, r2.Vec{X: 1, Y: 1}, p.Interpolate(42))
}

func TestSpatialPathErrors(t *testing.T) {
	_, err := NewSpatialPath()
	assert.ErrorIs(t, err, ErrEmptyPath)
	_, err = NewSpatialPath(r2.Vec{X: math.Inf(1)})
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestSubPath(t *testing.T) {
	p := uTurn()
	sub, err := p.SubPath(1, 7)
	require.NoError(t, err)
	assert.Equal(t, []r2.Vec{{X: 2, Y: 4}, {X: 4, Y: 4}, {X: 4, Y: 1}, {X: 3, Y: 1}}, sub.Points())
	assert.InDelta(t, 6.0, sub.Length(), 1e-12)

	point, err := p.SubPath(3, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, point.Len())

	_, err = p.SubPath(2, 1)
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestTraceDropsDuplicates(t *testing.T) {
	p := MustSpatialPath(r2.Vec{}, r2.Vec{}, r2.Vec{X: 1}, r2.Vec{X: 1}, r2.Vec{X: 2})
	assert.Equal(t, []r2.Vec{{}, {X: 1}, {X: 2}}, p.Trace())
	assert.Equal(t, r2.Vec{X: 1}, p.Interpolate(1))
}

func TestArcTimePathValidation(t *testing.T) {
	_, err := NewArcTimePath(r2.Vec{}, r2.Vec{X: 1, Y: 1}, r2.Vec{X: 1, Y: 3})
	require.NoError(t, err)

	tests := map[string][]r2.Vec{
		"arc backwards":  {{X: 2, Y: 0}, {X: 1, Y: 1}},
		"time backwards": {{X: 0, Y: 2}, {X: 1, Y: 1}},
		"instant move":   {{X: 0, Y: 1}, {X: 1, Y: 1}},
	}
	for name, pts := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewArcTimePath(pts...)
			assert.ErrorIs(t, err, ErrInvalidPath)
		})
	}
	_, err = NewArcTimePath()
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestTrajectoryValidation(t *testing.T) {
	_, err := NewTrajectory()
	assert.ErrorIs(t, err, ErrInvalidTrajectory)
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = NewTrajectory(
		TrajectoryPoint{Location: r2.Vec{}, Time: at(1)},
		TrajectoryPoint{Location: r2.Vec{X: 1}, Time: at(0)},
	)
	assert.ErrorIs(t, err, ErrInvalidTrajectory)

	_, err = NewTrajectory(
		TrajectoryPoint{Location: r2.Vec{}, Time: at(1)},
		TrajectoryPoint{Location: r2.Vec{X: 1}, Time: at(1)},
	)
	assert.ErrorIs(t, err, ErrInvalidTrajectory)
}

func TestTrajectoryInterpolate(t *testing.T) {
	tr := MustTrajectory(
		TrajectoryPoint{Location: r2.Vec{X: 2.5, Y: 5.5}, Time: at(0)},
		TrajectoryPoint{Location: r2.Vec{X: 2.5, Y: 2.5}, Time: at(3)},
		TrajectoryPoint{Location: r2.Vec{X: 2.5, Y: 2.5}, Time: at(7)},
		TrajectoryPoint{Location: r2.Vec{X: 2.5, Y: -0.5}, Time: at(10)},
	)
	loc, ok := tr.Interpolate(at(1.5))
	require.True(t, ok)
	assert.InDelta(t, 4.0, loc.Y, 1e-9)

	loc, ok = tr.Interpolate(at(5))
	require.True(t, ok)
	assert.Equal(t, r2.Vec{X: 2.5, Y: 2.5}, loc)

	_, ok = tr.Interpolate(at(10.5))
	assert.False(t, ok)
	assert.InDelta(t, 1.0, tr.MaxSpeed(), 1e-9)
	assert.Equal(t, 10*time.Second, tr.Duration())
}

func TestDecomposeRoundTrip(t *testing.T) {
	tr := MustTrajectory(
		TrajectoryPoint{Location: r2.Vec{X: 0, Y: 0}, Time: at(1)},
		TrajectoryPoint{Location: r2.Vec{X: 3, Y: 4}, Time: at(6)},
		TrajectoryPoint{Location: r2.Vec{X: 3, Y: 4}, Time: at(8)},
	)
	d, err := tr.Decompose()
	require.NoError(t, err)
	assert.Equal(t, at(1), d.BaseTime())
	assert.Equal(t, []r2.Vec{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 5, Y: 7}}, d.ArcTimePath().Points())
	assert.Equal(t, tr.Points(), d.Composed().Points())
}

func TestComposedBreakpoints(t *testing.T) {
	at5, err := NewArcTimePath(r2.Vec{X: 0, Y: 0}, r2.Vec{X: 1, Y: 2}, r2.Vec{X: 7, Y: 9}, r2.Vec{X: 9, Y: 11})
	require.NoError(t, err)
	d, err := NewDecomposedTrajectory(epoch, uTurn(), at5)
	require.NoError(t, err)

	got := d.Composed()
	wantTimes := []float64{0, 2, 13.0 / 3, 47.0 / 6, 9, 11}
	wantLocs := []r2.Vec{{X: 1, Y: 4}, {X: 2, Y: 4}, {X: 4, Y: 4}, {X: 4, Y: 1}, {X: 3, Y: 1}, {X: 1, Y: 1}}
	require.Equal(t, len(wantTimes), got.Len())
	for i := range wantTimes {
		p := got.Point(i)
		assert.InDelta(t, wantTimes[i], p.Time.Sub(epoch).Seconds(), 1e-9)
		assert.InDelta(t, wantLocs[i].X, p.Location.X, 1e-9)
		assert.InDelta(t, wantLocs[i].Y, p.Location.Y, 1e-9)
	}
	assert.Equal(t, d.StartTime(), got.StartTime())
	assert.Equal(t, uTurn().Trace(), simplify(got.Trace()))
	assert.LessOrEqual(t, got.MaxSpeed(), 1+1e-9)
}

func TestComposedStartOffset(t *testing.T) {
	prof, err := NewArcTimePath(r2.Vec{X: 0, Y: 2.5}, r2.Vec{X: 0, Y: 4}, r2.Vec{X: 9, Y: 13})
	require.NoError(t, err)
	d, err := NewDecomposedTrajectory(epoch, uTurn(), prof)
	require.NoError(t, err)
	c := d.Composed()
	assert.Equal(t, epoch.Add(2500*time.Millisecond), c.StartTime())
	assert.Equal(t, d.StartTime(), c.StartTime())
	assert.Equal(t, uTurn().Trace(), c.Trace())
}

func TestComposedConcurrentReaders(t *testing.T) {
	prof, err := NewArcTimePath(r2.Vec{}, r2.Vec{X: 9, Y: 9})
	require.NoError(t, err)
	d, err := NewDecomposedTrajectory(epoch, uTurn(), prof)
	require.NoError(t, err)

	var wg sync.WaitGroup
	lens := make([]int, 8)
	for i := range lens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lens[i] = d.Composed().Len()
		}(i)
	}
	wg.Wait()
	for _, n := range lens {
		assert.Equal(t, 4, n)
	}
}

func TestDecomposedRejectsProfileBeyondPath(t *testing.T) {
	prof, err := NewArcTimePath(r2.Vec{}, r2.Vec{X: 10, Y: 10})
	require.NoError(t, err)
	_, err = NewDecomposedTrajectory(epoch, uTurn(), prof)
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestDynamicObstacleValidate(t *testing.T) {
	tr := MustTrajectory(TrajectoryPoint{Time: epoch})
	_, err := NewDynamicObstacle(nil, tr)
	assert.ErrorIs(t, err, ErrInvalidObstacle)

	_, err = NewDynamicObstacle(geom.Polygon{{X: 0, Y: 0}, {X: 1, Y: 0}}, tr)
	assert.True(t, errors.Is(err, ErrInvalidObstacle) && errors.Is(err, geom.ErrInvalidShape))

	_, err = NewDynamicObstacle(geom.Square(r2.Vec{}, 1), Trajectory{})
	assert.ErrorIs(t, err, ErrInvalidObstacle)

	_, err = NewDynamicObstacle(geom.Square(r2.Vec{}, 1), tr)
	assert.NoError(t, err)
}

// simplify drops vertices lying on the straight line through their
// neighbours.
func simplify(pts []r2.Vec) []r2.Vec {
	var out []r2.Vec
	for i, v := range pts {
		if i > 0 && i < len(pts)-1 && geom.Orient(out[len(out)-1], v, pts[i+1]) == 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}
