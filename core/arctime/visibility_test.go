package arctime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/kilianp07/trajplan/core/motion"
)

func TestCheckDegenerateProbe(t *testing.T) {
	c := NewVisibilityChecker(buildRegions(t, uTurn(), crossing(t)))
	blocked := []r2.Vec{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 1, Y: 1.5}, {X: 1.5, Y: 1.5}, {X: 7, Y: 9}}
	for _, p := range blocked {
		assert.False(t, c.Check(p, p), "%v", p)
	}
	assert.True(t, c.Check(r2.Vec{X: 0.5, Y: 0.5}, r2.Vec{X: 0.5, Y: 0.5}))
}

func TestCheckSegments(t *testing.T) {
	c := NewVisibilityChecker(buildRegions(t, uTurn(), crossing(t)))
	tests := []struct {
		name string
		p, q r2.Vec
		want bool
	}{
		{"through first region", r2.Vec{}, r2.Vec{X: 3, Y: 3}, false},
		{"to corner", r2.Vec{}, r2.Vec{X: 1, Y: 2}, true},
		{"between corners", r2.Vec{X: 1, Y: 2}, r2.Vec{X: 7, Y: 9}, true},
		{"along bottom edge", r2.Vec{X: 0, Y: 1}, r2.Vec{X: 3, Y: 1}, true},
		{"along left edge", r2.Vec{X: 7, Y: 8}, r2.Vec{X: 7, Y: 9}, true},
		{"into second region", r2.Vec{X: 1, Y: 2}, r2.Vec{X: 9, Y: 11}, false},
		{"corner to corner diagonal", r2.Vec{X: 1, Y: 1}, r2.Vec{X: 2, Y: 2}, false},
		{"wait beside region", r2.Vec{X: 1, Y: 0}, r2.Vec{X: 1, Y: 5}, true},
		{"wait inside region", r2.Vec{X: 1.5, Y: 0}, r2.Vec{X: 1.5, Y: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Check(tt.p, tt.q))
		})
	}
}

func TestCheckTimeIntervals(t *testing.T) {
	path := motion.MustSpatialPath(r2.Vec{})
	o := unitObstacle(t, waypoint{-5, 0, 0}, waypoint{5, 0, 10})
	c := NewVisibilityChecker(buildRegions(t, path, o))

	assert.True(t, c.Check(r2.Vec{}, r2.Vec{Y: 4.5}))
	assert.False(t, c.Check(r2.Vec{Y: 4.5}, r2.Vec{Y: 4.5}))
	assert.False(t, c.Check(r2.Vec{}, r2.Vec{Y: 5}))
	assert.False(t, c.Check(r2.Vec{Y: 5}, r2.Vec{Y: 5.2}))
	assert.True(t, c.Check(r2.Vec{Y: 5.5}, r2.Vec{Y: 10}))
}

func TestCornersSortedUnique(t *testing.T) {
	c := NewVisibilityChecker(buildRegions(t, uTurn(), crossing(t), crossing(t)))
	assert.Equal(t, 4, c.Len())
	assert.Len(t, c.Corners(), 8)
}
