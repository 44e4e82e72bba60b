package arctime

import (
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/spatial/r2"
)

// Route is a vertex sequence found in a Mesh.
type Route struct {
	Points []r2.Vec
	Cost   float64
	Finish int64
}

// SearchFixed finds the cheapest route from the start to the given finish
// vertex. The search stops as soon as the finish is settled.
func SearchFixed(m *Mesh, finish int64) (Route, bool) {
	nodes, cost := path.DijkstraFromTo(simple.Node(m.Start()), simple.Node(finish), m)
	if len(nodes) == 0 || math.IsInf(cost, 1) {
		return Route{}, false
	}
	return Route{Points: m.positions(nodes), Cost: cost, Finish: finish}, true
}

// SearchEarliest finds the cheapest route to the earliest reachable finish
// vertex.
func SearchEarliest(m *Mesh) (Route, bool) {
	tree := path.DijkstraFrom(simple.Node(m.Start()), m)
	for _, f := range m.finishes {
		nodes, cost := tree.To(f)
		if len(nodes) == 0 || math.IsInf(cost, 1) {
			continue
		}
		return Route{Points: m.positions(nodes), Cost: cost, Finish: f}, true
	}
	return Route{}, false
}

func (m *Mesh) positions(nodes []graph.Node) []r2.Vec {
	pts := make([]r2.Vec, len(nodes))
	for i, n := range nodes {
		pts[i] = m.points[n.ID()]
	}
	return pts
}
