package arctime

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/spatial/r2"
)

// speedSlack tolerates rounding in edges that run exactly at max velocity.
const speedSlack = 1e-9

// ErrInvalidMesh is returned for unusable mesh settings.
var ErrInvalidMesh = errors.New("invalid mesh configuration")

// MeshStrategy selects how edges are discovered.
type MeshStrategy int

const (
	// MeshEager checks every vertex pair when the mesh is built.
	MeshEager MeshStrategy = iota
	// MeshLazy checks a vertex's edges when the search first leaves it and
	// adds stop edges where a direct move is blocked.
	MeshLazy
)

func (s MeshStrategy) String() string {
	switch s {
	case MeshEager:
		return "eager"
	case MeshLazy:
		return "lazy"
	}
	return fmt.Sprintf("MeshStrategy(%d)", int(s))
}

// ParseMeshStrategy accepts "eager" or "lazy".
func ParseMeshStrategy(s string) (MeshStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eager":
		return MeshEager, nil
	case "lazy", "":
		return MeshLazy, nil
	}
	return 0, fmt.Errorf("%w: unknown mesh strategy %q", ErrInvalidMesh, s)
}

// Bounds is the closed arc-time rectangle vertices must lie in.
type Bounds struct {
	MinArc, MaxArc   float64
	MinTime, MaxTime float64
}

func (b Bounds) Contains(v r2.Vec) bool {
	return v.X >= b.MinArc && v.X <= b.MaxArc && v.Y >= b.MinTime && v.Y <= b.MaxTime
}

// WeightFunc prices a straight move between two arc-time points. It must not
// return a negative value for forward moves.
type WeightFunc func(from, to r2.Vec) float64

// EuclideanWeight is the length of the move in the arc-time plane.
func EuclideanWeight(from, to r2.Vec) float64 { return r2.Norm(r2.Sub(to, from)) }

// ArcWeight charges distance travelled only; waiting is free.
func ArcWeight(from, to r2.Vec) float64 { return to.X - from.X }

// ParseWeight accepts "euclidean" or "arc".
func ParseWeight(name string) (WeightFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "euclidean", "":
		return EuclideanWeight, nil
	case "arc":
		return ArcWeight, nil
	}
	return nil, fmt.Errorf("%w: unknown weight %q", ErrInvalidMesh, name)
}

// MeshConfig parameterises a Mesh.
type MeshConfig struct {
	Strategy        MeshStrategy
	MaxVelocity     float64
	LazyVelocity    float64
	MinStopDuration float64
	Bounds          Bounds
	Weight          WeightFunc
	// MaxExpansions caps the number of vertices whose edges get computed.
	// Zero means no cap.
	MaxExpansions int
}

func (c MeshConfig) validate() error {
	if !(c.MaxVelocity > 0) || math.IsInf(c.MaxVelocity, 0) {
		return fmt.Errorf("%w: max velocity must be positive, got %g", ErrInvalidMesh, c.MaxVelocity)
	}
	if c.Strategy == MeshLazy && (c.LazyVelocity < 0 || c.LazyVelocity >= c.MaxVelocity) {
		return fmt.Errorf("%w: lazy velocity %g outside [0, %g)", ErrInvalidMesh, c.LazyVelocity, c.MaxVelocity)
	}
	if c.MinStopDuration < 0 || c.MaxExpansions < 0 {
		return fmt.Errorf("%w: negative limits", ErrInvalidMesh)
	}
	return nil
}

type vertexKind uint8

const (
	kindStart vertexKind = iota
	kindCorner
	kindFinish
	kindStop
)

type edgeKey struct{ from, to int64 }

// Mesh is a directed graph of feasible arc-time moves. It implements
// traverse.Graph and path.Weighted so gonum's Dijkstra can walk it while it
// is being discovered. A Mesh is scratch state for a single planning call.
type Mesh struct {
	cfg     MeshConfig
	checker *VisibilityChecker

	points   []r2.Vec
	kinds    []vertexKind
	adj      [][]int64
	expanded []bool
	weights  map[edgeKey]float64
	stops    map[int64]int64
	finishes []int64
	static   int

	expansions int
	truncated  bool
}

// NewMesh creates the vertex set: the start, the corners inside the bounds
// and the finish candidates ordered by time.
func NewMesh(cfg MeshConfig, checker *VisibilityChecker, start r2.Vec, corners, finishes []r2.Vec) (*Mesh, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Weight == nil {
		cfg.Weight = EuclideanWeight
	}
	if checker == nil {
		checker = NewVisibilityChecker(nil)
	}
	m := &Mesh{
		cfg:     cfg,
		checker: checker,
		weights: make(map[edgeKey]float64),
		stops:   make(map[int64]int64),
	}
	m.add(start, kindStart)
	for _, c := range uniqueSorted(append([]r2.Vec(nil), corners...)) {
		if c != start && cfg.Bounds.Contains(c) {
			m.add(c, kindCorner)
		}
	}
	fs := append([]r2.Vec(nil), finishes...)
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].Y != fs[j].Y {
			return fs[i].Y < fs[j].Y
		}
		return fs[i].X < fs[j].X
	})
	for i, f := range fs {
		if i > 0 && f == fs[i-1] {
			continue
		}
		m.finishes = append(m.finishes, m.add(f, kindFinish))
	}
	m.static = len(m.points)
	if cfg.Strategy == MeshEager {
		for id := int64(0); id < int64(m.static); id++ {
			m.expand(id)
		}
	}
	return m, nil
}

func (m *Mesh) add(v r2.Vec, k vertexKind) int64 {
	id := int64(len(m.points))
	m.points = append(m.points, v)
	m.kinds = append(m.kinds, k)
	m.adj = append(m.adj, nil)
	m.expanded = append(m.expanded, false)
	return id
}

// Start returns the start vertex id.
func (m *Mesh) Start() int64 { return 0 }

// Finishes returns the finish vertex ids ordered by time.
func (m *Mesh) Finishes() []int64 { return append([]int64(nil), m.finishes...) }

// Point returns the arc-time position of a vertex.
func (m *Mesh) Point(id int64) r2.Vec { return m.points[id] }

// Len returns the number of vertices created so far.
func (m *Mesh) Len() int { return len(m.points) }

// Expansions returns how many vertices had their edges computed.
func (m *Mesh) Expansions() int { return m.expansions }

// Truncated reports whether MaxExpansions stopped the discovery.
func (m *Mesh) Truncated() bool { return m.truncated }

// From returns the successors of id, discovering them on first use.
func (m *Mesh) From(id int64) graph.Nodes {
	if id < 0 || id >= int64(len(m.points)) {
		return graph.Empty
	}
	m.expand(id)
	succ := m.adj[id]
	if len(succ) == 0 {
		return graph.Empty
	}
	nodes := make([]graph.Node, len(succ))
	for i, v := range succ {
		nodes[i] = simple.Node(v)
	}
	return iterator.NewOrderedNodes(nodes)
}

// Edge returns the weighted edge from uid to vid if it has been discovered.
func (m *Mesh) Edge(uid, vid int64) graph.Edge {
	w, ok := m.weights[edgeKey{uid, vid}]
	if !ok {
		return nil
	}
	return simple.WeightedEdge{F: simple.Node(uid), T: simple.Node(vid), W: w}
}

// Weight implements path.Weighted.
func (m *Mesh) Weight(xid, yid int64) (float64, bool) {
	if xid == yid {
		return 0, true
	}
	w, ok := m.weights[edgeKey{xid, yid}]
	return w, ok
}

func (m *Mesh) expand(id int64) {
	if m.expanded[id] {
		return
	}
	m.expanded[id] = true
	switch m.kinds[id] {
	case kindFinish:
		return
	case kindStop:
		m.link(id, m.stops[id])
		return
	}
	if m.cfg.MaxExpansions > 0 && m.expansions >= m.cfg.MaxExpansions {
		m.truncated = true
		return
	}
	m.expansions++
	u := m.points[id]
	for vid := int64(0); vid < int64(m.static); vid++ {
		if vid == id || m.kinds[vid] == kindStart {
			continue
		}
		v := m.points[vid]
		if !m.reachable(u, v) {
			continue
		}
		if m.checker.Check(u, v) {
			m.link(id, vid)
			continue
		}
		if m.cfg.Strategy == MeshLazy {
			m.stopEdge(id, vid)
		}
	}
}

// reachable checks the ordering, speed and bounds conditions of a move.
func (m *Mesh) reachable(u, v r2.Vec) bool {
	dt, ds := v.Y-u.Y, v.X-u.X
	if dt <= 0 || ds < 0 {
		return false
	}
	if !m.cfg.Bounds.Contains(u) || !m.cfg.Bounds.Contains(v) {
		return false
	}
	return ds <= m.cfg.MaxVelocity*dt+speedSlack*math.Max(1, ds)
}

// stopEdge tries to reach v by moving at the lazy velocity for a while and
// then at max velocity. The intermediate stop becomes a vertex with a single
// edge to v.
func (m *Mesh) stopEdge(uid, vid int64) {
	u, v := m.points[uid], m.points[vid]
	vmax, lv := m.cfg.MaxVelocity, m.cfg.LazyVelocity
	dt, ds := v.Y-u.Y, v.X-u.X
	d := (vmax*dt - ds) / (vmax - lv)
	if d <= 0 || d >= dt || d < m.cfg.MinStopDuration {
		return
	}
	w := r2.Vec{X: math.Min(u.X+lv*d, v.X), Y: u.Y + d}
	if !m.cfg.Bounds.Contains(w) || !m.checker.Check(u, w) || !m.checker.Check(w, v) {
		return
	}
	wid := m.add(w, kindStop)
	m.stops[wid] = vid
	m.link(uid, wid)
}

func (m *Mesh) link(uid, vid int64) {
	w := m.cfg.Weight(m.points[uid], m.points[vid])
	if w < 0 || math.IsNaN(w) {
		w = 0
	}
	m.weights[edgeKey{uid, vid}] = w
	m.adj[uid] = append(m.adj[uid], vid)
}
