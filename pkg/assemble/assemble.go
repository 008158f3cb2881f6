// Package assemble chains the unordered segments produced by triangle
// intersection into ordered polylines.
//
// Segment endpoints closer than the chaining tolerance are merged into
// nodes. Each line grows from a seed segment at its tail and then its head.
// Where several unused segments leave a node, the line continues along the
// one with the smallest turning angle and the others seed later lines. The
// result is deterministic for a given input order.
package assemble

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/chazu/kerf/pkg/curve"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrDegenerate is returned when segments were supplied but no line could
// be formed from them.
var ErrDegenerate = errors.New("assemble: intersection degenerate")

// State is the lifecycle of a line under construction.
type State int

const (
	Open State = iota
	Closed
	Abandoned
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Abandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Stats counts what Assemble did.
type Stats struct {
	Nodes      int
	Edges      int // distinct non-degenerate segments
	Duplicates int // segments dropped as duplicates of an edge
	Collapsed  int // segments shorter than the tolerance
	Branches   int // nodes where a line had more than one way on
	Abandoned  int
	Isolated   int // single-point lines
	Singular   int // singular points merged into a line
}

type options struct {
	singular    []singular
	singularTol float64
}

// singular is a caller-supplied point; uv is set when its parameters are
// known to be exact.
type singular struct {
	p  curve.Point
	uv bool
}

// Option configures Assemble.
type Option func(*options)

// WithSingular supplies points (poles, seams, apexes) that must appear as
// vertices of any line passing within tolerance of them. Their parameters
// are interpolated from the line.
func WithSingular(pts ...curve.Point) Option {
	return func(o *options) {
		for _, p := range pts {
			o.singular = append(o.singular, singular{p: p})
		}
	}
}

// WithSingularUV is WithSingular for points whose UVA and UVB are exact;
// they replace the parameters of the vertex they land on.
func WithSingularUV(pts ...curve.Point) Option {
	return func(o *options) {
		for _, p := range pts {
			o.singular = append(o.singular, singular{p: p, uv: true})
		}
	}
}

// WithSingularTolerance sets the reach of singular points. It defaults to
// the chaining tolerance.
func WithSingularTolerance(tol float64) Option {
	return func(o *options) { o.singularTol = tol }
}

type edge struct {
	n0, n1 int
}

func (e edge) other(n int) int {
	if e.n0 == n {
		return e.n1
	}
	return e.n0
}

// assembler holds the working state of one Assemble call.
type assembler struct {
	tol   float64
	nsegs int
	ends  []curve.Endpoint // every endpoint, segments first then contact points
	node  []int            // endpoint -> node
	reps  []int            // node -> representative endpoint
	edges []edge
	adj   [][]int // node -> incident edges
	used  []bool
	stats Stats
}

// Assemble chains segs into lines. points are isolated contact points
// (point-like triangle intersections); those not lying on a line become
// single-point lines. tol is the chaining tolerance. The returned set holds
// every line formed, even when an error is returned.
func Assemble(segs []curve.Segment, points []curve.Endpoint, tol float64, opts ...Option) (*curve.Set, Stats, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	set := curve.NewSet()
	if !(tol > 0) {
		return set, Stats{}, fmt.Errorf("assemble: invalid tolerance %g", tol)
	}
	if len(segs) == 0 && len(points) == 0 {
		return set, Stats{}, nil
	}

	a := &assembler{tol: tol}
	a.index(segs, points)

	onLine := make([]bool, len(a.reps))
	for seed := range a.edges {
		if a.used[seed] {
			continue
		}
		nodes, state := a.grow(seed)
		pts := a.points(nodes)
		// A line no longer than twice the tolerance cannot be told apart
		// from a point.
		if state != Closed && polylineLength(pts) <= 2*tol {
			state = Abandoned
		}
		if state == Abandoned {
			a.stats.Abandoned++
			continue
		}
		for _, n := range nodes {
			onLine[n] = true
		}
		set.Add(pts, state == Closed)
	}

	a.isolated(set, onLine)

	reach := o.singularTol
	if !(reach > 0) {
		reach = tol
	}
	for _, s := range o.singular {
		if mergeSingular(set, s, reach) {
			a.stats.Singular++
		}
	}

	if a.stats.Edges > 0 && set.NbLines() == 0 {
		return set, a.stats, fmt.Errorf("%w: %d segments, %d abandoned", ErrDegenerate, len(segs), a.stats.Abandoned)
	}
	return set, a.stats, nil
}

// index clusters all endpoints into nodes and builds the deduplicated edge
// graph.
func (a *assembler) index(segs []curve.Segment, points []curve.Endpoint) {
	a.nsegs = len(segs)
	a.ends = make([]curve.Endpoint, 0, 2*len(segs)+len(points))
	for _, s := range segs {
		a.ends = append(a.ends, s.Ends[0], s.Ends[1])
	}
	a.ends = append(a.ends, points...)

	pos := make([]v3.Vec, len(a.ends))
	for i, e := range a.ends {
		pos[i] = e.P
	}
	a.node, a.reps = cluster(pos, a.tol)
	a.stats.Nodes = len(a.reps)
	a.adj = make([][]int, len(a.reps))

	seen := make(map[[2]int]bool)
	for i := range segs {
		n0, n1 := a.node[2*i], a.node[2*i+1]
		if n0 == n1 {
			a.stats.Collapsed++
			continue
		}
		k := [2]int{min(n0, n1), max(n0, n1)}
		if seen[k] {
			a.stats.Duplicates++
			continue
		}
		seen[k] = true
		id := len(a.edges)
		a.edges = append(a.edges, edge{n0: n0, n1: n1})
		a.adj[n0] = append(a.adj[n0], id)
		a.adj[n1] = append(a.adj[n1], id)
	}
	a.used = make([]bool, len(a.edges))
	a.stats.Edges = len(a.edges)
}

// grow builds one line from a seed edge, extending its tail and then its
// head.
func (a *assembler) grow(seed int) ([]int, State) {
	a.used[seed] = true
	e := a.edges[seed]
	nodes := []int{e.n0, e.n1}

	nodes, closed := a.extend(nodes)
	if closed {
		return nodes, Closed
	}
	slices.Reverse(nodes)
	nodes, closed = a.extend(nodes)
	slices.Reverse(nodes)
	if closed {
		return nodes, Closed
	}
	return nodes, Open
}

// extend appends nodes at the tail of the line until no unused edge
// leaves it or the line returns to its first node.
func (a *assembler) extend(nodes []int) ([]int, bool) {
	for {
		tail := nodes[len(nodes)-1]
		prev := nodes[len(nodes)-2]
		next, ok := a.pick(prev, tail)
		if !ok {
			return nodes, false
		}
		nodes = append(nodes, a.edges[next].other(tail))
		if nodes[len(nodes)-1] == nodes[0] {
			return nodes, true
		}
	}
}

// pick chooses the unused edge at tail that turns least relative to the
// incoming direction prev -> tail, and marks it used.
func (a *assembler) pick(prev, tail int) (int, bool) {
	in := a.pos(tail).Sub(a.pos(prev))
	best, bestAngle, candidates := -1, math.Inf(1), 0
	for _, id := range a.adj[tail] {
		if a.used[id] {
			continue
		}
		candidates++
		out := a.pos(a.edges[id].other(tail)).Sub(a.pos(tail))
		if ang := turning(in, out); ang < bestAngle {
			best, bestAngle = id, ang
		}
	}
	if best < 0 {
		return 0, false
	}
	if candidates > 1 {
		a.stats.Branches++
	}
	a.used[best] = true
	return best, true
}

// turning returns the angle between two directions, in [0, pi].
func turning(in, out v3.Vec) float64 {
	l := in.Length() * out.Length()
	if l == 0 {
		return math.Pi
	}
	c := in.Dot(out) / l
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

func (a *assembler) pos(n int) v3.Vec {
	return a.ends[a.reps[n]].P
}

func (a *assembler) points(nodes []int) []curve.Point {
	pts := make([]curve.Point, len(nodes))
	for i, n := range nodes {
		pts[i] = a.ends[a.reps[n]].Point()
	}
	return pts
}

// isolated turns nodes of contact points that no line passes through into
// single-point lines. Endpoints of collapsed segments count as contact
// points. Contact points within tol of an existing line are absorbed by it.
func (a *assembler) isolated(set *curve.Set, onLine []bool) {
	done := make([]bool, len(a.reps))
	for i := range a.ends {
		n := a.node[i]
		if onLine[n] || done[n] {
			continue
		}
		if i < 2*a.nsegs && !a.collapsed(i) {
			continue
		}
		done[n] = true
		p := a.ends[a.reps[n]]
		if nearAnyLine(set, p.P, a.tol) {
			continue
		}
		set.Add([]curve.Point{p.Point()}, false)
		a.stats.Isolated++
	}
}

// collapsed reports whether endpoint i belongs to a segment whose ends
// share a node.
func (a *assembler) collapsed(i int) bool {
	j := i ^ 1
	return a.node[i] == a.node[j]
}

func nearAnyLine(set *curve.Set, p v3.Vec, tol float64) bool {
	for i := 0; i < set.NbLines(); i++ {
		pts := set.Points(i)
		if len(pts) == 1 && pts[0].P.Sub(p).Length() <= tol {
			return true
		}
		for k := 1; k < len(pts); k++ {
			if _, d := project(p, pts[k-1].P, pts[k].P); d <= tol {
				return true
			}
		}
	}
	return false
}

// project returns the parameter in [0, 1] of the point of segment ab
// closest to p, and the distance to it.
func project(p, a, b v3.Vec) (float64, float64) {
	ab := b.Sub(a)
	l2 := ab.Length2()
	if l2 == 0 {
		return 0, p.Sub(a).Length()
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
	return t, p.Sub(a.Add(ab.MulScalar(t))).Length()
}

func polylineLength(pts []curve.Point) float64 {
	var sum float64
	for k := 1; k < len(pts); k++ {
		sum += pts[k].P.Sub(pts[k-1].P).Length()
	}
	return sum
}
