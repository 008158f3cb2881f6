// Package polyhedron holds the faceted approximation of a surface consumed
// by the intersection engine. Vertices carry the (u, v) parameters they were
// sampled at so that intersection points can be mapped back to each
// surface's parameter space.
package polyhedron

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Provider is read access to a triangulated surface approximation.
// Implementations must be safe for concurrent reads.
type Provider interface {
	NbTriangles() int
	// Triangle returns the vertex indices of triangle i.
	Triangle(i int) (a, b, c int)
	// Vertex returns the position and surface parameters of vertex i.
	Vertex(i int) (v3.Vec, v2.Vec)
}

// Polyhedron is an immutable triangle mesh stored as flat arrays indexed by
// integer handles. Nodes and UVs are parallel arrays.
type Polyhedron struct {
	Nodes      []v3.Vec   `json:"nodes"`
	UVs        []v2.Vec   `json:"uvs"`
	Triangles  [][3]int32 `json:"triangles"`
	Deflection float64    `json:"deflection"` // chordal tolerance of the approximation

	box sdf.Box3
}

// Compile-time interface check.
var _ Provider = (*Polyhedron)(nil)

// New builds a Polyhedron, checking that every triangle references an
// existing vertex.
func New(nodes []v3.Vec, uvs []v2.Vec, tris [][3]int32, deflection float64) (*Polyhedron, error) {
	if len(nodes) != len(uvs) {
		return nil, fmt.Errorf("polyhedron: %d nodes but %d uvs", len(nodes), len(uvs))
	}
	for i, t := range tris {
		for _, idx := range t {
			if idx < 0 || int(idx) >= len(nodes) {
				return nil, fmt.Errorf("polyhedron: triangle %d references vertex %d of %d", i, idx, len(nodes))
			}
		}
	}
	p := &Polyhedron{Nodes: nodes, UVs: uvs, Triangles: tris, Deflection: deflection}
	p.box = Bounds(p)
	return p, nil
}

// NbVertices returns the number of vertices.
func (p *Polyhedron) NbVertices() int {
	return len(p.Nodes)
}

// NbTriangles returns the number of triangles.
func (p *Polyhedron) NbTriangles() int {
	return len(p.Triangles)
}

// Triangle returns the vertex indices of triangle i.
func (p *Polyhedron) Triangle(i int) (int, int, int) {
	t := p.Triangles[i]
	return int(t[0]), int(t[1]), int(t[2])
}

// Vertex returns the position and parameters of vertex i.
func (p *Polyhedron) Vertex(i int) (v3.Vec, v2.Vec) {
	return p.Nodes[i], p.UVs[i]
}

// IsEmpty returns true if the polyhedron has no triangles.
func (p *Polyhedron) IsEmpty() bool {
	return len(p.Triangles) == 0
}

// BoundingBox returns the box of all triangle vertices.
func (p *Polyhedron) BoundingBox() sdf.Box3 {
	return p.box
}

// Clone returns a deep copy.
func (p *Polyhedron) Clone() *Polyhedron {
	c := &Polyhedron{
		Nodes:      append([]v3.Vec(nil), p.Nodes...),
		UVs:        append([]v2.Vec(nil), p.UVs...),
		Triangles:  append([][3]int32(nil), p.Triangles...),
		Deflection: p.Deflection,
		box:        p.box,
	}
	return c
}

// ---------------------------------------------------------------------------
// Provider helpers
// ---------------------------------------------------------------------------

// Corners returns the three vertex positions of triangle i.
func Corners(p Provider, i int) [3]v3.Vec {
	a, b, c := p.Triangle(i)
	pa, _ := p.Vertex(a)
	pb, _ := p.Vertex(b)
	pc, _ := p.Vertex(c)
	return [3]v3.Vec{pa, pb, pc}
}

// Bounds returns the bounding box of every vertex referenced by a triangle
// of p. A provider with no triangles yields an inverted box (Min > Max).
func Bounds(p Provider) sdf.Box3 {
	inf := math.Inf(1)
	box := sdf.Box3{Min: v3.Vec{X: inf, Y: inf, Z: inf}, Max: v3.Vec{X: -inf, Y: -inf, Z: -inf}}
	for i := 0; i < p.NbTriangles(); i++ {
		for _, c := range Corners(p, i) {
			box.Min = box.Min.Min(c)
			box.Max = box.Max.Max(c)
		}
	}
	return box
}

// LongestEdge returns the length of the longest edge of triangle i.
func LongestEdge(p Provider, i int) float64 {
	c := Corners(p, i)
	l := c[1].Sub(c[0]).Length()
	l = math.Max(l, c[2].Sub(c[1]).Length())
	return math.Max(l, c[0].Sub(c[2]).Length())
}

// MeanLongestEdge averages LongestEdge over all non-degenerate triangles.
func MeanLongestEdge(p Provider) float64 {
	var sum float64
	var n int
	for i := 0; i < p.NbTriangles(); i++ {
		if l := LongestEdge(p, i); l > 0 {
			sum += l
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Degenerate reports whether triangle i has (relative) area at most eps:
// twice its area divided by the squared longest edge.
func Degenerate(p Provider, i int, eps float64) bool {
	c := Corners(p, i)
	l := LongestEdge(p, i)
	if l == 0 {
		return true
	}
	a2 := c[1].Sub(c[0]).Cross(c[2].Sub(c[0])).Length()
	return a2 <= eps*l*l
}
