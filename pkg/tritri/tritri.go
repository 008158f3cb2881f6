// Package tritri computes the exact intersection of two triangles in 3D.
//
// The supporting planes are intersected to give a line, which is clipped by
// the three edge planes of each triangle. An edge plane contains the edge
// and the triangle normal. Whatever survives all six clips is the result.
// Parameters on each surface are interpolated barycentrically from the
// triangle corners.
package tritri

import (
	"math"

	"github.com/chazu/kerf/pkg/curve"
	"github.com/chazu/kerf/pkg/polyhedron"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Kind is the shape of an intersection.
type Kind int

const (
	None Kind = iota
	Point
	Segment
)

func (k Kind) String() string {
	switch k {
	case Point:
		return "point"
	case Segment:
		return "segment"
	default:
		return "none"
	}
}

// Status explains a None result.
type Status int

const (
	OK       Status = iota
	Disjoint        // no contact
	Unstable        // degenerate triangle or near-parallel planes in contact
	Coplanar        // supporting planes coincide within tolerance
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case Disjoint:
		return "disjoint"
	case Unstable:
		return "unstable"
	case Coplanar:
		return "coplanar"
	default:
		return "unknown"
	}
}

// Triangle is three corners with their surface parameters.
type Triangle struct {
	P  [3]v3.Vec
	UV [3]v2.Vec
}

// FromProvider reads triangle i of p.
func FromProvider(p polyhedron.Provider, i int) Triangle {
	a, b, c := p.Triangle(i)
	var t Triangle
	for k, idx := range [3]int{a, b, c} {
		t.P[k], t.UV[k] = p.Vertex(idx)
	}
	return t
}

// Tolerance controls the numerical decisions of Intersect.
type Tolerance struct {
	// Linear is the distance below which a point is considered on a plane.
	Linear float64
	// Point is the length below which a clipped segment collapses to a point.
	Point float64
	// Parallel is the sine of the angle below which planes are parallel.
	// Planes are also treated as parallel when the position of their
	// common line, uncertain by Linear/sine, would drift by more than
	// conditioning times the longest triangle edge.
	Parallel float64
	// Area is the relative area (twice the area over the squared longest
	// edge) below which a triangle is degenerate.
	Area float64
}

// DefaultTolerance returns tolerances suited to geometry of the given
// characteristic size.
func DefaultTolerance(scale float64) Tolerance {
	if !(scale > 0) {
		scale = 1
	}
	lin := 1e-10 * scale
	return Tolerance{Linear: lin, Point: 100 * lin, Parallel: 1e-9, Area: 1e-12}
}

// Result is the outcome of Intersect. For Point both ends are equal.
type Result struct {
	Kind   Kind
	Ends   [2]curve.Endpoint
	Status Status
}

// Intersect intersects ta (from surface A) with tb (from surface B). A
// Segment runs along nA x nB, where nA and nB are the triangle normals.
func Intersect(ta, tb Triangle, tol Tolerance) Result {
	na, okA := unitNormal(ta, tol.Area)
	nb, okB := unitNormal(tb, tol.Area)
	if !okA || !okB {
		return Result{Status: Unstable}
	}

	u := na.Cross(nb)
	s := u.Length()
	if s < tol.Parallel || s*conditioning*longestEdge(ta, tb) < tol.Linear {
		return Result{Status: parallelStatus(na, ta.P[0], tb, tol.Linear)}
	}

	// Point on both planes: p = (d1 (nb x u) + d2 (u x na)) / |u|^2.
	d1, d2 := na.Dot(ta.P[0]), nb.Dot(tb.P[0])
	p := nb.Cross(u).MulScalar(d1).Add(u.Cross(na).MulScalar(d2)).DivScalar(s * s)
	dir := u.DivScalar(s)

	lo, hi := math.Inf(-1), math.Inf(1)
	if !clip(&lo, &hi, p, dir, ta.P, na, tol.Linear) || !clip(&lo, &hi, p, dir, tb.P, nb, tol.Linear) {
		return Result{Status: Disjoint}
	}

	if hi-lo <= tol.Point {
		x := p.Add(dir.MulScalar((lo + hi) / 2))
		e := endpoint(x, ta, tb, tol)
		return Result{Kind: Point, Ends: [2]curve.Endpoint{e, e}}
	}
	x0 := p.Add(dir.MulScalar(lo))
	x1 := p.Add(dir.MulScalar(hi))
	return Result{Kind: Segment, Ends: [2]curve.Endpoint{endpoint(x0, ta, tb, tol), endpoint(x1, ta, tb, tol)}}
}

// parallelStatus decides between coplanar, apart and unstable contact for
// triangles with parallel planes.
func parallelStatus(n, origin v3.Vec, t Triangle, lin float64) Status {
	var on, above, below int
	for _, c := range t.P {
		d := n.Dot(c.Sub(origin))
		switch {
		case d > lin:
			above++
		case d < -lin:
			below++
		default:
			on++
		}
	}
	switch {
	case on == 3:
		return Coplanar
	case above == 3 || below == 3:
		return Disjoint
	default:
		return Unstable
	}
}

// conditioning is the fraction of a triangle's size the common line of two
// nearly parallel planes may be displaced by before Intersect gives up.
const conditioning = 1e-3

func longestEdge(ts ...Triangle) float64 {
	var l2 float64
	for _, t := range ts {
		for k := 0; k < 3; k++ {
			l2 = math.Max(l2, t.P[(k+1)%3].Sub(t.P[k]).Length2())
		}
	}
	return math.Sqrt(l2)
}

func unitNormal(t Triangle, areaTol float64) (v3.Vec, bool) {
	n := t.P[1].Sub(t.P[0]).Cross(t.P[2].Sub(t.P[0]))
	l := n.Length()
	longest := math.Max(t.P[1].Sub(t.P[0]).Length2(),
		math.Max(t.P[2].Sub(t.P[1]).Length2(), t.P[0].Sub(t.P[2]).Length2()))
	if l == 0 || l <= areaTol*longest {
		return v3.Vec{}, false
	}
	return n.DivScalar(l), true
}

// clip narrows [lo, hi] to the part of the line p + t*dir inside the three
// edge planes of the triangle with corners c and unit normal n, with slack
// tol. It reports false once the interval is empty.
func clip(lo, hi *float64, p, dir v3.Vec, c [3]v3.Vec, n v3.Vec, tol float64) bool {
	for i := 0; i < 3; i++ {
		a, b := c[i], c[(i+1)%3]
		e := b.Sub(a)
		el := e.Length()
		if el == 0 {
			continue
		}
		m := n.Cross(e).DivScalar(el) // inward
		slope := m.Dot(dir)
		off := m.Dot(p.Sub(a)) + tol
		if math.Abs(slope) < 1e-12 {
			if off < 0 {
				return false
			}
			continue
		}
		t := -off / slope
		if slope > 0 {
			*lo = math.Max(*lo, t)
		} else {
			*hi = math.Min(*hi, t)
		}
	}
	return *lo <= *hi
}

// endpoint builds a curve.Endpoint at x with parameters on both triangles.
func endpoint(x v3.Vec, ta, tb Triangle, tol Tolerance) curve.Endpoint {
	ba := barycentric(x, ta.P)
	bb := barycentric(x, tb.P)
	return curve.Endpoint{
		P:        x,
		UVA:      interpolate(ba, ta.UV),
		UVB:      interpolate(bb, tb.UV),
		OnVertex: nearVertex(x, ta.P, tol.Point) || nearVertex(x, tb.P, tol.Point),
	}
}

// barycentric returns the clamped barycentric coordinates of the projection
// of x onto the plane of c.
func barycentric(x v3.Vec, c [3]v3.Vec) [3]float64 {
	e0, e1, ep := c[1].Sub(c[0]), c[2].Sub(c[0]), x.Sub(c[0])
	d00, d01, d11 := e0.Dot(e0), e0.Dot(e1), e1.Dot(e1)
	d20, d21 := ep.Dot(e0), ep.Dot(e1)
	den := d00*d11 - d01*d01
	if den == 0 {
		return [3]float64{1, 0, 0}
	}
	v := (d11*d20 - d01*d21) / den
	w := (d00*d21 - d01*d20) / den
	b := [3]float64{1 - v - w, v, w}

	var sum float64
	for i := range b {
		b[i] = math.Max(b[i], 0)
		sum += b[i]
	}
	for i := range b {
		b[i] /= sum
	}
	return b
}

func interpolate(b [3]float64, uv [3]v2.Vec) v2.Vec {
	return uv[0].MulScalar(b[0]).Add(uv[1].MulScalar(b[1])).Add(uv[2].MulScalar(b[2]))
}

func nearVertex(x v3.Vec, c [3]v3.Vec, tol float64) bool {
	for _, v := range c {
		if x.Sub(v).Length() <= tol {
			return true
		}
	}
	return false
}
