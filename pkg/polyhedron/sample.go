package polyhedron

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/kerf/pkg/surface"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrDeflection is returned when SampleDeflection cannot reach the
// requested chordal tolerance within its sample limit.
var ErrDeflection = errors.New("polyhedron: deflection not reached")

// Sample builds a polyhedron from a regular nu x nv grid over the
// evaluator's parameter rectangle. Each grid cell is split into two
// triangles. The deflection is estimated from the surface points at each
// triangle's UV centroid and edge midpoints.
func Sample(ev surface.Evaluator, nu, nv int) (*Polyhedron, error) {
	if nu < 1 || nv < 1 {
		return nil, fmt.Errorf("polyhedron: invalid grid %dx%d", nu, nv)
	}
	u0, u1, v0, v1 := ev.Bounds()
	du := (u1 - u0) / float64(nu)
	dv := (v1 - v0) / float64(nv)

	stride := nu + 1
	nodes := make([]v3.Vec, 0, (nu+1)*(nv+1))
	uvs := make([]v2.Vec, 0, (nu+1)*(nv+1))
	for j := 0; j <= nv; j++ {
		v := v0 + float64(j)*dv
		if j == nv {
			v = v1
		}
		for i := 0; i <= nu; i++ {
			u := u0 + float64(i)*du
			if i == nu {
				u = u1
			}
			nodes = append(nodes, ev.Value(u, v))
			uvs = append(uvs, v2.Vec{X: u, Y: v})
		}
	}

	tris := make([][3]int32, 0, 2*nu*nv)
	for j := 0; j < nv; j++ {
		for i := 0; i < nu; i++ {
			a := int32(j*stride + i)
			b := a + 1
			c := b + int32(stride)
			d := a + int32(stride)
			tris = append(tris, [3]int32{a, b, c}, [3]int32{a, c, d})
		}
	}

	p, err := New(nodes, uvs, tris, 0)
	if err != nil {
		return nil, err
	}
	p.Deflection = estimateDeflection(ev, p)
	return p, nil
}

// estimateDeflection returns the largest distance between a surface point
// at a UV midpoint and the matching point of its facet.
func estimateDeflection(ev surface.Evaluator, p *Polyhedron) float64 {
	var worst float64
	probe := func(uv v2.Vec, onFacet v3.Vec) {
		if d := ev.Value(uv.X, uv.Y).Sub(onFacet).Length(); d > worst {
			worst = d
		}
	}
	for _, t := range p.Triangles {
		pa, pb, pc := p.Nodes[t[0]], p.Nodes[t[1]], p.Nodes[t[2]]
		ua, ub, uc := p.UVs[t[0]], p.UVs[t[1]], p.UVs[t[2]]
		probe(ua.Add(ub).Add(uc).DivScalar(3), pa.Add(pb).Add(pc).DivScalar(3))
		probe(ua.Add(ub).MulScalar(0.5), pa.Add(pb).MulScalar(0.5))
		probe(ub.Add(uc).MulScalar(0.5), pb.Add(pc).MulScalar(0.5))
		probe(uc.Add(ua).MulScalar(0.5), pc.Add(pa).MulScalar(0.5))
	}
	return worst
}

// isoLengths approximates the model-space length of the mid iso-curves
// in u and v.
func isoLengths(ev surface.Evaluator) (lu, lv float64) {
	const n = 32
	u0, u1, v0, v1 := ev.Bounds()
	um, vm := (u0+u1)/2, (v0+v1)/2
	prevU, prevV := ev.Value(u0, vm), ev.Value(um, v0)
	for k := 1; k <= n; k++ {
		f := float64(k) / n
		pu := ev.Value(u0+f*(u1-u0), vm)
		pv := ev.Value(um, v0+f*(v1-v0))
		lu += pu.Sub(prevU).Length()
		lv += pv.Sub(prevV).Length()
		prevU, prevV = pu, pv
	}
	return lu, lv
}

// SampleDeflection samples ev on successively finer grids until the
// deflection is at most tol or the grid would exceed maxCells cells per
// direction. The grid keeps the aspect ratio of the mid iso-curve lengths.
// When the limit is hit the finest polyhedron is returned with
// ErrDeflection.
func SampleDeflection(ev surface.Evaluator, tol float64, maxCells int) (*Polyhedron, error) {
	if tol <= 0 || math.IsNaN(tol) {
		return nil, fmt.Errorf("polyhedron: invalid deflection %g", tol)
	}
	if maxCells < 2 {
		maxCells = 2
	}
	lu, lv := isoLengths(ev)
	ratio := 1.0
	if lu > 0 && lv > 0 {
		ratio = lu / lv
	}

	n := 4
	for {
		nu, nv := n, n
		if ratio >= 1 {
			nu = int(math.Ceil(float64(n) * ratio))
		} else {
			nv = int(math.Ceil(float64(n) / ratio))
		}
		nu, nv = min(nu, maxCells), min(nv, maxCells)

		p, err := Sample(ev, nu, nv)
		if err != nil {
			return nil, err
		}
		if p.Deflection <= tol {
			return p, nil
		}
		if nu >= maxCells || nv >= maxCells {
			return p, fmt.Errorf("%w: %g > %g at %dx%d", ErrDeflection, p.Deflection, tol, nu, nv)
		}
		n *= 2
	}
}
