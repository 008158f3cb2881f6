package voxel

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// degenerateArea is the relative area (twice the area over the squared
// longest edge) below which a triangle is filled as a segment.
const degenerateArea = 1e-12

// rasterizer collects the cells touched by one triangle at a time. Each
// worker owns one; keys is reused between triangles.
type rasterizer struct {
	g    *Grid
	keys []Key
}

// fill records every cell touched by the triangle with the given
// model-space corners.
func (r *rasterizer) fill(c [3]v3.Vec) {
	p0, p1, p2 := r.g.lattice(c[0]), r.g.lattice(c[1]), r.g.lattice(c[2])

	e0, e1, e2 := p1.Sub(p0), p2.Sub(p1), p0.Sub(p2)
	longest := math.Max(e0.Length2(), math.Max(e1.Length2(), e2.Length2()))
	area2 := e0.Cross(p2.Sub(p0)).Length()

	switch {
	case longest == 0:
		r.box(p0, p0)
	case area2 <= degenerateArea*longest:
		// Collinear corners: the longest edge covers the other two.
		a, b := p0, p1
		if l := e1.Length2(); l >= e0.Length2() && l >= e2.Length2() {
			a, b = p1, p2
		} else if l := e2.Length2(); l >= e0.Length2() {
			a, b = p2, p0
		}
		r.segment(a, b, 0)
	default:
		r.triangle(p0, p1, p2, 0)
	}
}

// triangle fills a triangle given in lattice coordinates. Pieces spanning at
// most two cells per axis fill their cell box. Larger pieces are split at
// the midpoint of their longest edge.
func (r *rasterizer) triangle(p0, p1, p2 v3.Vec, depth int) {
	lo := p0.Min(p1).Min(p2)
	hi := p0.Max(p1).Max(p2)
	if !r.overlaps(lo, hi) {
		return
	}
	if small(lo, hi) || depth >= maxDepth {
		r.box(lo, hi)
		return
	}

	d01, d12, d20 := p1.Sub(p0).Length2(), p2.Sub(p1).Length2(), p0.Sub(p2).Length2()
	switch {
	case d01 >= d12 && d01 >= d20:
		m := mid(p0, p1)
		r.triangle(p0, m, p2, depth+1)
		r.triangle(m, p1, p2, depth+1)
	case d12 >= d20:
		m := mid(p1, p2)
		r.triangle(p1, m, p0, depth+1)
		r.triangle(m, p2, p0, depth+1)
	default:
		m := mid(p2, p0)
		r.triangle(p2, m, p1, depth+1)
		r.triangle(m, p0, p1, depth+1)
	}
}

// segment fills the cells along a segment by recursive midpoint
// subdivision.
func (r *rasterizer) segment(a, b v3.Vec, depth int) {
	lo, hi := a.Min(b), a.Max(b)
	if !r.overlaps(lo, hi) {
		return
	}
	if small(lo, hi) || depth >= maxDepth {
		r.box(lo, hi)
		return
	}
	m := mid(a, b)
	r.segment(a, m, depth+1)
	r.segment(m, b, depth+1)
}

// box records every lattice cell between the cells of lo and hi, clipped to
// the grid.
func (r *rasterizer) box(lo, hi v3.Vec) {
	x0, y0, z0 := r.clip(lo)
	x1, y1, z1 := r.clip(hi)
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				r.keys = append(r.keys, MakeKey(x, y, z))
			}
		}
	}
}

func (r *rasterizer) clip(p v3.Vec) (int, int, int) {
	d := r.g.dims
	return clampCell(p.X, d[0]), clampCell(p.Y, d[1]), clampCell(p.Z, d[2])
}

// overlaps reports whether the lattice box [lo, hi] touches the grid.
func (r *rasterizer) overlaps(lo, hi v3.Vec) bool {
	d := r.g.dims
	return hi.X >= 0 && hi.Y >= 0 && hi.Z >= 0 &&
		lo.X < float64(d[0]) && lo.Y < float64(d[1]) && lo.Z < float64(d[2])
}

// small reports whether [lo, hi] spans at most two cells along every axis.
func small(lo, hi v3.Vec) bool {
	return math.Floor(hi.X)-math.Floor(lo.X) <= 1 &&
		math.Floor(hi.Y)-math.Floor(lo.Y) <= 1 &&
		math.Floor(hi.Z)-math.Floor(lo.Z) <= 1
}

func clampCell(f float64, n int) int {
	c := math.Floor(f)
	if c < 0 {
		return 0
	}
	if c > float64(n-1) {
		return n - 1
	}
	return int(c)
}

func mid(a, b v3.Vec) v3.Vec {
	return a.Add(b).MulScalar(0.5)
}
