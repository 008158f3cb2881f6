// Package surface defines the bivariate evaluator the intersection engine
// consumes, plus the analytic surface kinds used by scenes and tests.
// Every kind maps a (u, v) parameter pair to a point in model space.
package surface

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Evaluator is a parametric surface. Implementations must be safe for
// concurrent reads.
type Evaluator interface {
	// Value returns the point at (u, v).
	Value(u, v float64) v3.Vec
	// D1 returns the point at (u, v) and the first partial derivatives.
	D1(u, v float64) (p, du, dv v3.Vec)
	// Bounds returns the parameter rectangle.
	Bounds() (u0, u1, v0, v1 float64)
	IsUPeriodic() (bool, float64)
	IsVPeriodic() (bool, float64)
}

// degenerateNormal is the relative size below which a partial derivative,
// or du x dv, is treated as zero (poles, collapsed edges).
const degenerateNormal = 1e-10

// Normal returns the unit normal du x dv at (u, v). ok is false where the
// surface is singular: one partial vanishes against the other, or the two
// are parallel.
func Normal(ev Evaluator, u, v float64) (n v3.Vec, ok bool) {
	_, du, dv := ev.D1(u, v)
	lu, lv := du.Length(), dv.Length()
	if hi := max(lu, lv); hi == 0 || min(lu, lv) <= degenerateNormal*hi {
		return v3.Vec{}, false
	}
	n = du.Cross(dv)
	l := n.Length()
	if l <= degenerateNormal*lu*lv {
		return v3.Vec{}, false
	}
	return n.DivScalar(l), true
}

// Wrap brings uv back into the parameter rectangle of ev: periodic
// directions are reduced modulo their period, the others are clamped.
func Wrap(ev Evaluator, uv v2.Vec) v2.Vec {
	u0, u1, v0, v1 := ev.Bounds()
	if ok, p := ev.IsUPeriodic(); ok && p > 0 {
		uv.X = wrapPeriod(uv.X, u0, p)
	} else {
		uv.X = clamp(uv.X, u0, u1)
	}
	if ok, p := ev.IsVPeriodic(); ok && p > 0 {
		uv.Y = wrapPeriod(uv.Y, v0, p)
	} else {
		uv.Y = clamp(uv.Y, v0, v1)
	}
	return uv
}

func wrapPeriod(x, start, period float64) float64 {
	x = math.Mod(x-start, period)
	if x < 0 {
		x += period
	}
	return start + x
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
