// Package refine moves approximate intersection points onto both exact
// surfaces with Newton iterations.
//
// The unknowns are the parameters on each surface, (ua, va, ub, vb). The
// equations are SA(ua, va) = SB(ub, vb) plus one constraint keeping the
// point in the plane through its starting position normal to the local
// curve direction nA x nB, so the point does not slide along the curve.
package refine

import (
	"math"

	"github.com/chazu/kerf/pkg/curve"
	"github.com/chazu/kerf/pkg/surface"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/mat"
)

// Options controls the iteration.
type Options struct {
	// Tolerance is the accepted distance between the two surface points.
	Tolerance float64
	// MaxIter bounds the Newton steps per point.
	MaxIter int
	// MaxMove rejects a result farther than this from the starting point.
	// Zero means unbounded.
	MaxMove float64
}

// DefaultOptions returns options suited to geometry of the given size.
func DefaultOptions(scale float64) Options {
	if !(scale > 0) {
		scale = 1
	}
	return Options{Tolerance: 1e-10 * scale, MaxIter: 20}
}

// Stats counts refinement outcomes.
type Stats struct {
	Refined int
	Failed  int
}

// Point refines p against a and b. ok is false when the iteration does not
// converge (tangency, singular parameterisation, divergence), in which case
// p is returned unchanged.
func Point(a, b surface.Evaluator, p curve.Point, o Options) (curve.Point, bool) {
	if o.MaxIter <= 0 {
		o.MaxIter = 20
	}
	ua, ub := p.UVA, p.UVB
	var t v3.Vec
	for iter := 0; iter < o.MaxIter; iter++ {
		sa, sau, sav := a.D1(ua.X, ua.Y)
		sb, sbu, sbv := b.D1(ub.X, ub.Y)
		if iter == 0 {
			t = sau.Cross(sav).Cross(sbu.Cross(sbv))
			l := t.Length()
			if l == 0 || l < 1e-12*sau.Length()*sav.Length()*sbu.Length()*sbv.Length() {
				return p, false
			}
			t = t.DivScalar(l)
		}

		gap := sa.Sub(sb)
		along := sa.Sub(p.P).Dot(t)
		if gap.Length() <= o.Tolerance && math.Abs(along) <= o.Tolerance {
			return finish(a, b, p, ua, ub, o)
		}

		j := mat.NewDense(4, 4, []float64{
			sau.X, sav.X, -sbu.X, -sbv.X,
			sau.Y, sav.Y, -sbu.Y, -sbv.Y,
			sau.Z, sav.Z, -sbu.Z, -sbv.Z,
			t.Dot(sau), t.Dot(sav), 0, 0,
		})
		f := mat.NewVecDense(4, []float64{-gap.X, -gap.Y, -gap.Z, -along})
		var d mat.VecDense
		if err := d.SolveVec(j, f); err != nil {
			return p, false
		}
		ua = surface.Wrap(a, v2.Vec{X: ua.X + d.AtVec(0), Y: ua.Y + d.AtVec(1)})
		ub = surface.Wrap(b, v2.Vec{X: ub.X + d.AtVec(2), Y: ub.Y + d.AtVec(3)})
	}

	sa, sb := a.Value(ua.X, ua.Y), b.Value(ub.X, ub.Y)
	if sa.Sub(sb).Length() > o.Tolerance {
		return p, false
	}
	return finish(a, b, p, ua, ub, o)
}

func finish(a, b surface.Evaluator, p curve.Point, ua, ub v2.Vec, o Options) (curve.Point, bool) {
	sa, sb := a.Value(ua.X, ua.Y), b.Value(ub.X, ub.Y)
	q := p
	q.P = sa.Add(sb).MulScalar(0.5)
	q.UVA, q.UVB = ua, ub
	if o.MaxMove > 0 && q.P.Sub(p.P).Length() > o.MaxMove {
		return p, false
	}
	return q, true
}

// Set refines every point of every line in place. Closed lines keep their
// repeated end point equal to the first.
func Set(set *curve.Set, a, b surface.Evaluator, o Options) Stats {
	var st Stats
	if a == nil || b == nil {
		return st
	}
	for i := 0; i < set.NbLines(); i++ {
		src := set.Points(i)
		out := make([]curve.Point, len(src))
		closed := set.Line(i).Closed && len(src) > 1
		for j, p := range src {
			if closed && j == len(src)-1 {
				out[j] = out[0]
				continue
			}
			q, ok := Point(a, b, p, o)
			if ok {
				st.Refined++
			} else {
				st.Failed++
			}
			out[j] = q
		}
		set.Replace(i, out)
	}
	return st
}
