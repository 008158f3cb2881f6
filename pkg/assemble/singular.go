package assemble

import (
	"github.com/chazu/kerf/pkg/curve"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// mergeSingular makes s a vertex of every line of set passing within tol.
// The nearest vertex within tol is promoted: moved onto s, flagged, and
// given either the parameters of s or parameters interpolated at the foot
// of s on an adjacent segment. Failing that, a vertex is inserted into the
// nearest segment. It reports whether any line changed.
func mergeSingular(set *curve.Set, s singular, tol float64) bool {
	merged := false
	for i := 0; i < set.NbLines(); i++ {
		pts := set.Points(i)
		closed := set.Line(i).Closed && len(pts) > 2

		best, bestD := -1, tol
		for k, p := range pts {
			if d := p.P.Sub(s.p.P).Length(); d <= bestD {
				best, bestD = k, d
			}
		}
		if best >= 0 {
			out := append([]curve.Point(nil), pts...)
			promote(out, best, s, closed)
			if closed {
				// Keep the repeated end in step with the first point.
				switch best {
				case 0:
					out[len(out)-1] = out[0]
				case len(out) - 1:
					out[0] = out[len(out)-1]
				}
			}
			set.Replace(i, out)
			merged = true
			continue
		}

		seg, segT, segD := -1, 0.0, tol
		for k := 1; k < len(pts); k++ {
			if t, d := project(s.p.P, pts[k-1].P, pts[k].P); d <= segD {
				seg, segT, segD = k, t, d
			}
		}
		if seg < 0 {
			continue
		}
		a, b := pts[seg-1], pts[seg]
		np := curve.Point{
			P:        s.p.P,
			UVA:      lerp(a.UVA, b.UVA, segT),
			UVB:      lerp(a.UVB, b.UVB, segT),
			Trans:    a.Trans,
			Singular: true,
		}
		if s.uv {
			np.UVA, np.UVB = s.p.UVA, s.p.UVB
		}
		out := make([]curve.Point, 0, len(pts)+1)
		out = append(out, pts[:seg]...)
		out = append(out, np)
		out = append(out, pts[seg:]...)
		set.Replace(i, out)
		merged = true
	}
	return merged
}

// promote moves pts[k] onto s.
func promote(pts []curve.Point, k int, s singular, closed bool) {
	p := &pts[k]
	if s.uv {
		p.UVA, p.UVB = s.p.UVA, s.p.UVB
	} else {
		prev, next := k-1, k+1
		if closed {
			n := len(pts)
			if k == 0 {
				prev = n - 2
			}
			if k == n-1 {
				next = 1
			}
		}
		orig := *p
		bestD := -1.0
		for _, j := range []int{prev, next} {
			if j < 0 || j >= len(pts) || j == k {
				continue
			}
			q := pts[j]
			t, d := project(s.p.P, orig.P, q.P)
			if bestD < 0 || d < bestD {
				bestD = d
				p.UVA, p.UVB = lerp(orig.UVA, q.UVA, t), lerp(orig.UVB, q.UVB, t)
			}
		}
	}
	p.P = s.p.P
	p.Singular = true
}

func lerp(a, b v2.Vec, t float64) v2.Vec {
	return a.Add(b.Sub(a).MulScalar(t))
}
