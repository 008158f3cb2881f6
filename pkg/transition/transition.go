// Package transition labels assembled intersection lines as crossings,
// tangential touches or undecided, from the surface normals sampled along
// each line.
//
// At a crossing the normals are apart and nA x nB runs along the line.
// When the line direction agrees with nA x nB, the line leaves A's side
// (TransA is Out) and enters B's (TransB is In); the opposite direction
// swaps them. Where the normals are parallel the sample is a touch.
package transition

import (
	"math"

	"github.com/chazu/kerf/pkg/curve"
	"github.com/chazu/kerf/pkg/surface"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultAngular is the default angular tolerance in radians.
const DefaultAngular = 1e-4

// Stats counts the classes assigned by Classify.
type Stats struct {
	Crossing  int
	Touch     int
	Undecided int
}

type sample int

const (
	skip sample = iota // normal undefined or direction ambiguous
	touch
	positive
	negative
)

// Classify labels every line of set and each of its points. A nil
// evaluator leaves every line undecided. angTol is the angle below which
// two normals are treated as parallel.
func Classify(set *curve.Set, a, b surface.Evaluator, angTol float64) Stats {
	var st Stats
	if !(angTol > 0) {
		angTol = DefaultAngular
	}
	sinTol := math.Sin(angTol)
	for i := 0; i < set.NbLines(); i++ {
		if a == nil || b == nil {
			set.SetClass(i, curve.KindUndecided, curve.TransUndecided, curve.TransUndecided)
			st.Undecided++
			continue
		}
		switch kind := classifyLine(set, i, a, b, sinTol); kind {
		case positive:
			set.SetClass(i, curve.KindCrossing, curve.TransOut, curve.TransIn)
			st.Crossing++
		case negative:
			set.SetClass(i, curve.KindCrossing, curve.TransIn, curve.TransOut)
			st.Crossing++
		case touch:
			set.SetClass(i, curve.KindTouch, curve.TransTouch, curve.TransTouch)
			st.Touch++
		default:
			set.SetClass(i, curve.KindUndecided, curve.TransUndecided, curve.TransUndecided)
			st.Undecided++
		}
	}
	return st
}

// classifyLine samples every point of line i and labels the points. It
// returns positive, negative or touch when all usable samples agree, and
// skip otherwise.
func classifyLine(set *curve.Set, i int, a, b surface.Evaluator, sinTol float64) sample {
	pts := set.Points(i)
	closed := set.Line(i).Closed
	var counts [4]int
	for j, p := range pts {
		s := classifyPoint(a, b, p, tangent(pts, j, closed), sinTol)
		counts[s]++
		switch s {
		case touch:
			set.SetPointTransition(i, j, curve.TransTouch)
		case positive:
			set.SetPointTransition(i, j, curve.TransOut)
		case negative:
			set.SetPointTransition(i, j, curve.TransIn)
		default:
			set.SetPointTransition(i, j, curve.TransUndecided)
		}
	}

	used := counts[touch] + counts[positive] + counts[negative]
	switch {
	case used == 0:
		return skip
	case counts[touch] == used:
		return touch
	case counts[positive] == used:
		return positive
	case counts[negative] == used:
		return negative
	default:
		return skip
	}
}

func classifyPoint(a, b surface.Evaluator, p curve.Point, t v3.Vec, sinTol float64) sample {
	na, okA := surface.Normal(a, p.UVA.X, p.UVA.Y)
	nb, okB := surface.Normal(b, p.UVB.X, p.UVB.Y)
	if !okA || !okB {
		return skip
	}
	c := na.Cross(nb)
	if c.Length() < sinTol {
		return touch
	}
	tl := t.Length()
	if tl == 0 {
		return skip
	}
	sigma := c.Dot(t) / tl
	if math.Abs(sigma) < sinTol {
		return skip
	}
	if sigma > 0 {
		return positive
	}
	return negative
}

// tangent estimates the line direction at point j by central differences.
// Closed lines wrap around their repeated end point.
func tangent(pts []curve.Point, j int, closed bool) v3.Vec {
	n := len(pts)
	if n < 2 {
		return v3.Vec{}
	}
	if closed && n > 2 {
		m := n - 1 // distinct points
		k := j % m
		return pts[(k+1)%m].P.Sub(pts[(k+m-1)%m].P)
	}
	lo, hi := j-1, j+1
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	return pts[hi].P.Sub(pts[lo].P)
}
