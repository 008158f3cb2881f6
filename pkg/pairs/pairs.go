// Package pairs turns a voxel grid into the set of triangle pairs worth an
// exact intersection test. It never produces geometry, only a reduced,
// deduplicated and sorted candidate list.
package pairs

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/chazu/kerf/pkg/polyhedron"
	"github.com/chazu/kerf/pkg/voxel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrTooManyPairs is returned when the number of distinct candidate pairs
// exceeds the configured bound.
var ErrTooManyPairs = errors.New("pairs: too many candidate pairs")

// DefaultMaxPairs bounds the distinct pairs considered by Filter.
const DefaultMaxPairs = 1 << 24

// Pair is a triangle of mesh A and a triangle of mesh B suspected to
// intersect.
type Pair struct {
	A, B int32
}

// Stats counts what Filter did.
type Stats struct {
	Distinct      int // distinct pairs seen across shared cells
	BoxRejected   int
	PlaneRejected int
	Kept          int
}

type options struct {
	maxPairs int
}

// Option configures Filter.
type Option func(*options)

// WithMaxPairs bounds the number of distinct pairs examined.
func WithMaxPairs(n int) Option {
	return func(o *options) { o.maxPairs = n }
}

// Filter forms the candidate pairs of every shared cell of g. A pair is
// rejected when the triangles' bounding boxes are more than tol apart, or
// when all three corners of one triangle lie strictly (beyond tol) on one
// side of the other's plane. The result is sorted by (A, B).
func Filter(g *voxel.Grid, a, b polyhedron.Provider, tol float64, opts ...Option) ([]Pair, Stats, error) {
	o := options{maxPairs: DefaultMaxPairs}
	for _, opt := range opts {
		opt(&o)
	}

	var st Stats
	seen := make(map[uint64]struct{})
	var out []Pair
	for _, k := range g.Shared() {
		la, lb := g.Query(k)
		for _, ta := range la {
			for _, tb := range lb {
				id := uint64(uint32(ta))<<32 | uint64(uint32(tb))
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				st.Distinct++
				if o.maxPairs > 0 && st.Distinct > o.maxPairs {
					return nil, st, fmt.Errorf("%w: more than %d", ErrTooManyPairs, o.maxPairs)
				}

				ca := polyhedron.Corners(a, int(ta))
				cb := polyhedron.Corners(b, int(tb))
				if !boxesOverlap(ca, cb, tol) {
					st.BoxRejected++
					continue
				}
				if OneSide(ca, cb, tol) || OneSide(cb, ca, tol) {
					st.PlaneRejected++
					continue
				}
				out = append(out, Pair{A: ta, B: tb})
			}
		}
	}

	slices.SortFunc(out, func(x, y Pair) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})
	st.Kept = len(out)
	return out, st, nil
}

// OneSide reports whether every corner of t lies strictly on the same side
// of the plane of p, farther than tol. A degenerate p never rejects.
func OneSide(p, t [3]v3.Vec, tol float64) bool {
	n := p[1].Sub(p[0]).Cross(p[2].Sub(p[0]))
	l := n.Length()
	if l == 0 {
		return false
	}
	n = n.DivScalar(l)
	var above, below int
	for _, c := range t {
		d := n.Dot(c.Sub(p[0]))
		switch {
		case d > tol:
			above++
		case d < -tol:
			below++
		}
	}
	return above == 3 || below == 3
}

func boxesOverlap(a, b [3]v3.Vec, tol float64) bool {
	aMin, aMax := a[0].Min(a[1]).Min(a[2]), a[0].Max(a[1]).Max(a[2])
	bMin, bMax := b[0].Min(b[1]).Min(b[2]), b[0].Max(b[1]).Max(b[2])
	return aMin.X <= bMax.X+tol && bMin.X <= aMax.X+tol &&
		aMin.Y <= bMax.Y+tol && bMin.Y <= aMax.Y+tol &&
		aMin.Z <= bMax.Z+tol && bMin.Z <= aMax.Z+tol
}
