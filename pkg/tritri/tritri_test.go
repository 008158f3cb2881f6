package tritri

import (
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/floats/scalar"
)

// flat returns a triangle whose UVs are its XY coordinates.
func flat(ps ...v3.Vec) Triangle {
	var t Triangle
	for i, p := range ps {
		t.P[i] = p
		t.UV[i] = v2.Vec{X: p.X, Y: p.Y}
	}
	return t
}

// upright returns a triangle whose UVs are its XZ coordinates.
func upright(ps ...v3.Vec) Triangle {
	var t Triangle
	for i, p := range ps {
		t.P[i] = p
		t.UV[i] = v2.Vec{X: p.X, Y: p.Z}
	}
	return t
}

var (
	tol   = DefaultTolerance(1)
	floor = flat(v3.Vec{X: -1, Y: -1}, v3.Vec{X: 1, Y: -1}, v3.Vec{Y: 1})
)

func near(a, b v3.Vec) bool {
	return a.Sub(b).Length() < 1e-9
}

func TestIntersectKinds(t *testing.T) {
	tests := []struct {
		name   string
		b      Triangle
		kind   Kind
		status Status
	}{
		{"crossing", upright(v3.Vec{X: -2, Z: -1}, v3.Vec{X: 2, Z: -1}, v3.Vec{Z: 1}), Segment, OK},
		{"parallel apart", flat(v3.Vec{X: -1, Y: -1, Z: 1}, v3.Vec{X: 1, Y: -1, Z: 1}, v3.Vec{Y: 1, Z: 1}), None, Disjoint},
		{"coplanar overlap", flat(v3.Vec{X: -0.5, Y: -0.5}, v3.Vec{X: 0.5, Y: -0.5}, v3.Vec{Y: 0.5}), None, Coplanar},
		{"planes cross outside", upright(v3.Vec{X: 3, Z: -1}, v3.Vec{X: 5, Z: -1}, v3.Vec{X: 4, Z: 1}), None, Disjoint},
		{"degenerate", upright(v3.Vec{X: -1}, v3.Vec{}, v3.Vec{X: 1}), None, Unstable},
		{"apex touches", upright(v3.Vec{X: -0.3, Z: 1}, v3.Vec{}, v3.Vec{X: 0.3, Z: 1}), Point, OK},
		{"nearly parallel", flat(v3.Vec{X: -1, Y: -1, Z: -1e-8}, v3.Vec{X: 1, Y: -1, Z: -1e-8}, v3.Vec{Y: 1, Z: 1e-8}), None, Unstable},
		{"shallow crossing", flat(v3.Vec{X: -1, Y: -1, Z: -1e-3}, v3.Vec{X: 1, Y: -1, Z: -1e-3}, v3.Vec{Y: 1, Z: 1e-3}), Segment, OK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Intersect(floor, tt.b, tol)
			if r.Kind != tt.kind {
				t.Fatalf("Kind = %s, want %s (status %s)", r.Kind, tt.kind, r.Status)
			}
			if r.Status != tt.status {
				t.Errorf("Status = %s, want %s", r.Status, tt.status)
			}
		})
	}
}

func TestIntersectSegmentGeometry(t *testing.T) {
	b := upright(v3.Vec{X: -2, Z: -1}, v3.Vec{X: 2, Z: -1}, v3.Vec{Z: 1})
	r := Intersect(floor, b, tol)
	if r.Kind != Segment {
		t.Fatalf("Kind = %s, want segment", r.Kind)
	}
	// b meets z=0 along x in [-1, 1]; the floor only reaches y=0 for
	// x in [-0.5, 0.5].
	e0, e1 := r.Ends[0], r.Ends[1]
	lo, hi := e0.P, e1.P
	if lo.X > hi.X {
		lo, hi = hi, lo
	}
	if !near(lo, v3.Vec{X: -0.5}) || !near(hi, v3.Vec{X: 0.5}) {
		t.Errorf("segment = %v .. %v, want (-0.5,0,0) .. (0.5,0,0)", lo, hi)
	}

	// Direction follows nA x nB: nA=+Z, nB=-Y gives +X.
	if e1.P.X <= e0.P.X {
		t.Errorf("segment runs against nA x nB: %v -> %v", e0.P, e1.P)
	}

	for _, e := range r.Ends {
		if !scalar.EqualWithinAbs(e.UVA.X, e.P.X, 1e-9) || !scalar.EqualWithinAbs(e.UVA.Y, e.P.Y, 1e-9) {
			t.Errorf("UVA %v does not match point %v", e.UVA, e.P)
		}
		if !scalar.EqualWithinAbs(e.UVB.X, e.P.X, 1e-9) || !scalar.EqualWithinAbs(e.UVB.Y, e.P.Z, 1e-9) {
			t.Errorf("UVB %v does not match point %v", e.UVB, e.P)
		}
		if e.OnVertex {
			t.Errorf("edge crossing at %v flagged as vertex", e.P)
		}
	}
}

func TestIntersectSymmetric(t *testing.T) {
	b := upright(v3.Vec{X: -2, Z: -1}, v3.Vec{X: 2, Z: -1}, v3.Vec{Z: 1})
	ab := Intersect(floor, b, tol)
	ba := Intersect(b, floor, tol)
	if ab.Kind != Segment || ba.Kind != Segment {
		t.Fatalf("kinds %s, %s", ab.Kind, ba.Kind)
	}
	// Swapping the operands reverses nA x nB and swaps the parameters.
	if !near(ab.Ends[0].P, ba.Ends[1].P) || !near(ab.Ends[1].P, ba.Ends[0].P) {
		t.Errorf("swapped result not reversed: %v vs %v", ab.Ends, ba.Ends)
	}
	if ab.Ends[0].UVA.Sub(ba.Ends[1].UVB).Length() > 1e-12 {
		t.Errorf("parameters not swapped: %v vs %v", ab.Ends[0].UVA, ba.Ends[1].UVB)
	}
}

func TestIntersectVertexContact(t *testing.T) {
	// b's apex touches the floor at its own vertex (1, -1, 0).
	b := upright(v3.Vec{X: 1, Y: -1}, v3.Vec{X: 1.5, Y: -1, Z: 1}, v3.Vec{X: 0.8, Y: -1, Z: 1})
	r := Intersect(floor, b, tol)
	if r.Kind != Point {
		t.Fatalf("Kind = %s, want point (status %s)", r.Kind, r.Status)
	}
	if !near(r.Ends[0].P, v3.Vec{X: 1, Y: -1}) {
		t.Errorf("contact at %v, want (1,-1,0)", r.Ends[0].P)
	}
	if !r.Ends[0].OnVertex {
		t.Error("vertex contact not flagged")
	}
}
