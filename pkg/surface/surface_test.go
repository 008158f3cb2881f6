package surface

import (
	"math"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/floats/scalar"
)

func kinds() []struct {
	name string
	ev   Evaluator
} {
	return []struct {
		name string
		ev   Evaluator
	}{
		{"plane", NewPlane(v3.Vec{X: 1, Y: 2, Z: 3}, v3.Vec{X: 1, Y: 1, Z: 0}, 4)},
		{"sphere", NewSphere(v3.Vec{X: -1}, 2.5)},
		{"cylinder", NewCylinder(v3.Vec{}, v3.Vec{X: 0, Y: 1, Z: 1}, 0.75, 3)},
		{"torus", NewTorus(v3.Vec{Z: 1}, v3.Vec{Z: 1}, 3, 1)},
	}
}

// ---------------------------------------------------------------------------
// Derivatives
// ---------------------------------------------------------------------------

func TestD1MatchesFiniteDifferences(t *testing.T) {
	const h = 1e-6
	params := []v2.Vec{{X: 0.3, Y: 0.2}, {X: 1.7, Y: -0.4}, {X: 4.1, Y: 0.9}}

	for _, k := range kinds() {
		t.Run(k.name, func(t *testing.T) {
			for _, uv := range params {
				p, du, dv := k.ev.D1(uv.X, uv.Y)
				if d := p.Sub(k.ev.Value(uv.X, uv.Y)).Length(); d > 1e-12 {
					t.Fatalf("D1 point differs from Value by %g", d)
				}
				fdu := k.ev.Value(uv.X+h, uv.Y).Sub(k.ev.Value(uv.X-h, uv.Y)).DivScalar(2 * h)
				fdv := k.ev.Value(uv.X, uv.Y+h).Sub(k.ev.Value(uv.X, uv.Y-h)).DivScalar(2 * h)
				if d := du.Sub(fdu).Length(); d > 1e-6 {
					t.Errorf("at %v: du off by %g", uv, d)
				}
				if d := dv.Sub(fdv).Length(); d > 1e-6 {
					t.Errorf("at %v: dv off by %g", uv, d)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Normals
// ---------------------------------------------------------------------------

func TestSphereNormalPointsOutward(t *testing.T) {
	s := NewSphere(v3.Vec{X: 1, Y: 1, Z: 1}, 2)
	for _, uv := range []v2.Vec{{X: 0, Y: 0}, {X: 2, Y: 0.5}, {X: 5, Y: -1.2}} {
		n, ok := Normal(s, uv.X, uv.Y)
		if !ok {
			t.Fatalf("normal at %v reported degenerate", uv)
		}
		radial := s.Value(uv.X, uv.Y).Sub(s.Frame.Origin).Normalize()
		if !scalar.EqualWithinAbs(n.Dot(radial), 1, 1e-12) {
			t.Errorf("normal at %v not radial: dot=%g", uv, n.Dot(radial))
		}
	}
}

func TestNormalDegenerate(t *testing.T) {
	s := NewSphere(v3.Vec{}, 1)
	tests := []struct {
		name   string
		ev     Evaluator
		uv     v2.Vec
		wantOK bool
	}{
		{"north pole", s, v2.Vec{X: 0.4, Y: math.Pi / 2}, false},
		{"south pole", s, v2.Vec{X: 3, Y: -math.Pi / 2}, false},
		{"near pole", s, v2.Vec{X: 0.4, Y: math.Pi/2 - 1e-3}, true},
		{"large sphere pole", NewSphere(v3.Vec{}, 1e6), v2.Vec{Y: math.Pi / 2}, false},
		{"torus inner equator", NewTorus(v3.Vec{}, v3.Vec{Z: 1}, 3, 1), v2.Vec{X: 1, Y: math.Pi}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := Normal(tt.ev, tt.uv.X, tt.uv.Y); ok != tt.wantOK {
				t.Errorf("Normal ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestNewFrameOrthonormal(t *testing.T) {
	axes := []v3.Vec{{Z: 1}, {X: 1}, {X: 1, Y: -2, Z: 0.5}, {Y: -3}}
	for _, a := range axes {
		f := NewFrame(v3.Vec{}, a)
		if !scalar.EqualWithinAbs(f.X.Dot(f.Y), 0, 1e-12) ||
			!scalar.EqualWithinAbs(f.Y.Dot(f.Z), 0, 1e-12) ||
			!scalar.EqualWithinAbs(f.X.Dot(f.Z), 0, 1e-12) {
			t.Errorf("axis %v: frame not orthogonal", a)
		}
		if !scalar.EqualWithinAbs(f.X.Cross(f.Y).Dot(f.Z), 1, 1e-12) {
			t.Errorf("axis %v: frame not right-handed", a)
		}
		if !scalar.EqualWithinAbs(f.Z.Dot(a.Normalize()), 1, 1e-12) {
			t.Errorf("axis %v: Z does not follow axis", a)
		}
	}
}

// ---------------------------------------------------------------------------
// Wrap
// ---------------------------------------------------------------------------

func TestWrap(t *testing.T) {
	tests := []struct {
		name string
		ev   Evaluator
		in   v2.Vec
		want v2.Vec
	}{
		{"sphere u wraps", NewSphere(v3.Vec{}, 1), v2.Vec{X: -0.5, Y: 0}, v2.Vec{X: 2*math.Pi - 0.5, Y: 0}},
		{"sphere v clamps", NewSphere(v3.Vec{}, 1), v2.Vec{X: 1, Y: 2}, v2.Vec{X: 1, Y: math.Pi / 2}},
		{"torus both wrap", NewTorus(v3.Vec{}, v3.Vec{Z: 1}, 2, 1), v2.Vec{X: 7, Y: -1}, v2.Vec{X: 7 - 2*math.Pi, Y: 2*math.Pi - 1}},
		{"plane clamps", NewPlane(v3.Vec{}, v3.Vec{Z: 1}, 2), v2.Vec{X: 3, Y: -3}, v2.Vec{X: 1, Y: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.ev, tt.in)
			if !scalar.EqualWithinAbs(got.X, tt.want.X, 1e-12) || !scalar.EqualWithinAbs(got.Y, tt.want.Y, 1e-12) {
				t.Errorf("Wrap(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
