package surface

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface checks.
var (
	_ Evaluator = (*Plane)(nil)
	_ Evaluator = (*Sphere)(nil)
	_ Evaluator = (*Cylinder)(nil)
	_ Evaluator = (*Torus)(nil)
)

// ---------------------------------------------------------------------------
// Plane
// ---------------------------------------------------------------------------

// Plane is a bounded rectangle in the XY plane of its frame:
// P(u, v) = O + u*X + v*Y with u in [U0, U1] and v in [V0, V1].
type Plane struct {
	Frame          Frame
	U0, U1, V0, V1 float64
}

// NewPlane returns a square plane of side size centred on origin with the
// given normal.
func NewPlane(origin, normal v3.Vec, size float64) *Plane {
	h := size / 2
	return &Plane{Frame: NewFrame(origin, normal), U0: -h, U1: h, V0: -h, V1: h}
}

func (p *Plane) Value(u, v float64) v3.Vec {
	return p.Frame.Point(u, v, 0)
}

func (p *Plane) D1(u, v float64) (v3.Vec, v3.Vec, v3.Vec) {
	return p.Value(u, v), p.Frame.X, p.Frame.Y
}

func (p *Plane) Bounds() (float64, float64, float64, float64) {
	return p.U0, p.U1, p.V0, p.V1
}

func (p *Plane) IsUPeriodic() (bool, float64) { return false, 0 }
func (p *Plane) IsVPeriodic() (bool, float64) { return false, 0 }

// ---------------------------------------------------------------------------
// Sphere
// ---------------------------------------------------------------------------

// Sphere is parameterised by longitude u in [0, 2pi) and latitude v in
// [-pi/2, pi/2]. The poles lie on the frame's Z axis and are singular.
type Sphere struct {
	Frame  Frame
	Radius float64
}

// NewSphere returns a sphere with its poles on the world Z axis.
func NewSphere(center v3.Vec, radius float64) *Sphere {
	f := WorldFrame
	f.Origin = center
	return &Sphere{Frame: f, Radius: radius}
}

func (s *Sphere) Value(u, v float64) v3.Vec {
	cu, su := math.Cos(u), math.Sin(u)
	cv, sv := math.Cos(v), math.Sin(v)
	r := s.Radius
	return s.Frame.Point(r*cv*cu, r*cv*su, r*sv)
}

func (s *Sphere) D1(u, v float64) (v3.Vec, v3.Vec, v3.Vec) {
	cu, su := math.Cos(u), math.Sin(u)
	cv, sv := math.Cos(v), math.Sin(v)
	r := s.Radius
	p := s.Frame.Point(r*cv*cu, r*cv*su, r*sv)
	du := s.Frame.Direction(-r*cv*su, r*cv*cu, 0)
	dv := s.Frame.Direction(-r*sv*cu, -r*sv*su, r*cv)
	return p, du, dv
}

func (s *Sphere) Bounds() (float64, float64, float64, float64) {
	return 0, 2 * math.Pi, -math.Pi / 2, math.Pi / 2
}

func (s *Sphere) IsUPeriodic() (bool, float64) { return true, 2 * math.Pi }
func (s *Sphere) IsVPeriodic() (bool, float64) { return false, 0 }

// ---------------------------------------------------------------------------
// Cylinder
// ---------------------------------------------------------------------------

// Cylinder is P(u, v) = O + R*(cos u X + sin u Y) + v*Z with v in [H0, H1].
type Cylinder struct {
	Frame  Frame
	Radius float64
	H0, H1 float64
}

// NewCylinder returns a cylinder whose axis passes through base along
// axis, spanning [0, height] from base.
func NewCylinder(base, axis v3.Vec, radius, height float64) *Cylinder {
	return &Cylinder{Frame: NewFrame(base, axis), Radius: radius, H0: 0, H1: height}
}

func (c *Cylinder) Value(u, v float64) v3.Vec {
	return c.Frame.Point(c.Radius*math.Cos(u), c.Radius*math.Sin(u), v)
}

func (c *Cylinder) D1(u, v float64) (v3.Vec, v3.Vec, v3.Vec) {
	cu, su := math.Cos(u), math.Sin(u)
	p := c.Frame.Point(c.Radius*cu, c.Radius*su, v)
	du := c.Frame.Direction(-c.Radius*su, c.Radius*cu, 0)
	return p, du, c.Frame.Z
}

func (c *Cylinder) Bounds() (float64, float64, float64, float64) {
	return 0, 2 * math.Pi, c.H0, c.H1
}

func (c *Cylinder) IsUPeriodic() (bool, float64) { return true, 2 * math.Pi }
func (c *Cylinder) IsVPeriodic() (bool, float64) { return false, 0 }

// ---------------------------------------------------------------------------
// Torus
// ---------------------------------------------------------------------------

// Torus has its axis along the frame's Z. u runs around the axis, v around
// the tube. Both directions are periodic.
type Torus struct {
	Frame        Frame
	Major, Minor float64
}

// NewTorus returns a torus centred on center with the given axis.
func NewTorus(center, axis v3.Vec, major, minor float64) *Torus {
	return &Torus{Frame: NewFrame(center, axis), Major: major, Minor: minor}
}

func (t *Torus) Value(u, v float64) v3.Vec {
	p, _, _ := t.D1(u, v)
	return p
}

func (t *Torus) D1(u, v float64) (v3.Vec, v3.Vec, v3.Vec) {
	cu, su := math.Cos(u), math.Sin(u)
	cv, sv := math.Cos(v), math.Sin(v)
	w := t.Major + t.Minor*cv
	p := t.Frame.Point(w*cu, w*su, t.Minor*sv)
	du := t.Frame.Direction(-w*su, w*cu, 0)
	dv := t.Frame.Direction(-t.Minor*sv*cu, -t.Minor*sv*su, t.Minor*cv)
	return p, du, dv
}

func (t *Torus) Bounds() (float64, float64, float64, float64) {
	return 0, 2 * math.Pi, 0, 2 * math.Pi
}

func (t *Torus) IsUPeriodic() (bool, float64) { return true, 2 * math.Pi }
func (t *Torus) IsVPeriodic() (bool, float64) { return true, 2 * math.Pi }
