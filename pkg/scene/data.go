package scene

import (
	"fmt"

	"github.com/chazu/kerf/pkg/domain"
	"github.com/chazu/kerf/pkg/domain/sdfx"
	"github.com/chazu/kerf/pkg/surface"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultTrimTolerance is the UV distance within which a point is on a
// trim boundary.
const DefaultTrimTolerance = 1e-9

// ---------------------------------------------------------------------------
// Kinds
// ---------------------------------------------------------------------------

// Kind distinguishes the analytic surface types.
type Kind int

const (
	KindPlane    Kind = iota // bounded square plane
	KindSphere               // full sphere, poles on the world Z axis
	KindCylinder             // finite cylinder wall
	KindTorus                // full torus
)

func (k Kind) String() string {
	switch k {
	case KindPlane:
		return "plane"
	case KindSphere:
		return "sphere"
	case KindCylinder:
		return "cylinder"
	case KindTorus:
		return "torus"
	default:
		return "unknown"
	}
}

// ---------------------------------------------------------------------------
// Surface specs
// ---------------------------------------------------------------------------

// Hole is a circular hole cut from a surface's parameter rectangle.
type Hole struct {
	Center v2.Vec  `json:"center"`
	Radius float64 `json:"radius"`
}

// SurfaceSpec describes one declared surface. Which fields apply depends
// on Kind.
type SurfaceSpec struct {
	Name   string  `json:"name"`
	Kind   Kind    `json:"kind"`
	Center v3.Vec  `json:"center"`           // plane origin, sphere/torus center, cylinder base
	Axis   v3.Vec  `json:"axis"`             // plane normal, cylinder/torus axis
	Radius float64 `json:"radius,omitempty"` // sphere, cylinder, torus major radius
	Minor  float64 `json:"minor,omitempty"`  // torus tube radius
	Height float64 `json:"height,omitempty"` // cylinder
	Size   float64 `json:"size,omitempty"`   // plane side length
	Holes  []Hole  `json:"holes,omitempty"`
}

// Evaluator builds the parametric surface. s is assumed valid; see
// Validate.
func (s *SurfaceSpec) Evaluator() (surface.Evaluator, error) {
	switch s.Kind {
	case KindPlane:
		return surface.NewPlane(s.Center, s.Axis, s.Size), nil
	case KindSphere:
		return surface.NewSphere(s.Center, s.Radius), nil
	case KindCylinder:
		return surface.NewCylinder(s.Center, s.Axis, s.Radius, s.Height), nil
	case KindTorus:
		return surface.NewTorus(s.Center, s.Axis, s.Radius, s.Minor), nil
	}
	return nil, fmt.Errorf("scene: surface %q: unsupported kind %v", s.Name, s.Kind)
}

// Domain returns the trim region of the surface, or nil when it has no
// holes.
func (s *SurfaceSpec) Domain() (domain.Classifier, error) {
	if len(s.Holes) == 0 {
		return nil, nil
	}
	ev, err := s.Evaluator()
	if err != nil {
		return nil, err
	}
	u0, u1, v0, v1 := ev.Bounds()
	circles := make([]sdfx.Circle, len(s.Holes))
	for i, h := range s.Holes {
		circles[i] = sdfx.Circle{Center: h.Center, Radius: h.Radius}
	}
	trim, err := sdfx.NewPerforated(u0, u1, v0, v1, circles, DefaultTrimTolerance)
	if err != nil {
		return nil, fmt.Errorf("scene: surface %q: %w", s.Name, err)
	}
	return trim, nil
}
