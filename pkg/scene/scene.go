// Package scene holds the surfaces and intersection jobs declared by a
// kerf script. A Scene is produced fresh by each evaluation and is not
// mutated afterwards.
package scene

import (
	"fmt"
	"math"
)

// DefaultDeflection is the chordal tolerance used when a job names none.
const DefaultDeflection = 1e-3

// Job asks for the intersection of two named surfaces.
type Job struct {
	A          string  `json:"a"`
	B          string  `json:"b"`
	Deflection float64 `json:"deflection,omitempty"` // chordal tolerance of both meshes
	Cell       float64 `json:"cell,omitempty"`       // voxel size, 0 = automatic
	Tolerance  float64 `json:"tolerance,omitempty"`  // linear tolerance, 0 = automatic
	Refine     bool    `json:"refine,omitempty"`
}

// EffectiveDeflection returns the job's deflection, or DefaultDeflection.
func (j Job) EffectiveDeflection() float64 {
	if j.Deflection > 0 {
		return j.Deflection
	}
	return DefaultDeflection
}

// Name returns a label for the job.
func (j Job) Name() string {
	return j.A + "/" + j.B
}

// Scene is the evaluated content of a script.
type Scene struct {
	Surfaces []*SurfaceSpec `json:"surfaces"`
	Jobs     []Job          `json:"jobs"`

	index map[string]int
}

// New creates an empty Scene.
func New() *Scene {
	return &Scene{index: make(map[string]int)}
}

// Add declares a surface. Names must be unique.
func (s *Scene) Add(spec *SurfaceSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("scene: surface has no name")
	}
	if _, dup := s.index[spec.Name]; dup {
		return fmt.Errorf("scene: surface %q already defined", spec.Name)
	}
	s.index[spec.Name] = len(s.Surfaces)
	s.Surfaces = append(s.Surfaces, spec)
	return nil
}

// Lookup returns the surface with the given name, or nil.
func (s *Scene) Lookup(name string) *SurfaceSpec {
	i, ok := s.index[name]
	if !ok {
		return nil
	}
	return s.Surfaces[i]
}

// AddJob appends an intersection job. Names are checked by Validate.
func (s *Scene) AddJob(j Job) {
	s.Jobs = append(s.Jobs, j)
}

// SurfaceCount returns the number of declared surfaces.
func (s *Scene) SurfaceCount() int {
	return len(s.Surfaces)
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
