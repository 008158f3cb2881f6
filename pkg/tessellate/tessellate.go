// Package tessellate turns the surfaces of a scene into sampled
// polyhedra ready for intersection. Each surface is sampled once per
// deflection and reused by every job that names it.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/kerf/pkg/polyhedron"
	"github.com/chazu/kerf/pkg/scene"
	"github.com/chazu/kerf/pkg/surface"
)

// DefaultMaxCells caps the sampling grid per parametric direction.
const DefaultMaxCells = 256

// Part is one tessellated surface of a job.
type Part struct {
	Name    string
	Surface surface.Evaluator
	Mesh    *polyhedron.Polyhedron
	Approx  bool // deflection target not reached within MaxCells
}

type cacheKey struct {
	name       string
	deflection float64
}

// Tessellator samples scene surfaces. It is read-only with respect to the
// scene and is not safe for concurrent use.
type Tessellator struct {
	// MaxCells limits the grid resolution; zero means DefaultMaxCells.
	MaxCells int

	sc    *scene.Scene
	cache map[cacheKey]*Part
}

// New returns a tessellator over sc.
func New(sc *scene.Scene) *Tessellator {
	return &Tessellator{sc: sc, cache: make(map[cacheKey]*Part)}
}

// Job samples both surfaces of j at the job's deflection.
func (t *Tessellator) Job(j scene.Job) (a, b *Part, err error) {
	defl := j.EffectiveDeflection()
	if a, err = t.Surface(j.A, defl); err != nil {
		return nil, nil, err
	}
	if b, err = t.Surface(j.B, defl); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// Surface samples the named surface so that its deflection is at most
// deflection. A grid that hits MaxCells first still yields a Part, marked
// Approx.
func (t *Tessellator) Surface(name string, deflection float64) (*Part, error) {
	key := cacheKey{name, deflection}
	if p, ok := t.cache[key]; ok {
		return p, nil
	}

	spec := t.sc.Lookup(name)
	if spec == nil {
		return nil, fmt.Errorf("tessellate: unknown surface %q", name)
	}
	ev, err := spec.Evaluator()
	if err != nil {
		return nil, err
	}

	maxCells := t.MaxCells
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}
	mesh, err := polyhedron.SampleDeflection(ev, deflection, maxCells)
	approx := false
	if errors.Is(err, polyhedron.ErrDeflection) && mesh != nil {
		approx = true
	} else if err != nil {
		return nil, fmt.Errorf("tessellate: surface %q: %w", name, err)
	}

	p := &Part{Name: name, Surface: ev, Mesh: mesh, Approx: approx}
	t.cache[key] = p
	return p, nil
}
