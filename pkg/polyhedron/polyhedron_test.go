package polyhedron

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/kerf/pkg/surface"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/floats/scalar"
)

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNewRejectsBadInput(t *testing.T) {
	nodes := []v3.Vec{{}, {X: 1}, {Y: 1}}
	uvs := []v2.Vec{{}, {X: 1}, {Y: 1}}

	tests := []struct {
		name string
		uvs  []v2.Vec
		tris [][3]int32
	}{
		{"uv count mismatch", uvs[:2], [][3]int32{{0, 1, 2}}},
		{"index out of range", uvs, [][3]int32{{0, 1, 3}}},
		{"negative index", uvs, [][3]int32{{0, -1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(nodes, tt.uvs, tt.tris, 0); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBoundingBoxAndEdges(t *testing.T) {
	p, err := New(
		[]v3.Vec{{}, {X: 3}, {Y: 4}, {Z: 9}},
		[]v2.Vec{{}, {X: 1}, {Y: 1}, {X: 1, Y: 1}},
		[][3]int32{{0, 1, 2}},
		0,
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	box := p.BoundingBox()
	if box.Max.Z != 0 {
		t.Errorf("unreferenced vertex widened box: %v", box)
	}
	if box.Max.X != 3 || box.Max.Y != 4 {
		t.Errorf("box max = %v, want (3,4,0)", box.Max)
	}
	if got := LongestEdge(p, 0); !scalar.EqualWithinAbs(got, 5, 1e-12) {
		t.Errorf("LongestEdge = %g, want 5", got)
	}
	if Degenerate(p, 0, 1e-9) {
		t.Error("right triangle reported degenerate")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p, err := Sample(surface.NewPlane(v3.Vec{}, v3.Vec{Z: 1}, 2), 2, 2)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	c := p.Clone()
	c.Nodes[0] = v3.Vec{X: 100}
	if p.Nodes[0].X == 100 {
		t.Error("Clone shares node storage")
	}
}

// ---------------------------------------------------------------------------
// Sampling
// ---------------------------------------------------------------------------

func TestSamplePlane(t *testing.T) {
	p, err := Sample(surface.NewPlane(v3.Vec{}, v3.Vec{Z: 1}, 2), 4, 3)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if p.NbVertices() != 5*4 {
		t.Errorf("expected 20 vertices, got %d", p.NbVertices())
	}
	if p.NbTriangles() != 2*4*3 {
		t.Errorf("expected 24 triangles, got %d", p.NbTriangles())
	}
	if p.Deflection > 1e-12 {
		t.Errorf("plane deflection = %g, want 0", p.Deflection)
	}
}

func TestSampleVerticesLieOnSurface(t *testing.T) {
	s := surface.NewSphere(v3.Vec{X: 1}, 2)
	p, err := Sample(s, 12, 6)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	for i := 0; i < p.NbVertices(); i++ {
		pos, uv := p.Vertex(i)
		if d := pos.Sub(s.Value(uv.X, uv.Y)).Length(); d > 1e-12 {
			t.Fatalf("vertex %d off surface by %g", i, d)
		}
	}
}

func TestSphereDeflectionShrinks(t *testing.T) {
	s := surface.NewSphere(v3.Vec{}, 1)
	coarse, _ := Sample(s, 8, 4)
	fine, _ := Sample(s, 32, 16)
	if !(fine.Deflection < coarse.Deflection/4) {
		t.Errorf("deflection did not shrink: coarse=%g fine=%g", coarse.Deflection, fine.Deflection)
	}
	// A chord of angle a sags r(1-cos(a/2)).
	sag := 1 - math.Cos(2*math.Pi/32/2)
	if fine.Deflection < sag*0.5 {
		t.Errorf("deflection %g implausibly small against sagitta %g", fine.Deflection, sag)
	}
}

func TestSampleDeflection(t *testing.T) {
	s := surface.NewTorus(v3.Vec{}, v3.Vec{Z: 1}, 3, 1)
	p, err := SampleDeflection(s, 0.01, 512)
	if err != nil {
		t.Fatalf("SampleDeflection: %v", err)
	}
	if p.Deflection > 0.01 {
		t.Errorf("deflection %g above tolerance", p.Deflection)
	}

	_, err = SampleDeflection(s, 1e-9, 16)
	if !errors.Is(err, ErrDeflection) {
		t.Errorf("expected ErrDeflection, got %v", err)
	}

	if _, err := SampleDeflection(s, 0, 16); err == nil {
		t.Error("expected error for zero tolerance")
	}
}
