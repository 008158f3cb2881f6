package pairs

import (
	"errors"
	"slices"
	"testing"

	"github.com/chazu/kerf/pkg/polyhedron"
	"github.com/chazu/kerf/pkg/surface"
	"github.com/chazu/kerf/pkg/voxel"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func mesh(t *testing.T, tris ...[3]v3.Vec) *polyhedron.Polyhedron {
	t.Helper()
	var nodes []v3.Vec
	var uvs []v2.Vec
	var idx [][3]int32
	for _, tr := range tris {
		base := int32(len(nodes))
		nodes = append(nodes, tr[0], tr[1], tr[2])
		uvs = append(uvs, v2.Vec{}, v2.Vec{X: 1}, v2.Vec{Y: 1})
		idx = append(idx, [3]int32{base, base + 1, base + 2})
	}
	p, err := polyhedron.New(nodes, uvs, idx, 0)
	if err != nil {
		t.Fatalf("polyhedron.New: %v", err)
	}
	return p
}

func filter(t *testing.T, a, b *polyhedron.Polyhedron, cell float64, opts ...Option) ([]Pair, Stats, error) {
	t.Helper()
	g, err := voxel.Build(a, b, cell)
	if err != nil {
		t.Fatalf("voxel.Build: %v", err)
	}
	return Filter(g, a, b, 1e-9, opts...)
}

func TestFilter(t *testing.T) {
	flat := [3]v3.Vec{{X: -1, Y: -1}, {X: 1, Y: -1}, {Y: 1}}

	tests := []struct {
		name string
		b    [3]v3.Vec
		cell float64
		want int
	}{
		{"crossing", [3]v3.Vec{{X: -0.5, Z: -1}, {X: 0.5, Z: -1}, {Z: 1}}, 0.2, 1},
		{"parallel above", [3]v3.Vec{{X: -1, Y: -1, Z: 0.1}, {X: 1, Y: -1, Z: 0.1}, {Y: 1, Z: 0.1}}, 0.2, 0},
		// Boxes overlap but the flat triangle lies wholly above the tilted plane.
		{"beside tilted plane", [3]v3.Vec{{X: 1, Y: -1, Z: -0.5}, {X: 1.5, Y: 1}, {X: 0.8, Z: -0.7}}, 2, 0},
		{"touching at a corner", [3]v3.Vec{{Z: 0}, {X: 0.2, Z: 1}, {X: -0.2, Z: 1}}, 0.2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := filter(t, mesh(t, flat), mesh(t, tt.b), tt.cell)
			if err != nil {
				t.Fatalf("Filter: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d pairs, want %d", len(got), tt.want)
			}
		})
	}
}

func TestFilterPlaneRejectionCounted(t *testing.T) {
	a := mesh(t, [3]v3.Vec{{X: -1, Y: -1}, {X: 1, Y: -1}, {Y: 1}})
	b := mesh(t, [3]v3.Vec{{X: 1, Y: -1, Z: -0.5}, {X: 1.5, Y: 1}, {X: 0.8, Z: -0.7}})
	_, st, err := filter(t, a, b, 2)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if st.PlaneRejected != 1 {
		t.Errorf("PlaneRejected = %d, want 1 (stats %+v)", st.PlaneRejected, st)
	}
}

func TestFilterDeduplicatesAcrossCells(t *testing.T) {
	a := mesh(t, [3]v3.Vec{{X: -1, Y: -1}, {X: 1, Y: -1}, {Y: 1}})
	b := mesh(t, [3]v3.Vec{{X: -0.5, Z: -1}, {X: 0.5, Z: -1}, {Z: 1}})
	got, st, err := filter(t, a, b, 0.05)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one pair across many cells, got %v", got)
	}
	if st.Distinct != 1 {
		t.Errorf("Distinct = %d, want 1", st.Distinct)
	}
}

func TestFilterSortedAndRepeatable(t *testing.T) {
	s, _ := polyhedron.Sample(surface.NewSphere(v3.Vec{}, 1), 24, 12)
	p, _ := polyhedron.Sample(surface.NewPlane(v3.Vec{Z: 0.3}, v3.Vec{Z: 1}, 3), 7, 7)

	first, _, err := filter(t, s, p, 0.15)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	second, _, err := filter(t, s, p, 0.15)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("expected candidate pairs")
	}
	if !slices.Equal(first, second) {
		t.Error("candidate set differs between runs")
	}
	for i := 1; i < len(first); i++ {
		x, y := first[i-1], first[i]
		if x.A > y.A || (x.A == y.A && x.B >= y.B) {
			t.Fatalf("pairs not strictly sorted at %d: %v %v", i, x, y)
		}
	}
}

func TestFilterMaxPairs(t *testing.T) {
	s, _ := polyhedron.Sample(surface.NewSphere(v3.Vec{}, 1), 24, 12)
	p, _ := polyhedron.Sample(surface.NewPlane(v3.Vec{}, v3.Vec{Z: 1}, 3), 7, 7)
	_, _, err := filter(t, s, p, 0.5, WithMaxPairs(5))
	if !errors.Is(err, ErrTooManyPairs) {
		t.Errorf("expected ErrTooManyPairs, got %v", err)
	}
}

func TestOneSideDegeneratePlane(t *testing.T) {
	line := [3]v3.Vec{{}, {X: 1}, {X: 2}}
	far := [3]v3.Vec{{Z: 5}, {X: 1, Z: 5}, {Y: 1, Z: 5}}
	if OneSide(line, far, 0) {
		t.Error("degenerate plane must not reject")
	}
	if !OneSide(far, line, 0) {
		t.Error("segment below the plane should be rejected")
	}
}
