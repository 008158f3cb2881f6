package domain

import (
	"testing"

	"github.com/chazu/kerf/pkg/surface"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestRectClassify(t *testing.T) {
	r := FromBounds(surface.NewPlane(v3.Vec{}, v3.Vec{Z: 1}, 2), 1e-9)

	tests := []struct {
		name string
		uv   v2.Vec
		want State
	}{
		{"centre", v2.Vec{}, In},
		{"corner", v2.Vec{X: 1, Y: 1}, On},
		{"edge", v2.Vec{X: -1, Y: 0.2}, On},
		{"outside", v2.Vec{X: 1.5, Y: 0}, Out},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Classify(tt.uv); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.uv, got, tt.want)
			}
		})
	}
}

func TestKeepsNilClassifier(t *testing.T) {
	if !Keeps(nil, v2.Vec{X: 1e9}) {
		t.Error("nil classifier must keep every point")
	}
	if Keeps(Rect{U1: 1, V1: 1}, v2.Vec{X: 2, Y: 0.5}) {
		t.Error("point outside the rectangle was kept")
	}
}
