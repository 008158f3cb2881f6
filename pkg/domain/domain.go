// Package domain classifies parameter-space points against the valid
// (trimmed) region of a surface.
package domain

import (
	"github.com/chazu/kerf/pkg/surface"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// State is the position of a UV point relative to a trimmed region.
type State int

const (
	In State = iota
	Out
	On // on the boundary, within tolerance
)

func (s State) String() string {
	switch s {
	case In:
		return "in"
	case Out:
		return "out"
	case On:
		return "on"
	default:
		return "unknown"
	}
}

// Classifier reports where a UV point lies relative to a surface's valid
// region. Implementations must be safe for concurrent reads.
type Classifier interface {
	Classify(uv v2.Vec) State
}

// Compile-time interface check.
var _ Classifier = Rect{}

// Rect is the untrimmed parameter rectangle of a surface.
type Rect struct {
	U0, U1, V0, V1 float64
	Tol            float64
}

// FromBounds returns the parameter rectangle of ev.
func FromBounds(ev surface.Evaluator, tol float64) Rect {
	u0, u1, v0, v1 := ev.Bounds()
	return Rect{U0: u0, U1: u1, V0: v0, V1: v1, Tol: tol}
}

// Classify implements Classifier.
func (r Rect) Classify(uv v2.Vec) State {
	if uv.X < r.U0-r.Tol || uv.X > r.U1+r.Tol || uv.Y < r.V0-r.Tol || uv.Y > r.V1+r.Tol {
		return Out
	}
	if uv.X <= r.U0+r.Tol || uv.X >= r.U1-r.Tol || uv.Y <= r.V0+r.Tol || uv.Y >= r.V1-r.Tol {
		return On
	}
	return In
}

// Keeps reports whether a point classified by c belongs to the region.
// A nil classifier keeps everything.
func Keeps(c Classifier, uv v2.Vec) bool {
	if c == nil {
		return true
	}
	return c.Classify(uv) != Out
}
