// Package sdfx implements domain.Classifier on top of 2D signed distance
// fields from the github.com/deadsy/sdfx CAD library. A trim region is any
// sdf.SDF2 in the surface's (u, v) plane: negative inside, positive outside.
package sdfx

import (
	"fmt"

	"github.com/chazu/kerf/pkg/domain"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Compile-time interface check.
var _ domain.Classifier = (*Trim)(nil)

// Trim classifies UV points against a 2D distance field.
type Trim struct {
	s   sdf.SDF2
	tol float64
}

// New wraps s. Points within tol of the zero level are On.
func New(s sdf.SDF2, tol float64) *Trim {
	return &Trim{s: s, tol: tol}
}

// Classify implements domain.Classifier.
func (t *Trim) Classify(uv v2.Vec) domain.State {
	d := t.s.Evaluate(uv)
	switch {
	case d < -t.tol:
		return domain.In
	case d > t.tol:
		return domain.Out
	default:
		return domain.On
	}
}

// SDF returns the underlying distance field.
func (t *Trim) SDF() sdf.SDF2 {
	return t.s
}

// Rect returns the distance field of the parameter rectangle
// [u0, u1] x [v0, v1].
func Rect(u0, u1, v0, v1 float64) sdf.SDF2 {
	box := sdf.Box2D(v2.Vec{X: u1 - u0, Y: v1 - v0}, 0)
	m := sdf.Translate2d(v2.Vec{X: (u0 + u1) / 2, Y: (v0 + v1) / 2})
	return sdf.Transform2D(box, m)
}

// Circle is a circular hole in parameter space.
type Circle struct {
	Center v2.Vec
	Radius float64
}

// NewHoled returns the parameter rectangle with a circular hole of the
// given radius punched at center.
func NewHoled(u0, u1, v0, v1 float64, center v2.Vec, radius, tol float64) (*Trim, error) {
	return NewPerforated(u0, u1, v0, v1, []Circle{{Center: center, Radius: radius}}, tol)
}

// NewPerforated returns the parameter rectangle minus every hole. With no
// holes it is the plain rectangle.
func NewPerforated(u0, u1, v0, v1 float64, holes []Circle, tol float64) (*Trim, error) {
	rect := Rect(u0, u1, v0, v1)
	if len(holes) == 0 {
		return New(rect, tol), nil
	}
	cut := make([]sdf.SDF2, 0, len(holes))
	for i, h := range holes {
		c, err := sdf.Circle2D(h.Radius)
		if err != nil {
			return nil, fmt.Errorf("sdfx: hole %d: %w", i, err)
		}
		cut = append(cut, sdf.Transform2D(c, sdf.Translate2d(h.Center)))
	}
	hole := cut[0]
	if len(cut) > 1 {
		hole = sdf.Union2D(cut...)
	}
	return New(sdf.Difference2D(rect, hole), tol), nil
}
