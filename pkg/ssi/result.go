package ssi

import (
	"github.com/chazu/kerf/pkg/assemble"
	"github.com/chazu/kerf/pkg/curve"
	"github.com/chazu/kerf/pkg/refine"
	"github.com/chazu/kerf/pkg/transition"
)

// Reason says why a Perform call did not complete.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonInvalidInput
	ReasonInputTooLarge
	ReasonDegenerate
	ReasonCoplanar
	ReasonCanceled
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonInvalidInput:
		return "invalid-input"
	case ReasonInputTooLarge:
		return "input-too-large"
	case ReasonDegenerate:
		return "degenerate"
	case ReasonCoplanar:
		return "coplanar"
	case ReasonCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Stats gathers the counters of every stage of one Perform call.
type Stats struct {
	Cells       int // non-empty grid cells
	SharedCells int // cells holding triangles of both surfaces
	Entries     int // (cell, triangle) memberships
	Candidates  int // pairs surviving the filter
	Rejected    int // pairs removed by the box or plane test
	Segments    int // segment results
	Points      int // point results
	Unstable    int // pairs with degenerate or near-parallel triangles
	Coplanar    int // pairs lying in a common plane
	Trimmed     int // results dropped by the trim domains

	Assembly   assemble.Stats
	Refinement refine.Stats
	Transition transition.Stats
}

// Result is the outcome of Perform. Lines is never nil. When Done is false
// Lines holds whatever was assembled before the failure.
type Result struct {
	Done   bool
	Reason Reason
	Err    error
	Lines  *curve.Set
	Stats  Stats
}

// NbLines returns the number of intersection lines.
func (r *Result) NbLines() int {
	return r.Lines.NbLines()
}

// LineView is a read-only view of one intersection line.
type LineView struct {
	Points     []curve.Point
	Closed     bool
	Kind       curve.Kind
	Tangential bool
	TransA     curve.Transition
	TransB     curve.Transition
}

// Line returns line i. Points alias the result and must not be modified.
func (r *Result) Line(i int) LineView {
	l := r.Lines.Line(i)
	return LineView{
		Points:     r.Lines.Points(i),
		Closed:     l.Closed,
		Kind:       l.Kind,
		Tangential: l.Tangential,
		TransA:     l.TransA,
		TransB:     l.TransB,
	}
}
