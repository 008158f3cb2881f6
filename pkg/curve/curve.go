// Package curve holds the intersection data model: raw segments produced by
// triangle/triangle intersection and the assembled lines returned to
// callers. Lines are index ranges into one contiguous point arena.
package curve

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Endpoint is one end of a Segment.
type Endpoint struct {
	P   v3.Vec
	UVA v2.Vec // parameters on surface A
	UVB v2.Vec // parameters on surface B
	// OnVertex is set when the point coincides with a triangle vertex
	// rather than crossing an edge interior.
	OnVertex bool
}

// Point returns the endpoint as an undecided line point.
func (e Endpoint) Point() Point {
	return Point{P: e.P, UVA: e.UVA, UVB: e.UVB}
}

// Segment is the intersection of one triangle of each mesh.
type Segment struct {
	Ends       [2]Endpoint
	TriA, TriB int32
}

// Length returns the 3D length of the segment.
func (s Segment) Length() float64 {
	return s.Ends[1].P.Sub(s.Ends[0].P).Length()
}

// Transition describes how a line separates a surface's two sides.
type Transition int

const (
	TransUndecided Transition = iota
	TransIn
	TransOut
	TransTouch
)

func (t Transition) String() string {
	switch t {
	case TransIn:
		return "in"
	case TransOut:
		return "out"
	case TransTouch:
		return "touch"
	default:
		return "undecided"
	}
}

// Kind classifies a whole line.
type Kind int

const (
	KindUndecided Kind = iota
	KindCrossing
	KindTouch
)

func (k Kind) String() string {
	switch k {
	case KindCrossing:
		return "crossing"
	case KindTouch:
		return "touch"
	default:
		return "undecided"
	}
}

// Point is an ordered element of a Line.
type Point struct {
	P     v3.Vec
	UVA   v2.Vec
	UVB   v2.Vec
	Trans Transition
	// Singular marks a point merged in from a caller-supplied singular
	// point (pole, seam, apex).
	Singular bool
}

// Line is an ordered run of points in a Set. A closed line repeats its
// first point as its last.
type Line struct {
	first, count int

	Closed     bool
	Kind       Kind
	Tangential bool
	TransA     Transition
	TransB     Transition
}

// Len returns the number of points on the line.
func (l Line) Len() int {
	return l.count
}

// Set owns the points of every line of one intersection result.
type Set struct {
	points []Point
	lines  []Line
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{}
}

// Add appends a line holding a copy of pts and returns its index.
func (s *Set) Add(pts []Point, closed bool) int {
	s.lines = append(s.lines, Line{first: len(s.points), count: len(pts), Closed: closed})
	s.points = append(s.points, pts...)
	return len(s.lines) - 1
}

// Replace swaps the points of line i. Points are rewritten in place when
// they fit, otherwise appended to the arena.
func (s *Set) Replace(i int, pts []Point) {
	l := &s.lines[i]
	if len(pts) <= l.count {
		copy(s.points[l.first:], pts)
		l.count = len(pts)
		return
	}
	l.first = len(s.points)
	l.count = len(pts)
	s.points = append(s.points, pts...)
}

// NbLines returns the number of lines.
func (s *Set) NbLines() int {
	if s == nil {
		return 0
	}
	return len(s.lines)
}

// Line returns the metadata of line i.
func (s *Set) Line(i int) Line {
	return s.lines[i]
}

// Points returns the points of line i. The slice aliases the arena and must
// be treated as read-only.
func (s *Set) Points(i int) []Point {
	l := s.lines[i]
	return s.points[l.first : l.first+l.count : l.first+l.count]
}

// Length returns the 3D polyline length of line i.
func (s *Set) Length(i int) float64 {
	pts := s.Points(i)
	var sum float64
	for k := 1; k < len(pts); k++ {
		sum += pts[k].P.Sub(pts[k-1].P).Length()
	}
	return sum
}

// SetClass records the classification of line i.
func (s *Set) SetClass(i int, kind Kind, ta, tb Transition) {
	l := &s.lines[i]
	l.Kind = kind
	l.Tangential = kind == KindTouch
	l.TransA, l.TransB = ta, tb
}

// SetPointTransition labels point j of line i.
func (s *Set) SetPointTransition(i, j int, t Transition) {
	s.points[s.lines[i].first+j].Trans = t
}

// NbPoints returns the total number of points across all lines.
func (s *Set) NbPoints() int {
	var n int
	for _, l := range s.lines {
		n += l.count
	}
	return n
}
