// Package voxel rasterises two triangle meshes into a shared integer
// lattice so that only triangles occupying a common cell are ever compared.
//
// The lattice covers the intersection of both meshes' bounding boxes,
// enlarged by half a cell. Membership is conservative: every cell a
// triangle touches is recorded, and some it does not touch may be too.
package voxel

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync/atomic"

	"github.com/chazu/kerf/internal/parallel"
	"github.com/chazu/kerf/pkg/polyhedron"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrInputTooLarge is returned when the lattice would overflow its integer
// range or its configured bounds.
var ErrInputTooLarge = errors.New("voxel: input too large")

const (
	keyBits = 21
	keyMask = 1<<keyBits - 1

	// HardAxisCells is the packing limit of a Key per axis.
	HardAxisCells = 1 << keyBits
	// DefaultMaxAxisCells bounds the lattice along each axis.
	DefaultMaxAxisCells = 1 << 20
	// DefaultMaxEntries bounds the total (cell, triangle) memberships.
	DefaultMaxEntries = 1 << 26

	maxDepth = 64
)

// Key identifies a lattice cell.
type Key uint64

// MakeKey packs cell coordinates. Each must be in [0, HardAxisCells).
func MakeKey(x, y, z int) Key {
	return Key(uint64(x)<<(2*keyBits) | uint64(y)<<keyBits | uint64(z))
}

// Coords unpacks a Key.
func (k Key) Coords() (x, y, z int) {
	return int(k >> (2 * keyBits) & keyMask), int(k >> keyBits & keyMask), int(k & keyMask)
}

func (k Key) String() string {
	x, y, z := k.Coords()
	return fmt.Sprintf("(%d,%d,%d)", x, y, z)
}

// Cell holds the sorted triangle indices of each mesh occupying a cell.
type Cell struct {
	A, B []int32
}

// Grid is the lattice built for one intersection call. It is read-only
// after Build returns and owned by the caller.
type Grid struct {
	origin  v3.Vec
	size    float64
	dims    [3]int
	cells   map[Key]*Cell
	shared  []Key
	entries int
}

type options struct {
	maxAxisCells int
	maxEntries   int
	workers      int
}

// Option configures Build.
type Option func(*options)

// WithMaxAxisCells bounds the number of cells along each axis. Values above
// HardAxisCells are clamped.
func WithMaxAxisCells(n int) Option {
	return func(o *options) { o.maxAxisCells = n }
}

// WithMaxEntries bounds the total number of (cell, triangle) memberships.
func WithMaxEntries(n int) Option {
	return func(o *options) { o.maxEntries = n }
}

// WithWorkers sets the number of rasterising goroutines. Zero or negative
// means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// side tags which mesh a membership belongs to.
type side uint8

const (
	sideA side = iota
	sideB
)

type entry struct {
	key  Key
	tri  int32
	side side
}

// Build rasterises a and b into a lattice of cubic cells of edge cellSize.
// Disjoint bounding boxes yield an empty grid and no error.
func Build(a, b polyhedron.Provider, cellSize float64, opts ...Option) (*Grid, error) {
	o := options{maxAxisCells: DefaultMaxAxisCells, maxEntries: DefaultMaxEntries}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxAxisCells <= 0 || o.maxAxisCells > HardAxisCells {
		o.maxAxisCells = HardAxisCells
	}
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("voxel: invalid cell size %g", cellSize)
	}

	g := &Grid{size: cellSize, cells: make(map[Key]*Cell)}
	box, ok := common(polyhedron.Bounds(a), polyhedron.Bounds(b))
	if !ok {
		return g, nil
	}
	half := v3.Vec{X: cellSize / 2, Y: cellSize / 2, Z: cellSize / 2}
	box.Min = box.Min.Sub(half)
	box.Max = box.Max.Add(half)
	g.origin = box.Min

	ext := box.Max.Sub(box.Min)
	for i, e := range [3]float64{ext.X, ext.Y, ext.Z} {
		n := math.Floor(e/cellSize) + 1
		if math.IsNaN(n) || math.IsInf(n, 0) || n > float64(o.maxAxisCells) {
			return nil, fmt.Errorf("%w: %g cells along axis %d (limit %d)", ErrInputTooLarge, n, i, o.maxAxisCells)
		}
		g.dims[i] = int(n)
	}

	na, nb := a.NbTriangles(), b.NbTriangles()
	n := na + nb
	chunks := parallel.Chunks(n, o.workers)
	perWorker := make([][]entry, len(chunks))
	var total atomic.Int64
	var overflow atomic.Bool

	parallel.For(n, o.workers, func(w, lo, hi int) {
		r := rasterizer{g: g}
		for i := lo; i < hi && !overflow.Load(); i++ {
			p, s, t := polyhedron.Provider(a), sideA, i
			if i >= na {
				p, s, t = b, sideB, i-na
			}
			r.keys = r.keys[:0]
			r.fill(polyhedron.Corners(p, t))
			if len(r.keys) == 0 {
				continue
			}
			slices.Sort(r.keys)
			r.keys = slices.Compact(r.keys)
			if total.Add(int64(len(r.keys))) > int64(o.maxEntries) {
				overflow.Store(true)
				return
			}
			for _, k := range r.keys {
				perWorker[w] = append(perWorker[w], entry{key: k, tri: int32(t), side: s})
			}
		}
	})
	if overflow.Load() {
		return nil, fmt.Errorf("%w: more than %d cell memberships", ErrInputTooLarge, o.maxEntries)
	}

	g.merge(perWorker)
	return g, nil
}

// common intersects two boxes. ok is false when they are disjoint or either
// is empty.
func common(a, b sdf.Box3) (sdf.Box3, bool) {
	box := sdf.Box3{Min: a.Min.Max(b.Min), Max: a.Max.Min(b.Max)}
	if box.Min.X > box.Max.X || box.Min.Y > box.Max.Y || box.Min.Z > box.Max.Z {
		return box, false
	}
	return box, true
}

// merge folds the per-worker memberships into the cell map. Workers are
// visited in chunk order so cell lists come out in triangle order before
// sorting.
func (g *Grid) merge(perWorker [][]entry) {
	for _, entries := range perWorker {
		for _, e := range entries {
			c := g.cells[e.key]
			if c == nil {
				c = &Cell{}
				g.cells[e.key] = c
			}
			if e.side == sideA {
				c.A = append(c.A, e.tri)
			} else {
				c.B = append(c.B, e.tri)
			}
			g.entries++
		}
	}
	for k, c := range g.cells {
		slices.Sort(c.A)
		c.A = slices.Compact(c.A)
		slices.Sort(c.B)
		c.B = slices.Compact(c.B)
		if len(c.A) > 0 && len(c.B) > 0 {
			g.shared = append(g.shared, k)
		}
	}
	slices.Sort(g.shared)
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Query returns the triangles of each mesh occupying cell k. The slices are
// shared with the grid and must not be modified.
func (g *Grid) Query(k Key) (a, b []int32) {
	c := g.cells[k]
	if c == nil {
		return nil, nil
	}
	return c.A, c.B
}

// Shared returns, in ascending order, the cells occupied by triangles of
// both meshes.
func (g *Grid) Shared() []Key {
	return g.shared
}

// Empty reports whether no cell is populated.
func (g *Grid) Empty() bool {
	return len(g.cells) == 0
}

// NbCells returns the number of populated cells.
func (g *Grid) NbCells() int {
	return len(g.cells)
}

// Entries returns the total number of (cell, triangle) memberships.
func (g *Grid) Entries() int {
	return g.entries
}

// Dims returns the lattice size along each axis.
func (g *Grid) Dims() [3]int {
	return g.dims
}

// Origin returns the model-space corner of cell (0, 0, 0).
func (g *Grid) Origin() v3.Vec {
	return g.origin
}

// CellSize returns the cell edge length.
func (g *Grid) CellSize() float64 {
	return g.size
}

// CellOf returns the cell containing p. ok is false outside the lattice.
func (g *Grid) CellOf(p v3.Vec) (Key, bool) {
	q := g.lattice(p)
	x, y, z := int(math.Floor(q.X)), int(math.Floor(q.Y)), int(math.Floor(q.Z))
	if !g.inside(x, y, z) {
		return 0, false
	}
	return MakeKey(x, y, z), true
}

func (g *Grid) lattice(p v3.Vec) v3.Vec {
	return p.Sub(g.origin).DivScalar(g.size)
}

func (g *Grid) inside(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < g.dims[0] && y < g.dims[1] && z < g.dims[2]
}
