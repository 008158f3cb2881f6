package ssi

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/kerf/pkg/curve"
	"github.com/chazu/kerf/pkg/domain"
)

// ErrInvalidOption is reported when an option value is negative or not
// finite. Zero always selects the default.
var ErrInvalidOption = errors.New("ssi: invalid option")

// defaultBatch is the number of candidate pairs intersected between two
// cancellation checks.
const defaultBatch = 1 << 14

type config struct {
	scale       float64
	cellSize    float64
	linTol      float64
	chainTol    float64
	angTol      float64
	singularTol float64

	maxAxisCells int
	maxEntries   int
	maxPairs     int
	workers      int
	batch        int

	domA, domB domain.Classifier
	singular   []curve.Point
	refine     bool
}

// validate rejects option values that cannot select a default.
func (c *config) validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"cell size", c.cellSize},
		{"tolerance", c.linTol},
		{"chain tolerance", c.chainTol},
		{"angular tolerance", c.angTol},
		{"singular tolerance", c.singularTol},
	} {
		if f.v < 0 || math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s %g", ErrInvalidOption, f.name, f.v)
		}
	}
	for _, f := range []struct {
		name string
		v    int
	}{
		{"max axis cells", c.maxAxisCells},
		{"max entries", c.maxEntries},
		{"max pairs", c.maxPairs},
		{"batch size", c.batch},
	} {
		if f.v < 0 {
			return fmt.Errorf("%w: %s %d", ErrInvalidOption, f.name, f.v)
		}
	}
	return nil
}

// Option configures Perform.
type Option func(*config)

// WithCellSize sets the voxel edge length. The default is the larger of the
// two polyhedra's mean longest triangle edge.
func WithCellSize(size float64) Option {
	return func(c *config) { c.cellSize = size }
}

// WithTolerance sets the linear tolerance used by the triangle tests and
// refinement. The default is 1e-10 times the scene diagonal.
func WithTolerance(tol float64) Option {
	return func(c *config) { c.linTol = tol }
}

// WithChainTolerance sets the distance under which segment endpoints are the
// same node. The default is max(1e-7 x diagonal, 100 x linear tolerance).
func WithChainTolerance(tol float64) Option {
	return func(c *config) { c.chainTol = tol }
}

// WithAngularTolerance sets the angle, in radians, under which the two
// surface normals are treated as parallel during classification.
func WithAngularTolerance(rad float64) Option {
	return func(c *config) { c.angTol = rad }
}

// WithMaxAxisCells bounds the grid resolution per axis.
func WithMaxAxisCells(n int) Option {
	return func(c *config) { c.maxAxisCells = n }
}

// WithMaxEntries bounds the total number of (cell, triangle) entries.
func WithMaxEntries(n int) Option {
	return func(c *config) { c.maxEntries = n }
}

// WithMaxPairs bounds the number of distinct candidate pairs.
func WithMaxPairs(n int) Option {
	return func(c *config) { c.maxPairs = n }
}

// WithWorkers sets the goroutine count for rasterisation and pair
// intersection. Zero or negative uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithBatchSize sets how many pairs are intersected between cancellation
// checks.
func WithBatchSize(n int) Option {
	return func(c *config) { c.batch = n }
}

// WithDomains restricts the result to the trimmed parameter regions of A and
// B. A nil classifier keeps the whole surface.
func WithDomains(a, b domain.Classifier) Option {
	return func(c *config) { c.domA, c.domB = a, b }
}

// WithSingular supplies known singular points (poles, apexes) to be merged
// into the lines passing within tol of them. A tol of zero uses the cell
// size. A point whose UVA and UVB evaluate to P on both surfaces keeps
// those parameters; otherwise they are interpolated from the line.
func WithSingular(tol float64, pts ...curve.Point) Option {
	return func(c *config) {
		c.singularTol = tol
		c.singular = append(c.singular, pts...)
	}
}

// WithRefinement enables Newton refinement of every line point onto both
// surfaces before classification.
func WithRefinement(on bool) Option {
	return func(c *config) { c.refine = on }
}
