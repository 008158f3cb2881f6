// Package ssi intersects two tessellated parametric surfaces. Perform
// buckets both triangle meshes into a voxel grid, filters the candidate
// triangle pairs, intersects them exactly, chains the pieces into lines and
// labels each line as a crossing or a touch.
//
// The meshes are supplied by the caller together with the evaluators they
// were sampled from. The evaluators are only needed for refinement and
// classification; passing nil leaves every line undecided.
package ssi

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/chazu/kerf/internal/parallel"
	"github.com/chazu/kerf/pkg/assemble"
	"github.com/chazu/kerf/pkg/curve"
	"github.com/chazu/kerf/pkg/domain"
	"github.com/chazu/kerf/pkg/pairs"
	"github.com/chazu/kerf/pkg/polyhedron"
	"github.com/chazu/kerf/pkg/refine"
	"github.com/chazu/kerf/pkg/surface"
	"github.com/chazu/kerf/pkg/transition"
	"github.com/chazu/kerf/pkg/tritri"
	"github.com/chazu/kerf/pkg/voxel"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// ErrCoplanar is reported when the only contact found lies in planes shared
// by triangles of both surfaces.
var ErrCoplanar = errors.New("ssi: coplanar contact only")

// Perform intersects surface A, tessellated as pa, with surface B,
// tessellated as pb. It never returns nil. ctx is polled between batches of
// pair intersections; on cancellation the lines assembled from the work
// already done are returned with ReasonCanceled.
func Perform(ctx context.Context, a, b surface.Evaluator, pa, pb polyhedron.Provider, opts ...Option) *Result {
	res := &Result{Lines: curve.NewSet()}
	log := Logger()

	if pa == nil || pb == nil || pa.NbTriangles() == 0 || pb.NbTriangles() == 0 {
		res.Done = true
		return res
	}

	var c config
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.validate(); err != nil {
		return fail(res, ReasonInvalidInput, err)
	}
	if err := c.resolve(pa, pb); err != nil {
		return fail(res, ReasonInvalidInput, err)
	}
	log.Debug("ssi: start",
		"trianglesA", pa.NbTriangles(), "trianglesB", pb.NbTriangles(),
		"cell", c.cellSize, "linTol", c.linTol, "chainTol", c.chainTol)

	// ---- grid

	var vopts []voxel.Option
	if c.maxAxisCells > 0 {
		vopts = append(vopts, voxel.WithMaxAxisCells(c.maxAxisCells))
	}
	if c.maxEntries > 0 {
		vopts = append(vopts, voxel.WithMaxEntries(c.maxEntries))
	}
	vopts = append(vopts, voxel.WithWorkers(c.workers))
	grid, err := voxel.Build(pa, pb, c.cellSize, vopts...)
	if err != nil {
		if errors.Is(err, voxel.ErrInputTooLarge) {
			return fail(res, ReasonInputTooLarge, err)
		}
		return fail(res, ReasonInvalidInput, err)
	}
	res.Stats.Cells = grid.NbCells()
	res.Stats.SharedCells = len(grid.Shared())
	res.Stats.Entries = grid.Entries()
	log.Debug("ssi: grid", "dims", grid.Dims(), "cells", res.Stats.Cells, "shared", res.Stats.SharedCells)
	if grid.Empty() {
		res.Done = true
		log.Info("ssi: disjoint")
		return res
	}

	// ---- candidate pairs

	var popts []pairs.Option
	if c.maxPairs > 0 {
		popts = append(popts, pairs.WithMaxPairs(c.maxPairs))
	}
	cand, pst, err := pairs.Filter(grid, pa, pb, c.linTol, popts...)
	if err != nil {
		if errors.Is(err, pairs.ErrTooManyPairs) {
			return fail(res, ReasonInputTooLarge, err)
		}
		return fail(res, ReasonInvalidInput, err)
	}
	res.Stats.Candidates = pst.Kept
	res.Stats.Rejected = pst.BoxRejected + pst.PlaneRejected
	log.Debug("ssi: pairs", "distinct", pst.Distinct, "kept", pst.Kept)

	// ---- exact intersection

	segs, points, canceled := c.intersect(ctx, pa, pb, cand, &res.Stats)
	log.Debug("ssi: intersect", "segments", len(segs), "points", len(points),
		"unstable", res.Stats.Unstable, "coplanar", res.Stats.Coplanar)

	// ---- assembly

	aopts := []assemble.Option{}
	if len(c.singular) > 0 {
		exact, approx := c.splitSingular(a, b)
		aopts = append(aopts,
			assemble.WithSingularUV(exact...),
			assemble.WithSingular(approx...),
			assemble.WithSingularTolerance(c.singularTol))
	}
	set, ast, err := assemble.Assemble(segs, points, c.chainTol, aopts...)
	res.Lines = set
	res.Stats.Assembly = ast
	log.Debug("ssi: assemble", "lines", set.NbLines(), "branches", ast.Branches, "abandoned", ast.Abandoned)

	// ---- refinement and classification

	if c.refine && a != nil && b != nil {
		ro := refine.DefaultOptions(c.scale)
		ro.Tolerance = c.linTol
		ro.MaxMove = c.cellSize
		res.Stats.Refinement = refine.Set(set, a, b, ro)
	}
	res.Stats.Transition = transition.Classify(set, a, b, c.angTol)

	switch {
	case canceled != nil:
		return fail(res, ReasonCanceled, canceled)
	case err != nil:
		if errors.Is(err, assemble.ErrDegenerate) {
			return fail(res, ReasonDegenerate, err)
		}
		return fail(res, ReasonInvalidInput, err)
	case set.NbLines() == 0 && res.Stats.Coplanar > 0:
		return fail(res, ReasonCoplanar, fmt.Errorf("%w: %d pairs", ErrCoplanar, res.Stats.Coplanar))
	}

	res.Done = true
	log.Info("ssi: done", "lines", set.NbLines(), "points", set.NbPoints(),
		"crossing", res.Stats.Transition.Crossing, "touch", res.Stats.Transition.Touch)
	return res
}

func fail(res *Result, reason Reason, err error) *Result {
	res.Done = false
	res.Reason = reason
	res.Err = err
	Logger().Warn("ssi: failed", "reason", reason.String(), "err", err)
	return res
}

// ----------------------------------------------------------------------------
// Tolerances

// resolve fills in the defaults that depend on the inputs.
func (c *config) resolve(pa, pb polyhedron.Provider) error {
	ba, bb := polyhedron.Bounds(pa), polyhedron.Bounds(pb)
	lo, hi := ba.Min.Min(bb.Min), ba.Max.Max(bb.Max)
	c.scale = hi.Sub(lo).Length()
	if math.IsNaN(c.scale) || math.IsInf(c.scale, 0) {
		return fmt.Errorf("ssi: non-finite bounds")
	}
	if !(c.scale > 0) {
		c.scale = 1
	}
	if !(c.linTol > 0) {
		c.linTol = 1e-10 * c.scale
	}
	if !(c.chainTol > 0) {
		c.chainTol = math.Max(1e-7*c.scale, 100*c.linTol)
	}
	if !(c.angTol > 0) {
		c.angTol = transition.DefaultAngular
	}
	if !(c.cellSize > 0) {
		c.cellSize = math.Max(polyhedron.MeanLongestEdge(pa), polyhedron.MeanLongestEdge(pb))
		if !(c.cellSize > 0) {
			c.cellSize = c.scale
		}
	}
	if !(c.singularTol > 0) {
		c.singularTol = c.cellSize
	}
	if c.batch <= 0 {
		c.batch = defaultBatch
	}
	return nil
}

// splitSingular separates the singular points whose UVA and UVB evaluate
// to P on both surfaces from those whose parameters must be interpolated.
func (c *config) splitSingular(a, b surface.Evaluator) (exact, approx []curve.Point) {
	for _, s := range c.singular {
		if a != nil && b != nil &&
			a.Value(s.UVA.X, s.UVA.Y).Sub(s.P).Length() <= c.chainTol &&
			b.Value(s.UVB.X, s.UVB.Y).Sub(s.P).Length() <= c.chainTol {
			exact = append(exact, s)
		} else {
			approx = append(approx, s)
		}
	}
	return exact, approx
}

// ----------------------------------------------------------------------------
// Pair intersection

// pairResult is the outcome of one candidate pair, kept in pair order so
// the output does not depend on scheduling.
type pairResult struct {
	res     tritri.Result
	trimmed bool
}

// intersect runs the exact triangle test over cand in batches, checking ctx
// between batches. It returns the segments and contact points found and the
// context error if the run was cut short.
func (c *config) intersect(ctx context.Context, pa, pb polyhedron.Provider, cand []pairs.Pair, st *Stats) ([]curve.Segment, []curve.Endpoint, error) {
	tol := tritri.DefaultTolerance(c.scale)
	tol.Linear = c.linTol
	tol.Point = c.chainTol

	var segs []curve.Segment
	var points []curve.Endpoint
	out := make([]pairResult, min(c.batch, len(cand)))
	for lo := 0; lo < len(cand); lo += c.batch {
		if err := ctx.Err(); err != nil {
			return segs, points, err
		}
		batch := cand[lo:min(lo+c.batch, len(cand))]
		parallel.For(len(batch), c.workers, func(_, i0, i1 int) {
			for i := i0; i < i1; i++ {
				p := batch[i]
				r := tritri.Intersect(tritri.FromProvider(pa, int(p.A)), tritri.FromProvider(pb, int(p.B)), tol)
				out[i] = pairResult{res: r, trimmed: r.Kind != tritri.None && !c.keeps(r)}
			}
		})
		for i, p := range batch {
			r := out[i].res
			switch r.Status {
			case tritri.Unstable:
				st.Unstable++
			case tritri.Coplanar:
				st.Coplanar++
			}
			if r.Kind == tritri.None {
				continue
			}
			if out[i].trimmed {
				st.Trimmed++
				continue
			}
			switch r.Kind {
			case tritri.Segment:
				segs = append(segs, curve.Segment{Ends: r.Ends, TriA: p.A, TriB: p.B})
				st.Segments++
			case tritri.Point:
				points = append(points, r.Ends[0])
				st.Points++
			}
		}
	}
	return segs, points, nil
}

// keeps tests the midpoint of r against both trim domains.
func (c *config) keeps(r tritri.Result) bool {
	if c.domA == nil && c.domB == nil {
		return true
	}
	ua := midUV(r.Ends[0].UVA, r.Ends[1].UVA)
	ub := midUV(r.Ends[0].UVB, r.Ends[1].UVB)
	return domain.Keeps(c.domA, ua) && domain.Keeps(c.domB, ub)
}

func midUV(a, b v2.Vec) v2.Vec {
	return a.Add(b).MulScalar(0.5)
}
