package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/chazu/kerf/pkg/engine"
	"github.com/chazu/kerf/pkg/scene"
	"github.com/chazu/kerf/pkg/ssi"
	"github.com/chazu/kerf/pkg/tessellate"
)

// App runs scripts through the engine and intersects every job they
// declare.
type App struct {
	engine *engine.Engine
	refine bool
	log    *slog.Logger
}

// PointData is one point of an intersection line.
type PointData struct {
	XYZ   [3]float64 `json:"xyz"`
	UVA   [2]float64 `json:"uvA"`
	UVB   [2]float64 `json:"uvB"`
	Trans string     `json:"trans,omitempty"`
}

// LineData is one intersection line.
type LineData struct {
	Closed     bool        `json:"closed"`
	Kind       string      `json:"kind"`
	Tangential bool        `json:"tangential,omitempty"`
	TransA     string      `json:"transA"`
	TransB     string      `json:"transB"`
	Points     []PointData `json:"points"`
}

// JobData is the outcome of one intersect job.
type JobData struct {
	Name      string     `json:"name"`
	Done      bool       `json:"done"`
	Reason    string     `json:"reason,omitempty"`
	Error     string     `json:"error,omitempty"`
	Approx    bool       `json:"approx,omitempty"`
	Triangles [2]int     `json:"triangles"`
	Elapsed   string     `json:"elapsed"`
	Lines     []LineData `json:"lines"`
	Stats     ssi.Stats  `json:"stats"`
}

// EvalErrorData is a script error with its position.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Report is the full result of running one script.
type Report struct {
	Jobs   []JobData       `json:"jobs"`
	Errors []EvalErrorData `json:"errors"`
}

// NewApp creates an App with a fresh engine.
func NewApp(refine bool) *App {
	return &App{
		engine: engine.NewEngine(),
		refine: refine,
		log:    ssi.Logger(),
	}
}

// Run evaluates source and performs each of its jobs in order. Script
// errors are reported in Report.Errors and stop before any job runs; a
// failed job is reported in its JobData and does not stop the others.
func (a *App) Run(ctx context.Context, source string) Report {
	report := Report{
		Jobs:   []JobData{},
		Errors: []EvalErrorData{},
	}

	// Step 1: Evaluate the script into a scene.
	sc, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		a.log.Warn("kerf: evaluate", "err", err)
		report.Errors = append(report.Errors, EvalErrorData{Message: err.Error()})
		return report
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			report.Errors = append(report.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return report
	}

	// Step 2: Tessellate and intersect each job.
	tess := tessellate.New(sc)
	for _, job := range sc.Jobs {
		if ctx.Err() != nil {
			break
		}
		report.Jobs = append(report.Jobs, a.runJob(ctx, sc, tess, job))
	}
	return report
}

func (a *App) runJob(ctx context.Context, sc *scene.Scene, tess *tessellate.Tessellator, job scene.Job) JobData {
	out := JobData{Name: job.Name(), Lines: []LineData{}}
	start := time.Now()
	defer func() { out.Elapsed = time.Since(start).Round(time.Microsecond).String() }()

	pa, pb, err := tess.Job(job)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Approx = pa.Approx || pb.Approx
	out.Triangles = [2]int{pa.Mesh.NbTriangles(), pb.Mesh.NbTriangles()}

	da, err := sc.Lookup(job.A).Domain()
	if err != nil {
		out.Error = err.Error()
		return out
	}
	db, err := sc.Lookup(job.B).Domain()
	if err != nil {
		out.Error = err.Error()
		return out
	}

	opts := []ssi.Option{
		ssi.WithDomains(da, db),
		ssi.WithRefinement(a.refine || job.Refine),
	}
	if job.Cell > 0 {
		opts = append(opts, ssi.WithCellSize(job.Cell))
	}
	if job.Tolerance > 0 {
		opts = append(opts, ssi.WithTolerance(job.Tolerance))
	}

	res := ssi.Perform(ctx, pa.Surface, pb.Surface, pa.Mesh, pb.Mesh, opts...)
	out.Done = res.Done
	out.Stats = res.Stats
	if !res.Done {
		out.Reason = res.Reason.String()
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	for i := 0; i < res.NbLines(); i++ {
		out.Lines = append(out.Lines, lineData(res.Line(i)))
	}
	return out
}

func lineData(l ssi.LineView) LineData {
	ld := LineData{
		Closed:     l.Closed,
		Kind:       l.Kind.String(),
		Tangential: l.Tangential,
		TransA:     l.TransA.String(),
		TransB:     l.TransB.String(),
		Points:     make([]PointData, len(l.Points)),
	}
	for i, p := range l.Points {
		pd := PointData{
			XYZ: [3]float64{p.P.X, p.P.Y, p.P.Z},
			UVA: [2]float64{p.UVA.X, p.UVA.Y},
			UVB: [2]float64{p.UVB.X, p.UVB.Y},
		}
		if p.Trans != 0 {
			pd.Trans = p.Trans.String()
		}
		ld.Points[i] = pd
	}
	return ld
}
