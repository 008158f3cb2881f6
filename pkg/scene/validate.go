package scene

import "fmt"

// Severity indicates whether a validation finding blocks a job or is
// merely informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks evaluation
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Subject  string   // surface name or job label, empty if scene-level
	Message  string   // human-readable description
	Severity Severity // error or warning
}

func (e ValidationError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Subject, e.Message)
}

// HasErrors reports whether any finding has error severity.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks every surface and job of s. An empty slice means the
// scene is valid. It never mutates s.
func Validate(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, spec := range s.Surfaces {
		errs = append(errs, validateSurface(spec)...)
	}
	errs = append(errs, validateJobs(s)...)
	if len(s.Jobs) == 0 && len(s.Surfaces) > 0 {
		errs = append(errs, ValidationError{
			Message:  "scene declares surfaces but no intersect job",
			Severity: SeverityWarning,
		})
	}
	return errs
}

func validateSurface(spec *SurfaceSpec) []ValidationError {
	var errs []ValidationError
	bad := func(format string, args ...any) {
		errs = append(errs, ValidationError{
			Subject:  spec.Name,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}

	c, a := spec.Center, spec.Axis
	if !finite(c.X, c.Y, c.Z, a.X, a.Y, a.Z, spec.Radius, spec.Minor, spec.Height, spec.Size) {
		bad("non-finite parameter")
		return errs
	}

	switch spec.Kind {
	case KindPlane:
		if a.Length() == 0 {
			bad("plane normal is zero")
		}
		if spec.Size <= 0 {
			bad("plane size must be positive, got %g", spec.Size)
		}
	case KindSphere:
		if spec.Radius <= 0 {
			bad("sphere radius must be positive, got %g", spec.Radius)
		}
	case KindCylinder:
		if a.Length() == 0 {
			bad("cylinder axis is zero")
		}
		if spec.Radius <= 0 {
			bad("cylinder radius must be positive, got %g", spec.Radius)
		}
		if spec.Height <= 0 {
			bad("cylinder height must be positive, got %g", spec.Height)
		}
	case KindTorus:
		if a.Length() == 0 {
			bad("torus axis is zero")
		}
		if spec.Minor <= 0 || spec.Radius <= 0 {
			bad("torus radii must be positive, got %g and %g", spec.Radius, spec.Minor)
		} else if spec.Minor >= spec.Radius {
			errs = append(errs, ValidationError{
				Subject:  spec.Name,
				Message:  fmt.Sprintf("self-intersecting torus: minor radius %g >= major %g", spec.Minor, spec.Radius),
				Severity: SeverityWarning,
			})
		}
	default:
		bad("unknown surface kind %v", spec.Kind)
	}

	for i, h := range spec.Holes {
		if h.Radius <= 0 {
			bad("hole %d radius must be positive, got %g", i, h.Radius)
		}
	}
	return errs
}

func validateJobs(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, j := range s.Jobs {
		bad := func(format string, args ...any) {
			errs = append(errs, ValidationError{
				Subject:  j.Name(),
				Message:  fmt.Sprintf(format, args...),
				Severity: SeverityError,
			})
		}
		if s.Lookup(j.A) == nil {
			bad("unknown surface %q", j.A)
		}
		if s.Lookup(j.B) == nil {
			bad("unknown surface %q", j.B)
		}
		if j.A == j.B {
			bad("surface intersected with itself")
		}
		if j.Deflection < 0 || j.Cell < 0 || j.Tolerance < 0 || !finite(j.Deflection, j.Cell, j.Tolerance) {
			bad("deflection, cell and tolerance must be finite and non-negative")
		}
	}
	return errs
}
