package surface

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Frame is a right-handed orthonormal placement. Z is the principal axis
// of a surface (plane normal, sphere pole, cylinder and torus axis).
type Frame struct {
	Origin  v3.Vec
	X, Y, Z v3.Vec
}

// WorldFrame is the identity placement.
var WorldFrame = Frame{
	X: v3.Vec{X: 1},
	Y: v3.Vec{Y: 1},
	Z: v3.Vec{Z: 1},
}

// NewFrame builds a frame at origin whose Z axis is axis. The X axis is
// chosen from the world axis least aligned with axis, so the result is
// deterministic. A zero axis yields the world orientation.
func NewFrame(origin, axis v3.Vec) Frame {
	if axis.Length() == 0 {
		f := WorldFrame
		f.Origin = origin
		return f
	}
	z := axis.Normalize()
	var helper v3.Vec
	ax, ay, az := math.Abs(z.X), math.Abs(z.Y), math.Abs(z.Z)
	switch {
	case ax <= ay && ax <= az:
		helper = v3.Vec{X: 1}
	case ay <= az:
		helper = v3.Vec{Y: 1}
	default:
		helper = v3.Vec{Z: 1}
	}
	x := helper.Sub(z.MulScalar(helper.Dot(z))).Normalize()
	y := z.Cross(x)
	return Frame{Origin: origin, X: x, Y: y, Z: z}
}

// Point maps local coordinates to model space.
func (f Frame) Point(x, y, z float64) v3.Vec {
	return f.Origin.Add(f.Direction(x, y, z))
}

// Direction maps a local direction to model space.
func (f Frame) Direction(x, y, z float64) v3.Vec {
	return f.X.MulScalar(x).Add(f.Y.MulScalar(y)).Add(f.Z.MulScalar(z))
}
