package pose

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Projector maps 3D target-frame points into pixel coordinates.
type Projector interface {
	Project(points []r3.Vector, p Pose, intr *Intrinsics) []r2.Point
}

// Pinhole projects through the pose, the pinhole model and the lens
// distortion model of the intrinsics.
type Pinhole struct{}

// Project maps points one-to-one, preserving order.
func (Pinhole) Project(points []r3.Vector, p Pose, intr *Intrinsics) []r2.Point {
	out := make([]r2.Point, len(points))
	r := rotationArray(p.Rotation)
	for i, x := range points {
		out[i] = projectOne(r, p.Translation, x, intr)
	}
	return out
}

func projectOne(r [9]float64, t, x r3.Vector, intr *Intrinsics) r2.Point {
	c := apply(r, x).Add(t)
	invZ := 1.0
	if c.Z != 0 {
		invZ = 1 / c.Z
	}
	xd, yd := intr.distort(c.X*invZ, c.Y*invZ)
	u, v := intr.toPixel(xd, yd)
	return r2.Point{X: u, Y: v}
}
