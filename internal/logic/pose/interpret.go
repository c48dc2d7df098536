package pose

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// CameraPosition returns the camera origin in target coordinates, -Rᵗ·t.
func CameraPosition(p Pose, conv RotationConverter) r3.Vector {
	r := conv.Matrix(p.Rotation)
	t := mat.NewVecDense(3, []float64{p.Translation.X, p.Translation.Y, p.Translation.Z})

	var pos mat.VecDense
	pos.MulVec(r.T(), t)
	pos.ScaleVec(-1, &pos)
	return r3.Vector{X: pos.AtVec(0), Y: pos.AtVec(1), Z: pos.AtVec(2)}
}

// FormatPosition renders a camera position for the overlay readout.
func FormatPosition(p r3.Vector) string {
	return fmt.Sprintf("XYZ: [%.3f %.3f %.3f]", p.X, p.Y, p.Z)
}
