package pose

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// RotationConverter turns a rotation vector into a 3x3 rotation matrix.
type RotationConverter interface {
	Matrix(rvec r3.Vector) *mat.Dense
}

// RodriguesConverter implements RotationConverter with Rodrigues' formula.
type RodriguesConverter struct{}

// Matrix returns Rodrigues(rvec).
func (RodriguesConverter) Matrix(rvec r3.Vector) *mat.Dense {
	return Rodrigues(rvec)
}

// Rodrigues converts a rotation vector (axis * angle) into a rotation matrix.
func Rodrigues(rvec r3.Vector) *mat.Dense {
	r := rotationArray(rvec)
	return mat.NewDense(3, 3, r[:])
}

// RotationVector converts a rotation matrix back into a rotation vector
// with angle in [0, pi].
func RotationVector(m mat.Matrix) r3.Vector {
	var r [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[3*i+j] = m.At(i, j)
		}
	}
	return rotationVectorArray(r)
}

// rotationArray is Rodrigues' formula on a row-major array.
func rotationArray(rvec r3.Vector) [9]float64 {
	theta := rvec.Norm()
	if theta < 1e-15 {
		return [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	}
	k := rvec.Mul(1 / theta)
	s, c := math.Sincos(theta)
	cc := 1 - c
	return [9]float64{
		c + k.X*k.X*cc, k.X*k.Y*cc - k.Z*s, k.X*k.Z*cc + k.Y*s,
		k.Y*k.X*cc + k.Z*s, c + k.Y*k.Y*cc, k.Y*k.Z*cc - k.X*s,
		k.Z*k.X*cc - k.Y*s, k.Z*k.Y*cc + k.X*s, c + k.Z*k.Z*cc,
	}
}

func rotationVectorArray(r [9]float64) r3.Vector {
	cos := (r[0] + r[4] + r[8] - 1) / 2
	cos = math.Max(-1, math.Min(1, cos))
	theta := math.Acos(cos)
	v := r3.Vector{X: r[7] - r[5], Y: r[2] - r[6], Z: r[3] - r[1]}
	sin := v.Norm() / 2

	if sin > 1e-7 {
		return v.Mul(theta / (2 * sin))
	}
	if cos > 0 {
		// R ~ I + [r]x
		return v.Mul(0.5)
	}

	// theta ~ pi: R = 2kk' - I, so the axis comes from the diagonal.
	k := r3.Vector{
		X: math.Sqrt(math.Max((r[0]+1)/2, 0)),
		Y: math.Sqrt(math.Max((r[4]+1)/2, 0)),
		Z: math.Sqrt(math.Max((r[8]+1)/2, 0)),
	}
	switch k.LargestComponent() {
	case r3.XAxis:
		k.Y = math.Copysign(k.Y, r[1])
		k.Z = math.Copysign(k.Z, r[2])
	case r3.YAxis:
		k.X = math.Copysign(k.X, r[1])
		k.Z = math.Copysign(k.Z, r[5])
	default:
		k.X = math.Copysign(k.X, r[2])
		k.Y = math.Copysign(k.Y, r[5])
	}
	return k.Normalize().Mul(theta)
}

func apply(r [9]float64, x r3.Vector) r3.Vector {
	return r3.Vector{
		X: r[0]*x.X + r[1]*x.Y + r[2]*x.Z,
		Y: r[3]*x.X + r[4]*x.Y + r[5]*x.Z,
		Z: r[6]*x.X + r[7]*x.Y + r[8]*x.Z,
	}
}
