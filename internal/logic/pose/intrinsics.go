package pose

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// undistortIterations bounds the fixed-point inversion of the lens model.
const undistortIterations = 20

// Intrinsics holds the pinhole camera matrix and the lens distortion
// coefficients (k1, k2, p1, p2, k3). It is immutable once built.
type Intrinsics struct {
	k    *mat.Dense
	dist [5]float64
}

// NewIntrinsics builds intrinsics from a row-major 3x3 camera matrix and
// 0, 4 or 5 distortion coefficients. Missing coefficients are zero.
func NewIntrinsics(matrix [9]float64, dist []float64) (*Intrinsics, error) {
	for i, v := range matrix {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("camera matrix element %d is not finite", i)
		}
	}
	if matrix[0] <= 0 || matrix[4] <= 0 {
		return nil, fmt.Errorf("focal lengths must be > 0, got fx=%g fy=%g", matrix[0], matrix[4])
	}
	if matrix[3] != 0 || matrix[6] != 0 || matrix[7] != 0 || matrix[8] != 1 {
		return nil, fmt.Errorf("camera matrix must have the form [fx s cx; 0 fy cy; 0 0 1]")
	}
	switch len(dist) {
	case 0, 4, 5:
	default:
		return nil, fmt.Errorf("expected 0, 4 or 5 distortion coefficients, got %d", len(dist))
	}
	in := &Intrinsics{k: mat.NewDense(3, 3, append([]float64(nil), matrix[:]...))}
	for i, v := range dist {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("distortion coefficient %d is not finite", i)
		}
		in.dist[i] = v
	}
	return in, nil
}

// Matrix returns a copy of the camera matrix.
func (in *Intrinsics) Matrix() *mat.Dense {
	return mat.DenseCopyOf(in.k)
}

// Distortion returns the coefficients (k1, k2, p1, p2, k3).
func (in *Intrinsics) Distortion() [5]float64 { return in.dist }

// Fx returns the horizontal focal length in pixels.
func (in *Intrinsics) Fx() float64 { return in.k.At(0, 0) }

// Fy returns the vertical focal length in pixels.
func (in *Intrinsics) Fy() float64 { return in.k.At(1, 1) }

// Cx returns the principal point abscissa in pixels.
func (in *Intrinsics) Cx() float64 { return in.k.At(0, 2) }

// Cy returns the principal point ordinate in pixels.
func (in *Intrinsics) Cy() float64 { return in.k.At(1, 2) }

// Skew returns the axis skew term of the camera matrix.
func (in *Intrinsics) Skew() float64 { return in.k.At(0, 1) }

// Scaled returns intrinsics for an image resized by sx horizontally and sy
// vertically. Distortion is expressed in normalized coordinates and is kept.
func (in *Intrinsics) Scaled(sx, sy float64) *Intrinsics {
	k := mat.DenseCopyOf(in.k)
	k.Set(0, 0, k.At(0, 0)*sx)
	k.Set(0, 1, k.At(0, 1)*sx)
	k.Set(0, 2, k.At(0, 2)*sx)
	k.Set(1, 1, k.At(1, 1)*sy)
	k.Set(1, 2, k.At(1, 2)*sy)
	return &Intrinsics{k: k, dist: in.dist}
}

// distort applies the radial/tangential model to normalized coordinates.
func (in *Intrinsics) distort(x, y float64) (float64, float64) {
	k1, k2, p1, p2, k3 := in.dist[0], in.dist[1], in.dist[2], in.dist[3], in.dist[4]
	r2 := x*x + y*y
	radial := 1 + r2*(k1+r2*(k2+r2*k3))
	xd := x*radial + 2*p1*x*y + p2*(r2+2*x*x)
	yd := y*radial + p1*(r2+2*y*y) + 2*p2*x*y
	return xd, yd
}

// toPixel maps distorted normalized coordinates through the camera matrix.
func (in *Intrinsics) toPixel(xd, yd float64) (float64, float64) {
	return in.Fx()*xd + in.Skew()*yd + in.Cx(), in.Fy()*yd + in.Cy()
}

// normalize maps a pixel to undistorted normalized coordinates by
// inverting the lens model with fixed-point iteration.
func (in *Intrinsics) normalize(u, v float64) (float64, float64) {
	yd := (v - in.Cy()) / in.Fy()
	xd := (u - in.Cx() - in.Skew()*yd) / in.Fx()
	k1, k2, p1, p2, k3 := in.dist[0], in.dist[1], in.dist[2], in.dist[3], in.dist[4]
	x, y := xd, yd
	for i := 0; i < undistortIterations; i++ {
		r2 := x*x + y*y
		icdist := 1 / (1 + r2*(k1+r2*(k2+r2*k3)))
		dx := 2*p1*x*y + p2*(r2+2*x*x)
		dy := p1*(r2+2*y*y) + 2*p2*x*y
		x = (xd - dx) * icdist
		y = (yd - dy) * icdist
	}
	return x, y
}
