package pose

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const (
	minPlanarPoints    = 4
	minNonPlanarPoints = 6
	planarTolerance    = 1e-9
)

// IterativeSolver solves PnP with a linear estimate (homography for coplanar
// points, DLT otherwise) refined by minimizing the reprojection error.
type IterativeSolver struct {
	// MaxIterations bounds the refinement; 0 means 100, negative disables it.
	MaxIterations int
}

// Solve returns the pose mapping object into the camera frame so that it
// reprojects onto image under intr.
func (s IterativeSolver) Solve(object []r3.Vector, image []r2.Point, intr *Intrinsics) (Pose, error) {
	if len(object) != len(image) {
		return Pose{}, fmt.Errorf("%w: %d object points, %d image points", ErrPoseNotFound, len(object), len(image))
	}
	if len(object) < minPlanarPoints {
		return Pose{}, fmt.Errorf("%w: need at least %d correspondences, got %d", ErrPoseNotFound, minPlanarPoints, len(object))
	}

	norm := make([]r2.Point, len(image))
	for i, p := range image {
		x, y := intr.normalize(p.X, p.Y)
		norm[i] = r2.Point{X: x, Y: y}
	}

	var (
		init Pose
		ok   bool
	)
	if z0, planar := planeZ(object); planar {
		init, ok = planarPose(object, norm, z0)
	} else {
		if len(object) < minNonPlanarPoints {
			return Pose{}, fmt.Errorf("%w: need at least %d non-coplanar correspondences, got %d", ErrPoseNotFound, minNonPlanarPoints, len(object))
		}
		init, ok = dltPose(object, norm)
	}
	if !ok {
		return Pose{}, fmt.Errorf("%w: degenerate configuration", ErrPoseNotFound)
	}

	p := s.refine(object, image, intr, init)
	if !finite(p) {
		return Pose{}, fmt.Errorf("%w: solution is not finite", ErrPoseNotFound)
	}
	return p, nil
}

func (s IterativeSolver) refine(object []r3.Vector, image []r2.Point, intr *Intrinsics, init Pose) Pose {
	iters := s.MaxIterations
	if iters < 0 {
		return init
	}
	if iters == 0 {
		iters = 100
	}

	cost := func(x []float64) float64 {
		p := poseFromParams(x)
		r := rotationArray(p.Rotation)
		var sum float64
		for i, o := range object {
			d := projectOne(r, p.Translation, o, intr).Sub(image[i])
			sum += d.Dot(d)
		}
		return sum
	}
	x0 := init.params()
	f0 := cost(x0)
	if f0 == 0 || math.IsNaN(f0) {
		return init
	}

	problem := optimize.Problem{
		Func: cost,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, cost, x, &fd.Settings{Formula: fd.Central})
		},
	}
	settings := &optimize.Settings{
		MajorIterations: iters,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-12,
			Iterations: 10,
		},
	}
	result, _ := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if result == nil || !(result.F < f0) {
		return init
	}
	return poseFromParams(result.X)
}

// planeZ reports whether all points share one Z value.
func planeZ(object []r3.Vector) (float64, bool) {
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	var extent float64
	for _, o := range object {
		minZ = math.Min(minZ, o.Z)
		maxZ = math.Max(maxZ, o.Z)
		extent = math.Max(extent, math.Max(math.Abs(o.X), math.Abs(o.Y)))
	}
	return minZ, maxZ-minZ <= planarTolerance*math.Max(1, extent)
}

// planarPose decomposes the homography between the plane Z=z0 and the
// normalized image into R and t.
func planarPose(object []r3.Vector, norm []r2.Point, z0 float64) (Pose, bool) {
	n := len(object)
	a := mat.NewDense(2*n, 9, nil)
	for i, o := range object {
		x, y := norm[i].X, norm[i].Y
		a.SetRow(2*i, []float64{o.X, o.Y, 1, 0, 0, 0, -x * o.X, -x * o.Y, -x})
		a.SetRow(2*i+1, []float64{0, 0, 0, o.X, o.Y, 1, -y * o.X, -y * o.Y, -y})
	}
	h, ok := nullVector(a)
	if !ok {
		return Pose{}, false
	}

	h1 := r3.Vector{X: h[0], Y: h[3], Z: h[6]}
	h2 := r3.Vector{X: h[1], Y: h[4], Z: h[7]}
	h3 := r3.Vector{X: h[2], Y: h[5], Z: h[8]}
	norms := h1.Norm() + h2.Norm()
	if norms == 0 {
		return Pose{}, false
	}
	lambda := 2 / norms
	if h3.Z*lambda < 0 {
		lambda = -lambda
	}
	r1 := h1.Mul(lambda)
	r2v := h2.Mul(lambda)
	r3v := r1.Cross(r2v)
	t := h3.Mul(lambda)

	r, ok := orthonormalize([9]float64{
		r1.X, r2v.X, r3v.X,
		r1.Y, r2v.Y, r3v.Y,
		r1.Z, r2v.Z, r3v.Z,
	})
	if !ok {
		return Pose{}, false
	}
	// Points were fitted as (X, Y, 0); shift back to Z=z0.
	t = t.Sub(r3.Vector{X: r[2], Y: r[5], Z: r[8]}.Mul(z0))
	return Pose{Rotation: rotationVectorArray(r), Translation: t}, true
}

// dltPose estimates [R|t] from non-coplanar points by direct linear transform.
func dltPose(object []r3.Vector, norm []r2.Point) (Pose, bool) {
	n := len(object)
	a := mat.NewDense(2*n, 12, nil)
	for i, o := range object {
		x, y := norm[i].X, norm[i].Y
		a.SetRow(2*i, []float64{o.X, o.Y, o.Z, 1, 0, 0, 0, 0, -x * o.X, -x * o.Y, -x * o.Z, -x})
		a.SetRow(2*i+1, []float64{0, 0, 0, 0, o.X, o.Y, o.Z, 1, -y * o.X, -y * o.Y, -y * o.Z, -y})
	}
	p, ok := nullVector(a)
	if !ok {
		return Pose{}, false
	}

	m := mat.NewDense(3, 3, []float64{p[0], p[1], p[2], p[4], p[5], p[6], p[8], p[9], p[10]})
	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDFull) {
		return Pose{}, false
	}
	var u, v, rm mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	rm.Mul(&u, v.T())
	sv := svd.Values(nil)
	scale := (sv[0] + sv[1] + sv[2]) / 3
	if mat.Det(&rm) < 0 {
		rm.Scale(-1, &rm)
		scale = -scale
	}
	if scale == 0 {
		return Pose{}, false
	}

	var r [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[3*i+j] = rm.At(i, j)
		}
	}
	t := r3.Vector{X: p[3], Y: p[7], Z: p[11]}.Mul(1 / scale)
	est := Pose{Rotation: rotationVectorArray(r), Translation: t}

	var centroid r3.Vector
	for _, o := range object {
		centroid = centroid.Add(o)
	}
	if est.Transform(centroid.Mul(1/float64(n))).Z <= 0 {
		return Pose{}, false
	}
	return est, true
}

// nullVector returns the right singular vector of a with the smallest
// singular value.
func nullVector(a *mat.Dense) ([]float64, bool) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFullV) {
		return nil, false
	}
	var v mat.Dense
	svd.VTo(&v)
	_, c := v.Dims()
	return mat.Col(nil, c-1, &v), true
}

// orthonormalize projects a 3x3 matrix onto the closest rotation.
func orthonormalize(m [9]float64) ([9]float64, bool) {
	var svd mat.SVD
	if !svd.Factorize(mat.NewDense(3, 3, m[:]), mat.SVDFull) {
		return m, false
	}
	var u, v, r mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	r.Mul(&u, v.T())
	if mat.Det(&r) < 0 {
		return m, false
	}
	var out [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[3*i+j] = r.At(i, j)
		}
	}
	return out, true
}

func finite(p Pose) bool {
	for _, v := range p.params() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
