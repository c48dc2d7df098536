package pose

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Solver solves the Perspective-n-Point problem.
type Solver interface {
	Solve(object []r3.Vector, image []r2.Point, intr *Intrinsics) (Pose, error)
}

// Estimator recovers the target pose from detected corners, against a fixed
// set of reference points and intrinsics.
type Estimator struct {
	solver Solver
	target []r3.Vector
	intr   *Intrinsics
}

// NewEstimator creates an estimator. target is not copied and must not be
// modified afterwards.
func NewEstimator(s Solver, target []r3.Vector, intr *Intrinsics) *Estimator {
	return &Estimator{solver: s, target: target, intr: intr}
}

// Estimate solves the pose for corners, which must follow the order of the
// reference points. Every failure wraps ErrPoseNotFound.
func (e *Estimator) Estimate(corners []r2.Point) (Pose, error) {
	if len(corners) != len(e.target) {
		return Pose{}, fmt.Errorf("%w: %d corners for %d reference points", ErrPoseNotFound, len(corners), len(e.target))
	}
	p, err := e.solver.Solve(e.target, corners, e.intr)
	if err != nil {
		if errors.Is(err, ErrPoseNotFound) {
			return Pose{}, err
		}
		return Pose{}, fmt.Errorf("%w: %v", ErrPoseNotFound, err)
	}
	return p, nil
}

// Intrinsics returns the intrinsics the estimator solves against.
func (e *Estimator) Intrinsics() *Intrinsics { return e.intr }
