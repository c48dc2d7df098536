// Package pose recovers a camera pose from 2D-3D correspondences of a
// planar target and maps 3D points back into the image with it.
package pose

import (
	"errors"

	"github.com/golang/geo/r3"
)

// ErrPoseNotFound is returned when no pose could be solved for a frame.
var ErrPoseNotFound = errors.New("pose not found")

// Pose is the target-to-camera transform: X_camera = R(Rotation)·X_target + Translation.
type Pose struct {
	Rotation    r3.Vector // rotation vector (axis * angle, radians)
	Translation r3.Vector
}

// Transform maps a target-frame point into the camera frame.
func (p Pose) Transform(x r3.Vector) r3.Vector {
	return apply(rotationArray(p.Rotation), x).Add(p.Translation)
}

func (p Pose) params() []float64 {
	return []float64{
		p.Rotation.X, p.Rotation.Y, p.Rotation.Z,
		p.Translation.X, p.Translation.Y, p.Translation.Z,
	}
}

func poseFromParams(x []float64) Pose {
	return Pose{
		Rotation:    r3.Vector{X: x[0], Y: x[1], Z: x[2]},
		Translation: r3.Vector{X: x[3], Y: x[4], Z: x[5]},
	}
}
