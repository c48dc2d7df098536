package pose

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"
)

// Reference intrinsics from the default configuration.
var defaultMatrix = [9]float64{
	1.01212241e+03, 0, 9.54081522e+02,
	0, 1.01205120e+03, 5.41382436e+02,
	0, 0, 1,
}

var defaultDistortion = []float64{0.00020659, 0.02590867, -0.00105908, 0.00307626, -0.02384998}

func testIntrinsics(t *testing.T, dist []float64) *Intrinsics {
	t.Helper()
	in, err := NewIntrinsics(defaultMatrix, dist)
	require.NoError(t, err)
	return in
}

// boardPoints mirrors a 10x7 chessboard of 2.5cm cells.
func boardPoints() []r3.Vector {
	var pts []r3.Vector
	for r := 0; r < 7; r++ {
		for c := 0; c < 10; c++ {
			pts = append(pts, r3.Vector{X: float64(c) * 0.025, Y: float64(r) * 0.025})
		}
	}
	return pts
}

// testPoses are target-to-camera poses with the board in front of the camera.
var testPoses = []struct {
	name string
	pose Pose
}{
	{"frontal", Pose{Rotation: r3.Vector{}, Translation: r3.Vector{X: -0.1, Y: -0.08, Z: 0.6}}},
	{"tilted", Pose{Rotation: r3.Vector{X: 0.4, Y: -0.2, Z: 0.1}, Translation: r3.Vector{X: -0.12, Y: -0.05, Z: 0.5}}},
	{"rolled", Pose{Rotation: r3.Vector{X: -0.3, Y: 0.25, Z: 1.2}, Translation: r3.Vector{X: 0.05, Y: -0.1, Z: 0.8}}},
	{"oblique", Pose{Rotation: r3.Vector{X: 0.9, Y: 0.1, Z: -0.4}, Translation: r3.Vector{X: -0.08, Y: 0.02, Z: 0.45}}},
}
