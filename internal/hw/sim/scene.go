// Package sim provides a synthetic frame source and detector: a virtual
// camera orbiting the board, reporting exact corner projections.
package sim

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/cjeanneret/ARGo/internal/debug"
	"github.com/cjeanneret/ARGo/internal/hw/camera"
	"github.com/cjeanneret/ARGo/internal/logic/geometry"
	"github.com/cjeanneret/ARGo/internal/logic/pose"
	"github.com/cjeanneret/ARGo/internal/render"
	"github.com/cjeanneret/ARGo/internal/vision"
)

var (
	background = color.RGBA{R: 96, G: 96, B: 96, A: 255}
	lightCell  = color.RGBA{R: 235, G: 235, B: 235, A: 255}
	darkCell   = color.RGBA{R: 20, G: 20, B: 20, A: 255}
)

// Orbit describes the virtual camera path.
type Orbit struct {
	Frames       int     // frames per run
	Radius       float64 // orbit radius around the board center (meters)
	Height       float64 // distance from the board plane (meters)
	DropoutEvery int     // every Nth frame reports no detection; 0 disables
}

// Image is a synthetic frame. Corners is nil when the frame simulates a
// detection failure.
type Image struct {
	*image.RGBA
	Corners []r2.Point
}

// Scene is both a camera.Source and a vision.Detector.
type Scene struct {
	board  geometry.Board
	intr   *pose.Intrinsics
	orbit  Orbit
	width  int
	height int
	proj   pose.Pinhole
	next   int
}

var (
	_ camera.Source   = (*Scene)(nil)
	_ vision.Detector = (*Scene)(nil)
)

// NewScene validates the orbit and returns a scene rendering width x height frames.
func NewScene(board geometry.Board, intr *pose.Intrinsics, orbit Orbit, width, height int) (*Scene, error) {
	if board.Len() == 0 || board.CellSize <= 0 {
		return nil, fmt.Errorf("%w: sim: invalid board %dx%d", camera.ErrUnavailable, board.Columns, board.Rows)
	}
	if orbit.Frames <= 0 {
		return nil, fmt.Errorf("%w: sim: frames must be > 0, got %d", camera.ErrUnavailable, orbit.Frames)
	}
	if orbit.Height <= 0 || orbit.Radius < 0 {
		return nil, fmt.Errorf("%w: sim: invalid orbit (radius %g, height %g)", camera.ErrUnavailable, orbit.Radius, orbit.Height)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: sim: invalid frame size %dx%d", camera.ErrUnavailable, width, height)
	}
	debug.Info("Sim source: %d frames, orbit %.3fm at %.3fm", orbit.Frames, orbit.Radius, orbit.Height)
	return &Scene{board: board, intr: intr, orbit: orbit, width: width, height: height}, nil
}

// Pose returns the ground-truth target-to-camera pose of frame i.
func (s *Scene) Pose(i int) pose.Pose {
	cs := s.board.CellSize
	center := r3.Vector{
		X: float64(s.board.Columns-1) * cs / 2,
		Y: float64(s.board.Rows-1) * cs / 2,
	}
	a := 2 * math.Pi * float64(i) / float64(s.orbit.Frames)
	sinA, cosA := math.Sincos(a)
	// The camera sits on the -Z side of the board, looking at its center.
	eye := center.Add(r3.Vector{X: s.orbit.Radius * cosA, Y: s.orbit.Radius * sinA, Z: -s.orbit.Height})

	z := center.Sub(eye).Normalize()
	x := r3.Vector{Y: 1}.Cross(z)
	if x.Norm() < 1e-9 {
		x = r3.Vector{X: 1}.Cross(z)
	}
	x = x.Normalize()
	y := z.Cross(x)

	r := mat.NewDense(3, 3, []float64{
		x.X, x.Y, x.Z,
		y.X, y.Y, y.Z,
		z.X, z.Y, z.Z,
	})
	t := r3.Vector{X: -x.Dot(eye), Y: -y.Dot(eye), Z: -z.Dot(eye)}
	return pose.Pose{Rotation: pose.RotationVector(r), Translation: t}
}

func (s *Scene) dropped(i int) bool {
	return s.orbit.DropoutEvery > 0 && (i+1)%s.orbit.DropoutEvery == 0
}

// Read renders the next frame.
func (s *Scene) Read(ctx context.Context) (camera.Frame, error) {
	if err := ctx.Err(); err != nil {
		return camera.Frame{}, err
	}
	if s.next >= s.orbit.Frames {
		return camera.Frame{}, camera.ErrExhausted
	}
	i := s.next
	s.next++

	p := s.Pose(i)
	img := &Image{RGBA: s.render(p)}
	if !s.dropped(i) {
		img.Corners = s.proj.Project(s.board.Points(), p, s.intr)
	}
	return camera.Frame{Index: i, Image: img}, nil
}

// Rewind restarts the orbit.
func (s *Scene) Rewind() error {
	s.next = 0
	return nil
}

// Close is a no-op.
func (s *Scene) Close() error { return nil }

// Detect returns the corners carried by a synthetic frame.
func (s *Scene) Detect(img image.Image, board geometry.Board) ([]r2.Point, error) {
	si, ok := img.(*Image)
	if !ok || si.Corners == nil || len(si.Corners) != board.Len() {
		return nil, vision.ErrNotDetected
	}
	return append([]r2.Point(nil), si.Corners...), nil
}

// render draws the board squares, including the outer ring of cells around
// the inner-corner grid.
func (s *Scene) render(p pose.Pose) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for i := range img.Pix {
		if i%4 == 3 {
			img.Pix[i] = 255
			continue
		}
		img.Pix[i] = background.R
	}

	cs := s.board.CellSize
	for r := -1; r < s.board.Rows; r++ {
		for c := -1; c < s.board.Columns; c++ {
			x0, y0 := float64(c)*cs, float64(r)*cs
			quad := s.proj.Project([]r3.Vector{
				{X: x0, Y: y0},
				{X: x0 + cs, Y: y0},
				{X: x0 + cs, Y: y0 + cs},
				{X: x0, Y: y0 + cs},
			}, p, s.intr)
			col := lightCell
			if (r+c)%2 == 0 {
				col = darkCell
			}
			render.FillPolygon(img, quad, col)
		}
	}
	return img
}
