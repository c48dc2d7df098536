// Package vision locates the calibration target in a frame.
package vision

import (
	"errors"
	"image"

	"github.com/golang/geo/r2"

	"github.com/cjeanneret/ARGo/internal/logic/geometry"
)

// ErrNotDetected is returned when the target is not visible in a frame.
var ErrNotDetected = errors.New("target not detected")

// Detector finds the inner corners of a chessboard.
type Detector interface {
	// Detect returns board.Len() pixel coordinates in the board's row-major
	// order, or ErrNotDetected.
	Detect(img image.Image, board geometry.Board) ([]r2.Point, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(img image.Image, board geometry.Board) ([]r2.Point, error)

// Detect calls f(img, board).
func (f DetectorFunc) Detect(img image.Image, board geometry.Board) ([]r2.Point, error) {
	return f(img, board)
}
