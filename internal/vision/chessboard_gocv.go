//go:build gocv

package vision

import (
	"fmt"
	"image"

	"github.com/golang/geo/r2"
	"gocv.io/x/gocv"

	"github.com/cjeanneret/ARGo/internal/debug"
	"github.com/cjeanneret/ARGo/internal/logic/geometry"
)

const chessboardFlags = gocv.CalibCBAdaptiveThresh | gocv.CalibCBNormalizeImage | gocv.CalibCBFastCheck

// Chessboard detects the board with OpenCV's findChessboardCorners.
type Chessboard struct{}

// NewChessboard returns the OpenCV detector.
func NewChessboard() (Detector, error) {
	return Chessboard{}, nil
}

// Detect converts img to a BGR Mat and searches for the inner corners.
func (Chessboard) Detect(img image.Image, board geometry.Board) ([]r2.Point, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer src.Close()

	corners := gocv.NewMat()
	defer corners.Close()

	pattern := image.Pt(board.Columns, board.Rows)
	if !gocv.FindChessboardCorners(src, pattern, &corners, chessboardFlags) {
		return nil, ErrNotDetected
	}
	if corners.Rows() != board.Len() {
		debug.Trace("Chessboard: %d corners for a %dx%d board", corners.Rows(), board.Columns, board.Rows)
		return nil, ErrNotDetected
	}

	pts := make([]r2.Point, corners.Rows())
	for i := range pts {
		v := corners.GetVecfAt(i, 0)
		pts[i] = r2.Point{X: float64(v[0]), Y: float64(v[1])}
	}
	return pts, nil
}
