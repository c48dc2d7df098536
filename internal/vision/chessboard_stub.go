//go:build !gocv

package vision

import "errors"

// NewChessboard needs OpenCV; this build does not include it.
func NewChessboard() (Detector, error) {
	return nil, errors.New("chessboard detection requires a build with -tags gocv")
}
