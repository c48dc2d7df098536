package geometry

import (
	"fmt"
	"math"
)

// FOVCalculator computes field of view angles from pinhole focal lengths
// (in pixels) and the image size they apply to.
type FOVCalculator struct {
	fx, fy   float64
	widthPx  int
	heightPx int
}

// NewFOVCalculator creates a new FOV calculator.
// Returns an error if a focal length or an image dimension is not positive.
func NewFOVCalculator(fx, fy float64, widthPx, heightPx int) (*FOVCalculator, error) {
	if fx <= 0 || fy <= 0 {
		return nil, fmt.Errorf("focal lengths must be > 0, got fx=%g fy=%g", fx, fy)
	}
	if widthPx <= 0 || heightPx <= 0 {
		return nil, fmt.Errorf("image size must be > 0, got %dx%d", widthPx, heightPx)
	}
	return &FOVCalculator{fx: fx, fy: fy, widthPx: widthPx, heightPx: heightPx}, nil
}

// HorizontalFOV calculates the horizontal field of view in degrees.
// Formula: FOV = 2 × arctan(width / (2 × fx))
func (f *FOVCalculator) HorizontalFOV() float64 {
	return 2.0 * math.Atan(float64(f.widthPx)/(2.0*f.fx)) * 180.0 / math.Pi
}

// VerticalFOV calculates the vertical field of view in degrees.
// Formula: FOV = 2 × arctan(height / (2 × fy))
func (f *FOVCalculator) VerticalFOV() float64 {
	return 2.0 * math.Atan(float64(f.heightPx)/(2.0*f.fy)) * 180.0 / math.Pi
}
