package geometry

import (
	"math"

	"github.com/golang/geo/r3"
)

// Sphere is the synthetic overlay object, sampled on a latitude/longitude grid.
type Sphere struct {
	Radius         float64
	LatitudeSteps  int       // phi divisions, pole to pole
	LongitudeSteps int       // theta divisions around the axis
	CenterOffset   r3.Vector // subtracted from every sample
}

// Len returns the number of samples Points produces.
func (s Sphere) Len() int {
	if s.LatitudeSteps < 1 || s.LongitudeSteps < 1 {
		return 0
	}
	return (s.LatitudeSteps + 1) * s.LongitudeSteps
}

// Points samples the sphere surface:
//
//	phi   = pi * i / LatitudeSteps,   i in [0, LatitudeSteps]
//	theta = 2pi * j / LongitudeSteps, j in [0, LongitudeSteps)
//	p     = Radius * (sin(phi)cos(theta), sin(phi)sin(theta), cos(phi)) - CenterOffset
//
// Both pole rows are kept: their LongitudeSteps samples coincide.
func (s Sphere) Points() []r3.Vector {
	n := s.Len()
	if n == 0 {
		return nil
	}
	pts := make([]r3.Vector, 0, n)
	for i := 0; i <= s.LatitudeSteps; i++ {
		phi := math.Pi * float64(i) / float64(s.LatitudeSteps)
		sinPhi, cosPhi := math.Sincos(phi)
		for j := 0; j < s.LongitudeSteps; j++ {
			theta := 2 * math.Pi * float64(j) / float64(s.LongitudeSteps)
			sinTheta, cosTheta := math.Sincos(theta)
			p := r3.Vector{
				X: s.Radius * sinPhi * cosTheta,
				Y: s.Radius * sinPhi * sinTheta,
				Z: s.Radius * cosPhi,
			}
			pts = append(pts, p.Sub(s.CenterOffset))
		}
	}
	return pts
}
