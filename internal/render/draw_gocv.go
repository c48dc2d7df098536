//go:build gocv

package render

import (
	"image"

	"github.com/golang/geo/r2"
	"gocv.io/x/gocv"
)

const (
	textFace  = gocv.FontHersheyDuplex
	textScale = 0.6
)

// DrawMat draws ins onto an OpenCV frame. Markers are filled circles,
// polylines keep their thickness and texts use the Hershey duplex face.
func DrawMat(m *gocv.Mat, ins Instructions) {
	for _, pl := range ins.Polylines {
		pts := make([]image.Point, 0, len(pl.Points))
		for _, p := range pl.Points {
			if !finite(p) {
				pts = nil
				break
			}
			pts = append(pts, matPoint(p))
		}
		if len(pts) < 2 {
			continue
		}
		pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
		gocv.Polylines(m, pv, pl.Closed, pl.Color, max(pl.Thickness, 1))
		pv.Close()
	}
	for _, mk := range ins.Markers {
		if !finite(mk.At) {
			continue
		}
		gocv.Circle(m, matPoint(mk.At), mk.Radius, mk.Color, -1)
	}
	for _, t := range ins.Texts {
		gocv.PutText(m, t.Value, matPoint(t.At), textFace, textScale, t.Color, 1)
	}
}

func matPoint(p r2.Point) image.Point {
	return image.Pt(int(p.X), int(p.Y))
}
