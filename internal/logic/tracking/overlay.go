package tracking

import (
	"github.com/golang/geo/r2"

	"github.com/cjeanneret/ARGo/internal/render"
)

var labelOrigin = r2.Point{X: 10, Y: 25}

const (
	sphereMarkerRadius = 1
	boxThickness       = 2
)

// Instructions turns a result into drawing instructions. Frames without an
// overlay are rendered unmodified.
func Instructions(res Result) render.Instructions {
	ov := res.Overlay
	if ov == nil {
		return render.Instructions{}
	}

	var ins render.Instructions
	if ov.BoxLower != nil {
		ins.Polylines = append(ins.Polylines,
			render.Polyline{Points: ov.BoxLower, Closed: true, Thickness: boxThickness, Color: render.Blue},
			render.Polyline{Points: ov.BoxUpper, Closed: true, Thickness: boxThickness, Color: render.Red},
		)
		for i := range ov.BoxLower {
			ins.Polylines = append(ins.Polylines, render.Polyline{
				Points:    []r2.Point{ov.BoxLower[i], ov.BoxUpper[i]},
				Thickness: boxThickness,
				Color:     render.Green,
			})
		}
	}

	ins.Markers = make([]render.Marker, len(ov.Sphere))
	for i, pt := range ov.Sphere {
		ins.Markers[i] = render.Marker{At: pt, Radius: sphereMarkerRadius, Color: render.White}
	}
	ins.Texts = []render.Text{{At: labelOrigin, Value: ov.Label, Color: render.Green}}
	return ins
}
