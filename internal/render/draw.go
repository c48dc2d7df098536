// Package render draws the AR overlay and presents frames.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Overlay colors.
var (
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Green = color.RGBA{G: 255, A: 255}
	Blue  = color.RGBA{B: 255, A: 255}
	Red   = color.RGBA{R: 255, A: 255}
)

// Marker is a filled disc.
type Marker struct {
	At     r2.Point
	Radius int
	Color  color.RGBA
}

// Polyline is a sequence of segments, optionally closed.
type Polyline struct {
	Points    []r2.Point
	Closed    bool
	Thickness int
	Color     color.RGBA
}

// Text is a string drawn with its baseline starting at At.
type Text struct {
	At    r2.Point
	Value string
	Color color.RGBA
}

// Instructions is everything drawn over one frame. The zero value draws
// nothing.
type Instructions struct {
	Markers   []Marker
	Polylines []Polyline
	Texts     []Text
}

// Empty reports whether there is nothing to draw.
func (ins Instructions) Empty() bool {
	return len(ins.Markers) == 0 && len(ins.Polylines) == 0 && len(ins.Texts) == 0
}

// Compose copies img into a new RGBA image and draws ins over it.
func Compose(img image.Image, ins Instructions) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	Draw(dst, ins)
	return dst
}

// Draw rasterizes ins onto dst with anti-aliased edges. Anything outside
// dst is clipped.
func Draw(dst *image.RGBA, ins Instructions) {
	if ins.Empty() {
		return
	}
	for _, pl := range ins.Polylines {
		drawPolyline(dst, pl)
	}
	for _, m := range ins.Markers {
		disc(dst, pixelCenter(m.At), float64(m.Radius)+discPad, m.Color)
	}
	for _, t := range ins.Texts {
		d := font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(t.Color),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(int(t.At.X), int(t.At.Y)),
		}
		d.DrawString(t.Value)
	}
}

// discPad widens a marker so that a radius-0 marker covers its whole pixel
// and a radius-1 marker covers the 4-neighbourhood.
const discPad = 0.75

const discSegments = 24

// FillPolygon fills the polygon pts with c. The polygon is clipped to dst.
func FillPolygon(dst *image.RGBA, pts []r2.Point, c color.RGBA) {
	b := dst.Bounds()
	local := make([]r2.Point, 0, len(pts))
	for _, p := range pts {
		if !finite(p) {
			return
		}
		local = append(local, r2.Point{X: p.X - float64(b.Min.X), Y: p.Y - float64(b.Min.Y)})
	}
	local = clip(local, float64(b.Dx()), float64(b.Dy()))
	if len(local) < 3 {
		return
	}
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.MoveTo(float32(local[0].X), float32(local[0].Y))
	for _, p := range local[1:] {
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

func drawPolyline(dst *image.RGBA, pl Polyline) {
	n := len(pl.Points)
	if n < 2 {
		return
	}
	segments := n - 1
	if pl.Closed {
		segments = n
	}
	half := math.Max(float64(pl.Thickness), 1) / 2
	for i := 0; i < segments; i++ {
		a, b := pl.Points[i], pl.Points[(i+1)%n]
		if !finite(a) || !finite(b) {
			continue
		}
		line(dst, pixelCenter(a), pixelCenter(b), half, pl.Color)
	}
}

// line draws a segment of half-width half with round caps.
func line(dst *image.RGBA, a, b r2.Point, half float64, c color.RGBA) {
	d := b.Sub(a)
	if n := d.Norm(); n > 0 {
		off := d.Ortho().Mul(half / n)
		FillPolygon(dst, []r2.Point{a.Add(off), b.Add(off), b.Sub(off), a.Sub(off)}, c)
	}
	disc(dst, a, half, c)
	disc(dst, b, half, c)
}

func disc(dst *image.RGBA, center r2.Point, r float64, c color.RGBA) {
	if r <= 0 || !finite(center) {
		return
	}
	pts := make([]r2.Point, discSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / discSegments
		pts[i] = r2.Point{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)}
	}
	FillPolygon(dst, pts, c)
}

// clip keeps the part of the polygon inside [0,w]x[0,h].
func clip(pts []r2.Point, w, h float64) []r2.Point {
	edges := []struct {
		inside func(r2.Point) bool
		cross  func(a, b r2.Point) r2.Point
	}{
		{func(p r2.Point) bool { return p.X >= 0 }, func(a, b r2.Point) r2.Point { return atX(a, b, 0) }},
		{func(p r2.Point) bool { return p.X <= w }, func(a, b r2.Point) r2.Point { return atX(a, b, w) }},
		{func(p r2.Point) bool { return p.Y >= 0 }, func(a, b r2.Point) r2.Point { return atY(a, b, 0) }},
		{func(p r2.Point) bool { return p.Y <= h }, func(a, b r2.Point) r2.Point { return atY(a, b, h) }},
	}
	for _, e := range edges {
		if len(pts) == 0 {
			return nil
		}
		var out []r2.Point
		prev := pts[len(pts)-1]
		for _, cur := range pts {
			switch in, prevIn := e.inside(cur), e.inside(prev); {
			case in && prevIn:
				out = append(out, cur)
			case in:
				out = append(out, e.cross(prev, cur), cur)
			case prevIn:
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
		pts = out
	}
	return pts
}

func atX(a, b r2.Point, x float64) r2.Point {
	t := (x - a.X) / (b.X - a.X)
	return r2.Point{X: x, Y: a.Y + t*(b.Y-a.Y)}
}

func atY(a, b r2.Point, y float64) r2.Point {
	t := (y - a.Y) / (b.Y - a.Y)
	return r2.Point{X: a.X + t*(b.X-a.X), Y: y}
}

// pixelCenter maps a point to the center of the pixel it falls in.
func pixelCenter(p r2.Point) r2.Point {
	return r2.Point{X: math.Floor(p.X) + 0.5, Y: math.Floor(p.Y) + 0.5}
}

func finite(p r2.Point) bool {
	const limit = 1 << 20
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && math.Abs(p.X) < limit && math.Abs(p.Y) < limit
}
