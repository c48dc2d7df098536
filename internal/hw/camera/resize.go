package camera

import (
	"image"

	"golang.org/x/image/draw"
)

// Resize scales img to width x height into a new RGBA image. A zero
// dimension, or a matching size, returns an RGBA copy at the original size.
func Resize(img image.Image, width, height int) *image.RGBA {
	b := img.Bounds()
	if width <= 0 || height <= 0 {
		width, height = b.Dx(), b.Dy()
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == b.Dx() && height == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
