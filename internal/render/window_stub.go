//go:build !gocv

package render

import "errors"

// NewWindow needs OpenCV; this build does not include it.
func NewWindow(title string) (Renderer, error) {
	return nil, errors.New("window renderer requires a build with -tags gocv")
}
