//go:build !gocv

package camera

import "fmt"

// OpenVideo needs OpenCV; this build does not include it.
func OpenVideo(path string, width, height int) (Source, error) {
	return nil, fmt.Errorf("%w: %s: video decoding requires a build with -tags gocv", ErrUnavailable, path)
}
