//go:build gocv

package camera

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/cjeanneret/ARGo/internal/debug"
)

// Video is a Source decoding a video file (or capture device) with OpenCV.
type Video struct {
	path   string
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	next   int
	width  int
	height int
}

// OpenVideo opens path with OpenCV. It fails with ErrUnavailable when the
// stream cannot be opened.
func OpenVideo(path string, width, height int) (Source, error) {
	vc, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read the given input, %s: %v", ErrUnavailable, path, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: cannot read the given input, %s", ErrUnavailable, path)
	}
	debug.Info("Video source: opened %s", path)
	return &Video{path: path, vc: vc, mat: gocv.NewMat(), width: width, height: height}, nil
}

// Read decodes the next frame and resizes it to the display size.
func (v *Video) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if ok := v.vc.Read(&v.mat); !ok || v.mat.Empty() {
		return Frame{}, ErrExhausted
	}
	if v.width > 0 && v.height > 0 && (v.mat.Cols() != v.width || v.mat.Rows() != v.height) {
		gocv.Resize(v.mat, &v.mat, image.Pt(v.width, v.height), 0, 0, gocv.InterpolationLinear)
	}
	img, err := v.mat.ToImage()
	if err != nil {
		return Frame{}, fmt.Errorf("convert frame %d: %w", v.next, err)
	}
	frame := Frame{Index: v.next, Image: img}
	v.next++
	return frame, nil
}

// Rewind reopens the stream from the start.
func (v *Video) Rewind() error {
	v.vc.Close()
	vc, err := gocv.OpenVideoCapture(v.path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, v.path, err)
	}
	v.vc = vc
	v.next = 0
	return nil
}

// Close releases the capture and its frame buffer.
func (v *Video) Close() error {
	v.mat.Close()
	return v.vc.Close()
}
