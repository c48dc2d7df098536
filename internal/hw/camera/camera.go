package camera

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrExhausted is returned by Read once the source has no more frames.
	ErrExhausted = errors.New("frame source exhausted")
	// ErrUnavailable is returned when a source cannot be opened.
	ErrUnavailable = errors.New("frame source unavailable")
)

// Frame is one raster image read from a source.
type Frame struct {
	Index int // 0-based position in the stream
	Image image.Image
}

// Source is the high-level interface used by the rest of the application.
// It represents an abstract stream of frames, regardless of where they come
// from (video file, image sequence, simulation, etc.).
type Source interface {
	// Read returns the next frame, or ErrExhausted at the end of the stream.
	Read(ctx context.Context) (Frame, error)
	// Rewind restarts the stream from its first frame.
	Rewind() error
	Close() error
}
