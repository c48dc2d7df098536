package render

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/cjeanneret/ARGo/internal/debug"
)

// Event is a user input reported back to the frame loop.
type Event int

const (
	EventNone   Event = iota // no input
	EventPause               // pause requested (Space)
	EventResume              // resume after a pause (any key)
	EventStop                // stop requested (ESC)
)

// String returns the lower-case event name.
func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventStop:
		return "stop"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Renderer presents frames with their overlay.
type Renderer interface {
	// Show presents img with ins drawn over it and returns any pending event.
	Show(ctx context.Context, img image.Image, ins Instructions) (Event, error)
	// Wait blocks while paused, until the next event.
	Wait(ctx context.Context) (Event, error)
	// Close releases the display.
	Close() error
}

// Discard renders nothing. Wait resumes immediately.
type Discard struct{}

// Show drops the frame.
func (Discard) Show(ctx context.Context, img image.Image, ins Instructions) (Event, error) {
	return EventNone, ctx.Err()
}

// Wait returns EventResume unless ctx is done.
func (Discard) Wait(ctx context.Context) (Event, error) { return EventResume, ctx.Err() }

// Close is a no-op.
func (Discard) Close() error { return nil }

// Files writes every composed frame as a numbered PNG.
type Files struct {
	dir  string
	next int
}

// NewFiles creates dir if needed.
func NewFiles(dir string) (*Files, error) {
	if dir == "" {
		return nil, fmt.Errorf("renderer output directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	debug.Info("File renderer: writing frames to %s", dir)
	return &Files{dir: dir}, nil
}

// Show writes frame_NNNNN.png.
func (f *Files) Show(ctx context.Context, img image.Image, ins Instructions) (Event, error) {
	if err := ctx.Err(); err != nil {
		return EventNone, err
	}
	path := filepath.Join(f.dir, fmt.Sprintf("frame_%05d.png", f.next))
	out, err := os.Create(path)
	if err != nil {
		return EventNone, fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(out, Compose(img, ins)); err != nil {
		out.Close()
		return EventNone, fmt.Errorf("encode %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return EventNone, fmt.Errorf("close %s: %w", path, err)
	}
	debug.Trace("File renderer: wrote %s", path)
	f.next++
	return EventNone, nil
}

// Wait resumes immediately; files are never paused.
func (f *Files) Wait(ctx context.Context) (Event, error) { return EventResume, ctx.Err() }

// Close is a no-op; every frame file is closed after writing.
func (f *Files) Close() error { return nil }

// Written returns the number of frames written.
func (f *Files) Written() int { return f.next }
