//go:build gocv

package render

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

const (
	keySpace = ' '
	keyEsc   = 27
)

// Window shows frames in an OpenCV HighGUI window. Space pauses, ESC stops.
type Window struct {
	win *gocv.Window
}

// NewWindow opens a window titled title.
func NewWindow(title string) (Renderer, error) {
	return &Window{win: gocv.NewWindow(title)}, nil
}

// Show draws ins over img with OpenCV and polls the keyboard once.
func (w *Window) Show(ctx context.Context, img image.Image, ins Instructions) (Event, error) {
	if err := ctx.Err(); err != nil {
		return EventNone, err
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return EventNone, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()
	DrawMat(&mat, ins)
	w.win.IMShow(mat)
	return keyEvent(w.win.WaitKey(1), EventNone), nil
}

// Wait polls the keyboard until a key is pressed. ESC stops, any other key resumes.
func (w *Window) Wait(ctx context.Context) (Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return EventNone, err
		}
		if key := w.win.WaitKey(100); key >= 0 {
			return keyEvent(key, EventResume), nil
		}
	}
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}

func keyEvent(key int, fallback Event) Event {
	switch key {
	case keyEsc:
		return EventStop
	case keySpace:
		if fallback == EventNone {
			return EventPause
		}
		return EventResume
	default:
		return fallback
	}
}
