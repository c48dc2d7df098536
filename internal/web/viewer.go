package web

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"sync"
	"time"

	"github.com/cjeanneret/ARGo/internal/logic/tracking"
	"github.com/cjeanneret/ARGo/internal/render"
)

const jpegQuality = 80

// Viewer is a render.Renderer publishing the latest composed frame as JPEG.
// Pause, resume and stop arrive from HTTP handlers through Send.
type Viewer struct {
	mu       sync.RWMutex
	frame    []byte
	index    int
	events   chan render.Event
	interval time.Duration
}

var _ render.Renderer = (*Viewer)(nil)

// NewViewer creates a viewer. interval paces frames (0 = as fast as the
// source delivers them).
func NewViewer(interval time.Duration) *Viewer {
	return &Viewer{
		index:    -1,
		events:   make(chan render.Event, 8),
		interval: interval,
	}
}

// Send queues an event for the frame loop. It returns false if the queue is full.
func (v *Viewer) Send(ev render.Event) bool {
	select {
	case v.events <- ev:
		return true
	default:
		return false
	}
}

// Frame returns the latest JPEG and its frame index.
func (v *Viewer) Frame() ([]byte, int, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.frame == nil {
		return nil, 0, false
	}
	return v.frame, v.index, true
}

// Show encodes the composed frame, waits for the pacing interval and
// returns the first pending pause or stop event.
func (v *Viewer) Show(ctx context.Context, img image.Image, ins render.Instructions) (render.Event, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, render.Compose(img, ins), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return render.EventNone, fmt.Errorf("encode frame: %w", err)
	}
	v.mu.Lock()
	v.frame = buf.Bytes()
	v.index++
	v.mu.Unlock()

	if v.interval > 0 {
		t := time.NewTimer(v.interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return render.EventNone, ctx.Err()
		case <-t.C:
		}
	}

	for {
		select {
		case ev := <-v.events:
			if ev == render.EventPause || ev == render.EventStop {
				return ev, nil
			}
		default:
			return render.EventNone, nil
		}
	}
}

// Wait blocks until a resume or stop event, or ctx is done.
func (v *Viewer) Wait(ctx context.Context) (render.Event, error) {
	for {
		select {
		case <-ctx.Done():
			return render.EventNone, ctx.Err()
		case ev := <-v.events:
			if ev == render.EventResume || ev == render.EventStop {
				return ev, nil
			}
		}
	}
}

// Reset clears the frame counter before a new run.
func (v *Viewer) Reset() {
	v.mu.Lock()
	v.index = -1
	v.mu.Unlock()
	for {
		select {
		case <-v.events:
		default:
			return
		}
	}
}

// Close is a no-op; the last frame stays available to HTTP clients.
func (v *Viewer) Close() error { return nil }

// NewPoseEvent converts a frame result for the status stream.
func NewPoseEvent(res tracking.Result) PoseEvent {
	ev := PoseEvent{Frame: res.Index, State: res.State.String()}
	if ov := res.Overlay; ov != nil {
		ev.Position = [3]float64{ov.Position.X, ov.Position.Y, ov.Position.Z}
		ev.Label = ov.Label
		ev.Quality = string(ov.Quality)
		if !math.IsNaN(ov.RMSE) && !math.IsInf(ov.RMSE, 0) {
			ev.RMSE = ov.RMSE
		}
	}
	return ev
}
