package tracking

import (
	"context"
	"errors"
	"fmt"

	"github.com/cjeanneret/ARGo/internal/debug"
	"github.com/cjeanneret/ARGo/internal/hw/camera"
	"github.com/cjeanneret/ARGo/internal/logic/pose"
	"github.com/cjeanneret/ARGo/internal/render"
)

// Stats summarizes a run.
type Stats struct {
	Frames       int
	Tracked      int // frames with an overlay
	NoTarget     int
	PoseFailures int
	Pauses       int
}

// Tracker runs the frame loop: read, process, render, handle events.
type Tracker struct {
	source   camera.Source
	pipeline *Pipeline
	renderer render.Renderer
	observe  func(Result)
}

// NewTracker returns a tracker reading from src, processing with p and
// presenting on r.
func NewTracker(src camera.Source, p *Pipeline, r render.Renderer) *Tracker {
	return &Tracker{source: src, pipeline: p, renderer: r}
}

// OnResult registers fn to be called with every frame result, before the
// frame is rendered.
func (t *Tracker) OnResult(fn func(Result)) {
	t.observe = fn
}

// Run processes frames until the source is exhausted or a stop event
// arrives (nil error), or ctx is cancelled (ctx.Err()). Frames are handled
// strictly one at a time.
func (t *Tracker) Run(ctx context.Context) (Stats, error) {
	var st Stats
	debug.Section("Tracking")

	for {
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		default:
		}

		frame, err := t.source.Read(ctx)
		if err != nil {
			if errors.Is(err, camera.ErrExhausted) {
				debug.Live("Frame source exhausted after %d frames", st.Frames)
				return st, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return st, ctxErr
			}
			return st, fmt.Errorf("read frame %d: %w", st.Frames, err)
		}

		res := t.pipeline.Process(frame)
		st.Frames++
		switch {
		case res.Overlay != nil:
			st.Tracked++
		case res.State == NoTarget:
			st.NoTarget++
		case errors.Is(res.Err, pose.ErrPoseNotFound):
			st.PoseFailures++
		}
		state := res.State.String()
		if res.Overlay != nil {
			state += debug.Fmt(" %s", res.Overlay.Label)
		}
		debug.Frame(frame.Index, state)
		if t.observe != nil {
			t.observe(res)
		}

		ev, err := t.renderer.Show(ctx, frame.Image, Instructions(res))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return st, ctxErr
			}
			return st, fmt.Errorf("render frame %d: %w", frame.Index, err)
		}

		if ev == render.EventPause {
			st.Pauses++
			debug.Live("Paused at frame %d", frame.Index)
			if ev, err = t.renderer.Wait(ctx); err != nil {
				return st, err
			}
		}
		if ev == render.EventStop {
			debug.Live("Stopped at frame %d", frame.Index)
			return st, nil
		}
	}
}
