// Package tracking drives the per-frame pose and overlay pipeline.
package tracking

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/cjeanneret/ARGo/internal/debug"
	"github.com/cjeanneret/ARGo/internal/hw/camera"
	"github.com/cjeanneret/ARGo/internal/logic/geometry"
	"github.com/cjeanneret/ARGo/internal/logic/pose"
	"github.com/cjeanneret/ARGo/internal/vision"
)

// State is the tracking state of one frame. It is derived from that frame
// alone.
type State int

const (
	// NoTarget means the target was not detected in the frame.
	NoTarget State = iota
	// Tracking means the target was detected; a pose may still be missing.
	Tracking
)

// String returns the state name as shown in logs.
func (s State) String() string {
	switch s {
	case NoTarget:
		return "NO_TARGET"
	case Tracking:
		return "TRACKING"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Overlay is the frame-scoped output of a solved frame.
type Overlay struct {
	Pose     pose.Pose
	Corners  []r2.Point // detected target corners
	Sphere   []r2.Point // projected sphere samples, in geometry order
	BoxLower []r2.Point // nil when the box is disabled
	BoxUpper []r2.Point
	Position r3.Vector // camera position in target coordinates
	Label    string
	RMSE     float64 // reprojection error of the target corners (px)
	Quality  pose.Quality
}

// Result is the outcome of processing one frame. Overlay is nil unless the
// pose was solved; Err then holds the per-frame reason (vision.ErrNotDetected
// or pose.ErrPoseNotFound).
type Result struct {
	Index   int
	State   State
	Overlay *Overlay
	Err     error
}

// Config wires a Pipeline. Solver, Projector and Converter default to the
// pose package implementations.
type Config struct {
	Board      geometry.Board
	Sphere     geometry.Sphere
	Box        *geometry.Box
	Intrinsics *pose.Intrinsics
	Detector   vision.Detector
	Solver     pose.Solver
	Projector  pose.Projector
	Converter  pose.RotationConverter
}

// Pipeline turns a frame into an optional overlay. The reference geometry
// is computed once; Process keeps no state between frames.
type Pipeline struct {
	board     geometry.Board
	detector  vision.Detector
	estimator *pose.Estimator
	projector pose.Projector
	converter pose.RotationConverter
	target    []r3.Vector
	sphere    []r3.Vector
	box       []r3.Vector
}

// NewPipeline validates cfg and builds the reference geometry.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Detector == nil {
		return nil, errors.New("tracking: detector is required")
	}
	if cfg.Intrinsics == nil {
		return nil, errors.New("tracking: intrinsics are required")
	}
	if cfg.Board.Len() == 0 || cfg.Board.CellSize <= 0 {
		return nil, fmt.Errorf("tracking: invalid board %dx%d (cell %g)", cfg.Board.Columns, cfg.Board.Rows, cfg.Board.CellSize)
	}
	if cfg.Solver == nil {
		cfg.Solver = pose.IterativeSolver{}
	}
	if cfg.Projector == nil {
		cfg.Projector = pose.Pinhole{}
	}
	if cfg.Converter == nil {
		cfg.Converter = pose.RodriguesConverter{}
	}

	p := &Pipeline{
		board:     cfg.Board,
		detector:  cfg.Detector,
		projector: cfg.Projector,
		converter: cfg.Converter,
		target:    cfg.Board.Points(),
		sphere:    cfg.Sphere.Points(),
	}
	p.estimator = pose.NewEstimator(cfg.Solver, p.target, cfg.Intrinsics)
	if cfg.Box != nil {
		p.box = cfg.Box.Points()
	}

	debug.Section("Reference geometry")
	debug.Value("target points", len(p.target))
	debug.Value("sphere points", len(p.sphere))
	debug.Value("box enabled", p.box != nil)
	return p, nil
}

// Process runs detect, estimate, project and interpret on one frame.
func (p *Pipeline) Process(frame camera.Frame) Result {
	res := Result{Index: frame.Index, State: NoTarget}

	corners, err := p.detector.Detect(frame.Image, p.board)
	if err != nil {
		if !errors.Is(err, vision.ErrNotDetected) {
			err = fmt.Errorf("%w: %v", vision.ErrNotDetected, err)
		}
		res.Err = err
		return res
	}
	res.State = Tracking

	est, err := p.estimator.Estimate(corners)
	if err != nil {
		debug.Verbose("Frame %d: %v", frame.Index, err)
		res.Err = err
		return res
	}
	if debug.IsEnabled(debug.LevelVerbose) {
		debug.Pose([3]float64{est.Rotation.X, est.Rotation.Y, est.Rotation.Z},
			[3]float64{est.Translation.X, est.Translation.Y, est.Translation.Z})
	}

	intr := p.estimator.Intrinsics()
	ov := &Overlay{
		Pose:    est,
		Corners: corners,
		Sphere:  p.projector.Project(p.sphere, est, intr),
	}
	if p.box != nil {
		pts := p.projector.Project(p.box, est, intr)
		ov.BoxLower, ov.BoxUpper = pts[:4], pts[4:]
	}

	ov.Position = pose.CameraPosition(est, p.converter)
	ov.Label = pose.FormatPosition(ov.Position)
	debug.Position(ov.Position.X, ov.Position.Y, ov.Position.Z)

	ov.RMSE = pose.ReprojectionRMSE(corners, p.projector.Project(p.target, est, intr))
	ov.Quality = pose.Grade(ov.RMSE)
	debug.Reprojection(ov.RMSE, ov.Quality.String())

	res.Overlay = ov
	return res
}
