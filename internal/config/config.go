package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/geo/r3"
	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/ARGo/internal/logic/geometry"
	"github.com/cjeanneret/ARGo/internal/logic/pose"
)

// MaxConfigFileBytes caps the size of a configuration file.
const MaxConfigFileBytes = 1 << 20

// Default calibration of the reference camera (1920x1080 capture).
var (
	DefaultCameraMatrix = []float64{
		1.01212241e+03, 0, 9.54081522e+02,
		0, 1.01205120e+03, 5.41382436e+02,
		0, 0, 1,
	}
	DefaultDistortion   = []float64{0.00020659, 0.02590867, -0.00105908, 0.00307626, -0.02384998}
	DefaultCenterOffset = []float64{0.00125, 0.00125, 0.1}
)

// Source and renderer types.
const (
	SourceSim    = "sim"
	SourceImages = "images"
	SourceVideo  = "video"

	RendererWindow = "window"
	RendererWeb    = "web"
	RendererFiles  = "files"
	RendererNone   = "none"
)

// CameraConfig holds the intrinsics of the capturing camera.
type CameraConfig struct {
	Matrix     []float64 `yaml:"matrix"`     // 3x3, row-major
	Distortion []float64 `yaml:"distortion"` // k1, k2, p1, p2, k3
	// Optional: size the matrix was calibrated at. When set and different
	// from the display size, the matrix is rescaled.
	CalibrationWidthPx  int `yaml:"calibration_width_px"`
	CalibrationHeightPx int `yaml:"calibration_height_px"`
}

// BoardConfig describes the chessboard target.
type BoardConfig struct {
	Columns   int     `yaml:"columns"` // inner corners per row
	Rows      int     `yaml:"rows"`    // inner corners per column
	CellSizeM float64 `yaml:"cell_size_m"`
}

// SphereConfig describes the AR sphere.
type SphereConfig struct {
	RadiusM        float64   `yaml:"radius_m"`
	LatitudeSteps  int       `yaml:"latitude_steps"`
	LongitudeSteps int       `yaml:"longitude_steps"`
	CenterOffsetM  []float64 `yaml:"center_offset_m"` // subtracted from every sample
}

// BoxConfig describes the optional AR box, in board cells.
type BoxConfig struct {
	Enabled     bool `yaml:"enabled"`
	Column      int  `yaml:"column"`
	Row         int  `yaml:"row"`
	WidthCells  int  `yaml:"width_cells"`
	DepthCells  int  `yaml:"depth_cells"`
	HeightCells int  `yaml:"height_cells"`
}

// DisplayConfig is the size frames are resized to before detection.
type DisplayConfig struct {
	WidthPx         int    `yaml:"width_px"`
	HeightPx        int    `yaml:"height_px"`
	WindowTitle     string `yaml:"window_title"`
	FrameIntervalMs int    `yaml:"frame_interval_ms"` // web viewer pacing, 0 = none
}

// SourceConfig selects the frame source.
type SourceConfig struct {
	Type string `yaml:"type"` // sim, images or video
	Path string `yaml:"path"` // image directory or video file
}

// RendererConfig selects where frames are presented.
type RendererConfig struct {
	Type      string `yaml:"type"` // window, web, files or none
	OutputDir string `yaml:"output_dir"`
}

// SimConfig drives the synthetic source.
type SimConfig struct {
	Frames       int     `yaml:"frames"`
	OrbitRadiusM float64 `yaml:"orbit_radius_m"`
	HeightM      float64 `yaml:"height_m"`
	DropoutEvery int     `yaml:"dropout_every"`
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
}

// Config aggregates all application configuration.
type Config struct {
	Camera   CameraConfig   `yaml:"camera"`
	Board    BoardConfig    `yaml:"board"`
	Sphere   SphereConfig   `yaml:"sphere"`
	Box      BoxConfig      `yaml:"box"`
	Display  DisplayConfig  `yaml:"display"`
	Source   SourceConfig   `yaml:"source"`
	Renderer RendererConfig `yaml:"renderer"`
	Sim      SimConfig      `yaml:"sim"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// ValidateConfigPath accepts only .yaml files located directly in a
// directory named "configs", without ".." components.
func ValidateConfigPath(path string) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("config path %q must not contain '..'", path)
		}
	}
	if filepath.Ext(path) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if filepath.Base(filepath.Dir(abs)) != "configs" {
		return fmt.Errorf("config file %q must be located in a configs/ directory", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration with defaults applied.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if info.Size() > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file is too large: %d bytes (max %d)", info.Size(), MaxConfigFileBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("config file is empty")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	// Defaults alone always validate.
	_ = cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() error {
	// Camera
	if c.Camera.Matrix == nil {
		c.Camera.Matrix = append([]float64(nil), DefaultCameraMatrix...)
	}
	if len(c.Camera.Matrix) != 9 {
		return fmt.Errorf("camera.matrix must have 9 values, got %d", len(c.Camera.Matrix))
	}
	if c.Camera.Distortion == nil {
		c.Camera.Distortion = append([]float64(nil), DefaultDistortion...)
	}
	switch len(c.Camera.Distortion) {
	case 0, 4, 5:
	default:
		return fmt.Errorf("camera.distortion must have 0, 4 or 5 values, got %d", len(c.Camera.Distortion))
	}
	if c.Camera.CalibrationWidthPx < 0 || c.Camera.CalibrationHeightPx < 0 {
		return fmt.Errorf("camera calibration size must be >= 0, got %dx%d", c.Camera.CalibrationWidthPx, c.Camera.CalibrationHeightPx)
	}
	if (c.Camera.CalibrationWidthPx == 0) != (c.Camera.CalibrationHeightPx == 0) {
		return errors.New("camera.calibration_width_px and calibration_height_px must be set together")
	}

	// Board
	if c.Board.Columns == 0 {
		c.Board.Columns = 10
	}
	if c.Board.Rows == 0 {
		c.Board.Rows = 7
	}
	if c.Board.Columns < 2 || c.Board.Rows < 2 {
		return fmt.Errorf("board must have at least 2x2 inner corners, got %dx%d", c.Board.Columns, c.Board.Rows)
	}
	if c.Board.CellSizeM == 0 {
		c.Board.CellSizeM = 0.025
	}
	if !positive(c.Board.CellSizeM) {
		return fmt.Errorf("board.cell_size_m must be > 0, got %g", c.Board.CellSizeM)
	}

	// Sphere
	if c.Sphere.RadiusM == 0 {
		c.Sphere.RadiusM = 0.1
	}
	if !positive(c.Sphere.RadiusM) {
		return fmt.Errorf("sphere.radius_m must be > 0, got %g", c.Sphere.RadiusM)
	}
	if c.Sphere.LatitudeSteps == 0 {
		c.Sphere.LatitudeSteps = 30
	}
	if c.Sphere.LongitudeSteps == 0 {
		c.Sphere.LongitudeSteps = 60
	}
	if c.Sphere.LatitudeSteps < 1 || c.Sphere.LongitudeSteps < 1 {
		return fmt.Errorf("sphere steps must be >= 1, got %d latitude, %d longitude", c.Sphere.LatitudeSteps, c.Sphere.LongitudeSteps)
	}
	if c.Sphere.CenterOffsetM == nil {
		c.Sphere.CenterOffsetM = append([]float64(nil), DefaultCenterOffset...)
	}
	if len(c.Sphere.CenterOffsetM) != 3 {
		return fmt.Errorf("sphere.center_offset_m must have 3 values, got %d", len(c.Sphere.CenterOffsetM))
	}

	// Box (default layout: cells 4..5 x 2..4, one cell high)
	if c.Box.Enabled {
		if c.Box.WidthCells == 0 && c.Box.DepthCells == 0 && c.Box.HeightCells == 0 && c.Box.Column == 0 && c.Box.Row == 0 {
			c.Box.Column, c.Box.Row = 4, 2
			c.Box.WidthCells, c.Box.DepthCells, c.Box.HeightCells = 1, 2, 1
		}
		if c.Box.WidthCells < 1 || c.Box.DepthCells < 1 || c.Box.HeightCells < 1 {
			return fmt.Errorf("box cells must be >= 1, got %dx%dx%d", c.Box.WidthCells, c.Box.DepthCells, c.Box.HeightCells)
		}
	}

	// Display
	if c.Display.WidthPx == 0 {
		c.Display.WidthPx = 640
	}
	if c.Display.HeightPx == 0 {
		c.Display.HeightPx = 480
	}
	if c.Display.WidthPx < 0 || c.Display.HeightPx < 0 {
		return fmt.Errorf("display size must be > 0, got %dx%d", c.Display.WidthPx, c.Display.HeightPx)
	}
	if c.Display.WindowTitle == "" {
		c.Display.WindowTitle = "Pose Estimation (Chessboard)"
	}
	if c.Display.FrameIntervalMs < 0 {
		return fmt.Errorf("display.frame_interval_ms must be >= 0, got %d", c.Display.FrameIntervalMs)
	}

	// Source
	if c.Source.Type == "" {
		c.Source.Type = SourceSim
	}
	switch c.Source.Type {
	case SourceSim:
	case SourceImages, SourceVideo:
		if c.Source.Path == "" {
			return fmt.Errorf("source.path is required for source type %q", c.Source.Type)
		}
	default:
		return fmt.Errorf("unknown source.type %q (want sim, images or video)", c.Source.Type)
	}

	// Renderer
	if c.Renderer.Type == "" {
		c.Renderer.Type = RendererNone
	}
	switch c.Renderer.Type {
	case RendererWindow, RendererWeb, RendererNone:
	case RendererFiles:
		if c.Renderer.OutputDir == "" {
			c.Renderer.OutputDir = "out"
		}
	default:
		return fmt.Errorf("unknown renderer.type %q (want window, web, files or none)", c.Renderer.Type)
	}

	// Sim
	if c.Sim.Frames == 0 {
		c.Sim.Frames = 120
	}
	if c.Sim.OrbitRadiusM == 0 {
		c.Sim.OrbitRadiusM = 0.15
	}
	if c.Sim.HeightM == 0 {
		c.Sim.HeightM = 0.5
	}
	if c.Sim.Frames < 0 || c.Sim.OrbitRadiusM < 0 || c.Sim.HeightM < 0 || c.Sim.DropoutEvery < 0 {
		return errors.New("sim values must be >= 0")
	}

	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("defaults.debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// Intrinsics builds the camera intrinsics for the display size.
func (c *Config) Intrinsics() (*pose.Intrinsics, error) {
	var m [9]float64
	copy(m[:], c.Camera.Matrix)
	intr, err := pose.NewIntrinsics(m, c.Camera.Distortion)
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	cw, ch := c.Camera.CalibrationWidthPx, c.Camera.CalibrationHeightPx
	if cw > 0 && ch > 0 && (cw != c.Display.WidthPx || ch != c.Display.HeightPx) {
		intr = intr.Scaled(float64(c.Display.WidthPx)/float64(cw), float64(c.Display.HeightPx)/float64(ch))
	}
	return intr, nil
}

// BoardGeometry returns the target board.
func (c *Config) BoardGeometry() geometry.Board {
	return geometry.Board{Columns: c.Board.Columns, Rows: c.Board.Rows, CellSize: c.Board.CellSizeM}
}

// SphereGeometry returns the AR sphere.
func (c *Config) SphereGeometry() geometry.Sphere {
	var off r3.Vector
	if len(c.Sphere.CenterOffsetM) == 3 {
		off = r3.Vector{X: c.Sphere.CenterOffsetM[0], Y: c.Sphere.CenterOffsetM[1], Z: c.Sphere.CenterOffsetM[2]}
	}
	return geometry.Sphere{
		Radius:         c.Sphere.RadiusM,
		LatitudeSteps:  c.Sphere.LatitudeSteps,
		LongitudeSteps: c.Sphere.LongitudeSteps,
		CenterOffset:   off,
	}
}

// BoxGeometry returns the AR box, or nil when it is disabled.
func (c *Config) BoxGeometry() *geometry.Box {
	if !c.Box.Enabled {
		return nil
	}
	return &geometry.Box{
		Board:       c.BoardGeometry(),
		Column:      c.Box.Column,
		Row:         c.Box.Row,
		WidthCells:  c.Box.WidthCells,
		DepthCells:  c.Box.DepthCells,
		HeightCells: c.Box.HeightCells,
	}
}

// FrameInterval returns the web viewer pacing between frames.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.Display.FrameIntervalMs) * time.Millisecond
}
