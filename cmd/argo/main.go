package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"

	"github.com/cjeanneret/ARGo/internal/config"
	"github.com/cjeanneret/ARGo/internal/debug"
	"github.com/cjeanneret/ARGo/internal/hw/camera"
	"github.com/cjeanneret/ARGo/internal/hw/sim"
	"github.com/cjeanneret/ARGo/internal/logic/geometry"
	"github.com/cjeanneret/ARGo/internal/logic/pose"
	"github.com/cjeanneret/ARGo/internal/logic/tracking"
	"github.com/cjeanneret/ARGo/internal/render"
	"github.com/cjeanneret/ARGo/internal/vision"
	"github.com/cjeanneret/ARGo/internal/web"
)

const (
	maxDisplayWidthPx  = 7680
	maxDisplayHeightPx = 4320
	maxSphereRadiusM   = 10.0
)

// cliOverrides are the values given on the command line; zero means "use config".
type cliOverrides struct {
	Source        string
	WidthPx       int
	HeightPx      int
	SphereRadiusM float64
}

func main() {
	// Optional .env supplies flag defaults
	_ = godotenv.Load()

	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start web viewer on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", envOr("ARGO_CONFIG", filepath.Join("configs", "default.yaml")), "path to config file")
	source := flag.String("source", os.Getenv("ARGO_SOURCE"), "override frame source: video file or image directory")
	width := flag.Int("width", 0, "override display width in pixels")
	height := flag.Int("height", 0, "override display height in pixels")
	radius := flag.Float64("radius", 0, "override sphere radius in meters")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	if err := config.ValidateConfigPath(*cfgPath); err != nil {
		log.Fatalf("invalid config path: %v", err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	// Validate CLI overrides (only non-zero values are applied; zero means "use config default")
	overrides := cliOverrides{Source: *source, WidthPx: *width, HeightPx: *height, SphereRadiusM: *radius}
	if err := validateCLIOverrides(overrides); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	applyOverrides(cfg, overrides)
	if webPort.port() > 0 {
		cfg.Renderer.Type = config.RendererWeb
	}

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", debug.Level())
	debug.PrintStruct("Config", cfg)

	debug.Step(1, "Building camera intrinsics")
	intr, err := cfg.Intrinsics()
	if err != nil {
		log.Fatalf("init intrinsics failed: %v", err)
	}
	logIntrinsics(cfg, intr)

	debug.Step(2, "Opening frame source")
	src, det, err := newSourceFromConfig(cfg, intr)
	if err != nil {
		if errors.Is(err, camera.ErrUnavailable) {
			log.Fatal(errorDetail("", err))
		}
		log.Fatalf("init frame source failed: %v", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Printf("closing frame source failed: %v", err)
		}
	}()
	debug.Value("Source type", cfg.Source.Type)
	debug.Value("Source path", cfg.Source.Path)

	// Build runTracking closure over the source and base config
	runTracking := func(ctx context.Context, r render.Renderer, o web.Overrides, observe func(tracking.Result)) (tracking.Stats, error) {
		return executeTracking(ctx, applyOverridesToCopy(cfg, o), intr, src, det, r, observe)
	}

	if cfg.Renderer.Type == config.RendererWeb {
		port := webPort.port()
		if port == 0 {
			port = webPort.defaultPort
		}
		broadcaster := web.NewStatusBroadcaster()
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))
		viewer := web.NewViewer(cfg.FrameInterval())

		run := func(ctx context.Context, o web.Overrides) error {
			viewer.Reset()
			if err := src.Rewind(); err != nil {
				return fmt.Errorf("rewind source: %w", err)
			}
			st, err := runTracking(ctx, viewer, o, func(res tracking.Result) {
				broadcaster.BroadcastPose(web.NewPoseEvent(res))
			})
			logSummary(st)
			return err
		}
		srv := web.NewServer(fmt.Sprintf(":%d", port), broadcaster, viewer, run, viewerDefaults(cfg))
		if err := srv.Run(ctx); err != nil {
			log.Fatalf("web server: %v", err)
		}
		return
	}

	debug.Step(3, "Opening renderer")
	r, err := newRendererFromConfig(cfg)
	if err != nil {
		log.Fatalf("init renderer failed: %v", err)
	}
	defer r.Close()

	// Run once with current config (already has CLI overrides applied)
	st, err := runTracking(ctx, r, web.Overrides{}, nil)
	logSummary(st)
	if f, ok := r.(*render.Files); ok {
		debug.Value("Frames written", f.Written())
		debug.Value("Output dir", cfg.Renderer.OutputDir)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(errorDetail("tracking failed", err))
	}
}

// executeTracking builds the per-frame pipeline for cfg and runs the frame loop.
func executeTracking(
	ctx context.Context,
	cfg *config.Config,
	intr *pose.Intrinsics,
	src camera.Source,
	det vision.Detector,
	r render.Renderer,
	observe func(tracking.Result),
) (tracking.Stats, error) {
	p, err := tracking.NewPipeline(tracking.Config{
		Board:      cfg.BoardGeometry(),
		Sphere:     cfg.SphereGeometry(),
		Box:        cfg.BoxGeometry(),
		Intrinsics: intr,
		Detector:   det,
	})
	if err != nil {
		return tracking.Stats{}, err
	}

	t := tracking.NewTracker(src, p, r)
	if observe != nil {
		t.OnResult(observe)
	}
	return t.Run(ctx)
}

// newSourceFromConfig selects the frame source and its matching detector.
func newSourceFromConfig(cfg *config.Config, intr *pose.Intrinsics) (camera.Source, vision.Detector, error) {
	w, h := cfg.Display.WidthPx, cfg.Display.HeightPx
	switch cfg.Source.Type {
	case config.SourceSim:
		scene, err := sim.NewScene(cfg.BoardGeometry(), intr, sim.Orbit{
			Frames:       cfg.Sim.Frames,
			Radius:       cfg.Sim.OrbitRadiusM,
			Height:       cfg.Sim.HeightM,
			DropoutEvery: cfg.Sim.DropoutEvery,
		}, w, h)
		if err != nil {
			return nil, nil, err
		}
		return scene, scene, nil
	case config.SourceImages, config.SourceVideo:
		det, err := vision.NewChessboard()
		if err != nil {
			return nil, nil, err
		}
		if cfg.Source.Type == config.SourceImages {
			dir, err := camera.OpenImageDir(cfg.Source.Path, w, h)
			if err != nil {
				return nil, nil, err
			}
			debug.Value("Image frames", dir.Len())
			return dir, det, nil
		}
		src, err := camera.OpenVideo(cfg.Source.Path, w, h)
		if err != nil {
			return nil, nil, err
		}
		return src, det, nil
	default:
		return nil, nil, fmt.Errorf("unsupported source type: %s", cfg.Source.Type)
	}
}

// newRendererFromConfig selects a renderer implementation based on configuration.
func newRendererFromConfig(cfg *config.Config) (render.Renderer, error) {
	switch cfg.Renderer.Type {
	case config.RendererWindow:
		return render.NewWindow(cfg.Display.WindowTitle)
	case config.RendererFiles:
		return render.NewFiles(cfg.Renderer.OutputDir)
	case config.RendererNone:
		return render.Discard{}, nil
	default:
		return nil, fmt.Errorf("unsupported renderer type: %s", cfg.Renderer.Type)
	}
}

// validateCLIOverrides checks that non-zero CLI overrides are within valid ranges.
// Zero values are ignored (they mean "use config default").
func validateCLIOverrides(o cliOverrides) error {
	if o.WidthPx < 0 || o.WidthPx > maxDisplayWidthPx {
		return fmt.Errorf("width must be between 1 and %d, got %d", maxDisplayWidthPx, o.WidthPx)
	}
	if o.HeightPx < 0 || o.HeightPx > maxDisplayHeightPx {
		return fmt.Errorf("height must be between 1 and %d, got %d", maxDisplayHeightPx, o.HeightPx)
	}
	if r := o.SphereRadiusM; r != 0 {
		if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 || r > maxSphereRadiusM {
			return fmt.Errorf("radius must be in (0, %g], got %g", maxSphereRadiusM, r)
		}
	}
	return nil
}

// applyOverrides mutates cfg with CLI overrides. Only non-zero values are applied.
// A source that is a directory is read as an image sequence, anything else as a video.
func applyOverrides(cfg *config.Config, o cliOverrides) {
	if o.Source != "" {
		cfg.Source.Path = o.Source
		cfg.Source.Type = config.SourceVideo
		if info, err := os.Stat(o.Source); err == nil && info.IsDir() {
			cfg.Source.Type = config.SourceImages
		}
	}
	if o.WidthPx > 0 {
		cfg.Display.WidthPx = o.WidthPx
	}
	if o.HeightPx > 0 {
		cfg.Display.HeightPx = o.HeightPx
	}
	if o.SphereRadiusM > 0 {
		cfg.Sphere.RadiusM = o.SphereRadiusM
	}
}

// applyOverridesToCopy returns a new config with web overrides applied.
// Zero values in overrides mean "use base config".
func applyOverridesToCopy(baseCfg *config.Config, o web.Overrides) *config.Config {
	cfg := *baseCfg
	if o.SphereRadiusM > 0 {
		cfg.Sphere.RadiusM = o.SphereRadiusM
	}
	if o.LatitudeSteps > 0 {
		cfg.Sphere.LatitudeSteps = o.LatitudeSteps
	}
	if o.LongitudeSteps > 0 {
		cfg.Sphere.LongitudeSteps = o.LongitudeSteps
	}
	return &cfg
}

func viewerDefaults(cfg *config.Config) web.ViewerConfig {
	return web.ViewerConfig{
		BoardColumns:    cfg.Board.Columns,
		BoardRows:       cfg.Board.Rows,
		CellSizeM:       cfg.Board.CellSizeM,
		SphereRadiusM:   cfg.Sphere.RadiusM,
		LatitudeSteps:   cfg.Sphere.LatitudeSteps,
		LongitudeSteps:  cfg.Sphere.LongitudeSteps,
		DisplayWidthPx:  cfg.Display.WidthPx,
		DisplayHeightPx: cfg.Display.HeightPx,
	}
}

func logIntrinsics(cfg *config.Config, intr *pose.Intrinsics) {
	debug.Value("fx", intr.Fx())
	debug.Value("fy", intr.Fy())
	debug.Value("cx", intr.Cx())
	debug.Value("cy", intr.Cy())
	debug.Value("Distortion", intr.Distortion())
	fov, err := geometry.NewFOVCalculator(intr.Fx(), intr.Fy(), cfg.Display.WidthPx, cfg.Display.HeightPx)
	if err != nil {
		debug.Error(err)
		return
	}
	debug.Info("Field of view: %.1f° x %.1f° at %dx%d", fov.HorizontalFOV(), fov.VerticalFOV(), cfg.Display.WidthPx, cfg.Display.HeightPx)
}

func logSummary(st tracking.Stats) {
	debug.Summary("Run Summary")
	debug.Value("Frames", st.Frames)
	debug.Value("Tracked", st.Tracked)
	debug.Value("No target", st.NoTarget)
	debug.Value("Pose failures", st.PoseFailures)
	debug.Value("Pauses", st.Pauses)
}

// errorDetail renders err, prefixed by msg when set, followed by the stack
// trace of the caller.
func errorDetail(msg string, err error) string {
	if msg == "" {
		return xerrors.Sprint(xerrors.New(err))
	}
	return xerrors.Sprint(xerrors.New(msg, err))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }
