package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cjeanneret/ARGo/internal/config"
	"github.com/cjeanneret/ARGo/internal/hw/camera"
	"github.com/cjeanneret/ARGo/internal/render"
	"github.com/cjeanneret/ARGo/internal/web"
)

// ---------- validateCLIOverrides ----------

func TestValidateCLIOverrides_AllZero(t *testing.T) {
	if err := validateCLIOverrides(cliOverrides{}); err != nil {
		t.Errorf("all zeros should be valid (use config defaults), got: %v", err)
	}
}

func TestValidateCLIOverrides_ValidBoundary(t *testing.T) {
	cases := []struct {
		name string
		o    cliOverrides
	}{
		{"min_width", cliOverrides{WidthPx: 1}},
		{"max_width", cliOverrides{WidthPx: maxDisplayWidthPx}},
		{"min_height", cliOverrides{HeightPx: 1}},
		{"max_height", cliOverrides{HeightPx: maxDisplayHeightPx}},
		{"small_radius", cliOverrides{SphereRadiusM: 0.001}},
		{"max_radius", cliOverrides{SphereRadiusM: maxSphereRadiusM}},
		{"all_set", cliOverrides{WidthPx: 1280, HeightPx: 720, SphereRadiusM: 0.05}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := validateCLIOverrides(tc.o); err != nil {
				t.Errorf("expected valid, got: %v", err)
			}
		})
	}
}

func TestValidateCLIOverrides_OutOfRange(t *testing.T) {
	cases := []struct {
		name string
		o    cliOverrides
	}{
		{"width_too_large", cliOverrides{WidthPx: maxDisplayWidthPx + 1}},
		{"height_too_large", cliOverrides{HeightPx: maxDisplayHeightPx + 1}},
		{"radius_too_large", cliOverrides{SphereRadiusM: 10.5}},
		{"width_negative", cliOverrides{WidthPx: -1}},
		{"height_negative", cliOverrides{HeightPx: -1}},
		{"radius_negative", cliOverrides{SphereRadiusM: -0.1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := validateCLIOverrides(tc.o); err == nil {
				t.Error("expected error for out-of-range value, got nil")
			}
		})
	}
}

func TestValidateCLIOverrides_NonFinite(t *testing.T) {
	for _, r := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := validateCLIOverrides(cliOverrides{SphereRadiusM: r}); err == nil {
			t.Errorf("radius %v should be rejected", r)
		}
	}
}

// ---------- webPortFlag ----------

func TestWebPortFlag_EmptyString(t *testing.T) {
	w := &webPortFlag{defaultPort: 8080}
	if err := w.Set(""); err != nil {
		t.Fatalf("Set(\"\") error: %v", err)
	}
	if w.port() != 8080 {
		t.Errorf("port() = %d, want 8080", w.port())
	}
}

func TestWebPortFlag_ValidPorts(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{"1", 1},
		{"8080", 8080},
		{"8980", 8980},
		{"65535", 65535},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			w := &webPortFlag{defaultPort: 8080}
			if err := w.Set(tc.input); err != nil {
				t.Fatalf("Set(%q) error: %v", tc.input, err)
			}
			if w.port() != tc.want {
				t.Errorf("port() = %d, want %d", w.port(), tc.want)
			}
		})
	}
}

func TestWebPortFlag_InvalidPorts(t *testing.T) {
	cases := []string{"0", "65536", "-1", "abc", "8080.5"}
	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			w := &webPortFlag{defaultPort: 8080}
			if err := w.Set(input); err == nil {
				t.Errorf("Set(%q) should fail, got nil", input)
			}
		})
	}
}

func TestWebPortFlag_String(t *testing.T) {
	w := &webPortFlag{val: 0}
	if s := w.String(); s != "0" {
		t.Errorf("String() = %q, want \"0\"", s)
	}
	w.val = 9090
	if s := w.String(); s != "9090" {
		t.Errorf("String() = %q, want \"9090\"", s)
	}
}

// ---------- applyOverrides ----------

func TestApplyOverrides_NonZero(t *testing.T) {
	cfg := config.Default()
	applyOverrides(cfg, cliOverrides{WidthPx: 1280, HeightPx: 720, SphereRadiusM: 0.08})
	if cfg.Display.WidthPx != 1280 || cfg.Display.HeightPx != 720 {
		t.Errorf("display = %dx%d, want 1280x720", cfg.Display.WidthPx, cfg.Display.HeightPx)
	}
	if cfg.Sphere.RadiusM != 0.08 {
		t.Errorf("RadiusM = %v, want 0.08", cfg.Sphere.RadiusM)
	}
}

func TestApplyOverrides_ZeroLeavesUnchanged(t *testing.T) {
	cfg := config.Default()
	orig := *cfg

	applyOverrides(cfg, cliOverrides{})

	if cfg.Display != orig.Display {
		t.Errorf("Display changed: %+v != %+v", cfg.Display, orig.Display)
	}
	if cfg.Sphere.RadiusM != orig.Sphere.RadiusM {
		t.Errorf("RadiusM changed: %v != %v", cfg.Sphere.RadiusM, orig.Sphere.RadiusM)
	}
	if cfg.Source != orig.Source {
		t.Errorf("Source changed: %+v != %+v", cfg.Source, orig.Source)
	}
}

func TestApplyOverrides_SourceDirectoryIsImages(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	applyOverrides(cfg, cliOverrides{Source: dir})
	if cfg.Source.Type != config.SourceImages || cfg.Source.Path != dir {
		t.Errorf("Source = %+v, want images at %s", cfg.Source, dir)
	}
}

func TestApplyOverrides_SourceFileIsVideo(t *testing.T) {
	cfg := config.Default()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	applyOverrides(cfg, cliOverrides{Source: path})
	if cfg.Source.Type != config.SourceVideo || cfg.Source.Path != path {
		t.Errorf("Source = %+v, want video at %s", cfg.Source, path)
	}
}

// ---------- applyOverridesToCopy ----------

func TestApplyOverridesToCopy_OriginalUnmutated(t *testing.T) {
	cfg := config.Default()
	origR := cfg.Sphere.RadiusM

	copy := applyOverridesToCopy(cfg, web.Overrides{SphereRadiusM: 0.5, LatitudeSteps: 12, LongitudeSteps: 24})

	if cfg.Sphere.RadiusM != origR {
		t.Errorf("original mutated: RadiusM = %v, want %v", cfg.Sphere.RadiusM, origR)
	}
	if copy.Sphere.RadiusM != 0.5 || copy.Sphere.LatitudeSteps != 12 || copy.Sphere.LongitudeSteps != 24 {
		t.Errorf("copy sphere = %+v", copy.Sphere)
	}
}

func TestApplyOverridesToCopy_ZeroOverrides(t *testing.T) {
	cfg := config.Default()
	copy := applyOverridesToCopy(cfg, web.Overrides{})

	if copy.Sphere.RadiusM != cfg.Sphere.RadiusM {
		t.Errorf("RadiusM mismatch")
	}
	if copy.Sphere.LatitudeSteps != cfg.Sphere.LatitudeSteps {
		t.Errorf("LatitudeSteps mismatch")
	}
	if copy.Sphere.LongitudeSteps != cfg.Sphere.LongitudeSteps {
		t.Errorf("LongitudeSteps mismatch")
	}
}

func TestApplyOverridesToCopy_ReturnsNewPointer(t *testing.T) {
	cfg := config.Default()
	copy := applyOverridesToCopy(cfg, web.Overrides{})
	if copy == cfg {
		t.Error("applyOverridesToCopy should return a new pointer, got same address")
	}
}

// ---------- factories ----------

func TestNewRendererFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Renderer.Type = config.RendererNone
	r, err := newRendererFromConfig(cfg)
	if err != nil {
		t.Fatalf("none renderer: %v", err)
	}
	if _, ok := r.(render.Discard); !ok {
		t.Errorf("renderer = %T, want render.Discard", r)
	}

	cfg.Renderer.Type = config.RendererFiles
	cfg.Renderer.OutputDir = t.TempDir()
	if _, err := newRendererFromConfig(cfg); err != nil {
		t.Errorf("files renderer: %v", err)
	}

	cfg.Renderer.Type = "hologram"
	if _, err := newRendererFromConfig(cfg); err == nil {
		t.Error("unknown renderer should fail")
	}
}

func TestExecuteTracking_Sim(t *testing.T) {
	cfg := config.Default()
	cfg.Display.WidthPx, cfg.Display.HeightPx = 640, 360
	cfg.Camera.CalibrationWidthPx, cfg.Camera.CalibrationHeightPx = 1920, 1080
	cfg.Sim.Frames = 6
	cfg.Sim.DropoutEvery = 3

	intr, err := cfg.Intrinsics()
	if err != nil {
		t.Fatalf("intrinsics: %v", err)
	}
	src, det, err := newSourceFromConfig(cfg, intr)
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	st, err := executeTracking(ctx, cfg, intr, src, det, render.Discard{}, nil)
	if err != nil {
		t.Fatalf("executeTracking: %v", err)
	}
	if st.Frames != 6 {
		t.Errorf("Frames = %d, want 6", st.Frames)
	}
	if st.NoTarget != 2 {
		t.Errorf("NoTarget = %d, want 2", st.NoTarget)
	}
	if st.Tracked != 4 {
		t.Errorf("Tracked = %d, want 4", st.Tracked)
	}
}

// ---------- errorDetail ----------

func TestErrorDetail_IncludesStackOnce(t *testing.T) {
	err := fmt.Errorf("%w: cannot read the given input, missing.avi", camera.ErrUnavailable)

	out := errorDetail("", err)
	if n := strings.Count(out, "frame source unavailable"); n != 1 {
		t.Errorf("message repeated %d times in %q", n, out)
	}
	if !strings.HasPrefix(out, "Error: frame source unavailable: cannot read the given input, missing.avi\n") {
		t.Errorf("unexpected header in %q", out)
	}
	if !strings.Contains(out, "\tat ") || !strings.Contains(out, "main.go") {
		t.Errorf("missing stack trace in %q", out)
	}
	if out == err.Error() {
		t.Error("detail must add more than the plain message")
	}
}

func TestErrorDetail_Prefix(t *testing.T) {
	out := errorDetail("tracking failed", errors.New("boom"))
	if !strings.HasPrefix(out, "Error: tracking failed: boom\n") {
		t.Errorf("unexpected header in %q", out)
	}
}
