package geometry

import (
	"math"
	"testing"
)

const fovEpsilon = 0.01 // degrees

func TestNewFOVCalculator_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		fx, fy float64
		w, h   int
	}{
		{"zero_fx", 0, 1000, 640, 480},
		{"negative_fy", 1000, -1, 640, 480},
		{"zero_width", 1000, 1000, 0, 480},
		{"negative_height", 1000, 1000, 640, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewFOVCalculator(tc.fx, tc.fy, tc.w, tc.h); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

// Reference: fx = fy = 1012 px over a 1920x1080 frame
// HorizontalFOV = 2 * atan(1920 / 2024) * 180/pi ~ 87.03 deg
// VerticalFOV   = 2 * atan(1080 / 2024) * 180/pi ~ 56.14 deg
func TestFOVCalculator_FullHD(t *testing.T) {
	fov, err := NewFOVCalculator(1012, 1012, 1920, 1080)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantH := 2.0 * math.Atan(1920.0/2024.0) * 180.0 / math.Pi
	wantV := 2.0 * math.Atan(1080.0/2024.0) * 180.0 / math.Pi
	if got := fov.HorizontalFOV(); math.Abs(got-wantH) > fovEpsilon {
		t.Errorf("HorizontalFOV() = %v, want ~%v", got, wantH)
	}
	if got := fov.VerticalFOV(); math.Abs(got-wantV) > fovEpsilon {
		t.Errorf("VerticalFOV() = %v, want ~%v", got, wantV)
	}
}

func TestFOVCalculator_DecreasesWithFocalLength(t *testing.T) {
	wide, _ := NewFOVCalculator(300, 300, 640, 480)
	tele, _ := NewFOVCalculator(3000, 3000, 640, 480)
	if wide.HorizontalFOV() <= tele.HorizontalFOV() {
		t.Errorf("short focal FOV (%v) should exceed long focal FOV (%v)",
			wide.HorizontalFOV(), tele.HorizontalFOV())
	}
}
