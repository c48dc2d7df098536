package camera

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestOpenImageDir_Missing(t *testing.T) {
	_, err := OpenImageDir(filepath.Join(t.TempDir(), "nope"), 0, 0)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestOpenImageDir_NoImages(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := OpenImageDir(dir, 0, 0)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestImageDir_ReadsInOrderUntilExhausted(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "frame_002.png"), 8, 6, color.White)
	writePNG(t, filepath.Join(dir, "frame_001.png"), 8, 6, color.Black)
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	src, err := OpenImageDir(dir, 4, 3)
	if err != nil {
		t.Fatalf("OpenImageDir: %v", err)
	}
	defer src.Close()
	if src.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", src.Len())
	}

	ctx := context.Background()
	first, err := src.Read(ctx)
	if err != nil {
		t.Fatalf("Read 0: %v", err)
	}
	if first.Index != 0 {
		t.Errorf("first.Index = %d, want 0", first.Index)
	}
	if b := first.Image.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Errorf("first frame size = %dx%d, want 4x3", b.Dx(), b.Dy())
	}
	if r, _, _, _ := first.Image.At(1, 1).RGBA(); r != 0 {
		t.Errorf("first frame should be frame_001 (black), got red=%d", r)
	}

	second, err := src.Read(ctx)
	if err != nil {
		t.Fatalf("Read 1: %v", err)
	}
	if second.Index != 1 {
		t.Errorf("second.Index = %d, want 1", second.Index)
	}

	if _, err := src.Read(ctx); !errors.Is(err, ErrExhausted) {
		t.Errorf("expected ErrExhausted, got %v", err)
	}

	if err := src.Rewind(); err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	again, err := src.Read(ctx)
	if err != nil || again.Index != 0 {
		t.Errorf("after Rewind: index=%d err=%v, want 0, nil", again.Index, err)
	}
}

func TestImageDir_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 2, 2, color.White)
	src, err := OpenImageDir(dir, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Read(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestResize_KeepsSizeWhenZero(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 30, 20))
	out := Resize(img, 0, 0)
	if b := out.Bounds(); b.Min != (image.Point{}) || b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("bounds = %v, want (0,0)-(20,10)", b)
	}
}
