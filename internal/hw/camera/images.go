package camera

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	// Registered decoders for the image sequence source.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/cjeanneret/ARGo/internal/debug"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
}

// ImageDir is a Source reading a sorted sequence of still images from a
// directory. Frames are resized to the configured size when it is non-zero.
type ImageDir struct {
	dir    string
	files  []string
	next   int
	width  int
	height int
}

// OpenImageDir lists the images in dir. It fails with ErrUnavailable when the
// directory cannot be read or contains no images.
func OpenImageDir(dir string, width, height int) (*ImageDir, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s: no images found", ErrUnavailable, dir)
	}
	sort.Strings(files)
	debug.Info("Image source: %s", dir)
	return &ImageDir{dir: dir, files: files, width: width, height: height}, nil
}

// Read decodes the next image.
func (s *ImageDir) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if s.next >= len(s.files) {
		return Frame{}, ErrExhausted
	}
	path := s.files[s.next]
	f, err := os.Open(path)
	if err != nil {
		return Frame{}, fmt.Errorf("open frame %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Frame{}, fmt.Errorf("decode frame %s: %w", path, err)
	}
	debug.Trace("Image source: decoded %s (%dx%d)", path, img.Bounds().Dx(), img.Bounds().Dy())

	frame := Frame{Index: s.next, Image: Resize(img, s.width, s.height)}
	s.next++
	return frame, nil
}

// Rewind restarts from the first image.
func (s *ImageDir) Rewind() error {
	s.next = 0
	return nil
}

// Close releases nothing; images are opened per frame.
func (s *ImageDir) Close() error { return nil }

// Len returns the number of frames in the sequence.
func (s *ImageDir) Len() int { return len(s.files) }
