package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cjeanneret/ARGo/internal/render"
)

const (
	maxRequestBodyBytes = 1 << 20
	minRunInterval      = 5 * time.Second

	maxSphereRadiusM = 10.0
	maxSphereSteps   = 360
)

// Overrides holds sphere parameters that can override config defaults for one run.
// A zero field keeps the configured value.
type Overrides struct {
	SphereRadiusM  float64 `json:"sphere_radius_m"`
	LatitudeSteps  int     `json:"latitude_steps"`
	LongitudeSteps int     `json:"longitude_steps"`
}

// ValidateOverrides checks that every set override is finite and in range.
// Zero values are accepted and mean "use config default".
func ValidateOverrides(o Overrides) error {
	if math.IsNaN(o.SphereRadiusM) || math.IsInf(o.SphereRadiusM, 0) {
		return fmt.Errorf("sphere_radius_m must be a finite number")
	}
	if o.SphereRadiusM < 0 || o.SphereRadiusM > maxSphereRadiusM {
		return fmt.Errorf("sphere_radius_m must be 0 (default) or in (0, %g]", maxSphereRadiusM)
	}
	if o.LatitudeSteps < 0 || o.LatitudeSteps > maxSphereSteps {
		return fmt.Errorf("latitude_steps must be 0 (default) or between 1 and %d", maxSphereSteps)
	}
	if o.LongitudeSteps < 0 || o.LongitudeSteps > maxSphereSteps {
		return fmt.Errorf("longitude_steps must be 0 (default) or between 1 and %d", maxSphereSteps)
	}
	return nil
}

// RunTrackingFunc runs one tracking pass with the given overrides.
// It is called from the POST /run handler in a goroutine.
type RunTrackingFunc func(ctx context.Context, overrides Overrides) error

// ViewerConfig holds the values shown by the viewer page (from config).
type ViewerConfig struct {
	BoardColumns    int     `json:"board_columns"`
	BoardRows       int     `json:"board_rows"`
	CellSizeM       float64 `json:"cell_size_m"`
	SphereRadiusM   float64 `json:"sphere_radius_m"`
	LatitudeSteps   int     `json:"latitude_steps"`
	LongitudeSteps  int     `json:"longitude_steps"`
	DisplayWidthPx  int     `json:"display_width_px"`
	DisplayHeightPx int     `json:"display_height_px"`
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *StatusBroadcaster
	Viewer      *Viewer
	RunTracking RunTrackingFunc
	Defaults    ViewerConfig
	baseCtx     context.Context
	runningMu   sync.Mutex
	running     bool
	lastRun     time.Time
	staticFS    fs.FS
}

// NewHandlers creates handlers with the given dependencies.
// If runTracking is nil, POST /run will return 503 Service Unavailable.
func NewHandlers(broadcaster *StatusBroadcaster, viewer *Viewer, runTracking RunTrackingFunc, defaults ViewerConfig, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		Viewer:      viewer,
		RunTracking: runTracking,
		Defaults:    defaults,
		baseCtx:     context.Background(),
		staticFS:    staticFS,
	}
}

// HandleConfig returns the viewer defaults (from config) as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Defaults)
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleFrame serves the latest composed frame as JPEG.
func (h *Handlers) HandleFrame(w http.ResponseWriter, r *http.Request) {
	if h.Viewer == nil {
		http.Error(w, "viewer not configured", http.StatusServiceUnavailable)
		return
	}
	data, index, ok := h.Viewer.Frame()
	if !ok {
		http.Error(w, "no frame yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Frame-Index", strconv.Itoa(index))
	w.Write(data)
}

// HandleRun handles POST /run to start a tracking pass.
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	var overrides Overrides
	if err := json.NewDecoder(r.Body).Decode(&overrides); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := ValidateOverrides(overrides); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.RunTracking == nil {
		http.Error(w, "tracking not configured", http.StatusServiceUnavailable)
		return
	}

	h.runningMu.Lock()
	if h.running {
		h.runningMu.Unlock()
		http.Error(w, "tracking already in progress", http.StatusConflict)
		return
	}
	if !h.lastRun.IsZero() && time.Since(h.lastRun) < minRunInterval {
		h.runningMu.Unlock()
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}
	h.running = true
	h.lastRun = time.Now()
	h.runningMu.Unlock()

	// Run in goroutine; clear running when done
	go func() {
		defer func() {
			h.runningMu.Lock()
			h.running = false
			h.runningMu.Unlock()
		}()

		if err := h.RunTracking(h.baseCtx, overrides); err != nil {
			h.Broadcaster.Broadcast("error", "Tracking failed: "+err.Error())
			log.Printf("tracking failed: %v", err)
		} else {
			h.Broadcaster.Broadcast("info", "Tracking complete")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}

// HandleControl returns a handler forwarding ev to the frame loop.
func (h *Handlers) HandleControl(ev render.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if h.Viewer == nil {
			http.Error(w, "viewer not configured", http.StatusServiceUnavailable)
			return
		}
		if !h.Viewer.Send(ev) {
			http.Error(w, "event queue full", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": ev.String()})
	}
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
