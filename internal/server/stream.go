package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
)

// streamInterval paces the MJPEG stream at about 15 FPS.
const streamInterval = 66 * time.Millisecond

// StreamHandler serves the latest annotated frames as MJPEG.
type StreamHandler struct {
	frames   FrameSource
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler over frames.
func NewStreamHandler(frames FrameSource) *StreamHandler {
	return &StreamHandler{frames: frames, interval: streamInterval}
}

// ServeHTTP streams MJPEG frames until the client disconnects. A frame is
// written only when its sequence number changed.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last uint64
	for {
		if data, seq := h.frames.Latest(); len(data) > 0 && seq != last {
			last = seq
			if err := writePart(w, data); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writePart(w http.ResponseWriter, data []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}

// maxSnapshotSide bounds the requested thumbnail dimensions.
const maxSnapshotSide = 4096

// SnapshotHandler serves the latest frame as a single JPEG, optionally
// scaled to fit within width x height.
type SnapshotHandler struct {
	frames FrameSource
}

// NewSnapshotHandler creates a new SnapshotHandler over frames.
func NewSnapshotHandler(frames FrameSource) *SnapshotHandler {
	return &SnapshotHandler{frames: frames}
}

func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, _ := h.frames.Latest()
	if len(data) == 0 {
		http.Error(w, "No frame available", http.StatusServiceUnavailable)
		return
	}

	width, err := dimension(r, "width")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	height, err := dimension(r, "height")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")

	if width == 0 && height == 0 {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(data)
		return
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		http.Error(w, "Failed to decode frame", http.StatusInternalServerError)
		return
	}

	bounds := img.Bounds()
	if width == 0 {
		width = bounds.Dx()
	}
	if height == 0 {
		height = bounds.Dy()
	}
	thumb := imaging.Fit(img, width, height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		http.Error(w, "Failed to encode snapshot", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(buf.Bytes())
}

func dimension(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxSnapshotSide {
		return 0, fmt.Errorf("%s must be between 1 and %d", name, maxSnapshotSide)
	}
	return n, nil
}
