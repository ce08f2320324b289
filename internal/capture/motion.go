package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// blurSize is the Gaussian kernel applied before differencing.
	blurSize = 21
	// pixelDelta is the per-pixel intensity change counted as motion.
	pixelDelta = 25

	// DefaultIdleTimeout is how long the gate stays open after motion.
	DefaultIdleTimeout = 2 * time.Second
)

// MotionDetector compares each frame with the previous one and reports the
// percentage of pixels that changed.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prev      gocv.Mat
	primed    bool
}

// NewMotionDetector creates a detector that reports motion when more than
// threshold percent of the pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{threshold: threshold, prev: gocv.NewMat()}
}

// Detect reports whether frame differs from the previous frame by more than
// the threshold, along with the changed percentage. The first frame after
// creation or Reset only primes the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurSize, Y: blurSize}, 0, 0, gocv.BorderDefault)

	defer blurred.CopyTo(&m.prev)

	if !m.primed || m.prev.Rows() != blurred.Rows() || m.prev.Cols() != blurred.Cols() {
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, pixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols()) * 100
	return changed > m.threshold, changed
}

// Threshold returns the current change threshold in percent.
func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}

// SetThreshold changes the threshold. Non-positive values are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// Reset discards the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear()
}

// Close releases the baseline frame. The detector remains usable.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear()
}

func (m *MotionDetector) clear() {
	m.prev.Close()
	m.prev = gocv.NewMat()
	m.primed = false
}

// MotionGate admits frames for analysis while motion has been seen within
// the idle timeout.
type MotionGate struct {
	detector    *MotionDetector
	idleTimeout time.Duration
	lastMotion  time.Time
	now         func() time.Time
}

// NewMotionGate wraps detector. A non-positive idleTimeout uses
// DefaultIdleTimeout.
func NewMotionGate(detector *MotionDetector, idleTimeout time.Duration) *MotionGate {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &MotionGate{detector: detector, idleTimeout: idleTimeout, now: time.Now}
}

// Allow feeds frame to the detector and reports whether it should be
// analysed. It is not safe for concurrent use.
func (g *MotionGate) Allow(frame *gocv.Mat) bool {
	if moved, _ := g.detector.Detect(frame); moved {
		g.lastMotion = g.now()
		return true
	}
	return !g.lastMotion.IsZero() && g.now().Sub(g.lastMotion) <= g.idleTimeout
}

// Close releases the detector.
func (g *MotionGate) Close() {
	g.detector.Close()
}
