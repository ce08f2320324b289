// Package app drives the capture loop: it reads frames at a fixed rate,
// runs them through the sign pipeline and keeps the latest annotated frame.
package app

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/lsainterp/internal/capture"
	"github.com/ayusman/lsainterp/internal/metrics"
)

// DefaultFPS is the worker tick rate.
const DefaultFPS = 30

// ErrAlreadyRunning is returned by Start when the worker is running.
var ErrAlreadyRunning = errors.New("app already running")

// Config holds worker settings.
type Config struct {
	FPS int
	// MotionThreshold enables the motion gate when positive: frames are
	// only analysed while motion was seen within IdleTimeout.
	MotionThreshold float64
	IdleTimeout     time.Duration
}

// App owns the camera and the single worker goroutine feeding the pipeline.
type App struct {
	config   Config
	camera   capture.Camera
	pipeline *Pipeline
	motion   *capture.MotionGate
	frames   *FrameBuffer
	logger   *zap.Logger
	metrics  *metrics.Metrics

	enabled  atomic.Bool
	stopping atomic.Bool

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

// New creates an App. Analysis starts enabled.
func New(config Config, camera capture.Camera, pipeline *Pipeline, logger *zap.Logger, m *metrics.Metrics) *App {
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		config:   config,
		camera:   camera,
		pipeline: pipeline,
		frames:   NewFrameBuffer(),
		logger:   logger,
		metrics:  m,
	}
	if config.MotionThreshold > 0 {
		a.motion = capture.NewMotionGate(capture.NewMotionDetector(config.MotionThreshold), config.IdleTimeout)
	}
	a.enabled.Store(true)
	return a
}

// Start opens the camera and launches the worker.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return ErrAlreadyRunning
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("start app: %w", err)
	}
	a.camera.SetFPS(a.config.FPS)

	a.stopping.Store(false)
	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.run(a.stopCh, a.done)

	a.logger.Info("worker started", zap.Int("fps", a.config.FPS), zap.Bool("motion_gate", a.motion != nil))
	return nil
}

// Stop signals the worker, waits for the in-flight frame to finish and
// closes the camera. It is safe to call when not running.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh == nil {
		return
	}

	a.stopping.Store(true)
	close(a.stopCh)
	<-a.done
	a.stopCh, a.done = nil, nil

	if err := a.camera.Close(); err != nil {
		a.logger.Error("closing camera", zap.Error(err))
	}
	if a.motion != nil {
		a.motion.Close()
	}

	a.logger.Info("worker stopped")
}

// Running reports whether the worker goroutine is active.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopCh != nil
}

// SetEnabled pauses or resumes analysis without stopping the worker.
func (a *App) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
	a.logger.Info("analysis toggled", zap.Bool("enabled", enabled))
}

// IsEnabled reports whether frames are being analysed.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// Frames returns the buffer holding the latest annotated frame.
func (a *App) Frames() *FrameBuffer {
	return a.frames
}

// Pipeline returns the sign pipeline.
func (a *App) Pipeline() *Pipeline {
	return a.pipeline
}

func (a *App) run(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if a.stopping.Load() {
				return
			}
			if !a.IsEnabled() {
				continue
			}
			a.step()
		}
	}
}

// step processes one frame. Errors are logged and the loop continues.
func (a *App) step() {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.logger.Warn("reading frame", zap.Error(err))
		a.metrics.FrameError("capture")
		return
	}
	defer frame.Close()

	if a.motion != nil && !a.motion.Allow(frame) {
		if err := a.frames.Update(*frame); err != nil {
			a.logger.Debug("buffering idle frame", zap.Error(err))
		}
		return
	}

	start := time.Now()
	annotated := a.pipeline.Process(frame)
	defer annotated.Close()
	a.metrics.FrameProcessed(time.Since(start))

	if err := a.frames.Update(annotated); err != nil {
		a.logger.Warn("buffering annotated frame", zap.Error(err))
		a.metrics.FrameError("encode")
	}
}
