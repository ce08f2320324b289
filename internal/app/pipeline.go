package app

import (
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/lsainterp/internal/detector"
	"github.com/ayusman/lsainterp/internal/fusion"
	"github.com/ayusman/lsainterp/internal/grammar"
	"github.com/ayusman/lsainterp/internal/metrics"
	"github.com/ayusman/lsainterp/internal/sink"
)

// DefaultGate is the minimum smoothed confidence forwarded to sinks.
const DefaultGate = 0.7

// HandProcessor extracts at most one gesture from a frame.
type HandProcessor interface {
	Process(frame, annotated *gocv.Mat) (detector.Result, bool)
}

// FaceProcessor extracts zero or more expressions from a frame.
type FaceProcessor interface {
	Process(frame, annotated *gocv.Mat) []detector.Result
}

// Pipeline runs both extractors on a frame and pushes their results through
// fusion, grammar smoothing and the confidence gate.
type Pipeline struct {
	hand     HandProcessor
	face     FaceProcessor
	fusion   *fusion.Engine
	smoother *grammar.Smoother
	hub      *sink.Hub
	gate     float64
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithGate overrides DefaultGate.
func WithGate(gate float64) PipelineOption {
	return func(p *Pipeline) {
		p.gate = gate
	}
}

// NewPipeline wires the stages together. hand and face may be nil, in which
// case that modality never contributes.
func NewPipeline(hand HandProcessor, face FaceProcessor, engine *fusion.Engine, smoother *grammar.Smoother, hub *sink.Hub, logger *zap.Logger, m *metrics.Metrics, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		hand:     hand,
		face:     face,
		fusion:   engine,
		smoother: smoother,
		hub:      hub,
		gate:     DefaultGate,
		logger:   logger,
		metrics:  m,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process analyses frame and returns an annotated copy. The caller owns
// both frame and the returned Mat.
func (p *Pipeline) Process(frame *gocv.Mat) gocv.Mat {
	annotated := frame.Clone()

	if p.hand != nil {
		if r, ok := p.hand.Process(frame, &annotated); ok {
			p.Handle(r)
		}
	}

	if p.face != nil {
		for _, r := range p.face.Process(frame, &annotated) {
			p.Handle(r)
		}
	}

	return annotated
}

// Handle offers one detection to fusion. When a pair fuses, the smoothed
// result is returned and, if it meets the gate, published.
func (p *Pipeline) Handle(r detector.Result) (fusion.Result, bool) {
	fused, ok := p.fusion.Offer(r)
	if !ok {
		return fusion.Result{}, false
	}

	smoothed := p.smoother.Smooth(fused)

	if smoothed.Confidence < p.gate {
		p.metrics.Suppressed()
		p.logger.Debug("result below gate",
			zap.String("sign", smoothed.Sign),
			zap.Float64("confidence", smoothed.Confidence))
		return smoothed, false
	}

	p.metrics.Emitted()
	p.logger.Info("sign detected",
		zap.String("sign", smoothed.Sign),
		zap.Float64("confidence", smoothed.Confidence))

	if p.hub != nil {
		p.hub.Publish(smoothed)
	}
	return smoothed, true
}

// Smoother returns the grammar smoother.
func (p *Pipeline) Smoother() *grammar.Smoother {
	return p.smoother
}
