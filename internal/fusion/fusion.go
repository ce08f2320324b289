// Package fusion pairs the most recent gesture and expression detections
// into a combined sign token.
package fusion

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/lsainterp/internal/detector"
	"github.com/ayusman/lsainterp/internal/geometry"
	"github.com/ayusman/lsainterp/internal/metrics"
)

// Separator joins the gesture and expression values of a sign.
const Separator = "_"

// Result is a fused sign and its confidence.
type Result struct {
	Sign       string  `json:"sign"`
	Confidence float64 `json:"confidence"`
}

// Engine holds at most one pending detection per modality. When both
// slots are filled it emits a Result and clears them. There is no time
// window: a stale gesture pairs with the next expression however late.
type Engine struct {
	mu         sync.Mutex
	gesture    *detector.Result
	expression *detector.Result
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewEngine creates an engine with empty slots.
func NewEngine(logger *zap.Logger, m *metrics.Metrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger, metrics: m}
}

// Offer routes r to the slot matching its kind. Unknown kinds are ignored.
func (e *Engine) Offer(r detector.Result) (Result, bool) {
	switch r.Kind {
	case detector.KindGesture:
		return e.OnGesture(r)
	case detector.KindExpression:
		return e.OnExpression(r)
	default:
		e.logger.Debug("ignoring detection of unknown kind", zap.String("kind", string(r.Kind)))
		return Result{}, false
	}
}

// OnGesture replaces the gesture slot and attempts fusion.
func (e *Engine) OnGesture(r detector.Result) (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.gesture = &r
	return e.tryFuse()
}

// OnExpression replaces the expression slot and attempts fusion.
func (e *Engine) OnExpression(r detector.Result) (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.expression = &r
	return e.tryFuse()
}

// Pending reports which slots currently hold a detection.
func (e *Engine) Pending() (gesture, expression bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gesture != nil, e.expression != nil
}

// Reset clears both slots without emitting.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gesture, e.expression = nil, nil
}

// tryFuse must be called with mu held.
func (e *Engine) tryFuse() (Result, bool) {
	if e.gesture == nil || e.expression == nil {
		return Result{}, false
	}

	res := Result{
		Sign:       e.gesture.Value + Separator + e.expression.Value,
		Confidence: geometry.Confidence((e.gesture.Confidence + e.expression.Confidence) / 2),
	}
	e.gesture, e.expression = nil, nil

	e.metrics.Fusion()
	e.logger.Debug("fused sign",
		zap.String("sign", res.Sign),
		zap.Float64("confidence", res.Confidence))

	return res, true
}
