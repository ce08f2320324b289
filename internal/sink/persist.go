package sink

import (
	"go.uber.org/zap"

	"github.com/ayusman/lsainterp/internal/fusion"
	"github.com/ayusman/lsainterp/internal/store"
)

// DetectionWriter persists detections.
type DetectionWriter interface {
	Create(d *store.Detection) error
}

// Persist returns a consumer for Run that stores every result. Write
// failures are logged and the result is dropped.
func Persist(w DetectionWriter, logger *zap.Logger) func(fusion.Result) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(r fusion.Result) {
		d := &store.Detection{Sign: r.Sign, Confidence: r.Confidence}
		if err := w.Create(d); err != nil {
			logger.Error("persist detection",
				zap.String("sign", r.Sign),
				zap.Error(err))
		}
	}
}
