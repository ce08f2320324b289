package detector

import (
	"image"
	"image/color"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/lsainterp/internal/geometry"
	"github.com/ayusman/lsainterp/internal/metrics"
)

// Expression classification thresholds.
const (
	expressiveStdDev = 50
	positiveMean     = 127
	neutralScore     = 0.5
)

var (
	faceColor = color.RGBA{G: 255, A: 255}
	eyeColor  = color.RGBA{B: 255, A: 255}
)

// FaceExtractor classifies facial expressions from the intensity
// statistics of detected face regions.
type FaceExtractor struct {
	config  Config
	faces   RegionDetector
	eyes    RegionDetector
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewFaceExtractor creates an extractor. eyes may be nil, in which
// case eye regions are not annotated.
func NewFaceExtractor(config Config, faces, eyes RegionDetector, logger *zap.Logger, m *metrics.Metrics) *FaceExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FaceExtractor{
		config:  config,
		faces:   faces,
		eyes:    eyes,
		logger:  logger,
		metrics: m,
	}
}

// Process detects faces in frame and returns one result per face whose
// expression confidence meets the gate, in detection order.
func (f *FaceExtractor) Process(frame *gocv.Mat, annotated *gocv.Mat) (results []Result) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("face extraction panicked", zap.Any("panic", r))
			f.metrics.FrameError("face")
			results = nil
		}
	}()

	if !validFrame(frame) || f.faces == nil {
		return nil
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}
	gocv.EqualizeHist(gray, &gray)

	bounds := image.Rect(0, 0, gray.Cols(), gray.Rows())
	regions := f.faces.Detect(gray)

	for _, rect := range regions {
		rect = rect.Intersect(bounds)
		if rect.Empty() {
			continue
		}

		if res, ok := f.processFace(gray, rect, annotated); ok {
			res.Region = rect
			results = append(results, res)
		}
	}

	return results
}

func (f *FaceExtractor) processFace(gray gocv.Mat, rect image.Rectangle, annotated *gocv.Mat) (result Result, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("face region analysis panicked", zap.Any("panic", r), zap.Stringer("region", rect))
			f.metrics.FrameError("face")
			result, ok = Result{}, false
		}
	}()

	roi := gray.Region(rect)
	defer roi.Close()

	if annotated != nil && !annotated.Empty() {
		gocv.Rectangle(annotated, rect, faceColor, 2)
		f.annotateEyes(roi, rect.Min, annotated)
	}

	// Region views are not continuous; clone before reading raw bytes
	face := roi.Clone()
	defer face.Close()

	mean, stddev := geometry.MeanStdDev(face.ToBytes())
	expression, confidence := Classify(mean, stddev)

	if confidence < f.config.ExpressionGate {
		f.logger.Debug("expression below gate",
			zap.String("expression", string(expression)),
			zap.Float64("confidence", confidence))
		return Result{}, false
	}

	f.metrics.Detection(string(KindExpression))
	return ExpressionResult(expression, confidence), true
}

func (f *FaceExtractor) annotateEyes(face gocv.Mat, offset image.Point, annotated *gocv.Mat) {
	if f.eyes == nil {
		return
	}
	for _, eye := range f.eyes.Detect(face) {
		gocv.Rectangle(annotated, eye.Add(offset), eyeColor, 2)
	}
}

// Classify maps face intensity statistics to an expression and confidence.
func Classify(mean, stddev float64) (Expression, float64) {
	switch {
	case stddev > expressiveStdDev:
		return Expressive, geometry.Confidence(stddev / 100)
	case mean > positiveMean:
		return Positive, geometry.Confidence(mean / 255)
	default:
		return Neutral, neutralScore
	}
}
