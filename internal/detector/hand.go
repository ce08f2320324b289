package detector

import (
	"fmt"
	"image"
	"image/color"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/lsainterp/internal/geometry"
	"github.com/ayusman/lsainterp/internal/metrics"
)

// Annotation colors.
var (
	contourColor = color.RGBA{G: 255, A: 255}
	hullColor    = color.RGBA{B: 255, A: 255}
	defectColor  = color.RGBA{R: 255, A: 255}
)

// HandExtractor estimates a finger count from the largest skin-colored
// contour in a frame.
type HandExtractor struct {
	config  Config
	shapes  ShapeAnalyzer
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewHandExtractor creates a HandExtractor. A nil shapes uses OpenCVShapes.
func NewHandExtractor(config Config, shapes ShapeAnalyzer, logger *zap.Logger, m *metrics.Metrics) *HandExtractor {
	if shapes == nil {
		shapes = OpenCVShapes{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HandExtractor{
		config:  config,
		shapes:  shapes,
		logger:  logger,
		metrics: m,
	}
}

// Process analyses frame and returns a gesture result when a hand contour
// with enough points is found. Markers are drawn on annotated when it is
// non-nil. Failures are logged and reported as no result.
func (h *HandExtractor) Process(frame *gocv.Mat, annotated *gocv.Mat) (result Result, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("hand extraction panicked", zap.Any("panic", r))
			h.metrics.FrameError("hand")
			result, ok = Result{}, false
		}
	}()

	if !validFrame(frame) {
		return Result{}, false
	}

	fingers, found, err := h.analyse(*frame, annotated)
	if err != nil {
		h.logger.Error("hand extraction failed", zap.Error(err))
		h.metrics.FrameError("hand")
		return Result{}, false
	}
	if !found {
		return Result{}, false
	}

	h.metrics.Detection(string(KindGesture))
	return GestureResult(fingers), true
}

func (h *HandExtractor) analyse(frame gocv.Mat, annotated *gocv.Mat) (int, bool, error) {
	mask, err := SkinMask(frame, h.config)
	defer mask.Close()
	if err != nil {
		return 0, false, err
	}

	contours, err := h.shapes.Contours(mask)
	if err != nil {
		return 0, false, err
	}
	if len(contours) == 0 {
		return 0, false, nil
	}

	areas := make([]float64, len(contours))
	for i, c := range contours {
		areas[i] = h.shapes.Area(c)
	}
	contour := contours[geometry.LargestArea(areas)]

	if len(contour) <= 3 {
		return 0, false, nil
	}

	hull, defects, err := h.shapes.Defects(contour)
	if err != nil {
		return 0, false, fmt.Errorf("analyse hand contour: %w", err)
	}

	fingers := CountFingers(contour, defects, h.config.DefectDepth, h.config.MaxFingerAngle)

	if annotated != nil && !annotated.Empty() {
		drawHand(annotated, contour, hull, defects)
	}

	return fingers, true, nil
}

// CountFingers estimates the number of raised fingers from convexity defects.
// The count starts at one for the thumb, adds one per defect deeper than
// depthThreshold pixels whose angle at the far point is at most maxAngle
// degrees, and is clamped to [MinFingers, MaxFingers].
func CountFingers(contour []image.Point, defects []geometry.Defect, depthThreshold, maxAngle float64) int {
	count := 1

	for _, d := range defects {
		if d.Pixels() <= depthThreshold {
			continue
		}
		if !inRange(d.Start, contour) || !inRange(d.End, contour) || !inRange(d.Far, contour) {
			continue
		}

		angle, ok := geometry.AngleAt(contour[d.Start], contour[d.End], contour[d.Far])
		if ok && angle <= maxAngle {
			count++
		}
	}

	return geometry.ClampInt(count, MinFingers, MaxFingers)
}

func inRange(i int, contour []image.Point) bool {
	return i >= 0 && i < len(contour)
}

func drawHand(img *gocv.Mat, contour []image.Point, hull []int, defects []geometry.Defect) {
	contours := gocv.NewPointsVectorFromPoints([][]image.Point{contour})
	defer contours.Close()
	gocv.DrawContours(img, contours, -1, contourColor, 2)

	hullPoints := make([]image.Point, 0, len(hull))
	for _, i := range hull {
		if inRange(i, contour) {
			hullPoints = append(hullPoints, contour[i])
		}
	}
	if len(hullPoints) > 0 {
		hullVec := gocv.NewPointsVectorFromPoints([][]image.Point{hullPoints})
		defer hullVec.Close()
		gocv.DrawContours(img, hullVec, -1, hullColor, 2)
	}

	for _, d := range defects {
		if inRange(d.Far, contour) {
			gocv.Circle(img, contour[d.Far], 4, defectColor, -1)
		}
	}
}
