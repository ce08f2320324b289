// Package detector provides the per-frame hand gesture and facial expression
// extractors that feed the fusion stage.
package detector

import (
	"errors"
	"image"
	"strconv"

	"gocv.io/x/gocv"
)

// ErrCascadeNotLoaded is returned when a cascade classifier file cannot be loaded.
var ErrCascadeNotLoaded = errors.New("cascade classifier not loaded")

// errInvalidFrame is logged when a frame cannot be analysed.
var errInvalidFrame = errors.New("invalid frame")

// Kind identifies which extractor produced a Result.
type Kind string

const (
	// KindGesture is a finger-count result from the hand extractor.
	KindGesture Kind = "GESTURE"
	// KindExpression is a result from the face extractor.
	KindExpression Kind = "FACIAL_EXPRESSION"
)

// Expression is a discrete facial expression class.
type Expression string

const (
	Expressive Expression = "EXPRESSIVE"
	Positive   Expression = "POSITIVE"
	Neutral    Expression = "NEUTRAL"
)

// Finger count bounds and gesture confidences.
const (
	MinFingers = 1
	MaxFingers = 5

	GestureConfidence    = 0.8
	LowGestureConfidence = 0.3
)

// Result is a single detection produced by an extractor for one frame.
type Result struct {
	Kind       Kind            `json:"kind"`
	Value      string          `json:"value"`
	Confidence float64         `json:"confidence"`
	Fingers    int             `json:"fingers,omitempty"`
	Region     image.Rectangle `json:"-"`
}

// GestureResult builds a gesture Result for the given finger count.
func GestureResult(fingers int) Result {
	return Result{
		Kind:       KindGesture,
		Value:      strconv.Itoa(fingers),
		Confidence: GestureConfidenceFor(fingers),
		Fingers:    fingers,
	}
}

// ExpressionResult builds an expression Result.
func ExpressionResult(e Expression, confidence float64) Result {
	return Result{
		Kind:       KindExpression,
		Value:      string(e),
		Confidence: confidence,
	}
}

// GestureConfidenceFor returns the heuristic confidence of a finger count.
func GestureConfidenceFor(fingers int) float64 {
	if fingers >= MinFingers && fingers <= MaxFingers {
		return GestureConfidence
	}
	return LowGestureConfidence
}

// Config holds the thresholds used by the extractors.
type Config struct {
	// SkinLower and SkinUpper bound the HSV skin band.
	SkinLower gocv.Scalar
	SkinUpper gocv.Scalar

	// KernelSize is the side of the elliptical structuring element.
	KernelSize int

	// DefectDepth is the minimum defect depth, in pixels, for a finger boundary.
	DefectDepth float64

	// MaxFingerAngle is the largest included angle, in degrees, counted as a finger gap.
	MaxFingerAngle float64

	// FaceMinSize is the smallest face region reported by the cascade.
	FaceMinSize image.Point

	// ScaleFactor and MinNeighbors tune the cascade search.
	ScaleFactor  float64
	MinNeighbors int

	// ExpressionGate is the minimum confidence for an expression to be emitted.
	ExpressionGate float64
}

// DefaultConfig returns a Config with the standard thresholds.
func DefaultConfig() Config {
	return Config{
		SkinLower:      gocv.NewScalar(0, 20, 70, 0),
		SkinUpper:      gocv.NewScalar(20, 255, 255, 0),
		KernelSize:     3,
		DefectDepth:    10,
		MaxFingerAngle: 90,
		FaceMinSize:    image.Point{X: 30, Y: 30},
		ScaleFactor:    1.1,
		MinNeighbors:   3,
		ExpressionGate: 0.7,
	}
}

// validFrame reports whether frame can be analysed.
func validFrame(frame *gocv.Mat) bool {
	return frame != nil && !frame.Empty() && frame.Rows() > 0 && frame.Cols() > 0
}
