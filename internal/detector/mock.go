package detector

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/lsainterp/internal/geometry"
)

// MockShapes is a test implementation of ShapeAnalyzer.
// It ignores the mask and returns the configured contours and defects.
type MockShapes struct {
	contours [][]image.Point
	hull     []int
	defects  []geometry.Defect
	err      error
	panicMsg string
}

// NewMockShapes creates a new MockShapes instance.
func NewMockShapes() *MockShapes {
	return &MockShapes{}
}

// SetContours sets the contours returned by Contours.
func (m *MockShapes) SetContours(contours [][]image.Point) {
	m.contours = contours
}

// SetDefects sets the hull and defects returned by Defects.
func (m *MockShapes) SetDefects(hull []int, defects []geometry.Defect) {
	m.hull = hull
	m.defects = defects
}

// SetError sets the error returned by Contours and Defects.
func (m *MockShapes) SetError(err error) {
	m.err = err
}

// SetPanic makes Defects panic with msg, simulating a native failure.
func (m *MockShapes) SetPanic(msg string) {
	m.panicMsg = msg
}

// Contours returns the pre-configured contours or error.
func (m *MockShapes) Contours(mask gocv.Mat) ([][]image.Point, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.contours, nil
}

// Area returns the shoelace area of the contour.
func (m *MockShapes) Area(contour []image.Point) float64 {
	return geometry.PolygonArea(contour)
}

// Defects returns the pre-configured hull and defects.
func (m *MockShapes) Defects(contour []image.Point) ([]int, []geometry.Defect, error) {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.hull, m.defects, nil
}

// MockRegionDetector is a test implementation of RegionDetector.
type MockRegionDetector struct {
	regions []image.Rectangle
	calls   int
}

// NewMockRegionDetector creates a detector that always returns regions.
func NewMockRegionDetector(regions ...image.Rectangle) *MockRegionDetector {
	return &MockRegionDetector{regions: regions}
}

// SetRegions replaces the returned regions.
func (m *MockRegionDetector) SetRegions(regions ...image.Rectangle) {
	m.regions = regions
}

// Detect returns the configured regions.
func (m *MockRegionDetector) Detect(gray gocv.Mat) []image.Rectangle {
	m.calls++
	return m.regions
}

// Calls returns how many times Detect was called.
func (m *MockRegionDetector) Calls() int {
	return m.calls
}

// Close is a no-op for the mock detector.
func (m *MockRegionDetector) Close() error {
	return nil
}
