package detector

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/lsainterp/internal/geometry"
)

// ShapeAnalyzer provides the contour, hull and defect primitives used by the
// hand extractor.
type ShapeAnalyzer interface {
	// Contours returns the external contours of a binary mask.
	Contours(mask gocv.Mat) ([][]image.Point, error)

	// Area returns the enclosed area of a contour.
	Area(contour []image.Point) float64

	// Defects returns the convex hull, as contour indices, and the convexity
	// defects of a contour.
	Defects(contour []image.Point) ([]int, []geometry.Defect, error)
}

// OpenCVShapes implements ShapeAnalyzer with OpenCV.
type OpenCVShapes struct{}

// Contours extracts external contours with simple chain approximation.
func (OpenCVShapes) Contours(mask gocv.Mat) ([][]image.Point, error) {
	if mask.Empty() {
		return nil, fmt.Errorf("find contours: %w", errInvalidFrame)
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	return contours.ToPoints(), nil
}

// Area returns the contour area as computed by OpenCV.
func (OpenCVShapes) Area(contour []image.Point) float64 {
	pv := gocv.NewPointVectorFromPoints(contour)
	defer pv.Close()

	return gocv.ContourArea(pv)
}

// Defects computes hull indices and convexity defects.
func (OpenCVShapes) Defects(contour []image.Point) ([]int, []geometry.Defect, error) {
	if len(contour) <= 3 {
		return nil, nil, fmt.Errorf("convexity defects: contour has %d points", len(contour))
	}

	pv := gocv.NewPointVectorFromPoints(contour)
	defer pv.Close()

	hull := gocv.NewMat()
	defer hull.Close()
	gocv.ConvexHull(pv, &hull, false, false)

	indices := make([]int, 0, hull.Rows())
	for i := 0; i < hull.Rows(); i++ {
		indices = append(indices, int(hull.GetIntAt(i, 0)))
	}

	result := gocv.NewMat()
	defer result.Close()
	gocv.ConvexityDefects(pv, hull, &result)

	defects := make([]geometry.Defect, 0, result.Rows())
	for i := 0; i < result.Rows(); i++ {
		v := result.GetVeciAt(i, 0)
		if len(v) < 4 {
			continue
		}
		defects = append(defects, geometry.Defect{
			Start: int(v[0]),
			End:   int(v[1]),
			Far:   int(v[2]),
			Depth: int(v[3]),
		})
	}

	return indices, defects, nil
}
