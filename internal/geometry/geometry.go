// Package geometry provides the stateless geometric and statistical routines
// used by the hand and face feature extractors.
package geometry

import (
	"image"
	"math"
)

// DepthScale is the fixed-point scale of convexity defect depths.
// OpenCV reports depth as distance * 256.
const DepthScale = 256

// Defect describes a convexity defect as indices into its contour.
type Defect struct {
	Start int
	End   int
	Far   int
	Depth int // fixed-point, see DepthScale
}

// Pixels returns the defect depth in pixel units.
func (d Defect) Pixels() float64 {
	return float64(d.Depth) / DepthScale
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// AngleAt returns the included angle at far, in degrees, of the triangle
// (start, end, far), using the law of cosines.
// The second return value is false when the triangle is degenerate.
func AngleAt(start, end, far image.Point) (float64, bool) {
	a := Distance(start, end)
	b := Distance(far, start)
	c := Distance(end, far)

	if b == 0 || c == 0 {
		return 0, false
	}

	cos := (b*b + c*c - a*a) / (2 * b * c)
	// Rounding can push the cosine slightly outside [-1, 1]
	cos = Clamp(cos, -1, 1)

	angle := math.Acos(cos) * 180 / math.Pi
	if math.IsNaN(angle) {
		return 0, false
	}
	return angle, true
}

// LargestArea returns the index of the largest value in areas.
// Ties resolve to the first occurrence. Returns -1 for an empty slice.
func LargestArea(areas []float64) int {
	best := -1
	for i, a := range areas {
		if best == -1 || a > areas[best] {
			best = i
		}
	}
	return best
}

// PolygonArea returns the absolute enclosed area of a closed polygon
// using the shoelace formula.
func PolygonArea(points []image.Point) float64 {
	if len(points) < 3 {
		return 0
	}

	var sum int
	for i := range points {
		j := (i + 1) % len(points)
		sum += points[i].X*points[j].Y - points[j].X*points[i].Y
	}

	return math.Abs(float64(sum)) / 2
}

// MeanStdDev returns the mean and population standard deviation of pixels.
func MeanStdDev(pixels []uint8) (mean, stddev float64) {
	if len(pixels) == 0 {
		return 0, 0
	}

	var sum float64
	for _, p := range pixels {
		sum += float64(p)
	}
	mean = sum / float64(len(pixels))

	var sq float64
	for _, p := range pixels {
		d := float64(p) - mean
		sq += d * d
	}
	stddev = math.Sqrt(sq / float64(len(pixels)))

	return mean, stddev
}

// Clamp limits v to the range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampInt limits v to the range [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Confidence clamps a confidence value to [0, 1].
func Confidence(v float64) float64 {
	return Clamp(v, 0, 1)
}
