package detector

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// RegionDetector finds axis-aligned regions of interest in a grayscale image.
type RegionDetector interface {
	Detect(gray gocv.Mat) []image.Rectangle
	Close() error
}

// CascadeDetector implements RegionDetector with an OpenCV Haar cascade.
type CascadeDetector struct {
	classifier   gocv.CascadeClassifier
	scaleFactor  float64
	minNeighbors int
	minSize      image.Point
	mu           sync.Mutex
}

// NewCascadeDetector loads the cascade at path.
// It returns ErrCascadeNotLoaded when the file is missing or invalid.
func NewCascadeDetector(path string, scaleFactor float64, minNeighbors int, minSize image.Point) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("%w: %s", ErrCascadeNotLoaded, path)
	}

	if scaleFactor <= 1 {
		scaleFactor = 1.1
	}
	if minNeighbors <= 0 {
		minNeighbors = 3
	}

	return &CascadeDetector{
		classifier:   classifier,
		scaleFactor:  scaleFactor,
		minNeighbors: minNeighbors,
		minSize:      minSize,
	}, nil
}

// Detect runs the multi-scale cascade search over gray.
func (c *CascadeDetector) Detect(gray gocv.Mat) []image.Rectangle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gray.Empty() {
		return nil
	}
	return c.classifier.DetectMultiScaleWithParams(gray, c.scaleFactor, c.minNeighbors, 0, c.minSize, image.Point{})
}

// Close releases the classifier.
func (c *CascadeDetector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classifier.Close()
}
