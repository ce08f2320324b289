package detector

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// SkinMask thresholds frame against the configured HSV skin band and removes
// speckle noise with one erosion followed by one dilation.
// The caller is responsible for closing the returned Mat.
func SkinMask(frame gocv.Mat, cfg Config) (gocv.Mat, error) {
	if frame.Empty() || frame.Channels() != 3 {
		return gocv.NewMat(), fmt.Errorf("skin mask: %w: need 3 channels, got %d", errInvalidFrame, frame.Channels())
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	gocv.InRangeWithScalar(hsv, cfg.SkinLower, cfg.SkinUpper, &mask)

	size := cfg.KernelSize
	if size <= 0 {
		size = 3
	}
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: size, Y: size})
	defer kernel.Close()

	// Opening: erode first so isolated blobs vanish before dilation
	gocv.Erode(mask, &mask, kernel)
	gocv.Dilate(mask, &mask, kernel)

	return mask, nil
}
