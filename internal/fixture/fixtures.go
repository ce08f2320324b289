// Package fixture synthesizes video frames for tests: skin-colored hand
// silhouettes with a chosen number of raised fingers and flat or split
// intensity frames for face statistics.
package fixture

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Frame dimensions used by the fixtures.
const (
	Width  = 640
	Height = 480
)

// Skin is a BGR skin tone that falls inside the default HSV skin band
// (hue ~10, saturation ~150, value 200).
var Skin = color.RGBA{R: 200, G: 122, B: 82, A: 255}

// Hand silhouette geometry.
const (
	fingerWidth  = 30
	fingerGap    = 20
	fingerLength = 80
	fingerArc    = 60
	palmHeight   = 140
	palmBottom   = 440
)

// Blank returns a black BGR frame. The caller must close it.
func Blank() gocv.Mat {
	frame := gocv.NewMatWithSize(Height, Width, gocv.MatTypeCV8UC3)
	frame.SetTo(gocv.NewScalar(0, 0, 0, 0))
	return frame
}

// Hand returns a frame containing a single skin-colored hand with the given
// number of raised fingers (0 draws the palm only). Finger heights follow an
// arc so every fingertip lies on the convex hull. The caller must close it.
func Hand(fingers int) gocv.Mat {
	frame := Blank()

	n := fingers
	if n < 1 {
		n = 1
	}
	palmWidth := n*fingerWidth + (n-1)*fingerGap
	left := (Width - palmWidth) / 2
	palmTop := palmBottom - palmHeight

	gocv.Rectangle(&frame, image.Rect(left, palmTop, left+palmWidth, palmBottom), Skin, -1)

	if fingers < 1 {
		return frame
	}

	center := float64(n-1) / 2
	half := float64(n) / 2
	for i := 0; i < n; i++ {
		t := (float64(i) - center) / half
		height := fingerLength + int(float64(fingerArc)*(1-t*t))

		x := left + i*(fingerWidth+fingerGap)
		gocv.Rectangle(&frame, image.Rect(x, palmTop-height, x+fingerWidth, palmTop+1), Skin, -1)
	}

	return frame
}

// Flat returns a BGR frame filled with a single gray intensity.
// The caller must close it.
func Flat(intensity uint8) gocv.Mat {
	frame := Blank()
	v := float64(intensity)
	frame.SetTo(gocv.NewScalar(v, v, v, 0))
	return frame
}

// Split returns a frame whose left half is black and right half white,
// giving the maximum intensity spread. The caller must close it.
func Split() gocv.Mat {
	frame := Blank()
	gocv.Rectangle(&frame, image.Rect(Width/2, 0, Width, Height), color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
	return frame
}

// FullFrame is a region covering an entire fixture frame.
func FullFrame() image.Rectangle {
	return image.Rect(0, 0, Width, Height)
}
