package capture

import (
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func blackAndWhite() (gocv.Mat, gocv.Mat) {
	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	black.SetTo(gocv.NewScalar(0, 0, 0, 0))
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))
	return black, white
}

func TestMotionDetector_Threshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	md.SetThreshold(5)
	if md.Threshold() != 5 {
		t.Errorf("Threshold() = %f, want 5", md.Threshold())
	}

	md.SetThreshold(-1)
	if md.Threshold() != 5 {
		t.Errorf("negative threshold should be ignored, got %f", md.Threshold())
	}
}

func TestMotionDetector_Detect(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	black, white := blackAndWhite()
	defer black.Close()
	defer white.Close()

	tests := []struct {
		name   string
		first  gocv.Mat
		second gocv.Mat
		want   bool
	}{
		{"identical frames", black, black, false},
		{"black to white", black, white, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMotionDetector(1.0)
			defer md.Close()

			if moved, pct := md.Detect(&tt.first); moved || pct != 0 {
				t.Errorf("first frame = %v, %f, want false, 0", moved, pct)
			}

			moved, pct := md.Detect(&tt.second)
			if moved != tt.want {
				t.Errorf("Detect() = %v (%f%%), want %v", moved, pct, tt.want)
			}
		})
	}
}

func TestMotionDetector_ResetPrimesAgain(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	black, white := blackAndWhite()
	defer black.Close()
	defer white.Close()

	md := NewMotionDetector(1.0)
	defer md.Close()

	md.Detect(&black)
	md.Reset()

	if moved, _ := md.Detect(&white); moved {
		t.Error("first frame after Reset should only prime the baseline")
	}
}

func TestMotionDetector_NilFrame(t *testing.T) {
	md := NewMotionDetector(1.0)
	md.Close()
	md.Close()

	if moved, pct := md.Detect(nil); moved || pct != 0 {
		t.Errorf("Detect(nil) = %v, %f", moved, pct)
	}
}

func TestMotionGate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	black, white := blackAndWhite()
	defer black.Close()
	defer white.Close()

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	gate := NewMotionGate(NewMotionDetector(1.0), time.Second)
	gate.now = func() time.Time { return clock }
	defer gate.Close()

	if gate.Allow(&black) {
		t.Error("gate should be closed before any motion")
	}
	if !gate.Allow(&white) {
		t.Error("gate should open on motion")
	}

	clock = clock.Add(500 * time.Millisecond)
	if !gate.Allow(&white) {
		t.Error("gate should stay open within the idle timeout")
	}

	clock = clock.Add(2 * time.Second)
	if gate.Allow(&white) {
		t.Error("gate should close after the idle timeout")
	}
}
