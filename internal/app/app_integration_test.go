package app

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/lsainterp/internal/capture"
	"github.com/ayusman/lsainterp/internal/detector"
	"github.com/ayusman/lsainterp/internal/fixture"
	"github.com/ayusman/lsainterp/internal/fusion"
	"github.com/ayusman/lsainterp/internal/grammar"
	"github.com/ayusman/lsainterp/internal/sink"
)

type fakeHand struct {
	result detector.Result
	calls  atomic.Int32
}

func (f *fakeHand) Process(frame, annotated *gocv.Mat) (detector.Result, bool) {
	f.calls.Add(1)
	return f.result, true
}

type fakeFace struct {
	results []detector.Result
}

func (f *fakeFace) Process(frame, annotated *gocv.Mat) []detector.Result {
	return f.results
}

func newTestPipeline(hand HandProcessor, face FaceProcessor) (*Pipeline, *sink.Subscription) {
	hub := sink.NewHub(nil, nil)
	sub := hub.Subscribe("test", 64)
	p := NewPipeline(hand, face, fusion.NewEngine(nil, nil), grammar.NewSmoother(nil, nil), hub, nil, nil)
	return p, sub
}

func TestPipeline_Handle_EmitsFusedPair(t *testing.T) {
	p, sub := newTestPipeline(nil, nil)

	if _, ok := p.Handle(detector.GestureResult(3)); ok {
		t.Fatal("gesture alone must not emit")
	}

	res, ok := p.Handle(detector.ExpressionResult(detector.Positive, 0.75))
	if !ok {
		t.Fatal("expected emitted result")
	}
	if res.Sign != "3_POSITIVE" || math.Abs(res.Confidence-0.775) > 1e-9 {
		t.Errorf("result = %+v, want 3_POSITIVE 0.775", res)
	}

	select {
	case got := <-sub.C:
		if got != res {
			t.Errorf("published %+v, want %+v", got, res)
		}
	default:
		t.Error("expected result on subscription")
	}
}

func TestPipeline_Handle_BelowGate(t *testing.T) {
	p, sub := newTestPipeline(nil, nil)

	p.Handle(detector.GestureResult(0))
	res, ok := p.Handle(detector.ExpressionResult(detector.Neutral, 0.5))

	if ok {
		t.Fatalf("result %+v should be suppressed", res)
	}
	if math.Abs(res.Confidence-0.4) > 1e-9 {
		t.Errorf("confidence = %f, want 0.4", res.Confidence)
	}

	select {
	case got := <-sub.C:
		t.Errorf("unexpected publish %+v", got)
	default:
	}

	if n := len(p.Smoother().History()); n != 1 {
		t.Errorf("smoother history = %d, want 1", n)
	}
}

func TestPipeline_WithGate(t *testing.T) {
	hub := sink.NewHub(nil, nil)
	p := NewPipeline(nil, nil, fusion.NewEngine(nil, nil), grammar.NewSmoother(nil, nil), hub, nil, nil, WithGate(0.3))

	p.Handle(detector.GestureResult(0))
	if _, ok := p.Handle(detector.ExpressionResult(detector.Neutral, 0.5)); !ok {
		t.Error("expected result above lowered gate to emit")
	}
}

func TestPipeline_Process(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	hand := &fakeHand{result: detector.GestureResult(2)}
	face := &fakeFace{results: []detector.Result{detector.ExpressionResult(detector.Expressive, 0.9)}}
	p, sub := newTestPipeline(hand, face)

	frame := fixture.Blank()
	defer frame.Close()

	annotated := p.Process(&frame)
	defer annotated.Close()

	if annotated.Cols() != fixture.Width || annotated.Rows() != fixture.Height {
		t.Errorf("annotated size = %dx%d", annotated.Cols(), annotated.Rows())
	}

	select {
	case got := <-sub.C:
		if got.Sign != "2_EXPRESSIVE" {
			t.Errorf("sign = %q, want 2_EXPRESSIVE", got.Sign)
		}
	default:
		t.Error("expected a published result")
	}
}

func TestPipeline_Process_RealHand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that runs OpenCV contour analysis")
	}

	hand := detector.NewHandExtractor(detector.DefaultConfig(), nil, nil, nil)
	face := &fakeFace{results: []detector.Result{detector.ExpressionResult(detector.Positive, 0.8)}}
	p, sub := newTestPipeline(hand, face)

	frame := fixture.Hand(3)
	defer frame.Close()

	annotated := p.Process(&frame)
	annotated.Close()

	select {
	case got := <-sub.C:
		if got.Sign != "3_POSITIVE" {
			t.Errorf("sign = %q, want 3_POSITIVE", got.Sign)
		}
	default:
		t.Error("expected a published result")
	}
}

func TestApp_StartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	frame := fixture.Blank()
	defer frame.Close()

	cam := capture.NewMockCamera([]gocv.Mat{frame}, true)
	hand := &fakeHand{result: detector.GestureResult(4)}
	face := &fakeFace{results: []detector.Result{detector.ExpressionResult(detector.Positive, 0.9)}}
	p, sub := newTestPipeline(hand, face)

	a := New(Config{FPS: 50}, cam, p, nil, nil)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := a.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}

	select {
	case got := <-sub.C:
		if got.Sign != "4_POSITIVE" {
			t.Errorf("sign = %q, want 4_POSITIVE", got.Sign)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no result from worker")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if data, seq := a.Frames().Latest(); seq > 0 && len(data) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected an annotated frame in the buffer")
		}
		time.Sleep(10 * time.Millisecond)
	}

	a.Stop()
	a.Stop()

	if a.Running() {
		t.Error("Running() should be false after Stop")
	}
	if cam.IsOpen() {
		t.Error("camera should be closed after Stop")
	}
}

func TestApp_Disabled(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	frame := fixture.Blank()
	defer frame.Close()

	cam := capture.NewMockCamera([]gocv.Mat{frame}, true)
	p, _ := newTestPipeline(nil, nil)
	a := New(Config{FPS: 50}, cam, p, nil, nil)

	if !a.IsEnabled() {
		t.Fatal("app should start enabled")
	}

	a.SetEnabled(false)
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	time.Sleep(200 * time.Millisecond)
	if n := cam.Reads(); n != 0 {
		t.Errorf("camera read %d frames while disabled", n)
	}

	a.SetEnabled(true)
	deadline := time.Now().Add(2 * time.Second)
	for cam.Reads() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if cam.Reads() == 0 {
		t.Error("camera not read after enabling")
	}
}

func TestApp_MotionGateSkipsStillFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	frame := fixture.Blank()
	defer frame.Close()

	cam := capture.NewMockCamera([]gocv.Mat{frame}, true)
	hand := &fakeHand{result: detector.GestureResult(1)}
	p, _ := newTestPipeline(hand, nil)
	a := New(Config{FPS: 50, MotionThreshold: 1}, cam, p, nil, nil)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	a.Stop()

	if cam.Reads() == 0 {
		t.Fatal("expected frames to be read")
	}
	if n := hand.calls.Load(); n != 0 {
		t.Errorf("hand extractor ran %d times on still frames", n)
	}
	if _, seq := a.Frames().Latest(); seq == 0 {
		t.Error("idle frames should still be buffered")
	}
}

func TestApp_StartFailsWhenCameraFails(t *testing.T) {
	p, _ := newTestPipeline(nil, nil)
	a := New(Config{}, failingCamera{}, p, nil, nil)

	if err := a.Start(); !errors.Is(err, errOpen) {
		t.Errorf("Start() error = %v, want wrapped errOpen", err)
	}
	if a.Running() {
		t.Error("app should not be running")
	}
}

var errOpen = errors.New("device busy")

type failingCamera struct{}

func (failingCamera) Open() error                   { return errOpen }
func (failingCamera) Close() error                  { return nil }
func (failingCamera) ReadFrame() (*gocv.Mat, error) { return nil, capture.ErrCameraNotOpen }
func (failingCamera) SetFPS(int)                    {}
func (failingCamera) FPS() int                      { return 0 }
func (failingCamera) IsOpen() bool                  { return false }
