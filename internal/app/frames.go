package app

import (
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// FrameBuffer holds the most recent annotated frame as JPEG bytes.
type FrameBuffer struct {
	mu      sync.RWMutex
	jpeg    []byte
	seq     uint64
	updated time.Time
}

// NewFrameBuffer creates an empty buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Update encodes frame and replaces the stored image.
func (b *FrameBuffer) Update(frame gocv.Mat) error {
	if frame.Empty() {
		return fmt.Errorf("encode frame: empty image")
	}

	buf, err := gocv.IMEncode(".jpg", frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	b.mu.Lock()
	defer b.mu.Unlock()
	b.jpeg = data
	b.seq++
	b.updated = time.Now()
	return nil
}

// Latest returns the current JPEG and its sequence number. The sequence is
// zero until the first Update. The returned slice must not be modified.
func (b *FrameBuffer) Latest() ([]byte, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.jpeg, b.seq
}

// Updated returns the time of the last Update.
func (b *FrameBuffer) Updated() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updated
}
