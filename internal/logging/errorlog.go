package logging

import (
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/ayusman/lsainterp/internal/ring"
)

// DefaultErrorHistory is the number of error entries retained.
const DefaultErrorHistory = 100

// ErrorEntry is a single recorded error.
type ErrorEntry struct {
	Component string    `json:"component"`
	Message   string    `json:"message"`
	Level     string    `json:"level"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorLog keeps the most recent error entries emitted by the logger.
type ErrorLog struct {
	entries *ring.Buffer[ErrorEntry]
}

// NewErrorLog creates an ErrorLog retaining up to capacity entries.
func NewErrorLog(capacity int) *ErrorLog {
	if capacity <= 0 {
		capacity = DefaultErrorHistory
	}
	return &ErrorLog{entries: ring.New[ErrorEntry](capacity)}
}

// Hook is a zap entry hook. Entries below error level are ignored.
func (l *ErrorLog) Hook(entry zapcore.Entry) error {
	if entry.Level < zapcore.ErrorLevel {
		return nil
	}
	l.entries.Push(ErrorEntry{
		Component: entry.LoggerName,
		Message:   entry.Message,
		Level:     entry.Level.String(),
		Timestamp: entry.Time,
	})
	return nil
}

// Recent returns the recorded errors, newest first.
func (l *ErrorLog) Recent() []ErrorEntry {
	snap := l.entries.Snapshot()
	for i, j := 0, len(snap)-1; i < j; i, j = i+1, j-1 {
		snap[i], snap[j] = snap[j], snap[i]
	}
	return snap
}

// Clear drops all recorded errors.
func (l *ErrorLog) Clear() {
	l.entries.Clear()
}
