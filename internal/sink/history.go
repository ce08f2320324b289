package sink

import (
	"sync"
	"time"

	"github.com/ayusman/lsainterp/internal/fusion"
	"github.com/ayusman/lsainterp/internal/geometry"
)

// DefaultHistoryLimit is the number of entries kept by a History.
const DefaultHistoryLimit = 100

// Entry is a finalized result with the time it was received.
type Entry struct {
	Sign       string    `json:"sign"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Stats summarizes the entries of a History.
type Stats struct {
	Total             int            `json:"total"`
	AverageConfidence float64        `json:"averageConfidence"`
	Signs             map[string]int `json:"signs"`
}

// History keeps the most recent finalized results, newest first.
type History struct {
	mu      sync.RWMutex
	entries []Entry
	limit   int
	now     func() time.Time
}

// NewHistory creates a History bounded to limit entries.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit, now: time.Now}
}

// Add records r as the newest entry, dropping the oldest beyond the limit.
func (h *History) Add(r fusion.Result) {
	e := Entry{
		Sign:       r.Sign,
		Confidence: geometry.Confidence(r.Confidence),
		Timestamp:  h.now(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, Entry{})
	copy(h.entries[1:], h.entries)
	h.entries[0] = e

	if len(h.entries) > h.limit {
		h.entries = h.entries[:h.limit]
	}
}

// Entries returns a copy of the entries, newest first.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Stats computes totals over the current entries.
func (h *History) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s := Stats{Total: len(h.entries), Signs: make(map[string]int)}
	if s.Total == 0 {
		return s
	}

	var sum float64
	for _, e := range h.entries {
		sum += e.Confidence
		s.Signs[e.Sign]++
	}
	s.AverageConfidence = sum / float64(s.Total)
	return s
}

// Clear removes all entries.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}
