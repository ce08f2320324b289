// Package grammar rewrites and re-scores fused sign tokens against a small
// category table over a bounded recent history.
package grammar

import (
	"math"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/lsainterp/internal/fusion"
	"github.com/ayusman/lsainterp/internal/geometry"
	"github.com/ayusman/lsainterp/internal/metrics"
	"github.com/ayusman/lsainterp/internal/ring"
)

const (
	// HistorySize is the number of recent words kept for smoothing.
	HistorySize = 10
	// MaxBonus is the largest confidence increase a sequence can earn.
	MaxBonus = 0.1

	agreementWindow = 3
)

// WordInfo is one entry of the smoothing history.
type WordInfo struct {
	Word       string    `json:"word"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Smoother corrects subject-verb agreement and adds a confidence bonus for
// grammatically plausible sequences. Smooth is called from a single
// goroutine; History and Bonus may be called from any goroutine.
type Smoother struct {
	rules   *Rules
	history *ring.Buffer[WordInfo]
	bonus   atomic.Uint64
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Smoother.
type Option func(*Smoother)

// WithClock sets the time source used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Smoother) {
		s.now = now
	}
}

// WithRules replaces the default rule table.
func WithRules(r *Rules) Option {
	return func(s *Smoother) {
		s.rules = r
	}
}

// NewSmoother creates a Smoother with an empty history of HistorySize.
func NewSmoother(logger *zap.Logger, m *metrics.Metrics, opts ...Option) *Smoother {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Smoother{
		rules:   DefaultRules(),
		history: ring.New[WordInfo](HistorySize),
		now:     time.Now,
		logger:  logger,
		metrics: m,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Smooth records r in the history and returns it with agreement applied and
// the sequence bonus added. If smoothing fails, r is returned unchanged.
func (s *Smoother) Smooth(r fusion.Result) (out fusion.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("smoothing failed",
				zap.Any("panic", rec),
				zap.String("sign", r.Sign))
			s.metrics.SmoothingFailure()
			out = r
		}
	}()

	s.history.Push(WordInfo{
		Word:       r.Sign,
		Confidence: r.Confidence,
		Timestamp:  s.now(),
	})

	sign := s.applyAgreement(r.Sign)
	bonus := s.computeBonus()

	s.bonus.Store(math.Float64bits(bonus))
	s.metrics.GrammarBonus(bonus)

	if sign != r.Sign {
		s.logger.Debug("agreement rewrite", zap.String("from", r.Sign), zap.String("to", sign))
	}

	return fusion.Result{
		Sign:       sign,
		Confidence: geometry.Confidence(r.Confidence + bonus),
	}
}

func (s *Smoother) applyAgreement(word string) string {
	window := s.history.Last(agreementWindow)
	if len(window) < 2 {
		return word
	}

	subject := window[len(window)-2].Word
	if !s.rules.InCategory(subject, Subject) {
		return word
	}

	var rest string
	switch {
	case strings.HasPrefix(word, "IS"):
		rest = word[len("IS"):]
	case strings.HasPrefix(word, "ARE"):
		rest = word[len("ARE"):]
	default:
		return word
	}

	return verbFor(subject) + rest
}

func verbFor(subject string) string {
	switch subject {
	case "I":
		return "AM"
	case "YOU", "WE", "THEY":
		return "ARE"
	default:
		return "IS"
	}
}

func (s *Smoother) computeBonus() float64 {
	words := s.history.Snapshot()
	if len(words) < 2 {
		return 0
	}

	valid := 0
	pairs := len(words) - 1
	for i := 0; i < pairs; i++ {
		if s.rules.ValidPair(words[i].Word, words[i+1].Word) {
			valid++
		}
	}

	return math.Min(MaxBonus, float64(valid)/float64(pairs)*MaxBonus)
}

// History returns a snapshot of the recent words, oldest first.
func (s *Smoother) History() []WordInfo {
	return s.history.Snapshot()
}

// Bonus returns the bonus computed by the most recent Smooth call.
func (s *Smoother) Bonus() float64 {
	return math.Float64frombits(s.bonus.Load())
}

// Rules returns the rule table in use.
func (s *Smoother) Rules() *Rules {
	return s.rules
}

// Reset clears the history and bonus.
func (s *Smoother) Reset() {
	s.history.Clear()
	s.bonus.Store(0)
}
