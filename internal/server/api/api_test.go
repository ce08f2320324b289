package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/lsainterp/internal/dictionary"
	"github.com/ayusman/lsainterp/internal/fusion"
	"github.com/ayusman/lsainterp/internal/grammar"
	"github.com/ayusman/lsainterp/internal/logging"
	"github.com/ayusman/lsainterp/internal/sink"
	"github.com/ayusman/lsainterp/internal/store"
)

// newTestStore creates a temporary store for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", got)
	}
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHistoryHandler(t *testing.T) {
	history := sink.NewHistory(10)
	history.Add(fusion.Result{Sign: "1_NEUTRAL", Confidence: 0.7})
	history.Add(fusion.Result{Sign: "3_POSITIVE", Confidence: 0.9})
	h := NewHistoryHandler(history)

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp historyResponse
		decode(t, rec, &resp)
		if len(resp.Entries) != 2 || resp.Entries[0].Sign != "3_POSITIVE" {
			t.Errorf("entries = %+v", resp.Entries)
		}
	})

	t.Run("stats", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

		var stats sink.Stats
		decode(t, rec, &stats)
		if stats.Total != 2 {
			t.Errorf("total = %d, want 2", stats.Total)
		}
		if d := stats.AverageConfidence - 0.8; d > 1e-9 || d < -1e-9 {
			t.Errorf("averageConfidence = %v, want 0.8", stats.AverageConfidence)
		}
	})

	t.Run("stats rejects POST", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Stats(rec, httptest.NewRequest(http.MethodPost, "/api/stats", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})

	t.Run("rejects PUT", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/history", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})

	t.Run("delete clears", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/history", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
		}
		if n := len(history.Entries()); n != 0 {
			t.Errorf("entries after delete = %d, want 0", n)
		}
	})
}

func TestGrammarHandler(t *testing.T) {
	smoother := grammar.NewSmoother(nil, nil)
	smoother.Smooth(fusion.Result{Sign: "YOU", Confidence: 0.8})
	smoother.Smooth(fusion.Result{Sign: "GO", Confidence: 0.8})
	h := NewGrammarHandler(smoother)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/grammar", nil))

	var resp grammarResponse
	decode(t, rec, &resp)

	if len(resp.History) != 2 || resp.History[1].Word != "GO" {
		t.Errorf("history = %+v", resp.History)
	}
	if resp.Capacity != grammar.HistorySize {
		t.Errorf("capacity = %d, want %d", resp.Capacity, grammar.HistorySize)
	}
	if d := resp.Bonus - 0.1; d > 1e-9 || d < -1e-9 {
		t.Errorf("bonus = %v, want 0.1", resp.Bonus)
	}
	if len(resp.Rules["SUBJECT"]) == 0 || len(resp.Rules["VERB"]) == 0 || len(resp.Rules["OBJECT"]) == 0 {
		t.Errorf("rules = %+v", resp.Rules)
	}
}

func TestErrorsHandler(t *testing.T) {
	errLog := logging.NewErrorLog(10)
	logger, err := logging.NewLogger(logging.Options{Level: "error"}, errLog)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Named("grammar").Error("smoothing failed")
	h := NewErrorsHandler(errLog)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/errors", nil))

	var resp errorsResponse
	decode(t, rec, &resp)
	if len(resp.Errors) != 1 || resp.Errors[0].Message != "smoothing failed" {
		t.Fatalf("errors = %+v", resp.Errors)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/errors", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if n := len(errLog.Recent()); n != 0 {
		t.Errorf("errors after delete = %d, want 0", n)
	}
}

func TestDetectionsHandler(t *testing.T) {
	s := newTestStore(t)
	repo := s.Detections()
	for i := 0; i < 3; i++ {
		if err := repo.Create(&store.Detection{Sign: "2_POSITIVE", Confidence: 0.75}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	h := NewDetectionsHandler(repo)

	tests := []struct {
		name   string
		query  string
		status int
		count  int
	}{
		{"default limit", "", http.StatusOK, 3},
		{"explicit limit", "?limit=2", http.StatusOK, 2},
		{"limit clamped", "?limit=5000", http.StatusOK, 3},
		{"zero limit", "?limit=0", http.StatusBadRequest, 0},
		{"non numeric", "?limit=ten", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/detections"+tt.query, nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				var e errorResponse
				decode(t, rec, &e)
				if e.Error == "" {
					t.Error("expected error message")
				}
				return
			}
			var resp detectionsResponse
			decode(t, rec, &resp)
			if len(resp.Detections) != tt.count {
				t.Errorf("len(detections) = %d, want %d", len(resp.Detections), tt.count)
			}
			if resp.Total != 3 {
				t.Errorf("total = %d, want 3", resp.Total)
			}
		})
	}
}

type brokenLister struct{}

func (brokenLister) List(int) ([]store.Detection, error) { return nil, errors.New("db gone") }
func (brokenLister) Count() (int, error)                 { return 0, nil }

func TestDetectionsHandler_StoreError(t *testing.T) {
	h := NewDetectionsHandler(brokenLister{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/detections", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestDictionaryHandler(t *testing.T) {
	s := newTestStore(t)
	dict := dictionary.New(s.Signs(), nil)
	if err := dict.LoadBuiltin(); err != nil {
		t.Fatalf("LoadBuiltin() error = %v", err)
	}
	h := NewDictionaryHandler(dict)

	t.Run("search by tag", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dictionary?q=NUMERO", nil))

		var resp dictionaryResponse
		decode(t, rec, &resp)
		if len(resp.Signs) != 5 {
			t.Errorf("len(signs) = %d, want 5", len(resp.Signs))
		}
	})

	t.Run("empty query lists everything", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dictionary", nil))

		var resp dictionaryResponse
		decode(t, rec, &resp)
		if len(resp.Signs) != 22 {
			t.Errorf("len(signs) = %d, want 22", len(resp.Signs))
		}
	})

	t.Run("find is case insensitive", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dictionary/gracias", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var sign store.Sign
		decode(t, rec, &sign)
		if sign.Sign != "GRACIAS" || sign.VideoURL == "" {
			t.Errorf("sign = %+v", sign)
		}
	})

	t.Run("escaped path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dictionary/por%5Ffavor", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("unknown sign", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dictionary/DESCONOCIDO", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
		var e errorResponse
		decode(t, rec, &e)
		if e.Error != "Sign not found" {
			t.Errorf("error = %q", e.Error)
		}
	})

	t.Run("rejects POST", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dictionary", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})
}
