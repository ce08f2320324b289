package api

import (
	"net/http"

	"github.com/ayusman/lsainterp/internal/grammar"
)

// GrammarHandler exposes the smoother's recent history.
type GrammarHandler struct {
	smoother *grammar.Smoother
}

// NewGrammarHandler creates a handler over smoother.
func NewGrammarHandler(smoother *grammar.Smoother) *GrammarHandler {
	return &GrammarHandler{smoother: smoother}
}

type grammarResponse struct {
	History  []grammar.WordInfo  `json:"history"`
	Capacity int                 `json:"capacity"`
	Bonus    float64             `json:"bonus"`
	Rules    map[string][]string `json:"rules"`
}

// ServeHTTP handles GET /api/grammar.
func (h *GrammarHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	rules := h.smoother.Rules()
	writeJSON(w, http.StatusOK, grammarResponse{
		History:  h.smoother.History(),
		Capacity: grammar.HistorySize,
		Bonus:    h.smoother.Bonus(),
		Rules: map[string][]string{
			string(grammar.Subject): rules.Members(grammar.Subject),
			string(grammar.Verb):    rules.Members(grammar.Verb),
			string(grammar.Object):  rules.Members(grammar.Object),
		},
	})
}
