package api

import (
	"net/http"

	"github.com/ayusman/lsainterp/internal/sink"
)

// HistoryHandler serves the recent finalized results.
type HistoryHandler struct {
	history *sink.History
}

// NewHistoryHandler creates a handler over history.
func NewHistoryHandler(history *sink.History) *HistoryHandler {
	return &HistoryHandler{history: history}
}

type historyResponse struct {
	Entries []sink.Entry `json:"entries"`
}

// ServeHTTP handles GET and DELETE /api/history.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, historyResponse{Entries: h.history.Entries()})
	case http.MethodDelete:
		h.history.Clear()
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// Stats handles GET /api/stats.
func (h *HistoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, h.history.Stats())
}
