package api

import (
	"net/http"

	"github.com/ayusman/lsainterp/internal/logging"
)

// ErrorsHandler serves the bounded error log.
type ErrorsHandler struct {
	log *logging.ErrorLog
}

// NewErrorsHandler creates a handler over log.
func NewErrorsHandler(log *logging.ErrorLog) *ErrorsHandler {
	return &ErrorsHandler{log: log}
}

type errorsResponse struct {
	Errors []logging.ErrorEntry `json:"errors"`
}

// ServeHTTP handles GET and DELETE /api/errors.
func (h *ErrorsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, errorsResponse{Errors: h.log.Recent()})
	case http.MethodDelete:
		h.log.Clear()
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}
