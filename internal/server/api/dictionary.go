package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ayusman/lsainterp/internal/store"
)

// Lookup is the dictionary used by DictionaryHandler.
type Lookup interface {
	Search(query string) ([]store.Sign, error)
	Find(sign string) (*store.Sign, error)
}

// DictionaryHandler serves sign dictionary queries.
type DictionaryHandler struct {
	dict Lookup
}

// NewDictionaryHandler creates a handler over dict.
func NewDictionaryHandler(dict Lookup) *DictionaryHandler {
	return &DictionaryHandler{dict: dict}
}

type dictionaryResponse struct {
	Signs []store.Sign `json:"signs"`
}

// ServeHTTP routes /api/dictionary?q= and /api/dictionary/{sign}.
func (h *DictionaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/dictionary")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		h.search(w, r)
		return
	}

	sign, err := url.PathUnescape(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sign")
		return
	}
	h.find(w, sign)
}

func (h *DictionaryHandler) search(w http.ResponseWriter, r *http.Request) {
	signs, err := h.dict.Search(r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to search dictionary")
		return
	}
	writeJSON(w, http.StatusOK, dictionaryResponse{Signs: signs})
}

func (h *DictionaryHandler) find(w http.ResponseWriter, sign string) {
	entry, err := h.dict.Find(sign)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Sign not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to find sign")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
