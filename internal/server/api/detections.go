package api

import (
	"net/http"

	"github.com/ayusman/lsainterp/internal/store"
)

// maxDetections bounds the limit query parameter.
const maxDetections = 1000

// DetectionLister is the persistence used by DetectionsHandler.
type DetectionLister interface {
	List(limit int) ([]store.Detection, error)
	Count() (int, error)
}

// DetectionsHandler serves persisted detections.
type DetectionsHandler struct {
	repo DetectionLister
}

// NewDetectionsHandler creates a handler over repo.
func NewDetectionsHandler(repo DetectionLister) *DetectionsHandler {
	return &DetectionsHandler{repo: repo}
}

type detectionsResponse struct {
	Detections []store.Detection `json:"detections"`
	Total      int               `json:"total"`
}

// ServeHTTP handles GET /api/detections?limit=N.
func (h *DetectionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	limit, ok := intParam(r, "limit", store.DefaultListLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	if limit > maxDetections {
		limit = maxDetections
	}

	detections, err := h.repo.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list detections")
		return
	}
	total, err := h.repo.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count detections")
		return
	}

	writeJSON(w, http.StatusOK, detectionsResponse{Detections: detections, Total: total})
}
