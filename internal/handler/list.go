package handler

import (
	"net/http"

	"imghead/internal/storage"
)

type ListHandler struct {
	db *storage.DB
}

func NewListHandler(db *storage.DB) *ListHandler {
	return &ListHandler{db: db}
}

type ListResponse struct {
	Items  []*storage.Measurement `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := queryInt(r, "limit", 100, 1000)
	offset := queryInt(r, "offset", 0, 0)

	items, total, err := h.db.ListMeasurements(limit, offset)
	if err != nil {
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*storage.Measurement{}
	}

	writeJSON(w, http.StatusOK, ListResponse{Items: items, Total: total, Limit: limit, Offset: offset})
}

// Health reports service status and cached measurements per format.
func Health(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := db.CountByFormat()
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"formats": counts,
		})
	}
}
