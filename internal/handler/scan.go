package handler

import (
	"errors"
	"net/http"

	"imghead/internal/logging"
	"imghead/internal/scan"
	"imghead/internal/storage"
)

type ScanHandler struct {
	db      *storage.DB
	scanner *scan.Scanner
}

func NewScanHandler(db *storage.DB, scanner *scan.Scanner) *ScanHandler {
	return &ScanHandler{db: db, scanner: scanner}
}

// ServeHTTP runs a scan on POST and reports a run on GET (?id=, or the
// latest run when id is empty).
func (h *ScanHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		run, err := h.scanner.Run(r.Context())
		if errors.Is(err, scan.ErrScanInProgress) {
			jsonError(w, "scan already in progress", http.StatusConflict)
			return
		}
		if err != nil {
			logging.Get("scan").Printf("scan request: %v", err)
			if run == nil {
				jsonError(w, "scan failed", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusInternalServerError, run)
			return
		}
		writeJSON(w, http.StatusOK, run)

	case http.MethodGet:
		var run *storage.ScanRun
		var err error
		if id := r.URL.Query().Get("id"); id != "" {
			run, err = h.db.GetScanRun(id)
		} else {
			run, err = h.db.LatestScanRun()
		}
		if err != nil {
			jsonError(w, "database error", http.StatusInternalServerError)
			return
		}
		if run == nil {
			jsonError(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, run)

	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
