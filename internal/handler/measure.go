package handler

import (
	"bytes"
	"errors"
	"net/http"
	"os"

	"imghead/internal/config"
	"imghead/internal/image"
	"imghead/internal/logging"
	"imghead/internal/metrics"
	"imghead/internal/scan"
	"imghead/internal/storage"
)

type MeasureHandler struct {
	cfg       *config.Config
	scanner   *scan.Scanner
	extractor *image.Extractor
	metrics   *metrics.Metrics
}

func NewMeasureHandler(cfg *config.Config, scanner *scan.Scanner, extractor *image.Extractor, m *metrics.Metrics) *MeasureHandler {
	if extractor == nil {
		extractor = image.DefaultExtractor
	}
	return &MeasureHandler{cfg: cfg, scanner: scanner, extractor: extractor, metrics: m}
}

type MeasureResponse struct {
	Name     string            `json:"name,omitempty"`
	Format   string            `json:"format"`
	MimeType string            `json:"mime_type,omitempty"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Source   string            `json:"source"`
	Decoded  *image.Dimensions `json:"decoded,omitempty"`
	Mismatch bool              `json:"mismatch,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func (h *MeasureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.upload(w, r)
	case http.MethodGet:
		h.lookup(w, r)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *MeasureHandler) upload(w http.ResponseWriter, r *http.Request) {
	maxSize := h.cfg.MaxUploadBytes()

	// Limit request body
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1024*1024)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "no file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	_, data, err := image.ValidateAndDetect(file, maxSize)
	if err != nil {
		switch {
		case errors.Is(err, image.ErrInvalidFormat):
			h.metrics.RecordMeasurement(image.FormatUnknown.String(), image.Reason(image.ErrUnknownFormat))
			jsonError(w, "invalid image format", http.StatusBadRequest)
		case errors.Is(err, image.ErrFileTooLarge):
			jsonError(w, "file too large", http.StatusRequestEntityTooLarge)
		default:
			jsonError(w, "validation error", http.StatusBadRequest)
		}
		return
	}

	format, d, probeErr := h.extractor.Probe(bytes.NewReader(data))
	h.metrics.RecordMeasurement(format.String(), image.Reason(probeErr))

	resp := MeasureResponse{
		Name:     header.Filename,
		Format:   format.String(),
		MimeType: format.MimeType(),
		Width:    d.Width,
		Height:   d.Height,
		Source:   "header",
	}

	if h.cfg.VerifyDecode || r.FormValue("verify") == "1" {
		v, err := image.Verify(data, d)
		if err != nil {
			logging.Get("measure").Printf("verify %q: %v", header.Filename, err)
		} else {
			resp.Decoded = &v.Decoded
			resp.Mismatch = v.Mismatch
			if probeErr != nil && !v.Decoded.IsZero() {
				resp.Width, resp.Height = v.Decoded.Width, v.Decoded.Height
				resp.Source = "decoded"
				probeErr = nil
			}
		}
	}

	if probeErr != nil {
		resp.Error = image.Reason(probeErr)
		logging.Get("measure").Print(logging.KV(map[string]any{
			"name":   header.Filename,
			"format": format,
			"result": resp.Error,
			"err":    probeErr,
		}))
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *MeasureHandler) lookup(w http.ResponseWriter, r *http.Request) {
	rel := r.URL.Query().Get("path")
	if rel == "" {
		jsonError(w, "path required", http.StatusBadRequest)
		return
	}

	m, err := h.scanner.Lookup(rel)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrOutsideRoot):
			jsonError(w, "invalid path", http.StatusBadRequest)
		case errors.Is(err, os.ErrNotExist):
			jsonError(w, "not found", http.StatusNotFound)
		default:
			logging.Get("measure").Printf("lookup %q: %v", rel, err)
			jsonError(w, "lookup failed", http.StatusInternalServerError)
		}
		return
	}

	if m.Error != "" {
		writeJSON(w, http.StatusUnprocessableEntity, m)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
