package image

import "errors"

var (
	ErrUnknownFormat = errors.New("unknown image format")
	ErrShortRead     = errors.New("short header read")
	ErrFrameNotFound = errors.New("jpeg frame header not found")
	ErrOpen          = errors.New("cannot open image")

	ErrInvalidFormat = errors.New("invalid image format")
	ErrFileTooLarge  = errors.New("file too large")
)

// Reason returns a short label for err suitable for metrics and the cache.
// nil maps to "ok".
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnknownFormat):
		return "unknown_format"
	case errors.Is(err, ErrShortRead):
		return "short_read"
	case errors.Is(err, ErrFrameNotFound):
		return "frame_not_found"
	case errors.Is(err, ErrOpen):
		return "open_failed"
	default:
		return "error"
	}
}
