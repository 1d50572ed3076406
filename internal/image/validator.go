package image

import (
	"io"
)

// ValidateAndDetect reads up to maxSize bytes from r and sniffs them.
func ValidateAndDetect(r io.Reader, maxSize int64) (Format, []byte, error) {
	// Read entire file with size limit
	limited := io.LimitReader(r, maxSize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return FormatUnknown, nil, err
	}
	if int64(len(data)) > maxSize {
		return FormatUnknown, nil, ErrFileTooLarge
	}

	format := Sniff(data)
	if format == FormatUnknown {
		return FormatUnknown, nil, ErrInvalidFormat
	}

	return format, data, nil
}
