package image

import (
	"bytes"
	"io"
)

// SniffLen is the number of leading bytes Classify inspects.
const SniffLen = 12

type signature struct {
	format Format
	match  func(h []byte) bool
}

// Checked in order, first match wins.
var signatures = []signature{
	{FormatJPEG, prefix(0xFF, 0xD8, 0xFF)},
	{FormatPNG, prefix(0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A)},
	{FormatWebP, func(h []byte) bool {
		return bytes.HasPrefix(h, []byte("RIFF")) && len(h) >= 12 && bytes.Equal(h[8:12], []byte("WEBP"))
	}},
	{FormatBMP, prefix(0x42, 0x4D)},
	{FormatGIF, prefix(0x47, 0x49, 0x46)},
	{FormatTIFFLittle, prefix(0x49, 0x49, 0x2A, 0x00)},
	{FormatTIFFBig, prefix(0x4D, 0x4D, 0x00, 0x2A)},
}

func prefix(magic ...byte) func([]byte) bool {
	return func(h []byte) bool {
		return bytes.HasPrefix(h, magic)
	}
}

// Sniff classifies a header prefix. Anything shorter than SniffLen is
// FormatUnknown.
func Sniff(header []byte) Format {
	if len(header) < SniffLen {
		return FormatUnknown
	}
	for _, sig := range signatures {
		if sig.match(header) {
			return sig.format
		}
	}
	return FormatUnknown
}

// Classify seeks src to the start and sniffs its first SniffLen bytes.
// The read cursor is left after the bytes consumed; src is not closed.
func Classify(src io.ReadSeeker) Format {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return FormatUnknown
	}
	header := make([]byte, SniffLen)
	n, err := io.ReadFull(src, header)
	if err != nil {
		return FormatUnknown
	}
	return Sniff(header[:n])
}
