package image

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	markerPrefix = 0xFF
	markerSOF0   = 0xC0
	markerSOF1   = 0xC1
	markerSOF2   = 0xC2

	// marker, length, precision, height, width
	sofWindow = 9
)

func isSOF(marker byte) bool {
	return marker == markerSOF0 || marker == markerSOF1 || marker == markerSOF2
}

// scanJPEG walks marker segments from just after SOI until it meets a
// start-of-frame header. Each step moves the cursor forward by at least two
// bytes, and the walk stops at end of stream or at the configured limits.
func (e *Extractor) scanJPEG(src io.ReadSeeker) (Dimensions, error) {
	maxScan := e.MaxJPEGScan
	if maxScan <= 0 {
		maxScan = DefaultMaxJPEGScan
	}
	maxSegments := e.MaxJPEGSegments
	if maxSegments <= 0 {
		maxSegments = DefaultMaxJPEGSegments
	}

	var w [sofWindow]byte
	pos := int64(2)
	for seg := 0; seg < maxSegments && pos <= maxScan; seg++ {
		if err := readAt(src, pos, w[:]); err != nil {
			return Dimensions{}, fmt.Errorf("segment %d at %#x: %w", seg, pos, ErrFrameNotFound)
		}
		if w[0] == markerPrefix && isSOF(w[1]) {
			return Dimensions{
				Height: int(binary.BigEndian.Uint16(w[5:7])),
				Width:  int(binary.BigEndian.Uint16(w[7:9])),
			}, nil
		}
		pos += int64(binary.BigEndian.Uint16(w[2:4])) + 2
	}
	return Dimensions{}, fmt.Errorf("gave up at %#x: %w", pos, ErrFrameNotFound)
}
