package image

import (
	"encoding/binary"
)

func pad(b []byte, n int) []byte {
	if len(b) >= n {
		return b
	}
	return append(b, make([]byte, n-len(b))...)
}

func pngHeader(w, h uint32) []byte {
	b := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	b = binary.BigEndian.AppendUint32(b, 13)
	b = append(b, "IHDR"...)
	b = binary.BigEndian.AppendUint32(b, w)
	b = binary.BigEndian.AppendUint32(b, h)
	return pad(b, 33)
}

func bmpHeader(w, h uint32) []byte {
	b := pad([]byte("BM"), 0x12)
	b = binary.LittleEndian.AppendUint32(b, w)
	b = binary.LittleEndian.AppendUint32(b, h)
	return pad(b, 54)
}

func webpHeader(w, h uint16) []byte {
	b := []byte("RIFF")
	b = binary.LittleEndian.AppendUint32(b, 22)
	b = append(b, "WEBPVP8 "...)
	b = binary.LittleEndian.AppendUint32(b, 10)
	b = append(b, 0x30, 0x01, 0x00, 0x9D, 0x01, 0x2A)
	b = binary.LittleEndian.AppendUint16(b, w)
	b = binary.LittleEndian.AppendUint16(b, h)
	return b
}

func gifHeader(w, h uint16) []byte {
	b := []byte("GIF89a")
	b = binary.LittleEndian.AppendUint16(b, w)
	b = binary.LittleEndian.AppendUint16(b, h)
	return pad(b, 13)
}

// tiffHeader lays out an IFD at offset 8 with NewSubfileType, ImageWidth
// and ImageLength entries.
func tiffHeader(order binary.AppendByteOrder, w, h uint16) []byte {
	var b []byte
	if order == binary.LittleEndian {
		b = []byte{0x49, 0x49, 0x2A, 0x00}
	} else {
		b = []byte{0x4D, 0x4D, 0x00, 0x2A}
	}
	b = order.AppendUint32(b, 8)
	b = order.AppendUint16(b, 3)
	entry := func(tag, typ uint16, value []byte) {
		b = order.AppendUint16(b, tag)
		b = order.AppendUint16(b, typ)
		b = order.AppendUint32(b, 1)
		b = append(b, pad(value, 4)...)
	}
	entry(0x00FE, 4, order.AppendUint32(nil, 0))
	entry(0x0100, 3, order.AppendUint16(nil, w))
	entry(0x0101, 3, order.AppendUint16(nil, h))
	return order.AppendUint32(b, 0)
}

type jpegSegment struct {
	marker  byte
	payload int
}

// jpegStream builds SOI, the given segments with zero-filled payloads, and
// optionally a SOF0 segment for w x h.
func jpegStream(segments []jpegSegment, withSOF bool, w, h uint16) []byte {
	b := []byte{0xFF, 0xD8}
	for _, s := range segments {
		b = append(b, 0xFF, s.marker)
		b = binary.BigEndian.AppendUint16(b, uint16(s.payload+2))
		b = append(b, make([]byte, s.payload)...)
	}
	if withSOF {
		b = append(b, 0xFF, 0xC0)
		b = binary.BigEndian.AppendUint16(b, 17)
		b = append(b, 8)
		b = binary.BigEndian.AppendUint16(b, h)
		b = binary.BigEndian.AppendUint16(b, w)
		b = append(b, 3, 1, 0x22, 0, 2, 0x11, 1, 3, 0x11, 1)
	}
	return append(b, 0xFF, 0xD9)
}
