package image

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	DefaultMaxJPEGScan     = 16 << 20
	DefaultMaxJPEGSegments = 4096
)

// Extractor reads dimensions from format headers. The JPEG limits bound the
// marker scan; zero values fall back to the defaults.
type Extractor struct {
	MaxJPEGScan     int64
	MaxJPEGSegments int
}

var DefaultExtractor = &Extractor{
	MaxJPEGScan:     DefaultMaxJPEGScan,
	MaxJPEGSegments: DefaultMaxJPEGSegments,
}

// Extract returns the dimensions stored in the header of src, or the zero
// Dimensions if they cannot be read.
func Extract(src io.ReadSeeker, f Format) Dimensions {
	return DefaultExtractor.Extract(src, f)
}

// ExtractErr is Extract with the failure reason.
func ExtractErr(src io.ReadSeeker, f Format) (Dimensions, error) {
	return DefaultExtractor.ExtractErr(src, f)
}

func (e *Extractor) Extract(src io.ReadSeeker, f Format) Dimensions {
	d, _ := e.ExtractErr(src, f)
	return d
}

func (e *Extractor) ExtractErr(src io.ReadSeeker, f Format) (Dimensions, error) {
	switch f {
	case FormatPNG:
		return decodePNG(src)
	case FormatBMP:
		return decodeBMP(src)
	case FormatWebP:
		return decodeWebP(src)
	case FormatGIF:
		return decodeGIF(src)
	case FormatTIFFLittle:
		return decodeTIFF(src, binary.LittleEndian)
	case FormatTIFFBig:
		return decodeTIFF(src, binary.BigEndian)
	case FormatJPEG:
		return e.scanJPEG(src)
	default:
		return Dimensions{}, ErrUnknownFormat
	}
}

// readAt fills buf from the absolute offset off.
func readAt(src io.ReadSeeker, off int64, buf []byte) error {
	if _, err := src.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("seek %#x: %w", off, ErrShortRead)
	}
	if _, err := io.ReadFull(src, buf); err != nil {
		return fmt.Errorf("read %d bytes at %#x: %w", len(buf), off, ErrShortRead)
	}
	return nil
}

// IHDR width and height follow the 8-byte signature and the chunk
// length/type words.
func decodePNG(src io.ReadSeeker) (Dimensions, error) {
	var b [8]byte
	if err := readAt(src, 0x10, b[:]); err != nil {
		return Dimensions{}, err
	}
	return Dimensions{
		Width:  int(binary.BigEndian.Uint32(b[0:4])),
		Height: int(binary.BigEndian.Uint32(b[4:8])),
	}, nil
}

// BITMAPINFOHEADER biWidth/biHeight, read as unsigned.
func decodeBMP(src io.ReadSeeker) (Dimensions, error) {
	var b [8]byte
	if err := readAt(src, 0x12, b[:]); err != nil {
		return Dimensions{}, err
	}
	return Dimensions{
		Width:  int(binary.LittleEndian.Uint32(b[0:4])),
		Height: int(binary.LittleEndian.Uint32(b[4:8])),
	}, nil
}

// VP8 key frame: 16-bit width/height after the start code.
func decodeWebP(src io.ReadSeeker) (Dimensions, error) {
	var b [4]byte
	if err := readAt(src, 0x1A, b[:]); err != nil {
		return Dimensions{}, err
	}
	return Dimensions{
		Width:  int(binary.LittleEndian.Uint16(b[0:2])),
		Height: int(binary.LittleEndian.Uint16(b[2:4])),
	}, nil
}

// Logical screen descriptor.
func decodeGIF(src io.ReadSeeker) (Dimensions, error) {
	var b [4]byte
	if err := readAt(src, 0x06, b[:]); err != nil {
		return Dimensions{}, err
	}
	return Dimensions{
		Width:  int(binary.LittleEndian.Uint16(b[0:2])),
		Height: int(binary.LittleEndian.Uint16(b[2:4])),
	}, nil
}

// Fixed positions of the ImageWidth and ImageLength values when the first
// IFD sits at offset 8 and opens with NewSubfileType. SHORT values are
// left-justified in the value field for both byte orders.
func decodeTIFF(src io.ReadSeeker, order binary.ByteOrder) (Dimensions, error) {
	var w, h [4]byte
	if err := readAt(src, 0x1E, w[:]); err != nil {
		return Dimensions{}, err
	}
	if err := readAt(src, 0x2A, h[:]); err != nil {
		return Dimensions{}, err
	}
	return Dimensions{
		Width:  int(order.Uint16(w[0:2])),
		Height: int(order.Uint16(h[0:2])),
	}, nil
}
