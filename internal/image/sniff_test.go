package image

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSniff_TableDriven(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"JPEG", pad([]byte{0xFF, 0xD8, 0xFF, 0xE0}, 20), FormatJPEG},
		{"PNG", pngHeader(1, 1), FormatPNG},
		{"WebP", webpHeader(1, 1), FormatWebP},
		{"BMP", bmpHeader(1, 1), FormatBMP},
		{"GIF87a", pad([]byte("GIF87a"), 20), FormatGIF},
		{"GIF89a", gifHeader(1, 1), FormatGIF},
		{"TIFF little-endian", tiffHeader(binary.LittleEndian, 1, 1), FormatTIFFLittle},
		{"TIFF big-endian", tiffHeader(binary.BigEndian, 1, 1), FormatTIFFBig},
		{"zeros", make([]byte, 20), FormatUnknown},
		{"RIFF WAVE", pad([]byte("RIFF\x00\x00\x00\x00WAVE"), 20), FormatUnknown},
		{"EXE", pad([]byte{0x4D, 0x5A, 0x90, 0x00}, 20), FormatUnknown},
		{"TIFF wrong order mark", pad([]byte{0x49, 0x49, 0x00, 0x2A}, 20), FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sniff(tt.data))
			assert.Equal(t, tt.want, Classify(bytes.NewReader(tt.data)))
		})
	}
}

func TestSniff_SingleByteFlip(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		magic []int
	}{
		{"JPEG", pad([]byte{0xFF, 0xD8, 0xFF}, 12), []int{0, 1, 2}},
		{"PNG", pngHeader(1, 1), []int{0, 1, 2, 3, 4, 5, 6, 7}},
		{"WebP", webpHeader(1, 1), []int{0, 1, 2, 3, 8, 9, 10, 11}},
		{"BMP", bmpHeader(1, 1), []int{0, 1}},
		{"GIF", gifHeader(1, 1), []int{0, 1, 2}},
		{"TIFF-LE", tiffHeader(binary.LittleEndian, 1, 1), []int{0, 1, 2, 3}},
		{"TIFF-BE", tiffHeader(binary.BigEndian, 1, 1), []int{0, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := Sniff(tt.data)
			for _, i := range tt.magic {
				mutated := append([]byte(nil), tt.data...)
				mutated[i] ^= 0x01
				got := Sniff(mutated)
				assert.NotEqual(t, orig, got, "flip at %d", i)
				if got != FormatUnknown {
					// Only allowed if the mutation happens to spell another
					// format's real signature.
					assert.True(t, signatureOf(got)(mutated), "flip at %d gave %s", i, got)
				}
			}
		})
	}
}

func signatureOf(f Format) func([]byte) bool {
	for _, sig := range signatures {
		if sig.format == f {
			return sig.match
		}
	}
	return func([]byte) bool { return false }
}

func TestSniff_ShortInput(t *testing.T) {
	full := pngHeader(1, 1)
	for n := 0; n < SniffLen; n++ {
		assert.Equal(t, FormatUnknown, Sniff(full[:n]), "len %d", n)
		assert.Equal(t, FormatUnknown, Classify(bytes.NewReader(full[:n])), "len %d", n)
	}

	jpeg := []byte{0xFF, 0xD8, 0xFF}
	assert.Equal(t, FormatUnknown, Classify(bytes.NewReader(jpeg)))
}

func TestClassify_IgnoresPriorPosition(t *testing.T) {
	r := bytes.NewReader(gifHeader(10, 20))
	_, err := r.Seek(7, 0)
	assert.NoError(t, err)

	assert.Equal(t, FormatGIF, Classify(r))
	pos, err := r.Seek(0, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(SniffLen), pos)
}

func TestFormat_Strings(t *testing.T) {
	for f := FormatUnknown; f <= FormatTIFFBig; f++ {
		assert.Equal(t, f, ParseFormat(f.String()))
	}
	assert.Equal(t, "tiff-le", FormatTIFFLittle.String())
	assert.Equal(t, "image/tiff", FormatTIFFBig.MimeType())
	assert.Equal(t, "", FormatUnknown.MimeType())
	assert.Equal(t, FormatUnknown, ParseFormat("heic"))
	assert.Equal(t, "unknown", Format(99).String())
}
