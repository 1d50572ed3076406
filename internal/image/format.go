package image

// Format identifies an image container by its leading signature bytes.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatBMP
	FormatWebP
	FormatGIF
	FormatTIFFLittle
	FormatTIFFBig
)

var formatNames = map[Format]string{
	FormatUnknown:    "unknown",
	FormatJPEG:       "jpeg",
	FormatPNG:        "png",
	FormatBMP:        "bmp",
	FormatWebP:       "webp",
	FormatGIF:        "gif",
	FormatTIFFLittle: "tiff-le",
	FormatTIFFBig:    "tiff-be",
}

var formatMimeTypes = map[Format]string{
	FormatJPEG:       "image/jpeg",
	FormatPNG:        "image/png",
	FormatBMP:        "image/bmp",
	FormatWebP:       "image/webp",
	FormatGIF:        "image/gif",
	FormatTIFFLittle: "image/tiff",
	FormatTIFFBig:    "image/tiff",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return formatNames[FormatUnknown]
}

// MimeType returns the media type for f, or "" for FormatUnknown.
func (f Format) MimeType() string {
	return formatMimeTypes[f]
}

// ParseFormat maps a name produced by String back to its Format.
func ParseFormat(name string) Format {
	for f, n := range formatNames {
		if n == name {
			return f
		}
	}
	return FormatUnknown
}

// Dimensions is a width/height pair in pixels. The zero value means the
// size could not be determined.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (d Dimensions) IsZero() bool {
	return d.Width == 0 && d.Height == 0
}
