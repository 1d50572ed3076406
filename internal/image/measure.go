package image

import (
	"fmt"
	"io"
	"os"
)

// Probe classifies src and reads its dimensions. src is borrowed: it is
// repositioned but never closed. A non-nil error always comes with the zero
// Dimensions.
func Probe(src io.ReadSeeker) (Format, Dimensions, error) {
	return DefaultExtractor.Probe(src)
}

func (e *Extractor) Probe(src io.ReadSeeker) (Format, Dimensions, error) {
	f := Classify(src)
	if f == FormatUnknown {
		return f, Dimensions{}, ErrUnknownFormat
	}
	d, err := e.ExtractErr(src, f)
	if err != nil {
		return f, Dimensions{}, fmt.Errorf("%s: %w", f, err)
	}
	return f, d, nil
}

// MeasureFile opens path and probes it.
func MeasureFile(path string) (Format, Dimensions, error) {
	return DefaultExtractor.MeasureFile(path)
}

func (e *Extractor) MeasureFile(path string) (Format, Dimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return FormatUnknown, Dimensions{}, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	defer file.Close()

	return e.Probe(file)
}

// Measure returns the pixel dimensions of the image at path, or the zero
// Dimensions if the file cannot be opened, is not a recognized format, or
// its header is truncated.
func Measure(path string) Dimensions {
	_, d, _ := MeasureFile(path)
	return d
}

// MeasureInto stores the result of Measure in width and height.
func MeasureInto(path string, width, height *int) {
	d := Measure(path)
	*width = d.Width
	*height = d.Height
}
