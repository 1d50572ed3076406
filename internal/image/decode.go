package image

import (
	"fmt"

	"github.com/h2non/bimg"
)

// DecodedSize asks libvips for the real size of data. It is much more
// expensive than Probe and is only used to cross-check header values.
func DecodedSize(data []byte) (Dimensions, error) {
	size, err := bimg.NewImage(data).Size()
	if err != nil {
		return Dimensions{}, fmt.Errorf("get size: %w", err)
	}
	return Dimensions{Width: size.Width, Height: size.Height}, nil
}

// Verification is a header probe paired with a full decode.
type Verification struct {
	Header   Dimensions
	Decoded  Dimensions
	Mismatch bool
}

// Verify decodes data and compares the result with header. The decoded size
// is reported even when header is the zero value.
func Verify(data []byte, header Dimensions) (Verification, error) {
	decoded, err := DecodedSize(data)
	if err != nil {
		return Verification{Header: header}, err
	}
	return Verification{
		Header:   header,
		Decoded:  decoded,
		Mismatch: header != decoded,
	}, nil
}
