/*
Package tga implements encoding and decoding of uncompressed TGA images.

A TGA file starts with an 18 byte little-endian header, followed by an
optional image ID of up to 255 bytes, the color map if the file carries
one, and then the pixel data. Grayscale images store one or two bytes
per pixel, true-color images store three or four bytes per pixel in
blue, green, red, attribute order. Bit 5 of the descriptor selects
between the default bottom-up row order and top-down.

Only uncompressed, unmapped images are handled; run-length encoded and
color-mapped files are rejected with UnsupportedError.
*/
package tga

import "fmt"

// HeaderLen is the size of the fixed TGA header.
const HeaderLen = 18

// ColorMapNone marks a file without a color map.
const ColorMapNone uint8 = 0

// ImageType identifies the pixel encoding of a TGA file.
type ImageType uint8

// Image types understood by this package.
const (
	TypeTrueColor ImageType = 2
	TypeGrayscale ImageType = 3
)

func (t ImageType) String() string {
	switch t {
	case TypeTrueColor:
		return "true-color"
	case TypeGrayscale:
		return "grayscale"
	}
	return fmt.Sprintf("type %d", uint8(t))
}

// Descriptor bit layout: four attribute bits, one reserved bit, the
// vertical direction bit and two interleave bits.
const (
	attributeMask  = 0x0f
	reservedMask   = 0x10
	directionMask  = 0x20
	interleaveMask = 0xc0
)

// FormatError reports that the input is not a valid TGA file.
type FormatError string

func (e FormatError) Error() string { return "tga: invalid format: " + string(e) }

// UnsupportedError reports a valid TGA feature this package does not
// handle.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "tga: unsupported: " + string(e) }
