package tga

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Header is the fixed descriptor at the start of every TGA file.
// Multi-byte fields are little-endian on the wire.
type Header struct {
	IDLength      uint8
	ColorMapType  uint8
	ImageType     ImageType
	ColorMapFirst uint16
	ColorMapLen   uint16
	ColorMapBits  uint8
	XOrigin       uint16
	YOrigin       uint16
	Width         uint16
	Height        uint16
	PixelDepth    uint8
	Descriptor    uint8
}

// AttributeBits returns the width of the per-pixel attribute channel
// in bits.
func (h Header) AttributeBits() uint8 { return h.Descriptor & attributeMask }

// TopDown reports whether rows are stored top to bottom.
func (h Header) TopDown() bool { return h.Descriptor&directionMask != 0 }

// Interleave returns the two interleave bits of the descriptor.
func (h Header) Interleave() uint8 { return (h.Descriptor & interleaveMask) >> 6 }

// ReadHeader decodes the fixed header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var b [HeaderLen]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return Header{}, FormatError("short header")
	}

	return Header{
		IDLength:      b[0],
		ColorMapType:  b[1],
		ImageType:     ImageType(b[2]),
		ColorMapFirst: binary.LittleEndian.Uint16(b[3:]),
		ColorMapLen:   binary.LittleEndian.Uint16(b[5:]),
		ColorMapBits:  b[7],
		XOrigin:       binary.LittleEndian.Uint16(b[8:]),
		YOrigin:       binary.LittleEndian.Uint16(b[10:]),
		Width:         binary.LittleEndian.Uint16(b[12:]),
		Height:        binary.LittleEndian.Uint16(b[14:]),
		PixelDepth:    b[16],
		Descriptor:    b[17],
	}, nil
}

// WriteHeader encodes h and writes it to w.
func WriteHeader(w io.Writer, h Header) error {
	var b [HeaderLen]byte

	b[0] = h.IDLength
	b[1] = h.ColorMapType
	b[2] = uint8(h.ImageType)
	binary.LittleEndian.PutUint16(b[3:], h.ColorMapFirst)
	binary.LittleEndian.PutUint16(b[5:], h.ColorMapLen)
	b[7] = h.ColorMapBits
	binary.LittleEndian.PutUint16(b[8:], h.XOrigin)
	binary.LittleEndian.PutUint16(b[10:], h.YOrigin)
	binary.LittleEndian.PutUint16(b[12:], h.Width)
	binary.LittleEndian.PutUint16(b[14:], h.Height)
	b[16] = h.PixelDepth
	b[17] = h.Descriptor

	_, err := w.Write(b[:])
	return err
}

// Validate checks the header against the subset of TGA this package
// handles. Checks run in a fixed order and the first violation wins.
func (h Header) Validate() error {
	if h.ColorMapType != ColorMapNone {
		return UnsupportedError("color-mapped image")
	}
	if h.ColorMapFirst != 0 {
		return FormatError("color map entry offset without a color map")
	}
	if h.ColorMapLen != 0 {
		return FormatError("color map length without a color map")
	}
	if h.ColorMapBits != 0 {
		return FormatError("color map entry size without a color map")
	}
	if h.Width == 0 {
		return FormatError("zero width")
	}
	if h.Height == 0 {
		return FormatError("zero height")
	}
	if h.PixelDepth < 8 || h.PixelDepth > 32 || h.PixelDepth%8 != 0 {
		return UnsupportedError(fmt.Sprintf("%d bits per pixel", h.PixelDepth))
	}
	if bits := h.AttributeBits(); bits != 0 && bits != 8 {
		return UnsupportedError(fmt.Sprintf("%d attribute bits", bits))
	}
	if h.Descriptor&reservedMask != 0 {
		return FormatError("reserved descriptor bit set")
	}
	if h.Interleave() != 0 {
		return UnsupportedError("interleaved image")
	}
	return nil
}

// Channels returns the number of bytes per pixel after checking that
// the image type agrees with the pixel depth.
func (h Header) Channels() (int, error) {
	switch h.PixelDepth {
	case 8, 16:
		if h.ImageType != TypeGrayscale {
			return 0, UnsupportedError(fmt.Sprintf("%d bit %v image", h.PixelDepth, h.ImageType))
		}
	case 24, 32:
		if h.ImageType != TypeTrueColor {
			return 0, UnsupportedError(fmt.Sprintf("%d bit %v image", h.PixelDepth, h.ImageType))
		}
	default:
		return 0, UnsupportedError(fmt.Sprintf("%d bits per pixel", h.PixelDepth))
	}
	return int(h.PixelDepth) / 8, nil
}
