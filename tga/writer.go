package tga

import (
	"errors"
	"image"
	"image/color"
	"io"
)

var (
	errEmpty    = errors.New("tga: empty image")
	errTooLarge = errors.New("tga: image dimensions exceed 65535")
)

type encoder struct {
	w io.Writer
}

func (e *encoder) gray(m *image.Gray) error {
	b := m.Bounds()

	h := Header{
		ImageType:  TypeGrayscale,
		Width:      uint16(b.Dx()),
		Height:     uint16(b.Dy()),
		PixelDepth: 8,
		Descriptor: directionMask,
	}
	if err := WriteHeader(e.w, h); err != nil {
		return err
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := m.PixOffset(b.Min.X, y)
		if _, err := e.w.Write(m.Pix[i : i+b.Dx()]); err != nil {
			return err
		}
	}

	return nil
}

func (e *encoder) trueColor(m image.Image) error {
	b := m.Bounds()

	h := Header{
		ImageType:  TypeTrueColor,
		Width:      uint16(b.Dx()),
		Height:     uint16(b.Dy()),
		PixelDepth: 32,
		Descriptor: directionMask | 8,
	}
	if err := WriteHeader(e.w, h); err != nil {
		return err
	}

	row := make([]byte, b.Dx()*4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			i := (x - b.Min.X) * 4
			row[i], row[i+1], row[i+2], row[i+3] = c.B, c.G, c.R, c.A
		}
		if _, err := e.w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

// Encode writes the image m to w as an uncompressed TGA image.
// *image.Gray is written as 8 bit grayscale, anything else as 32 bit
// true-color. Rows are written top-down with the direction bit set.
func Encode(w io.Writer, m image.Image) error {
	b := m.Bounds()
	if b.Empty() {
		return errEmpty
	}
	if b.Dx() > 0xffff || b.Dy() > 0xffff {
		return errTooLarge
	}

	e := encoder{w: w}

	if g, ok := m.(*image.Gray); ok {
		return e.gray(g)
	}
	return e.trueColor(m)
}
