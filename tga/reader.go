package tga

import (
	"bufio"
	"image"
	"image/color"
	"io"
)

type decoder struct {
	r *bufio.Reader

	header   Header
	channels int
}

func (d *decoder) readHeader() error {
	var err error
	if d.header, err = ReadHeader(d.r); err != nil {
		return err
	}
	if err := d.header.Validate(); err != nil {
		return err
	}
	if d.channels, err = d.header.Channels(); err != nil {
		return err
	}

	if _, err := d.r.Discard(int(d.header.IDLength)); err != nil {
		return FormatError("short image id")
	}

	return nil
}

func (d *decoder) config() image.Config {
	c := image.Config{
		Width:  int(d.header.Width),
		Height: int(d.header.Height),
	}
	switch d.channels {
	case 1:
		c.ColorModel = color.GrayModel
	case 3:
		c.ColorModel = color.RGBAModel
	default:
		c.ColorModel = color.NRGBAModel
	}
	return c
}

func (d *decoder) decode() (image.Image, error) {
	width, height := int(d.header.Width), int(d.header.Height)
	row := make([]byte, width*d.channels)

	// Rows are stored bottom-up unless the direction bit says otherwise
	y0, y1, yDelta := height-1, -1, -1
	if d.header.TopDown() {
		y0, y1, yDelta = 0, height, +1
	}

	// Attribute bytes only carry alpha when the header declares them
	opaque := d.header.AttributeBits() == 0

	rect := image.Rect(0, 0, width, height)

	switch d.channels {
	case 1:
		m := image.NewGray(rect)
		for y := y0; y != y1; y += yDelta {
			if err := d.readRow(row); err != nil {
				return nil, err
			}
			copy(m.Pix[y*m.Stride:], row)
		}
		return m, nil

	case 2:
		m := image.NewNRGBA(rect)
		for y := y0; y != y1; y += yDelta {
			if err := d.readRow(row); err != nil {
				return nil, err
			}
			for x := 0; x < width; x++ {
				a := row[2*x+1]
				if opaque {
					a = 0xff
				}
				p := m.Pix[y*m.Stride+4*x:]
				p[0], p[1], p[2], p[3] = row[2*x], row[2*x], row[2*x], a
			}
		}
		return m, nil

	case 3:
		m := image.NewRGBA(rect)
		for y := y0; y != y1; y += yDelta {
			if err := d.readRow(row); err != nil {
				return nil, err
			}
			// Pixels are stored blue, green, red
			for x := 0; x < width; x++ {
				p := m.Pix[y*m.Stride+4*x:]
				p[0], p[1], p[2], p[3] = row[3*x+2], row[3*x+1], row[3*x], 0xff
			}
		}
		return m, nil

	default:
		m := image.NewNRGBA(rect)
		for y := y0; y != y1; y += yDelta {
			if err := d.readRow(row); err != nil {
				return nil, err
			}
			for x := 0; x < width; x++ {
				a := row[4*x+3]
				if opaque {
					a = 0xff
				}
				p := m.Pix[y*m.Stride+4*x:]
				p[0], p[1], p[2], p[3] = row[4*x+2], row[4*x+1], row[4*x], a
			}
		}
		return m, nil
	}
}

func (d *decoder) readRow(row []byte) error {
	if _, err := io.ReadFull(d.r, row); err != nil {
		return FormatError("short pixel data")
	}
	return nil
}

// Decode reads a TGA image from reader r and returns it as an
// image.Image.
func Decode(r io.Reader) (image.Image, error) {
	d := decoder{r: bufio.NewReader(r)}
	if err := d.readHeader(); err != nil {
		return nil, err
	}
	return d.decode()
}

// DecodeConfig returns the color model and dimensions of a TGA image
// without decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	d := decoder{r: bufio.NewReader(r)}
	if err := d.readHeader(); err != nil {
		return image.Config{}, err
	}
	return d.config(), nil
}
