package halfsize

import (
	"bufio"
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/johnmcfarlane/HalfSize/tga"
)

const (
	thumbWidth  = 64
	thumbColors = 16
)

// thumbnail renders a small GIF preview of the TGA file at path by
// passing it through the converter until it is no wider than
// thumbWidth, then quantizing what is left.
func thumbnail(path string) ([]byte, error) {
	f, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(tga.HeaderLen)
	if err != nil {
		return nil, tga.FormatError("short header")
	}
	header, err := tga.ReadHeader(bytes.NewReader(head))
	if err != nil {
		return nil, err
	}

	// Each hop halves the image without ever buffering it whole
	var (
		r     io.Reader = br
		pipes []*io.PipeReader
	)
	defer func() {
		for _, p := range pipes {
			p.Close()
		}
	}()
	for w := int(header.Width); w > thumbWidth; w = (w + 1) >> 1 {
		pr, pw := io.Pipe()
		go func(src io.Reader, dst *io.PipeWriter) {
			dst.CloseWithError(Convert(src, dst))
		}(r, pw)
		r, pipes = pr, append(pipes, pr)
	}

	m, err := tga.Decode(r)
	if err != nil {
		return nil, err
	}

	q := quantize.MedianCutQuantizer{}
	p := q.Quantize(make(color.Palette, 0, thumbColors), m)

	pm := image.NewPaletted(m.Bounds(), p)
	draw.Draw(pm, m.Bounds(), m, m.Bounds().Min, draw.Src)

	b := new(bytes.Buffer)
	if err := gif.Encode(b, pm, nil); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
