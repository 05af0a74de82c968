package halfsize

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/johnmcfarlane/HalfSize/tga"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grayHeader(width, height int) tga.Header {
	return tga.Header{
		ImageType:  tga.TypeGrayscale,
		Width:      uint16(width),
		Height:     uint16(height),
		PixelDepth: 8,
	}
}

func trueColorHeader(width, height int, depth uint8) tga.Header {
	h := tga.Header{
		ImageType:  tga.TypeTrueColor,
		Width:      uint16(width),
		Height:     uint16(height),
		PixelDepth: depth,
	}
	if depth == 32 {
		h.Descriptor = 8
	}
	return h
}

func encodeTGA(t *testing.T, h tga.Header, id, pixels, trailer []byte) []byte {
	t.Helper()
	b := new(bytes.Buffer)
	require.NoError(t, tga.WriteHeader(b, h))
	b.Write(id)
	b.Write(pixels)
	b.Write(trailer)
	return b.Bytes()
}

func convertBytes(t *testing.T, in []byte) []byte {
	t.Helper()
	b := new(bytes.Buffer)
	require.NoError(t, Convert(bytes.NewReader(in), b))
	return b.Bytes()
}

func TestConvertAverages(t *testing.T) {
	in := encodeTGA(t, grayHeader(2, 2), nil, []byte{10, 20, 30, 40}, nil)
	out := convertBytes(t, in)

	h, err := tga.ReadHeader(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, uint16(1), h.Width)
	assert.Equal(t, uint16(1), h.Height)
	assert.Equal(t, []byte{25}, out[tga.HeaderLen:])
}

func TestConvertRounding(t *testing.T) {
	tests := []struct {
		name   string
		pixels []byte
		want   byte
	}{
		{"exact", []byte{10, 20, 30, 40}, 25},
		{"quarter down", []byte{1, 0, 0, 0}, 0},
		{"half up", []byte{1, 1, 0, 0}, 1},
		{"three quarters up", []byte{1, 2, 0, 0}, 1},
		{"sum 5", []byte{1, 1, 1, 2}, 1},
		{"sum 6", []byte{1, 1, 2, 2}, 2},
		{"zero", []byte{0, 0, 0, 0}, 0},
		{"uniform block", []byte{77, 77, 77, 77}, 77},
		{"saturated", []byte{255, 255, 255, 255}, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := encodeTGA(t, grayHeader(2, 2), nil, tt.pixels, nil)
			out := convertBytes(t, in)
			assert.Equal(t, []byte{tt.want}, out[tga.HeaderLen:])
		})
	}
}

func TestConvertChannelsIndependent(t *testing.T) {
	// 2x2 true-color pixels stay in blue, green, red, attribute order
	// and every channel averages on its own
	pixels := []byte{
		0, 4, 1, 255, 0, 4, 3, 0,
		0, 4, 5, 0, 4, 4, 7, 0,
	}
	in := encodeTGA(t, trueColorHeader(2, 2, 32), nil, pixels, nil)
	out := convertBytes(t, in)

	assert.Equal(t, []byte{1, 4, 4, 64}, out[tga.HeaderLen:])
}

func TestConvertOddWidth(t *testing.T) {
	// The rightmost column pairs with a copy of itself
	pixels := []byte{
		10, 20, 90,
		30, 40, 70,
	}
	in := encodeTGA(t, grayHeader(3, 2), nil, pixels, nil)
	out := convertBytes(t, in)

	h, err := tga.ReadHeader(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, uint16(2), h.Width)
	assert.Equal(t, uint16(1), h.Height)
	assert.Equal(t, []byte{25, 80}, out[tga.HeaderLen:])
}

func TestConvertOddHeight(t *testing.T) {
	// The bottom row pairs with a copy of itself
	pixels := []byte{
		10, 20,
		30, 40,
		100, 200,
	}
	in := encodeTGA(t, grayHeader(2, 3), nil, pixels, nil)
	out := convertBytes(t, in)

	h, err := tga.ReadHeader(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, uint16(1), h.Width)
	assert.Equal(t, uint16(2), h.Height)
	assert.Equal(t, []byte{25, 150}, out[tga.HeaderLen:])
}

func TestConvertSinglePixel(t *testing.T) {
	in := encodeTGA(t, grayHeader(1, 1), nil, []byte{7}, nil)
	out := convertBytes(t, in)

	h, err := tga.ReadHeader(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, uint16(1), h.Width)
	assert.Equal(t, uint16(1), h.Height)
	assert.Equal(t, []byte{7}, out[tga.HeaderLen:])
}

func TestConvertHeaderFields(t *testing.T) {
	header := grayHeader(5, 3)
	header.IDLength = 3
	header.XOrigin = 5
	header.YOrigin = 9
	header.Descriptor = 0x20

	pixels := []byte{
		1, 2, 3, 4, 5,
		6, 7, 8, 9, 10,
		11, 12, 13, 14, 15,
	}
	in := encodeTGA(t, header, []byte("abc"), pixels, nil)
	out := convertBytes(t, in)

	h, err := tga.ReadHeader(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, uint16(3), h.Width)   // rounds up
	assert.Equal(t, uint16(2), h.Height)  // rounds up
	assert.Equal(t, uint16(2), h.XOrigin) // rounds down
	assert.Equal(t, uint16(4), h.YOrigin) // rounds down
	assert.Equal(t, uint8(3), h.IDLength)
	assert.Equal(t, uint8(0x20), h.Descriptor)

	assert.Equal(t, []byte("abc"), out[tga.HeaderLen:tga.HeaderLen+3])
	assert.Equal(t, []byte{4, 6, 8, 12, 14, 15}, out[tga.HeaderLen+3:])
}

func TestConvertIDAndTrailer(t *testing.T) {
	header := grayHeader(2, 2)
	header.IDLength = 5

	trailer := []byte{0x00, 0xff, 0x01, 0x02}
	in := encodeTGA(t, header, []byte("ident"), []byte{10, 20, 30, 40}, trailer)
	out := convertBytes(t, in)

	// Nothing is appended beyond the trailer
	require.Len(t, out, tga.HeaderLen+5+1+len(trailer))
	assert.Equal(t, []byte("ident"), out[tga.HeaderLen:tga.HeaderLen+5])
	assert.Equal(t, byte(25), out[tga.HeaderLen+5])
	assert.Equal(t, trailer, out[tga.HeaderLen+6:])
}

func TestConvertMaxDimensions(t *testing.T) {
	// 65535 halves to 32768 without wrapping the 16 bit field
	header := grayHeader(65535, 1)
	pixels := make([]byte, 65535)
	in := encodeTGA(t, header, nil, pixels, nil)
	out := convertBytes(t, in)

	h, err := tga.ReadHeader(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, uint16(32768), h.Width)
	assert.Equal(t, uint16(1), h.Height)
	assert.Len(t, out, tga.HeaderLen+32768)
}

func TestConvertErrors(t *testing.T) {
	corrupt := func(f func(*tga.Header)) []byte {
		h := grayHeader(2, 2)
		f(&h)
		b := new(bytes.Buffer)
		if err := tga.WriteHeader(b, h); err != nil {
			t.Fatal(err)
		}
		b.Write([]byte{10, 20, 30, 40})
		return b.Bytes()
	}

	valid := encodeTGA(t, grayHeader(2, 2), nil, []byte{10, 20, 30, 40}, nil)

	tests := []struct {
		name        string
		in          []byte
		unsupported bool
	}{
		{"empty input", nil, false},
		{"short header", valid[:10], false},
		{"short image id", corrupt(func(h *tga.Header) { h.IDLength = 5 }), false},
		{"short pixel data", valid[:tga.HeaderLen+3], false},
		{"color mapped", corrupt(func(h *tga.Header) { h.ColorMapType = 1 }), true},
		{"color map offset", corrupt(func(h *tga.Header) { h.ColorMapFirst = 1 }), false},
		{"color map length", corrupt(func(h *tga.Header) { h.ColorMapLen = 1 }), false},
		{"color map entry size", corrupt(func(h *tga.Header) { h.ColorMapBits = 1 }), false},
		{"zero width", corrupt(func(h *tga.Header) { h.Width = 0 }), false},
		{"zero height", corrupt(func(h *tga.Header) { h.Height = 0 }), false},
		{"depth 12", corrupt(func(h *tga.Header) { h.PixelDepth = 12 }), true},
		{"depth 40", corrupt(func(h *tga.Header) { h.PixelDepth = 40 }), true},
		{"attribute bits", corrupt(func(h *tga.Header) { h.Descriptor = 2 }), true},
		{"reserved bit", corrupt(func(h *tga.Header) { h.Descriptor = 0x10 }), false},
		{"interleaved", corrupt(func(h *tga.Header) { h.Descriptor = 0x40 }), true},
		{"grayscale depth 24", corrupt(func(h *tga.Header) { h.PixelDepth = 24 }), true},
		{"true-color depth 8", corrupt(func(h *tga.Header) { h.ImageType = tga.TypeTrueColor }), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Convert(bytes.NewReader(tt.in), io.Discard)
			require.Error(t, err)

			var format tga.FormatError
			var unsupported tga.UnsupportedError
			if tt.unsupported {
				assert.True(t, errors.As(err, &unsupported), "got %v", err)
			} else {
				assert.True(t, errors.As(err, &format), "got %v", err)
			}
		})
	}
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errors.New("sink full") }

func TestConvertWriteFailure(t *testing.T) {
	in := encodeTGA(t, grayHeader(2, 2), nil, []byte{10, 20, 30, 40}, nil)

	err := Convert(bytes.NewReader(in), failWriter{})
	require.Error(t, err)

	var write *WriteError
	assert.True(t, errors.As(err, &write), "got %v", err)
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	in := encodeTGA(t, grayHeader(3, 3), nil, []byte{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, nil)

	src := filepath.Join(dir, "in.tga")
	dst := filepath.Join(dir, "out.tga")
	require.NoError(t, os.WriteFile(src, in, 0o644))

	require.NoError(t, ConvertFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, convertBytes(t, in), got)
}

func TestConvertFileZstd(t *testing.T) {
	dir := t.TempDir()
	plain := encodeTGA(t, grayHeader(2, 2), nil, []byte{10, 20, 30, 40}, nil)

	b := new(bytes.Buffer)
	zw, err := zstd.NewWriter(b)
	require.NoError(t, err)
	_, err = zw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	src := filepath.Join(dir, "in.tga.zst")
	require.NoError(t, os.WriteFile(src, b.Bytes(), 0o644))

	t.Run("zstd to zstd", func(t *testing.T) {
		dst := filepath.Join(dir, "out.tga.zst")
		require.NoError(t, ConvertFile(src, dst))

		f, err := os.Open(dst)
		require.NoError(t, err)
		defer f.Close()
		zr, err := zstd.NewReader(f)
		require.NoError(t, err)
		defer zr.Close()

		got, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, convertBytes(t, plain), got)
	})

	t.Run("zstd to plain", func(t *testing.T) {
		dst := filepath.Join(dir, "out.tga")
		require.NoError(t, ConvertFile(src, dst))

		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, convertBytes(t, plain), got)
	})

	t.Run("corrupt frame", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.tga.zst")
		require.NoError(t, os.WriteFile(bad, []byte("not zstd at all"), 0o644))

		err := ConvertFile(bad, filepath.Join(dir, "bad-out.tga"))
		require.Error(t, err)

		var format tga.FormatError
		assert.True(t, errors.As(err, &format), "got %v", err)
	})
}

func TestConvertFileOpenErrors(t *testing.T) {
	dir := t.TempDir()
	in := encodeTGA(t, grayHeader(1, 1), nil, []byte{7}, nil)
	src := filepath.Join(dir, "in.tga")
	require.NoError(t, os.WriteFile(src, in, 0o644))

	t.Run("missing input", func(t *testing.T) {
		err := ConvertFile(filepath.Join(dir, "nope.tga"), filepath.Join(dir, "out.tga"))
		require.Error(t, err)

		var open *OpenError
		require.True(t, errors.As(err, &open), "got %v", err)
		assert.False(t, open.Output)
	})

	t.Run("unwritable output", func(t *testing.T) {
		err := ConvertFile(src, filepath.Join(dir, "missing", "out.tga"))
		require.Error(t, err)

		var open *OpenError
		require.True(t, errors.As(err, &open), "got %v", err)
		assert.True(t, open.Output)
	})
}
