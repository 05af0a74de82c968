package halfsize

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/johnmcfarlane/HalfSize/tga"
	"github.com/klauspost/compress/zstd"
)

// zstExt marks zstd-framed TGA files.
const zstExt = ".zst"

// Convert reads one uncompressed TGA image from r and writes its
// half-size counterpart to w. Output dimensions round up, so a 5x3
// image comes out 3x2, while the origins round down. The image ID and
// any bytes following the pixel data are copied through untouched.
func Convert(r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	in, err := tga.ReadHeader(br)
	if err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	channels, err := in.Channels()
	if err != nil {
		return err
	}

	out := in
	out.XOrigin = in.XOrigin >> 1
	out.YOrigin = in.YOrigin >> 1
	out.Width = uint16((int(in.Width) + 1) >> 1)
	out.Height = uint16((int(in.Height) + 1) >> 1)
	if err := tga.WriteHeader(bw, out); err != nil {
		return &WriteError{err}
	}

	if err := copyID(br, bw, int(in.IDLength)); err != nil {
		return err
	}

	width, height := int(in.Width), int(in.Height)

	// Input rows are padded to an even number of pixels so they always
	// reduce in pairs
	even := make([]byte, ((width+1)&^1)*channels)
	odd := make([]byte, ((width+1)&^1)*channels)
	half := make([]byte, ((width+1)>>1)*channels)

	for y := 0; y < height>>1; y++ {
		if err := readRow(br, even, width, channels); err != nil {
			return err
		}
		if err := readRow(br, odd, width, channels); err != nil {
			return err
		}
		reduceRows(even, odd, half, channels)
		if _, err := bw.Write(half); err != nil {
			return &WriteError{err}
		}
	}

	// An odd final row pairs with itself
	if height&1 != 0 {
		if err := readRow(br, even, width, channels); err != nil {
			return err
		}
		reduceRows(even, even, half, channels)
		if _, err := bw.Write(half); err != nil {
			return &WriteError{err}
		}
	}

	if err := copyTrailer(br, bw); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return &WriteError{err}
	}
	return nil
}

// copyID passes the optional image ID field through unchanged.
func copyID(r io.Reader, w io.Writer, n int) error {
	if n == 0 {
		return nil
	}

	var id [255]byte
	if _, err := io.ReadFull(r, id[:n]); err != nil {
		return tga.FormatError("short image id")
	}
	if _, err := w.Write(id[:n]); err != nil {
		return &WriteError{err}
	}
	return nil
}

// readRow reads width pixels into row, which holds an even number of
// pixels. An odd trailing pixel is duplicated into the spare slot.
func readRow(r io.Reader, row []byte, width, channels int) error {
	n := width * channels
	if _, err := io.ReadFull(r, row[:n]); err != nil {
		return tga.FormatError("short pixel data")
	}
	if width&1 != 0 {
		copy(row[n:], row[n-channels:n])
	}
	return nil
}

// reduceRows averages the vertically adjacent rows even and odd into
// half, one output pixel per 2x2 input block. Channels are averaged
// independently with a bias of 2 so that halves round up.
func reduceRows(even, odd, half []byte, channels int) {
	for i := 0; i < len(half); i += channels {
		j := 2 * i
		for c := 0; c < channels; c++ {
			sum := 2 + int(even[j+c]) + int(even[j+channels+c]) + int(odd[j+c]) + int(odd[j+channels+c])
			half[i+c] = byte(sum >> 2)
		}
	}
}

// copyTrailer copies whatever follows the pixel data verbatim. Input
// read errors end the copy; only write failures are reported.
func copyTrailer(r io.Reader, w io.Writer) error {
	var buf [4096]byte
	for {
		n, err := r.Read(buf[:])
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return &WriteError{werr}
			}
		}
		if err != nil {
			return nil
		}
	}
}

// ConvertFile converts the TGA file at src into dst, creating or
// truncating dst. Paths ending in .zst are read and written through a
// zstd frame. A failed conversion may leave a partial dst behind.
func ConvertFile(src, dst string) (err error) {
	in, err := openReader(src)
	if err != nil {
		return err
	}
	defer in.Close()

	f, err := os.Create(dst)
	if err != nil {
		return &OpenError{Path: dst, Output: true, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &WriteError{cerr}
		}
	}()

	var w io.Writer = f
	if strings.HasSuffix(dst, zstExt) {
		zw, zerr := zstd.NewWriter(f)
		if zerr != nil {
			return &WriteError{zerr}
		}
		defer func() {
			if cerr := zw.Close(); cerr != nil && err == nil {
				err = &WriteError{cerr}
			}
		}()
		w = zw
	}

	return Convert(in, w)
}

// openReader opens a TGA file for reading, unwrapping a zstd frame if
// the name calls for one.
func openReader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	if !strings.HasSuffix(path, zstExt) {
		return f, nil
	}

	zr, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, tga.FormatError("bad zstd frame: " + err.Error())
	}
	return &zstReader{Decoder: zr, f: f}, nil
}

// zstReader closes both the zstd decoder and the underlying file.
type zstReader struct {
	*zstd.Decoder
	f *os.File
}

func (z *zstReader) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}

// readHeader returns just the header of the TGA file at path.
func readHeader(path string) (tga.Header, error) {
	f, err := openReader(path)
	if err != nil {
		return tga.Header{}, err
	}
	defer f.Close()

	return tga.ReadHeader(f)
}
