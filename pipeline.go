package halfsize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultSuffix is appended to the base name of every converted file.
const DefaultSuffix = "-half"

// outputName derives the half-size sibling for a source file, keeping
// a trailing zstd wrapper in place: shot.tga becomes shot-half.tga and
// shot.tga.zst becomes shot-half.tga.zst.
func outputName(file, suffix string) string {
	zst := ""
	if strings.HasSuffix(file, zstExt) {
		zst = zstExt
		file = strings.TrimSuffix(file, zstExt)
	}
	ext := filepath.Ext(file)
	return strings.TrimSuffix(file, ext) + suffix + ext + zst
}

func (m *HalfSize) findImages(ctx context.Context, base, suffix string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() {
				return nil
			}

			name := strings.TrimSuffix(info.Name(), zstExt)
			if filepath.Ext(name) != ".tga" {
				return nil
			}

			// Half-size output from an earlier run
			if strings.HasSuffix(strings.TrimSuffix(name, ".tga"), suffix) {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (m *HalfSize) imageWorker(ctx context.Context, suffix string, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			crc, err := crcFile(file)
			if err != nil {
				errc <- err
				return
			}

			entry, err := m.catalog.FindByCRC(crc)
			if err != nil {
				errc <- err
				return
			}
			if entry != nil {
				m.logger.Printf("Skipping \"%s\", already converted\n", file)
				continue
			}

			output := outputName(file, suffix)
			if err := ConvertFile(file, output); err != nil {
				m.logger.Printf("Failed to convert \"%s\": %v\n", file, err)
				continue
			}
			m.logger.Printf("Converted \"%s\" to \"%s\"\n", file, output)

			header, err := readHeader(file)
			if err != nil {
				errc <- err
				return
			}

			thumb, err := thumbnail(output)
			if err != nil {
				m.logger.Printf("No preview for \"%s\": %v\n", output, err)
				thumb = nil
			}

			if err := m.catalog.Add(&Entry{
				CRC:    crc,
				Source: file,
				Output: output,
				Width:  int(header.Width),
				Height: int(header.Height),
				Depth:  int(header.PixelDepth),
				Thumb:  thumb,
			}); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks the tree under path converting every TGA image that is
// not already recorded in the catalog. Converted files are written
// alongside their sources with suffix appended to the base name.
func (m *HalfSize) Scan(path, suffix string) error {
	if suffix == "" {
		return errors.New("halfsize: empty suffix would overwrite sources")
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := m.findImages(ctx, dir, suffix)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < 10; i++ {
		errc, err := m.imageWorker(ctx, suffix, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
