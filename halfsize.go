/*
Package halfsize shrinks uncompressed TGA images to half their width
and height. Every output pixel is the rounded average of a 2x2 block
of input pixels, computed per channel in integer arithmetic, so the
same input always produces the same bytes. Images stream through three
row buffers and never load whole into memory. The image ID field and
any bytes after the pixel data are carried over verbatim.
*/
package halfsize

import "log"

// HalfSize couples a conversion catalog with a logger for batch scans.
type HalfSize struct {
	catalog *Catalog
	logger  *log.Logger
}

// New opens the catalog database at file and returns a HalfSize using
// it.
func New(file string, logger *log.Logger) (*HalfSize, error) {
	catalog, err := OpenCatalog(file)
	if err != nil {
		return nil, err
	}
	return &HalfSize{
		catalog: catalog,
		logger:  logger,
	}, nil
}

// Close releases the underlying catalog.
func (m *HalfSize) Close() error {
	return m.catalog.Close()
}
