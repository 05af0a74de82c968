package halfsize

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Entry records one completed conversion, keyed by the CRC of the
// source file.
type Entry struct {
	CRC    string
	Source string
	Output string
	Width  int
	Height int
	Depth  int
	Thumb  []byte
}

// Catalog tracks converted files in a SQLite database so repeated
// scans can skip sources whose bytes have not changed.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens, creating if necessary, the catalog database at
// file.
func OpenCatalog(file string) (*Catalog, error) {
	// Concurrent scan workers all insert into the same table
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS conversion (id INTEGER PRIMARY KEY NOT NULL, crc TEXT NOT NULL UNIQUE, source TEXT NOT NULL, output TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, depth INTEGER NOT NULL, thumb BLOB)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the catalog database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Add records a conversion, replacing any previous entry with the same
// CRC.
func (c *Catalog) Add(e *Entry) error {
	if _, err := c.db.Exec("INSERT OR REPLACE INTO conversion (crc, source, output, width, height, depth, thumb) VALUES (?, ?, ?, ?, ?, ?, ?)", e.CRC, e.Source, e.Output, e.Width, e.Height, e.Depth, e.Thumb); err != nil {
		return err
	}
	return nil
}

// FindByCRC returns the recorded conversion for crc, or nil if there
// is none.
func (c *Catalog) FindByCRC(crc string) (*Entry, error) {
	e := Entry{CRC: crc}
	switch err := c.db.QueryRow("SELECT source, output, width, height, depth, thumb FROM conversion WHERE crc = ?", crc).Scan(&e.Source, &e.Output, &e.Width, &e.Height, &e.Depth, &e.Thumb); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return &e, nil
	default:
		return nil, err
	}
}
