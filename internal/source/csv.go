package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/filmdb/filmdb/internal/errhandling"
	"github.com/filmdb/filmdb/internal/logger"
	"github.com/filmdb/filmdb/internal/pathutil"
)

// utf8BOM is stripped from the first field of a file exported by spreadsheet tools.
const utf8BOM = "\ufeff"

// CSVReader reads catalog rows from a delimited text file.
type CSVReader struct {
	file  *os.File
	r     *csv.Reader
	first bool
}

func openCSV(_ context.Context, cfg Config) (Reader, error) {
	return OpenCSV(cfg.Path, cfg.Delimiter)
}

// OpenCSV opens path for reading. A zero delimiter means ','.
func OpenCSV(path string, delimiter rune) (*CSVReader, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errhandling.NewIOError(fmt.Sprintf("cannot open catalog file %q", path), err)
	}

	logger.Debug("catalog file opened", "path", path)
	return &CSVReader{file: f, r: newCSVReader(f, delimiter), first: true}, nil
}

// NewCSVReader reads rows from r; closing it is the caller's business.
func NewCSVReader(r io.Reader, delimiter rune) *CSVReader {
	return &CSVReader{r: newCSVReader(r, delimiter), first: true}
}

func newCSVReader(r io.Reader, delimiter rune) *csv.Reader {
	cr := csv.NewReader(r)
	if delimiter != 0 {
		cr.Comma = delimiter
	}
	// Rows may carry a varying number of cells; the loader decides what is usable.
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// Next returns the next row's fields or io.EOF.
func (c *CSVReader) Next() ([]string, error) {
	record, err := c.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, errhandling.NewParseError("malformed CSV", err)
	}
	if c.first {
		c.first = false
		if len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], utf8BOM)
		}
	}
	return record, nil
}

// Close closes the file opened by OpenCSV.
func (c *CSVReader) Close() error {
	if c.file == nil {
		return nil
	}
	return c.file.Close()
}

// validatePath rejects empty paths and paths carrying NUL bytes.
func validatePath(path string) error {
	if err := pathutil.Check(path); err != nil {
		return errhandling.NewValidationError("invalid catalog file path", err)
	}
	return nil
}
