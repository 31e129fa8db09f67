// Package source provides the row readers the catalog loader consumes.
//
// A Reader hands out one record's fields per call to Next, as an ordered
// slice of strings, and returns io.EOF once the input is exhausted. The
// first record is always a header row: CSV files carry one, and SQL
// sources emit their column names first so the loader can treat every
// source the same way.
//
// Sources are created through a registry keyed by kind ("csv",
// "database"); see Register and Open.
package source

import (
	"context"
	"time"

	"github.com/filmdb/filmdb/internal/errhandling"
)

// Source kinds registered by this package.
const (
	KindCSV      = "csv"
	KindDatabase = "database"
)

// Reader yields raw records from a catalog source.
type Reader interface {
	// Next returns the fields of the next record, or io.EOF at end of input.
	Next() ([]string, error)
	// Close releases the underlying file or connection.
	Close() error
}

// Config describes where a catalog comes from.
type Config struct {
	// Kind selects the registered constructor (csv, database)
	Kind string

	// Path is the CSV file path
	Path string
	// Delimiter is the CSV field separator; zero means ','
	Delimiter rune

	// Driver is the database/sql driver name (postgres, sqlite)
	Driver string
	// DSN is the driver connection string
	DSN string
	// Query is the SELECT statement producing one film per row
	Query string
	// QueryFile holds the SELECT statement when Query is empty. It must be
	// a relative path inside the working directory.
	QueryFile string
	// Timeout bounds connecting and querying; zero means DefaultTimeout
	Timeout time.Duration
	// Retry controls reconnect attempts for transient database errors
	Retry errhandling.RetryConfig
}

// DefaultTimeout bounds database connects and queries.
const DefaultTimeout = 30 * time.Second

// Describe returns a loggable description of the source without credentials.
func (c Config) Describe() string {
	switch c.Kind {
	case KindDatabase:
		return c.Driver
	default:
		return c.Path
	}
}

// Open resolves cfg.Kind in the registry and opens the source.
func Open(ctx context.Context, cfg Config) (Reader, error) {
	kind := cfg.Kind
	if kind == "" {
		kind = KindCSV
	}

	constructor := Lookup(kind)
	if constructor == nil {
		return nil, errhandling.NewValidationError("unknown catalog source kind "+quote(kind), nil)
	}
	return constructor(ctx, cfg)
}

func quote(s string) string {
	return `"` + s + `"`
}
