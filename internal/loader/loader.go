// Package loader turns source rows into films and commits them to the catalog.
//
// Every source starts with a header row, which is discarded. Each following
// row is mapped by position through a Layout. In lenient mode (the default)
// a non-numeric year or rating loads as zero; in strict mode such rows are
// rejected. Rows are staged and committed in one batch, so a source that
// fails halfway leaves the catalog untouched.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/filmdb/filmdb/internal/catalog"
	"github.com/filmdb/filmdb/internal/errhandling"
	"github.com/filmdb/filmdb/internal/logger"
	"github.com/filmdb/filmdb/internal/source"
	"github.com/filmdb/filmdb/pkg/film"
)

// Row rejection reasons
var (
	ErrMissingID     = errors.New("row has no id")
	ErrRowTooShort   = errors.New("row has fewer cells than the layout needs")
	ErrInvalidYear   = errors.New("year is not an integer")
	ErrInvalidRating = errors.New("rating is not a number")
)

// Options configure how rows become films.
type Options struct {
	Layout         Layout
	GenreSeparator string
	Strict         bool
}

// DefaultOptions returns the IMDb layout in lenient mode.
func DefaultOptions() Options {
	return Options{
		Layout:         DefaultLayout(),
		GenreSeparator: DefaultGenreSeparator,
	}
}

// Result summarizes one load.
type Result struct {
	// Rows is the number of data rows read, header excluded
	Rows int
	// Inserted counts films that were new to the catalog
	Inserted int
	// Replaced counts films that overwrote an existing id
	Replaced int
	// Skipped counts rejected rows
	Skipped int
	Duration time.Duration
}

// Loader parses rows with fixed options.
type Loader struct {
	opts Options
}

// New validates opts and returns a Loader.
func New(opts Options) (*Loader, error) {
	if err := opts.Layout.Validate(); err != nil {
		return nil, errhandling.NewValidationError("invalid column layout", err)
	}
	if opts.GenreSeparator == "" {
		opts.GenreSeparator = DefaultGenreSeparator
	}
	return &Loader{opts: opts}, nil
}

// Options returns the loader's effective options.
func (l *Loader) Options() Options {
	return l.opts
}

// Load reads r to the end and commits the parsed films to store.
// On a read error nothing is committed.
func (l *Loader) Load(ctx context.Context, r source.Reader, store *catalog.Store) (Result, error) {
	start := time.Now()
	var res Result

	if _, err := r.Next(); err != nil {
		if errors.Is(err, io.EOF) {
			res.Duration = time.Since(start)
			return res, nil
		}
		return res, err
	}

	var batch []film.Film
	for {
		if err := ctx.Err(); err != nil {
			return res, errhandling.ClassifyError(err)
		}

		fields, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, err
		}
		res.Rows++

		f, err := l.ParseRow(fields)
		if err != nil {
			res.Skipped++
			logger.Debug("row skipped", "row", res.Rows, "reason", err.Error())
			continue
		}
		batch = append(batch, f)
	}

	res.Replaced = store.InsertAll(batch)
	res.Inserted = len(batch) - res.Replaced
	res.Duration = time.Since(start)
	return res, nil
}

// LoadSource opens cfg, loads it into store and logs the outcome.
func (l *Loader) LoadSource(ctx context.Context, cfg source.Config, store *catalog.Store) (Result, error) {
	kind := cfg.Kind
	if kind == "" {
		kind = source.KindCSV
	}
	logger.LogLoadStart(kind, cfg.Describe())

	stats := logger.LoadStats{SourceKind: kind, Source: cfg.Describe()}
	start := time.Now()

	r, err := source.Open(ctx, cfg)
	if err != nil {
		stats.Duration = time.Since(start)
		logger.LogLoadEnd(stats, err)
		return Result{}, err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			logger.Warn("failed to close catalog source", "error", cerr.Error())
		}
	}()

	res, err := l.Load(ctx, r, store)
	stats.Rows = res.Rows
	stats.Inserted = res.Inserted
	stats.Replaced = res.Replaced
	stats.Skipped = res.Skipped
	stats.CatalogSize = store.Len()
	stats.Duration = time.Since(start)
	logger.LogLoadEnd(stats, err)

	res.Duration = stats.Duration
	return res, err
}

// LoadFile loads a CSV file into store.
func (l *Loader) LoadFile(ctx context.Context, path string, store *catalog.Store) (Result, error) {
	return l.LoadSource(ctx, source.Config{Kind: source.KindCSV, Path: path}, store)
}

// ParseRow builds a film from one row's cells.
func (l *Loader) ParseRow(fields []string) (film.Film, error) {
	lay := l.opts.Layout

	if len(fields) <= lay.ID {
		return film.Film{}, ErrMissingID
	}
	if l.opts.Strict && len(fields) < lay.Width() {
		return film.Film{}, fmt.Errorf("%w: got %d, need %d", ErrRowTooShort, len(fields), lay.Width())
	}

	// The id is the store key and is kept exactly as tokenized.
	id := fields[lay.ID]
	if l.opts.Strict && strings.TrimSpace(id) == "" {
		return film.Film{}, ErrMissingID
	}

	year, err := parseYear(cell(fields, lay.Year))
	if err != nil && l.opts.Strict {
		return film.Film{}, err
	}

	var rating float64
	if lay.Rating != NoColumn {
		rating, err = parseRating(cell(fields, lay.Rating))
		if err != nil && l.opts.Strict {
			return film.Film{}, err
		}
	}

	return film.Film{
		ID:       id,
		Title:    strings.TrimSpace(cell(fields, lay.Title)),
		Director: strings.TrimSpace(cell(fields, lay.Director)),
		Genres:   SplitGenres(cell(fields, lay.Genres), l.opts.GenreSeparator),
		Rating:   rating,
		Year:     year,
	}, nil
}

// cell returns fields[i], or "" when the row is too short.
func cell(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

// parseYear returns 0 and an error for a cell that is not an integer.
func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidYear, s)
	}
	return y, nil
}

// parseRating treats an empty cell as 0 without error.
func parseRating(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
	return r, nil
}
