package loader

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NoColumn marks a field the source does not carry.
const NoColumn = -1

// Layout presets
const (
	LayoutIMDb   = "imdb"
	LayoutLegacy = "legacy"
	LayoutSimple = "simple"
)

// ErrUnknownLayout is returned for a preset name that is not registered.
var ErrUnknownLayout = errors.New("unknown column layout")

// Layout maps zero-based cell positions to film fields.
type Layout struct {
	ID       int
	Title    int
	Genres   int
	Year     int
	Director int
	// Rating may be NoColumn; films then load with a zero rating
	Rating int
}

var presets = map[string]Layout{
	// Position,Const,Created,Modified,Description,Title,URL,Title Type,
	// IMDb Rating,Runtime (mins),Year,Genres,Num Votes,Release Date,Directors
	LayoutIMDb: {ID: 1, Title: 5, Rating: 8, Year: 10, Genres: 11, Director: 14},
	// Column 9 of an IMDb export is the runtime, so genres load as numbers.
	LayoutLegacy: {ID: 1, Title: 5, Genres: 9, Year: 10, Director: 14, Rating: NoColumn},
	LayoutSimple: {ID: 0, Title: 1, Genres: 2, Year: 3, Director: 4, Rating: 5},
}

// DefaultLayout returns the IMDb list export layout.
func DefaultLayout() Layout {
	return presets[LayoutIMDb]
}

// Preset returns the layout registered under name. An empty name selects
// the default layout.
func Preset(name string) (Layout, error) {
	if name == "" {
		return DefaultLayout(), nil
	}
	l, ok := presets[strings.ToLower(name)]
	if !ok {
		return Layout{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownLayout, name, strings.Join(Presets(), ", "))
	}
	return l, nil
}

// Presets returns the registered layout names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithOverrides returns a copy of l with the named columns replaced.
// Keys are id, title, genres, year, director and rating.
func (l Layout) WithOverrides(columns map[string]int) (Layout, error) {
	for name, idx := range columns {
		field, err := l.field(name)
		if err != nil {
			return Layout{}, err
		}
		*field = idx
	}
	return l, l.Validate()
}

func (l *Layout) field(name string) (*int, error) {
	switch strings.ToLower(name) {
	case "id":
		return &l.ID, nil
	case "title":
		return &l.Title, nil
	case "genres", "genre":
		return &l.Genres, nil
	case "year":
		return &l.Year, nil
	case "director", "directors":
		return &l.Director, nil
	case "rating":
		return &l.Rating, nil
	default:
		return nil, fmt.Errorf("unknown column %q", name)
	}
}

// Validate checks that every required column has a position.
func (l Layout) Validate() error {
	required := []struct {
		name string
		idx  int
	}{
		{"id", l.ID},
		{"title", l.Title},
		{"genres", l.Genres},
		{"year", l.Year},
		{"director", l.Director},
	}
	for _, c := range required {
		if c.idx < 0 {
			return fmt.Errorf("column %s must be >= 0, got %d", c.name, c.idx)
		}
	}
	if l.Rating < NoColumn {
		return fmt.Errorf("column rating must be >= %d, got %d", NoColumn, l.Rating)
	}
	return nil
}

// Width is the number of cells a row needs to carry every mapped column.
func (l Layout) Width() int {
	return max(l.ID, l.Title, l.Genres, l.Year, l.Director, l.Rating) + 1
}
