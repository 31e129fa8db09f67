package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/filmdb/filmdb/internal/errhandling"
	"github.com/filmdb/filmdb/pkg/film"
)

// Criteria parsing errors
var (
	ErrInvalidDecade = errors.New("invalid decade")
	ErrInvalidRange  = errors.New("invalid rating range")
)

// ParseDecade reads a year or a decade label such as "1990s".
// Any year is accepted; queries normalize it to its decade.
func ParseDecade(s string) (int, error) {
	t := strings.TrimSpace(s)
	if strings.HasSuffix(t, "s") || strings.HasSuffix(t, "S") {
		t = t[:len(t)-1]
	}
	year, err := strconv.Atoi(t)
	if err != nil {
		return 0, errhandling.NewParseError(fmt.Sprintf("cannot parse %q as a year or decade such as 1990s", s), ErrInvalidDecade)
	}
	return year, nil
}

// ParseRating reads one rating bound.
func ParseRating(s string) (float64, error) {
	r, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errhandling.NewParseError(fmt.Sprintf("invalid rating %q", s), err)
	}
	return r, nil
}

// ParseRatingRange reads "min-max", e.g. "6.0-6.4". The separator is the
// first hyphen that has a number on both sides, so negative bounds work.
// A reversed range is returned as given.
func ParseRatingRange(s string) (min, max float64, err error) {
	t := strings.TrimSpace(s)
	for i := 1; i < len(t); i++ {
		if t[i] != '-' {
			continue
		}
		lo, errLo := strconv.ParseFloat(strings.TrimSpace(t[:i]), 64)
		hi, errHi := strconv.ParseFloat(strings.TrimSpace(t[i+1:]), 64)
		if errLo == nil && errHi == nil {
			return lo, hi, nil
		}
	}
	return 0, 0, errhandling.NewParseError(fmt.Sprintf("cannot parse %q as min-max", s), ErrInvalidRange)
}

// Criteria is a conjunction of optional filters.
type Criteria struct {
	Director string
	Genre    string

	Decade    int
	HasDecade bool

	MinRating float64
	MaxRating float64
	HasRating bool

	// Where is an expression evaluated by Compile
	Where string
}

// IsZero reports whether no filter is set.
func (c Criteria) IsZero() bool {
	return c.Director == "" && c.Genre == "" && !c.HasDecade && !c.HasRating && strings.TrimSpace(c.Where) == ""
}

// String renders the criteria for logs and messages.
func (c Criteria) String() string {
	var parts []string
	if c.Director != "" {
		parts = append(parts, "director="+c.Director)
	}
	if c.Genre != "" {
		parts = append(parts, "genre="+c.Genre)
	}
	if c.HasDecade {
		parts = append(parts, fmt.Sprintf("decade=%ds", c.Decade-c.Decade%10))
	}
	if c.HasRating {
		parts = append(parts, fmt.Sprintf("rating=%.1f-%.1f", c.MinRating, c.MaxRating))
	}
	if strings.TrimSpace(c.Where) != "" {
		parts = append(parts, "where="+c.Where)
	}
	return strings.Join(parts, " ")
}

// Match runs the conjunction of every filter set in c.
func (e *Engine) Match(c Criteria) ([]film.Film, error) {
	var preds []Predicate
	if c.Director != "" {
		preds = append(preds, Director(c.Director))
	}
	if c.Genre != "" {
		preds = append(preds, Genre(c.Genre))
	}
	if c.HasDecade {
		preds = append(preds, Decade(c.Decade))
	}
	if c.HasRating {
		preds = append(preds, RatingRange(c.MinRating, c.MaxRating))
	}

	if strings.TrimSpace(c.Where) == "" {
		return e.scan("match", c.String(), And(preds...)), nil
	}

	x, err := Compile(c.Where)
	if err != nil {
		return nil, err
	}
	return e.filter("match", c.String(), And(preds...), x)
}
