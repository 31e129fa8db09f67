// Package render writes query results.
//
// Text output prints one line per film with the fields that matter for the
// query that produced it. JSON output prints the films as an array (or a
// single object for id lookups). Template output applies a user pattern
// to every film.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/filmdb/filmdb/internal/errhandling"
	"github.com/filmdb/filmdb/pkg/film"
)

// Kind names the query a result came from.
type Kind string

// Query kinds
const (
	KindID          Kind = "id"
	KindDirector    Kind = "director"
	KindGenre       Kind = "genre"
	KindDecade      Kind = "decade"
	KindRating      Kind = "rating"
	KindDecadeGenre Kind = "decade-genre"
	KindWhere       Kind = "where"
)

// Format selects the output encoding.
type Format string

// Output formats
const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatTemplate Format = "template"
)

// ParseFormat maps a flag value to a Format. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatTemplate:
		return FormatTemplate, nil
	default:
		return "", errhandling.NewValidationError(fmt.Sprintf("unknown output format %q (use text, json or template)", s), nil)
	}
}

// Printer writes results to an output sink.
type Printer struct {
	w      io.Writer
	format Format
	tmpl   *Template
}

// NewPrinter returns a Printer. pattern is required for FormatTemplate and
// ignored otherwise.
func NewPrinter(w io.Writer, format Format, pattern string) (*Printer, error) {
	p := &Printer{w: w, format: format}
	if format == FormatTemplate {
		if strings.TrimSpace(pattern) == "" {
			return nil, errhandling.NewValidationError("template output needs a --format pattern", nil)
		}
		tmpl, err := ParseTemplate(pattern)
		if err != nil {
			return nil, errhandling.NewValidationError("invalid output template", err)
		}
		p.tmpl = tmpl
	}
	return p, nil
}

// Film prints the result of an id lookup.
func (p *Printer) Film(f film.Film) error {
	switch p.format {
	case FormatJSON:
		return p.writeJSON(f)
	case FormatTemplate:
		return p.println(p.tmpl.Execute(f))
	default:
		return p.println(Line(KindID, f))
	}
}

// NotFound prints the message for an id that is not in the catalog.
func (p *Printer) NotFound(id string) error {
	msg := NotFoundMessage(id)
	if p.format == FormatJSON {
		return p.writeJSON(map[string]string{"error": msg})
	}
	return p.println(msg)
}

// Films prints the result of a scan. criteria describes the query for the
// "no films found" message.
func (p *Printer) Films(kind Kind, criteria string, films []film.Film) error {
	if p.format == FormatJSON {
		if films == nil {
			films = []film.Film{}
		}
		return p.writeJSON(films)
	}

	if len(films) == 0 {
		return p.println(NoMatchesMessage(kind, criteria))
	}

	for _, f := range films {
		line := Line(kind, f)
		if p.format == FormatTemplate {
			line = p.tmpl.Execute(f)
		}
		if err := p.println(line); err != nil {
			return err
		}
	}
	return nil
}

// Message prints a free-form line, e.g. a load summary.
func (p *Printer) Message(format string, args ...any) error {
	return p.println(fmt.Sprintf(format, args...))
}

// Line renders f in the text format for kind.
func Line(kind Kind, f film.Film) string {
	genres := strings.Join(f.Genres, ", ")
	switch kind {
	case KindID:
		return fmt.Sprintf("Title: %s, Year: %d", f.Title, f.Year)
	case KindDirector:
		return fmt.Sprintf("ID: %s, Title: %s, Year: %d, Genres: %s", f.ID, f.Title, f.Year, genres)
	case KindGenre, KindRating:
		return fmt.Sprintf("ID: %s, Title: %s, Director: %s, Year: %d", f.ID, f.Title, f.Director, f.Year)
	case KindDecade:
		return fmt.Sprintf("ID: %s, Title: %s, Director: %s, Genres: %s", f.ID, f.Title, f.Director, genres)
	case KindDecadeGenre:
		return fmt.Sprintf("ID: %s, Title: %s, Director: %s, Rating: %.1f", f.ID, f.Title, f.Director, f.Rating)
	default:
		return fmt.Sprintf("ID: %s, Title: %s, Director: %s, Year: %d, Rating: %.1f, Genres: %s",
			f.ID, f.Title, f.Director, f.Year, f.Rating, genres)
	}
}

// NotFoundMessage is printed when an id lookup misses.
func NotFoundMessage(id string) string {
	return fmt.Sprintf("film with id %s does not exist", id)
}

// DecadeLabel names the decade containing year, e.g. "1990s".
func DecadeLabel(year int) string {
	return fmt.Sprintf("%ds", film.DecadeStart(year))
}

// RatingCriteria describes a rating range for NoMatchesMessage.
func RatingCriteria(min, max float64) string {
	return fmt.Sprintf("%.1f and %.1f", min, max)
}

// DecadeGenreCriteria describes a decade and genre query for NoMatchesMessage.
func DecadeGenreCriteria(year int, genre string) string {
	return fmt.Sprintf("%s in the %s", genre, DecadeLabel(year))
}

// NoMatchesMessage is printed when a scan matches nothing.
func NoMatchesMessage(kind Kind, criteria string) string {
	switch kind {
	case KindDirector:
		return fmt.Sprintf("no films found for director %s", criteria)
	case KindGenre:
		return fmt.Sprintf("no films found for genre %s", criteria)
	case KindDecade:
		return fmt.Sprintf("no films found for the %s", criteria)
	case KindRating:
		return fmt.Sprintf("no films found with a rating between %s", criteria)
	case KindDecadeGenre:
		return fmt.Sprintf("no films found for %s", criteria)
	default:
		if criteria == "" {
			return "no films found"
		}
		return fmt.Sprintf("no films found matching %s", criteria)
	}
}

func (p *Printer) println(s string) error {
	_, err := fmt.Fprintln(p.w, s)
	return err
}

func (p *Printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
