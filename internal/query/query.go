// Package query answers catalog queries.
//
// ByID is a direct key lookup. Every other query is a linear scan over the
// store in insertion order that keeps the films a Predicate accepts. Zero
// matches is a normal outcome and returns an empty slice.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/filmdb/filmdb/internal/catalog"
	"github.com/filmdb/filmdb/internal/logger"
	"github.com/filmdb/filmdb/pkg/film"
)

// Predicate selects films during a scan.
type Predicate func(film.Film) bool

// Director matches the director cell case-insensitively.
func Director(name string) Predicate {
	want := strings.ToLower(name)
	return func(f film.Film) bool {
		return strings.ToLower(f.Director) == want
	}
}

// Genre matches films carrying exactly this genre.
func Genre(genre string) Predicate {
	return func(f film.Film) bool {
		return f.HasGenre(genre)
	}
}

// Decade matches films released in the decade containing year.
func Decade(year int) Predicate {
	start := film.DecadeStart(year)
	return func(f film.Film) bool {
		return f.InDecade(start)
	}
}

// RatingRange matches min <= rating <= max.
func RatingRange(min, max float64) Predicate {
	return func(f film.Film) bool {
		return f.InRatingRange(min, max)
	}
}

// And matches films accepted by every predicate. With no predicates it
// matches everything.
func And(preds ...Predicate) Predicate {
	return func(f film.Film) bool {
		for _, p := range preds {
			if !p(f) {
				return false
			}
		}
		return true
	}
}

// Engine runs queries against a store.
type Engine struct {
	store *catalog.Store
}

// NewEngine returns an Engine reading from store.
func NewEngine(store *catalog.Store) *Engine {
	return &Engine{store: store}
}

// ByID looks a film up by id.
func (e *Engine) ByID(id string) (film.Film, bool) {
	start := time.Now()
	f, ok := e.store.Lookup(id)
	n := 0
	if ok {
		n = 1
	}
	logger.LogQuery("id", id, n, time.Since(start))
	return f, ok
}

// ByDirector returns films whose director equals name, ignoring case.
func (e *Engine) ByDirector(name string) []film.Film {
	return e.scan("director", name, Director(name))
}

// ByGenre returns films with genre among their genres.
func (e *Engine) ByGenre(genre string) []film.Film {
	return e.scan("genre", genre, Genre(genre))
}

// ByDecade returns films released in the decade containing year.
func (e *Engine) ByDecade(year int) []film.Film {
	return e.scan("decade", fmt.Sprintf("%ds", film.DecadeStart(year)), Decade(year))
}

// ByRatingRange returns films rated within [min, max].
func (e *Engine) ByRatingRange(min, max float64) []film.Film {
	return e.scan("rating", fmt.Sprintf("%.1f-%.1f", min, max), RatingRange(min, max))
}

// ByDecadeAndGenre returns films of genre released in the decade containing year.
func (e *Engine) ByDecadeAndGenre(year int, genre string) []film.Film {
	criteria := fmt.Sprintf("%ds/%s", film.DecadeStart(year), genre)
	return e.scan("decade-genre", criteria, And(Decade(year), Genre(genre)))
}

// Select returns the films p accepts.
func (e *Engine) Select(p Predicate) []film.Film {
	return e.scan("select", "", p)
}

func (e *Engine) scan(kind, criteria string, p Predicate) []film.Film {
	start := time.Now()
	matches := []film.Film{}
	for _, f := range e.store.All() {
		if p(f) {
			matches = append(matches, f)
		}
	}
	logger.LogQuery(kind, criteria, len(matches), time.Since(start))
	return matches
}
