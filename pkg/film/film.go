// Package film provides the public record type shared by the catalog,
// the loader, the query engine and the HTTP API.
// It is intended to be importable by external projects that consume
// filmdb query results.
package film

import "slices"

// Film is a single catalog entry.
// A Film is treated as immutable once it has been built by the loader;
// the catalog stores its own copy and hands out copies.
type Film struct {
	// ID is the unique catalog key (e.g. "tt0111161")
	ID string `json:"id"`

	// Title is the display title
	Title string `json:"title"`

	// Director holds the director cell verbatim (may list several names)
	Director string `json:"director"`

	// Genres is the ordered genre list; duplicates are preserved
	Genres []string `json:"genres"`

	// Rating is conventionally 0.0-10.0; 0 when the source has none
	Rating float64 `json:"rating"`

	// Year is the four-digit release year; 0 when the source cell is not numeric
	Year int `json:"year"`
}

// DecadeStart returns the first year of the decade containing year.
func DecadeStart(year int) int {
	return year - year%10
}

// Decade returns the first year of the film's decade.
func (f Film) Decade() int {
	return DecadeStart(f.Year)
}

// InDecade reports whether the film was released in [start, start+9].
// start is used as given; callers normalize it with DecadeStart.
func (f Film) InDecade(start int) bool {
	return f.Year >= start && f.Year <= start+9
}

// HasGenre reports whether genre is exactly one of the film's genres.
// The comparison is case-sensitive and never matches substrings.
func (f Film) HasGenre(genre string) bool {
	return slices.Contains(f.Genres, genre)
}

// InRatingRange reports whether min <= rating <= max.
// A reversed range (min > max) never matches.
func (f Film) InRatingRange(min, max float64) bool {
	return f.Rating >= min && f.Rating <= max
}

// Clone returns a copy that shares no memory with f.
func (f Film) Clone() Film {
	f.Genres = slices.Clone(f.Genres)
	return f
}
