package query

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/filmdb/filmdb/internal/catalog"
	"github.com/filmdb/filmdb/internal/loader"
	"github.com/filmdb/filmdb/internal/source"
	"github.com/filmdb/filmdb/pkg/film"
)

func filmIDs(films []film.Film) []string {
	ids := make([]string, 0, len(films))
	for _, f := range films {
		ids = append(ids, f.ID)
	}
	return ids
}

func newEngine(films ...film.Film) *Engine {
	store := catalog.New()
	store.InsertAll(films)
	return NewEngine(store)
}

func TestRoundTripScenario(t *testing.T) {
	input := "id,title,genres,year,director,rating\n" +
		"tt001,Alpha,\"Action,Drama\",1994,Smith,8.1\n" +
		"tt002,Beta,Comedy,2001,Jones,5.5\n"

	opts := loader.DefaultOptions()
	opts.Layout, _ = loader.Preset(loader.LayoutSimple)
	l, err := loader.New(opts)
	if err != nil {
		t.Fatal(err)
	}
	store := catalog.New()
	res, err := l.Load(context.Background(), source.NewCSVReader(strings.NewReader(input), 0), store)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if res.Inserted != 2 {
		t.Fatalf("Inserted = %d, want 2", res.Inserted)
	}

	e := NewEngine(store)

	if f, ok := e.ByID("tt001"); !ok || f.Title != "Alpha" {
		t.Errorf("ByID(tt001) = %+v, %v", f, ok)
	}
	if _, ok := e.ByID("tt999"); ok {
		t.Error("ByID(tt999) should report not found")
	}

	tests := []struct {
		name string
		got  []film.Film
		want []string
	}{
		{"genre Drama", e.ByGenre("Drama"), []string{"tt001"}},
		{"decade 1990", e.ByDecade(1990), []string{"tt001"}},
		{"rating 5.0-6.0", e.ByRatingRange(5.0, 6.0), []string{"tt002"}},
		{"decade 2000 Comedy", e.ByDecadeAndGenre(2000, "Comedy"), []string{"tt002"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, filmIDs(tt.got)); diff != "" {
			t.Errorf("%s (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestByDecade_Boundaries(t *testing.T) {
	e := newEngine(
		film.Film{ID: "before", Year: 1989},
		film.Film{ID: "first", Year: 1990},
		film.Film{ID: "mid", Year: 1995},
		film.Film{ID: "last", Year: 1999},
		film.Film{ID: "after", Year: 2000},
	)

	for _, year := range []int{1990, 1994, 1999} {
		if diff := cmp.Diff([]string{"first", "mid", "last"}, filmIDs(e.ByDecade(year))); diff != "" {
			t.Errorf("ByDecade(%d) (-want +got):\n%s", year, diff)
		}
	}
}

func TestByRatingRange(t *testing.T) {
	e := newEngine(
		film.Film{ID: "low", Rating: 5.9},
		film.Film{ID: "min", Rating: 6.0},
		film.Film{ID: "max", Rating: 6.4},
		film.Film{ID: "high", Rating: 6.5},
	)

	if diff := cmp.Diff([]string{"min", "max"}, filmIDs(e.ByRatingRange(6.0, 6.4))); diff != "" {
		t.Errorf("inclusive bounds (-want +got):\n%s", diff)
	}
	if got := e.ByRatingRange(9, 1); len(got) != 0 {
		t.Errorf("reversed range matched %v", filmIDs(got))
	}
	if got := e.ByRatingRange(9, 1); got == nil {
		t.Error("zero matches should be an empty slice, not nil")
	}
}

func TestByGenre_ExactElementMatch(t *testing.T) {
	e := newEngine(
		film.Film{ID: "a", Genres: []string{"Drama", "Crime"}},
		film.Film{ID: "b", Genres: []string{"Docudrama"}},
		film.Film{ID: "c", Genres: []string{"drama"}},
	)

	if diff := cmp.Diff([]string{"a"}, filmIDs(e.ByGenre("Drama"))); diff != "" {
		t.Errorf("ByGenre(Drama) (-want +got):\n%s", diff)
	}
	if got := e.ByGenre("Dra"); len(got) != 0 {
		t.Errorf("substring matched %v", filmIDs(got))
	}
}

func TestByDirector_CaseInsensitive(t *testing.T) {
	e := newEngine(
		film.Film{ID: "a", Director: "Jane Doe"},
		film.Film{ID: "b", Director: "John Doe"},
		film.Film{ID: "c", Director: "JANE DOE"},
	)

	if diff := cmp.Diff([]string{"a", "c"}, filmIDs(e.ByDirector("jane doe"))); diff != "" {
		t.Errorf("ByDirector (-want +got):\n%s", diff)
	}
	if got := e.ByDirector("Jane"); len(got) != 0 {
		t.Errorf("partial name matched %v", filmIDs(got))
	}
}

func TestScansFollowInsertionOrder(t *testing.T) {
	e := newEngine(
		film.Film{ID: "z", Genres: []string{"g"}},
		film.Film{ID: "a", Genres: []string{"g"}},
		film.Film{ID: "m", Genres: []string{"g"}},
	)
	if diff := cmp.Diff([]string{"z", "a", "m"}, filmIDs(e.ByGenre("g"))); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
}

func TestMatch(t *testing.T) {
	e := newEngine(
		film.Film{ID: "a", Director: "X", Genres: []string{"Drama"}, Year: 1994, Rating: 8},
		film.Film{ID: "b", Director: "X", Genres: []string{"Drama"}, Year: 2004, Rating: 8},
		film.Film{ID: "c", Director: "Y", Genres: []string{"Drama"}, Year: 1995, Rating: 6},
	)

	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"empty matches all", Criteria{}, []string{"a", "b", "c"}},
		{"director", Criteria{Director: "x"}, []string{"a", "b"}},
		{"director and decade", Criteria{Director: "x", Decade: 1990, HasDecade: true}, []string{"a"}},
		{"genre and rating", Criteria{Genre: "Drama", MinRating: 7, MaxRating: 9, HasRating: true}, []string{"a", "b"}},
		{"where", Criteria{Where: "year > 2000"}, []string{"b"}},
		{"where and director", Criteria{Director: "Y", Where: "rating < 7"}, []string{"c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Match(tt.criteria)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, filmIDs(got)); diff != "" {
				t.Errorf("Match(%s) (-want +got):\n%s", tt.criteria, diff)
			}
		})
	}
}

func TestCriteria_String(t *testing.T) {
	c := Criteria{Director: "Smith", Decade: 1994, HasDecade: true, MinRating: 6, MaxRating: 6.4, HasRating: true}
	if got, want := c.String(), "director=Smith decade=1990s rating=6.0-6.4"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if !(Criteria{Where: "  "}).IsZero() {
		t.Error("blank Where should count as zero")
	}
}
