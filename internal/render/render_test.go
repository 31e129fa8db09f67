package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/filmdb/filmdb/internal/errhandling"
	"github.com/filmdb/filmdb/pkg/film"
)

var heat = film.Film{
	ID:       "tt0113277",
	Title:    "Heat",
	Director: "Michael Mann",
	Genres:   []string{"Crime", "Drama"},
	Rating:   8.3,
	Year:     1995,
}

func TestLine(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindID, "Title: Heat, Year: 1995"},
		{KindDirector, "ID: tt0113277, Title: Heat, Year: 1995, Genres: Crime, Drama"},
		{KindGenre, "ID: tt0113277, Title: Heat, Director: Michael Mann, Year: 1995"},
		{KindRating, "ID: tt0113277, Title: Heat, Director: Michael Mann, Year: 1995"},
		{KindDecade, "ID: tt0113277, Title: Heat, Director: Michael Mann, Genres: Crime, Drama"},
		{KindDecadeGenre, "ID: tt0113277, Title: Heat, Director: Michael Mann, Rating: 8.3"},
		{KindWhere, "ID: tt0113277, Title: Heat, Director: Michael Mann, Year: 1995, Rating: 8.3, Genres: Crime, Drama"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := Line(tt.kind, heat); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrinter_Text(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, FormatText, "")
	if err != nil {
		t.Fatal(err)
	}

	other := heat
	other.ID = "tt2"
	if err := p.Films(KindGenre, "Crime", []film.Film{heat, other}); err != nil {
		t.Fatal(err)
	}
	if err := p.Films(KindDirector, "Nobody", nil); err != nil {
		t.Fatal(err)
	}
	if err := p.NotFound("tt999"); err != nil {
		t.Fatal(err)
	}
	if err := p.Film(heat); err != nil {
		t.Fatal(err)
	}

	want := "ID: tt0113277, Title: Heat, Director: Michael Mann, Year: 1995\n" +
		"ID: tt2, Title: Heat, Director: Michael Mann, Year: 1995\n" +
		"no films found for director Nobody\n" +
		"film with id tt999 does not exist\n" +
		"Title: Heat, Year: 1995\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	p, _ := NewPrinter(&buf, FormatJSON, "")

	if err := p.Films(KindGenre, "Crime", []film.Film{heat}); err != nil {
		t.Fatal(err)
	}
	var got []film.Film
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, buf.String())
	}
	if diff := cmp.Diff([]film.Film{heat}, got); diff != "" {
		t.Errorf("decoded films (-want +got):\n%s", diff)
	}

	buf.Reset()
	if err := p.Films(KindGenre, "Western", nil); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "[]\n" {
		t.Errorf("empty result = %q, want []", got)
	}

	buf.Reset()
	if err := p.NotFound("tt1"); err != nil {
		t.Fatal(err)
	}
	var msg map[string]string
	if err := json.Unmarshal(buf.Bytes(), &msg); err != nil {
		t.Fatal(err)
	}
	if msg["error"] != "film with id tt1 does not exist" {
		t.Errorf("not-found JSON = %v", msg)
	}
}

func TestPrinter_Template(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, FormatTemplate, `{{title}} ({{year}}) - {{ budget | default: "n/a" }}`)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Films(KindWhere, "", []film.Film{heat}); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "Heat (1995) - n/a\n"; got != want {
		t.Errorf("template output = %q, want %q", got, want)
	}
}

func TestNewPrinter_Errors(t *testing.T) {
	if _, err := NewPrinter(nil, FormatTemplate, ""); errhandling.GetErrorCategory(err) != errhandling.CategoryValidation {
		t.Errorf("missing pattern error = %v", err)
	}
	if _, err := NewPrinter(nil, FormatTemplate, "{{title}"); errhandling.GetErrorCategory(err) != errhandling.CategoryValidation {
		t.Errorf("bad pattern error = %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON, " template ": FormatTemplate} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) expected error")
	}
}

func TestNoMatchesMessage(t *testing.T) {
	tests := []struct {
		kind     Kind
		criteria string
		want     string
	}{
		{KindGenre, "Western", "no films found for genre Western"},
		{KindDecade, "1920s", "no films found for the 1920s"},
		{KindRating, "9.8 and 10.0", "no films found with a rating between 9.8 and 10.0"},
		{KindWhere, "", "no films found"},
		{KindWhere, "year < 1900", "no films found matching year < 1900"},
	}
	for _, tt := range tests {
		if got := NoMatchesMessage(tt.kind, tt.criteria); got != tt.want {
			t.Errorf("NoMatchesMessage(%s, %q) = %q, want %q", tt.kind, tt.criteria, got, tt.want)
		}
	}
}

func TestCriteriaLabels(t *testing.T) {
	if got := DecadeLabel(1994); got != "1990s" {
		t.Errorf("DecadeLabel(1994) = %q", got)
	}
	if got := RatingCriteria(6, 6.4); got != "6.0 and 6.4" {
		t.Errorf("RatingCriteria = %q", got)
	}
	if got := DecadeGenreCriteria(1971, "Crime"); got != "Crime in the 1970s" {
		t.Errorf("DecadeGenreCriteria = %q", got)
	}
}
