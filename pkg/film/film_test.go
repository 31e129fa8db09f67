package film

import "testing"

func TestDecadeStart(t *testing.T) {
	tests := []struct {
		year int
		want int
	}{
		{1990, 1990},
		{1994, 1990},
		{1999, 1990},
		{2000, 2000},
		{2009, 2000},
		{0, 0},
	}

	for _, tt := range tests {
		if got := DecadeStart(tt.year); got != tt.want {
			t.Errorf("DecadeStart(%d) = %d, want %d", tt.year, got, tt.want)
		}
	}
}

func TestFilm_InDecade(t *testing.T) {
	start := DecadeStart(1994)

	tests := []struct {
		name string
		year int
		want bool
	}{
		{name: "first year", year: 1990, want: true},
		{name: "last year", year: 1999, want: true},
		{name: "middle", year: 1994, want: true},
		{name: "year before", year: 1989, want: false},
		{name: "year after", year: 2000, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Film{ID: "tt1", Year: tt.year}
			if got := f.InDecade(start); got != tt.want {
				t.Errorf("InDecade(%d) with year %d = %v, want %v", start, tt.year, got, tt.want)
			}
		})
	}
}

func TestFilm_HasGenre(t *testing.T) {
	f := Film{ID: "tt1", Genres: []string{"Action", "Drama"}}

	tests := []struct {
		genre string
		want  bool
	}{
		{"Action", true},
		{"Drama", true},
		{"drama", false},
		{"Dram", false},
		{"Action,Drama", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := f.HasGenre(tt.genre); got != tt.want {
			t.Errorf("HasGenre(%q) = %v, want %v", tt.genre, got, tt.want)
		}
	}
}

func TestFilm_InRatingRange(t *testing.T) {
	f := Film{ID: "tt1", Rating: 5.5}

	if !f.InRatingRange(5.0, 6.0) {
		t.Error("expected 5.5 to be within [5.0, 6.0]")
	}
	if !f.InRatingRange(5.5, 5.5) {
		t.Error("expected inclusive bounds")
	}
	if f.InRatingRange(6.0, 5.0) {
		t.Error("reversed range must not match")
	}
}

func TestFilm_Clone(t *testing.T) {
	f := Film{ID: "tt1", Genres: []string{"Comedy"}}
	c := f.Clone()
	c.Genres[0] = "Horror"

	if f.Genres[0] != "Comedy" {
		t.Errorf("clone shares genres with original: %v", f.Genres)
	}
}
