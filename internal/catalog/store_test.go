package catalog

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/filmdb/filmdb/pkg/film"
)

func ids(s *Store) []string {
	var out []string
	for id := range s.All() {
		out = append(out, id)
	}
	return out
}

func TestStore_InsertLookup(t *testing.T) {
	s := New()
	f := film.Film{ID: "tt001", Title: "Alpha", Genres: []string{"Action"}, Year: 1994, Rating: 8.1}

	if replaced := s.Insert(f); replaced {
		t.Fatal("first insert reported a replacement")
	}

	got, ok := s.Lookup("tt001")
	if !ok {
		t.Fatal("expected tt001 to be found")
	}
	if diff := cmp.Diff(f, got); diff != "" {
		t.Errorf("Lookup mismatch (-want +got):\n%s", diff)
	}

	if _, ok := s.Lookup("tt999"); ok {
		t.Error("expected tt999 to be missing")
	}
}

func TestStore_DuplicateIDLastWriteWins(t *testing.T) {
	s := New()
	s.Insert(film.Film{ID: "a", Title: "first"})
	s.Insert(film.Film{ID: "b", Title: "second"})

	if replaced := s.Insert(film.Film{ID: "a", Title: "third"}); !replaced {
		t.Error("expected duplicate insert to report replacement")
	}

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	got, _ := s.Lookup("a")
	if got.Title != "third" {
		t.Errorf("Title = %q, want %q", got.Title, "third")
	}
	if diff := cmp.Diff([]string{"a", "b"}, ids(s)); diff != "" {
		t.Errorf("replaced entry moved (-want +got):\n%s", diff)
	}
}

func TestStore_InsertAll(t *testing.T) {
	s := New()
	s.Insert(film.Film{ID: "x"})

	replaced := s.InsertAll([]film.Film{{ID: "y"}, {ID: "x"}, {ID: "z"}, {ID: "y"}})
	if replaced != 2 {
		t.Errorf("replaced = %d, want 2", replaced)
	}
	if diff := cmp.Diff([]string{"x", "y", "z"}, ids(s)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_AllIsInsertionOrderedAndRestartable(t *testing.T) {
	s := New()
	want := make([]string, 0, 50)
	for i := 50; i > 0; i-- {
		id := fmt.Sprintf("tt%03d", i)
		want = append(want, id)
		s.Insert(film.Film{ID: id})
	}

	first := ids(s)
	second := ids(s)
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("first traversal (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second traversal differs (-first +second):\n%s", diff)
	}
}

func TestStore_AllEarlyBreak(t *testing.T) {
	s := New()
	for i := 0; i < 10; i++ {
		s.Insert(film.Film{ID: fmt.Sprint(i)})
	}

	n := 0
	for range s.All() {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("visited %d entries, want 3", n)
	}
}

func TestStore_AllIgnoresInsertsDuringTraversal(t *testing.T) {
	s := New()
	s.Insert(film.Film{ID: "a"})
	s.Insert(film.Film{ID: "b"})

	visited := 0
	for id := range s.All() {
		visited++
		s.Insert(film.Film{ID: id + "-copy"})
	}

	if visited != 2 {
		t.Errorf("visited = %d, want 2", visited)
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
}

func TestStore_ReturnedFilmsAreCopies(t *testing.T) {
	s := New()
	genres := []string{"Drama"}
	s.Insert(film.Film{ID: "a", Genres: genres})
	genres[0] = "mutated by caller"

	got, _ := s.Lookup("a")
	if got.Genres[0] != "Drama" {
		t.Fatalf("store shares input slice: %v", got.Genres)
	}

	got.Genres[0] = "mutated by reader"
	again, _ := s.Lookup("a")
	if again.Genres[0] != "Drama" {
		t.Errorf("store shares output slice: %v", again.Genres)
	}
}

func TestStore_Clear(t *testing.T) {
	s := New()
	s.InsertAll([]film.Film{{ID: "a"}, {ID: "b"}})
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("Len() after Clear = %d", s.Len())
	}
	if _, ok := s.Lookup("a"); ok {
		t.Error("Lookup found an entry after Clear")
	}
	if got := ids(s); len(got) != 0 {
		t.Errorf("All() after Clear = %v", got)
	}

	s.Insert(film.Film{ID: "c"})
	if diff := cmp.Diff([]string{"c"}, ids(s)); diff != "" {
		t.Errorf("store unusable after Clear (-want +got):\n%s", diff)
	}
}

func TestStore_Replace(t *testing.T) {
	s := New()
	s.InsertAll([]film.Film{{ID: "a"}, {ID: "b"}})

	s.Replace([]film.Film{{ID: "c"}, {ID: "a", Title: "New"}, {ID: "c", Title: "Dup"}})

	if diff := cmp.Diff([]string{"c", "a"}, ids(s)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if _, ok := s.Lookup("b"); ok {
		t.Error("expected b to be dropped")
	}
	if f, _ := s.Lookup("c"); f.Title != "Dup" {
		t.Errorf("expected last write to win, got %q", f.Title)
	}
}

func TestStore_ConcurrentReadersAndWriter(t *testing.T) {
	s := New()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.Insert(film.Film{ID: fmt.Sprint(i % 20), Genres: []string{"g"}})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				for _, f := range s.All() {
					_ = f.HasGenre("g")
				}
				s.Lookup("3")
			}
		}()
	}

	wg.Wait()
	if s.Len() != 20 {
		t.Errorf("Len() = %d, want 20", s.Len())
	}
}

func TestStore_ZeroValue(t *testing.T) {
	var s Store

	if _, ok := s.Lookup("tt1"); ok {
		t.Error("Lookup on an empty store found a film")
	}
	if s.Insert(film.Film{ID: "tt1", Title: "First"}) {
		t.Error("first Insert reported a replacement")
	}
	if !s.Insert(film.Film{ID: "tt1", Title: "Second"}) {
		t.Error("second Insert should replace")
	}
	if f, ok := s.Lookup("tt1"); !ok || f.Title != "Second" {
		t.Errorf("Lookup() = %+v, %v", f, ok)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}
