// Package catalog provides the in-memory film store.
//
// The Store is an insertion-ordered map from film id to film.Film. It owns
// every record it holds: films are copied on the way in and on the way out,
// so callers never share memory with the store.
//
// Loads (writers) and queries (readers) are serialized by a sync.RWMutex.
// Traversal works on a snapshot taken under the read lock, which makes every
// call to All an independent, restartable iterator with no shared cursor.
package catalog

import (
	"iter"
	"sync"

	"github.com/filmdb/filmdb/pkg/film"
)

// Store holds the loaded catalog. The zero value is an empty store ready
// to use.
type Store struct {
	mu      sync.RWMutex
	index   map[string]int
	entries []film.Film
}

// New returns an empty store.
func New() *Store {
	return &Store{index: make(map[string]int)}
}

// Insert adds f, replacing any entry with the same id.
// A replaced entry keeps its original traversal position.
// It reports whether an existing entry was replaced.
func (s *Store) Insert(f film.Film) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(f)
}

// InsertAll adds every film in order under a single write lock and
// returns how many existing entries were replaced.
func (s *Store) InsertAll(films []film.Film) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := 0
	for _, f := range films {
		if s.insertLocked(f) {
			replaced++
		}
	}
	return replaced
}

func (s *Store) insertLocked(f film.Film) bool {
	f = f.Clone()
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[f.ID]; ok {
		s.entries[i] = f
		return true
	}
	s.index[f.ID] = len(s.entries)
	s.entries = append(s.entries, f)
	return false
}

// Lookup returns the film stored under id.
func (s *Store) Lookup(id string) (film.Film, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return film.Film{}, false
	}
	return s.entries[i].Clone(), true
}

// All returns a lazy sequence of (id, film) pairs in insertion order.
// The sequence reflects the store at the moment iteration starts; inserts
// made while ranging over it are not observed.
func (s *Store) All() iter.Seq2[string, film.Film] {
	return func(yield func(string, film.Film) bool) {
		for _, f := range s.snapshot() {
			if !yield(f.ID, f.Clone()) {
				return
			}
		}
	}
}

// Films returns a copy of every stored film in insertion order.
func (s *Store) Films() []film.Film {
	snap := s.snapshot()
	out := make([]film.Film, len(snap))
	for i, f := range snap {
		out[i] = f.Clone()
	}
	return out
}

// snapshot copies the entry slice header and values under the read lock.
// Genre slices are cloned by the callers before they leave the package.
func (s *Store) snapshot() []film.Film {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make([]film.Film, len(s.entries))
	copy(snap, s.entries)
	return snap
}

// Len returns the number of stored films.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops every stored film.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = make(map[string]int)
	s.entries = nil
}

// Replace swaps the whole catalog for films under a single write lock.
// Readers see either the old catalog or the new one, never an empty store.
func (s *Store) Replace(films []film.Film) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = make(map[string]int, len(films))
	s.entries = make([]film.Film, 0, len(films))
	for _, f := range films {
		s.insertLocked(f)
	}
}
