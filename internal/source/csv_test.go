package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/filmdb/filmdb/internal/errhandling"
)

func readAll(t *testing.T, r Reader) [][]string {
	t.Helper()
	var rows [][]string
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return rows
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		rows = append(rows, rec)
	}
}

func TestCSVReader_ReadsRowsWithVaryingWidth(t *testing.T) {
	input := "\ufeffid,title\n" +
		"tt1,\"Alpha, the film\"\n" +
		"tt2\n"

	r := NewCSVReader(strings.NewReader(input), 0)
	got := readAll(t, r)
	want := [][]string{
		{"id", "title"},
		{"tt1", "Alpha, the film"},
		{"tt2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() on unowned reader = %v", err)
	}
}

func TestCSVReader_CustomDelimiter(t *testing.T) {
	r := NewCSVReader(strings.NewReader("a;b;c\n1;2;3\n"), ';')
	got := readAll(t, r)
	if diff := cmp.Diff([][]string{{"a", "b", "c"}, {"1", "2", "3"}}, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVReader_MalformedIsParseError(t *testing.T) {
	r := NewCSVReader(strings.NewReader("h\n\"unterminated\n"), 0)
	if _, err := r.Next(); err != nil {
		t.Fatalf("header: %v", err)
	}

	_, err := r.Next()
	if err == nil {
		t.Fatal("expected an error for an unterminated quote")
	}
	if got := errhandling.GetErrorCategory(err); got != errhandling.CategoryParse {
		t.Errorf("category = %q, want %q", got, errhandling.CategoryParse)
	}
}

func TestOpenCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "films.csv")
	if err := os.WriteFile(path, []byte("id\ntt1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		wantErr  bool
		category errhandling.ErrorCategory
	}{
		{name: "existing file", path: path},
		{name: "missing file", path: filepath.Join(dir, "nope.csv"), wantErr: true, category: errhandling.CategoryIO},
		{name: "empty path", path: "  ", wantErr: true, category: errhandling.CategoryValidation},
		{name: "nul byte", path: "films\x00.csv", wantErr: true, category: errhandling.CategoryValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Open(context.Background(), Config{Kind: KindCSV, Path: tt.path})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if got := errhandling.GetErrorCategory(err); got != tt.category {
					t.Errorf("category = %q, want %q", got, tt.category)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer r.Close()
			if rows := readAll(t, r); len(rows) != 2 {
				t.Errorf("read %d rows, want 2", len(rows))
			}
		})
	}
}

func TestOpen_DefaultKindAndUnknownKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "films.csv")
	if err := os.WriteFile(path, []byte("id\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := Open(context.Background(), Config{Path: path})
	if err != nil {
		t.Fatalf("Open() with empty kind: %v", err)
	}
	if _, ok := r.(*CSVReader); !ok {
		t.Errorf("empty kind opened %T, want *CSVReader", r)
	}
	r.Close()

	_, err = Open(context.Background(), Config{Kind: "ftp"})
	if got := errhandling.GetErrorCategory(err); got != errhandling.CategoryValidation {
		t.Errorf("unknown kind category = %q, want validation", got)
	}
}

func TestRegistry(t *testing.T) {
	if diff := cmp.Diff([]string{KindCSV, KindDatabase}, Kinds()); diff != "" {
		t.Errorf("Kinds() mismatch (-want +got):\n%s", diff)
	}

	Register("memory", func(_ context.Context, _ Config) (Reader, error) {
		return NewCSVReader(strings.NewReader("id\nm1\n"), 0), nil
	})
	t.Cleanup(func() {
		registryMu.Lock()
		delete(registry, "memory")
		registryMu.Unlock()
	})

	r, err := Open(context.Background(), Config{Kind: "memory"})
	if err != nil {
		t.Fatalf("Open(memory) error = %v", err)
	}
	if rows := readAll(t, r); len(rows) != 2 {
		t.Errorf("read %d rows, want 2", len(rows))
	}
}
