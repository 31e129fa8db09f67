package loader

import "strings"

// DefaultGenreSeparator splits the genres cell.
const DefaultGenreSeparator = ","

// SplitGenres tokenizes a genres cell. Each token is trimmed, loses one
// leading and one trailing quote character, and is trimmed again; empty
// tokens are dropped. Order, duplicates and case are kept.
func SplitGenres(cell, sep string) []string {
	if sep == "" {
		sep = DefaultGenreSeparator
	}

	parts := strings.Split(cell, sep)
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		g := strings.TrimSpace(p)
		g = trimQuote(g)
		g = strings.TrimSpace(g)
		if g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

func trimQuote(s string) string {
	if len(s) > 0 && isQuote(s[0]) {
		s = s[1:]
	}
	if len(s) > 0 && isQuote(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	return s
}

func isQuote(b byte) bool {
	return b == '"' || b == '\''
}
