// Package cli formats command results and errors for the terminal.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/filmdb/filmdb/internal/config"
	"github.com/filmdb/filmdb/internal/errhandling"
)

// maxCompactMessage truncates validation messages outside verbose mode.
const maxCompactMessage = 80

// PrintParseErrors prints configuration parse errors.
func PrintParseErrors(w io.Writer, errs []config.ParseError, verbose bool) {
	fmt.Fprintln(w, "✗ Parse errors:")
	for _, err := range errs {
		location := formatErrorLocation(err.Path, err.Line, err.Column)
		if location != "" {
			fmt.Fprintf(w, "  %s: %s\n", location, err.Message)
		} else {
			fmt.Fprintf(w, "  %s\n", err.Message)
		}
		if verbose && err.Type != "" {
			fmt.Fprintf(w, "    Type: %s\n", err.Type)
		}
	}
}

// formatErrorLocation returns path:line:column, omitting unknown parts.
func formatErrorLocation(path string, line, column int) string {
	if path == "" {
		return ""
	}
	location := path
	if line > 0 {
		location += fmt.Sprintf(":%d", line)
		if column > 0 {
			location += fmt.Sprintf(":%d", column)
		}
	}
	return location
}

// PrintValidationErrors prints schema validation errors.
func PrintValidationErrors(w io.Writer, errs []config.ValidationError, verbose, quiet bool) {
	fmt.Fprintln(w, "✗ Validation errors:")
	for _, err := range errs {
		path := err.Path
		if path == "" {
			path = "/"
		}
		if !verbose {
			msg := err.Message
			if len(msg) > maxCompactMessage {
				msg = msg[:maxCompactMessage-3] + "..."
			}
			fmt.Fprintf(w, "  %s: %s\n", path, msg)
			continue
		}
		fmt.Fprintf(w, "  %s:\n", path)
		fmt.Fprintf(w, "    Message: %s\n", err.Message)
		if err.Type != "" {
			fmt.Fprintf(w, "    Type: %s\n", err.Type)
		}
		if err.Expected != "" {
			fmt.Fprintf(w, "    Expected: %s\n", err.Expected)
		}
	}
	if !quiet && !verbose {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Hint: Use --verbose for detailed error information")
	}
}

// PrintError prints a command failure. Classified errors show their
// category; verbose mode adds the underlying cause.
func PrintError(w io.Writer, err error, verbose bool) {
	if err == nil {
		return
	}

	var classified *errhandling.ClassifiedError
	if !errors.As(err, &classified) {
		fmt.Fprintf(w, "✗ %v\n", err)
		return
	}

	fmt.Fprintf(w, "✗ %s error: %s\n", classified.Category, classified.Message)
	if verbose && classified.OriginalErr != nil {
		fmt.Fprintf(w, "  Cause: %v\n", classified.OriginalErr)
	}
}
