package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/filmdb/filmdb/internal/errhandling"
)

// Config is the typed filmdb configuration.
type Config struct {
	Catalog  CatalogConfig
	Database DatabaseConfig
	Server   ServerConfig
	Log      LogConfig
}

// CatalogConfig selects and shapes the catalog source.
type CatalogConfig struct {
	// Source is the source kind: csv or database
	Source string
	// Path is the CSV file loaded at startup (may be empty)
	Path string
	// Delimiter is the CSV field separator
	Delimiter rune
	// Layout is a column layout preset: imdb, legacy or simple. Empty
	// selects the preset matching Source; see LayoutName.
	Layout string
	// Columns overrides individual layout positions
	Columns map[string]int
	// GenreSeparator splits the genres cell
	GenreSeparator string
	// Strict rejects rows with malformed numbers instead of zeroing them
	Strict bool
}

// DatabaseConfig configures the SQL catalog source.
type DatabaseConfig struct {
	Driver string
	DSN    string
	Query  string
	// QueryFile is read when Query is empty
	QueryFile string
	Timeout   time.Duration
	Retry     errhandling.RetryConfig
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int
	Env  string
	// ReloadInterval reloads the catalog periodically; zero disables it
	ReloadInterval time.Duration
	// ReloadSchedule is a cron expression; it takes precedence over ReloadInterval
	ReloadSchedule string
	Limiter        LimiterConfig
}

// LimiterConfig configures per-client rate limiting.
type LimiterConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// ParseResult contains the result of parsing a configuration file.
type ParseResult struct {
	// Data contains the parsed configuration as a map
	Data map[string]interface{}
	// Errors contains any parsing errors encountered
	Errors []ParseError
	// FilePath is the path to the parsed file (empty if parsed from string)
	FilePath string
	// Format indicates the detected format (json, yaml)
	Format string
}

// IsValid returns true if no parsing errors occurred.
func (r *ParseResult) IsValid() bool {
	return len(r.Errors) == 0
}

// ParseError represents a parsing error with location information.
type ParseError struct {
	Path    string
	Line    int // 1-based, 0 if unknown
	Column  int // 1-based, 0 if unknown
	Offset  int64
	Message string
	// Type is one of ErrorTypeIO, ErrorTypeSyntax, ErrorTypeFormat
	Type string
}

// Error implements the error interface.
func (e ParseError) Error() string {
	var sb strings.Builder
	if e.Path != "" {
		sb.WriteString(e.Path)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, "line %d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&sb, ", column %d", e.Column)
		}
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	return sb.String()
}

// ValidationResult contains the result of validating a configuration.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidationError represents a schema or semantic validation error.
type ValidationError struct {
	// Path is the JSON pointer of the offending value, e.g. "/server/port"
	Path string
	// Type is the error type (required, type, enum, range, ...)
	Type     string
	Expected string
	Message  string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Result contains the combined result of parsing and validation.
type Result struct {
	Data             map[string]interface{}
	ParseErrors      []ParseError
	ValidationErrors []ValidationError
	FilePath         string
	Format           string
}

// IsValid returns true if no errors occurred.
func (r *Result) IsValid() bool {
	return len(r.ParseErrors) == 0 && len(r.ValidationErrors) == 0
}

// Err folds the result into a single classified error, or nil when valid.
// Parse errors take precedence over validation errors.
func (r *Result) Err() error {
	switch {
	case len(r.ParseErrors) > 0:
		return errhandling.NewParseError(
			fmt.Sprintf("cannot parse configuration %s", r.FilePath), r.ParseErrors[0])
	case len(r.ValidationErrors) > 0:
		return errhandling.NewValidationError(
			fmt.Sprintf("invalid configuration %s (%d errors)", r.FilePath, len(r.ValidationErrors)), r.ValidationErrors[0])
	default:
		return nil
	}
}

// FormatErrorType constants for categorizing parse errors.
const (
	ErrorTypeIO     = "io"
	ErrorTypeSyntax = "syntax"
	ErrorTypeFormat = "format"
)
