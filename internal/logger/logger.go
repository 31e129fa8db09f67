// Package logger provides structured logging functionality.
// It wraps the standard log/slog package for consistent logging across filmdb.
//
// Logs are written to stderr so that stdout carries only query results.
// The package provides helpers for catalog loads and queries with consistent,
// snake_case field names.
//
// The package supports two output formats:
//   - JSON (default): Machine-readable structured logging
//   - Human: Human-readable console output with colors and prefixes
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Logger is the default logger instance.
var Logger *slog.Logger

// console is where console logs go; tests swap it for a buffer.
var console io.Writer = os.Stderr

func init() {
	Logger = slog.New(slog.NewJSONHandler(console, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// SetLevel configures the logging level, keeping JSON output.
func SetLevel(level slog.Level) {
	SetLevelAndFormat(level, FormatJSON)
}

// SetOutput redirects console logging to w with the given level and format.
func SetOutput(w io.Writer, level slog.Level, format OutputFormat) {
	console = w
	SetLevelAndFormat(level, format)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// WithSource returns a logger with catalog source context.
func WithSource(kind, location string) *slog.Logger {
	return Logger.With("source_kind", kind, "source", location)
}

// =============================================================================
// Catalog Load Helpers
// =============================================================================

// LoadStats summarizes one catalog load for logging.
type LoadStats struct {
	// SourceKind is the registered source kind (csv, database)
	SourceKind string
	// Source is the path or DSN-free description of the source
	Source string
	// Rows is the number of data rows read (header excluded)
	Rows int
	// Inserted is the number of films added as new entries
	Inserted int
	// Replaced is the number of films that overwrote an existing id
	Replaced int
	// Skipped is the number of rows rejected
	Skipped int
	// CatalogSize is the store size after the load
	CatalogSize int
	// Duration is the wall time of the load
	Duration time.Duration
}

// LogLoadStart logs the start of a catalog load.
func LogLoadStart(kind, source string) {
	Logger.Info("catalog load started",
		slog.String("source_kind", kind),
		slog.String("source", source),
	)
}

// LogLoadEnd logs the outcome of a catalog load.
// A non-nil err is logged at error level with its unwrap chain.
func LogLoadEnd(stats LoadStats, err error) {
	attrs := []any{
		slog.String("source_kind", stats.SourceKind),
		slog.String("source", stats.Source),
		slog.Duration("duration", stats.Duration),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		if chain := errorChain(err); chain != "" {
			attrs = append(attrs, slog.String("error_chain", chain))
		}
		Logger.Error("catalog load failed", attrs...)
		return
	}

	attrs = append(attrs,
		slog.Int("rows", stats.Rows),
		slog.Int("inserted", stats.Inserted),
		slog.Int("replaced", stats.Replaced),
		slog.Int("skipped", stats.Skipped),
		slog.Int("catalog_size", stats.CatalogSize),
	)
	Logger.Info("catalog load completed", attrs...)
}

// LogQuery logs a finished query at debug level.
func LogQuery(kind, criteria string, matches int, duration time.Duration) {
	Logger.Debug("query completed",
		slog.String("query", kind),
		slog.String("criteria", criteria),
		slog.Int("matches", matches),
		slog.Duration("duration", duration),
	)
}

// errorChain renders the Unwrap chain of err, or "" when there is none.
func errorChain(err error) string {
	chain := []string{err.Error()}
	for cur := errors.Unwrap(err); cur != nil; cur = errors.Unwrap(cur) {
		chain = append(chain, cur.Error())
	}
	if len(chain) == 1 {
		return ""
	}
	return strings.Join(chain, " -> ")
}

// OutputFormat selects the console encoding.
type OutputFormat int

const (
	FormatJSON  OutputFormat = iota // one JSON object per line
	FormatHuman                     // "15:04:05 ✓ message key=value" lines
)

// ParseFormat maps "json" and "human" to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "human", "text":
		return FormatHuman, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format %q (want json or human)", s)
	}
}

// ParseLevel maps debug/info/warn/error to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// SetFormat switches the console format at info level.
func SetFormat(format OutputFormat) {
	SetLevelAndFormat(slog.LevelInfo, format)
}

// SetLevelAndFormat replaces Logger with a console logger.
func SetLevelAndFormat(level slog.Level, format OutputFormat) {
	Logger = slog.New(newConsoleHandler(level, format))
}

func newConsoleHandler(level slog.Level, format OutputFormat) slog.Handler {
	if format == FormatHuman {
		return NewHumanHandler(console, &HumanHandlerOptions{Level: level, UseColors: true})
	}
	return slog.NewJSONHandler(console, &slog.HandlerOptions{Level: level})
}

// HumanHandlerOptions configures a HumanHandler.
type HumanHandlerOptions struct {
	Level slog.Level
	// UseColors allows coloured prefixes. Colour is still dropped when the
	// writer is not a terminal.
	UseColors bool
}

// maxInlineAttrs caps the attributes printed after the message.
const maxInlineAttrs = 6

// HumanHandler writes one short line per record for people watching a terminal.
type HumanHandler struct {
	opts   HumanHandlerOptions
	writer io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	styles prefixStyles
}

type prefixStyles struct {
	err, warn, success, info, debug lipgloss.Style
}

func newPrefixStyles(w io.Writer) prefixStyles {
	r := lipgloss.NewRenderer(w)
	return prefixStyles{
		err:     r.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		success: r.NewStyle().Foreground(lipgloss.Color("#10B981")),
		info:    r.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
		debug:   r.NewStyle().Faint(true),
	}
}

// NewHumanHandler returns a handler writing to w. A nil opts logs at info.
func NewHumanHandler(w io.Writer, opts *HumanHandlerOptions) *HumanHandler {
	if opts == nil {
		opts = &HumanHandlerOptions{Level: slog.LevelInfo}
	}
	return &HumanHandler{
		opts:   *opts,
		writer: w,
		mu:     &sync.Mutex{},
		styles: newPrefixStyles(w),
	}
}

func (h *HumanHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

func (h *HumanHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]string, 0, r.NumAttrs()+len(h.attrs))
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, formatAttr(a))
		return true
	})
	for _, a := range h.attrs {
		attrs = append(attrs, formatAttr(a))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s", r.Time.Format("15:04:05"), h.prefix(r.Level, r.Message), r.Message)
	if len(attrs) > 0 {
		shown := attrs[:min(len(attrs), maxInlineAttrs)]
		sb.WriteString(" " + strings.Join(shown, " "))
		if extra := len(attrs) - len(shown); extra > 0 {
			fmt.Fprintf(&sb, " (+%d more)", extra)
		}
	}
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, sb.String())
	return err
}

func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup is a no-op; groups are flattened in human output.
func (h *HumanHandler) WithGroup(_ string) slog.Handler {
	return h
}

// prefix picks the level glyph. Info records about completed or loaded
// work get a check mark.
func (h *HumanHandler) prefix(level slog.Level, message string) string {
	lower := strings.ToLower(message)
	success := strings.Contains(lower, "completed") || strings.Contains(lower, "loaded")

	var glyph string
	var style lipgloss.Style
	switch {
	case level >= slog.LevelError:
		glyph, style = "✗", h.styles.err
	case level >= slog.LevelWarn:
		glyph, style = "⚠", h.styles.warn
	case level >= slog.LevelInfo && success:
		glyph, style = "✓", h.styles.success
	case level >= slog.LevelInfo:
		glyph, style = "ℹ", h.styles.info
	default:
		glyph, style = "·", h.styles.debug
	}
	if !h.opts.UseColors {
		return glyph
	}
	return style.Render(glyph)
}

func formatAttr(a slog.Attr) string {
	switch v := a.Value.Any().(type) {
	case time.Duration:
		return a.Key + "=" + formatDuration(v)
	case float64:
		return fmt.Sprintf("%s=%.2f", a.Key, v)
	default:
		return fmt.Sprintf("%s=%v", a.Key, v)
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
}

// logFile is the file opened by SetLogFile, if any.
var logFile *os.File

// maxLogFileSize triggers rotation of an existing log file on open.
const maxLogFileSize = 10 << 20

// rotateLogFile moves an oversized path aside as path.YYYYMMDD-HHMMSS.
func rotateLogFile(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("checking log file size: %w", err)
	case info.Size() < maxLogFileSize:
		return nil
	}
	rotated := path + "." + time.Now().Format("20060102-150405")
	if err := os.Rename(path, rotated); err != nil {
		return fmt.Errorf("rotating log file: %w", err)
	}
	return nil
}

// SetLogFile tees logs to path as JSON while the console keeps consoleFormat.
func SetLogFile(path string, level slog.Level, consoleFormat OutputFormat) error {
	CloseLogFile()

	if err := rotateLogFile(path); err != nil {
		Warn("log rotation failed", slog.String("error", err.Error()))
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	logFile = f

	Logger = slog.New(&dualHandler{
		console: newConsoleHandler(level, consoleFormat),
		file:    slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}),
	})
	Debug("log file opened", slog.String("path", path))
	return nil
}

// CloseLogFile flushes and closes the file opened by SetLogFile.
func CloseLogFile() {
	if logFile == nil {
		return
	}
	if err := errors.Join(logFile.Sync(), logFile.Close()); err != nil {
		Warn("failed to close log file", slog.String("error", err.Error()))
	}
	logFile = nil
}

// dualHandler is a slog.Handler that writes to both console and file handlers.
type dualHandler struct {
	console slog.Handler
	file    slog.Handler
}

func (d *dualHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return d.console.Enabled(ctx, level) || d.file.Enabled(ctx, level)
}

func (d *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	if d.console.Enabled(ctx, r.Level) {
		if err := d.console.Handle(ctx, r); err != nil {
			return err
		}
	}
	if d.file.Enabled(ctx, r.Level) {
		if err := d.file.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (d *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{
		console: d.console.WithAttrs(attrs),
		file:    d.file.WithAttrs(attrs),
	}
}

func (d *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{
		console: d.console.WithGroup(name),
		file:    d.file.WithGroup(name),
	}
}
