package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/filmdb/filmdb/internal/logger"
)

// captureJSON redirects the package logger to a buffer for the duration of the test.
func captureJSON(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf, level, logger.FormatJSON)
	t.Cleanup(func() { logger.SetOutput(os.Stderr, slog.LevelInfo, logger.FormatJSON) })
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	line := strings.TrimSpace(strings.Split(buf.String(), "\n")[0])
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to parse JSON log output %q: %v", line, err)
	}
	return entry
}

func TestLoggerInitialization(t *testing.T) {
	if logger.Logger == nil {
		t.Fatal("Logger should be initialized on package load")
	}
}

func TestLogLoadEnd_Success(t *testing.T) {
	buf := captureJSON(t, slog.LevelInfo)

	logger.LogLoadEnd(logger.LoadStats{
		SourceKind:  "csv",
		Source:      "data/Top1500.csv",
		Rows:        3,
		Inserted:    2,
		Replaced:    1,
		CatalogSize: 2,
		Duration:    5 * time.Millisecond,
	}, nil)

	entry := decodeLine(t, buf)
	if entry["msg"] != "catalog load completed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["source_kind"] != "csv" || entry["inserted"] != float64(2) || entry["replaced"] != float64(1) {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestLogLoadEnd_ErrorIncludesChain(t *testing.T) {
	buf := captureJSON(t, slog.LevelInfo)

	err := fmt.Errorf("opening catalog: %w", errors.New("no such file"))
	logger.LogLoadEnd(logger.LoadStats{SourceKind: "csv", Source: "missing.csv"}, err)

	entry := decodeLine(t, buf)
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
	if entry["error_chain"] != "opening catalog: no such file -> no such file" {
		t.Errorf("error_chain = %v", entry["error_chain"])
	}
	if _, ok := entry["inserted"]; ok {
		t.Error("failed load should not report counters")
	}
}

func TestLogQuery_DebugOnly(t *testing.T) {
	buf := captureJSON(t, slog.LevelInfo)
	logger.LogQuery("genre", "Drama", 1, time.Millisecond)
	if buf.Len() != 0 {
		t.Errorf("query log should be suppressed at info level, got %q", buf.String())
	}

	buf = captureJSON(t, slog.LevelDebug)
	logger.LogQuery("genre", "Drama", 1, time.Millisecond)
	entry := decodeLine(t, buf)
	if entry["query"] != "genre" || entry["matches"] != float64(1) {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestHumanHandler(t *testing.T) {
	var buf bytes.Buffer
	h := logger.NewHumanHandler(&buf, &logger.HumanHandlerOptions{Level: slog.LevelInfo})
	l := slog.New(h).With("source_kind", "csv")

	l.Info("catalog load completed", "inserted", 2, "duration", 1500*time.Millisecond)
	l.Debug("hidden")
	l.Error("catalog load failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "✓ catalog load completed") {
		t.Errorf("missing success prefix: %q", lines[0])
	}
	if !strings.Contains(lines[0], "inserted=2") || !strings.Contains(lines[0], "duration=1.50s") || !strings.Contains(lines[0], "source_kind=csv") {
		t.Errorf("missing attributes: %q", lines[0])
	}
	if !strings.Contains(lines[1], "✗ catalog load failed") {
		t.Errorf("missing error prefix: %q", lines[1])
	}
}

func TestParseFormatAndLevel(t *testing.T) {
	if f, err := logger.ParseFormat("human"); err != nil || f != logger.FormatHuman {
		t.Errorf("ParseFormat(human) = %v, %v", f, err)
	}
	if f, err := logger.ParseFormat(""); err != nil || f != logger.FormatJSON {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
	if _, err := logger.ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
	if l, err := logger.ParseLevel("debug"); err != nil || l != slog.LevelDebug {
		t.Errorf("ParseLevel(debug) = %v, %v", l, err)
	}
	if _, err := logger.ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSetLogFile(t *testing.T) {
	_ = captureJSON(t, slog.LevelInfo)
	path := filepath.Join(t.TempDir(), "filmdb.log")

	if err := logger.SetLogFile(path, slog.LevelInfo, logger.FormatHuman); err != nil {
		t.Fatalf("SetLogFile() error = %v", err)
	}
	logger.Info("catalog load completed", "inserted", 1)
	logger.CloseLogFile()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"catalog load completed"`) {
		t.Errorf("log file missing entry: %q", content)
	}
}
