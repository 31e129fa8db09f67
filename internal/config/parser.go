// Package config loads the filmdb configuration file.
//
// A configuration is JSON or YAML. It is parsed into a generic map,
// validated against the embedded JSON Schema, and converted into a typed
// Config with defaults filled in. Command-line flags override file values
// in cmd/filmdb.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Parse reads, parses and validates the configuration file at filepath.
// The format is detected from the extension, then from the content.
func Parse(filepath string) *Result {
	result := &Result{FilePath: filepath}

	content, err := os.ReadFile(filepath)
	if err != nil {
		result.ParseErrors = append(result.ParseErrors, ParseError{
			Path:    filepath,
			Message: fmt.Sprintf("failed to read file: %v", err),
			Type:    ErrorTypeIO,
		})
		return result
	}

	parsed := parse(string(content), DetectFormat(filepath))
	for i := range parsed.Errors {
		if parsed.Errors[i].Path == "" {
			parsed.Errors[i].Path = filepath
		}
	}
	return finish(result, parsed)
}

// ParseString parses and validates content. An empty format is detected
// from the content.
func ParseString(content, format string) *Result {
	return finish(&Result{}, parse(content, format))
}

func finish(result *Result, parsed *ParseResult) *Result {
	result.Data = parsed.Data
	result.ParseErrors = parsed.Errors
	result.Format = parsed.Format
	if !parsed.IsValid() {
		return result
	}
	result.ValidationErrors = ValidateConfig(parsed.Data).Errors
	return result
}

func parse(content, format string) *ParseResult {
	if format == "" {
		switch {
		case IsJSON(content):
			format = FormatJSON
		case IsYAML(content):
			format = FormatYAML
		default:
			return &ParseResult{Errors: []ParseError{{
				Message: "unable to detect configuration format: not valid JSON or YAML",
				Type:    ErrorTypeFormat,
			}}}
		}
	}

	switch format {
	case FormatJSON:
		return parseJSON(content)
	case FormatYAML:
		return parseYAML(content)
	default:
		return &ParseResult{Format: format, Errors: []ParseError{{
			Message: fmt.Sprintf("unsupported format: %s", format),
			Type:    ErrorTypeFormat,
		}}}
	}
}

// DetectFormat returns "json", "yaml", or "" from the file extension.
func DetectFormat(filepath string) string {
	switch strings.ToLower(path.Ext(filepath)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return ""
	}
}

// IsJSON checks if the content appears to be JSON.
func IsJSON(content string) bool {
	content = strings.TrimSpace(content)
	return strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[")
}

// IsYAML checks if the content parses as a non-empty YAML document.
// JSON is also valid YAML.
func IsYAML(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	var data interface{}
	err := yaml.Unmarshal([]byte(content), &data)
	return err == nil && data != nil
}

// ============================================================================
// JSON
// ============================================================================

func parseJSON(content string) *ParseResult {
	result := &ParseResult{Format: FormatJSON}

	content = strings.TrimSpace(content)
	if content == "" {
		result.Errors = append(result.Errors, ParseError{
			Message: "empty content: expected JSON object",
			Type:    ErrorTypeSyntax,
		})
		return result
	}

	var data interface{}
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		result.Errors = append(result.Errors, parseJSONError(err, content))
		return result
	}
	return toMap(result, data, "JSON object")
}

// parseJSONError extracts line and column from a JSON decoding error.
func parseJSONError(err error, content string) ParseError {
	parseErr := ParseError{Message: err.Error(), Type: ErrorTypeSyntax}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		parseErr.Offset = syntaxErr.Offset
		parseErr.Line, parseErr.Column = offsetToLineColumn(content, syntaxErr.Offset)
		parseErr.Message = fmt.Sprintf("JSON syntax error at offset %d: %s", syntaxErr.Offset, syntaxErr.Error())
	}
	return parseErr
}

// offsetToLineColumn converts a byte offset to 1-based line and column.
func offsetToLineColumn(content string, offset int64) (line, column int) {
	line, column = 1, 1
	for i := int64(0); i < offset && i < int64(len(content)); i++ {
		if content[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}

// ============================================================================
// YAML
// ============================================================================

func parseYAML(content string) *ParseResult {
	result := &ParseResult{Format: FormatYAML}

	if strings.TrimSpace(content) == "" {
		result.Errors = append(result.Errors, ParseError{
			Message: "empty content: expected YAML document",
			Type:    ErrorTypeSyntax,
		})
		return result
	}

	var data interface{}
	if err := yaml.Unmarshal([]byte(content), &data); err != nil {
		result.Errors = append(result.Errors, parseYAMLError(err))
		return result
	}
	return toMap(result, data, "YAML mapping")
}

// parseYAMLError reads the line number yaml.v3 embeds in its messages
// ("yaml: line X: ...").
func parseYAMLError(err error) ParseError {
	parseErr := ParseError{Message: err.Error(), Type: ErrorTypeSyntax}

	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		parseErr.Message = fmt.Sprintf("YAML type error: %s", strings.Join(typeErr.Errors, "; "))
	}

	var line int
	if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr == nil {
		parseErr.Line = line
	}
	return parseErr
}

// toMap stores data in result if it is an object. A null document leaves
// Data nil and is rejected by validation.
func toMap(result *ParseResult, data interface{}, want string) *ParseResult {
	if data == nil {
		return result
	}
	m, ok := data.(map[string]interface{})
	if !ok {
		result.Errors = append(result.Errors, ParseError{
			Message: fmt.Sprintf("invalid configuration: expected %s, got %T", want, data),
			Type:    ErrorTypeFormat,
		})
		return result
	}
	result.Data = m
	return result
}
