package render

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/filmdb/filmdb/internal/logger"
	"github.com/filmdb/filmdb/pkg/film"
)

// Template syntax constants
const (
	TemplatePrefix = "{{"
	TemplateSuffix = "}}"
)

// Error messages for template parsing
const (
	ErrMsgInvalidTemplateSyntax = "invalid template syntax"
	ErrMsgEmptyVariable         = "empty variable name"
)

// ErrInvalidTemplate wraps every template syntax error.
var ErrInvalidTemplate = errors.New(ErrMsgInvalidTemplateSyntax)

// templateVarRegex matches {{field}} and {{field | default: "value"}}.
// Group 1: field name
// Group 2: optional default clause
// Group 3: the default value itself (may be empty)
var templateVarRegex = regexp.MustCompile(`\{\{\s*([^|}]+?)(\s*\|\s*default:\s*"([^"]*)")?\s*\}\}`)

var emptyBracesRegex = regexp.MustCompile(`\{\{\s*\}\}`)

// Variable is one placeholder of a template.
type Variable struct {
	FullMatch    string // the matched text including {{ }}
	Name         string // film field name, e.g. "title"
	DefaultValue string
	HasDefault   bool
}

// Template renders one line per film from a pattern such as
//
//	{{title}} ({{year}}) by {{director | default: "unknown"}}
//
// Fields: id, title, director, genres, rating, year, decade.
// A Template is immutable after ParseTemplate and safe for concurrent use.
type Template struct {
	source    string
	variables []Variable
}

// ParseTemplate validates src and extracts its variables.
func ParseTemplate(src string) (*Template, error) {
	if err := ValidateSyntax(src); err != nil {
		return nil, err
	}

	matches := templateVarRegex.FindAllStringSubmatch(src, -1)
	vars := make([]Variable, 0, len(matches))
	for _, m := range matches {
		v := Variable{FullMatch: m[0], Name: strings.TrimSpace(m[1])}
		if m[2] != "" {
			v.DefaultValue = m[3]
			v.HasDefault = true
		}
		vars = append(vars, v)
	}
	return &Template{source: src, variables: vars}, nil
}

// Variables returns the parsed placeholders in order of appearance.
func (t *Template) Variables() []Variable {
	return t.variables
}

// Execute renders the template for f. Unknown fields render as the default
// value, or as an empty string when there is none.
func (t *Template) Execute(f film.Film) string {
	if len(t.variables) == 0 {
		return t.source
	}

	fields := filmFields(f)
	result := t.source
	for _, v := range t.variables {
		result = strings.Replace(result, v.FullMatch, resolve(v, fields), 1)
	}
	return result
}

func resolve(v Variable, fields map[string]string) string {
	value, found := fields[strings.ToLower(v.Name)]
	if found && value != "" {
		return value
	}
	if v.HasDefault {
		return v.DefaultValue
	}
	if !found {
		logger.Warn("template variable missing, using empty string", slog.String("field", v.Name))
	}
	return ""
}

func filmFields(f film.Film) map[string]string {
	return map[string]string{
		"id":       f.ID,
		"title":    f.Title,
		"director": f.Director,
		"genres":   strings.Join(f.Genres, ", "),
		"rating":   strconv.FormatFloat(f.Rating, 'f', 1, 64),
		"year":     strconv.Itoa(f.Year),
		"decade":   strconv.Itoa(f.Decade()) + "s",
	}
}

// ValidateSyntax reports unmatched or empty {{ }} placeholders.
func ValidateSyntax(src string) error {
	openCount := strings.Count(src, TemplatePrefix)
	closeCount := strings.Count(src, TemplateSuffix)
	if openCount != closeCount {
		return fmt.Errorf("%w: unmatched template delimiters (found %d '{{' and %d '}}')",
			ErrInvalidTemplate, openCount, closeCount)
	}
	if openCount == 0 {
		return nil
	}

	if emptyBracesRegex.MatchString(src) {
		return fmt.Errorf("%w: %s", ErrInvalidTemplate, ErrMsgEmptyVariable)
	}

	// "}}{{" balances the count but pairs nothing
	remainder := templateVarRegex.ReplaceAllString(src, "")
	if strings.Contains(remainder, TemplatePrefix) || strings.Contains(remainder, TemplateSuffix) {
		return fmt.Errorf("%w: stray '{{' or '}}' found", ErrInvalidTemplate)
	}
	return nil
}
