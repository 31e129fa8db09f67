package query

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/filmdb/filmdb/internal/errhandling"
	"github.com/filmdb/filmdb/internal/logger"
	"github.com/filmdb/filmdb/pkg/film"
)

// Error codes for expression queries
const (
	ErrCodeInvalidExpression = "INVALID_EXPRESSION"
	ErrCodeEvaluationFailed  = "EVALUATION_FAILED"
)

// Expression errors
var (
	ErrEmptyExpression   = errors.New("expression cannot be empty")
	ErrInvalidExpression = errors.New("invalid expression syntax")
)

// ExpressionError carries context for a failed evaluation.
type ExpressionError struct {
	Code       string
	Message    string
	Expression string
	FilmID     string
	Err        error
}

func (e *ExpressionError) Error() string {
	return e.Message
}

func (e *ExpressionError) Unwrap() error {
	return e.Err
}

// Expression is a compiled boolean filter over a film. The environment
// exposes id, title, director, genres, rating, year and decade, e.g.
//
//	rating >= 8 && "Drama" in genres && decade == 1990
type Expression struct {
	source  string
	program *vm.Program
}

// Compile parses src. Unknown identifiers evaluate to nil rather than
// failing, matching films that lack the field.
func Compile(src string) (*Expression, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errhandling.NewParseError("cannot compile expression", ErrEmptyExpression)
	}

	program, err := expr.Compile(src, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, errhandling.NewParseError("cannot compile expression", &ExpressionError{
			Code:       ErrCodeInvalidExpression,
			Message:    fmt.Sprintf("%v: %v", ErrInvalidExpression, err),
			Expression: src,
			Err:        ErrInvalidExpression,
		})
	}

	logger.Debug("expression compiled", slog.String("expression", src))
	return &Expression{source: src, program: program}, nil
}

// String returns the expression source.
func (x *Expression) String() string {
	return x.source
}

// Match evaluates the expression against f.
func (x *Expression) Match(f film.Film) (bool, error) {
	out, err := expr.Run(x.program, env(f))
	if err != nil {
		return false, &ExpressionError{
			Code:       ErrCodeEvaluationFailed,
			Message:    fmt.Sprintf("expression evaluation failed for film %s: %v", f.ID, err),
			Expression: x.source,
			FilmID:     f.ID,
			Err:        err,
		}
	}
	// Non-boolean results never match.
	ok, _ := out.(bool)
	return ok, nil
}

func env(f film.Film) map[string]interface{} {
	return map[string]interface{}{
		"id":       f.ID,
		"title":    f.Title,
		"director": f.Director,
		"genres":   f.Genres,
		"rating":   f.Rating,
		"year":     f.Year,
		"decade":   f.Decade(),
	}
}

// Where returns the films matching the expression src.
func (e *Engine) Where(src string) ([]film.Film, error) {
	x, err := Compile(src)
	if err != nil {
		return nil, err
	}
	return e.filter("where", src, And(), x)
}

// filter scans with p and then x. The first evaluation error aborts the scan.
func (e *Engine) filter(kind, criteria string, p Predicate, x *Expression) ([]film.Film, error) {
	start := time.Now()
	matches := []film.Film{}
	for _, f := range e.store.All() {
		if !p(f) {
			continue
		}
		ok, err := x.Match(f)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, f)
		}
	}
	logger.LogQuery(kind, criteria, len(matches), time.Since(start))
	return matches, nil
}
