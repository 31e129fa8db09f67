// Package errhandling provides error types, classification, and retry utilities.
// This file defines the error categories and how arbitrary errors map onto them.
package errhandling

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net"
)

// ErrorCategory tells callers how to react to a failure.
type ErrorCategory string

// Error categories. Only CategoryDatabase is retryable; the others need a
// change of input, configuration or environment before a second try helps.
const (
	CategoryIO         ErrorCategory = "io"         // source cannot be opened or read
	CategoryParse      ErrorCategory = "parse"      // malformed CSV, criteria or expression
	CategoryValidation ErrorCategory = "validation" // bad configuration or arguments
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryDatabase   ErrorCategory = "database" // connection or query failure of a SQL source
	CategoryUnknown    ErrorCategory = "unknown"
)

// ClassifiedError attaches a category to an underlying error.
type ClassifiedError struct {
	Category    ErrorCategory
	Retryable   bool
	Message     string
	OriginalErr error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Category, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("%s error: %s", e.Category, e.Message)
}

// Unwrap returns the original error for use with errors.Is and errors.As.
func (e *ClassifiedError) Unwrap() error {
	return e.OriginalErr
}

// ClassifyError classifies any error into a ClassifiedError.
//
// Classification rules:
//   - Already classified: returned unchanged
//   - context.DeadlineExceeded, net errors: Database (retryable)
//   - context.Canceled: Unknown (not retryable - user initiated)
//   - fs.ErrNotExist, fs.ErrPermission, *fs.PathError: IO (not retryable)
//   - sql.ErrNoRows: NotFound (not retryable)
//   - anything else: Unknown (not retryable)
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return newClassified(CategoryUnknown, "nil error", nil)
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.Canceled) {
		return newClassified(CategoryUnknown, "canceled", err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewDatabaseError("timeout", err)
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return NewDatabaseError("network error", err)
	}

	var pathErr *fs.PathError
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) || errors.As(err, &pathErr) {
		return NewIOError("cannot open source", err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return NewNotFoundError("no rows", err)
	}

	return newClassified(CategoryUnknown, err.Error(), err)
}

// IsRetryable reports whether err classifies as retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return ClassifyError(err).Retryable
}

// IsFatal reports whether err belongs to a category that retrying cannot fix.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	switch GetErrorCategory(err) {
	case CategoryIO, CategoryParse, CategoryValidation, CategoryNotFound:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the first ClassifiedError in
// err's chain, or CategoryUnknown.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Category
	}

	return CategoryUnknown
}

func newClassified(category ErrorCategory, message string, err error) *ClassifiedError {
	return &ClassifiedError{
		Category:    category,
		Retryable:   category == CategoryDatabase,
		Message:     message,
		OriginalErr: err,
	}
}

// NewIOError reports a source that could not be opened or read.
func NewIOError(message string, err error) *ClassifiedError {
	return newClassified(CategoryIO, message, err)
}

// NewParseError reports malformed input.
func NewParseError(message string, err error) *ClassifiedError {
	return newClassified(CategoryParse, message, err)
}

// NewValidationError reports invalid configuration or arguments.
func NewValidationError(message string, err error) *ClassifiedError {
	return newClassified(CategoryValidation, message, err)
}

// NewNotFoundError reports a missing record.
func NewNotFoundError(message string, err error) *ClassifiedError {
	return newClassified(CategoryNotFound, message, err)
}

// NewDatabaseError reports a transient SQL source failure. It is retryable.
func NewDatabaseError(message string, err error) *ClassifiedError {
	return newClassified(CategoryDatabase, message, err)
}
