package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeConfig         ErrorType = "CONFIG"
	ErrTypeNotFound       ErrorType = "NOT_FOUND"
	ErrTypeSchema         ErrorType = "SCHEMA"
	ErrTypeEmptyResult    ErrorType = "EMPTY_RESULT"
	ErrTypeEmptyRange     ErrorType = "EMPTY_RANGE"
	ErrTypeEmptyContainer ErrorType = "EMPTY_CONTAINER"
	ErrTypeParsing        ErrorType = "PARSING"
	ErrTypeStorage        ErrorType = "STORAGE"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether any AppError in err's chain has the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	for err != nil {
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Type == errType {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// TypeOf returns the type of the outermost AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Helper functions for common error types

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewMissingCyclesError creates a not found error naming every missing cycle
// number in ascending order.
func NewMissingCyclesError(cycles []int) *AppError {
	sorted := append([]int(nil), cycles...)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, c := range sorted {
		parts[i] = fmt.Sprintf("%d", c)
	}

	label := "cycle"
	if len(sorted) > 1 {
		label = "cycles"
	}
	return NewAppError(ErrTypeNotFound,
		fmt.Sprintf("%s %s not found", label, strings.Join(parts, ", ")), nil).
		WithContext("missing_cycles", sorted)
}

// NewSchemaError creates an error naming the required columns that are absent.
func NewSchemaError(source string, missing []string) *AppError {
	return NewAppError(ErrTypeSchema,
		fmt.Sprintf("missing required columns in %s: %s", source, strings.Join(missing, ", ")), nil).
		WithContext("missing_columns", missing)
}

// NewEmptyResultError creates an error for an analysis that produced nothing
func NewEmptyResultError(analyzer string) *AppError {
	return NewAppError(ErrTypeEmptyResult, fmt.Sprintf("%s analysis produced no results", analyzer), nil)
}

// NewEmptyRangeError creates an error for a cycle window with no loaded cycles
func NewEmptyRangeError(start, end int) *AppError {
	return NewAppError(ErrTypeEmptyRange, fmt.Sprintf("no cycles loaded in range %d-%d", start, end), nil).
		WithContext("start", start).
		WithContext("end", end)
}

// NewEmptyContainerError creates an error for a container with no cycles
func NewEmptyContainerError(source string) *AppError {
	return NewAppError(ErrTypeEmptyContainer, fmt.Sprintf("no cycles loaded from %s", source), nil)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}
