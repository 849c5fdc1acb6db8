package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("expense not found")
	ErrRequired      = errors.New("is required")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyName     = errors.New("empty name")
	ErrEmptyCategory = errors.New("empty category")
)

// ValidationError lists the fields that failed validation. Nothing is
// mutated when it is returned.
type ValidationError struct {
	Fields []string
	Errs   []error
}

func (e *ValidationError) add(field string, err error) {
	e.Fields = append(e.Fields, field)
	e.Errs = append(e.Errs, err)
}

// Required builds a ValidationError for empty required fields.
func Required(fields ...string) *ValidationError {
	verr := &ValidationError{}
	for _, f := range fields {
		verr.add(f, ErrRequired)
	}
	return verr
}

// Invalid builds a ValidationError for a single malformed field.
func Invalid(field string, err error) *ValidationError {
	verr := &ValidationError{}
	verr.add(field, err)
	return verr
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = e.Fields[i] + ": " + err.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// MissingRequired reports whether any field failed for being empty.
func (e *ValidationError) MissingRequired() bool {
	for _, err := range e.Errs {
		if errors.Is(err, ErrRequired) {
			return true
		}
	}
	return false
}

func (e *ValidationError) Unwrap() []error {
	return e.Errs
}

// StorageError wraps a failure reading or writing the persisted blob.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
