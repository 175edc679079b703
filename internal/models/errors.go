package models

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes failures crossing component boundaries
type ErrorKind int

const (
	// ErrParse means the uploaded archive was malformed or missing
	// required control fields. Nothing was persisted.
	ErrParse ErrorKind = iota

	// ErrDuplicate means the (name, version, architecture) key is
	// already cataloged. The existing row is untouched.
	ErrDuplicate

	// ErrStorage means an I/O or database failure during artifact
	// write or catalog insert. The operation is transactional, so a
	// retry is safe.
	ErrStorage

	// ErrGeneration means an index rebuild failed before publishing.
	// Previously published files are untouched.
	ErrGeneration
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case ErrParse:
		return "Parse"
	case ErrDuplicate:
		return "Duplicate"
	case ErrStorage:
		return "Storage"
	case ErrGeneration:
		return "Generation"
	default:
		return "Unknown"
	}
}

// Error is a categorized repository error
type Error struct {
	Kind    ErrorKind
	Package string // natural key, when known
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Package, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError builds a categorized error around err
func WrapError(kind ErrorKind, pkg string, err error) *Error {
	return &Error{Kind: kind, Package: pkg, Err: err}
}

// Kind extracts the category of err, or -1 if err is uncategorized
func Kind(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrorKind(-1)
}

// IsParse reports whether err is a parse failure
func IsParse(err error) bool { return Kind(err) == ErrParse }

// IsDuplicate reports whether err is a natural-key collision
func IsDuplicate(err error) bool { return Kind(err) == ErrDuplicate }

// IsStorage reports whether err is a storage failure
func IsStorage(err error) bool { return Kind(err) == ErrStorage }

// IsGeneration reports whether err is a generation failure
func IsGeneration(err error) bool { return Kind(err) == ErrGeneration }
