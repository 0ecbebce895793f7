package model

import "errors"

// Error categories. Every domain error wraps exactly one of these so callers
// can match on the category with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("conflict")
)

// Pagination errors
var (
	ErrInvalidPage  = validationError("page must be a positive integer")
	ErrPageNotFound = notFoundError("page")
)

func notFoundError(what string) error {
	return &categorized{category: ErrNotFound, msg: what + " not found"}
}

func validationError(msg string) error {
	return &categorized{category: ErrValidation, msg: msg}
}

func permissionError(msg string) error {
	return &categorized{category: ErrPermissionDenied, msg: msg}
}

func conflictError(msg string) error {
	return &categorized{category: ErrConflict, msg: msg}
}

// categorized is a sentinel error that reports its own message and unwraps
// to its category.
type categorized struct {
	category error
	msg      string
}

func (e *categorized) Error() string { return e.msg }

func (e *categorized) Unwrap() error { return e.category }

// Message returns the message of the domain error inside err, without the
// context added by wrapping. Errors with no domain error inside return "".
func Message(err error) string {
	var c *categorized
	if errors.As(err, &c) {
		return c.msg
	}
	return ""
}
