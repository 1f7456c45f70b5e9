package reportversions

import "errors"

var (
	// ErrNotFound indicates a report version was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden indicates the version belongs to another user.
	ErrForbidden = errors.New("forbidden")
)
