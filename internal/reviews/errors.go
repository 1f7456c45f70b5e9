package reviews

import "errors"

var (
	// ErrNotFound indicates a review was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden indicates the review belongs to another user.
	ErrForbidden = errors.New("forbidden")

	ErrProposalNotFound = errors.New("proposal not found")

	// ErrNothingDecided is returned when apply is requested before any decision.
	ErrNothingDecided = errors.New("no decided proposals")

	// ErrAlreadyApplied indicates the review is applying or applied and no longer editable.
	ErrAlreadyApplied = errors.New("review already applied")

	ErrMissingReport = errors.New("report text missing")

	// ErrInvalidLLMOutput indicates the model returned nothing usable.
	ErrInvalidLLMOutput = errors.New("invalid llm output")
)
