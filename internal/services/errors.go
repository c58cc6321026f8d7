package services

import "errors"

// Sentinel errors for the feedback pipeline. Callers match with errors.Is;
// wrapping adds step and record context without losing the category.
var (
	// ErrValidation marks a malformed record or feedback payload. Caller bug,
	// not retryable.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an unknown record id.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyRated marks a duplicate feedback submission. Ratings are
	// write-once; the first submission wins and later ones are rejected.
	ErrAlreadyRated = errors.New("feedback already attached")

	// ErrBusy marks a rejected improvement cycle because one is already
	// running. Retryable later.
	ErrBusy = errors.New("improvement cycle already running")

	// ErrExport marks a dataset write failure. Retryable after the
	// destination is fixed.
	ErrExport = errors.New("export failed")
)
