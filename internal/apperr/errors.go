// Package apperr defines sentinel errors shared across the ingestion pipeline.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrNoHandler means no extractor claimed the input. It is terminal for
	// that input and must not be retried.
	ErrNoHandler = errors.New("no handler for content")
	ErrFetch     = errors.New("fetch failed")
	ErrParse     = errors.New("unexpected document structure")
)
