// Package apperr holds the sentinel errors shared across Arkadia packages.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrMalformedEnvelope = errors.New("malformed envelope")
)
