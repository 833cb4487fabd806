package models

import "errors"

// Validation sentinels. The store wraps these when a remote document fails
// its Validate check, so callers can distinguish malformed data from
// connectivity failures with errors.Is.
var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidValue = errors.New("invalid field value")
)
