package store

import (
	"errors"
	"fmt"
)

// CodeResourceExhausted is the stable error code surfaced to API clients
// when the document store rejects an operation for exceeding its read or
// write quota.
const CodeResourceExhausted = "resource-exhausted"

// ErrResourceExhausted is the sentinel wrapped by store implementations
// when the remote store reports rate or quota exhaustion. Callers detect it
// with errors.Is and surface a retry affordance instead of a generic
// failure. The operation is not retried automatically.
var ErrResourceExhausted = errors.New(CodeResourceExhausted)

// QuotaError carries the underlying store error alongside the stable code.
type QuotaError struct {
	Err error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s: %v", CodeResourceExhausted, e.Err)
}

func (e *QuotaError) Unwrap() error { return e.Err }

func (e *QuotaError) Is(target error) bool { return target == ErrResourceExhausted }

// Code returns the stable error code for an error, or the empty string for
// errors that carry none.
func Code(err error) string {
	if errors.Is(err, ErrResourceExhausted) {
		return CodeResourceExhausted
	}
	return ""
}
