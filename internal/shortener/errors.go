package shortener

import "errors"

var (
	// ErrInvalidURL rejects creation requests whose original URL is not an
	// absolute http/https URI.
	ErrInvalidURL = errors.New("invalid original URL")

	// ErrAliasUnavailable covers both malformed and already-claimed custom
	// back-halves. Callers fix the request, they do not retry.
	ErrAliasUnavailable = errors.New("custom back-half is not available")

	// ErrCodeCollision is the residual race after the advisory availability
	// check passed: the unique index rejected the insert. Retryable.
	ErrCodeCollision = errors.New("short code already in use")

	// ErrAllocationUnavailable means the sequence could not be advanced.
	// There is no safe application-side fallback.
	ErrAllocationUnavailable = errors.New("id allocation unavailable")
)
