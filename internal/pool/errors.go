package pool

import "errors"

// Sentinel errors returned by Manager operations. Validation and book-level
// errors from internal/book are returned unwrapped where the caller's
// operation maps directly onto a book call; see spec.md §7.
var (
	ErrInvalidPair  = errors.New("pool: base and quote token must differ")
	ErrPairExists   = errors.New("pool: pair already exists")
	ErrPairNotFound = errors.New("pool: pair not found")
	ErrNoRouteFound = errors.New("pool: no route found")
)
