package port

import "errors"

var (
	// ErrItemUnavailable is returned by CreateTransaction when the
	// conditional status update matched no AVAILABLE row.
	ErrItemUnavailable = errors.New("item unavailable")

	// ErrDuplicateKey is returned when an insert or update violates a
	// storage-level unique constraint.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrUserReferenced is returned by DeleteUser when rows still
	// reference the user at delete time, e.g. a listing relisted after
	// the reference check.
	ErrUserReferenced = errors.New("user still referenced")
)
