package ledger

import "errors"

var (
	// ErrNilEntry is returned when writing a nil entry.
	ErrNilEntry = errors.New("ledger: nil entry")
	// ErrInvalidDirection is returned for an unknown movement direction.
	ErrInvalidDirection = errors.New("ledger: invalid direction")
	// ErrDuplicateEntry is returned when an (origin tag, due date) pair
	// already exists. The store enforces this invariant at write time.
	ErrDuplicateEntry = errors.New("ledger: duplicate entry for origin tag and due date")
)
