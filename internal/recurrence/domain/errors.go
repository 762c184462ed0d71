package recurrence

import "errors"

var (
	// ErrNilRecurrence is returned when a sweep is invoked without a recurrence.
	ErrNilRecurrence = errors.New("recurrence: nil recurrence")
	// ErrUnsupportedFrequency aborts a sweep before any write.
	ErrUnsupportedFrequency = errors.New("recurrence: unsupported frequency")
	// ErrMissingStartDate is returned when a recurrence has no projectable cursor.
	ErrMissingStartDate = errors.New("recurrence: start date required")
	// ErrNotFound is returned when a recurrence lookup misses.
	ErrNotFound = errors.New("recurrence: not found")
)
