package holds

import "errors"

var (
	// ErrHoldNotFound is returned when no hold exists for the given id,
	// neither live in the registry nor in the audit trail.
	ErrHoldNotFound = errors.New("hold not found")

	// ErrHoldNotActive is returned when an operation requires a live hold
	// but the hold has already expired, been released, or been committed.
	ErrHoldNotActive = errors.New("hold is no longer active")

	// ErrExtendLimit is returned when an extension would not move the
	// expiry forward because the hold is already at its lifetime ceiling.
	ErrExtendLimit = errors.New("hold has reached its maximum lifetime")

	// ErrInvalidSeatID is returned when a request carries a seat id that
	// is not a valid UUID.
	ErrInvalidSeatID = errors.New("invalid seat id")

	// ErrSeatsSpanCharts is returned when a single hold request mixes
	// seats from more than one chart.
	ErrSeatsSpanCharts = errors.New("seats must belong to a single chart")
)
