package session

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSelectionLimit    = errors.New("selection limit reached")
	ErrSeatNotSelectable = errors.New("seat is not selectable")
	ErrSeatNotSelected   = errors.New("seat is not in the selection")
	ErrSeatHeld          = errors.New("held seats are released through the hold, not deselected")
	ErrNoSelection       = errors.New("no seats selected")
	ErrHoldActive        = errors.New("session already has an active hold")
	ErrHoldInFlight      = errors.New("a hold request is already in flight")
	ErrNoActiveHold      = errors.New("session has no active hold")
	ErrChartMismatch     = errors.New("seat belongs to a different chart")
)
