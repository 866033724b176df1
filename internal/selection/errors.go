package selection

import "errors"

// ErrTooManySeats is returned when a request asks for more seats than
// one search is allowed to propose.
var ErrTooManySeats = errors.New("requested quantity exceeds the per-request maximum")
