package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrChartNotFound indicates the requested chart does not exist
	ErrChartNotFound = errors.New("chart not found")

	// ErrSeatNotFound indicates a seat id that is not registered in the store.
	// Unlike an occupied seat this is fatal for the call: the caller is
	// working from a stale or corrupted view and must reload.
	ErrSeatNotFound = errors.New("seat not found")

	// ErrNoSeats indicates an operation was called with an empty seat set
	ErrNoSeats = errors.New("no seats specified")

	// ErrHoldMismatch indicates a commit whose seats are no longer covered
	// by the given hold (expired and reacquired elsewhere)
	ErrHoldMismatch = errors.New("seats no longer covered by hold")

	// ErrSeatNotBlockable indicates a block/unblock on a sold seat
	ErrSeatNotBlockable = errors.New("sold seats cannot be blocked or unblocked")
)

// ConflictError reports the exact seats that prevented an atomic acquire.
// It is a normal contention outcome, not a fault: the caller drops the
// listed seats from its request and retries or reports them to the buyer.
type ConflictError struct {
	Unavailable []uuid.UUID
}

func (e *ConflictError) Error() string {
	ids := make([]string, 0, len(e.Unavailable))
	for _, id := range e.Unavailable {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf("seats unavailable: %s", strings.Join(ids, ", "))
}

// IsConflict reports whether err is a seat conflict and returns the
// unavailable seats when it is.
func IsConflict(err error) ([]uuid.UUID, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Unavailable, true
	}
	return nil, false
}
