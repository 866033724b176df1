package inventory

import (
	"context"

	"github.com/google/uuid"
)

// Store is the single source of truth for live seat status. Every
// status mutation in the system goes through one of its transition
// operations; nothing else may flip a seat's state.
//
// All transitions are atomic over the full seat set involved: they
// either apply to every seat or to none, under any interleaving of
// concurrent callers.
type Store interface {
	// Register seeds or refreshes the live state for a chart's seats.
	// Seats already registered keep their current status unless the
	// catalog reports a terminal one (SOLD, BLOCKED supersede).
	Register(ctx context.Context, states []SeatState) error

	// TryAcquire transitions every seat from AVAILABLE to HELD under
	// holdID. If any seat is not available the whole operation fails,
	// no seat is mutated, and the result lists the unavailable subset.
	// Contention is a normal outcome reported in the result; an error
	// return means the call itself was invalid (unknown seat, empty
	// set).
	TryAcquire(ctx context.Context, holdID string, seatIDs []uuid.UUID) (*AcquireResult, error)

	// Release transitions every seat held under holdID back to
	// AVAILABLE and clears the hold reference. Idempotent: releasing a
	// hold that covers nothing returns an empty list.
	Release(ctx context.Context, holdID string) ([]uuid.UUID, error)

	// Commit transitions every seat held under holdID to SOLD
	// (terminal), tagging them with orderID. Fails with ErrHoldMismatch
	// if the hold no longer covers the seats it acquired, which tells
	// the caller its hold expired and checkout must restart.
	Commit(ctx context.Context, holdID string, orderID string) ([]uuid.UUID, error)

	// SetBlocked transitions seats between AVAILABLE and BLOCKED for
	// operational use. Sold seats are refused; held seats are released
	// from their hold as a side effect of blocking.
	SetBlocked(ctx context.Context, seatIDs []uuid.UUID, blocked bool) error

	// Snapshot returns a consistent point-in-time view of seat states
	// passing the filter. No torn reads: the returned states all
	// belong to the same store version.
	Snapshot(ctx context.Context, filter SnapshotFilter) ([]SeatState, error)

	// States fetches specific seats by id. Unknown ids fail the call.
	States(ctx context.Context, seatIDs []uuid.UUID) ([]SeatState, error)

	// HoldSeats lists the seats currently held under holdID.
	HoldSeats(ctx context.Context, holdID string) ([]uuid.UUID, error)

	// Version returns the store-wide change counter. It increments on
	// every successful transition, letting pollers skip unchanged
	// state cheaply.
	Version(ctx context.Context) (uint64, error)
}
