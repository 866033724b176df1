package inventory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seatFixture(chartID uuid.UUID, section, category, row string, number int) SeatState {
	return SeatState{
		SeatID:   uuid.New(),
		ChartID:  chartID,
		Label:    fmt.Sprintf("%s%d", row, number),
		Section:  section,
		Row:      row,
		Number:   number,
		Position: Position{X: 10 + float64(number)*4, Y: 20},
		Category: category,
		Price:    100,
		Status:   StatusAvailable,
	}
}

// newSeededStore registers four orchestra seats on one chart and returns
// their ids in registration order.
func newSeededStore(t *testing.T) (*MemoryStore, uuid.UUID, []uuid.UUID) {
	t.Helper()

	store := NewMemoryStore()
	chartID := uuid.New()

	states := make([]SeatState, 0, 4)
	ids := make([]uuid.UUID, 0, 4)
	for i := 1; i <= 4; i++ {
		st := seatFixture(chartID, "Orchestra", "orchestra", "A", i)
		states = append(states, st)
		ids = append(ids, st.SeatID)
	}
	require.NoError(t, store.Register(context.Background(), states))

	return store, chartID, ids
}

func seatStatus(t *testing.T, store *MemoryStore, id uuid.UUID) SeatState {
	t.Helper()
	states, err := store.States(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)
	require.Len(t, states, 1)
	return states[0]
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("registers seats as available", func(t *testing.T) {
		store, chartID, ids := newSeededStore(t)

		snap, err := store.Snapshot(ctx, SnapshotFilter{ChartID: chartID})
		require.NoError(t, err)
		require.Len(t, snap, len(ids))
		for _, st := range snap {
			assert.Equal(t, StatusAvailable, st.Status)
		}
	})

	t.Run("re-registration keeps live status", func(t *testing.T) {
		store, _, ids := newSeededStore(t)

		res, err := store.TryAcquire(ctx, "hold-1", ids[:1])
		require.NoError(t, err)
		require.True(t, res.OK)

		// The catalog still says AVAILABLE; the live hold must survive
		// a refresh.
		refresh := seatStatus(t, store, ids[0])
		refresh.Status = StatusAvailable
		refresh.HoldID = ""
		require.NoError(t, store.Register(ctx, []SeatState{refresh}))

		st := seatStatus(t, store, ids[0])
		assert.Equal(t, StatusHeld, st.Status)
		assert.Equal(t, "hold-1", st.HoldID)
	})

	t.Run("terminal catalog status supersedes", func(t *testing.T) {
		store, _, ids := newSeededStore(t)

		res, err := store.TryAcquire(ctx, "hold-1", ids[:1])
		require.NoError(t, err)
		require.True(t, res.OK)

		sold := seatStatus(t, store, ids[0])
		sold.Status = StatusSold
		sold.HoldID = ""
		sold.OrderID = "order-1"
		require.NoError(t, store.Register(ctx, []SeatState{sold}))

		st := seatStatus(t, store, ids[0])
		assert.Equal(t, StatusSold, st.Status)
		assert.Equal(t, "order-1", st.OrderID)

		// The hold no longer covers its seat, so a commit is refused.
		_, err = store.Commit(ctx, "hold-1", "order-2")
		assert.ErrorIs(t, err, ErrHoldMismatch)
	})
}

func TestTryAcquire(t *testing.T) {
	ctx := context.Background()

	t.Run("acquires all seats in one transition", func(t *testing.T) {
		store, _, ids := newSeededStore(t)

		res, err := store.TryAcquire(ctx, "hold-1", ids[:3])
		require.NoError(t, err)
		require.True(t, res.OK)
		assert.Empty(t, res.Unavailable)

		states, err := store.States(ctx, ids[:3])
		require.NoError(t, err)
		version := states[0].Version
		for _, st := range states {
			assert.Equal(t, StatusHeld, st.Status)
			assert.Equal(t, "hold-1", st.HoldID)
			// One transition, one version: no per-seat increments.
			assert.Equal(t, version, st.Version)
		}

		held, err := store.HoldSeats(ctx, "hold-1")
		require.NoError(t, err)
		assert.ElementsMatch(t, ids[:3], held)
	})

	t.Run("partial conflict mutates nothing", func(t *testing.T) {
		store, _, ids := newSeededStore(t)

		res, err := store.TryAcquire(ctx, "hold-1", ids[:2])
		require.NoError(t, err)
		require.True(t, res.OK)

		before, err := store.Version(ctx)
		require.NoError(t, err)

		// Seats 1 and 2 overlap the first hold; 2 and 3 are free.
		res, err = store.TryAcquire(ctx, "hold-2", ids)
		require.NoError(t, err)
		require.False(t, res.OK)
		assert.ElementsMatch(t, ids[:2], res.Unavailable)

		// The free seats were not flipped and the version did not move.
		for _, id := range ids[2:] {
			assert.Equal(t, StatusAvailable, seatStatus(t, store, id).Status)
		}
		after, err := store.Version(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)

		held, err := store.HoldSeats(ctx, "hold-2")
		require.NoError(t, err)
		assert.Empty(t, held)
	})

	t.Run("unknown seat fails the call", func(t *testing.T) {
		store, _, ids := newSeededStore(t)

		_, err := store.TryAcquire(ctx, "hold-1", []uuid.UUID{ids[0], uuid.New()})
		assert.ErrorIs(t, err, ErrSeatNotFound)

		// The known seat was not touched.
		assert.Equal(t, StatusAvailable, seatStatus(t, store, ids[0]).Status)
	})

	t.Run("empty seat set is rejected", func(t *testing.T) {
		store, _, _ := newSeededStore(t)

		_, err := store.TryAcquire(ctx, "hold-1", nil)
		assert.ErrorIs(t, err, ErrNoSeats)
	})

	t.Run("only one concurrent acquirer wins", func(t *testing.T) {
		store, _, ids := newSeededStore(t)

		const contenders = 16
		var wg sync.WaitGroup
		wins := make([]bool, contenders)

		for i := 0; i < contenders; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				res, err := store.TryAcquire(ctx, fmt.Sprintf("hold-%d", n), ids[:2])
				if err == nil && res.OK {
					wins[n] = true
				}
			}(i)
		}
		wg.Wait()

		winners := 0
		winner := ""
		for i, won := range wins {
			if won {
				winners++
				winner = fmt.Sprintf("hold-%d", i)
			}
		}
		require.Equal(t, 1, winners)

		for _, id := range ids[:2] {
			st := seatStatus(t, store, id)
			assert.Equal(t, StatusHeld, st.Status)
			assert.Equal(t, winner, st.HoldID)
		}
	})
}

func TestRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("returns held seats to available", func(t *testing.T) {
		store, _, ids := newSeededStore(t)

		res, err := store.TryAcquire(ctx, "hold-1", ids[:2])
		require.NoError(t, err)
		require.True(t, res.OK)

		released, err := store.Release(ctx, "hold-1")
		require.NoError(t, err)
		assert.ElementsMatch(t, ids[:2], released)

		for _, id := range ids[:2] {
			st := seatStatus(t, store, id)
			assert.Equal(t, StatusAvailable, st.Status)
			assert.Empty(t, st.HoldID)
		}
	})

	t.Run("release is idempotent", func(t *testing.T) {
		store, _, ids := newSeededStore(t)

		res, err := store.TryAcquire(ctx, "hold-1", ids[:2])
		require.NoError(t, err)
		require.True(t, res.OK)

		_, err = store.Release(ctx, "hold-1")
		require.NoError(t, err)

		before, err := store.Version(ctx)
		require.NoError(t, err)

		released, err := store.Release(ctx, "hold-1")
		require.NoError(t, err)
		assert.Empty(t, released)

		// A no-op release is not a transition.
		after, err := store.Version(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("release of unknown hold is empty", func(t *testing.T) {
		store, _, _ := newSeededStore(t)

		released, err := store.Release(ctx, "never-existed")
		require.NoError(t, err)
		assert.Empty(t, released)
	})
}

func TestCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("commits held seats as sold", func(t *testing.T) {
		store, _, ids := newSeededStore(t)

		res, err := store.TryAcquire(ctx, "hold-1", ids[:2])
		require.NoError(t, err)
		require.True(t, res.OK)

		committed, err := store.Commit(ctx, "hold-1", "order-9")
		require.NoError(t, err)
		assert.ElementsMatch(t, ids[:2], committed)

		for _, id := range ids[:2] {
			st := seatStatus(t, store, id)
			assert.Equal(t, StatusSold, st.Status)
			assert.Equal(t, "order-9", st.OrderID)
			assert.Empty(t, st.HoldID)
		}

		// Sold seats never come back.
		acq, err := store.TryAcquire(ctx, "hold-2", ids[:1])
		require.NoError(t, err)
		assert.False(t, acq.OK)
		assert.ElementsMatch(t, ids[:1], acq.Unavailable)
	})

	t.Run("commit after release is a mismatch", func(t *testing.T) {
		store, _, ids := newSeededStore(t)

		res, err := store.TryAcquire(ctx, "hold-1", ids[:2])
		require.NoError(t, err)
		require.True(t, res.OK)

		_, err = store.Release(ctx, "hold-1")
		require.NoError(t, err)

		_, err = store.Commit(ctx, "hold-1", "order-9")
		assert.ErrorIs(t, err, ErrHoldMismatch)
	})

	t.Run("double commit is a mismatch", func(t *testing.T) {
		store, _, ids := newSeededStore(t)

		res, err := store.TryAcquire(ctx, "hold-1", ids[:2])
		require.NoError(t, err)
		require.True(t, res.OK)

		_, err = store.Commit(ctx, "hold-1", "order-9")
		require.NoError(t, err)

		_, err = store.Commit(ctx, "hold-1", "order-10")
		assert.ErrorIs(t, err, ErrHoldMismatch)
	})
}

func TestSetBlocked(t *testing.T) {
	ctx := context.Background()

	t.Run("blocks and unblocks available seats", func(t *testing.T) {
		store, _, ids := newSeededStore(t)

		require.NoError(t, store.SetBlocked(ctx, ids[:2], true))
		for _, id := range ids[:2] {
			assert.Equal(t, StatusBlocked, seatStatus(t, store, id).Status)
		}

		// Blocked seats cannot be acquired.
		res, err := store.TryAcquire(ctx, "hold-1", ids[:1])
		require.NoError(t, err)
		assert.False(t, res.OK)

		require.NoError(t, store.SetBlocked(ctx, ids[:2], false))
		for _, id := range ids[:2] {
			assert.Equal(t, StatusAvailable, seatStatus(t, store, id).Status)
		}
	})

	t.Run("blocking a held seat evicts it from the hold", func(t *testing.T) {
		store, _, ids := newSeededStore(t)

		res, err := store.TryAcquire(ctx, "hold-1", ids[:2])
		require.NoError(t, err)
		require.True(t, res.OK)

		require.NoError(t, store.SetBlocked(ctx, ids[:1], true))

		held, err := store.HoldSeats(ctx, "hold-1")
		require.NoError(t, err)
		assert.ElementsMatch(t, ids[1:2], held)

		// Release only covers the surviving seat; the blocked one stays
		// blocked.
		released, err := store.Release(ctx, "hold-1")
		require.NoError(t, err)
		assert.ElementsMatch(t, ids[1:2], released)
		assert.Equal(t, StatusBlocked, seatStatus(t, store, ids[0]).Status)
	})

	t.Run("sold seats are refused", func(t *testing.T) {
		store, _, ids := newSeededStore(t)

		res, err := store.TryAcquire(ctx, "hold-1", ids[:1])
		require.NoError(t, err)
		require.True(t, res.OK)
		_, err = store.Commit(ctx, "hold-1", "order-1")
		require.NoError(t, err)

		err = store.SetBlocked(ctx, ids[:1], true)
		assert.ErrorIs(t, err, ErrSeatNotBlockable)
	})
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()

	store, chartID, ids := newSeededStore(t)

	otherChart := uuid.New()
	balcony := []SeatState{
		seatFixture(otherChart, "Balcony", "balcony", "F", 1),
		seatFixture(otherChart, "Balcony", "balcony", "F", 2),
	}
	require.NoError(t, store.Register(ctx, balcony))

	res, err := store.TryAcquire(ctx, "hold-1", ids[:2])
	require.NoError(t, err)
	require.True(t, res.OK)

	t.Run("filters by chart", func(t *testing.T) {
		snap, err := store.Snapshot(ctx, SnapshotFilter{ChartID: chartID})
		require.NoError(t, err)
		assert.Len(t, snap, 4)
	})

	t.Run("filters by status", func(t *testing.T) {
		snap, err := store.Snapshot(ctx, SnapshotFilter{ChartID: chartID, Statuses: []Status{StatusHeld}})
		require.NoError(t, err)
		require.Len(t, snap, 2)
		for _, st := range snap {
			assert.Equal(t, "hold-1", st.HoldID)
		}
	})

	t.Run("filters by section and category", func(t *testing.T) {
		snap, err := store.Snapshot(ctx, SnapshotFilter{Section: "Balcony"})
		require.NoError(t, err)
		assert.Len(t, snap, 2)

		snap, err = store.Snapshot(ctx, SnapshotFilter{Category: "orchestra"})
		require.NoError(t, err)
		assert.Len(t, snap, 4)
	})

	t.Run("orders by section, row, number", func(t *testing.T) {
		snap, err := store.Snapshot(ctx, SnapshotFilter{})
		require.NoError(t, err)
		require.Len(t, snap, 6)
		assert.Equal(t, "Balcony", snap[0].Section)
		assert.Equal(t, "F1", snap[0].Label)
		assert.Equal(t, "F2", snap[1].Label)
		assert.Equal(t, "A1", snap[2].Label)
		assert.Equal(t, "A4", snap[5].Label)
	})
}

func TestStates(t *testing.T) {
	ctx := context.Background()
	store, _, ids := newSeededStore(t)

	t.Run("returns seats in request order", func(t *testing.T) {
		states, err := store.States(ctx, []uuid.UUID{ids[2], ids[0]})
		require.NoError(t, err)
		require.Len(t, states, 2)
		assert.Equal(t, ids[2], states[0].SeatID)
		assert.Equal(t, ids[0], states[1].SeatID)
	})

	t.Run("unknown id fails the call", func(t *testing.T) {
		_, err := store.States(ctx, []uuid.UUID{ids[0], uuid.New()})
		assert.ErrorIs(t, err, ErrSeatNotFound)
	})
}

func TestVersion(t *testing.T) {
	ctx := context.Background()
	store, _, ids := newSeededStore(t)

	v0, err := store.Version(ctx)
	require.NoError(t, err)

	res, err := store.TryAcquire(ctx, "hold-1", ids[:2])
	require.NoError(t, err)
	require.True(t, res.OK)

	v1, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, v0+1, v1)

	// A failed acquire is not a transition.
	res, err = store.TryAcquire(ctx, "hold-2", ids[:2])
	require.NoError(t, err)
	require.False(t, res.OK)

	v2, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	_, err = store.Release(ctx, "hold-1")
	require.NoError(t, err)

	v3, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1+1, v3)
}

// TestClockInjection verifies transitions stamp UpdatedAt from the
// injected clock, which the sweep relies on for deterministic tests.
func TestClockInjection(t *testing.T) {
	ctx := context.Background()
	store, _, ids := newSeededStore(t)

	fixed := time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)
	store.SetNowFunc(func() time.Time { return fixed })

	res, err := store.TryAcquire(ctx, "hold-1", ids[:1])
	require.NoError(t, err)
	require.True(t, res.OK)

	st := seatStatus(t, store, ids[0])
	assert.Equal(t, fixed, st.UpdatedAt)
}
