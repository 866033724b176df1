package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-process Store implementation. A single RWMutex
// serializes transitions, which makes every multi-seat operation
// trivially atomic and every snapshot torn-read free. It is the
// authoritative backend for single-instance deployments and the
// reference behavior the Redis backend mirrors.
type MemoryStore struct {
	mu      sync.RWMutex
	seats   map[uuid.UUID]*SeatState
	holds   map[string][]uuid.UUID
	version uint64
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory seat store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seats: make(map[uuid.UUID]*SeatState),
		holds: make(map[string][]uuid.UUID),
		now:   time.Now,
	}
}

// SetNowFunc overrides the clock, for tests.
func (m *MemoryStore) SetNowFunc(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Register seeds or refreshes live state from catalog rows
func (m *MemoryStore) Register(ctx context.Context, states []SeatState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.version++
	for i := range states {
		st := states[i]
		existing, ok := m.seats[st.SeatID]
		if ok {
			// Re-registration refreshes catalog attributes but keeps
			// the live status unless the catalog reports a terminal
			// outcome that supersedes it.
			if st.Status != StatusSold && st.Status != StatusBlocked {
				st.Status = existing.Status
				st.HoldID = existing.HoldID
				st.OrderID = existing.OrderID
			}
		}
		if !st.Status.IsValid() {
			st.Status = StatusAvailable
		}
		st.Version = m.version
		st.UpdatedAt = m.now()
		m.seats[st.SeatID] = &st
	}
	return nil
}

// TryAcquire attempts the atomic AVAILABLE -> HELD transition for every
// requested seat
func (m *MemoryStore) TryAcquire(ctx context.Context, holdID string, seatIDs []uuid.UUID) (*AcquireResult, error) {
	if holdID == "" {
		return nil, fmt.Errorf("hold id is required")
	}
	if len(seatIDs) == 0 {
		return nil, ErrNoSeats
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Unknown seats fail the whole call: the caller is out of sync.
	for _, id := range seatIDs {
		if _, ok := m.seats[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrSeatNotFound, id)
		}
	}

	// Check phase: collect every seat that is not available. If any,
	// nothing is mutated.
	var unavailable []uuid.UUID
	for _, id := range seatIDs {
		if !m.seats[id].Status.CanHold() {
			unavailable = append(unavailable, id)
		}
	}
	if len(unavailable) > 0 {
		return &AcquireResult{OK: false, Unavailable: unavailable}, nil
	}

	// Commit phase: flip everything in one transition.
	m.version++
	now := m.now()
	for _, id := range seatIDs {
		st := m.seats[id]
		st.Status = StatusHeld
		st.HoldID = holdID
		st.Version = m.version
		st.UpdatedAt = now
	}
	m.holds[holdID] = append(m.holds[holdID], seatIDs...)

	return &AcquireResult{OK: true}, nil
}

// Release returns every seat held under holdID to AVAILABLE
func (m *MemoryStore) Release(ctx context.Context, holdID string) ([]uuid.UUID, error) {
	if holdID == "" {
		return nil, fmt.Errorf("hold id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.holds[holdID]
	released := make([]uuid.UUID, 0, len(ids))
	now := m.now()
	for _, id := range ids {
		st, ok := m.seats[id]
		if !ok || st.Status != StatusHeld || st.HoldID != holdID {
			continue
		}
		st.Status = StatusAvailable
		st.HoldID = ""
		released = append(released, id)
	}
	delete(m.holds, holdID)

	if len(released) > 0 {
		m.version++
		for _, id := range released {
			m.seats[id].Version = m.version
			m.seats[id].UpdatedAt = now
		}
	}
	return released, nil
}

// Commit finalizes every seat held under holdID as SOLD
func (m *MemoryStore) Commit(ctx context.Context, holdID string, orderID string) ([]uuid.UUID, error) {
	if holdID == "" {
		return nil, fmt.Errorf("hold id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.holds[holdID]
	if len(ids) == 0 {
		// The hold covers nothing: it expired and was released, or it
		// never acquired. Either way the checkout is stale.
		return nil, ErrHoldMismatch
	}
	for _, id := range ids {
		st, ok := m.seats[id]
		if !ok || st.Status != StatusHeld || st.HoldID != holdID {
			return nil, ErrHoldMismatch
		}
	}

	m.version++
	now := m.now()
	committed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		st := m.seats[id]
		st.Status = StatusSold
		st.HoldID = ""
		st.OrderID = orderID
		st.Version = m.version
		st.UpdatedAt = now
		committed = append(committed, id)
	}
	delete(m.holds, holdID)

	return committed, nil
}

// SetBlocked flips seats between AVAILABLE and BLOCKED
func (m *MemoryStore) SetBlocked(ctx context.Context, seatIDs []uuid.UUID, blocked bool) error {
	if len(seatIDs) == 0 {
		return ErrNoSeats
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range seatIDs {
		st, ok := m.seats[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrSeatNotFound, id)
		}
		if st.Status == StatusSold {
			return fmt.Errorf("%w: %s", ErrSeatNotBlockable, id)
		}
	}

	m.version++
	now := m.now()
	for _, id := range seatIDs {
		st := m.seats[id]
		if blocked {
			// Blocking a held seat evicts it from its hold.
			if st.Status == StatusHeld {
				m.removeFromHold(st.HoldID, id)
				st.HoldID = ""
			}
			st.Status = StatusBlocked
		} else if st.Status == StatusBlocked {
			st.Status = StatusAvailable
		}
		st.Version = m.version
		st.UpdatedAt = now
	}
	return nil
}

// removeFromHold drops one seat from a hold's index entry. Caller holds
// the write lock.
func (m *MemoryStore) removeFromHold(holdID string, seatID uuid.UUID) {
	ids := m.holds[holdID]
	for i, id := range ids {
		if id == seatID {
			m.holds[holdID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(m.holds[holdID]) == 0 {
		delete(m.holds, holdID)
	}
}

// Snapshot returns a consistent filtered view of all seat states
func (m *MemoryStore) Snapshot(ctx context.Context, filter SnapshotFilter) ([]SeatState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]SeatState, 0, len(m.seats))
	for _, st := range m.seats {
		if filter.Matches(st) {
			out = append(out, *st)
		}
	}
	sortSeatStates(out)
	return out, nil
}

// States fetches specific seats by id, in request order
func (m *MemoryStore) States(ctx context.Context, seatIDs []uuid.UUID) ([]SeatState, error) {
	if len(seatIDs) == 0 {
		return nil, ErrNoSeats
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]SeatState, 0, len(seatIDs))
	for _, id := range seatIDs {
		st, ok := m.seats[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSeatNotFound, id)
		}
		out = append(out, *st)
	}
	return out, nil
}

// HoldSeats lists the seats currently held under holdID
func (m *MemoryStore) HoldSeats(ctx context.Context, holdID string) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.holds[holdID]
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out, nil
}

// Version returns the store-wide change counter
func (m *MemoryStore) Version(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version, nil
}
