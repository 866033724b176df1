package session

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// SeatMark is a seat's state in one viewer's local selection, distinct
// from the store's authoritative status. SELECTED seats are an intent
// only; nothing is reserved until the selection goes through the hold
// lifecycle.
type SeatMark string

const (
	// MarkSelected means picked locally, not yet held.
	MarkSelected SeatMark = "SELECTED"
	// MarkPendingHold means a hold request covering the seat is in
	// flight. Resolves to HELD on success or back to SELECTED when the
	// request fails wholesale; seats the server rejected are dropped.
	MarkPendingHold SeatMark = "PENDING_HOLD"
	// MarkHeld means the session's active hold covers the seat.
	MarkHeld SeatMark = "HELD"
)

// Session is one viewer's browsing state for one chart. Sessions are
// ephemeral: they live in the manager's registry and die on eviction
// or delete, while any seats they held survive through the hold audit
// trail.
type Session struct {
	ID      string
	ChartID uuid.UUID
	EventID uuid.UUID

	CreatedAt  time.Time
	LastSeenAt time.Time

	// Marks carries the local view state per seat; Order preserves
	// selection order for stable listings.
	Marks map[uuid.UUID]SeatMark
	Order []uuid.UUID

	// HoldID and HoldExpiresAt mirror the session's live hold. The
	// expiry here is display state only; the hold lifecycle owns the
	// authoritative clock and reconcile folds its verdicts back in.
	HoldID        string
	HoldExpiresAt time.Time

	holdInFlight bool

	// StoreVersion is the store change counter this session's view was
	// last reconciled against.
	StoreVersion uint64
}

func (s *Session) mark(seatID uuid.UUID, mark SeatMark) {
	if _, exists := s.Marks[seatID]; !exists {
		s.Order = append(s.Order, seatID)
	}
	s.Marks[seatID] = mark
}

func (s *Session) unmark(seatID uuid.UUID) {
	if _, exists := s.Marks[seatID]; !exists {
		return
	}
	delete(s.Marks, seatID)
	for i, id := range s.Order {
		if id == seatID {
			s.Order = append(s.Order[:i], s.Order[i+1:]...)
			break
		}
	}
}

func (s *Session) seatsMarked(mark SeatMark) []uuid.UUID {
	seats := make([]uuid.UUID, 0, len(s.Order))
	for _, id := range s.Order {
		if s.Marks[id] == mark {
			seats = append(seats, id)
		}
	}
	return seats
}

// SessionClaims is the JWT payload minted for a browsing session.
type SessionClaims struct {
	SessionID string `json:"session_id"`
	ChartID   string `json:"chart_id"`
	Type      string `json:"type"`
	jwt.RegisteredClaims
}
