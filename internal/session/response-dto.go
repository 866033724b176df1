package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/seatmap"
)

// SeatMarkView is one entry in the session's selection listing.
type SeatMarkView struct {
	SeatID string   `json:"seat_id"`
	Mark   SeatMark `json:"mark"`
}

// SessionHoldView mirrors the session's live hold for display. The
// countdown is computed server-side from the authoritative expiry so
// the client never trusts its own clock.
type SessionHoldView struct {
	HoldID           string    `json:"hold_id"`
	ExpiresAt        time.Time `json:"expires_at"`
	CountdownSeconds int       `json:"countdown_seconds"`
}

// SessionResponse is the full session state a client renders from.
type SessionResponse struct {
	SessionID      string           `json:"session_id"`
	ChartID        string           `json:"chart_id"`
	EventID        string           `json:"event_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	LastSeenAt     time.Time        `json:"last_seen_at"`
	Selection      []SeatMarkView   `json:"selection"`
	SelectionCount int              `json:"selection_count"`
	MaxSelection   int              `json:"max_selection"`
	Hold           *SessionHoldView `json:"hold,omitempty"`
	StoreVersion   uint64           `json:"store_version"`
}

// CreateSessionResponse carries the minted token alongside the fresh
// session state.
type CreateSessionResponse struct {
	Session        SessionResponse `json:"session"`
	Token          string          `json:"token"`
	TokenExpiresAt time.Time       `json:"token_expires_at"`
}

// Pointer actions report what a tap did, so the client animates the
// right thing without re-deriving it.
const (
	PointerActionSelected   = "selected"
	PointerActionDeselected = "deselected"
	PointerActionIgnored    = "ignored"
	PointerActionMiss       = "miss"
)

// PointerResponse reports how a pointer event resolved. Taps on
// ineligible seats are not errors; they come back as "ignored" with
// the seat attached so the client can explain why.
type PointerResponse struct {
	Pointer PercentPointView     `json:"pointer"`
	Action  string               `json:"action"`
	Seat    *inventory.SeatState `json:"seat,omitempty"`
	Session SessionResponse      `json:"session"`
}

// PercentPointView echoes where the pointer landed in percent space.
type PercentPointView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HoldSelectionResponse mirrors the hold attempt outcome: on conflict
// the rejected seats are listed and the session state shows the exact
// rollback.
type HoldSelectionResponse struct {
	Success          bool             `json:"success"`
	Hold             *SessionHoldView `json:"hold,omitempty"`
	UnavailableSeats []string         `json:"unavailable_seats,omitempty"`
	Session          SessionResponse  `json:"session"`
}

func newPercentPointView(p seatmap.PercentPoint) PercentPointView {
	return PercentPointView{X: p.X, Y: p.Y}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
