package holds

import (
	"time"

	"github.com/google/uuid"
)

// HoldResponse is the external view of a hold. TTLRemainingSeconds is
// computed against the server clock, which stays authoritative for
// client countdowns.
type HoldResponse struct {
	HoldID              string     `json:"hold_id"`
	SessionID           string     `json:"session_id"`
	EventID             string     `json:"event_id,omitempty"`
	ChartID             string     `json:"chart_id"`
	SeatIDs             []string   `json:"seat_ids"`
	Status              string     `json:"status"`
	CreatedAt           time.Time  `json:"created_at"`
	ExpiresAt           time.Time  `json:"expires_at"`
	ResolvedAt          *time.Time `json:"resolved_at,omitempty"`
	TTLRemainingSeconds int        `json:"ttl_remaining_seconds"`
	Reason              string     `json:"reason,omitempty"`
	OrderID             string     `json:"order_id,omitempty"`
}

// HoldResult is the outcome of a hold attempt. A conflict is a normal
// outcome, reported through Success and UnavailableSeats rather than an
// error.
type HoldResult struct {
	Success          bool          `json:"success"`
	Hold             *HoldResponse `json:"hold,omitempty"`
	UnavailableSeats []string      `json:"unavailable_seats,omitempty"`
}

// SessionHoldsResponse lists the holds owned by one session
type SessionHoldsResponse struct {
	SessionID string         `json:"session_id"`
	Holds     []HoldResponse `json:"holds"`
	Count     int            `json:"count"`
}

func newHoldResponse(h *Hold, now time.Time) *HoldResponse {
	resp := &HoldResponse{
		HoldID:     h.ID.String(),
		SessionID:  h.SessionID,
		ChartID:    h.ChartID.String(),
		SeatIDs:    h.SeatIDStrings(),
		Status:     h.Status.String(),
		CreatedAt:  h.CreatedAt,
		ExpiresAt:  h.ExpiresAt,
		ResolvedAt: h.ResolvedAt,
		Reason:     h.Reason,
		OrderID:    h.OrderID,
	}
	if h.EventID != uuid.Nil {
		resp.EventID = h.EventID.String()
	}
	if h.Status == StatusActive {
		if remaining := h.ExpiresAt.Sub(now); remaining > 0 {
			resp.TTLRemainingSeconds = int(remaining.Round(time.Second) / time.Second)
		}
	}
	return resp
}
