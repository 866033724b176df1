package events

import (
	"encoding/json"
	"time"
)

// Seat event types published to the seat-events topic.
const (
	TypeHoldCreated    = "hold.created"
	TypeHoldExtended   = "hold.extended"
	TypeHoldReleased   = "hold.released"
	TypeHoldExpired    = "hold.expired"
	TypeHoldCommitted  = "hold.committed"
	TypeSeatsBlocked   = "seats.blocked"
	TypeSeatsUnblocked = "seats.unblocked"
)

// SeatEvent is the wire format for seat state changes. Consumers use it
// to invalidate chart-scoped caches and to drive downstream workflows
// such as checkout and analytics.
type SeatEvent struct {
	Type       string     `json:"type"`
	HoldID     string     `json:"hold_id,omitempty"`
	SessionID  string     `json:"session_id,omitempty"`
	EventID    string     `json:"event_id,omitempty"`
	ChartID    string     `json:"chart_id"`
	SeatIDs    []string   `json:"seat_ids,omitempty"`
	OrderID    string     `json:"order_id,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// ToJSON serializes the event for the message value
func (e *SeatEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey routes all events for one chart to the same partition so
// consumers observe a chart's changes in order.
func (e *SeatEvent) PartitionKey() string {
	if e.ChartID != "" {
		return e.ChartID
	}
	return e.HoldID
}
