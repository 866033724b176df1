package holds

import (
	"time"

	"github.com/google/uuid"
)

// Hold is the live, in-memory view of a hold while the engine owns it.
// The registry in the service guards all mutation; callers only ever
// see copies.
type Hold struct {
	ID         uuid.UUID
	SessionID  string
	EventID    uuid.UUID
	ChartID    uuid.UUID
	SeatIDs    []uuid.UUID
	Status     Status
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ResolvedAt *time.Time
	Reason     string
	OrderID    string
}

// Clone returns a copy safe to hand outside the registry lock.
func (h *Hold) Clone() *Hold {
	c := *h
	c.SeatIDs = append([]uuid.UUID(nil), h.SeatIDs...)
	if h.ResolvedAt != nil {
		t := *h.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

// SeatIDStrings returns the held seat ids as strings, in acquisition order.
func (h *Hold) SeatIDStrings() []string {
	out := make([]string, len(h.SeatIDs))
	for i, id := range h.SeatIDs {
		out[i] = id.String()
	}
	return out
}

// HoldRecord is the persisted audit row for a hold. Records are never
// deleted; resolution only updates status, resolved_at and the
// resolution fields, so the table doubles as the audit trail.
type HoldRecord struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	SessionID  string     `gorm:"type:varchar(128);not null;index" json:"session_id"`
	EventID    uuid.UUID  `gorm:"type:uuid;index" json:"event_id"`
	ChartID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"chart_id"`
	SeatIDs    []string   `gorm:"serializer:json;not null" json:"seat_ids"`
	Status     Status     `gorm:"type:varchar(20);not null;default:'ACTIVE';check:status IN ('ACTIVE','EXPIRED','RELEASED','COMMITTED')" json:"status"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	Reason     string     `gorm:"type:varchar(64)" json:"reason,omitempty"`
	OrderID    string     `gorm:"type:varchar(64)" json:"order_id,omitempty"`
}

// TableName returns the table name for HoldRecord model
func (HoldRecord) TableName() string {
	return "hold_records"
}

// ToHold rebuilds the live representation from an audit row. Seat ids
// that fail to parse are dropped; the audit row itself is authoritative.
func (r *HoldRecord) ToHold() *Hold {
	seatIDs := make([]uuid.UUID, 0, len(r.SeatIDs))
	for _, raw := range r.SeatIDs {
		if id, err := uuid.Parse(raw); err == nil {
			seatIDs = append(seatIDs, id)
		}
	}
	return &Hold{
		ID:         r.ID,
		SessionID:  r.SessionID,
		EventID:    r.EventID,
		ChartID:    r.ChartID,
		SeatIDs:    seatIDs,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		ExpiresAt:  r.ExpiresAt,
		ResolvedAt: r.ResolvedAt,
		Reason:     r.Reason,
		OrderID:    r.OrderID,
	}
}

func recordFromHold(h *Hold) *HoldRecord {
	return &HoldRecord{
		ID:         h.ID,
		SessionID:  h.SessionID,
		EventID:    h.EventID,
		ChartID:    h.ChartID,
		SeatIDs:    h.SeatIDStrings(),
		Status:     h.Status,
		CreatedAt:  h.CreatedAt,
		ExpiresAt:  h.ExpiresAt,
		ResolvedAt: h.ResolvedAt,
		Reason:     h.Reason,
		OrderID:    h.OrderID,
	}
}
