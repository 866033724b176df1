package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Position is a seat's location in percentage space: 0-100 on both axes,
// relative to the chart image's natural bounds. It never changes with
// zoom, pan, or container size.
type Position struct {
	X float64 `gorm:"not null;check:x >= 0 AND x <= 100" json:"x"`
	Y float64 `gorm:"not null;check:y >= 0 AND y <= 100" json:"y"`
}

// Chart defines one venue seating diagram
type Chart struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EventID uuid.UUID `gorm:"type:uuid;index" json:"event_id"`
	Name    string    `gorm:"not null" json:"name"`

	// Natural dimensions of the venue image, used to compute the
	// letterboxed draw rect for rendering and hit-testing.
	ImageURL    string  `json:"image_url"`
	ImageWidth  float64 `gorm:"not null;check:image_width > 0" json:"image_width"`
	ImageHeight float64 `gorm:"not null;check:image_height > 0" json:"image_height"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Categories []SeatCategory `json:"categories,omitempty" gorm:"foreignKey:ChartID;constraint:OnDelete:CASCADE;"`
	Seats      []Seat         `json:"seats,omitempty" gorm:"foreignKey:ChartID;constraint:OnDelete:CASCADE;"`
}

// SeatCategory defines pricing and presentation for a group of seats.
// Categories are immutable for the duration of a browsing session.
type SeatCategory struct {
	ID          uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChartID     uuid.UUID   `gorm:"type:uuid;index;not null;uniqueIndex:idx_chart_category_key" json:"chart_id"`
	Key         string      `gorm:"not null;uniqueIndex:idx_chart_category_key" json:"key"`
	Name        string      `gorm:"not null" json:"name"`
	Color       string      `gorm:"type:varchar(7);default:'#4A90D9'" json:"color"`
	BasePrice   float64     `gorm:"not null;check:base_price >= 0" json:"base_price"`
	Capacity    int         `gorm:"not null;default:0" json:"capacity"`
	ViewQuality ViewQuality `gorm:"type:varchar(20);default:'GOOD'" json:"view_quality"`
	Accessible  bool        `gorm:"default:false" json:"accessible"`
	Amenities   []string    `gorm:"serializer:json" json:"amenities,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Seat defines the catalog row for one seat. Live status is owned by the
// Store; the catalog persists only long-lived outcomes (SOLD, BLOCKED),
// never the transient HELD state.
type Seat struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChartID    uuid.UUID `gorm:"type:uuid;index;not null" json:"chart_id"`
	CategoryID uuid.UUID `gorm:"type:uuid;index;not null" json:"category_id"`
	Label      string    `gorm:"not null" json:"label"`
	Section    string    `gorm:"not null;index" json:"section"`
	Row        string    `gorm:"not null" json:"row"`
	Number     int       `gorm:"not null" json:"number"`
	Position   Position  `gorm:"embedded" json:"position"`
	Status     Status    `gorm:"type:varchar(20);check:status IN ('AVAILABLE', 'SOLD', 'BLOCKED');default:'AVAILABLE'" json:"status"`
	OrderID    string    `gorm:"type:varchar(64);default:''" json:"order_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Category *SeatCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT;"`
}

// TableName sets the table name for Chart
func (Chart) TableName() string {
	return "charts"
}

// TableName sets the table name for SeatCategory
func (SeatCategory) TableName() string {
	return "seat_categories"
}

// TableName sets the table name for Seat
func (Seat) TableName() string {
	return "seats"
}

// Helper methods for seat management

func (s *Seat) IsAvailable() bool {
	return s.Status == StatusAvailable
}

func (s *Seat) IsSold() bool {
	return s.Status == StatusSold
}

func (s *Seat) IsBlocked() bool {
	return s.Status == StatusBlocked
}

// SeatState is the live, authoritative state of one seat inside the
// Store. Static catalog attributes are denormalized at registration
// time so snapshots are self-contained.
type SeatState struct {
	SeatID   uuid.UUID `json:"seat_id"`
	ChartID  uuid.UUID `json:"chart_id"`
	Label    string    `json:"label"`
	Section  string    `json:"section"`
	Row      string    `json:"row"`
	Number   int       `json:"number"`
	Position Position  `json:"position"`

	Category    string      `json:"category"`
	Price       float64     `json:"price"`
	ViewQuality ViewQuality `json:"view_quality"`
	Accessible  bool        `json:"accessible"`

	Status Status `json:"status"`
	// HoldID is set iff Status == HELD.
	HoldID string `json:"hold_id,omitempty"`
	// OrderID is set iff Status == SOLD.
	OrderID string `json:"order_id,omitempty"`

	// Version is the store-wide change counter at the seat's last
	// transition, used for cheap change detection by pollers.
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SnapshotFilter narrows a Store snapshot. Zero value means no filter.
type SnapshotFilter struct {
	ChartID  uuid.UUID
	Statuses []Status
	Section  string
	Category string
}

// Matches reports whether a seat state passes the filter.
func (f SnapshotFilter) Matches(st *SeatState) bool {
	if f.ChartID != uuid.Nil && st.ChartID != f.ChartID {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if st.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.Section != "" && st.Section != f.Section {
		return false
	}
	if f.Category != "" && st.Category != f.Category {
		return false
	}
	return true
}

// AcquireResult reports the outcome of an atomic multi-seat acquire.
// A failed acquire mutates nothing and lists exactly the seats that
// were not available.
type AcquireResult struct {
	OK          bool        `json:"ok"`
	Unavailable []uuid.UUID `json:"unavailable,omitempty"`
}

// StateFromSeat builds the live state registered into the Store from a
// catalog row and its category.
func StateFromSeat(seat *Seat, cat *SeatCategory) SeatState {
	st := SeatState{
		SeatID:   seat.ID,
		ChartID:  seat.ChartID,
		Label:    seat.Label,
		Section:  seat.Section,
		Row:      seat.Row,
		Number:   seat.Number,
		Position: seat.Position,
		Status:   seat.Status,
		OrderID:  seat.OrderID,
	}
	if cat != nil {
		st.Category = cat.Key
		st.Price = cat.BasePrice
		st.ViewQuality = cat.ViewQuality
		st.Accessible = cat.Accessible
	}
	return st
}
