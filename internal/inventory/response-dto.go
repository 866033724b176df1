package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// ChartSummary is the listing row for one chart.
type ChartSummary struct {
	ID         uuid.UUID `json:"id"`
	EventID    uuid.UUID `json:"event_id"`
	Name       string    `json:"name"`
	ImageURL   string    `json:"image_url"`
	Categories int       `json:"categories"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChartListResponse pages through the chart catalog.
type ChartListResponse struct {
	Charts     []ChartSummary `json:"charts"`
	Pagination Pagination     `json:"pagination"`
}

// SeatDetailResponse joins one seat's catalog row with its live state.
type SeatDetailResponse struct {
	Seat  *Seat     `json:"seat"`
	State SeatState `json:"state"`
}

// SectionCount summarizes availability within one section.
type SectionCount struct {
	Section   string `json:"section"`
	Total     int    `json:"total"`
	Available int    `json:"available"`
}

// CategoryCount summarizes availability within one category.
type CategoryCount struct {
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	Total     int     `json:"total"`
	Available int     `json:"available"`
}

// AvailabilitySummary is the cached counts view for one chart.
type AvailabilitySummary struct {
	ChartID    uuid.UUID       `json:"chart_id"`
	Version    uint64          `json:"version"`
	Total      int             `json:"total"`
	Available  int             `json:"available"`
	Held       int             `json:"held"`
	Sold       int             `json:"sold"`
	Blocked    int             `json:"blocked"`
	BySection  []SectionCount  `json:"by_section"`
	ByCategory []CategoryCount `json:"by_category"`
	AsOf       time.Time       `json:"as_of"`
}
