package session

import (
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/seatmap"
)

// CreateSessionRequest opens a browsing session against one chart.
type CreateSessionRequest struct {
	ChartID string `json:"chart_id" validate:"required,uuid"`
	EventID string `json:"event_id,omitempty" validate:"omitempty,uuid"`
}

// PointerRequest resolves a raw pointer event against the session's
// chart. Natural overrides the chart's stored image dimensions when
// the client rendered a different asset; normally it is omitted.
// Geometry is clamped, not validated: a zero container or non-finite
// transform degrades to safe defaults instead of a 400.
type PointerRequest struct {
	Container        seatmap.Size          `json:"container"`
	Natural          seatmap.Size          `json:"natural,omitempty"`
	Transform        seatmap.ViewTransform `json:"transform"`
	Pointer          seatmap.Point         `json:"pointer"`
	TolerancePercent float64               `json:"tolerance_percent,omitempty" validate:"omitempty,gt=0,max=10"`
}

// SeatActionRequest names one seat for explicit select or deselect.
type SeatActionRequest struct {
	SeatID string `json:"seat_id" validate:"required,uuid"`
}

// HoldSelectionRequest takes the session's pending selection through
// the hold lifecycle.
type HoldSelectionRequest struct {
	TTLMinutes int `json:"ttl_minutes,omitempty" validate:"omitempty,min=1,max=60"`
}

// ExtendSelectionRequest lengthens the session's live hold.
type ExtendSelectionRequest struct {
	AdditionalMinutes int `json:"additional_minutes,omitempty" validate:"omitempty,min=1,max=30"`
}
