package seatmap

import (
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
)

// RenderResponse is a complete scene: where the image sits in the
// container, the transform actually applied after sanitizing, and one
// draw command per seat.
type RenderResponse struct {
	ChartID   string        `json:"chart_id"`
	DrawRect  Rect          `json:"draw_rect"`
	Transform ViewTransform `json:"transform"`
	Commands  []DrawCommand `json:"commands"`
	Count     int           `json:"count"`
	Version   uint64        `json:"version"`
}

// HitTestResponse reports where the pointer landed in percent space
// and which seat, if any, it resolved to.
type HitTestResponse struct {
	ChartID string               `json:"chart_id"`
	Pointer PercentPoint         `json:"pointer"`
	Hit     bool                 `json:"hit"`
	Seat    *inventory.SeatState `json:"seat,omitempty"`
}
