package seatmap

import (
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
)

// SeatView pairs a seat's live state with the color resolved from its
// pricing category. The renderer itself stays ignorant of charts.
type SeatView struct {
	State inventory.SeatState
	Color string
}

// DrawCommand is one seat marker ready for a canvas or SVG layer.
// Coordinates are render pixels with the view transform applied;
// the caller just draws, it never recomputes geometry.
type DrawCommand struct {
	SeatID     string  `json:"seat_id"`
	Label      string  `json:"label"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Radius     float64 `json:"radius"`
	Fill       string  `json:"fill"`
	Opacity    float64 `json:"opacity"`
	Selectable bool    `json:"selectable"`
}

const (
	// seatRadiusPercent sizes markers relative to the draw rect so a
	// chart looks the same in a phone column and a desktop pane.
	seatRadiusPercent = 1.2
	minSeatRadiusPx   = 2.0

	defaultSeatFill = "#4A90D9"
	soldFill        = "#9CA3AF"
	blockedFill     = "#4B5563"

	heldOpacity    = 0.45
	soldOpacity    = 0.6
	blockedOpacity = 0.3
)

// Render turns seat states into draw commands for the given draw rect
// and view transform. It is a pure function of its inputs: no store
// reads, no clock, no randomness, so the same snapshot always renders
// the same scene.
func Render(seats []SeatView, drawRect Rect, t ViewTransform) []DrawCommand {
	t = SanitizeTransform(t)

	radius := drawRect.Width * seatRadiusPercent / 100 * t.Zoom
	if radius < minSeatRadiusPx {
		radius = minSeatRadiusPx
	}

	commands := make([]DrawCommand, 0, len(seats))
	for _, view := range seats {
		seat := view.State
		pt := ToRenderSpace(PercentPoint{X: seat.Position.X, Y: seat.Position.Y}, drawRect, t)

		cmd := DrawCommand{
			SeatID:  seat.SeatID.String(),
			Label:   seat.Label,
			X:       pt.X,
			Y:       pt.Y,
			Radius:  radius,
			Fill:    view.Color,
			Opacity: 1.0,
		}
		if cmd.Fill == "" {
			cmd.Fill = defaultSeatFill
		}

		switch seat.Status {
		case inventory.StatusAvailable:
			cmd.Selectable = true
		case inventory.StatusHeld:
			cmd.Opacity = heldOpacity
		case inventory.StatusSold:
			cmd.Fill = soldFill
			cmd.Opacity = soldOpacity
		case inventory.StatusBlocked:
			cmd.Fill = blockedFill
			cmd.Opacity = blockedOpacity
		}

		commands = append(commands, cmd)
	}
	return commands
}
