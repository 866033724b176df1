package seatmap

import (
	"math"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
)

// Size is a width/height pair in render pixels
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned rectangle in render pixels
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a position in render pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PercentPoint is a position in percentage space: (0,0) is the image's
// top-left corner and (100,100) its bottom-right, independent of how
// the image is scaled on screen.
type PercentPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ViewTransform is the viewer's zoom and pan. Zoom scales around the
// container origin, pan shifts afterwards, both in render pixels.
type ViewTransform struct {
	Zoom float64 `json:"zoom"`
	PanX float64 `json:"pan_x"`
	PanY float64 `json:"pan_y"`
}

// IdentityTransform returns the neutral view transform
func IdentityTransform() ViewTransform {
	return ViewTransform{Zoom: 1, PanX: 0, PanY: 0}
}

// Zoom bounds enforced by SanitizeTransform.
const (
	MinZoom = 0.5
	MaxZoom = 8.0
)

// ImageDrawRect computes the rectangle the venue image occupies inside
// the container once scaled to fit with its aspect ratio preserved,
// the same geometry as CSS object-fit: contain. The short axis gets
// letterbox margins, split evenly.
//
// Degenerate sizes never produce an empty rect: a non-positive
// container dimension is treated as 1, and a non-positive natural size
// falls back to the container's own aspect.
func ImageDrawRect(container, natural Size) Rect {
	cw, ch := container.Width, container.Height
	if cw <= 0 || !isFinite(cw) {
		cw = 1
	}
	if ch <= 0 || !isFinite(ch) {
		ch = 1
	}
	nw, nh := natural.Width, natural.Height
	if nw <= 0 || nh <= 0 || !isFinite(nw) || !isFinite(nh) {
		nw, nh = cw, ch
	}

	scale := math.Min(cw/nw, ch/nh)
	w := nw * scale
	h := nh * scale
	return Rect{
		X:      (cw - w) / 2,
		Y:      (ch - h) / 2,
		Width:  w,
		Height: h,
	}
}

// ToRenderSpace maps a percentage position to render pixels: place the
// point inside the draw rect, then apply the view transform.
func ToRenderSpace(p PercentPoint, drawRect Rect, t ViewTransform) Point {
	zoom := t.Zoom
	if zoom <= 0 || !isFinite(zoom) {
		zoom = 1
	}
	return Point{
		X: (drawRect.X+p.X/100*drawRect.Width)*zoom + t.PanX,
		Y: (drawRect.Y+p.Y/100*drawRect.Height)*zoom + t.PanY,
	}
}

// ToPercentSpace is the exact inverse of ToRenderSpace: undo pan, undo
// zoom, undo the draw rect placement. The round trip must land on the
// original point to within floating-point epsilon, since it is what
// lets a click register the same seat the renderer drew there.
func ToPercentSpace(pt Point, drawRect Rect, t ViewTransform) PercentPoint {
	zoom := t.Zoom
	if zoom <= 0 || !isFinite(zoom) {
		zoom = 1
	}
	w := drawRect.Width
	if w <= 0 {
		w = 1
	}
	h := drawRect.Height
	if h <= 0 {
		h = 1
	}
	return PercentPoint{
		X: ((pt.X-t.PanX)/zoom - drawRect.X) / w * 100,
		Y: ((pt.Y-t.PanY)/zoom - drawRect.Y) / h * 100,
	}
}

// SanitizeTransform clamps a client-supplied transform into something
// safe to invert: non-finite values reset to identity and zoom is
// clamped into [MinZoom, MaxZoom]. Clients send transforms straight
// from gesture handlers, so garbage in is routine, not exceptional.
func SanitizeTransform(t ViewTransform) ViewTransform {
	if !isFinite(t.Zoom) || !isFinite(t.PanX) || !isFinite(t.PanY) {
		return IdentityTransform()
	}
	if t.Zoom <= 0 {
		t.Zoom = 1
	}
	if t.Zoom < MinZoom {
		t.Zoom = MinZoom
	}
	if t.Zoom > MaxZoom {
		t.Zoom = MaxZoom
	}
	return t
}

// HitTest returns the seat nearest the pointer within the tolerance
// radius, or nil when none is close enough. Distances are Euclidean in
// percent space, so tolerance behaves the same at every zoom level.
func HitTest(pointer PercentPoint, seats []inventory.SeatState, toleranceRadiusPercent float64) *inventory.SeatState {
	best := -1
	bestDist := 0.0
	for i := range seats {
		dx := seats[i].Position.X - pointer.X
		dy := seats[i].Position.Y - pointer.Y
		dist := math.Hypot(dx, dy)
		if dist > toleranceRadiusPercent {
			continue
		}
		if best < 0 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	if best < 0 {
		return nil
	}
	seat := seats[best]
	return &seat
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
