package seatmap

// RenderRequest describes the client viewport asking for a scene.
// Degenerate geometry is clamped rather than rejected: a zero-size
// container or a garbage transform still renders a deterministic
// scene instead of propagating NaN.
type RenderRequest struct {
	Container Size          `json:"container"`
	Transform ViewTransform `json:"transform"`
}

// HitTestRequest resolves a raw pointer position, in container pixels,
// against the chart. The engine owns the math so every client agrees
// on which seat a tap landed on.
type HitTestRequest struct {
	Container        Size          `json:"container"`
	Transform        ViewTransform `json:"transform"`
	Pointer          Point         `json:"pointer"`
	TolerancePercent float64       `json:"tolerance_percent" binding:"omitempty,gt=0,max=10"`
}
