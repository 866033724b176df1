package holds

// CreateHoldRequest represents the request to place a hold on seats.
// The chart is derived from the seats themselves; a ttl of zero means
// the configured default.
type CreateHoldRequest struct {
	SessionID  string   `json:"session_id" binding:"required,min=1,max=128"`
	EventID    string   `json:"event_id" binding:"omitempty,uuid"`
	SeatIDs    []string `json:"seat_ids" binding:"required,min=1,max=50,dive,uuid"`
	TTLMinutes int      `json:"ttl_minutes" binding:"omitempty,min=1,max=60"`
}

// ExtendHoldRequest represents the request to push a hold's expiry out.
// Zero minutes means the configured extension grant.
type ExtendHoldRequest struct {
	AdditionalMinutes int `json:"additional_minutes" binding:"omitempty,min=1,max=30"`
}

// ReleaseHoldRequest carries the optional reason recorded on a
// user-initiated release.
type ReleaseHoldRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=64"`
}

// CommitHoldRequest represents the request to finalize a hold into a sale
type CommitHoldRequest struct {
	OrderID string `json:"order_id" binding:"required,min=1,max=64"`
}
