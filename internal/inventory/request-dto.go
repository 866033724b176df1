package inventory

// SeatFilter narrows seat listings, bound from query parameters.
type SeatFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=AVAILABLE HELD SOLD BLOCKED"`
	Section  string `form:"section" binding:"omitempty,max=100"`
	Category string `form:"category" binding:"omitempty,max=100"`
}

// BulkBlockRequest names the seats an operator wants blocked or
// unblocked.
type BulkBlockRequest struct {
	SeatIDs []string `json:"seat_ids" binding:"required,min=1,max=500,dive,uuid"`
}

// ListChartsRequest is bound from query parameters.
type ListChartsRequest struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}
