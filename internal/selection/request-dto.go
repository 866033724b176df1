package selection

// BestAvailableRequest carries the search criteria as query parameters
type BestAvailableRequest struct {
	Quantity       int      `form:"quantity" binding:"omitempty,min=1,max=50"`
	MaxPrice       *float64 `form:"max_price" binding:"omitempty,gt=0"`
	Section        string   `form:"section" binding:"omitempty,max=64"`
	PreferTogether *bool    `form:"together" binding:"omitempty"`
}
