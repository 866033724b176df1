package selection

import (
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
)

// BestAvailableResponse is the proposed seat set plus enough context
// for the caller to judge it: whether the seats sit together, whether
// the pool ran short, and the total price of the proposal.
type BestAvailableResponse struct {
	ChartID    string                `json:"chart_id"`
	Seats      []inventory.SeatState `json:"seats"`
	Quantity   int                   `json:"quantity"`
	Requested  int                   `json:"requested"`
	Available  int                   `json:"available"`
	Contiguous bool                  `json:"contiguous"`
	Shortage   bool                  `json:"shortage"`
	TotalPrice float64               `json:"total_price"`
	Version    uint64                `json:"version"`
}

func newBestAvailableResponse(chartID string, r *Result, version uint64) *BestAvailableResponse {
	total := 0.0
	for _, seat := range r.Seats {
		total += seat.Price
	}
	return &BestAvailableResponse{
		ChartID:    chartID,
		Seats:      r.Seats,
		Quantity:   len(r.Seats),
		Requested:  r.Requested,
		Available:  r.Available,
		Contiguous: r.Contiguous,
		Shortage:   r.Shortage,
		TotalPrice: total,
		Version:    version,
	}
}
