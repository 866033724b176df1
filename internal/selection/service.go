package selection

import (
	"context"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/config"
	"github.com/iradwatkins/stepper-ui-forge-sub003/pkg/logger"
)

// Service runs best-available searches against the live seat state.
// Proposals are advisory: nothing is held until the caller takes the
// proposed seats through the hold lifecycle.
type Service interface {
	FindBestAvailable(ctx context.Context, chartID string, req BestAvailableRequest) (*BestAvailableResponse, error)
}

type service struct {
	inventory inventory.Service
	store     inventory.Store
	selector  *Selector
	cfg       *config.Config
	logger    *logger.Logger
}

func NewService(inventoryService inventory.Service, store inventory.Store, cfg *config.Config) Service {
	return &service{
		inventory: inventoryService,
		store:     store,
		selector:  NewSelector(cfg.Selection.RowTolerancePercent, cfg.Selection.GapTolerancePercent),
		cfg:       cfg,
		logger:    logger.GetDefault(),
	}
}

func (s *service) FindBestAvailable(ctx context.Context, chartID string, req BestAvailableRequest) (*BestAvailableResponse, error) {
	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}
	if quantity > s.cfg.Selection.MaxQuantity {
		return nil, ErrTooManySeats
	}

	// Buyers expect adjacent seats unless they opt out.
	preferTogether := true
	if req.PreferTogether != nil {
		preferTogether = *req.PreferTogether
	}

	seats, err := s.inventory.GetAvailableSeats(ctx, chartID)
	if err != nil {
		return nil, err
	}

	result := s.selector.Pick(seats, Criteria{
		Quantity:       quantity,
		MaxPrice:       req.MaxPrice,
		Section:        req.Section,
		PreferTogether: preferTogether,
	})

	version, err := s.store.Version(ctx)
	if err != nil {
		s.logger.ErrorWithContext(ctx, "failed to read store version", err, map[string]interface{}{
			"chart_id": chartID,
		})
	}

	s.logger.DebugWithContext(ctx, "best-available search completed", map[string]interface{}{
		"chart_id":   chartID,
		"requested":  result.Requested,
		"proposed":   len(result.Seats),
		"contiguous": result.Contiguous,
		"shortage":   result.Shortage,
	})

	return newBestAvailableResponse(chartID, result, version), nil
}
