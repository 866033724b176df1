package seatmap

import (
	"context"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
	"github.com/iradwatkins/stepper-ui-forge-sub003/pkg/logger"
)

// defaultHitTolerancePercent is the hit radius used when the client
// does not send one. Roughly a fingertip on a phone-sized chart.
const defaultHitTolerancePercent = 1.5

// Service renders charts into draw commands and resolves pointer
// positions to seats. Both operations read the same snapshot surface
// the rest of the engine uses, so a scene never disagrees with the
// state a hold attempt will see.
type Service interface {
	RenderChart(ctx context.Context, chartID string, req RenderRequest) (*RenderResponse, error)
	HitTest(ctx context.Context, chartID string, req HitTestRequest) (*HitTestResponse, error)
}

type service struct {
	inventory inventory.Service
	store     inventory.Store
	logger    *logger.Logger
}

func NewService(inventoryService inventory.Service, store inventory.Store) Service {
	return &service{
		inventory: inventoryService,
		store:     store,
		logger:    logger.GetDefault(),
	}
}

func (s *service) RenderChart(ctx context.Context, chartID string, req RenderRequest) (*RenderResponse, error) {
	chart, err := s.inventory.GetChart(ctx, chartID)
	if err != nil {
		return nil, err
	}

	seats, err := s.inventory.GetSeats(ctx, chartID, inventory.SeatFilter{})
	if err != nil {
		return nil, err
	}

	drawRect := ImageDrawRect(req.Container, Size{Width: chart.ImageWidth, Height: chart.ImageHeight})
	transform := SanitizeTransform(req.Transform)

	colors := categoryColors(chart)
	views := make([]SeatView, 0, len(seats))
	for _, seat := range seats {
		views = append(views, SeatView{State: seat, Color: colors[seat.Category]})
	}

	commands := Render(views, drawRect, transform)

	version, err := s.store.Version(ctx)
	if err != nil {
		s.logger.ErrorWithContext(ctx, "Failed to read store version for render", err, map[string]interface{}{
			"chart_id": chartID,
		})
	}

	return &RenderResponse{
		ChartID:   chartID,
		DrawRect:  drawRect,
		Transform: transform,
		Commands:  commands,
		Count:     len(commands),
		Version:   version,
	}, nil
}

func (s *service) HitTest(ctx context.Context, chartID string, req HitTestRequest) (*HitTestResponse, error) {
	chart, err := s.inventory.GetChart(ctx, chartID)
	if err != nil {
		return nil, err
	}

	drawRect := ImageDrawRect(req.Container, Size{Width: chart.ImageWidth, Height: chart.ImageHeight})
	transform := SanitizeTransform(req.Transform)
	pointer := ToPercentSpace(req.Pointer, drawRect, transform)

	seats, err := s.inventory.GetSeats(ctx, chartID, inventory.SeatFilter{})
	if err != nil {
		return nil, err
	}

	tolerance := req.TolerancePercent
	if tolerance <= 0 {
		tolerance = defaultHitTolerancePercent
	}

	seat := HitTest(pointer, seats, tolerance)

	s.logger.DebugWithContext(ctx, "Hit test resolved", map[string]interface{}{
		"chart_id": chartID,
		"hit":      seat != nil,
	})

	return &HitTestResponse{
		ChartID: chartID,
		Pointer: pointer,
		Hit:     seat != nil,
		Seat:    seat,
	}, nil
}

func categoryColors(chart *inventory.Chart) map[string]string {
	colors := make(map[string]string, len(chart.Categories))
	for _, category := range chart.Categories {
		colors[category.Key] = category.Color
	}
	return colors
}
