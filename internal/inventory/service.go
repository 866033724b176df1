package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/config"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/constants"
	"github.com/iradwatkins/stepper-ui-forge-sub003/pkg/cache"
	"github.com/iradwatkins/stepper-ui-forge-sub003/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	// Catalog reads
	ListCharts(ctx context.Context, page, limit int) (*ChartListResponse, error)
	GetChart(ctx context.Context, chartID string) (*Chart, error)
	GetSeatDetail(ctx context.Context, seatID string) (*SeatDetailResponse, error)

	// Store hydration
	LoadChart(ctx context.Context, chartID uuid.UUID) (int, error)
	LoadAllCharts(ctx context.Context) (int, error)

	// Live state reads
	GetSeats(ctx context.Context, chartID string, filter SeatFilter) ([]SeatState, error)
	GetAvailableSeats(ctx context.Context, chartID string) ([]SeatState, error)
	GetAvailability(ctx context.Context, chartID string) (*AvailabilitySummary, error)

	// Operational transitions
	BlockSeats(ctx context.Context, req BulkBlockRequest) error
	UnblockSeats(ctx context.Context, req BulkBlockRequest) error

	// Sold persistence, called by the hold lifecycle after a commit
	RecordSold(ctx context.Context, seatIDs []uuid.UUID, orderID string) error

	// Cache maintenance, also driven by the seat-event consumer
	InvalidateChartCaches(ctx context.Context, chartID string)

	SetCacheService(cacheService cache.Service)
}

type service struct {
	repo         Repository
	store        Store
	config       *config.Config
	cacheService cache.Service
	logger       *logger.Logger
}

func NewService(repo Repository, store Store, cfg *config.Config) Service {
	return &service{
		repo:   repo,
		store:  store,
		config: cfg,
		logger: logger.GetDefault(),
	}
}

func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

// CATALOG READS

func (s *service) ListCharts(ctx context.Context, page, limit int) (*ChartListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	cacheKey := constants.BuildChartListKey(page, limit)
	if s.cacheService != nil {
		var cached ChartListResponse
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	charts, total, err := s.repo.ListCharts(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list charts: %w", err)
	}

	summaries := make([]ChartSummary, 0, len(charts))
	for i := range charts {
		summaries = append(summaries, ChartSummary{
			ID:         charts[i].ID,
			EventID:    charts[i].EventID,
			Name:       charts[i].Name,
			ImageURL:   charts[i].ImageURL,
			Categories: len(charts[i].Categories),
			CreatedAt:  charts[i].CreatedAt,
		})
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	resp := &ChartListResponse{
		Charts: summaries,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}

	if s.cacheService != nil {
		_ = s.cacheService.Set(ctx, cacheKey, resp, constants.TTL_CHART_LIST)
	}
	return resp, nil
}

func (s *service) GetChart(ctx context.Context, chartID string) (*Chart, error) {
	id, err := uuid.Parse(chartID)
	if err != nil {
		return nil, fmt.Errorf("invalid chart ID: %w", err)
	}

	cacheKey := constants.BuildChartDetailKey(chartID)
	if s.cacheService != nil {
		var cached Chart
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	chart, err := s.repo.GetChartByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChartNotFound
		}
		return nil, fmt.Errorf("failed to get chart: %w", err)
	}

	if s.cacheService != nil {
		_ = s.cacheService.Set(ctx, cacheKey, chart, cacheTTL(s.config.Redis.ChartTTL, constants.TTL_CHART_DETAIL))
	}
	return chart, nil
}

func (s *service) GetSeatDetail(ctx context.Context, seatID string) (*SeatDetailResponse, error) {
	id, err := uuid.Parse(seatID)
	if err != nil {
		return nil, fmt.Errorf("invalid seat ID: %w", err)
	}

	seat, err := s.repo.GetSeatByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSeatNotFound
		}
		return nil, fmt.Errorf("failed to get seat: %w", err)
	}

	states, err := s.store.States(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("failed to get seat state: %w", err)
	}

	return &SeatDetailResponse{Seat: seat, State: states[0]}, nil
}

// STORE HYDRATION

func (s *service) LoadChart(ctx context.Context, chartID uuid.UUID) (int, error) {
	seats, err := s.repo.GetSeatsByChartID(ctx, chartID)
	if err != nil {
		return 0, fmt.Errorf("failed to load chart seats: %w", err)
	}
	if len(seats) == 0 {
		return 0, nil
	}

	categories, err := s.repo.GetCategoriesByChartID(ctx, chartID)
	if err != nil {
		return 0, fmt.Errorf("failed to load chart categories: %w", err)
	}
	byID := make(map[uuid.UUID]*SeatCategory, len(categories))
	for i := range categories {
		byID[categories[i].ID] = &categories[i]
	}

	states := make([]SeatState, 0, len(seats))
	for i := range seats {
		cat := seats[i].Category
		if cat == nil {
			cat = byID[seats[i].CategoryID]
		}
		states = append(states, StateFromSeat(&seats[i], cat))
	}

	if err := s.store.Register(ctx, states); err != nil {
		return 0, fmt.Errorf("failed to register chart seats: %w", err)
	}
	return len(states), nil
}

func (s *service) LoadAllCharts(ctx context.Context) (int, error) {
	ids, err := s.repo.GetChartIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list chart ids: %w", err)
	}

	total := 0
	for _, id := range ids {
		n, err := s.LoadChart(ctx, id)
		if err != nil {
			return total, err
		}
		total += n
	}
	s.logger.InfoWithContext(ctx, "Seat inventory hydrated", map[string]interface{}{
		"charts": len(ids),
		"seats":  total,
	})
	return total, nil
}

// LIVE STATE READS

func (s *service) GetSeats(ctx context.Context, chartID string, filter SeatFilter) ([]SeatState, error) {
	id, err := uuid.Parse(chartID)
	if err != nil {
		return nil, fmt.Errorf("invalid chart ID: %w", err)
	}

	// Resolve the chart first so an unknown id is distinguishable from
	// an empty chart.
	if _, err := s.GetChart(ctx, chartID); err != nil {
		return nil, err
	}

	snap := SnapshotFilter{
		ChartID:  id,
		Section:  filter.Section,
		Category: filter.Category,
	}
	if filter.Status != "" {
		snap.Statuses = []Status{Status(filter.Status)}
	}
	return s.store.Snapshot(ctx, snap)
}

func (s *service) GetAvailableSeats(ctx context.Context, chartID string) ([]SeatState, error) {
	return s.GetSeats(ctx, chartID, SeatFilter{Status: string(StatusAvailable)})
}

func (s *service) GetAvailability(ctx context.Context, chartID string) (*AvailabilitySummary, error) {
	id, err := uuid.Parse(chartID)
	if err != nil {
		return nil, fmt.Errorf("invalid chart ID: %w", err)
	}

	cacheKey := constants.BuildAvailabilityKey(chartID)
	if s.cacheService != nil {
		var cached AvailabilitySummary
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	if _, err := s.GetChart(ctx, chartID); err != nil {
		return nil, err
	}

	states, err := s.store.Snapshot(ctx, SnapshotFilter{ChartID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot chart: %w", err)
	}
	version, err := s.store.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read store version: %w", err)
	}

	summary := buildAvailabilitySummary(id, version, states)

	if s.cacheService != nil {
		_ = s.cacheService.Set(ctx, cacheKey, summary, cacheTTL(s.config.Redis.AvailabilityTTL, constants.TTL_AVAILABILITY))
	}
	return summary, nil
}

func buildAvailabilitySummary(chartID uuid.UUID, version uint64, states []SeatState) *AvailabilitySummary {
	summary := &AvailabilitySummary{
		ChartID: chartID,
		Version: version,
		Total:   len(states),
		AsOf:    time.Now().UTC(),
	}

	sections := make(map[string]*SectionCount)
	categories := make(map[string]*CategoryCount)
	for i := range states {
		st := &states[i]
		switch st.Status {
		case StatusAvailable:
			summary.Available++
		case StatusHeld:
			summary.Held++
		case StatusSold:
			summary.Sold++
		case StatusBlocked:
			summary.Blocked++
		}

		sec, ok := sections[st.Section]
		if !ok {
			sec = &SectionCount{Section: st.Section}
			sections[st.Section] = sec
		}
		sec.Total++
		if st.Status == StatusAvailable {
			sec.Available++
		}

		cat, ok := categories[st.Category]
		if !ok {
			cat = &CategoryCount{Category: st.Category, Price: st.Price}
			categories[st.Category] = cat
		}
		cat.Total++
		if st.Status == StatusAvailable {
			cat.Available++
		}
	}

	for _, sec := range sections {
		summary.BySection = append(summary.BySection, *sec)
	}
	sort.Slice(summary.BySection, func(i, j int) bool {
		return summary.BySection[i].Section < summary.BySection[j].Section
	})
	for _, cat := range categories {
		summary.ByCategory = append(summary.ByCategory, *cat)
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		return summary.ByCategory[i].Category < summary.ByCategory[j].Category
	})
	return summary
}

// OPERATIONAL TRANSITIONS

func (s *service) BlockSeats(ctx context.Context, req BulkBlockRequest) error {
	return s.setBlocked(ctx, req, true)
}

func (s *service) UnblockSeats(ctx context.Context, req BulkBlockRequest) error {
	return s.setBlocked(ctx, req, false)
}

func (s *service) setBlocked(ctx context.Context, req BulkBlockRequest, blocked bool) error {
	ids, err := parseSeatIDStrings(req.SeatIDs)
	if err != nil {
		return err
	}

	if err := s.store.SetBlocked(ctx, ids, blocked); err != nil {
		return err
	}

	status := StatusAvailable
	if blocked {
		status = StatusBlocked
	}
	if err := s.repo.UpdateSeatsStatus(ctx, ids, status); err != nil {
		return fmt.Errorf("failed to persist seat status: %w", err)
	}

	s.invalidateForSeats(ctx, ids)
	return nil
}

func (s *service) RecordSold(ctx context.Context, seatIDs []uuid.UUID, orderID string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	if err := s.repo.MarkSeatsSold(ctx, seatIDs, orderID); err != nil {
		return fmt.Errorf("failed to persist sold seats: %w", err)
	}
	s.invalidateForSeats(ctx, seatIDs)
	return nil
}

// CACHE MAINTENANCE

func (s *service) InvalidateChartCaches(ctx context.Context, chartID string) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.DeletePattern(ctx, constants.BuildChartInvalidationPattern(chartID)); err != nil {
		s.logger.ErrorWithContext(ctx, "Failed to invalidate chart caches", err, map[string]interface{}{
			"chart_id": chartID,
		})
	}
}

// invalidateForSeats drops cached read models for every chart touched
// by the given seats.
func (s *service) invalidateForSeats(ctx context.Context, seatIDs []uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	states, err := s.store.States(ctx, seatIDs)
	if err != nil {
		return
	}
	seen := make(map[uuid.UUID]bool)
	for i := range states {
		if !seen[states[i].ChartID] {
			seen[states[i].ChartID] = true
			s.InvalidateChartCaches(ctx, states[i].ChartID.String())
		}
	}
}

// cacheTTL prefers the configured value and falls back to the
// catalog default.
func cacheTTL(configured, fallback time.Duration) time.Duration {
	if configured > 0 {
		return configured
	}
	return fallback
}

func parseSeatIDStrings(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("invalid seat ID %q: %w", r, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
