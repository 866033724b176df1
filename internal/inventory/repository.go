package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists the seat catalog: charts, categories and the
// long-lived seat outcomes (SOLD, BLOCKED). The transient HELD state
// never touches the database; it lives only in the Store.
type Repository interface {
	// Chart catalog
	CreateChart(ctx context.Context, chart *Chart) error
	GetChartByID(ctx context.Context, id uuid.UUID) (*Chart, error)
	ListCharts(ctx context.Context, page, limit int) ([]Chart, int64, error)
	GetChartIDs(ctx context.Context) ([]uuid.UUID, error)

	// Category catalog
	GetCategoriesByChartID(ctx context.Context, chartID uuid.UUID) ([]SeatCategory, error)

	// Seat catalog
	CreateSeats(ctx context.Context, seats []Seat) error
	GetSeatByID(ctx context.Context, id uuid.UUID) (*Seat, error)
	GetSeatsByChartID(ctx context.Context, chartID uuid.UUID) ([]Seat, error)
	MarkSeatsSold(ctx context.Context, seatIDs []uuid.UUID, orderID string) error
	UpdateSeatsStatus(ctx context.Context, seatIDs []uuid.UUID, status Status) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CHART CATALOG

func (r *repository) CreateChart(ctx context.Context, chart *Chart) error {
	return r.db.WithContext(ctx).Create(chart).Error
}

func (r *repository) GetChartByID(ctx context.Context, id uuid.UUID) (*Chart, error) {
	var chart Chart
	err := r.db.WithContext(ctx).
		Preload("Categories").
		First(&chart, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &chart, nil
}

func (r *repository) ListCharts(ctx context.Context, page, limit int) ([]Chart, int64, error) {
	var charts []Chart
	var total int64

	if err := r.db.WithContext(ctx).Model(&Chart{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Preload("Categories").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&charts).Error
	return charts, total, err
}

func (r *repository) GetChartIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&Chart{}).Pluck("id", &ids).Error
	return ids, err
}

// CATEGORY CATALOG

func (r *repository) GetCategoriesByChartID(ctx context.Context, chartID uuid.UUID) ([]SeatCategory, error) {
	var categories []SeatCategory
	err := r.db.WithContext(ctx).
		Where("chart_id = ?", chartID).
		Order("base_price DESC").
		Find(&categories).Error
	return categories, err
}

// SEAT CATALOG

func (r *repository) CreateSeats(ctx context.Context, seats []Seat) error {
	return r.db.WithContext(ctx).CreateInBatches(&seats, 500).Error
}

func (r *repository) GetSeatByID(ctx context.Context, id uuid.UUID) (*Seat, error) {
	var seat Seat
	err := r.db.WithContext(ctx).Preload("Category").First(&seat, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *repository) GetSeatsByChartID(ctx context.Context, chartID uuid.UUID) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("chart_id = ?", chartID).
		// "row" needs quoting; it is a reserved word in Postgres.
		Order(`section ASC, "row" ASC, number ASC`).
		Find(&seats).Error
	return seats, err
}

func (r *repository) MarkSeatsSold(ctx context.Context, seatIDs []uuid.UUID, orderID string) error {
	return r.db.WithContext(ctx).
		Model(&Seat{}).
		Where("id IN ?", seatIDs).
		Updates(map[string]interface{}{
			"status":   StatusSold,
			"order_id": orderID,
		}).Error
}

func (r *repository) UpdateSeatsStatus(ctx context.Context, seatIDs []uuid.UUID, status Status) error {
	return r.db.WithContext(ctx).
		Model(&Seat{}).
		Where("id IN ?", seatIDs).
		Update("status", status).Error
}
