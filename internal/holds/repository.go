package holds

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists the hold audit trail. Rows are append-then-update:
// creation inserts the ACTIVE row and resolution stamps the terminal
// status, never deleting anything.
type Repository interface {
	CreateHold(ctx context.Context, record *HoldRecord) error
	UpdateExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	ResolveHold(ctx context.Context, id uuid.UUID, status Status, resolvedAt time.Time, reason, orderID string) error
	GetHoldByID(ctx context.Context, id uuid.UUID) (*HoldRecord, error)
	GetHoldsBySessionID(ctx context.Context, sessionID string) ([]HoldRecord, error)
	GetActiveHolds(ctx context.Context) ([]HoldRecord, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateHold(ctx context.Context, record *HoldRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) UpdateExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&HoldRecord{}).
		Where("id = ? AND status = ?", id, StatusActive).
		Update("expires_at", expiresAt).Error
}

// ResolveHold stamps a terminal status on the audit row. The status
// guard in the WHERE clause keeps the row's transition single-shot even
// if two engine instances share the database.
func (r *repository) ResolveHold(ctx context.Context, id uuid.UUID, status Status, resolvedAt time.Time, reason, orderID string) error {
	updates := map[string]interface{}{
		"status":      status,
		"resolved_at": resolvedAt,
	}
	if reason != "" {
		updates["reason"] = reason
	}
	if orderID != "" {
		updates["order_id"] = orderID
	}
	return r.db.WithContext(ctx).
		Model(&HoldRecord{}).
		Where("id = ? AND status = ?", id, StatusActive).
		Updates(updates).Error
}

func (r *repository) GetHoldByID(ctx context.Context, id uuid.UUID) (*HoldRecord, error) {
	var record HoldRecord
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) GetHoldsBySessionID(ctx context.Context, sessionID string) ([]HoldRecord, error) {
	var records []HoldRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

func (r *repository) GetActiveHolds(ctx context.Context) ([]HoldRecord, error) {
	var records []HoldRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusActive).
		Order("expires_at ASC").
		Find(&records).Error
	return records, err
}
