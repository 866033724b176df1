package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds critical database constraints for concurrency control
func MigrateConstraints(db *gorm.DB) error {
	// Prevent two catalog rows for the same seat label within one chart
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_seat_label_per_chart
		ON seats (chart_id, label);
	`).Error
	if err != nil {
		return err
	}

	// Index for availability snapshots filtered by chart and status
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_seats_chart_status
		ON seats (chart_id, status);
	`).Error
	if err != nil {
		return err
	}

	// Index for the expiration sweep scanning active holds by deadline
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_hold_records_status_expires
		ON hold_records (status, expires_at);
	`).Error
	if err != nil {
		return err
	}

	// Index for listing holds by owning session
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_hold_records_session
		ON hold_records (session_id);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
