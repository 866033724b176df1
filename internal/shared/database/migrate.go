package database

import (
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/holds"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&inventory.Chart{},
		&inventory.SeatCategory{},
		&inventory.Seat{},
		&holds.HoldRecord{},
	)
}
