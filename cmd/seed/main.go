package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/config"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/database"

	"github.com/google/uuid"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Seating Engine Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	// Clean database
	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	// Seed data
	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Start the server to hydrate the seat store.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	// Order matters due to foreign key constraints
	// Delete in reverse dependency order
	tables := []string{
		"hold_records",
		"seats",
		"seat_categories",
		"charts",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	if err := s.SeedGrandTheater(); err != nil {
		return fmt.Errorf("failed to seed Grand Theater: %w", err)
	}

	if err := s.SeedRiversideArena(); err != nil {
		return fmt.Errorf("failed to seed Riverside Arena: %w", err)
	}

	// Clear Redis so stale availability summaries and seat state from a
	// previous run do not survive the reseed
	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to clear Redis cache: %v", err)
	}

	return nil
}

// seatRow describes one row of seats laid out left to right in percent space
type seatRow struct {
	row    string
	count  int
	y      float64
	xStart float64
	xStep  float64
}

// SeedGrandTheater creates a proscenium theater chart: orchestra,
// mezzanine and balcony, stage at the top of the image.
func (s *Seeder) SeedGrandTheater() error {
	fmt.Println("  🎭 Seeding chart: Grand Theater...")

	chart := inventory.Chart{
		ID:          uuid.New(),
		EventID:     uuid.New(),
		Name:        "Grand Theater",
		ImageURL:    "https://assets.example.com/charts/grand-theater.png",
		ImageWidth:  1600,
		ImageHeight: 900,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.db.PostgreSQL.Create(&chart).Error; err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	fmt.Printf("    ✅ Created chart: %s (%s)\n", chart.Name, chart.ID)

	orchestra := []seatRow{
		{"A", 12, 30, 22, 5},
		{"B", 12, 36, 22, 5},
		{"C", 12, 42, 22, 5},
	}
	if err := s.createCategoryWithSeats(chart.ID, inventory.SeatCategory{
		Key:         "orchestra",
		Name:        "Orchestra",
		Color:       "#C0362C",
		BasePrice:   120.0,
		ViewQuality: inventory.ViewExcellent,
		Amenities:   []string{"complimentary_program"},
	}, "Orchestra", orchestra); err != nil {
		return err
	}

	mezzanine := []seatRow{
		{"D", 10, 58, 27, 5},
		{"E", 10, 64, 27, 5},
	}
	if err := s.createCategoryWithSeats(chart.ID, inventory.SeatCategory{
		Key:         "mezzanine",
		Name:        "Mezzanine",
		Color:       "#2D6CB5",
		BasePrice:   90.0,
		ViewQuality: inventory.ViewGood,
		Accessible:  true,
		Amenities:   []string{"elevator_access"},
	}, "Mezzanine", mezzanine); err != nil {
		return err
	}

	balcony := []seatRow{
		{"F", 14, 80, 18, 4.5},
		{"G", 14, 86, 18, 4.5},
	}
	if err := s.createCategoryWithSeats(chart.ID, inventory.SeatCategory{
		Key:         "balcony",
		Name:        "Balcony",
		Color:       "#7B5CB8",
		BasePrice:   60.0,
		ViewQuality: inventory.ViewFair,
	}, "Balcony", balcony); err != nil {
		return err
	}

	// The follow-spot platform takes the center of balcony row G
	if err := s.blockSeats(chart.ID, "Balcony", []string{"G7", "G8"}); err != nil {
		return err
	}

	return nil
}

// SeedRiversideArena creates an arena chart: floor rows plus two bowls.
func (s *Seeder) SeedRiversideArena() error {
	fmt.Println("  🏟️ Seeding chart: Riverside Arena...")

	chart := inventory.Chart{
		ID:          uuid.New(),
		EventID:     uuid.New(),
		Name:        "Riverside Arena",
		ImageURL:    "https://assets.example.com/charts/riverside-arena.png",
		ImageWidth:  2000,
		ImageHeight: 1200,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.db.PostgreSQL.Create(&chart).Error; err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	fmt.Printf("    ✅ Created chart: %s (%s)\n", chart.Name, chart.ID)

	floor := []seatRow{
		{"1", 16, 42, 20, 4},
		{"2", 16, 48, 20, 4},
	}
	if err := s.createCategoryWithSeats(chart.ID, inventory.SeatCategory{
		Key:         "floor",
		Name:        "Floor",
		Color:       "#C0362C",
		BasePrice:   150.0,
		ViewQuality: inventory.ViewExcellent,
	}, "Floor", floor); err != nil {
		return err
	}

	lowerBowl := []seatRow{
		{"A", 18, 62, 16, 4},
		{"B", 18, 68, 16, 4},
	}
	if err := s.createCategoryWithSeats(chart.ID, inventory.SeatCategory{
		Key:         "lower",
		Name:        "Lower Bowl",
		Color:       "#1F8A4C",
		BasePrice:   110.0,
		ViewQuality: inventory.ViewGood,
		Accessible:  true,
	}, "Lower Bowl", lowerBowl); err != nil {
		return err
	}

	upperBowl := []seatRow{
		{"A", 20, 82, 12, 4},
		{"B", 20, 88, 12, 4},
	}
	if err := s.createCategoryWithSeats(chart.ID, inventory.SeatCategory{
		Key:         "upper",
		Name:        "Upper Bowl",
		Color:       "#6B7280",
		BasePrice:   70.0,
		ViewQuality: inventory.ViewLimited,
	}, "Upper Bowl", upperBowl); err != nil {
		return err
	}

	return nil
}

// createCategoryWithSeats persists one category and its seat grid.
// Capacity is derived from the rows so it never drifts from the catalog.
func (s *Seeder) createCategoryWithSeats(chartID uuid.UUID, category inventory.SeatCategory, section string, rows []seatRow) error {
	total := 0
	for _, r := range rows {
		total += r.count
	}

	category.ID = uuid.New()
	category.ChartID = chartID
	category.Capacity = total
	category.CreatedAt = time.Now()
	category.UpdatedAt = time.Now()

	if err := s.db.PostgreSQL.Create(&category).Error; err != nil {
		return fmt.Errorf("failed to create category %s: %w", category.Key, err)
	}
	fmt.Printf("      ✅ Created category: %s (%d seats)\n", category.Name, total)

	for _, r := range rows {
		for i := 1; i <= r.count; i++ {
			seat := inventory.Seat{
				ID:         uuid.New(),
				ChartID:    chartID,
				CategoryID: category.ID,
				Label:      fmt.Sprintf("%s%d", r.row, i),
				Section:    section,
				Row:        r.row,
				Number:     i,
				Position: inventory.Position{
					X: r.xStart + float64(i-1)*r.xStep,
					Y: r.y,
				},
				Status:    inventory.StatusAvailable,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}

			if err := s.db.PostgreSQL.Create(&seat).Error; err != nil {
				return fmt.Errorf("failed to create seat %s: %w", seat.Label, err)
			}
		}
	}

	return nil
}

// blockSeats marks catalog rows BLOCKED so hydration registers them as
// non-sellable from the first snapshot.
func (s *Seeder) blockSeats(chartID uuid.UUID, section string, labels []string) error {
	for _, label := range labels {
		result := s.db.PostgreSQL.Model(&inventory.Seat{}).
			Where("chart_id = ? AND section = ? AND label = ?", chartID, section, label).
			Update("status", inventory.StatusBlocked)
		if result.Error != nil {
			return fmt.Errorf("failed to block seat %s: %w", label, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("seat %s not found in section %s", label, section)
		}
		fmt.Printf("      🚧 Blocked seat: %s (%s)\n", label, section)
	}
	return nil
}
