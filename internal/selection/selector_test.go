package selection

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
)

func testSeat(section, row string, number int, x, y float64, quality inventory.ViewQuality, price float64) inventory.SeatState {
	return inventory.SeatState{
		SeatID:      uuid.New(),
		Section:     section,
		Row:         row,
		Number:      number,
		Position:    inventory.Position{X: x, Y: y},
		Category:    "standard",
		Price:       price,
		ViewQuality: quality,
		Status:      inventory.StatusAvailable,
	}
}

func newTestSelector() *Selector {
	return NewSelector(1.5, 4.0)
}

func seatLabels(seats []inventory.SeatState) []int {
	out := make([]int, len(seats))
	for i, s := range seats {
		out[i] = s.Number
	}
	return out
}

func TestPick_FiltersNonAvailable(t *testing.T) {
	s := newTestSelector()

	held := testSeat("A", "1", 1, 10, 20, inventory.ViewExcellent, 100)
	held.Status = inventory.StatusHeld
	sold := testSeat("A", "1", 2, 14, 20, inventory.ViewExcellent, 100)
	sold.Status = inventory.StatusSold
	open := testSeat("A", "1", 3, 18, 20, inventory.ViewGood, 80)

	result := s.Pick([]inventory.SeatState{held, sold, open}, Criteria{Quantity: 1})

	require.Len(t, result.Seats, 1)
	assert.Equal(t, open.SeatID, result.Seats[0].SeatID)
}

func TestPick_RanksByViewQualityThenPrice(t *testing.T) {
	s := newTestSelector()

	seats := []inventory.SeatState{
		testSeat("A", "1", 1, 10, 20, inventory.ViewGood, 60),
		testSeat("A", "1", 2, 14, 20, inventory.ViewExcellent, 120),
		testSeat("A", "1", 3, 18, 20, inventory.ViewExcellent, 100),
		testSeat("A", "1", 4, 22, 20, inventory.ViewFair, 30),
	}

	result := s.Pick(seats, Criteria{Quantity: 2, PreferTogether: false})

	require.Len(t, result.Seats, 2)
	// Both excellent seats win; the cheaper one first.
	assert.Equal(t, []int{3, 2}, seatLabels(result.Seats))
}

func TestPick_MaxPriceIsHard(t *testing.T) {
	s := newTestSelector()

	seats := []inventory.SeatState{
		testSeat("A", "1", 1, 10, 20, inventory.ViewExcellent, 150),
		testSeat("A", "1", 2, 14, 20, inventory.ViewGood, 80),
		testSeat("A", "1", 3, 18, 20, inventory.ViewGood, 90),
	}

	maxPrice := 100.0
	result := s.Pick(seats, Criteria{Quantity: 3, MaxPrice: &maxPrice})

	// The expensive seat is never substituted in, even though the
	// result runs short because of it.
	assert.True(t, result.Shortage)
	assert.Len(t, result.Seats, 2)
	assert.Equal(t, 3, result.Requested)
	assert.Equal(t, 2, result.Available)
}

func TestPick_SectionIsSoft(t *testing.T) {
	s := newTestSelector()

	seats := []inventory.SeatState{
		testSeat("B", "1", 1, 10, 20, inventory.ViewGood, 80),
		testSeat("B", "1", 2, 14, 20, inventory.ViewGood, 80),
		testSeat("A", "1", 3, 10, 40, inventory.ViewFair, 50),
		testSeat("A", "1", 4, 14, 40, inventory.ViewFair, 50),
		testSeat("A", "1", 5, 18, 40, inventory.ViewFair, 50),
		testSeat("A", "1", 6, 22, 40, inventory.ViewFair, 50),
	}

	t.Run("honored while it can satisfy quantity", func(t *testing.T) {
		result := s.Pick(seats, Criteria{Quantity: 2, Section: "B", PreferTogether: true})
		require.Len(t, result.Seats, 2)
		for _, seat := range result.Seats {
			assert.Equal(t, "B", seat.Section)
		}
	})

	t.Run("dropped when it would starve the result", func(t *testing.T) {
		result := s.Pick(seats, Criteria{Quantity: 4, Section: "B", PreferTogether: true})
		require.Len(t, result.Seats, 4)
		assert.False(t, result.Shortage)
		for _, seat := range result.Seats {
			assert.Equal(t, "A", seat.Section)
		}
	})
}

func TestPick_PrefersContiguousRunOverScatteredSingles(t *testing.T) {
	s := newTestSelector()

	// One run of exactly four GOOD seats, plus four scattered EXCELLENT
	// singles that individually outrank them.
	seats := []inventory.SeatState{
		testSeat("A", "3", 1, 10, 30, inventory.ViewGood, 80),
		testSeat("A", "3", 2, 13, 30, inventory.ViewGood, 80),
		testSeat("A", "3", 3, 16, 30, inventory.ViewGood, 80),
		testSeat("A", "3", 4, 19, 30, inventory.ViewGood, 80),
		testSeat("A", "1", 10, 10, 10, inventory.ViewExcellent, 120),
		testSeat("A", "1", 11, 40, 10, inventory.ViewExcellent, 120),
		testSeat("B", "5", 12, 10, 60, inventory.ViewExcellent, 120),
		testSeat("B", "7", 13, 40, 80, inventory.ViewExcellent, 120),
	}

	result := s.Pick(seats, Criteria{Quantity: 4, PreferTogether: true})

	require.Len(t, result.Seats, 4)
	assert.True(t, result.Contiguous)
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, seatLabels(result.Seats))
}

func TestPick_FallsBackToRankedSinglesWhenNoRunExists(t *testing.T) {
	s := newTestSelector()

	// Every seat is isolated: gaps of 10 percent between neighbors.
	seats := []inventory.SeatState{
		testSeat("A", "1", 1, 10, 10, inventory.ViewExcellent, 120),
		testSeat("A", "1", 2, 25, 10, inventory.ViewGood, 90),
		testSeat("A", "2", 3, 10, 30, inventory.ViewGood, 70),
		testSeat("B", "1", 4, 10, 60, inventory.ViewFair, 40),
	}

	result := s.Pick(seats, Criteria{Quantity: 3, PreferTogether: true})

	require.Len(t, result.Seats, 3)
	assert.False(t, result.Contiguous)
	assert.False(t, result.Shortage)
	// Top-ranked individuals, in rank order.
	assert.Equal(t, []int{1, 3, 2}, seatLabels(result.Seats))
}

func TestPick_AisleGapBreaksRuns(t *testing.T) {
	s := newTestSelector()

	// Three seats, an aisle, then two seats in the same row band.
	seats := []inventory.SeatState{
		testSeat("A", "1", 1, 10, 20, inventory.ViewGood, 80),
		testSeat("A", "1", 2, 13, 20, inventory.ViewGood, 80),
		testSeat("A", "1", 3, 16, 20, inventory.ViewGood, 80),
		testSeat("A", "1", 4, 30, 20, inventory.ViewGood, 80),
		testSeat("A", "1", 5, 33, 20, inventory.ViewGood, 80),
	}

	result := s.Pick(seats, Criteria{Quantity: 3, PreferTogether: true})

	require.True(t, result.Contiguous)
	assert.ElementsMatch(t, []int{1, 2, 3}, seatLabels(result.Seats))

	// Four together cannot bridge the aisle.
	result = s.Pick(seats, Criteria{Quantity: 4, PreferTogether: true})
	assert.False(t, result.Contiguous)
}

func TestPick_BestWindowWithinRun(t *testing.T) {
	s := newTestSelector()

	// One long run whose right end has the better seats.
	seats := []inventory.SeatState{
		testSeat("A", "1", 1, 10, 20, inventory.ViewFair, 50),
		testSeat("A", "1", 2, 13, 20, inventory.ViewFair, 50),
		testSeat("A", "1", 3, 16, 20, inventory.ViewGood, 70),
		testSeat("A", "1", 4, 19, 20, inventory.ViewExcellent, 90),
		testSeat("A", "1", 5, 22, 20, inventory.ViewExcellent, 90),
	}

	result := s.Pick(seats, Criteria{Quantity: 3, PreferTogether: true})

	require.True(t, result.Contiguous)
	assert.ElementsMatch(t, []int{3, 4, 5}, seatLabels(result.Seats))
}

func TestPick_ShortPoolSetsShortageFlag(t *testing.T) {
	s := newTestSelector()

	var seats []inventory.SeatState
	for i := 0; i < 6; i++ {
		seats = append(seats, testSeat("A", "1", i+1, 10+float64(i)*3, 20, inventory.ViewGood, 80))
	}

	result := s.Pick(seats, Criteria{Quantity: 10, PreferTogether: true})

	assert.True(t, result.Shortage)
	assert.Len(t, result.Seats, 6)
	assert.Equal(t, 10, result.Requested)
	assert.Equal(t, 6, result.Available)
}

func TestPick_CurvedRowWithinTolerance(t *testing.T) {
	s := newTestSelector()

	// A curved row: y drifts by less than the row tolerance per seat.
	seats := []inventory.SeatState{
		testSeat("A", "1", 1, 10, 20.0, inventory.ViewGood, 80),
		testSeat("A", "1", 2, 13, 21.0, inventory.ViewGood, 80),
		testSeat("A", "1", 3, 16, 21.8, inventory.ViewGood, 80),
	}

	result := s.Pick(seats, Criteria{Quantity: 3, PreferTogether: true})

	assert.True(t, result.Contiguous)
	assert.Len(t, result.Seats, 3)
}
