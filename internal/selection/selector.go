package selection

import (
	"sort"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
)

// Criteria describes what the caller wants. Section is a preference,
// not a filter: it is dropped when honoring it would starve the result.
// MaxPrice is a hard constraint.
type Criteria struct {
	Quantity       int
	MaxPrice       *float64
	Section        string
	PreferTogether bool
}

// Result is the proposed seat set. Shortage is set when the pool could
// not cover the requested quantity; the seats present are still the
// best on offer. Contiguous reports whether the seats form one
// adjacent run, so callers can tell a real run from the ranked-singles
// fallback.
type Result struct {
	Seats      []inventory.SeatState
	Contiguous bool
	Shortage   bool
	Requested  int
	Available  int
}

// Selector proposes seat sets from a snapshot. It never mutates
// anything: committing a proposal goes through the hold lifecycle, and
// the caller re-invokes the selector if that acquisition loses a race.
type Selector struct {
	// rowTolerance is the max |Δy| in percent units for two seats to
	// count as the same row band (curved rows drift a little).
	rowTolerance float64
	// gapTolerance is the max x distance in percent units between
	// neighbors in a run (aisles break runs).
	gapTolerance float64
}

func NewSelector(rowTolerancePercent, gapTolerancePercent float64) *Selector {
	return &Selector{
		rowTolerance: rowTolerancePercent,
		gapTolerance: gapTolerancePercent,
	}
}

// Pick proposes the best seat set for the criteria from the given
// snapshot. Pure: the snapshot is read, never written.
func (s *Selector) Pick(seats []inventory.SeatState, c Criteria) *Result {
	if c.Quantity < 1 {
		c.Quantity = 1
	}

	pool := make([]inventory.SeatState, 0, len(seats))
	for _, seat := range seats {
		if seat.Status != inventory.StatusAvailable {
			continue
		}
		if c.MaxPrice != nil && seat.Price > *c.MaxPrice {
			continue
		}
		pool = append(pool, seat)
	}

	// Section preference: honor it only while it can still satisfy the
	// quantity, otherwise widen back out to every section.
	if c.Section != "" {
		scoped := make([]inventory.SeatState, 0, len(pool))
		for _, seat := range pool {
			if seat.Section == c.Section {
				scoped = append(scoped, seat)
			}
		}
		if len(scoped) >= c.Quantity {
			pool = scoped
		}
	}

	available := len(pool)
	rankSeats(pool)

	result := &Result{
		Requested: c.Quantity,
		Available: available,
	}

	if available < c.Quantity {
		result.Seats = pool
		result.Shortage = true
		result.Contiguous = available > 0 && s.isRun(pool)
		return result
	}

	if c.PreferTogether {
		if run := s.bestRun(pool, c.Quantity); run != nil {
			result.Seats = run
			result.Contiguous = true
			return result
		}
	}

	result.Seats = pool[:c.Quantity]
	result.Contiguous = c.Quantity == 1
	return result
}

// rankSeats orders by view quality descending, then price ascending,
// then section/row/number so equal seats keep a stable order.
func rankSeats(seats []inventory.SeatState) {
	sort.SliceStable(seats, func(i, j int) bool {
		a, b := seats[i], seats[j]
		if a.ViewQuality.Rank() != b.ViewQuality.Rank() {
			return a.ViewQuality.Rank() > b.ViewQuality.Rank()
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		if a.Section != b.Section {
			return a.Section < b.Section
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Number < b.Number
	})
}

// bestRun searches every section's row bands for the contiguous window
// of exactly q seats with the best aggregate rank. Returns nil when no
// run is long enough.
func (s *Selector) bestRun(pool []inventory.SeatState, q int) []inventory.SeatState {
	var best []inventory.SeatState
	bestRank := -1
	bestPrice := 0.0

	for _, run := range s.adjacentRuns(pool) {
		if len(run) < q {
			continue
		}
		for start := 0; start+q <= len(run); start++ {
			window := run[start : start+q]
			rank, price := 0, 0.0
			for _, seat := range window {
				rank += seat.ViewQuality.Rank()
				price += seat.Price
			}
			if rank > bestRank || (rank == bestRank && price < bestPrice) {
				best = append([]inventory.SeatState(nil), window...)
				bestRank = rank
				bestPrice = price
			}
		}
	}

	return best
}

// adjacentRuns splits the pool into maximal runs of neighboring seats:
// same section, same row band by y tolerance, ordered by x with no gap
// wider than the gap tolerance.
func (s *Selector) adjacentRuns(pool []inventory.SeatState) [][]inventory.SeatState {
	bySection := make(map[string][]inventory.SeatState)
	for _, seat := range pool {
		bySection[seat.Section] = append(bySection[seat.Section], seat)
	}

	sections := make([]string, 0, len(bySection))
	for section := range bySection {
		sections = append(sections, section)
	}
	sort.Strings(sections)

	var runs [][]inventory.SeatState
	for _, section := range sections {
		seats := bySection[section]
		sort.SliceStable(seats, func(i, j int) bool {
			return seats[i].Position.Y < seats[j].Position.Y
		})

		// Split into row bands wherever the y step exceeds tolerance.
		bandStart := 0
		for i := 1; i <= len(seats); i++ {
			if i < len(seats) && seats[i].Position.Y-seats[i-1].Position.Y <= s.rowTolerance {
				continue
			}
			band := append([]inventory.SeatState(nil), seats[bandStart:i]...)
			sort.SliceStable(band, func(a, b int) bool {
				return band[a].Position.X < band[b].Position.X
			})

			runStart := 0
			for j := 1; j <= len(band); j++ {
				if j < len(band) && band[j].Position.X-band[j-1].Position.X <= s.gapTolerance {
					continue
				}
				runs = append(runs, band[runStart:j])
				runStart = j
			}
			bandStart = i
		}
	}

	return runs
}

// isRun reports whether the given seats already form one adjacent run.
func (s *Selector) isRun(seats []inventory.SeatState) bool {
	if len(seats) <= 1 {
		return len(seats) == 1
	}
	runs := s.adjacentRuns(seats)
	return len(runs) == 1 && len(runs[0]) == len(seats)
}
