package inventory

// Status is the authoritative state of a seat. "Selected" exists only
// inside a browsing session view and is never stored here.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusHeld      Status = "HELD"
	StatusSold      Status = "SOLD"
	StatusBlocked   Status = "BLOCKED"
)

// IsValid checks if the seat status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusHeld, StatusSold, StatusBlocked:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the status can never change again.
// Sold seats never revert.
func (s Status) IsTerminal() bool {
	return s == StatusSold
}

// CanHold checks if a seat with this status can be acquired by a hold
func (s Status) CanHold() bool {
	return s == StatusAvailable
}

// ViewQuality grades how good the sightline from a category's seats is.
type ViewQuality string

const (
	ViewExcellent ViewQuality = "EXCELLENT"
	ViewGood      ViewQuality = "GOOD"
	ViewFair      ViewQuality = "FAIR"
	ViewLimited   ViewQuality = "LIMITED"
)

// Rank orders view qualities for ranking, higher is better.
func (v ViewQuality) Rank() int {
	switch v {
	case ViewExcellent:
		return 4
	case ViewGood:
		return 3
	case ViewFair:
		return 2
	case ViewLimited:
		return 1
	}
	return 0
}

// IsValid checks if the view quality is valid
func (v ViewQuality) IsValid() bool {
	return v.Rank() > 0
}
