package holds

// Status is the lifecycle state of a hold. ACTIVE is the only
// non-terminal state: a hold leaves it exactly once, into exactly one
// of the terminal states.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusExpired   Status = "EXPIRED"
	StatusReleased  Status = "RELEASED"
	StatusCommitted Status = "COMMITTED"
)

// IsValid checks if the hold status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusReleased, StatusCommitted:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the hold has been resolved
func (s Status) IsTerminal() bool {
	return s != StatusActive && s.IsValid()
}
