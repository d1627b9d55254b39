package enums

// MatchStatus is the lifecycle state of a stored match.
type MatchStatus string

const (
	StatusUpcoming  MatchStatus = "upcoming"
	StatusLive      MatchStatus = "live"
	StatusFinished  MatchStatus = "finished"
	StatusCancelled MatchStatus = "cancelled"
)

// IsValid checks if status is a known lifecycle state
func (s MatchStatus) IsValid() bool {
	switch s {
	case StatusUpcoming, StatusLive, StatusFinished, StatusCancelled:
		return true
	default:
		return false
	}
}

// String returns string representation
func (s MatchStatus) String() string {
	return string(s)
}
