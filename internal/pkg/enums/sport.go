package enums

// Sport is a stable small-integer sport id shared by every provider and by
// the relational store.
type Sport int

const (
	Football    Sport = 1
	Basketball  Sport = 2
	Tennis      Sport = 3
	Hockey      Sport = 4
	TableTennis Sport = 5
)

// SportInfo contains display information about a sport
type SportInfo struct {
	Name  string
	Alias string
}

// GetSportInfo returns sport information
func (s Sport) GetSportInfo() SportInfo {
	switch s {
	case Football:
		return SportInfo{
			Name:  "Football",
			Alias: "football",
		}
	case Basketball:
		return SportInfo{
			Name:  "Basketball",
			Alias: "basketball",
		}
	case Tennis:
		return SportInfo{
			Name:  "Tennis",
			Alias: "tennis",
		}
	case Hockey:
		return SportInfo{
			Name:  "Hockey",
			Alias: "hockey",
		}
	case TableTennis:
		return SportInfo{
			Name:  "Table Tennis",
			Alias: "table_tennis",
		}
	default:
		return SportInfo{
			Name:  "Unknown",
			Alias: "unknown",
		}
	}
}

// IsValid checks if sport is supported
func (s Sport) IsValid() bool {
	switch s {
	case Football, Basketball, Tennis, Hockey, TableTennis:
		return true
	default:
		return false
	}
}

// String returns the sport alias
func (s Sport) String() string {
	return s.GetSportInfo().Alias
}

// GetAllSports returns all supported sports
func GetAllSports() []Sport {
	return []Sport{
		Football,
		Basketball,
		Tennis,
		Hockey,
		TableTennis,
	}
}

// ParseSport parses a sport alias ("football", "tennis", ...) to a Sport id.
func ParseSport(alias string) (Sport, bool) {
	for _, s := range GetAllSports() {
		if s.GetSportInfo().Alias == alias {
			return s, true
		}
	}
	return 0, false
}
