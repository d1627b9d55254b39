package models

import (
	"time"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
)

// Match is one stored fixture, deduplicated across providers. ExternalIDs
// maps provider id to that provider's event id so re-observations resolve
// without rescoring.
type Match struct {
	ID          int64             `json:"id"`
	Team1Raw    string            `json:"team1"`
	Team2Raw    string            `json:"team2"`
	Team1Norm   string            `json:"team1_normalized"`
	Team2Norm   string            `json:"team2_normalized"`
	Sport       enums.Sport       `json:"sport_id"`
	LeagueName  string            `json:"league_name,omitempty"`
	StartTime   time.Time         `json:"start_time"`
	ExternalIDs map[int]string    `json:"external_ids"`
	Status      enums.MatchStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Name renders "Team1 vs Team2" for payloads and logs.
func (m *Match) Name() string {
	return m.Team1Raw + " vs " + m.Team2Raw
}

// Started reports whether the fixture kicked off before now.
func (m *Match) Started(now time.Time) bool {
	return m.StartTime.Before(now)
}
