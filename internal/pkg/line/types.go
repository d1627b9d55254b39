// Package line defines the uniform scrape-side record shape. Every provider
// adapter maps its API responses into RawMatch records whose odds already
// carry canonical market keys; the resolver and persister consume them.
package line

import (
	"time"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
)

// RawOdds is one priced market on a scraped match. The key is canonical, so
// the same wager from any provider compares equal. Arity decides how many
// price fields carry meaning: p2/p3 stay nil beyond it.
type RawOdds struct {
	Key markets.Key
	P1  float64
	P2  *float64
	P3  *float64
}

// RawMatch is one fixture as a single provider reported it during one cycle.
// It is never persisted as-is; the resolver folds it onto a stored match.
type RawMatch struct {
	ProviderID int
	Team1      string
	Team2      string
	Sport      enums.Sport
	StartTime  time.Time
	League     string
	ExternalID string
	Odds       []RawOdds
	// Dropped counts price rows that could not be folded onto the canonical
	// vocabulary, feeding the per-provider unmapped counter.
	Dropped int
}

// AddPrices is the common adapter path: round the margin and prices to
// their storage ticks, validate against the vocabulary and append. It
// reports whether the row was kept so adapters can count drops.
func (m *RawMatch) AddPrices(key markets.Key, p1 float64, p2, p3 *float64) bool {
	key.Margin = markets.RoundMargin(key.Margin)
	p1 = markets.RoundPrice(p1)
	if p2 != nil {
		p2 = Ptr(markets.RoundPrice(*p2))
	}
	if p3 != nil {
		p3 = Ptr(markets.RoundPrice(*p3))
	}
	if err := markets.Validate(key, p1, p2, p3); err != nil {
		m.Dropped++
		return false
	}
	m.Odds = append(m.Odds, RawOdds{Key: key, P1: p1, P2: p2, P3: p3})
	return true
}

// Ptr is a convenience for optional price fields.
func Ptr(v float64) *float64 { return &v }

// Matchup renders "Team1 vs Team2" for logs.
func (m *RawMatch) Matchup() string {
	return m.Team1 + " vs " + m.Team2
}

// HasOdds reports whether any market survived encoding.
func (m *RawMatch) HasOdds() bool {
	return len(m.Odds) > 0
}
