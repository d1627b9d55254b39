package models

import (
	"time"

	"github.com/nstojkov/betsnipe/internal/pkg/markets"
)

// CurrentOdds is one provider's latest prices for one canonical market on
// one match. The five-tuple (match, provider, bet type, margin, selection)
// is the primary key; re-observation replaces the row in place.
type CurrentOdds struct {
	MatchID    int64     `json:"match_id"`
	ProviderID int       `json:"provider_id"`
	BetTypeID  int       `json:"bet_type_id"`
	Margin     float64   `json:"margin"`
	Selection  string    `json:"selection"`
	P1         float64   `json:"p1"`
	P2         *float64  `json:"p2,omitempty"`
	P3         *float64  `json:"p3,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Key rebuilds the canonical market key of the row.
func (o *CurrentOdds) Key() markets.Key {
	return markets.Key{BetTypeID: o.BetTypeID, Selection: o.Selection, Margin: o.Margin}
}

// Price returns the price for a zero-based outcome index, ok=false past the
// row's arity.
func (o *CurrentOdds) Price(outcome int) (float64, bool) {
	switch outcome {
	case 0:
		return o.P1, true
	case 1:
		if o.P2 != nil {
			return *o.P2, true
		}
	case 2:
		if o.P3 != nil {
			return *o.P3, true
		}
	}
	return 0, false
}
