package models

import (
	"time"
)

// Leg is one side of an arbitrage: the provider offering the best price for
// one outcome of the market. OutcomeIndex is zero-based; for selection
// markets it indexes the declared partition order.
type Leg struct {
	ProviderID   int     `json:"provider_id"`
	OutcomeIndex int     `json:"outcome_index"`
	Price        float64 `json:"price"`
	Selection    string  `json:"selection,omitempty"`
}

// Arbitrage is a detected risk-free combination. Legs and Stakes are stored
// as JSON blobs; ContentHash deduplicates re-detections of the same prices.
type Arbitrage struct {
	ID          int64     `json:"id"`
	MatchID     int64     `json:"match_id"`
	BetTypeID   int       `json:"bet_type_id"`
	Margin      float64   `json:"margin"`
	ProfitPct   float64   `json:"profit_percent"`
	Legs        []Leg     `json:"best_legs"`
	Stakes      []float64 `json:"stake_split"`
	ContentHash string    `json:"content_hash"`
	DetectedAt  time.Time `json:"detected_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Active      bool      `json:"active"`
}
