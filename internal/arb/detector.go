// Package arb finds cross-provider arbitrage in a snapshot of current odds.
// A market is arbitrable when backing every outcome at the best available
// price implies a total stake below one unit: S = Σ 1/pᵢ < 1, with a
// guaranteed return of (1/S − 1) on the combined stake.
package arb

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/nstojkov/betsnipe/internal/pkg/markets"
	"github.com/nstojkov/betsnipe/internal/pkg/models"
	"github.com/nstojkov/betsnipe/internal/pkg/storage"
)

// Detector scans odds snapshots market by market.
type Detector struct {
	minProfit float64
}

// New builds a detector with a profit floor in percent. Combinations below
// the floor are still reported as live so stored opportunities survive small
// price drift, but they are not persisted or published.
func New(minProfitPct float64) *Detector {
	return &Detector{minProfit: minProfitPct}
}

// Result is one detection pass over a snapshot.
type Result struct {
	// Opportunities at or above the profit floor, ready to persist.
	Opportunities []models.Arbitrage
	// LiveHashes covers every combination with S < 1, floor included or
	// not. Active rows outside this set have decayed and expire.
	LiveHashes []string
	// LiveMatches holds the distinct match ids behind LiveHashes, in
	// snapshot order. Price moves on these matches are worth publishing.
	LiveMatches []int64
}

type groupKey struct {
	matchID int64
	betType int
	margin  float64
}

// Detect groups the snapshot by (match, bet type, margin) and evaluates each
// group. Snapshot order determines output order, so equal inputs produce
// equal results.
func (d *Detector) Detect(snapshot []storage.OddsSnapshot, now time.Time) Result {
	groups := make(map[groupKey][]storage.OddsSnapshot)
	var order []groupKey
	for _, row := range snapshot {
		k := groupKey{row.MatchID, row.BetTypeID, row.Margin}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], row)
	}

	var res Result
	liveMatches := make(map[int64]bool)
	for _, k := range order {
		rows := groups[k]
		var legs []models.Leg
		switch markets.Arity(k.betType) {
		case 2:
			legs = bestMultiway(rows, 2)
		case 3:
			legs = bestMultiway(rows, 3)
		case 1:
			legs = bestPartition(k.betType, rows)
		}
		if legs == nil {
			continue
		}

		s := impliedSum(legs)
		if s >= 1 {
			continue
		}
		arb := models.Arbitrage{
			MatchID:     k.matchID,
			BetTypeID:   k.betType,
			Margin:      k.margin,
			ProfitPct:   math.Round((1/s-1)*100*100) / 100,
			Legs:        legs,
			Stakes:      stakeSplit(legs, s),
			ContentHash: contentHash(k.matchID, k.betType, k.margin, legs),
			DetectedAt:  now,
			LastSeenAt:  now,
			ExpiresAt:   rows[0].StartTime,
			Active:      true,
		}
		res.LiveHashes = append(res.LiveHashes, arb.ContentHash)
		if !liveMatches[k.matchID] {
			liveMatches[k.matchID] = true
			res.LiveMatches = append(res.LiveMatches, k.matchID)
		}
		if arb.ProfitPct >= d.minProfit {
			res.Opportunities = append(res.Opportunities, arb)
		}
	}
	return res
}

// bestMultiway picks the best price per outcome index across providers.
// Equal prices go to the lowest provider id. Returns nil unless every
// outcome is priced.
func bestMultiway(rows []storage.OddsSnapshot, arity int) []models.Leg {
	legs := make([]models.Leg, arity)
	found := make([]bool, arity)
	for i := range rows {
		row := &rows[i]
		for outcome := 0; outcome < arity; outcome++ {
			p, ok := row.Price(outcome)
			if !ok || p <= 1 {
				continue
			}
			if !found[outcome] || p > legs[outcome].Price ||
				(p == legs[outcome].Price && row.ProviderID < legs[outcome].ProviderID) {
				legs[outcome] = models.Leg{
					ProviderID:   row.ProviderID,
					OutcomeIndex: outcome,
					Price:        p,
					Selection:    row.Selection,
				}
				found[outcome] = true
			}
		}
	}
	for _, ok := range found {
		if !ok {
			return nil
		}
	}
	return legs
}

// bestPartition combines arity-1 selection rows when the bet type declares a
// complete partition and the group prices every selection in it. Bet types
// with an open selection set (correct score, goal ranges) never combine.
func bestPartition(betTypeID int, rows []storage.OddsSnapshot) []models.Leg {
	partition, ok := markets.PartitionFor(betTypeID)
	if !ok {
		return nil
	}
	best := make(map[string]models.Leg, len(partition))
	for i := range rows {
		row := &rows[i]
		if row.P1 <= 1 {
			continue
		}
		leg, seen := best[row.Selection]
		if !seen || row.P1 > leg.Price || (row.P1 == leg.Price && row.ProviderID < leg.ProviderID) {
			best[row.Selection] = models.Leg{
				ProviderID: row.ProviderID,
				Price:      row.P1,
				Selection:  row.Selection,
			}
		}
	}
	legs := make([]models.Leg, 0, len(partition))
	for i, sel := range partition {
		leg, seen := best[sel]
		if !seen {
			return nil
		}
		leg.OutcomeIndex = i
		legs = append(legs, leg)
	}
	return legs
}

func impliedSum(legs []models.Leg) float64 {
	s := 0.0
	for _, leg := range legs {
		s += 1 / leg.Price
	}
	return s
}

// stakeSplit distributes one unit across the legs proportionally to their
// implied probabilities, so every outcome pays the same amount.
func stakeSplit(legs []models.Leg, s float64) []float64 {
	stakes := make([]float64, len(legs))
	for i, leg := range legs {
		stakes[i] = (1 / leg.Price) / s
	}
	return stakes
}

// contentHash identifies one opportunity by its market and legs. Prices are
// rounded to 0.001 and the legs sorted, so leg order never changes the hash.
func contentHash(matchID int64, betTypeID int, margin float64, legs []models.Leg) string {
	sorted := make([]models.Leg, len(legs))
	copy(sorted, legs)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ProviderID != b.ProviderID {
			return a.ProviderID < b.ProviderID
		}
		if a.OutcomeIndex != b.OutcomeIndex {
			return a.OutcomeIndex < b.OutcomeIndex
		}
		return a.Price < b.Price
	})

	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%s", matchID, betTypeID, markets.FormatMargin(margin))
	for _, leg := range sorted {
		fmt.Fprintf(h, "|%d:%d:%.3f", leg.ProviderID, leg.OutcomeIndex, leg.Price)
	}
	return hex.EncodeToString(h.Sum(nil))
}
