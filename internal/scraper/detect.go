package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
	"github.com/nstojkov/betsnipe/internal/pkg/models"
	"github.com/nstojkov/betsnipe/internal/pkg/publish"
	"github.com/nstojkov/betsnipe/internal/pkg/storage"
)

// matchMeta carries what events need to say about a fixture.
type matchMeta struct {
	name  string
	sport enums.Sport
	start time.Time
}

// priceKey identifies one priced outcome across detection passes.
type priceKey struct {
	matchID    int64
	providerID int
	betTypeID  int
	outcome    int
	margin     float64
	selection  string
}

// detect runs one detection pass: snapshot the fresh odds, evaluate every
// market, persist new opportunities, expire decayed ones, publish. It holds
// the persist lock for the whole pass, so it reads the cycle's writes
// complete and never interleaves with a late batch.
func (e *Engine) detect(ctx context.Context, now time.Time) {
	dctx, cancel := context.WithTimeout(ctx, e.cfg.CycleDeadline())
	defer cancel()

	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	started := time.Now()
	snapshot, err := e.store.ActiveOddsSnapshot(dctx, e.cfg.OddsStaleness())
	if err != nil {
		slog.Error("scraper: odds snapshot failed", "error", err)
		return
	}

	res := e.detector.Detect(snapshot, now)

	meta := make(map[int64]matchMeta)
	for i := range snapshot {
		row := &snapshot[i]
		if _, ok := meta[row.MatchID]; !ok {
			meta[row.MatchID] = matchMeta{
				name:  row.Team1 + " vs " + row.Team2,
				sport: row.Sport,
				start: row.StartTime,
			}
		}
	}

	created := 0
	for i := range res.Opportunities {
		opp := &res.Opportunities[i]
		isNew, err := e.store.UpsertArbitrage(dctx, opp)
		if err != nil {
			slog.Error("scraper: arbitrage upsert failed", "match_id", opp.MatchID, "error", err)
			continue
		}
		if !isNew {
			continue
		}
		created++
		m := meta[opp.MatchID]
		e.pm.RecordArbitrage(m.sport.String(), opp.ProfitPct)
		e.publisher.Publish(arbitrageEvent(publish.KindArbitrageNew, opp, m))
		slog.Info("scraper: arbitrage found",
			"match", m.name,
			"sport", m.sport.String(),
			"market", markets.Decode(markets.Key{BetTypeID: opp.BetTypeID, Margin: opp.Margin}),
			"profit_pct", opp.ProfitPct)
	}

	expired, err := e.store.ExpireArbitrage(dctx, now, res.LiveHashes)
	if err != nil {
		slog.Error("scraper: arbitrage expiry failed", "error", err)
	}
	for i := range expired {
		opp := &expired[i]
		m, ok := meta[opp.MatchID]
		if !ok {
			m = e.lookupMeta(dctx, opp.MatchID)
		}
		e.publisher.Publish(arbitrageEvent(publish.KindArbitrageExpired, opp, m))
	}

	e.publishOddsMoves(snapshot, res.LiveMatches, meta, now)

	if n, err := e.store.CountActiveArbitrage(dctx); err == nil {
		e.pm.SetActiveArbitrage(n)
		e.stats.activeArbs.Store(n)
	}
	e.stats.arbsNew.Add(int64(created))
	e.stats.arbsExpired.Add(int64(len(expired)))

	if created > 0 || len(expired) > 0 {
		slog.Info("scraper: detection pass",
			"rows", len(snapshot), "live", len(res.LiveHashes),
			"new", created, "expired", len(expired),
			"duration", time.Since(started))
	} else {
		slog.Debug("scraper: detection pass",
			"rows", len(snapshot), "live", len(res.LiveHashes),
			"duration", time.Since(started))
	}
}

// publishOddsMoves diffs the snapshot against the previous pass and emits
// odds.update for price moves on matches carrying a live combination. First
// sight of a price is not a move, and unwatched matches stay silent.
func (e *Engine) publishOddsMoves(snapshot []storage.OddsSnapshot, liveMatches []int64, meta map[int64]matchMeta, now time.Time) {
	watched := make(map[int64]bool, len(liveMatches))
	for _, id := range liveMatches {
		watched[id] = true
	}

	current := make(map[priceKey]float64, len(snapshot))
	for i := range snapshot {
		row := &snapshot[i]
		arity := markets.Arity(row.BetTypeID)
		if arity == 0 {
			arity = 1
		}
		base := priceKey{
			matchID:    row.MatchID,
			providerID: row.ProviderID,
			betTypeID:  row.BetTypeID,
			margin:     row.Margin,
			selection:  row.Selection,
		}
		var moved []publish.Leg
		for outcome := 0; outcome < arity; outcome++ {
			p, ok := row.Price(outcome)
			if !ok {
				continue
			}
			k := base
			k.outcome = outcome
			current[k] = p
			if prev, seen := e.prevPrices[k]; seen && prev != p && watched[row.MatchID] {
				moved = append(moved, publish.Leg{
					Provider:  row.ProviderID,
					Outcome:   outcome,
					Price:     p,
					Selection: row.Selection,
				})
			}
		}
		if len(moved) == 0 {
			continue
		}
		m := meta[row.MatchID]
		e.publisher.Publish(publish.Event{
			Kind:       publish.KindOddsUpdate,
			MatchID:    row.MatchID,
			Match:      m.name,
			Sport:      m.sport.String(),
			BetType:    betTypeLabel(row.BetTypeID),
			Margin:     row.Margin,
			Selection:  row.Selection,
			Legs:       moved,
			StartTime:  m.start,
			DetectedAt: now,
		})
	}
	e.prevPrices = current
}

// lookupMeta fills event fields for matches that already left the snapshot,
// the common case for expiry by kick-off.
func (e *Engine) lookupMeta(ctx context.Context, matchID int64) matchMeta {
	m, err := e.store.MatchByID(ctx, matchID)
	if err != nil || m == nil {
		return matchMeta{}
	}
	return matchMeta{name: m.Name(), sport: m.Sport, start: m.StartTime}
}

func arbitrageEvent(kind publish.Kind, arb *models.Arbitrage, m matchMeta) publish.Event {
	return publish.Event{
		Kind:        kind,
		MatchID:     arb.MatchID,
		Match:       m.name,
		Sport:       m.sport.String(),
		BetType:     betTypeLabel(arb.BetTypeID),
		Margin:      arb.Margin,
		Legs:        publish.NewLegs(arb.Legs),
		Stakes:      arb.Stakes,
		ProfitPct:   arb.ProfitPct,
		ContentHash: arb.ContentHash,
		StartTime:   m.start,
		DetectedAt:  arb.DetectedAt,
	}
}

func betTypeLabel(id int) string {
	if bt, ok := markets.ByID(id); ok {
		return bt.Name
	}
	return fmt.Sprintf("bet_type_%d", id)
}
