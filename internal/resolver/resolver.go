// Package resolver folds provider-scraped fixtures onto stored match
// identities. Bookmakers spell teams differently, shift kick-off times by a
// few minutes and disagree on league naming, so identity is decided by a
// weighted score over normalized team similarity, time proximity, league
// equality and price coherence rather than by exact equality.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/line"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
	"github.com/nstojkov/betsnipe/internal/pkg/models"
	"github.com/nstojkov/betsnipe/internal/pkg/normalize"
)

// Score weights. Pair similarity dominates; the others break near-ties.
const (
	weightPair   = 0.50
	weightTime   = 0.25
	weightLeague = 0.15
	weightPrice  = 0.10
)

// Scores in [reuseBandMin, threshold) still reuse when kick-off times agree
// within bandTimeSlack.
const (
	reuseBandMin  = 70.0
	bandTimeSlack = 30 * time.Minute
)

// Two prices for the same canonical market are coherent when they differ by
// at most this fraction of the larger one.
const priceCoherenceTolerance = 0.20

// Store is the slice of the persistence layer the resolver reads from.
type Store interface {
	CandidatesBySport(ctx context.Context, sport enums.Sport, from, to time.Time) ([]models.Match, error)
	OddsForMatch(ctx context.Context, matchID int64) ([]models.CurrentOdds, error)
}

// Resolved pairs one match identity with every scraped market that folded
// onto it. Match.ID is zero for identities created in this batch until the
// persister assigns one.
type Resolved struct {
	Match *models.Match
	Odds  []line.RawOdds
}

// Stats counts resolution outcomes for one batch.
type Stats struct {
	Created int
	Reused  int
	Merged  int
}

// Resolver matches one provider batch at a time against stored fixtures.
type Resolver struct {
	store     Store
	threshold int
}

// New builds a resolver. threshold is the auto-reuse score; zero or negative
// falls back to 85.
func New(store Store, threshold int) *Resolver {
	if threshold <= 0 {
		threshold = 85
	}
	return &Resolver{store: store, threshold: threshold}
}

type record struct {
	raw   *line.RawMatch
	norm1 string
	norm2 string
}

type outcome int

const (
	outcomeReused outcome = iota
	outcomeMerged
	outcomeCreated
)

// Resolve maps every raw match in the batch to a stored or freshly created
// identity. Records are processed in deterministic sport-then-kickoff order,
// and identities created early in the batch are candidates for later records
// of the same batch.
func (r *Resolver) Resolve(ctx context.Context, batch []line.RawMatch) ([]Resolved, Stats, error) {
	var stats Stats

	recs := make([]*record, 0, len(batch))
	for i := range batch {
		raw := &batch[i]
		if raw.Team1 == "" || raw.Team2 == "" || !raw.Sport.IsValid() || raw.StartTime.IsZero() {
			slog.Debug("resolver: dropping malformed record", "provider", raw.ProviderID, "matchup", raw.Matchup())
			continue
		}
		recs = append(recs, &record{
			raw:   raw,
			norm1: normalize.TeamForSport(raw.Sport, raw.Team1),
			norm2: normalize.TeamForSport(raw.Sport, raw.Team2),
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.raw.Sport != b.raw.Sport {
			return a.raw.Sport < b.raw.Sport
		}
		if !a.raw.StartTime.Equal(b.raw.StartTime) {
			return a.raw.StartTime.Before(b.raw.StartTime)
		}
		if a.norm1 != b.norm1 {
			return a.norm1 < b.norm1
		}
		return a.norm2 < b.norm2
	})

	candidates, err := r.loadCandidates(ctx, recs)
	if err != nil {
		return nil, stats, err
	}

	oddsMemo := make(map[int64][]models.CurrentOdds)
	byMatch := make(map[*models.Match]int)
	var out []Resolved

	for _, rec := range recs {
		m, oc := r.resolveOne(ctx, rec, candidates[rec.raw.Sport], oddsMemo)
		switch oc {
		case outcomeCreated:
			stats.Created++
			candidates[rec.raw.Sport] = append(candidates[rec.raw.Sport], m)
		case outcomeMerged:
			stats.Merged++
		default:
			stats.Reused++
		}
		idx, ok := byMatch[m]
		if !ok {
			idx = len(out)
			byMatch[m] = idx
			out = append(out, Resolved{Match: m})
		}
		out[idx].Odds = append(out[idx].Odds, rec.raw.Odds...)
	}

	return out, stats, nil
}

// loadCandidates fetches, once per sport, every upcoming match inside the
// union of the batch's search windows.
func (r *Resolver) loadCandidates(ctx context.Context, recs []*record) (map[enums.Sport][]*models.Match, error) {
	type span struct{ from, to time.Time }
	spans := make(map[enums.Sport]*span)
	for _, rec := range recs {
		w := sportWindow(rec.raw.Sport)
		from, to := rec.raw.StartTime.Add(-w), rec.raw.StartTime.Add(w)
		sp, ok := spans[rec.raw.Sport]
		if !ok {
			spans[rec.raw.Sport] = &span{from: from, to: to}
			continue
		}
		if from.Before(sp.from) {
			sp.from = from
		}
		if to.After(sp.to) {
			sp.to = to
		}
	}

	out := make(map[enums.Sport][]*models.Match, len(spans))
	for sport, sp := range spans {
		rows, err := r.store.CandidatesBySport(ctx, sport, sp.from, sp.to)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s candidates: %w", sport, err)
		}
		list := make([]*models.Match, len(rows))
		for i := range rows {
			list[i] = &rows[i]
		}
		out[sport] = list
	}
	return out, nil
}

func (r *Resolver) resolveOne(ctx context.Context, rec *record, cands []*models.Match, oddsMemo map[int64][]models.CurrentOdds) (*models.Match, outcome) {
	window := sportWindow(rec.raw.Sport)

	// Fast path: a candidate already carries this provider's external id.
	if rec.raw.ExternalID != "" {
		for _, cand := range cands {
			if cand.ExternalIDs[rec.raw.ProviderID] == rec.raw.ExternalID {
				r.merge(cand, rec)
				return cand, outcomeReused
			}
		}
	}

	var best *models.Match
	var bestScore float64
	aboveThreshold := 0
	for _, cand := range cands {
		dt := absDuration(cand.StartTime.Sub(rec.raw.StartTime))
		if dt > window {
			continue
		}
		score := r.score(ctx, rec, cand, dt, window, oddsMemo)
		if score >= float64(r.threshold) {
			aboveThreshold++
		}
		if best == nil || score > bestScore ||
			(score == bestScore && createdEarlier(cand, best)) {
			best, bestScore = cand, score
		}
	}

	if best != nil {
		if aboveThreshold > 1 {
			slog.Warn("resolver: multiple candidates above threshold",
				"matchup", rec.raw.Matchup(), "count", aboveThreshold, "picked", best.ID)
		}
		dt := absDuration(best.StartTime.Sub(rec.raw.StartTime))
		if bestScore >= float64(r.threshold) || (bestScore >= reuseBandMin && dt <= bandTimeSlack) {
			if r.merge(best, rec) {
				return best, outcomeMerged
			}
			return best, outcomeReused
		}
		slog.Debug("resolver: best candidate below threshold",
			"matchup", rec.raw.Matchup(), "candidate", best.Name(), "score", int(bestScore))
	}

	m := &models.Match{
		Team1Raw:    rec.raw.Team1,
		Team2Raw:    rec.raw.Team2,
		Team1Norm:   rec.norm1,
		Team2Norm:   rec.norm2,
		Sport:       rec.raw.Sport,
		LeagueName:  rec.raw.League,
		StartTime:   rec.raw.StartTime.UTC().Truncate(time.Minute),
		ExternalIDs: map[int]string{},
		Status:      enums.StatusUpcoming,
	}
	if rec.raw.ExternalID != "" {
		m.ExternalIDs[rec.raw.ProviderID] = rec.raw.ExternalID
	}
	return m, outcomeCreated
}

// score rates one candidate in [0,100]. The price term is skipped when the
// base score alone cannot reach the reuse band, which keeps odds lookups off
// the hopeless candidates.
func (r *Resolver) score(ctx context.Context, rec *record, cand *models.Match, dt, window time.Duration, oddsMemo map[int64][]models.CurrentOdds) float64 {
	pair := float64(normalize.PairScore(rec.norm1, rec.norm2, cand.Team1Norm, cand.Team2Norm))

	timeScore := (1 - float64(dt)/float64(window)) * 100
	if timeScore < 0 {
		timeScore = 0
	}

	league := 0.0
	if rec.raw.League != "" && cand.LeagueName != "" &&
		strings.EqualFold(strings.TrimSpace(rec.raw.League), strings.TrimSpace(cand.LeagueName)) {
		league = 100
	}

	base := pair*weightPair + timeScore*weightTime + league*weightLeague
	if base < reuseBandMin-100*weightPrice || cand.ID == 0 {
		return base
	}
	if coherentPrices(rec.raw.Odds, r.matchOdds(ctx, cand.ID, oddsMemo)) {
		base += 100 * weightPrice
	}
	return base
}

func (r *Resolver) matchOdds(ctx context.Context, matchID int64, memo map[int64][]models.CurrentOdds) []models.CurrentOdds {
	if odds, ok := memo[matchID]; ok {
		return odds
	}
	odds, err := r.store.OddsForMatch(ctx, matchID)
	if err != nil {
		slog.Debug("resolver: odds lookup failed", "match_id", matchID, "error", err)
		odds = nil
	}
	memo[matchID] = odds
	return odds
}

// coherentPrices reports whether some canonical market priced by both sides
// agrees within the tolerance.
func coherentPrices(raw []line.RawOdds, stored []models.CurrentOdds) bool {
	if len(raw) == 0 || len(stored) == 0 {
		return false
	}
	prices := make(map[markets.Key][]float64, len(stored))
	for i := range stored {
		k := stored[i].Key()
		prices[k] = append(prices[k], stored[i].P1)
	}
	for _, ro := range raw {
		for _, p := range prices[ro.Key] {
			hi := ro.P1
			if p > hi {
				hi = p
			}
			if hi <= 0 {
				continue
			}
			diff := ro.P1 - p
			if diff < 0 {
				diff = -diff
			}
			if diff/hi <= priceCoherenceTolerance {
				return true
			}
		}
	}
	return false
}

// merge folds the record's external id and league onto the candidate and
// reports whether the external-id map actually changed.
func (r *Resolver) merge(cand *models.Match, rec *record) bool {
	if cand.LeagueName == "" && rec.raw.League != "" {
		cand.LeagueName = rec.raw.League
	}
	if rec.raw.ExternalID == "" {
		return false
	}
	if cand.ExternalIDs == nil {
		cand.ExternalIDs = make(map[int]string)
	}
	prev, ok := cand.ExternalIDs[rec.raw.ProviderID]
	if ok && prev == rec.raw.ExternalID {
		return false
	}
	cand.ExternalIDs[rec.raw.ProviderID] = rec.raw.ExternalID
	return true
}

func createdEarlier(a, b *models.Match) bool {
	// Identities created in this batch carry a zero CreatedAt; anything
	// already persisted counts as older.
	if az, bz := a.CreatedAt.IsZero(), b.CreatedAt.IsZero(); az != bz {
		return bz
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// sportWindow is how far apart two kick-off reports for the same fixture may
// plausibly be. Football books round to scheduling blocks; racket sports run
// on tighter courts.
func sportWindow(s enums.Sport) time.Duration {
	switch s {
	case enums.Football:
		return 120 * time.Minute
	case enums.Basketball, enums.Hockey:
		return 60 * time.Minute
	case enums.Tennis, enums.TableTennis:
		return 30 * time.Minute
	default:
		return 60 * time.Minute
	}
}
