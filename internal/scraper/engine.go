// Package scraper drives the pipeline: a fixed-interval clock fans the
// enabled bookmaker adapters out in parallel, folds their batches onto
// stored fixtures, persists prices in bulk and runs one arbitrage detection
// pass strictly after the cycle's last write.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nstojkov/betsnipe/internal/arb"
	"github.com/nstojkov/betsnipe/internal/pkg/config"
	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/line"
	"github.com/nstojkov/betsnipe/internal/pkg/metrics"
	"github.com/nstojkov/betsnipe/internal/pkg/models"
	"github.com/nstojkov/betsnipe/internal/pkg/normalize"
	"github.com/nstojkov/betsnipe/internal/pkg/publish"
	"github.com/nstojkov/betsnipe/internal/pkg/storage"
	"github.com/nstojkov/betsnipe/internal/resolver"
	"github.com/nstojkov/betsnipe/internal/scraper/providers"
)

// Store is the persistence surface one cycle touches.
type Store interface {
	UpsertMatches(ctx context.Context, batch []*models.Match) error
	UpsertOdds(ctx context.Context, odds []models.CurrentOdds) error
	ActiveOddsSnapshot(ctx context.Context, staleAfter time.Duration) ([]storage.OddsSnapshot, error)
	UpsertArbitrage(ctx context.Context, arb *models.Arbitrage) (bool, error)
	ExpireArbitrage(ctx context.Context, now time.Time, liveHashes []string) ([]models.Arbitrage, error)
	CountActiveArbitrage(ctx context.Context) (int64, error)
	MatchByID(ctx context.Context, id int64) (*models.Match, error)
}

// Deps wires an Engine. Sports is optional; everything else is required.
type Deps struct {
	Config    *config.Config
	Store     Store
	Resolver  *resolver.Resolver
	Detector  *arb.Detector
	Publisher *publish.Publisher
	Metrics   *metrics.PipelineMetrics
	Providers []providers.Provider
	// Sports restricts every provider to a subset, for single-sport debug
	// runs. Empty means each provider's full supported list.
	Sports []enums.Sport
}

// Engine owns the scrape cycle. One Run loop drives all providers; a
// provider still busy when the next tick lands is skipped, never stacked.
type Engine struct {
	cfg       *config.Config
	store     Store
	resolver  *resolver.Resolver
	detector  *arb.Detector
	publisher *publish.Publisher
	pm        *metrics.PipelineMetrics
	providers []providers.Provider
	sports    map[enums.Sport]bool

	busy map[string]*atomic.Bool

	// persistMu serializes batch persists against the detection pass, so
	// detection never reads a half-written batch and always runs after
	// the cycle's last persist.
	persistMu sync.Mutex
	// prevPrices holds the previous snapshot's prices for odds.update
	// diffing. Guarded by persistMu.
	prevPrices map[priceKey]float64

	stats engineCounters
}

// New wires an engine for the given providers.
func New(d Deps) *Engine {
	e := &Engine{
		cfg:        d.Config,
		store:      d.Store,
		resolver:   d.Resolver,
		detector:   d.Detector,
		publisher:  d.Publisher,
		pm:         d.Metrics,
		providers:  d.Providers,
		busy:       make(map[string]*atomic.Bool, len(d.Providers)),
		prevPrices: make(map[priceKey]float64),
	}
	e.stats.errors = make(map[string]int64)
	for _, p := range d.Providers {
		e.busy[p.Name()] = new(atomic.Bool)
	}
	if len(d.Sports) > 0 {
		e.sports = make(map[enums.Sport]bool, len(d.Sports))
		for _, s := range d.Sports {
			e.sports[s] = true
		}
	}
	return e
}

// SelectProviders instantiates adapters for a run. Explicit names win over
// the config filter; with no names every registered provider that the config
// enables is built. Unknown names and an empty selection are errors.
func SelectProviders(cfg *config.Config, only []string) ([]providers.Provider, error) {
	var names []string
	if len(only) > 0 {
		for _, n := range only {
			n = strings.ToLower(strings.TrimSpace(n))
			if n == "" {
				continue
			}
			if _, ok := providers.FactoryByName(n); !ok {
				return nil, fmt.Errorf("unknown provider %q (available: %s)",
					n, strings.Join(providers.AvailableNames(), ", "))
			}
			names = append(names, n)
		}
	} else {
		for _, n := range providers.AvailableNames() {
			if cfg.ProviderEnabled(n) {
				names = append(names, n)
			}
		}
	}
	if len(names) == 0 {
		return nil, errors.New("no providers selected")
	}

	out := make([]providers.Provider, 0, len(names))
	for _, n := range names {
		f, _ := providers.FactoryByName(n)
		out = append(out, f(cfg))
	}
	return out, nil
}

// Run drives cycles until ctx is cancelled. The first cycle starts
// immediately, then one per configured interval.
func (e *Engine) Run(ctx context.Context) error {
	names := make([]string, len(e.providers))
	for i, p := range e.providers {
		names[i] = p.Name()
	}
	slog.Info("scraper: engine started",
		"providers", strings.Join(names, ","),
		"interval", e.cfg.ScrapeInterval())

	ticker := time.NewTicker(e.cfg.ScrapeInterval())
	defer ticker.Stop()

	e.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("scraper: engine stopped")
			return nil
		case <-ticker.C:
			e.runCycle(ctx)
		}
	}
}

// RunOnce drives a single cycle including the detection pass.
func (e *Engine) RunOnce(ctx context.Context) {
	e.runCycle(ctx)
}

// Close releases adapter resources, such as the mozzart browser session.
func (e *Engine) Close() error {
	var errs []error
	for _, p := range e.providers {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	started := time.Now()
	cctx, cancel := context.WithTimeout(ctx, e.cfg.CycleDeadline())
	defer cancel()

	var wg sync.WaitGroup
	launched := 0
	for _, p := range e.providers {
		flag := e.busy[p.Name()]
		if !flag.CompareAndSwap(false, true) {
			e.stats.skipped.Add(1)
			e.pm.RecordCycle(p.Name(), "skipped", 0)
			slog.Debug("scraper: provider still busy, skipping", "provider", p.Name())
			continue
		}
		launched++
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer flag.Store(false)
			e.runProvider(cctx, p)
		}()
	}

	// A provider stuck past the deadline must not stall the clock; its
	// busy flag keeps later ticks off its back until it returns.
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-cctx.Done():
	}

	e.detect(ctx, time.Now())

	e.stats.cycles.Add(1)
	e.stats.lastCycle.Store(time.Now().UnixNano())
	slog.Debug("scraper: cycle done", "providers", launched, "duration", time.Since(started))
}

// runProvider scrapes every supported sport in parallel, then resolves and
// persists whatever came back. A panic or error here never reaches the other
// providers.
func (e *Engine) runProvider(ctx context.Context, p providers.Provider) {
	name := p.Name()
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.noteError(name)
			e.pm.RecordCycle(name, "panic", time.Since(started).Seconds())
			slog.Error("scraper: provider panicked",
				"provider", name, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	sports := p.SupportedSports()
	if e.sports != nil {
		kept := make([]enums.Sport, 0, len(sports))
		for _, s := range sports {
			if e.sports[s] {
				kept = append(kept, s)
			}
		}
		sports = kept
	}
	if len(sports) == 0 {
		e.pm.RecordCycle(name, "ok", time.Since(started).Seconds())
		return
	}
	results := make([][]line.RawMatch, len(sports))
	g := new(errgroup.Group)
	for i, sport := range sports {
		g.Go(func() error {
			batch, err := p.Scrape(ctx, sport)
			if err != nil {
				return fmt.Errorf("%s: %w", sport, err)
			}
			results[i] = batch
			return nil
		})
	}
	scrapeErr := g.Wait()

	requests, errs := p.TakeCounters()
	e.pm.RecordRequests(name, requests, errs)
	if scrapeErr != nil {
		e.noteError(name)
		if ctx.Err() == nil {
			slog.Warn("scraper: provider scrape failed", "provider", name, "error", scrapeErr)
		}
	}
	if ctx.Err() != nil {
		e.pm.RecordCycle(name, "deadline", time.Since(started).Seconds())
		slog.Warn("scraper: provider missed the cycle deadline",
			"provider", name, "elapsed", time.Since(started))
		return
	}

	var batch []line.RawMatch
	unmapped, filtered := 0, 0
	for i, sport := range sports {
		rows := 0
		for j := range results[i] {
			rows += len(results[i][j].Odds)
			unmapped += results[i][j].Dropped
		}
		e.pm.RecordScrape(name, sport.String(), len(results[i]), rows)
		for _, m := range results[i] {
			if filteredCategory(&m) {
				filtered++
				continue
			}
			batch = append(batch, m)
		}
	}
	if unmapped > 0 {
		e.pm.RecordUnmapped(name, unmapped)
		e.stats.unmapped.Add(int64(unmapped))
	}
	if filtered > 0 {
		e.pm.RecordFiltered(name, filtered)
		e.stats.filtered.Add(int64(filtered))
	}

	status := "ok"
	if scrapeErr != nil {
		status = "error"
	}
	if len(batch) == 0 {
		e.pm.RecordCycle(name, status, time.Since(started).Seconds())
		return
	}

	matches, odds, err := e.persist(ctx, p, batch)
	if err != nil {
		e.noteError(name)
		e.pm.RecordCycle(name, "error", time.Since(started).Seconds())
		if ctx.Err() == nil {
			slog.Error("scraper: persist failed", "provider", name, "error", err)
		}
		return
	}
	e.stats.matches.Add(int64(matches))
	e.stats.odds.Add(int64(odds))
	e.pm.RecordCycle(name, status, time.Since(started).Seconds())
	slog.Info("scraper: provider cycle done",
		"provider", name,
		"matches", matches,
		"odds", odds,
		"requests", requests,
		"errors", errs,
		"duration", time.Since(started))
}

// filteredCategory reports whether a fixture belongs to a competition the
// pipeline skips, such as youth, women and reserve leagues.
func filteredCategory(m *line.RawMatch) bool {
	return normalize.IsFilteredCategory(m.League) ||
		normalize.IsFilteredCategory(m.Team1) ||
		normalize.IsFilteredCategory(m.Team2)
}

// persist folds one provider batch onto stored fixtures and writes both
// tables, matches before odds. Parallel providers serialize here. The
// context check inside the lock discards work from a cycle whose deadline
// fired while this batch waited its turn.
func (e *Engine) persist(ctx context.Context, p providers.Provider, batch []line.RawMatch) (int, int, error) {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	resolved, stats, err := e.resolver.Resolve(ctx, batch)
	if err != nil {
		return 0, 0, fmt.Errorf("resolve: %w", err)
	}
	if len(resolved) == 0 {
		return 0, 0, nil
	}

	name := p.Name()
	e.pm.RecordResolutions(name, "created", stats.Created)
	e.pm.RecordResolutions(name, "reused", stats.Reused)
	e.pm.RecordResolutions(name, "merged", stats.Merged)

	ms := make([]*models.Match, len(resolved))
	for i := range resolved {
		ms[i] = resolved[i].Match
	}
	if err := e.store.UpsertMatches(ctx, ms); err != nil {
		return 0, 0, fmt.Errorf("upsert matches: %w", err)
	}

	providerID := p.ID()
	rows := make([]models.CurrentOdds, 0, len(batch))
	for i := range resolved {
		r := &resolved[i]
		if r.Match.ID == 0 {
			continue
		}
		for _, o := range r.Odds {
			rows = append(rows, models.CurrentOdds{
				MatchID:    r.Match.ID,
				ProviderID: providerID,
				BetTypeID:  o.Key.BetTypeID,
				Margin:     o.Key.Margin,
				Selection:  o.Key.Selection,
				P1:         o.P1,
				P2:         o.P2,
				P3:         o.P3,
			})
		}
	}
	if err := e.store.UpsertOdds(ctx, rows); err != nil {
		return 0, 0, fmt.Errorf("upsert odds: %w", err)
	}
	return len(resolved), len(rows), nil
}

func (e *Engine) noteError(provider string) {
	e.stats.mu.Lock()
	e.stats.errors[provider]++
	e.stats.mu.Unlock()
}

type engineCounters struct {
	cycles      atomic.Int64
	skipped     atomic.Int64
	matches     atomic.Int64
	odds        atomic.Int64
	unmapped    atomic.Int64
	filtered    atomic.Int64
	arbsNew     atomic.Int64
	arbsExpired atomic.Int64
	activeArbs  atomic.Int64
	lastCycle   atomic.Int64

	mu     sync.Mutex
	errors map[string]int64
}

// Stats is a point-in-time pipeline summary for the ops endpoints.
type Stats struct {
	Cycles           int64            `json:"cycles"`
	SkippedProviders int64            `json:"skipped_providers"`
	MatchesPersisted int64            `json:"matches_persisted"`
	OddsPersisted    int64            `json:"odds_persisted"`
	UnmappedRows     int64            `json:"unmapped_rows"`
	FilteredMatches  int64            `json:"filtered_matches"`
	ArbitrageNew     int64            `json:"arbitrage_new"`
	ArbitrageExpired int64            `json:"arbitrage_expired"`
	ActiveArbitrage  int64            `json:"active_arbitrage"`
	LastCycleAt      time.Time        `json:"last_cycle_at"`
	ProviderErrors   map[string]int64 `json:"provider_errors"`
}

// Stats snapshots the engine counters.
func (e *Engine) Stats() Stats {
	s := Stats{
		Cycles:           e.stats.cycles.Load(),
		SkippedProviders: e.stats.skipped.Load(),
		MatchesPersisted: e.stats.matches.Load(),
		OddsPersisted:    e.stats.odds.Load(),
		UnmappedRows:     e.stats.unmapped.Load(),
		FilteredMatches:  e.stats.filtered.Load(),
		ArbitrageNew:     e.stats.arbsNew.Load(),
		ArbitrageExpired: e.stats.arbsExpired.Load(),
		ActiveArbitrage:  e.stats.activeArbs.Load(),
		ProviderErrors:   make(map[string]int64),
	}
	if ns := e.stats.lastCycle.Load(); ns > 0 {
		s.LastCycleAt = time.Unix(0, ns).UTC()
	}
	e.stats.mu.Lock()
	for k, v := range e.stats.errors {
		s.ProviderErrors[k] = v
	}
	e.stats.mu.Unlock()
	return s
}
