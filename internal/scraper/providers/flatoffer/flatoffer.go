// Package flatoffer walks the REST offer platform several Serbian books run
// on (maxbet, merkur). The books share the response shapes and the odds code
// scheme and differ only in base URL, query params, endpoint paths and which
// codes they publish, so each adapter declares a Site plus its code tables
// and reuses the walker here.
package flatoffer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nstojkov/betsnipe/internal/pkg/config"
	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/fetch"
	"github.com/nstojkov/betsnipe/internal/pkg/line"
)

// walkConcurrency caps the league and match detail fan-out per scrape; the
// shared fetch.Client semaphore still bounds requests actually in flight.
const walkConcurrency = 16

var sportCodes = map[enums.Sport]string{
	enums.Football:    "S",
	enums.Basketball:  "B",
	enums.Tennis:      "T",
	enums.Hockey:      "H",
	enums.TableTennis: "TT",
}

// Site is everything that distinguishes one book on the platform.
type Site struct {
	Name       string
	ProviderID int
	BaseURL    string
	// Params is appended to every request (annex, desktopVersion, locale).
	Params url.Values
	// LeaguesPath is a format string taking the sport code.
	LeaguesPath string
	// MatchesPath is a format string taking the sport code and league id.
	MatchesPath string
	Headers     map[string]string
	// SkipLeague filters bonus pseudo leagues, nil keeps everything.
	SkipLeague func(name string) bool
	Tables     map[enums.Sport]Tables
}

// Price is an odds or param value. The platform mixes JSON numbers with
// strings and marks pulled prices "N/A"; unparseable values decode to NaN so
// validation drops them downstream.
type Price float64

func (p *Price) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*p = Price(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*p = Price(math.NaN())
		return nil
	}
	*p = Price(n)
	return nil
}

// MatchDetail is the /match/{id} response, trimmed to what the tables read.
type MatchDetail struct {
	ID          int64            `json:"id"`
	Home        string           `json:"home"`
	Away        string           `json:"away"`
	LeagueName  string           `json:"leagueName"`
	KickOffTime int64            `json:"kickOffTime"`
	Odds        map[string]Price `json:"odds"`
	Params      map[string]Price `json:"params"`
}

// Price returns the priced value for an odds code, 0 when absent or junk.
func (d *MatchDetail) Price(code string) float64 {
	v := float64(d.Odds[code])
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// Param returns a movable line from the params block.
func (d *MatchDetail) Param(key string) (float64, bool) {
	v, ok := d.Params[key]
	if !ok || math.IsNaN(float64(v)) {
		return 0, false
	}
	return float64(v), true
}

type category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type categoriesResponse struct {
	Categories []category `json:"categories"`
}

type matchStub struct {
	ID         int64  `json:"id"`
	Home       string `json:"home"`
	Away       string `json:"away"`
	LeagueName string `json:"leagueName"`
}

type leagueResponse struct {
	EsMatches []matchStub `json:"esMatches"`
}

// Adapter implements providers.Provider for one site on the platform.
type Adapter struct {
	site   Site
	base   string
	client *fetch.Client
}

// New builds the adapter for a site, applying the per-provider config block
// on top of the site defaults.
func New(site Site, cfg *config.Config) *Adapter {
	pc := cfg.Provider(site.Name)
	base := site.BaseURL
	if pc.BaseURL != "" {
		base = pc.BaseURL
	}
	opts := []fetch.Option{fetch.WithHeaders(site.Headers)}
	if pc.UserAgent != "" {
		opts = append(opts, fetch.WithUserAgent(pc.UserAgent))
	}
	if pc.RateLimitRPS > 0 {
		opts = append(opts, fetch.WithRateLimit(pc.RateLimitRPS))
	}
	return &Adapter{
		site:   site,
		base:   base,
		client: fetch.NewClient(cfg.RequestTimeout(), int64(cfg.MaxConcurrentRequests), opts...),
	}
}

func (a *Adapter) Name() string    { return a.site.Name }
func (a *Adapter) ID() int         { return a.site.ProviderID }
func (a *Adapter) BaseURL() string { return a.base }

func (a *Adapter) SupportedSports() []enums.Sport {
	sports := make([]enums.Sport, 0, len(a.site.Tables))
	for sp := range a.site.Tables {
		sports = append(sports, sp)
	}
	sort.Slice(sports, func(i, j int) bool { return sports[i] < sports[j] })
	return sports
}

func (a *Adapter) TakeCounters() (requests, errors int64) {
	return a.client.TakeCounters()
}

// Scrape walks leagues, league match lists and match details for one sport
// and maps every priced match into a raw match. League and detail failures
// are skipped, only a failed league listing fails the scrape.
func (a *Adapter) Scrape(ctx context.Context, sport enums.Sport) ([]line.RawMatch, error) {
	tables, ok := a.site.Tables[sport]
	if !ok {
		return nil, nil
	}
	code := sportCodes[sport]

	var cats categoriesResponse
	leaguesURL := a.base + fmt.Sprintf(a.site.LeaguesPath, code)
	if err := a.client.GetJSON(ctx, leaguesURL, a.site.Params, &cats); err != nil {
		return nil, fmt.Errorf("%s: leagues for %s: %w", a.site.Name, sport, err)
	}

	stubs := a.collectStubs(ctx, code, cats.Categories)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches, dropped := a.collectMatches(ctx, sport, tables, stubs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dropped > 0 {
		slog.Debug(a.site.Name+": dropped rows failed encoding", "sport", sport.String(), "dropped", dropped)
	}
	return matches, nil
}

type stubRef struct {
	id         int64
	home, away string
	league     string
}

func (a *Adapter) collectStubs(ctx context.Context, code string, cats []category) []stubRef {
	var (
		mu    sync.Mutex
		stubs []stubRef
	)
	g := new(errgroup.Group)
	g.SetLimit(walkConcurrency)
	for _, cat := range cats {
		if cat.ID == 0 || cat.Name == "" || a.skip(cat.Name) {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			var resp leagueResponse
			matchesURL := a.base + fmt.Sprintf(a.site.MatchesPath, code, cat.ID)
			if err := a.client.GetJSON(ctx, matchesURL, a.site.Params, &resp); err != nil {
				slog.Debug(a.site.Name+": league fetch failed", "league", cat.Name, "error", err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, m := range resp.EsMatches {
				league := m.LeagueName
				if league == "" {
					league = cat.Name
				}
				if m.ID == 0 || a.skip(league) {
					continue
				}
				stubs = append(stubs, stubRef{id: m.ID, home: m.Home, away: m.Away, league: league})
			}
			return nil
		})
	}
	g.Wait()
	return stubs
}

func (a *Adapter) collectMatches(ctx context.Context, sport enums.Sport, tables Tables, stubs []stubRef) ([]line.RawMatch, int) {
	var (
		mu      sync.Mutex
		out     []line.RawMatch
		dropped int
	)
	g := new(errgroup.Group)
	g.SetLimit(walkConcurrency)
	for _, stub := range stubs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			var d MatchDetail
			detailURL := fmt.Sprintf("%s/match/%d", a.base, stub.id)
			if err := a.client.GetJSON(ctx, detailURL, a.site.Params, &d); err != nil {
				slog.Debug(a.site.Name+": match fetch failed", "match_id", stub.id, "error", err)
				return nil
			}
			raw, nDropped, ok := a.buildMatch(sport, tables, stub, &d)
			mu.Lock()
			defer mu.Unlock()
			dropped += nDropped
			if ok {
				out = append(out, raw)
			}
			return nil
		})
	}
	g.Wait()
	return out, dropped
}

func (a *Adapter) buildMatch(sport enums.Sport, tables Tables, stub stubRef, d *MatchDetail) (line.RawMatch, int, bool) {
	home, away := d.Home, d.Away
	if home == "" {
		home = stub.home
	}
	if away == "" {
		away = stub.away
	}
	if home == "" || away == "" || d.KickOffTime <= 0 {
		return line.RawMatch{}, 0, false
	}
	league := d.LeagueName
	if league == "" {
		league = stub.league
	}

	m := line.RawMatch{
		ProviderID: a.site.ProviderID,
		Team1:      home,
		Team2:      away,
		Sport:      sport,
		StartTime:  time.UnixMilli(d.KickOffTime).UTC(),
		League:     league,
		ExternalID: strconv.FormatInt(stub.id, 10),
	}
	_, dropped := AppendOdds(&m, d, tables)
	if !m.HasOdds() {
		return line.RawMatch{}, dropped, false
	}
	return m, dropped, true
}

func (a *Adapter) skip(league string) bool {
	return a.site.SkipLeague != nil && a.site.SkipLeague(league)
}
