// Package admiral adapts the Admiral Bet Serbia prematch offer. The walk is
// three levels: the webTree lists regions and competitions per sport, the
// events endpoint lists fixtures per competition, and betsAndGroups carries
// the priced markets of one fixture.
package admiral

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nstojkov/betsnipe/internal/pkg/config"
	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/fetch"
	"github.com/nstojkov/betsnipe/internal/pkg/line"
	"github.com/nstojkov/betsnipe/internal/scraper/providers"
)

const (
	providerID     = 4
	defaultBaseURL = "https://srboffer.admiralbet.rs/api/offer"

	walkConcurrency = 16
	treeCacheTTL    = time.Minute
)

// Admiral numbers most sports like the store does; table tennis is the
// exception.
var sportIDs = map[enums.Sport]int{
	enums.Football:    1,
	enums.Basketball:  2,
	enums.Tennis:      3,
	enums.Hockey:      4,
	enums.TableTennis: 17,
}

func init() {
	providers.Register("admiral", New)
}

// Adapter implements providers.Provider for Admiral Bet.
type Adapter struct {
	base   string
	client *fetch.Client

	// webTree returns every sport at once, so one response serves all five
	// sport scrapes of a cycle.
	treeMu      sync.Mutex
	tree        []webSport
	treeFetched time.Time
}

// New builds the admiral adapter.
func New(cfg *config.Config) providers.Provider {
	pc := cfg.Provider("admiral")
	base := defaultBaseURL
	if pc.BaseURL != "" {
		base = pc.BaseURL
	}
	headers := map[string]string{
		"Accept":   "application/utf8+json, application/json;q=0.9, text/plain;q=0.8, */*;q=0.7",
		"Language": "sr-Latn",
		"Officeid": "138",
		"Origin":   "https://admiralbet.rs",
		"Referer":  "https://admiralbet.rs/",
	}
	opts := []fetch.Option{fetch.WithHeaders(headers)}
	if pc.UserAgent != "" {
		opts = append(opts, fetch.WithUserAgent(pc.UserAgent))
	}
	if pc.RateLimitRPS > 0 {
		opts = append(opts, fetch.WithRateLimit(pc.RateLimitRPS))
	}
	return &Adapter{
		base:   base,
		client: fetch.NewClient(cfg.RequestTimeout(), int64(cfg.MaxConcurrentRequests), opts...),
	}
}

func (a *Adapter) Name() string    { return "admiral" }
func (a *Adapter) ID() int         { return providerID }
func (a *Adapter) BaseURL() string { return a.base }

func (a *Adapter) SupportedSports() []enums.Sport {
	return []enums.Sport{enums.Football, enums.Basketball, enums.Tennis, enums.Hockey, enums.TableTennis}
}

func (a *Adapter) TakeCounters() (requests, errors int64) {
	return a.client.TakeCounters()
}

type webCompetition struct {
	RegionID        int64  `json:"regionId"`
	CompetitionID   int64  `json:"competitionId"`
	CompetitionName string `json:"competitionName"`
}

type webRegion struct {
	RegionName   string           `json:"regionName"`
	Competitions []webCompetition `json:"competitions"`
}

type webSport struct {
	ID      int         `json:"id"`
	Regions []webRegion `json:"regions"`
}

type webEvent struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	DateTime string `json:"dateTime"`
}

// offerWindow bounds every offer query: from now to five years out.
func offerWindow() (string, string) {
	now := time.Now().UTC()
	const layout = "2006-01-02T15:04:05.000"
	return now.Format(layout), now.AddDate(5, 0, 0).Format(layout)
}

var eventMappingTypes = []string{"1", "2", "3", "4", "5"}

// Scrape walks competitions, fixtures and their markets for one sport.
func (a *Adapter) Scrape(ctx context.Context, sport enums.Sport) ([]line.RawMatch, error) {
	sportID, ok := sportIDs[sport]
	if !ok {
		return nil, nil
	}

	comps, err := a.competitions(ctx, sportID)
	if err != nil {
		return nil, fmt.Errorf("admiral: competitions for %s: %w", sport, err)
	}

	var (
		mu  sync.Mutex
		out []line.RawMatch
	)
	g := new(errgroup.Group)
	g.SetLimit(walkConcurrency)
	for _, comp := range comps {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			events, err := a.fetchEvents(ctx, sportID, comp)
			if err != nil {
				slog.Debug("admiral: events fetch failed", "competition", comp.CompetitionName, "error", err)
				return nil
			}
			for _, ev := range events {
				if ctx.Err() != nil {
					return nil
				}
				raw, ok := a.scrapeEvent(ctx, sport, sportID, comp, ev)
				if !ok {
					continue
				}
				mu.Lock()
				out = append(out, raw)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// competitions flattens the cached webTree for one sport.
func (a *Adapter) competitions(ctx context.Context, sportID int) ([]webCompetition, error) {
	a.treeMu.Lock()
	defer a.treeMu.Unlock()

	if a.tree == nil || time.Since(a.treeFetched) > treeCacheTTL {
		from, to := offerWindow()
		treeURL := fmt.Sprintf("%s/webTree/null/true/true/true/%s/%s/false", a.base, from, to)
		var tree []webSport
		params := url.Values{"eventMappingTypes": eventMappingTypes}
		if err := a.client.GetJSON(ctx, treeURL, params, &tree); err != nil {
			return nil, err
		}
		a.tree = tree
		a.treeFetched = time.Now()
	}

	var comps []webCompetition
	for _, s := range a.tree {
		if s.ID != sportID {
			continue
		}
		for _, region := range s.Regions {
			comps = append(comps, region.Competitions...)
		}
	}
	return comps, nil
}

func (a *Adapter) fetchEvents(ctx context.Context, sportID int, comp webCompetition) ([]webEvent, error) {
	from, to := offerWindow()
	params := url.Values{
		"pageId":            {"35"},
		"sportId":           {strconv.Itoa(sportID)},
		"regionId":          {strconv.FormatInt(comp.RegionID, 10)},
		"competitionId":     {strconv.FormatInt(comp.CompetitionID, 10)},
		"isLive":            {"false"},
		"dateFrom":          {from},
		"dateTo":            {to},
		"eventMappingTypes": eventMappingTypes,
	}
	var events []webEvent
	if err := a.client.GetJSON(ctx, a.base+"/getWebEventsSelections", params, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (a *Adapter) scrapeEvent(ctx context.Context, sport enums.Sport, sportID int, comp webCompetition, ev webEvent) (line.RawMatch, bool) {
	// Outrights and specials put extra separators in the name; fixtures
	// read "Home - Away".
	if strings.Count(ev.Name, " - ") != 1 {
		return line.RawMatch{}, false
	}
	team1, team2, _ := strings.Cut(ev.Name, " - ")
	team1, team2 = strings.TrimSpace(team1), strings.TrimSpace(team2)
	if team1 == "" || team2 == "" {
		return line.RawMatch{}, false
	}
	start, ok := parseEventTime(ev.DateTime)
	if !ok {
		return line.RawMatch{}, false
	}

	oddsURL := fmt.Sprintf("%s/betsAndGroups/%d/%d/%d/%d",
		a.base, sportID, comp.RegionID, comp.CompetitionID, ev.ID)
	var resp betsResponse
	if err := a.client.GetJSON(ctx, oddsURL, nil, &resp); err != nil {
		slog.Debug("admiral: odds fetch failed", "event", ev.Name, "error", err)
		return line.RawMatch{}, false
	}

	m := line.RawMatch{
		ProviderID: providerID,
		Team1:      team1,
		Team2:      team2,
		Sport:      sport,
		StartTime:  start,
		League:     comp.CompetitionName,
		ExternalID: strconv.FormatInt(ev.ID, 10),
	}
	appendBets(&m, sport, resp.Bets)
	if !m.HasOdds() {
		return line.RawMatch{}, false
	}
	return m, true
}

// parseEventTime reads the offer's ISO-ish timestamps, with or without
// fractional seconds, as UTC.
func parseEventTime(s string) (time.Time, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	if s == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}
