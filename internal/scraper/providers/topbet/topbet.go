// Package topbet adapts the Topbet Serbia offer served from the NSoft
// distribution API. One overview request per sport returns every event with
// its markets inline, in a short-prop encoding: a is the event id, j the
// event name, n the start time and o the market map.
package topbet

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nstojkov/betsnipe/internal/pkg/config"
	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/fetch"
	"github.com/nstojkov/betsnipe/internal/pkg/line"
	"github.com/nstojkov/betsnipe/internal/scraper/providers"
)

const (
	providerID     = 10
	defaultBaseURL = "https://sports-sm-distribution-api.de-2.nsoftcdn.com/api/v1"

	companyUUID = "4dd61a16-9691-4277-9027-8cd05a647844"
)

var sportIDs = map[enums.Sport]int{
	enums.Football:    3,
	enums.Basketball:  1,
	enums.Tennis:      4,
	enums.Hockey:      5,
	enums.TableTennis: 27,
}

func init() {
	providers.Register("topbet", New)
}

// Adapter implements providers.Provider for Topbet.
type Adapter struct {
	base   string
	client *fetch.Client
}

// New builds the topbet adapter.
func New(cfg *config.Config) providers.Provider {
	pc := cfg.Provider("topbet")
	base := defaultBaseURL
	if pc.BaseURL != "" {
		base = pc.BaseURL
	}
	headers := map[string]string{
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-US,en;q=0.9",
		"Origin":          "https://topbet.rs",
		"Referer":         "https://topbet.rs/",
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

func (a *Adapter) Name() string    { return "topbet" }
func (a *Adapter) ID() int         { return providerID }
func (a *Adapter) BaseURL() string { return a.base }

func (a *Adapter) SupportedSports() []enums.Sport {
	return []enums.Sport{enums.Football, enums.Basketball, enums.Tennis, enums.Hockey, enums.TableTennis}
}

func (a *Adapter) TakeCounters() (requests, errors int64) {
	return a.client.TakeCounters()
}

// flexString reads values that arrive either quoted or bare.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	*f = flexString(strings.Trim(string(b), `"`))
	return nil
}

type outcomeEntry struct {
	Label string  `json:"e"`
	Odd   float64 `json:"g"`
}

type market struct {
	Group    int            `json:"b"`
	Display  int            `json:"d"`
	Line     flexString     `json:"n"`
	Outcomes []outcomeEntry `json:"h"`
}

// line reads the market's special value where one is set.
func (mk *market) line() (float64, bool) {
	v, err := strconv.ParseFloat(string(mk.Line), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

type event struct {
	ID       flexString        `json:"a"`
	Name     string            `json:"j"`
	StartsAt string            `json:"n"`
	Markets  map[string]market `json:"o"`
}

type eventsResponse struct {
	Data struct {
		Events []event `json:"events"`
	} `json:"data"`
}

// Scrape pulls the sport's overview offer in a single request.
func (a *Adapter) Scrape(ctx context.Context, sport enums.Sport) ([]line.RawMatch, error) {
	tbID, ok := sportIDs[sport]
	if !ok {
		return nil, nil
	}

	params := url.Values{
		"deliveryPlatformId": {"3"},
		"dataFormat":         {`{"default":"object","events":"array","outcomes":"array"}`},
		"language":           {`{"default":"sr-Latn","events":"sr-Latn","sport":"sr-Latn","category":"sr-Latn","tournament":"sr-Latn","team":"sr-Latn","market":"sr-Latn"}`},
		"timezone":           {"Europe/Budapest"},
		"company":            {"{}"},
		"companyUuid":        {companyUUID},
		"filter[sportId]":    {strconv.Itoa(tbID)},
		"filter[from]":       {time.Now().UTC().Format("2006-01-02T15:04:05")},
		"sort":               {"categoryPosition,categoryName,tournamentPosition,tournamentName,startsAt"},
		"offerTemplate":      {"WEB_OVERVIEW"},
		"shortProps":         {"1"},
	}
	var resp eventsResponse
	if err := a.client.GetJSON(ctx, a.base+"/events", params, &resp); err != nil {
		return nil, fmt.Errorf("topbet: events for %s: %w", sport, err)
	}

	var out []line.RawMatch
	for _, ev := range resp.Data.Events {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		raw, ok := buildMatch(sport, ev)
		if !ok {
			continue
		}
		out = append(out, raw)
	}
	return out, nil
}

func buildMatch(sport enums.Sport, ev event) (line.RawMatch, bool) {
	if strings.Count(ev.Name, " - ") != 1 {
		return line.RawMatch{}, false
	}
	team1, team2, _ := strings.Cut(ev.Name, " - ")
	team1, team2 = strings.TrimSpace(team1), strings.TrimSpace(team2)
	if team1 == "" || team2 == "" {
		return line.RawMatch{}, false
	}
	id := string(ev.ID)
	if id == "" || id == "null" {
		return line.RawMatch{}, false
	}
	start, ok := parseStartsAt(ev.StartsAt)
	if !ok {
		return line.RawMatch{}, false
	}

	m := line.RawMatch{
		ProviderID: providerID,
		Team1:      team1,
		Team2:      team2,
		Sport:      sport,
		StartTime:  start,
		ExternalID: id,
	}
	appendMarkets(&m, sport, ev.Markets)
	if !m.HasOdds() {
		return line.RawMatch{}, false
	}
	return m, true
}

var startsAtLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseStartsAt(s string) (time.Time, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	for _, layout := range startsAtLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
