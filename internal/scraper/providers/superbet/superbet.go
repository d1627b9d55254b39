// Package superbet adapts the Superbet Serbia prematch offer. A by-date
// listing yields event ids per sport and each event detail carries the
// priced markets, keyed by Serbian market names.
package superbet

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
	providerID     = 6
	defaultBaseURL = "https://production-superbet-offer-rs.freetls.fastly.net/sb-rs/api/v2/sr-Latn-RS"

	walkConcurrency = 16
)

var sportIDs = map[enums.Sport]int{
	enums.Football:    5,
	enums.Basketball:  2,
	enums.Tennis:      3,
	enums.Hockey:      4,
	enums.TableTennis: 16,
}

func init() {
	providers.Register("superbet", New)
}

// Adapter implements providers.Provider for Superbet.
type Adapter struct {
	base   string
	client *fetch.Client
}

// New builds the superbet adapter.
func New(cfg *config.Config) providers.Provider {
	pc := cfg.Provider("superbet")
	base := defaultBaseURL
	if pc.BaseURL != "" {
		base = pc.BaseURL
	}
	opts := []fetch.Option{fetch.WithHeaders(map[string]string{"Accept": "application/json"})}
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

func (a *Adapter) Name() string    { return "superbet" }
func (a *Adapter) ID() int         { return providerID }
func (a *Adapter) BaseURL() string { return a.base }

func (a *Adapter) SupportedSports() []enums.Sport {
	return []enums.Sport{enums.Football, enums.Basketball, enums.Tennis, enums.Hockey, enums.TableTennis}
}

func (a *Adapter) TakeCounters() (requests, errors int64) {
	return a.client.TakeCounters()
}

type eventStub struct {
	SportID int   `json:"sportId"`
	EventID int64 `json:"eventId"`
}

type eventsResponse struct {
	Data []eventStub `json:"data"`
}

type eventDetail struct {
	EventID        int64       `json:"eventId"`
	MatchName      string      `json:"matchName"`
	MatchDate      string      `json:"matchDate"`
	TournamentName string      `json:"tournamentName"`
	Odds           []oddsEntry `json:"odds"`
}

type detailResponse struct {
	Data []eventDetail `json:"data"`
}

// Scrape lists the sport's active prematch events and walks their details.
func (a *Adapter) Scrape(ctx context.Context, sport enums.Sport) ([]line.RawMatch, error) {
	sbID, ok := sportIDs[sport]
	if !ok {
		return nil, nil
	}

	params := url.Values{
		"currentStatus": {"active"},
		"offerState":    {"prematch"},
		"startDate":     {time.Now().UTC().Format("2006-01-02 15:04:05")},
		"sportId":       {strconv.Itoa(sbID)},
	}
	var listing eventsResponse
	if err := a.client.GetJSON(ctx, a.base+"/events/by-date", params, &listing); err != nil {
		return nil, fmt.Errorf("superbet: events for %s: %w", sport, err)
	}

	var ids []int64
	for _, ev := range listing.Data {
		// The by-date feed mixes in outrights and specials under other
		// sport ids.
		if ev.SportID == sbID && ev.EventID != 0 {
			ids = append(ids, ev.EventID)
		}
	}

	var (
		mu  sync.Mutex
		out []line.RawMatch
	)
	g := new(errgroup.Group)
	g.SetLimit(walkConcurrency)
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			raw, ok := a.scrapeEvent(ctx, sport, id)
			if !ok {
				return nil
			}
			mu.Lock()
			out = append(out, raw)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Adapter) scrapeEvent(ctx context.Context, sport enums.Sport, id int64) (line.RawMatch, bool) {
	var resp detailResponse
	detailURL := fmt.Sprintf("%s/events/%d", a.base, id)
	if err := a.client.GetJSON(ctx, detailURL, nil, &resp); err != nil {
		slog.Debug("superbet: event fetch failed", "event", id, "error", err)
		return line.RawMatch{}, false
	}
	if len(resp.Data) == 0 {
		return line.RawMatch{}, false
	}
	d := resp.Data[0]

	// Superbet joins team names with a middle dot.
	team1, team2, found := strings.Cut(d.MatchName, "·")
	if !found || strings.Contains(team2, "·") {
		return line.RawMatch{}, false
	}
	team1, team2 = strings.TrimSpace(team1), strings.TrimSpace(team2)
	if team1 == "" || team2 == "" {
		return line.RawMatch{}, false
	}
	start, ok := parseMatchDate(d.MatchDate)
	if !ok {
		return line.RawMatch{}, false
	}

	m := line.RawMatch{
		ProviderID: providerID,
		Team1:      team1,
		Team2:      team2,
		Sport:      sport,
		StartTime:  start,
		League:     d.TournamentName,
		ExternalID: strconv.FormatInt(d.EventID, 10),
	}
	appendOdds(&m, sport, d.Odds)
	if !m.HasOdds() {
		return line.RawMatch{}, false
	}
	return m, true
}

var matchDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

func parseMatchDate(s string) (time.Time, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	for _, layout := range matchDateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
