// Package mozzart adapts the Mozzart Bet Serbia offer. The betting API sits
// behind bot protection, so requests go through a headless Chrome session
// that has visited the site first.
package mozzart

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/nstojkov/betsnipe/internal/pkg/config"
	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/line"
	"github.com/nstojkov/betsnipe/internal/scraper/providers"
)

const (
	providerID     = 1
	defaultBaseURL = "https://www.mozzartbet.com"

	detailAttempts = 3
)

var sportIDs = map[enums.Sport]int{
	enums.Football:    1,
	enums.Basketball:  2,
	enums.Tennis:      5,
	enums.Hockey:      4,
	enums.TableTennis: 9,
}

func init() {
	providers.Register("mozzart", New)
}

// Adapter scrapes mozzartbet.com through a browser-backed session.
type Adapter struct {
	base    string
	session *session
}

// New builds the adapter. The browser starts lazily on the first scrape.
func New(cfg *config.Config) providers.Provider {
	pc := cfg.Provider("mozzart")
	base := defaultBaseURL
	if pc.BaseURL != "" {
		base = pc.BaseURL
	}
	ua := pc.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Adapter{
		base:    base,
		session: newSession(base+"/sr/kladjenje/sport/1?date=today", ua, cfg.RequestTimeout()),
	}
}

func (a *Adapter) Name() string    { return "mozzart" }
func (a *Adapter) ID() int         { return providerID }
func (a *Adapter) BaseURL() string { return a.base }

func (a *Adapter) SupportedSports() []enums.Sport {
	return []enums.Sport{enums.Football, enums.Basketball, enums.Tennis, enums.Hockey, enums.TableTennis}
}

func (a *Adapter) TakeCounters() (requests, errors int64) {
	return a.session.takeCounters()
}

// Close shuts the browser session down.
func (a *Adapter) Close() error {
	a.session.Close()
	return nil
}

type competition struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type competitionsResponse struct {
	Competitions []competition `json:"competitions"`
}

type matchesResponse struct {
	Items []struct {
		ID int64 `json:"id"`
	} `json:"items"`
}

type participant struct {
	Name string `json:"name"`
}

type matchDetail struct {
	ID           int64       `json:"id"`
	StartTime    int64       `json:"startTime"`
	Home         participant `json:"home"`
	Visitor      participant `json:"visitor"`
	SpecialGroup *int64      `json:"specialMatchGroupId"`
	OddsGroups   []oddsGroup `json:"oddsGroup"`
}

type matchResponse struct {
	Match matchDetail     `json:"match"`
	Error json.RawMessage `json:"error"`
}

// hasError reports whether the reply carries a non-empty error payload.
// The site answers some match ids with {"error": {...}} and a 200 status.
func (r *matchResponse) hasError() bool {
	e := strings.TrimSpace(string(r.Error))
	return e != "" && e != "null" && e != "false"
}

// Scrape walks competitions, match lists and match details for one sport.
// The single tab serializes requests anyway, so the walk is sequential.
func (a *Adapter) Scrape(ctx context.Context, sport enums.Sport) ([]line.RawMatch, error) {
	mzID, ok := sportIDs[sport]
	if !ok {
		return nil, nil
	}

	var comps competitionsResponse
	payload := map[string]any{"date": "all_days", "sportId": mzID}
	if err := a.session.postJSON(ctx, a.base+"/betting/get-competitions", payload, &comps); err != nil {
		return nil, fmt.Errorf("mozzart: competitions for %s: %w", sport, err)
	}

	seen := make(map[string]bool)
	var out []line.RawMatch
	for _, comp := range comps.Competitions {
		if ctx.Err() != nil {
			break
		}
		if comp.ID == 0 || comp.Name == "" {
			continue
		}
		ids, err := a.matchIDs(ctx, mzID, comp.ID)
		if err != nil {
			slog.Debug("mozzart: match list failed", "league", comp.Name, "error", err)
			continue
		}
		for _, id := range ids {
			if ctx.Err() != nil {
				break
			}
			m, ok := a.scrapeMatch(ctx, sport, comp.Name, id, seen)
			if ok {
				out = append(out, m)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Adapter) matchIDs(ctx context.Context, mzID int, compID int64) ([]int64, error) {
	payload := map[string]any{
		"date":           "all_days",
		"sort":           "bycompetition",
		"currentPage":    0,
		"pageSize":       100,
		"sportId":        mzID,
		"competitionIds": []int64{compID},
		"search":         "",
		"matchTypeId":    0,
	}
	var resp matchesResponse
	if err := a.session.postJSON(ctx, a.base+"/betting/matches", payload, &resp); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ID != 0 {
			ids = append(ids, it.ID)
		}
	}
	return ids, nil
}

func (a *Adapter) scrapeMatch(ctx context.Context, sport enums.Sport, league string, id int64, seen map[string]bool) (line.RawMatch, bool) {
	detailURL := fmt.Sprintf("%s/betting/match/%d", a.base, id)

	// The detail endpoint answers intermittently with an error payload;
	// a short pause and a retry usually clears it.
	var resp matchResponse
	found := false
	for attempt := 0; attempt < detailAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return line.RawMatch{}, false
			case <-time.After(500 * time.Millisecond):
			}
		}
		resp = matchResponse{}
		if err := a.session.postJSON(ctx, detailURL, struct{}{}, &resp); err != nil {
			slog.Debug("mozzart: match fetch failed", "match", id, "error", err)
			continue
		}
		if resp.hasError() {
			continue
		}
		found = true
		break
	}
	if !found {
		return line.RawMatch{}, false
	}

	d := resp.Match
	// Promotional books carry a special group id.
	if d.SpecialGroup != nil {
		return line.RawMatch{}, false
	}
	home := strings.TrimSpace(d.Home.Name)
	away := strings.TrimSpace(d.Visitor.Name)
	if home == "" || away == "" {
		return line.RawMatch{}, false
	}
	pairKey := home + "|" + away
	if seen[pairKey] {
		return line.RawMatch{}, false
	}
	seen[pairKey] = true

	start, ok := epochTime(d.StartTime)
	if !ok {
		return line.RawMatch{}, false
	}

	m := line.RawMatch{
		ProviderID: providerID,
		Team1:      home,
		Team2:      away,
		Sport:      sport,
		StartTime:  start,
		League:     league,
		ExternalID: strconv.FormatInt(d.ID, 10),
	}
	appendOdds(&m, sport, d.OddsGroups)
	if !m.HasOdds() {
		return line.RawMatch{}, false
	}
	return m, true
}

// epochTime reads a unix timestamp that the feed sends in milliseconds,
// falling back to seconds for small values.
func epochTime(v int64) (time.Time, bool) {
	if v <= 0 {
		return time.Time{}, false
	}
	if v > 1e12 {
		return time.UnixMilli(v).UTC(), true
	}
	return time.Unix(v, 0).UTC(), true
}
