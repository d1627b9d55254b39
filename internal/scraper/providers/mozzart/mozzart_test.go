package mozzart

import (
	"context"
	"encoding/json"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/nstojkov/betsnipe/internal/pkg/config"
	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/line"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
)

func TestEpochTime(t *testing.T) {
	want := time.Date(2026, 4, 1, 19, 0, 0, 0, time.UTC)
	cases := []struct {
		in   int64
		want time.Time
		ok   bool
	}{
		{1775070000000, want, true},
		{1775070000, want, true},
		{0, time.Time{}, false},
		{-5, time.Time{}, false},
	}
	for _, tc := range cases {
		got, ok := epochTime(tc.in)
		if ok != tc.ok {
			t.Errorf("epochTime(%d) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && !got.Equal(tc.want) {
			t.Errorf("epochTime(%d) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestUniqueID(t *testing.T) {
	format := regexp.MustCompile(`^\d{13}-[0-9a-f]{8}$`)
	a, b := uniqueID(), uniqueID()
	if !format.MatchString(a) {
		t.Errorf("uniqueID() = %q, want millis-hex8", a)
	}
	if a == b {
		t.Errorf("two ids collided: %q", a)
	}
}

func TestSessionResetClearsState(t *testing.T) {
	s := newSession("http://example.test", defaultUserAgent, time.Second)
	cancelled := 0
	ctx, cancel := context.WithCancel(context.Background())
	s.tab = ctx
	s.cancels = []context.CancelFunc{func() { cancelled++; cancel() }}
	dir := t.TempDir()
	s.dataDir = dir

	s.resetLocked()

	if s.tab != nil || s.cancels != nil || s.dataDir != "" {
		t.Errorf("state after reset: tab=%v cancels=%d dataDir=%q", s.tab, len(s.cancels), s.dataDir)
	}
	if cancelled != 1 {
		t.Errorf("cancel funcs invoked %d times, want 1", cancelled)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("profile dir survived reset: %v", err)
	}
	// A torn-down session relaunches on the next ensure, so Close stays safe
	// to call twice.
	s.Close()
}

func TestMatchResponseError(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{`{"error": {"message": "redirect"}}`, true},
		{`{"error": "NOT_FOUND"}`, true},
		{`{"error": null}`, false},
		{`{"error": false}`, false},
		{`{"match": {"id": 1}}`, false},
	}
	for _, tc := range cases {
		var resp matchResponse
		if err := json.Unmarshal([]byte(tc.in), &resp); err != nil {
			t.Fatalf("unmarshal %q: %v", tc.in, err)
		}
		if got := resp.hasError(); got != tc.want {
			t.Errorf("hasError(%s) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMatchDetailDecode(t *testing.T) {
	var resp matchResponse
	raw := `{"match": {
		"id": 12345,
		"startTime": 1775070000000,
		"home": {"name": "Partizan"},
		"visitor": {"name": "Crvena Zvezda"},
		"specialMatchGroupId": 77,
		"oddsGroup": [{"groupName": "Konačan ishod", "odds": [
			{"value": "2.05", "game": {"name": "Konačan ishod"}, "subgame": {"name": "1"}}
		]}]
	}}`
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	d := resp.Match
	if d.ID != 12345 || d.Home.Name != "Partizan" || d.Visitor.Name != "Crvena Zvezda" {
		t.Errorf("detail = %+v", d)
	}
	if d.SpecialGroup == nil || *d.SpecialGroup != 77 {
		t.Errorf("special group = %v, want 77", d.SpecialGroup)
	}
	if len(d.OddsGroups) != 1 || len(d.OddsGroups[0].Odds) != 1 {
		t.Fatalf("odds groups = %+v", d.OddsGroups)
	}
	if got := float64(d.OddsGroups[0].Odds[0].Value); got != 2.05 {
		t.Errorf("quoted value = %v, want 2.05", got)
	}
}

func findOdds(t *testing.T, m *line.RawMatch, key markets.Key) line.RawOdds {
	t.Helper()
	for _, o := range m.Odds {
		if o.Key == key {
			return o
		}
	}
	t.Fatalf("key %+v missing, have %+v", key, m.Odds)
	return line.RawOdds{}
}

func TestAppendFootball(t *testing.T) {
	raw := `[
		{"groupName": "Konačan ishod", "odds": [
			{"value": "2.05", "game": {"name": "Konačan ishod"}, "subgame": {"name": "1"}},
			{"value": 3.40, "game": {"name": "Konačan ishod"}, "subgame": {"name": "X"}},
			{"value": 3.50, "game": {"name": "Konačan ishod"}, "subgame": {"name": "2"}}
		]},
		{"groupName": "1. Poluvreme", "odds": [
			{"value": 2.90, "game": {"name": "Konačan ishod"}, "subgame": {"name": "1"}},
			{"value": 2.15, "game": {"name": "Konačan ishod"}, "subgame": {"name": "X"}},
			{"value": 4.10, "game": {"name": "Konačan ishod"}, "subgame": {"name": "2"}},
			{"value": 1.55, "game": {"name": "Ukupno golova", "specialOddValueType": "MARGIN"}, "specialOddValue": "1.5", "subgame": {"name": "manje"}},
			{"value": 2.35, "game": {"name": "Ukupno golova", "specialOddValueType": "MARGIN"}, "specialOddValue": "1.5", "subgame": {"name": "više"}}
		]},
		{"groupName": "Oba tima daju gol", "odds": [
			{"value": 1.75, "game": {"name": "Oba tima daju gol"}, "subgame": {"name": "da"}},
			{"value": 2.00, "game": {"name": "Oba tima daju gol"}, "subgame": {"name": "ne"}}
		]},
		{"groupName": "Golovi", "odds": [
			{"value": 1.85, "game": {"name": "Ukupno golova", "specialOddValueType": "MARGIN"}, "specialOddValue": "2.5", "subgame": {"name": "manje"}},
			{"value": 1.95, "game": {"name": "Ukupno golova", "specialOddValueType": "MARGIN"}, "specialOddValue": "2.5", "subgame": {"name": "više"}},
			{"value": 1.30, "game": {"name": "Ukupno golova", "specialOddValueType": "MARGIN"}, "specialOddValue": "3.5", "subgame": {"name": "manje"}}
		]}
	]`
	var groups []oddsGroup
	if err := json.Unmarshal([]byte(raw), &groups); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	m := &line.RawMatch{ProviderID: providerID, Sport: enums.Football}
	appendFootball(m, groups)

	if len(m.Odds) != 4 {
		t.Fatalf("got %d rows, want 4: %+v", len(m.Odds), m.Odds)
	}
	x := findOdds(t, m, markets.Key{BetTypeID: markets.BT1X2})
	if x.P1 != 2.05 || *x.P2 != 3.40 || *x.P3 != 3.50 {
		t.Errorf("1X2 legs = %+v", x)
	}
	h1 := findOdds(t, m, markets.Key{BetTypeID: markets.BT1X2H1})
	if h1.P1 != 2.90 || *h1.P2 != 2.15 || *h1.P3 != 4.10 {
		t.Errorf("half legs = %+v, want the half group routed by name", h1)
	}
	findOdds(t, m, markets.Key{BetTypeID: markets.BTBTTS})
	tot := findOdds(t, m, markets.Key{BetTypeID: markets.BTTotal, Margin: 2.5})
	if tot.P1 != 1.85 || *tot.P2 != 1.95 {
		t.Errorf("total legs = %v/%v, want under first", tot.P1, *tot.P2)
	}
	for _, o := range m.Odds {
		if o.Key.Margin == 1.5 || o.Key.Margin == 3.5 {
			t.Errorf("stray line kept: %+v", o)
		}
	}
}

func TestAppendBasketball(t *testing.T) {
	raw := `[
		{"groupName": "1. Poluvreme - Pobednik", "odds": [
			{"value": 1.40, "game": {"name": "Pobednik meča"}, "subgame": {"name": "1"}},
			{"value": 2.90, "game": {"name": "Pobednik meča"}, "subgame": {"name": "2"}}
		]},
		{"groupName": "Pobednik", "odds": [
			{"value": 1.55, "game": {"name": "Pobednik meča"}, "subgame": {"name": "1"}},
			{"value": 2.45, "game": {"name": "Pobednik meča"}, "subgame": {"name": "2"}}
		]},
		{"groupName": "Hendikep", "odds": [
			{"value": 1.92, "game": {"name": "Hendikep", "specialOddValueType": "HANDICAP"}, "specialOddValue": "-5.5", "subgame": {"name": "1"}},
			{"value": 1.88, "game": {"name": "Hendikep", "specialOddValueType": "HANDICAP"}, "specialOddValue": "-5.5", "subgame": {"name": "2"}}
		]},
		{"groupName": "Ukupno poena", "odds": [
			{"value": 1.84, "game": {"name": "Ukupno poena", "specialOddValueType": "MARGIN"}, "specialOddValue": "165.5", "subgame": {"name": "manje"}},
			{"value": 1.90, "game": {"name": "Ukupno poena", "specialOddValueType": "MARGIN"}, "specialOddValue": "165.5", "subgame": {"name": "više"}},
			{"value": 1.70, "game": {"name": "Ukupno poena", "specialOddValueType": "MARGIN"}, "specialOddValue": "82.5", "subgame": {"name": "manje"}},
			{"value": 2.05, "game": {"name": "Ukupno poena", "specialOddValueType": "MARGIN"}, "specialOddValue": "82.5", "subgame": {"name": "više"}}
		]}
	]`
	var groups []oddsGroup
	if err := json.Unmarshal([]byte(raw), &groups); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	m := &line.RawMatch{ProviderID: providerID, Sport: enums.Basketball}
	appendBasketball(m, groups)

	if len(m.Odds) != 3 {
		t.Fatalf("got %d rows, want 3: %+v", len(m.Odds), m.Odds)
	}
	w := findOdds(t, m, markets.Key{BetTypeID: markets.BTWinner})
	if w.P1 != 1.55 || *w.P2 != 2.45 {
		t.Errorf("winner legs = %v/%v, want the half group skipped", w.P1, *w.P2)
	}
	hcp := findOdds(t, m, markets.Key{BetTypeID: markets.BTHandicap, Margin: -5.5})
	if hcp.P1 != 1.92 || *hcp.P2 != 1.88 {
		t.Errorf("handicap legs = %v/%v, want home first", hcp.P1, *hcp.P2)
	}
	findOdds(t, m, markets.Key{BetTypeID: markets.BTTotalPoints, Margin: 165.5})
	for _, o := range m.Odds {
		if o.Key.Margin == 82.5 {
			t.Errorf("sub-match point line kept: %+v", o)
		}
	}
}

func TestAppendRacketAndHockey(t *testing.T) {
	tennis := &line.RawMatch{ProviderID: providerID, Sport: enums.Tennis}
	appendTennis(tennis, []oddsGroup{
		{GroupName: "Konačan ishod", Odds: []odd{
			{Value: 1.60, Game: gameInfo{Name: "Pobednik meča"}, Subgame: subgameInfo{Name: "1"}},
			{Value: 2.30, Game: gameInfo{Name: "Konačan ishod"}, Subgame: subgameInfo{Name: "2"}},
		}},
		{GroupName: "Prvi set", Odds: []odd{
			{Value: 1.70, Game: gameInfo{Name: "Prvi set"}, Subgame: subgameInfo{Name: "1"}},
			{Value: 2.10, Game: gameInfo{Name: "Prvi set"}, Subgame: subgameInfo{Name: "2"}},
		}},
		// Outside its group the winner game is a special, not the match book.
		{GroupName: "Specijali", Odds: []odd{
			{Value: 1.10, Game: gameInfo{Name: "Pobednik meča"}, Subgame: subgameInfo{Name: "1"}},
		}},
	})
	if len(tennis.Odds) != 2 {
		t.Fatalf("tennis rows = %d, want winner and first set only", len(tennis.Odds))
	}
	w := findOdds(t, tennis, markets.Key{BetTypeID: markets.BTWinner})
	if w.P1 != 1.60 || *w.P2 != 2.30 {
		t.Errorf("winner legs = %v/%v", w.P1, *w.P2)
	}
	findOdds(t, tennis, markets.Key{BetTypeID: markets.BTFirstSet})

	hockey := &line.RawMatch{ProviderID: providerID, Sport: enums.Hockey}
	appendHockey(hockey, []oddsGroup{
		{GroupName: "Konačan ishod", Odds: []odd{
			{Value: 2.20, Game: gameInfo{Name: "Konačan ishod"}, Subgame: subgameInfo{Name: "1"}},
			{Value: 3.90, Game: gameInfo{Name: "Konačan ishod"}, Subgame: subgameInfo{Name: "X"}},
			{Value: 2.70, Game: gameInfo{Name: "Konačan ishod"}, Subgame: subgameInfo{Name: "2"}},
		}},
	})
	if len(hockey.Odds) != 1 || hockey.Odds[0].Key.BetTypeID != markets.BT1X2 {
		t.Fatalf("hockey rows = %+v, want one 1X2", hockey.Odds)
	}

	tt := &line.RawMatch{ProviderID: providerID, Sport: enums.TableTennis}
	appendTableTennis(tt, []oddsGroup{
		{GroupName: "Pobednik", Odds: []odd{
			{Value: 1.30, Game: gameInfo{Name: "Pobednik meča"}, Subgame: subgameInfo{Name: "1"}},
			{Value: 3.20, Game: gameInfo{Name: "Pobednik meča"}, Subgame: subgameInfo{Name: "2"}},
		}},
	})
	if len(tt.Odds) != 1 || tt.Odds[0].Key.BetTypeID != markets.BTWinner {
		t.Fatalf("table tennis rows = %+v, want one winner", tt.Odds)
	}
}

func TestAdapterIdentity(t *testing.T) {
	cfg := &config.Config{
		Providers: map[string]config.ProviderConfig{
			"mozzart": {BaseURL: "http://localhost:9"},
		},
	}
	p := New(cfg)
	if p.Name() != "mozzart" || p.ID() != providerID {
		t.Errorf("identity = %s/%d", p.Name(), p.ID())
	}
	if p.BaseURL() != "http://localhost:9" {
		t.Errorf("base url = %q, want the configured override", p.BaseURL())
	}
	if got := len(p.SupportedSports()); got != 5 {
		t.Errorf("supported sports = %d, want 5", got)
	}
}
