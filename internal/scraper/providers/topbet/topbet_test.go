package topbet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nstojkov/betsnipe/internal/pkg/config"
	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/line"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
)

func TestParseStartsAt(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2026-04-01T19:00:00.000Z", time.Date(2026, 4, 1, 19, 0, 0, 0, time.UTC), true},
		{"2026-04-01T19:00:00", time.Date(2026, 4, 1, 19, 0, 0, 0, time.UTC), true},
		{"2026-04-01 19:00:00", time.Date(2026, 4, 1, 19, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"tomorrow", time.Time{}, false},
	}
	for _, tc := range cases {
		got, ok := parseStartsAt(tc.in)
		if ok != tc.ok {
			t.Errorf("parseStartsAt(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && !got.Equal(tc.want) {
			t.Errorf("parseStartsAt(%q) = %v, want %v", tc.in, got, tc.want)
		}
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
	offer := map[string]market{
		"10": {Group: 6, Display: 1, Outcomes: []outcomeEntry{
			{Label: "1", Odd: 2.10}, {Label: "X", Odd: 3.30}, {Label: "2", Odd: 3.60},
		}},
		"20": {Outcomes: []outcomeEntry{
			{Label: "GG", Odd: 1.75}, {Label: "NG", Odd: 2.00},
		}},
		"30": {Line: "2.5", Outcomes: []outcomeEntry{
			{Label: "Manje", Odd: 1.85}, {Label: "Više", Odd: 1.95},
		}},
		// A period book repeating the 2.5 line; the lower market id wins.
		"31": {Line: "2.5", Outcomes: []outcomeEntry{
			{Label: "Manje", Odd: 1.20}, {Label: "Više", Odd: 4.20},
		}},
		"40": {Line: "7.5", Outcomes: []outcomeEntry{
			{Label: "Manje", Odd: 1.02}, {Label: "Više", Odd: 11.00},
		}},
		"50": {Line: "1.5", Outcomes: []outcomeEntry{
			{Label: "-", Odd: 2.40}, {Label: "+", Odd: 1.55},
		}},
	}

	m := &line.RawMatch{ProviderID: providerID, Sport: enums.Football}
	appendFootball(m, offer)

	if len(m.Odds) != 4 {
		t.Fatalf("got %d rows, want 4: %+v", len(m.Odds), m.Odds)
	}
	x := findOdds(t, m, markets.Key{BetTypeID: markets.BT1X2})
	if x.P1 != 2.10 || *x.P2 != 3.30 || *x.P3 != 3.60 {
		t.Errorf("1X2 legs = %+v", x)
	}
	findOdds(t, m, markets.Key{BetTypeID: markets.BTBTTS})
	tot := findOdds(t, m, markets.Key{BetTypeID: markets.BTTotal, Margin: 2.5})
	if tot.P1 != 1.85 || *tot.P2 != 1.95 {
		t.Errorf("total 2.5 legs = %v/%v, want the first book", tot.P1, *tot.P2)
	}
	sign := findOdds(t, m, markets.Key{BetTypeID: markets.BTTotal, Margin: 1.5})
	if sign.P1 != 2.40 || *sign.P2 != 1.55 {
		t.Errorf("total 1.5 legs = %v/%v, want the sign labels read", sign.P1, *sign.P2)
	}
	for _, o := range m.Odds {
		if o.Key.BetTypeID == markets.BTTotal && o.Key.Margin == 7.5 {
			t.Errorf("non-standard 7.5 line kept: %+v", o)
		}
	}
}

func TestAppendFootballSelectionBooks(t *testing.T) {
	offer := map[string]market{
		"100": {Group: groupEuroHandicap, Line: "-1", Outcomes: []outcomeEntry{
			{Label: "1", Odd: 3.10}, {Label: "X", Odd: 3.90}, {Label: "2", Odd: 2.10},
		}},
		"101": {Group: groupEuroHandicap, Line: "0:2", Outcomes: []outcomeEntry{
			{Label: "1", Odd: 1.45}, {Label: "X", Odd: 4.60}, {Label: "2", Odd: 6.00},
		}},
		"110": {Group: groupHTFT, Outcomes: []outcomeEntry{
			{Label: "1/1", Odd: 2.50}, {Label: "NE 1/1", Odd: 1.50},
			{Label: "1/1 v X/X", Odd: 1.85}, {Label: "1X/2", Odd: 21.00},
		}},
		"120": {Group: groupFirstGoal, Outcomes: []outcomeEntry{
			{Label: "Tim1", Odd: 1.70}, {Label: "Niko", Odd: 9.00}, {Label: "Tim2", Odd: 2.40},
		}},
		"121": {Group: groupLastGoal, Outcomes: []outcomeEntry{
			{Label: "Domaćin", Odd: 1.75}, {Label: "Niko", Odd: 9.50}, {Label: "Gost", Odd: 2.35},
		}},
		"130": {Group: groupCorrectScore, Outcomes: []outcomeEntry{
			{Label: "10", Odd: 7.50}, {Label: "2:1", Odd: 9.00}, {Label: "Ostalo", Odd: 4.00},
		}},
		"140": {Group: groupGoals, Outcomes: []outcomeEntry{
			{Label: "0-2", Odd: 1.80}, {Label: "3 gol.", Odd: 4.33}, {Label: "I 2+", Odd: 2.75},
			{Label: "DII 1+", Odd: 1.60}, {Label: "G 2+", Odd: 2.90}, {Label: "I GG", Odd: 4.80},
		}},
		"150": {Group: groupGoalCombos, Outcomes: []outcomeEntry{
			{Label: "I 1+ & 2+", Odd: 1.95}, {Label: "I 1+ & II 1+", Odd: 2.60},
		}},
	}

	m := &line.RawMatch{ProviderID: providerID, Sport: enums.Football}
	appendFootball(m, offer)

	if len(m.Odds) != 17 {
		t.Fatalf("got %d rows, want 17: %+v", len(m.Odds), m.Odds)
	}

	// The negated numeric line and the goals pair land on canonical margins.
	eh := findOdds(t, m, markets.Key{BetTypeID: markets.BTEuroHandicap, Margin: 1})
	if eh.P1 != 3.10 || *eh.P2 != 3.90 || *eh.P3 != 2.10 {
		t.Errorf("euro handicap +1 legs = %+v", eh)
	}
	findOdds(t, m, markets.Key{BetTypeID: markets.BTEuroHandicap, Margin: 2})

	findOdds(t, m, markets.Key{BetTypeID: markets.BTHTFT, Selection: "1/1"})
	findOdds(t, m, markets.Key{BetTypeID: markets.BTHTFTDC, Selection: "!1/1"})
	findOdds(t, m, markets.Key{BetTypeID: markets.BTHTFTDC, Selection: "1/1|X/X"})
	findOdds(t, m, markets.Key{BetTypeID: markets.BTHTFTDC, Selection: "1/2|X/2"})

	fg := findOdds(t, m, markets.Key{BetTypeID: markets.BTFirstGoal})
	if fg.P1 != 1.70 || *fg.P2 != 9.00 || *fg.P3 != 2.40 {
		t.Errorf("first goal legs = %+v", fg)
	}
	lg := findOdds(t, m, markets.Key{BetTypeID: markets.BTLastGoal})
	if lg.P1 != 1.75 || *lg.P2 != 9.50 || *lg.P3 != 2.35 {
		t.Errorf("last goal legs = %+v", lg)
	}

	findOdds(t, m, markets.Key{BetTypeID: markets.BTCorrectScore, Selection: "1:0"})
	findOdds(t, m, markets.Key{BetTypeID: markets.BTCorrectScore, Selection: "2:1"})

	findOdds(t, m, markets.Key{BetTypeID: markets.BTGoalsRange, Selection: "0-2"})
	findOdds(t, m, markets.Key{BetTypeID: markets.BTExactGoals, Selection: "T3"})
	findOdds(t, m, markets.Key{BetTypeID: markets.BTGoalsRangeH1, Selection: "2+"})
	findOdds(t, m, markets.Key{BetTypeID: markets.BTTeam1GoalsH2, Selection: "1+"})
	findOdds(t, m, markets.Key{BetTypeID: markets.BTTeam2Goals, Selection: "2+"})

	findOdds(t, m, markets.Key{BetTypeID: markets.BTGoalsH1H2Combo, Selection: "H1:1+&FT:2+"})
	findOdds(t, m, markets.Key{BetTypeID: markets.BTGoalsH1H2Combo, Selection: "H1:1+&H2:1+"})

	// "Ostalo" and the half btts label have no canonical form.
	if m.Dropped != 2 {
		t.Errorf("dropped = %d, want 2", m.Dropped)
	}
}

func TestAppendWinnerPicksFirstTwoWay(t *testing.T) {
	offer := map[string]market{
		// Lower id but not a 1/2 book.
		"3": {Outcomes: []outcomeEntry{
			{Label: "GG", Odd: 1.70}, {Label: "NG", Odd: 2.05},
		}},
		"5": {Outcomes: []outcomeEntry{
			{Label: "1", Odd: 1.60}, {Label: "2", Odd: 2.30},
		}},
		"7": {Outcomes: []outcomeEntry{
			{Label: "1", Odd: 1.10}, {Label: "2", Odd: 6.50},
		}},
	}

	m := &line.RawMatch{ProviderID: providerID, Sport: enums.Tennis}
	appendWinner(m, offer)

	if len(m.Odds) != 1 {
		t.Fatalf("got %d rows, want 1", len(m.Odds))
	}
	o := m.Odds[0]
	if o.Key.BetTypeID != markets.BTWinner || o.P1 != 1.60 || *o.P2 != 2.30 {
		t.Errorf("winner row = %+v, want market 5", o)
	}
}

func TestScrapeParsesOverview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("filter[sportId]") != "3" || q.Get("deliveryPlatformId") != "3" {
			t.Errorf("query = %v", q)
		}
		if q.Get("companyUuid") != companyUUID {
			t.Errorf("companyUuid = %q", q.Get("companyUuid"))
		}
		w.Write([]byte(`{"data": {"events": [
			{
				"a": 888,
				"j": "Partizan - Crvena Zvezda",
				"n": "2026-04-01T19:00:00.000Z",
				"o": {
					"10": {"b": 6, "d": 1, "h": [
						{"e": "1", "g": 2.05}, {"e": "X", "g": 3.40}, {"e": "2", "g": 3.50}
					]}
				}
			},
			{
				"a": 889,
				"j": "Zimski kup - Pobednik - Grupa A",
				"n": "2026-04-01T19:00:00.000Z",
				"o": {}
			},
			{
				"a": 890,
				"j": "Vojvodina - Spartak",
				"n": "uskoro",
				"o": {}
			}
		]}}`))
	}))
	defer srv.Close()

	cfg := &config.Config{
		RequestTimeoutSeconds: 5,
		MaxConcurrentRequests: 4,
		Providers: map[string]config.ProviderConfig{
			"topbet": {BaseURL: srv.URL},
		},
	}
	p := New(cfg)

	matches, err := p.Scrape(context.Background(), enums.Football)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want outrights and bad dates skipped", len(matches))
	}
	m := matches[0]
	if m.Team1 != "Partizan" || m.Team2 != "Crvena Zvezda" || m.ExternalID != "888" {
		t.Errorf("match = %q vs %q (%s)", m.Team1, m.Team2, m.ExternalID)
	}
	if want := time.Date(2026, 4, 1, 19, 0, 0, 0, time.UTC); !m.StartTime.Equal(want) {
		t.Errorf("start = %v, want %v", m.StartTime, want)
	}
	if len(m.Odds) != 1 || m.Odds[0].Key.BetTypeID != markets.BT1X2 {
		t.Errorf("odds = %+v, want one 1X2 row", m.Odds)
	}
	if requests, errors := p.TakeCounters(); requests != 1 || errors != 0 {
		t.Errorf("counters = %d/%d, want a single request", requests, errors)
	}
}
