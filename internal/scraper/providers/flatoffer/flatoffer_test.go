package flatoffer

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/line"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
)

func TestPriceUnmarshal(t *testing.T) {
	tests := []struct {
		raw      string
		expected float64
		nan      bool
	}{
		{`2.05`, 2.05, false},
		{`"2.05"`, 2.05, false},
		{`3`, 3, false},
		{`"N/A"`, 0, true},
		{`"1,95"`, 0, true},
		{`""`, 0, true},
	}
	for _, tt := range tests {
		var p Price
		if err := json.Unmarshal([]byte(tt.raw), &p); err != nil {
			t.Errorf("unmarshal %s: %v", tt.raw, err)
			continue
		}
		if tt.nan {
			if !math.IsNaN(float64(p)) {
				t.Errorf("unmarshal %s = %v, want NaN", tt.raw, float64(p))
			}
			continue
		}
		if float64(p) != tt.expected {
			t.Errorf("unmarshal %s = %v, want %v", tt.raw, float64(p), tt.expected)
		}
	}
}

var testTables = Tables{
	ThreeWay: []ThreeWay{
		{BetType: markets.BT1X2, C1: "1", CX: "2", C2: "3"},
	},
	TwoWay: []TwoWay{
		{BetType: markets.BTBTTS, C1: "272", C2: "273"},
	},
	FixedTotals: []FixedTotal{
		{BetType: markets.BTTotal, Line: 2.5, Under: "22", Over: "24"},
	},
	ParamTotals: []ParamTotal{
		{BetType: markets.BTTotalH1, Param: "overUnderFirstHalf", Under: "211", Over: "208"},
	},
	ParamHandicaps: []ParamHandicap{
		{BetType: markets.BTHandicap, Param: "hd2", C1: "201", C2: "203"},
	},
	EuroHandicaps: []ParamEuroHandicap{
		{Param: "handicap2", C1: "421", CX: "422", C2: "423"},
	},
	Selections: []SelectionGroup{
		{BetType: markets.BTGoalsRange, Codes: map[string]string{
			"23":  "2-3",
			"320": "1", // bare digit, re-routes to exact goals T1
		}},
	},
}

func detailFromJSON(t *testing.T, raw string) *MatchDetail {
	t.Helper()
	var d MatchDetail
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("detail unmarshal: %v", err)
	}
	return &d
}

func findKey(t *testing.T, m *line.RawMatch, key markets.Key) line.RawOdds {
	t.Helper()
	for _, o := range m.Odds {
		if o.Key == key {
			return o
		}
	}
	t.Fatalf("key %+v not found in %d rows", key, len(m.Odds))
	return line.RawOdds{}
}

func TestAppendOddsWalksTables(t *testing.T) {
	d := detailFromJSON(t, `{
		"id": 42,
		"odds": {
			"1": 2.1, "2": 3.4, "3": 3.5,
			"272": 1.75, "273": "N/A",
			"22": 1.9, "24": 1.85,
			"211": 2.2, "208": 1.62,
			"201": 1.95, "203": 1.87,
			"421": 3.2, "422": 3.8, "423": 2.2,
			"23": 2.4, "320": 7.5
		},
		"params": {"hd2": "-1.5", "overUnderFirstHalf": 1.5}
	}`)

	m := &line.RawMatch{ProviderID: 3, Sport: enums.Football}
	kept, dropped := AppendOdds(m, d, testTables)
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	// btts is skipped (one leg pulled), euro handicap is skipped (no
	// handicap2 param), everything else lands.
	if kept != 6 {
		t.Errorf("kept = %d rows, want 6", kept)
	}

	o := findKey(t, m, markets.Key{BetTypeID: markets.BT1X2})
	if o.P1 != 2.1 || *o.P2 != 3.4 || *o.P3 != 3.5 {
		t.Errorf("1x2 prices = %v %v %v", o.P1, *o.P2, *o.P3)
	}

	o = findKey(t, m, markets.Key{BetTypeID: markets.BTTotal, Margin: 2.5})
	if o.P1 != 1.9 || *o.P2 != 1.85 {
		t.Errorf("total prices = %v %v, want under first", o.P1, *o.P2)
	}

	findKey(t, m, markets.Key{BetTypeID: markets.BTTotalH1, Margin: 1.5})

	// Vendor -1.5 is the negated convention, canonical margin is +1.5.
	o = findKey(t, m, markets.Key{BetTypeID: markets.BTHandicap, Margin: 1.5})
	if o.P1 != 1.95 || *o.P2 != 1.87 {
		t.Errorf("handicap prices = %v %v", o.P1, *o.P2)
	}

	findKey(t, m, markets.Key{BetTypeID: markets.BTGoalsRange, Selection: "2-3"})
	findKey(t, m, markets.Key{BetTypeID: markets.BTExactGoals, Selection: "T1"})

	for _, o := range m.Odds {
		if o.Key.BetTypeID == markets.BTBTTS {
			t.Errorf("btts row kept despite pulled leg")
		}
		if o.Key.BetTypeID == markets.BTEuroHandicap {
			t.Errorf("euro handicap row kept despite missing param")
		}
	}
}

func TestSiteEncoder(t *testing.T) {
	site := Site{
		Tables: map[enums.Sport]Tables{
			enums.Football: testTables,
			enums.Tennis: {
				TwoWay: []TwoWay{{BetType: markets.BTWinner, C1: "1", C2: "3"}},
			},
		},
	}
	enc := SiteEncoder(site)

	tests := []struct {
		vendor string
		params map[string]string
		key    markets.Key
		ok     bool
	}{
		{"S:1", nil, markets.Key{BetTypeID: markets.BT1X2}, true},
		{"S:3", nil, markets.Key{BetTypeID: markets.BT1X2}, true},
		{"T:1", nil, markets.Key{BetTypeID: markets.BTWinner}, true},
		{"S:22", nil, markets.Key{BetTypeID: markets.BTTotal, Margin: 2.5}, true},
		{"S:201", map[string]string{"hd2": "-2"}, markets.Key{BetTypeID: markets.BTHandicap, Margin: 2}, true},
		{"S:201", nil, markets.Key{}, false},  // line param missing
		{"S:320", nil, markets.Key{BetTypeID: markets.BTExactGoals, Selection: "T1"}, true},
		{"S:999", nil, markets.Key{}, false},  // unknown code
		{"1", nil, markets.Key{}, false},      // no sport prefix
		{"B:1", nil, markets.Key{}, false},    // sport without tables
	}
	for _, tt := range tests {
		key, ok := enc(tt.vendor, tt.params)
		if ok != tt.ok || key != tt.key {
			t.Errorf("encode(%q, %v) = %+v, %v, want %+v, %v",
				tt.vendor, tt.params, key, ok, tt.key, tt.ok)
		}
	}
}
