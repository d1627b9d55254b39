package superbet

import (
	"sort"
	"strconv"
	"strings"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/line"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
)

// oddsEntry is one selection row in an event detail. Line is the special
// bet value, empty on marginless markets.
type oddsEntry struct {
	MarketName string  `json:"marketName"`
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Line       string  `json:"specialBetValue"`
}

func isWinnerMarket(name string) bool {
	return name == "Pobednik" || name == "Pobednik meča"
}

func isFirstSetMarket(name string) bool {
	return name == "1. set - pobednik" || name == "1. Set Pobednik"
}

// pair2 gathers a two-way market keyed by outcome code.
type pair2 struct{ p1, p2 float64 }

func (p *pair2) set(code string, price float64) {
	switch code {
	case "1":
		p.p1 = price
	case "2":
		p.p2 = price
	}
}

func (p *pair2) add(m *line.RawMatch, betTypeID int) {
	if p.p1 == 0 || p.p2 == 0 {
		return
	}
	m.AddPrices(markets.Key{BetTypeID: betTypeID}, p.p1, line.Ptr(p.p2), nil)
}

// triple gathers a three-way market; superbet codes the draw "0".
type triple struct{ p1, px, p2 float64 }

func (t *triple) set(code string, price float64) {
	switch code {
	case "1":
		t.p1 = price
	case "0":
		t.px = price
	case "2":
		t.p2 = price
	}
}

func (t *triple) add(m *line.RawMatch, betTypeID int) {
	if t.p1 == 0 || t.px == 0 || t.p2 == 0 {
		return
	}
	m.AddPrices(markets.Key{BetTypeID: betTypeID}, t.p1, line.Ptr(t.px), line.Ptr(t.p2))
}

type ouLegs struct{ under, over float64 }

// overUnder gathers under and over legs per line string. Leg direction
// comes from the outcome name, "Manje" under and "Više" over.
type overUnder map[string]*ouLegs

func (ou overUnder) set(lineStr, name string, price float64) {
	legs := ou[lineStr]
	if legs == nil {
		legs = &ouLegs{}
		ou[lineStr] = legs
	}
	switch {
	case strings.Contains(name, "Manje"):
		legs.under = price
	case strings.Contains(name, "Više"):
		legs.over = price
	}
}

func (ou overUnder) add(m *line.RawMatch, betTypeID int, minLine float64) {
	for _, s := range sortedKeys(ou) {
		legs := ou[s]
		if legs.under == 0 || legs.over == 0 {
			continue
		}
		margin, err := strconv.ParseFloat(s, 64)
		if err != nil || margin <= minLine {
			continue
		}
		m.AddPrices(markets.Key{BetTypeID: betTypeID, Margin: margin}, legs.under, line.Ptr(legs.over), nil)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseHandicapLine reads lines spelled "1.5", "-1.5" or "1.5-1", where a
// dash suffix picks a display variant.
func parseHandicapLine(s string) (float64, bool) {
	if i := strings.Index(s, "-"); i > 0 {
		s = s[:i]
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// appendOdds maps one event's selection rows onto canonical odds rows.
func appendOdds(m *line.RawMatch, sport enums.Sport, odds []oddsEntry) {
	switch sport {
	case enums.Football:
		appendFootball(m, odds)
	case enums.Basketball:
		appendBasketball(m, odds)
	case enums.Tennis:
		appendTennis(m, odds)
	case enums.Hockey:
		appendHockey(m, odds)
	case enums.TableTennis:
		appendTableTennis(m, odds)
	}
}

func appendFootball(m *line.RawMatch, odds []oddsEntry) {
	var (
		fullTime, firstHalf, secondHalf triple
		btts                            pair2
	)
	totals := overUnder{}
	totalsH1 := overUnder{}
	totalsH2 := overUnder{}

	for _, o := range odds {
		switch {
		case o.MarketName == "Konačan ishod":
			fullTime.set(o.Code, o.Price)
		case o.MarketName == "1. poluvreme - 1X2":
			firstHalf.set(o.Code, o.Price)
		case o.MarketName == "2. poluvreme - 1X2":
			secondHalf.set(o.Code, o.Price)
		case o.MarketName == "Oba tima daju gol (GG)":
			// Code 1 is GG, code 2 is NG.
			btts.set(o.Code, o.Price)
		case o.MarketName == "Ukupno golova" && o.Line != "":
			totals.set(o.Line, o.Name, o.Price)
		case o.MarketName == "1. poluvreme - ukupno golova" && o.Line != "":
			totalsH1.set(o.Line, o.Name, o.Price)
		case o.MarketName == "2. poluvreme - ukupno golova" && o.Line != "":
			totalsH2.set(o.Line, o.Name, o.Price)
		}
	}

	fullTime.add(m, markets.BT1X2)
	firstHalf.add(m, markets.BT1X2H1)
	secondHalf.add(m, markets.BT1X2H2)
	btts.add(m, markets.BTBTTS)
	totals.add(m, markets.BTTotal, 0)
	totalsH1.add(m, markets.BTTotalH1, 0)
	totalsH2.add(m, markets.BTTotalH2, 0)
}

func appendBasketball(m *line.RawMatch, odds []oddsEntry) {
	var winner pair2
	handicaps := map[string]*pair2{}
	totals := overUnder{}

	for _, o := range odds {
		switch {
		case isWinnerMarket(o.MarketName):
			winner.set(o.Code, o.Price)
		case strings.Contains(o.MarketName, "Hendikep") && o.Line != "":
			p := handicaps[o.Line]
			if p == nil {
				p = &pair2{}
				handicaps[o.Line] = p
			}
			p.set(o.Code, o.Price)
		case strings.Contains(o.MarketName, "Ukupno poena") && o.Line != "":
			totals.set(o.Line, o.Name, o.Price)
		}
	}

	winner.add(m, markets.BTWinner)
	for _, s := range sortedKeys(handicaps) {
		p := handicaps[s]
		if p.p1 == 0 || p.p2 == 0 {
			continue
		}
		// Superbet quotes the line from the home side already.
		margin, ok := parseHandicapLine(s)
		if !ok {
			continue
		}
		m.AddPrices(markets.Key{BetTypeID: markets.BTHandicap, Margin: margin}, p.p1, line.Ptr(p.p2), nil)
	}
	// Point lines at 130 and below belong to quarter and half markets
	// sharing the name.
	totals.add(m, markets.BTTotalPoints, 130)
}

func appendTennis(m *line.RawMatch, odds []oddsEntry) {
	var winner, firstSet pair2
	for _, o := range odds {
		switch {
		case isWinnerMarket(o.MarketName):
			winner.set(o.Code, o.Price)
		case isFirstSetMarket(o.MarketName):
			firstSet.set(o.Code, o.Price)
		}
	}
	winner.add(m, markets.BTWinner)
	firstSet.add(m, markets.BTFirstSet)
}

func appendHockey(m *line.RawMatch, odds []oddsEntry) {
	var fullTime triple
	for _, o := range odds {
		if o.MarketName == "Konačan ishod" {
			fullTime.set(o.Code, o.Price)
		}
	}
	fullTime.add(m, markets.BT1X2)
}

func appendTableTennis(m *line.RawMatch, odds []oddsEntry) {
	var winner pair2
	for _, o := range odds {
		if isWinnerMarket(o.MarketName) {
			winner.set(o.Code, o.Price)
		}
	}
	winner.add(m, markets.BTWinner)
}
