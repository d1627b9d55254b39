package mozzart

import (
	"sort"
	"strconv"
	"strings"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/line"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
)

type oddsGroup struct {
	GroupName string `json:"groupName"`
	Odds      []odd  `json:"odds"`
}

type gameInfo struct {
	Name      string `json:"name"`
	ValueType string `json:"specialOddValueType"`
}

type subgameInfo struct {
	Name string `json:"name"`
}

type odd struct {
	Value        price       `json:"value"`
	SpecialValue string      `json:"specialOddValue"`
	Game         gameInfo    `json:"game"`
	Subgame      subgameInfo `json:"subgame"`
}

// price reads odds values that arrive as numbers or quoted strings.
type price float64

func (p *price) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*p = 0
		return nil
	}
	*p = price(v)
	return nil
}

func appendOdds(m *line.RawMatch, sport enums.Sport, groups []oddsGroup) {
	switch sport {
	case enums.Football:
		appendFootball(m, groups)
	case enums.Basketball:
		appendBasketball(m, groups)
	case enums.Tennis:
		appendTennis(m, groups)
	case enums.Hockey:
		appendHockey(m, groups)
	case enums.TableTennis:
		appendTableTennis(m, groups)
	}
}

type pair struct{ p1, p2 float64 }

func (p *pair) setSides(sub string, val float64) {
	switch sub {
	case "1":
		p.p1 = val
	case "2":
		p.p2 = val
	}
}

func (p *pair) setYesNo(sub string, val float64) {
	switch sub {
	case "da":
		p.p1 = val
	case "ne":
		p.p2 = val
	}
}

func (p *pair) add(m *line.RawMatch, betTypeID int) {
	if p.p1 > 0 && p.p2 > 0 {
		m.AddPrices(markets.Key{BetTypeID: betTypeID}, p.p1, line.Ptr(p.p2), nil)
	}
}

type triple struct{ p1, px, p2 float64 }

func (t *triple) set(sub string, val float64) {
	switch sub {
	case "1":
		t.p1 = val
	case "X":
		t.px = val
	case "2":
		t.p2 = val
	}
}

func (t *triple) add(m *line.RawMatch, betTypeID int) {
	if t.p1 > 0 && t.px > 0 && t.p2 > 0 {
		m.AddPrices(markets.Key{BetTypeID: betTypeID}, t.p1, line.Ptr(t.px), line.Ptr(t.p2))
	}
}

type ouLegs struct{ under, over float64 }

func setLine(bucket map[float64]*ouLegs, lineVal float64, sub string, val float64) {
	legs := bucket[lineVal]
	if legs == nil {
		legs = &ouLegs{}
		bucket[lineVal] = legs
	}
	switch sub {
	case "manje":
		legs.under = val
	case "više":
		legs.over = val
	}
}

func addLines(m *line.RawMatch, betTypeID int, bucket map[float64]*ouLegs, minLine float64) {
	lines := make([]float64, 0, len(bucket))
	for l := range bucket {
		lines = append(lines, l)
	}
	sort.Float64s(lines)
	for _, l := range lines {
		legs := bucket[l]
		if legs.under == 0 || legs.over == 0 || l <= minLine {
			continue
		}
		m.AddPrices(markets.Key{BetTypeID: betTypeID, Margin: l}, legs.under, line.Ptr(legs.over), nil)
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

func appendFootball(m *line.RawMatch, groups []oddsGroup) {
	var fullTime, firstHalf, secondHalf triple
	var btts pair
	totals := map[float64]*ouLegs{}

	for _, g := range groups {
		groupName := strings.ToLower(g.GroupName)
		for _, o := range g.Odds {
			val := float64(o.Value)
			sub := o.Subgame.Name
			switch {
			case o.Game.Name == "Konačan ishod" && !strings.Contains(groupName, "poluvreme"):
				fullTime.set(sub, val)
			case strings.Contains(groupName, "1. poluvreme") || o.Game.Name == "Prvo poluvreme":
				firstHalf.set(sub, val)
			case strings.Contains(groupName, "2. poluvreme") || o.Game.Name == "Drugo poluvreme":
				secondHalf.set(sub, val)
			case o.Game.Name == "Oba tima daju gol":
				btts.setYesNo(sub, val)
			case o.Game.ValueType == "MARGIN" && o.SpecialValue != "":
				// Half groups were consumed above, so only full-time
				// goal lines reach this branch.
				total, err := strconv.ParseFloat(o.SpecialValue, 64)
				if err != nil {
					continue
				}
				setLine(totals, total, sub, val)
			}
		}
	}

	fullTime.add(m, markets.BT1X2)
	firstHalf.add(m, markets.BT1X2H1)
	secondHalf.add(m, markets.BT1X2H2)
	btts.add(m, markets.BTBTTS)
	addLines(m, markets.BTTotal, totals, 0)
}

func appendBasketball(m *line.RawMatch, groups []oddsGroup) {
	var winner pair
	handicaps := map[string]*pair{}
	totals := map[float64]*ouLegs{}

	for _, g := range groups {
		// Half and quarter books share game names with the full match,
		// so those groups are skipped outright.
		if strings.Contains(strings.ToLower(g.GroupName), "poluvreme") {
			continue
		}
		for _, o := range g.Odds {
			val := float64(o.Value)
			sub := o.Subgame.Name
			switch {
			case o.Game.Name == "Pobednik meča":
				winner.setSides(sub, val)
			case o.Game.ValueType == "HANDICAP" && o.SpecialValue != "":
				p := handicaps[o.SpecialValue]
				if p == nil {
					p = &pair{}
					handicaps[o.SpecialValue] = p
				}
				p.setSides(sub, val)
			case o.Game.ValueType == "MARGIN" && o.SpecialValue != "":
				points, err := strconv.ParseFloat(o.SpecialValue, 64)
				if err != nil || points <= 130 {
					continue
				}
				setLine(totals, points, sub, val)
			}
		}
	}

	winner.add(m, markets.BTWinner)
	for _, s := range sortedKeys(handicaps) {
		p := handicaps[s]
		if p.p1 == 0 || p.p2 == 0 {
			continue
		}
		// Mozzart quotes the line from the home side, no sign flip needed.
		margin, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		m.AddPrices(markets.Key{BetTypeID: markets.BTHandicap, Margin: margin}, p.p1, line.Ptr(p.p2), nil)
	}
	addLines(m, markets.BTTotalPoints, totals, 130)
}

func appendTennis(m *line.RawMatch, groups []oddsGroup) {
	var winner, firstSet pair
	for _, g := range groups {
		for _, o := range g.Odds {
			val := float64(o.Value)
			sub := o.Subgame.Name
			switch {
			case (o.Game.Name == "Pobednik meča" || o.Game.Name == "Konačan ishod") && g.GroupName == "Konačan ishod":
				winner.setSides(sub, val)
			case o.Game.Name == "Prvi set" && g.GroupName == "Prvi set":
				firstSet.setSides(sub, val)
			}
		}
	}
	winner.add(m, markets.BTWinner)
	firstSet.add(m, markets.BTFirstSet)
}

func appendHockey(m *line.RawMatch, groups []oddsGroup) {
	var fullTime triple
	for _, g := range groups {
		for _, o := range g.Odds {
			if o.Game.Name == "Konačan ishod" {
				fullTime.set(o.Subgame.Name, float64(o.Value))
			}
		}
	}
	fullTime.add(m, markets.BT1X2)
}

func appendTableTennis(m *line.RawMatch, groups []oddsGroup) {
	var winner pair
	for _, g := range groups {
		for _, o := range g.Odds {
			if o.Game.Name == "Pobednik meča" {
				winner.setSides(o.Subgame.Name, float64(o.Value))
			}
		}
	}
	winner.add(m, markets.BTWinner)
}
