package admiral

import (
	"sort"
	"strconv"
	"strings"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/line"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
)

// Admiral bet type ids for football and basketball. The racket and ice
// sports reuse ids across unrelated markets, so those are keyed by bet type
// name instead.
const (
	betFullTime1X2     = 135
	betFullTimeTotal   = 137
	betFirstHalfTotal  = 143
	betSecondHalfTotal = 144
	betFirstHalf1X2    = 148
	betSecondHalf1X2   = 149
	betBothScore       = 151
	betBasketWinner    = 186
	betBasketHandicap  = 191
	betBasketTotal     = 213
)

type betsResponse struct {
	Bets []bet `json:"bets"`
}

type bet struct {
	BetTypeID   int       `json:"betTypeId"`
	BetTypeName string    `json:"betTypeName"`
	BetOutcomes []outcome `json:"betOutcomes"`
}

type outcome struct {
	OrderNo int       `json:"orderNo"`
	Name    string    `json:"name"`
	Odd     float64   `json:"odd"`
	SBV     flexFloat `json:"sBV"`
}

// flexFloat reads the special bet value, which arrives as a number or a
// quoted string depending on the market. Absent or unparseable values leave
// ok false, and outcomes that need a line are skipped.
type flexFloat struct {
	val float64
	ok  bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	f.val = v
	f.ok = true
	return nil
}

func sortedOutcomes(outs []outcome) []outcome {
	sorted := make([]outcome, len(outs))
	copy(sorted, outs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OrderNo < sorted[j].OrderNo })
	return sorted
}

// appendBets maps one fixture's bet groups onto canonical odds rows.
func appendBets(m *line.RawMatch, sport enums.Sport, bets []bet) {
	for _, b := range bets {
		outs := sortedOutcomes(b.BetOutcomes)
		switch sport {
		case enums.Football:
			appendFootball(m, b.BetTypeID, outs)
		case enums.Basketball:
			appendBasketball(m, b.BetTypeID, outs)
		case enums.Tennis:
			switch {
			case strings.EqualFold(b.BetTypeName, "Pobednik"):
				appendPair(m, markets.BTWinner, outs)
			case strings.EqualFold(b.BetTypeName, "1.set - Pobednik"):
				appendPair(m, markets.BTFirstSet, outs)
			}
		case enums.Hockey:
			if strings.EqualFold(b.BetTypeName, "Konacan ishod") {
				appendTriple(m, markets.BT1X2, outs)
			}
		case enums.TableTennis:
			if strings.EqualFold(b.BetTypeName, "Pobednik") {
				appendPair(m, markets.BTWinner, outs)
			}
		}
	}
}

func appendFootball(m *line.RawMatch, betTypeID int, outs []outcome) {
	switch betTypeID {
	case betFullTime1X2:
		appendTriple(m, markets.BT1X2, outs)
	case betFirstHalf1X2:
		appendTriple(m, markets.BT1X2H1, outs)
	case betSecondHalf1X2:
		appendTriple(m, markets.BT1X2H2, outs)
	case betBothScore:
		appendPair(m, markets.BTBTTS, outs)
	case betFullTimeTotal:
		appendTotals(m, markets.BTTotal, outs)
	case betFirstHalfTotal:
		appendTotals(m, markets.BTTotalH1, outs)
	case betSecondHalfTotal:
		appendTotals(m, markets.BTTotalH2, outs)
	}
}

func appendBasketball(m *line.RawMatch, betTypeID int, outs []outcome) {
	switch betTypeID {
	case betBasketWinner:
		appendPair(m, markets.BTWinner, outs)
	case betBasketTotal:
		appendTotals(m, markets.BTTotalPoints, outs)
	case betBasketHandicap:
		appendHandicaps(m, outs)
	}
}

// appendPair keeps the first two outcomes in display order.
func appendPair(m *line.RawMatch, betTypeID int, outs []outcome) {
	if len(outs) < 2 {
		return
	}
	m.AddPrices(markets.Key{BetTypeID: betTypeID}, outs[0].Odd, line.Ptr(outs[1].Odd), nil)
}

func appendTriple(m *line.RawMatch, betTypeID int, outs []outcome) {
	if len(outs) < 3 {
		return
	}
	m.AddPrices(markets.Key{BetTypeID: betTypeID}, outs[0].Odd, line.Ptr(outs[1].Odd), line.Ptr(outs[2].Odd))
}

type totalSide int

const (
	sideNone totalSide = iota
	sideUnder
	sideOver
)

// totalSideOf reads the leg direction off the outcome label. The offer
// spells these "Vise"/"Manje" with assorted casing and diacritics.
func totalSideOf(name string) totalSide {
	name = strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.HasPrefix(name, "vi") || strings.Contains(name, "over"):
		return sideOver
	case strings.HasPrefix(name, "ma") || strings.Contains(name, "under"):
		return sideUnder
	default:
		return sideNone
	}
}

// appendTotals pairs under and over legs that share a special bet value.
func appendTotals(m *line.RawMatch, betTypeID int, outs []outcome) {
	type pair struct{ under, over float64 }
	byLine := make(map[float64]*pair)
	for _, o := range outs {
		if !o.SBV.ok {
			continue
		}
		side := totalSideOf(o.Name)
		if side == sideNone {
			continue
		}
		p := byLine[o.SBV.val]
		if p == nil {
			p = &pair{}
			byLine[o.SBV.val] = p
		}
		if side == sideOver {
			p.over = o.Odd
		} else {
			p.under = o.Odd
		}
	}
	for _, margin := range sortedLines(byLine) {
		p := byLine[margin]
		if p.under == 0 || p.over == 0 {
			continue
		}
		m.AddPrices(markets.Key{BetTypeID: betTypeID, Margin: margin}, p.under, line.Ptr(p.over), nil)
	}
}

// appendHandicaps pairs the home and away legs per line. Admiral quotes the
// line from the home side, so the value carries over without a sign flip.
func appendHandicaps(m *line.RawMatch, outs []outcome) {
	type pair struct{ home, away float64 }
	byLine := make(map[float64]*pair)
	for _, o := range outs {
		if !o.SBV.ok {
			continue
		}
		name := strings.TrimSpace(o.Name)
		if name != "1" && name != "2" {
			continue
		}
		p := byLine[o.SBV.val]
		if p == nil {
			p = &pair{}
			byLine[o.SBV.val] = p
		}
		if name == "1" {
			p.home = o.Odd
		} else {
			p.away = o.Odd
		}
	}
	for _, margin := range sortedLines(byLine) {
		p := byLine[margin]
		if p.home == 0 || p.away == 0 {
			continue
		}
		m.AddPrices(markets.Key{BetTypeID: markets.BTHandicap, Margin: margin}, p.home, line.Ptr(p.away), nil)
	}
}

func sortedLines[V any](byLine map[float64]V) []float64 {
	margins := make([]float64, 0, len(byLine))
	for margin := range byLine {
		margins = append(margins, margin)
	}
	sort.Float64s(margins)
	return margins
}
