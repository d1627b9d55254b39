package topbet

import (
	"sort"
	"strconv"
	"strings"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/line"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
)

// Football book groups consumed from the overview offer, keyed by the NSoft
// group id carried in the b prop.
const (
	groupResult       = 6
	groupHTFT         = 13
	groupFirstGoal    = 18
	groupLastGoal     = 19
	groupCorrectScore = 21
	groupGoalCombos   = 29
	groupGoals        = 33
	groupEuroHandicap = 44
)

// sortedMarketIDs orders the offer's market map numerically, so the primary
// book of a kind wins the first-match rules below.
func sortedMarketIDs(offer map[string]market) []string {
	ids := make([]string, 0, len(offer))
	for id := range offer {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aerr := strconv.Atoi(ids[i])
		b, berr := strconv.Atoi(ids[j])
		if aerr == nil && berr == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
	return ids
}

// outcomeOdd finds the priced outcome carrying one of the given labels.
func outcomeOdd(outs []outcomeEntry, labels ...string) (float64, bool) {
	for _, o := range outs {
		for _, l := range labels {
			if o.Label == l && o.Odd > 0 {
				return o.Odd, true
			}
		}
	}
	return 0, false
}

func appendMarkets(m *line.RawMatch, sport enums.Sport, offer map[string]market) {
	switch sport {
	case enums.Football:
		appendFootball(m, offer)
	case enums.Basketball, enums.Tennis, enums.TableTennis:
		appendWinner(m, offer)
	case enums.Hockey:
		appendThreeWay(m, offer)
	}
}

// Period totals share the Više/Manje label shape; only the standard
// full-time goal lines are kept.
var fullTimeGoalLines = map[float64]bool{1.5: true, 2.5: true, 3.5: true, 4.5: true}

func appendFootball(m *line.RawMatch, offer map[string]market) {
	var haveFullTime, haveBTTS bool
	seenLines := make(map[float64]bool)
	for _, id := range sortedMarketIDs(offer) {
		mk := offer[id]
		if !haveFullTime && mk.Group == groupResult && mk.Display == 1 && len(mk.Outcomes) == 3 {
			p1, ok1 := outcomeOdd(mk.Outcomes, "1")
			px, okX := outcomeOdd(mk.Outcomes, "X")
			p2, ok2 := outcomeOdd(mk.Outcomes, "2")
			if ok1 && okX && ok2 {
				haveFullTime = m.AddPrices(markets.Key{BetTypeID: markets.BT1X2}, p1, line.Ptr(px), line.Ptr(p2))
			}
		}
		if !haveBTTS {
			gg, okG := outcomeOdd(mk.Outcomes, "GG")
			ng, okN := outcomeOdd(mk.Outcomes, "NG")
			if okG && okN {
				haveBTTS = m.AddPrices(markets.Key{BetTypeID: markets.BTBTTS}, gg, line.Ptr(ng), nil)
			}
		}
		if margin, ok := mk.line(); ok && fullTimeGoalLines[margin] && !seenLines[margin] {
			over, okO := outcomeOdd(mk.Outcomes, "Više", "+")
			under, okU := outcomeOdd(mk.Outcomes, "Manje", "-")
			if okO && okU {
				key := markets.Key{BetTypeID: markets.BTTotal, Margin: margin}
				if m.AddPrices(key, under, line.Ptr(over), nil) {
					seenLines[margin] = true
				}
			}
		}
		switch mk.Group {
		case groupEuroHandicap:
			appendEuroHandicap(m, mk)
		case groupHTFT:
			appendHTFT(m, mk)
		case groupFirstGoal:
			appendGoalSide(m, mk, markets.BTFirstGoal)
		case groupLastGoal:
			appendGoalSide(m, mk, markets.BTLastGoal)
		case groupCorrectScore:
			appendCorrectScore(m, mk)
		case groupGoals:
			appendGoals(m, mk)
		case groupGoalCombos:
			appendGoalCombos(m, mk)
		}
	}
}

// appendEuroHandicap reads one adjusted score book. The line arrives either
// as a number in the negated vendor convention or as the goals pair
// "home:away".
func appendEuroHandicap(m *line.RawMatch, mk market) {
	p1, ok1 := outcomeOdd(mk.Outcomes, "1")
	px, okX := outcomeOdd(mk.Outcomes, "X")
	p2, ok2 := outcomeOdd(mk.Outcomes, "2")
	if !ok1 || !okX || !ok2 {
		return
	}
	margin, ok := mk.line()
	if ok {
		margin = markets.InvertHandicap(margin)
	} else {
		v, err := markets.EuroHandicapMargin(string(mk.Line))
		if err != nil {
			m.Dropped++
			return
		}
		margin = v
	}
	key := markets.Key{BetTypeID: markets.BTEuroHandicap, Margin: margin}
	m.AddPrices(key, p1, line.Ptr(px), line.Ptr(p2))
}

// appendHTFT reads the halftime/fulltime book. Plain pairs file under the
// partitioned ht_ft type; "NE" negations, "v" alternatives and double chance
// sides are combination wagers and take the double chance variant.
func appendHTFT(m *line.RawMatch, mk market) {
	for _, o := range mk.Outcomes {
		if o.Odd <= 0 {
			continue
		}
		sel := markets.ExpandHTFTDouble(markets.FoldLocalTokens(o.Label))
		bt := markets.BTHTFT
		if strings.ContainsAny(sel, "|!") {
			bt = markets.BTHTFTDC
		}
		m.AddPrices(markets.Key{BetTypeID: bt, Selection: sel}, o.Odd, nil, nil)
	}
}

// appendGoalSide reads a first or last goal book. Labels name the sides in
// several localized forms and "Niko" prices the goalless match.
func appendGoalSide(m *line.RawMatch, mk market, betTypeID int) {
	var pH, pX, pA float64
	for _, o := range mk.Outcomes {
		if o.Odd <= 0 {
			continue
		}
		side, ok := markets.FirstGoalSide(o.Label)
		if !ok {
			continue
		}
		switch side {
		case "H":
			pH = o.Odd
		case "X":
			pX = o.Odd
		case "A":
			pA = o.Odd
		}
	}
	if pH == 0 || pX == 0 || pA == 0 {
		return
	}
	m.AddPrices(markets.Key{BetTypeID: betTypeID}, pH, line.Ptr(pX), line.Ptr(pA))
}

// appendCorrectScore reads the exact score book. Labels usually arrive in
// the two digit shorthand, "21" for 2:1; the catch-all rest outcome has no
// canonical form and lands in the dropped count.
func appendCorrectScore(m *line.RawMatch, mk market) {
	for _, o := range mk.Outcomes {
		if o.Odd <= 0 {
			continue
		}
		sel := markets.ExpandScoreShortcut(o.Label)
		m.AddPrices(markets.Key{BetTypeID: markets.BTCorrectScore, Selection: sel}, o.Odd, nil, nil)
	}
}

// goalBookTypes maps a label's half and team scope onto the goal count type
// the store files it under.
var goalBookTypes = map[markets.LocalScope]int{
	{}:                 markets.BTGoalsRange,
	{Half: 1}:          markets.BTGoalsRangeH1,
	{Half: 2}:          markets.BTGoalsRangeH2,
	{Team: 1}:          markets.BTTeam1Goals,
	{Team: 2}:          markets.BTTeam2Goals,
	{Half: 1, Team: 1}: markets.BTTeam1GoalsH1,
	{Half: 1, Team: 2}: markets.BTTeam2GoalsH1,
	{Half: 2, Team: 1}: markets.BTTeam1GoalsH2,
	{Half: 2, Team: 2}: markets.BTTeam2GoalsH2,
}

// appendGoals reads a goal count book. Labels carry the localized half and
// team scopes in front of the count, so "DI 1+" is one or more first half
// home goals and "3 gol." is an exact match count.
func appendGoals(m *line.RawMatch, mk market) {
	for _, o := range mk.Outcomes {
		if o.Odd <= 0 {
			continue
		}
		scope, body := markets.SplitLocalScope(o.Label)
		bt, sel := markets.RerouteExactGoals(goalBookTypes[scope], markets.FoldLocalTokens(body))
		if !markets.IsCountToken(sel) {
			m.Dropped++
			continue
		}
		m.AddPrices(markets.Key{BetTypeID: bt, Selection: sel}, o.Odd, nil, nil)
	}
}

// appendGoalCombos reads the combined count book: "I 1+ & 2+" strings a
// first half count and a match count into one wager. Unscoped counts mean
// full time once any half scope is present.
func appendGoalCombos(m *line.RawMatch, mk market) {
	for _, o := range mk.Outcomes {
		if o.Odd <= 0 {
			continue
		}
		parts := strings.Split(o.Label, "&")
		ok := len(parts) > 1
		for i, p := range parts {
			scope, body := markets.SplitLocalScope(strings.TrimSpace(p))
			folded := markets.FoldLocalTokens(body)
			if scope.Team != 0 || !markets.IsCountToken(folded) {
				ok = false
				break
			}
			parts[i] = markets.ApplyScope(scope, folded)
		}
		if !ok {
			m.Dropped++
			continue
		}
		sel := markets.ScopeFullTime(markets.And(parts...))
		m.AddPrices(markets.Key{BetTypeID: markets.BTGoalsH1H2Combo, Selection: sel}, o.Odd, nil, nil)
	}
}

// appendWinner takes the first two-way market priced on the 1 and 2 labels.
func appendWinner(m *line.RawMatch, offer map[string]market) {
	for _, id := range sortedMarketIDs(offer) {
		mk := offer[id]
		if len(mk.Outcomes) != 2 {
			continue
		}
		p1, ok1 := outcomeOdd(mk.Outcomes, "1")
		p2, ok2 := outcomeOdd(mk.Outcomes, "2")
		if ok1 && ok2 {
			m.AddPrices(markets.Key{BetTypeID: markets.BTWinner}, p1, line.Ptr(p2), nil)
			return
		}
	}
}

// appendThreeWay takes the first three-way market priced on 1, X and 2.
func appendThreeWay(m *line.RawMatch, offer map[string]market) {
	for _, id := range sortedMarketIDs(offer) {
		mk := offer[id]
		if len(mk.Outcomes) != 3 {
			continue
		}
		p1, ok1 := outcomeOdd(mk.Outcomes, "1")
		px, okX := outcomeOdd(mk.Outcomes, "X")
		p2, ok2 := outcomeOdd(mk.Outcomes, "2")
		if ok1 && okX && ok2 {
			m.AddPrices(markets.Key{BetTypeID: markets.BT1X2}, p1, line.Ptr(px), line.Ptr(p2))
			return
		}
	}
}
