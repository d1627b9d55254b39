package flatoffer

import (
	"math"
	"strconv"
	"strings"

	"github.com/nstojkov/betsnipe/internal/pkg/line"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
)

// The platform publishes every market of a match as a flat code to price
// dict plus a params dict holding the movable lines. The tables below are
// pure data: each site declares which codes it publishes and the canonical
// key each group folds into, and AppendOdds walks them.

// ThreeWay is a three outcome market read from three fixed codes.
type ThreeWay struct {
	BetType    int
	C1, CX, C2 string
}

// TwoWay is a two outcome market read from two fixed codes.
type TwoWay struct {
	BetType int
	C1, C2  string
}

// FixedTotal is an over/under pair whose line is baked into the codes.
type FixedTotal struct {
	BetType     int
	Line        float64
	Under, Over string
}

// ParamTotal is an over/under pair whose line lives in the match params.
type ParamTotal struct {
	BetType     int
	Param       string
	Under, Over string
}

// ParamHandicap is a two way handicap whose line lives in the match params.
// The platform reports lines in the negated convention, so the margin goes
// through InvertHandicap.
type ParamHandicap struct {
	BetType int
	Param   string
	C1, C2  string
}

// ParamEuroHandicap is a three way handicap (win, draw, lose on the adjusted
// score) whose line lives in the match params, same negated convention.
type ParamEuroHandicap struct {
	Param      string
	C1, CX, C2 string
}

// SelectionGroup maps single-price codes onto canonical selections of one
// arity-1 bet type.
type SelectionGroup struct {
	BetType int
	Codes   map[string]string
}

// Tables is everything one site publishes for one sport.
type Tables struct {
	ThreeWay       []ThreeWay
	TwoWay         []TwoWay
	FixedTotals    []FixedTotal
	ParamTotals    []ParamTotal
	ParamHandicaps []ParamHandicap
	EuroHandicaps  []ParamEuroHandicap
	Selections     []SelectionGroup
}

// AppendOdds walks the tables over one match detail and appends every market
// whose codes are all present and priced. It returns how many rows were kept
// and how many failed canonical validation.
func AppendOdds(m *line.RawMatch, d *MatchDetail, t Tables) (kept, dropped int) {
	add := func(ok bool) {
		if ok {
			kept++
		} else {
			dropped++
		}
	}

	for _, g := range t.ThreeWay {
		o1, oX, o2 := d.Price(g.C1), d.Price(g.CX), d.Price(g.C2)
		if o1 == 0 || oX == 0 || o2 == 0 {
			continue
		}
		add(m.AddPrices(markets.Key{BetTypeID: g.BetType}, o1, line.Ptr(oX), line.Ptr(o2)))
	}

	for _, g := range t.TwoWay {
		o1, o2 := d.Price(g.C1), d.Price(g.C2)
		if o1 == 0 || o2 == 0 {
			continue
		}
		add(m.AddPrices(markets.Key{BetTypeID: g.BetType}, o1, line.Ptr(o2), nil))
	}

	for _, g := range t.FixedTotals {
		under, over := d.Price(g.Under), d.Price(g.Over)
		if under == 0 || over == 0 {
			continue
		}
		add(m.AddPrices(markets.Key{BetTypeID: g.BetType, Margin: g.Line}, under, line.Ptr(over), nil))
	}

	for _, g := range t.ParamTotals {
		under, over := d.Price(g.Under), d.Price(g.Over)
		if under == 0 || over == 0 {
			continue
		}
		lineVal, ok := d.Param(g.Param)
		if !ok {
			continue
		}
		add(m.AddPrices(markets.Key{BetTypeID: g.BetType, Margin: lineVal}, under, line.Ptr(over), nil))
	}

	for _, g := range t.ParamHandicaps {
		o1, o2 := d.Price(g.C1), d.Price(g.C2)
		if o1 == 0 || o2 == 0 {
			continue
		}
		lineVal, ok := d.Param(g.Param)
		if !ok {
			continue
		}
		key := markets.Key{BetTypeID: g.BetType, Margin: markets.InvertHandicap(lineVal)}
		add(m.AddPrices(key, o1, line.Ptr(o2), nil))
	}

	for _, g := range t.EuroHandicaps {
		o1, oX, o2 := d.Price(g.C1), d.Price(g.CX), d.Price(g.C2)
		if o1 == 0 || oX == 0 || o2 == 0 {
			continue
		}
		lineVal, ok := d.Param(g.Param)
		if !ok {
			continue
		}
		key := markets.Key{BetTypeID: markets.BTEuroHandicap, Margin: markets.InvertHandicap(lineVal)}
		add(m.AddPrices(key, o1, line.Ptr(oX), line.Ptr(o2)))
	}

	for _, g := range t.Selections {
		for code, sel := range g.Codes {
			o := d.Price(code)
			if o == 0 {
				continue
			}
			bt, s := markets.RerouteExactGoals(g.BetType, sel)
			add(m.AddPrices(markets.Key{BetTypeID: bt, Selection: s}, o, nil, nil))
		}
	}
	return kept, dropped
}

// Encoder builds the audit encoder for a site: vendor is an odds code, params
// is the match param block, and every code of a group maps onto the group's
// canonical key.
func (t Tables) Encoder() markets.EncodeFunc {
	type entry struct {
		key   markets.Key
		param string // line param, empty when the margin is fixed
		neg   bool   // negated vendor handicap convention
	}
	index := map[string]entry{}
	put := func(key markets.Key, param string, neg bool, codes ...string) {
		for _, c := range codes {
			index[c] = entry{key: key, param: param, neg: neg}
		}
	}

	for _, g := range t.ThreeWay {
		put(markets.Key{BetTypeID: g.BetType}, "", false, g.C1, g.CX, g.C2)
	}
	for _, g := range t.TwoWay {
		put(markets.Key{BetTypeID: g.BetType}, "", false, g.C1, g.C2)
	}
	for _, g := range t.FixedTotals {
		put(markets.Key{BetTypeID: g.BetType, Margin: g.Line}, "", false, g.Under, g.Over)
	}
	for _, g := range t.ParamTotals {
		put(markets.Key{BetTypeID: g.BetType}, g.Param, false, g.Under, g.Over)
	}
	for _, g := range t.ParamHandicaps {
		put(markets.Key{BetTypeID: g.BetType}, g.Param, true, g.C1, g.C2)
	}
	for _, g := range t.EuroHandicaps {
		put(markets.Key{BetTypeID: markets.BTEuroHandicap}, g.Param, true, g.C1, g.CX, g.C2)
	}
	for _, g := range t.Selections {
		for code, sel := range g.Codes {
			bt, s := markets.RerouteExactGoals(g.BetType, sel)
			put(markets.Key{BetTypeID: bt, Selection: s}, "", false, code)
		}
	}

	return func(vendor string, params map[string]string) (markets.Key, bool) {
		e, ok := index[vendor]
		if !ok {
			return markets.Key{}, false
		}
		key := e.key
		if e.param != "" {
			raw, ok := params[e.param]
			if !ok {
				return markets.Key{}, false
			}
			lineVal, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(lineVal) || math.IsInf(lineVal, 0) {
				return markets.Key{}, false
			}
			if e.neg {
				lineVal = markets.InvertHandicap(lineVal)
			}
			key.Margin = markets.RoundMargin(lineVal)
		}
		return key, true
	}
}

// SiteEncoder builds the audit encoder for a whole site. The same odds code
// means different wagers per sport (football "1" is the 1X2 home leg, tennis
// "1" the match winner), so vendor strings are qualified: "S:272", "T:1".
func SiteEncoder(site Site) markets.EncodeFunc {
	perSport := make(map[string]markets.EncodeFunc, len(site.Tables))
	for sp, t := range site.Tables {
		perSport[sportCodes[sp]] = t.Encoder()
	}
	return func(vendor string, params map[string]string) (markets.Key, bool) {
		sportCode, code, ok := strings.Cut(vendor, ":")
		if !ok {
			return markets.Key{}, false
		}
		fn, ok := perSport[sportCode]
		if !ok {
			return markets.Key{}, false
		}
		return fn(code, params)
	}
}
