// Package merkur adapts the Merkur xTip prematch offer. Merkur runs the same
// flat offer platform as maxbet with its own endpoint layout and a narrower
// published market set: main line markets only.
package merkur

import (
	"net/url"

	"github.com/nstojkov/betsnipe/internal/pkg/config"
	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
	"github.com/nstojkov/betsnipe/internal/scraper/providers"
	"github.com/nstojkov/betsnipe/internal/scraper/providers/flatoffer"
)

const providerID = 7

func init() {
	providers.Register("merkur", New)
	markets.RegisterEncoder(providerID, flatoffer.SiteEncoder(site))
}

// New builds the merkur adapter.
func New(cfg *config.Config) providers.Provider {
	return flatoffer.New(site, cfg)
}

var football = flatoffer.Tables{
	ThreeWay: []flatoffer.ThreeWay{
		{BetType: markets.BT1X2, C1: "1", CX: "2", C2: "3"},
		{BetType: markets.BT1X2H1, C1: "4", CX: "5", C2: "6"},
		{BetType: markets.BT1X2H2, C1: "235", CX: "236", C2: "237"},
	},
	TwoWay: []flatoffer.TwoWay{
		{BetType: markets.BTBTTS, C1: "272", C2: "273"},
	},
	FixedTotals: []flatoffer.FixedTotal{
		{BetType: markets.BTTotal, Line: 1.5, Under: "21", Over: "242"},
		{BetType: markets.BTTotal, Line: 2.5, Under: "22", Over: "24"},
		{BetType: markets.BTTotal, Line: 3.5, Under: "219", Over: "25"},
		{BetType: markets.BTTotal, Line: 4.5, Under: "453", Over: "27"},
		{BetType: markets.BTTotalH1, Line: 0.5, Under: "267", Over: "207"},
		{BetType: markets.BTTotalH1, Line: 1.5, Under: "211", Over: "208"},
		{BetType: markets.BTTotalH1, Line: 2.5, Under: "472", Over: "209"},
		{BetType: markets.BTTotalH2, Line: 0.5, Under: "269", Over: "213"},
		{BetType: markets.BTTotalH2, Line: 1.5, Under: "217", Over: "214"},
		{BetType: markets.BTTotalH2, Line: 2.5, Under: "474", Over: "215"},
	},
}

// twoWayWinner covers basketball, tennis and table tennis: merkur publishes
// the match winner on the plain 1/3 codes for all three.
var twoWayWinner = flatoffer.Tables{
	TwoWay: []flatoffer.TwoWay{
		{BetType: markets.BTWinner, C1: "1", C2: "3"},
	},
}

var hockey = flatoffer.Tables{
	ThreeWay: []flatoffer.ThreeWay{
		{BetType: markets.BT1X2, C1: "1", CX: "2", C2: "3"},
	},
}

var site = flatoffer.Site{
	Name:        "merkur",
	ProviderID:  providerID,
	BaseURL:     "https://www.merkurxtip.rs/restapi/offer/sr",
	Params:      url.Values{"annex": {"0"}, "desktopVersion": {"1.3.2.6"}, "locale": {"sr"}},
	LeaguesPath: "/categories/ext/sport/%s/g",
	MatchesPath: "/sport/%s/league-group/%d/mob",
	Tables: map[enums.Sport]flatoffer.Tables{
		enums.Football:    football,
		enums.Basketball:  twoWayWinner,
		enums.Tennis:      twoWayWinner,
		enums.Hockey:      hockey,
		enums.TableTennis: twoWayWinner,
	},
}
