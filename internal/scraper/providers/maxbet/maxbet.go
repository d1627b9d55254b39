// Package maxbet adapts the MaxBet Serbia prematch offer. MaxBet runs the
// flat offer platform: every market of a match arrives as a code to price
// dict, so the adapter is the site declaration plus its code tables.
package maxbet

import (
	"net/url"
	"strings"

	"github.com/nstojkov/betsnipe/internal/pkg/config"
	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
	"github.com/nstojkov/betsnipe/internal/scraper/providers"
	"github.com/nstojkov/betsnipe/internal/scraper/providers/flatoffer"
)

const providerID = 3

func init() {
	providers.Register("maxbet", New)
	markets.RegisterEncoder(providerID, flatoffer.SiteEncoder(site))
}

// New builds the maxbet adapter.
func New(cfg *config.Config) providers.Provider {
	return flatoffer.New(site, cfg)
}

var site = flatoffer.Site{
	Name:        "maxbet",
	ProviderID:  providerID,
	BaseURL:     "https://www.maxbet.rs/restapi/offer/sr",
	Params:      url.Values{"annex": {"3"}, "desktopVersion": {"1.2.1.10"}, "locale": {"sr"}},
	LeaguesPath: "/categories/sport/%s/l",
	MatchesPath: "/sport/%s/league/%d/mob",
	Headers: map[string]string{
		"Origin":  "https://www.maxbet.rs",
		"Referer": "https://www.maxbet.rs/betting",
	},
	SkipLeague: func(name string) bool {
		return strings.Contains(name, "Bonus Tip") || strings.Contains(name, "Max Bonus")
	},
	Tables: map[enums.Sport]flatoffer.Tables{
		enums.Football:    football,
		enums.Basketball:  basketball,
		enums.Tennis:      tennis,
		enums.Hockey:      hockey,
		enums.TableTennis: tableTennis,
	},
}
