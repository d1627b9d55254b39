// Package providers defines the bookmaker adapter contract and the registry
// adapters register into at init time.
package providers

import (
	"context"

	"github.com/nstojkov/betsnipe/internal/pkg/config"
	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/line"
)

// Provider is one bookmaker adapter. Scrape fetches one sport's prematch
// offer and maps it into raw matches whose odds carry canonical market keys.
// Adapters never touch the database.
type Provider interface {
	Name() string
	ID() int
	BaseURL() string
	SupportedSports() []enums.Sport
	Scrape(ctx context.Context, sport enums.Sport) ([]line.RawMatch, error)
	// TakeCounters drains the adapter's request/error counters accumulated
	// since the previous call.
	TakeCounters() (requests, errors int64)
}

// Factory builds a provider from configuration.
type Factory func(cfg *config.Config) Provider
