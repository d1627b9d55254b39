package models

// StoreStats are the row counts the /stats surface and the read API expose.
type StoreStats struct {
	UpcomingMatches int64 `json:"upcoming_matches"`
	CurrentOddsRows int64 `json:"current_odds_rows"`
	ActiveArbitrage int64 `json:"active_arbitrage"`
	ProvidersSeen   int64 `json:"providers_seen"`
}
