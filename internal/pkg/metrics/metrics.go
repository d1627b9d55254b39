// Package metrics provides Prometheus metrics for the scrape pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics collects and exposes pipeline-related Prometheus metrics.
type PipelineMetrics struct {
	registry *prometheus.Registry

	// Scrape metrics
	CyclesTotal     *prometheus.CounterVec
	CycleDuration   *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	MatchesScraped  *prometheus.GaugeVec
	OddsScraped     *prometheus.GaugeVec
	UnmappedOdds    *prometheus.CounterVec
	FilteredMatches *prometheus.CounterVec

	// Resolver metrics
	MatchesResolved *prometheus.CounterVec

	// Arbitrage metrics
	ArbsDetected *prometheus.CounterVec
	ArbProfit    *prometheus.HistogramVec
	ActiveArbs   prometheus.Gauge

	// Publisher metrics
	EventsPublished *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec
}

// NewPipelineMetrics creates a new pipeline metrics collector.
func NewPipelineMetrics() *PipelineMetrics {
	registry := prometheus.NewRegistry()

	pm := &PipelineMetrics{
		registry: registry,

		// Scrape metrics
		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betsnipe_cycles_total",
				Help: "Total number of scrape cycles per provider",
			},
			[]string{"provider", "status"},
		),
		CycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "betsnipe_cycle_duration_seconds",
				Help:    "Time one provider spends in one scrape cycle",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.5min
			},
			[]string{"provider"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betsnipe_requests_total",
				Help: "Total number of provider HTTP requests",
			},
			[]string{"provider", "status"},
		),
		MatchesScraped: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "betsnipe_matches_scraped",
				Help: "Matches seen in the latest cycle",
			},
			[]string{"provider", "sport"},
		),
		OddsScraped: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "betsnipe_odds_scraped",
				Help: "Priced markets seen in the latest cycle",
			},
			[]string{"provider", "sport"},
		),
		UnmappedOdds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betsnipe_unmapped_odds_total",
				Help: "Provider markets dropped because no canonical key fits",
			},
			[]string{"provider"},
		),
		FilteredMatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betsnipe_filtered_matches_total",
				Help: "Fixtures dropped for belonging to a filtered category",
			},
			[]string{"provider"},
		),

		// Resolver metrics
		MatchesResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betsnipe_matches_resolved_total",
				Help: "Identity resolution outcomes",
			},
			[]string{"provider", "outcome"},
		),

		// Arbitrage metrics
		ArbsDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betsnipe_arbitrage_detected_total",
				Help: "Total number of arbitrage opportunities detected",
			},
			[]string{"sport"},
		),
		ArbProfit: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "betsnipe_arbitrage_profit_percent",
				Help:    "Profit percentage of detected arbitrage",
				Buckets: []float64{0.5, 1, 1.5, 2, 3, 5, 8, 12, 20},
			},
			[]string{"sport"},
		),
		ActiveArbs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "betsnipe_arbitrage_active",
				Help: "Currently active arbitrage rows",
			},
		),

		// Publisher metrics
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betsnipe_events_published_total",
				Help: "Events delivered to subscribers",
			},
			[]string{"subscriber"},
		),
		EventsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betsnipe_events_dropped_total",
				Help: "Events dropped because a subscriber buffer was full",
			},
			[]string{"subscriber"},
		),
	}

	pm.registerAll()

	return pm
}

func (pm *PipelineMetrics) registerAll() {
	pm.registry.MustRegister(
		pm.CyclesTotal,
		pm.CycleDuration,
		pm.RequestsTotal,
		pm.MatchesScraped,
		pm.OddsScraped,
		pm.UnmappedOdds,
		pm.FilteredMatches,
		pm.MatchesResolved,
		pm.ArbsDetected,
		pm.ArbProfit,
		pm.ActiveArbs,
		pm.EventsPublished,
		pm.EventsDropped,
	)
}

// Registry returns the prometheus registry.
func (pm *PipelineMetrics) Registry() *prometheus.Registry {
	return pm.registry
}

// RecordCycle records one finished provider cycle.
func (pm *PipelineMetrics) RecordCycle(provider, status string, durationSec float64) {
	pm.CyclesTotal.WithLabelValues(provider, status).Inc()
	if durationSec > 0 {
		pm.CycleDuration.WithLabelValues(provider).Observe(durationSec)
	}
}

// RecordRequests adds a drained batch of provider request counters. The
// error count is a subset of the request count, so ok = requests - errors.
func (pm *PipelineMetrics) RecordRequests(provider string, requests, errors int64) {
	if ok := requests - errors; ok > 0 {
		pm.RequestsTotal.WithLabelValues(provider, "ok").Add(float64(ok))
	}
	if errors > 0 {
		pm.RequestsTotal.WithLabelValues(provider, "error").Add(float64(errors))
	}
}

// RecordScrape updates the latest-cycle gauges for one provider and sport.
func (pm *PipelineMetrics) RecordScrape(provider, sport string, matches, odds int) {
	pm.MatchesScraped.WithLabelValues(provider, sport).Set(float64(matches))
	pm.OddsScraped.WithLabelValues(provider, sport).Set(float64(odds))
}

// RecordUnmapped counts markets an adapter could not encode.
func (pm *PipelineMetrics) RecordUnmapped(provider string, n int) {
	if n > 0 {
		pm.UnmappedOdds.WithLabelValues(provider).Add(float64(n))
	}
}

// RecordFiltered counts fixtures dropped by the category filter.
func (pm *PipelineMetrics) RecordFiltered(provider string, n int) {
	if n > 0 {
		pm.FilteredMatches.WithLabelValues(provider).Add(float64(n))
	}
}

// RecordResolutions adds one batch's identity resolution outcomes
// ("reused", "created" or "merged").
func (pm *PipelineMetrics) RecordResolutions(provider, outcome string, n int) {
	if n > 0 {
		pm.MatchesResolved.WithLabelValues(provider, outcome).Add(float64(n))
	}
}

// RecordArbitrage records one detected opportunity.
func (pm *PipelineMetrics) RecordArbitrage(sport string, profitPct float64) {
	pm.ArbsDetected.WithLabelValues(sport).Inc()
	pm.ArbProfit.WithLabelValues(sport).Observe(profitPct)
}

// SetActiveArbitrage updates the active-rows gauge.
func (pm *PipelineMetrics) SetActiveArbitrage(n int64) {
	pm.ActiveArbs.Set(float64(n))
}

// RecordPublish records one event delivered to a subscriber.
func (pm *PipelineMetrics) RecordPublish(subscriber string) {
	pm.EventsPublished.WithLabelValues(subscriber).Inc()
}

// RecordDrop records one event dropped on a full subscriber buffer.
func (pm *PipelineMetrics) RecordDrop(subscriber string) {
	pm.EventsDropped.WithLabelValues(subscriber).Inc()
}
