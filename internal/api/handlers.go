package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
	"github.com/nstojkov/betsnipe/internal/pkg/models"
)

// matchRow decorates a stored match with its sport alias and how many
// providers have priced it.
type matchRow struct {
	models.Match
	Sport     string `json:"sport"`
	Providers int    `json:"providers"`
}

// oddsRow decorates one current price row with its decoded market label.
type oddsRow struct {
	models.CurrentOdds
	Market string `json:"market"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unreachable", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// handleArbitrage lists opportunities, active ones by default.
// Query params: active, min_profit, limit.
func (s *Server) handleArbitrage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	activeOnly := parseBoolParam(r, "active", true)
	minProfit := parseFloatParam(r, "min_profit", 0)
	limit := parseIntParam(r, "limit", 100)
	if limit > 500 {
		limit = 500
	}

	rows, err := s.store.ListArbitrage(ctx, activeOnly, minProfit, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list arbitrage", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"arbitrage": rows,
		"count":     len(rows),
	})
}

// handleMatches lists upcoming fixtures inside a horizon.
// Query params: sport (alias), hours, limit.
func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var sport enums.Sport
	if alias := r.URL.Query().Get("sport"); alias != "" {
		parsed, ok := enums.ParseSport(alias)
		if !ok {
			respondError(w, http.StatusBadRequest, "unknown sport "+strconv.Quote(alias), nil)
			return
		}
		sport = parsed
	}
	hours := parseIntParam(r, "hours", 24)
	if hours <= 0 || hours > 24*14 {
		hours = 24
	}
	limit := parseIntParam(r, "limit", 200)
	if limit > 500 {
		limit = 500
	}

	matches, err := s.store.UpcomingMatches(ctx, sport, time.Duration(hours)*time.Hour, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list matches", err)
		return
	}
	rows := make([]matchRow, len(matches))
	for i, m := range matches {
		rows[i] = matchRow{Match: m, Sport: m.Sport.String(), Providers: len(m.ExternalIDs)}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"matches": rows,
		"count":   len(rows),
	})
}

// handleOdds returns every provider's current prices for one match, each row
// labeled with its decoded market.
func (s *Server) handleOdds(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	matchID, err := strconv.ParseInt(chi.URLParam(r, "matchID"), 10, 64)
	if err != nil || matchID <= 0 {
		respondError(w, http.StatusBadRequest, "match id must be a positive integer", nil)
		return
	}

	match, err := s.store.MatchByID(ctx, matchID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load match", err)
		return
	}
	if match == nil {
		respondError(w, http.StatusNotFound, "match not found", nil)
		return
	}

	odds, err := s.store.OddsForMatch(ctx, matchID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load odds", err)
		return
	}
	rows := make([]oddsRow, len(odds))
	for i, o := range odds {
		rows[i] = oddsRow{CurrentOdds: o, Market: markets.Decode(o.Key())}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"match":   matchRow{Match: *match, Sport: match.Sport.String(), Providers: len(match.ExternalIDs)},
		"started": match.Started(time.Now()),
		"odds":    rows,
		"count":   len(rows),
	})
}

// handleStats reports store row counts plus, when running inside the
// scanner, live pipeline counters.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := s.store.Stats(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load stats", err)
		return
	}
	payload := map[string]any{"store": st}
	if s.pipeline != nil {
		payload["pipeline"] = s.pipeline()
	}
	respondJSON(w, http.StatusOK, payload)
}

func parseIntParam(r *http.Request, param string, def int) int {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func parseFloatParam(r *http.Request, param string, def float64) float64 {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func parseBoolParam(r *http.Request, param string, def bool) bool {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("api: encoding response failed", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		slog.Error("api: "+message, "error", err)
	}
	respondJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"message": message,
		"code":    status,
	})
}
