package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
	"github.com/nstojkov/betsnipe/internal/pkg/models"
)

type stubStorage struct {
	pingErr error

	stats *models.StoreStats

	arbs      []models.Arbitrage
	gotActive bool
	gotProfit float64
	gotLimit  int

	matches    []models.Match
	gotSport   enums.Sport
	gotHorizon time.Duration

	match *models.Match
	odds  []models.CurrentOdds
}

func (s *stubStorage) Ping(ctx context.Context) error { return s.pingErr }

func (s *stubStorage) Stats(ctx context.Context) (*models.StoreStats, error) {
	if s.stats == nil {
		return &models.StoreStats{}, nil
	}
	return s.stats, nil
}

func (s *stubStorage) ListArbitrage(ctx context.Context, activeOnly bool, minProfit float64, limit int) ([]models.Arbitrage, error) {
	s.gotActive, s.gotProfit, s.gotLimit = activeOnly, minProfit, limit
	return s.arbs, nil
}

func (s *stubStorage) UpcomingMatches(ctx context.Context, sport enums.Sport, horizon time.Duration, limit int) ([]models.Match, error) {
	s.gotSport, s.gotHorizon, s.gotLimit = sport, horizon, limit
	return s.matches, nil
}

func (s *stubStorage) MatchByID(ctx context.Context, id int64) (*models.Match, error) {
	return s.match, nil
}

func (s *stubStorage) OddsForMatch(ctx context.Context, matchID int64) ([]models.CurrentOdds, error) {
	return s.odds, nil
}

func get(t *testing.T, srv *Server, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("GET %s: decoding body %q: %v", target, rec.Body.String(), err)
	}
	return rec, body
}

func TestHealthReportsStore(t *testing.T) {
	store := &stubStorage{}
	srv := NewServer(store, ":0", nil)

	rec, body := get(t, srv, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}

	store.pingErr = errors.New("connection refused")
	rec, body = get(t, srv, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if body["message"] != "database unreachable" {
		t.Errorf("message = %v, want database unreachable", body["message"])
	}
}

func TestArbitrageParams(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantActive bool
		wantProfit float64
		wantLimit  int
	}{
		{"defaults", "/api/v1/arbitrage", true, 0, 100},
		{"explicit", "/api/v1/arbitrage?active=false&min_profit=2.5&limit=10", false, 2.5, 10},
		{"limit capped", "/api/v1/arbitrage?limit=9999", true, 0, 500},
		{"garbage falls back", "/api/v1/arbitrage?active=maybe&min_profit=lots", true, 0, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubStorage{arbs: []models.Arbitrage{{ID: 1, MatchID: 7, ProfitPct: 3.25}}}
			srv := NewServer(store, ":0", nil)

			rec, body := get(t, srv, tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if store.gotActive != tt.wantActive || store.gotProfit != tt.wantProfit || store.gotLimit != tt.wantLimit {
				t.Errorf("store saw (active=%v profit=%v limit=%d), want (%v %v %d)",
					store.gotActive, store.gotProfit, store.gotLimit,
					tt.wantActive, tt.wantProfit, tt.wantLimit)
			}
			if body["count"] != float64(1) {
				t.Errorf("count = %v, want 1", body["count"])
			}
		})
	}
}

func TestMatchesEndpoint(t *testing.T) {
	store := &stubStorage{matches: []models.Match{{
		ID:          5,
		Team1Raw:    "Partizan",
		Team2Raw:    "Crvena Zvezda",
		Sport:       enums.Football,
		StartTime:   time.Now().Add(3 * time.Hour),
		ExternalIDs: map[int]string{1: "a", 3: "b", 7: "c"},
	}}}
	srv := NewServer(store, ":0", nil)

	rec, body := get(t, srv, "/api/v1/matches?sport=football&hours=48&limit=50")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.gotSport != enums.Football {
		t.Errorf("sport = %v, want football", store.gotSport)
	}
	if store.gotHorizon != 48*time.Hour {
		t.Errorf("horizon = %v, want 48h", store.gotHorizon)
	}
	if store.gotLimit != 50 {
		t.Errorf("limit = %d, want 50", store.gotLimit)
	}

	rows, ok := body["matches"].([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("matches = %v, want one row", body["matches"])
	}
	row := rows[0].(map[string]any)
	if row["sport"] != "football" {
		t.Errorf("sport label = %v, want football", row["sport"])
	}
	if row["providers"] != float64(3) {
		t.Errorf("providers = %v, want 3", row["providers"])
	}
}

func TestMatchesRejectsUnknownSport(t *testing.T) {
	srv := NewServer(&stubStorage{}, ":0", nil)

	rec, body := get(t, srv, "/api/v1/matches?sport=curling")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg, _ := body["message"].(string); !strings.Contains(msg, "curling") {
		t.Errorf("message = %q, want the rejected alias in it", msg)
	}
}

func TestMatchesClampsHorizon(t *testing.T) {
	for _, target := range []string{
		"/api/v1/matches?hours=-3",
		"/api/v1/matches?hours=100000",
	} {
		store := &stubStorage{}
		srv := NewServer(store, ":0", nil)
		if rec, _ := get(t, srv, target); rec.Code != http.StatusOK {
			t.Fatalf("GET %s: status = %d, want 200", target, rec.Code)
		}
		if store.gotHorizon != 24*time.Hour {
			t.Errorf("GET %s: horizon = %v, want fallback 24h", target, store.gotHorizon)
		}
	}
}

func TestOddsEndpoint(t *testing.T) {
	p2 := 3.4
	p3 := 3.8
	over := 1.85
	store := &stubStorage{
		match: &models.Match{
			ID:        9,
			Team1Raw:  "Partizan",
			Team2Raw:  "Vojvodina",
			Sport:     enums.Football,
			StartTime: time.Now().Add(2 * time.Hour),
		},
		odds: []models.CurrentOdds{
			{MatchID: 9, ProviderID: 1, BetTypeID: markets.BT1X2, P1: 2.05, P2: &p2, P3: &p3},
			{MatchID: 9, ProviderID: 3, BetTypeID: markets.BTTotal, Margin: 2.5, P1: 1.95, P2: &over},
		},
	}
	srv := NewServer(store, ":0", nil)

	rec, body := get(t, srv, "/api/v1/odds/9")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	rows, ok := body["odds"].([]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("odds = %v, want two rows", body["odds"])
	}
	if market := rows[0].(map[string]any)["market"]; market != "1x2" {
		t.Errorf("market[0] = %v, want 1x2", market)
	}
	if market := rows[1].(map[string]any)["market"]; market != "total_over_under +2.5" {
		t.Errorf("market[1] = %v, want total_over_under +2.5", market)
	}
	match, ok := body["match"].(map[string]any)
	if !ok {
		t.Fatalf("match = %v, want object", body["match"])
	}
	if match["sport"] != "football" {
		t.Errorf("match sport = %v, want football", match["sport"])
	}
	if body["started"] != false {
		t.Errorf("started = %v, want false", body["started"])
	}

	store.match.StartTime = time.Now().Add(-time.Hour)
	_, body = get(t, srv, "/api/v1/odds/9")
	if body["started"] != true {
		t.Errorf("started after kick-off = %v, want true", body["started"])
	}
}

func TestOddsRejectsBadID(t *testing.T) {
	srv := NewServer(&stubStorage{}, ":0", nil)

	for _, target := range []string{"/api/v1/odds/zero", "/api/v1/odds/-4", "/api/v1/odds/0"} {
		rec, _ := get(t, srv, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestOddsUnknownMatch(t *testing.T) {
	srv := NewServer(&stubStorage{}, ":0", nil)

	rec, _ := get(t, srv, "/api/v1/odds/123")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestStatsPipelineSection(t *testing.T) {
	store := &stubStorage{stats: &models.StoreStats{UpcomingMatches: 12, ActiveArbitrage: 2}}

	srv := NewServer(store, ":0", nil)
	_, body := get(t, srv, "/api/v1/stats")
	if _, present := body["pipeline"]; present {
		t.Error("pipeline section present without a callback")
	}
	st, ok := body["store"].(map[string]any)
	if !ok {
		t.Fatalf("store = %v, want object", body["store"])
	}
	if st["upcoming_matches"] != float64(12) {
		t.Errorf("upcoming_matches = %v, want 12", st["upcoming_matches"])
	}

	srv = NewServer(store, ":0", func() any { return map[string]int{"cycles": 41} })
	_, body = get(t, srv, "/api/v1/stats")
	pipe, ok := body["pipeline"].(map[string]any)
	if !ok {
		t.Fatalf("pipeline = %v, want object", body["pipeline"])
	}
	if pipe["cycles"] != float64(41) {
		t.Errorf("cycles = %v, want 41", pipe["cycles"])
	}
}
