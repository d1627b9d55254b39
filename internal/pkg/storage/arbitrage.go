package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/nstojkov/betsnipe/internal/pkg/models"
)

const arbColumns = `id, match_id, bet_type_id, margin, profit_pct, best_legs, stake_split,
	content_hash, detected_at, last_seen_at, expires_at, active`

// UpsertArbitrage refreshes the row carrying the same content hash or
// inserts a fresh one. It reports whether a new row was created so the
// caller publishes arbitrage.new exactly once per hash.
func (s *Store) UpsertArbitrage(ctx context.Context, arb *models.Arbitrage) (bool, error) {
	err := s.db.QueryRowContext(ctx, `
		UPDATE arbitrage
		SET last_seen_at = $2, expires_at = $3, active = TRUE
		WHERE content_hash = $1
		RETURNING id, detected_at`,
		arb.ContentHash, arb.LastSeenAt, arb.ExpiresAt).Scan(&arb.ID, &arb.DetectedAt)
	if err == nil {
		arb.Active = true
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("refresh arbitrage: %w", err)
	}

	legs, err := json.Marshal(arb.Legs)
	if err != nil {
		return false, fmt.Errorf("encode legs: %w", err)
	}
	stakes, err := json.Marshal(arb.Stakes)
	if err != nil {
		return false, fmt.Errorf("encode stakes: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO arbitrage (match_id, bet_type_id, margin, profit_pct, best_legs, stake_split,
		                       content_hash, detected_at, last_seen_at, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
		ON CONFLICT (content_hash) DO UPDATE SET
			last_seen_at = EXCLUDED.last_seen_at,
			expires_at = EXCLUDED.expires_at,
			active = TRUE
		RETURNING id`,
		arb.MatchID, arb.BetTypeID, arb.Margin, arb.ProfitPct, legs, stakes,
		arb.ContentHash, arb.DetectedAt, arb.LastSeenAt, arb.ExpiresAt).Scan(&arb.ID)
	if err != nil {
		return false, fmt.Errorf("insert arbitrage: %w", err)
	}
	arb.Active = true
	return true, nil
}

// ExpireArbitrage deactivates active rows that this cycle did not re-detect
// or whose expiry passed, returning them so the caller can publish
// arbitrage.expired. An empty liveHashes set deactivates everything active.
func (s *Store) ExpireArbitrage(ctx context.Context, now time.Time, liveHashes []string) ([]models.Arbitrage, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE arbitrage
		SET active = FALSE
		WHERE active AND (expires_at <= $1 OR NOT (content_hash = ANY($2)))
		RETURNING `+arbColumns, now, pq.Array(liveHashes))
	if err != nil {
		return nil, fmt.Errorf("expire arbitrage: %w", err)
	}
	defer rows.Close()
	return scanArbitrageRows(rows)
}

// CountActiveArbitrage reports how many opportunities are currently active,
// feeding the gauge after each detection pass.
func (s *Store) CountActiveArbitrage(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM arbitrage WHERE active`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active arbitrage: %w", err)
	}
	return n, nil
}

// ListArbitrage returns rows for the read API, highest profit first.
func (s *Store) ListArbitrage(ctx context.Context, activeOnly bool, minProfit float64, limit int) ([]models.Arbitrage, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT ` + arbColumns + `
		FROM arbitrage
		WHERE profit_pct >= $1`
	if activeOnly {
		query += ` AND active`
	}
	query += fmt.Sprintf(` ORDER BY profit_pct DESC, detected_at DESC LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, minProfit)
	if err != nil {
		return nil, fmt.Errorf("query arbitrage: %w", err)
	}
	defer rows.Close()
	return scanArbitrageRows(rows)
}

func scanArbitrageRows(rows *sql.Rows) ([]models.Arbitrage, error) {
	var out []models.Arbitrage
	for rows.Next() {
		var a models.Arbitrage
		var legsRaw, stakesRaw []byte
		if err := rows.Scan(&a.ID, &a.MatchID, &a.BetTypeID, &a.Margin, &a.ProfitPct,
			&legsRaw, &stakesRaw, &a.ContentHash, &a.DetectedAt, &a.LastSeenAt,
			&a.ExpiresAt, &a.Active); err != nil {
			return nil, fmt.Errorf("scan arbitrage row: %w", err)
		}
		if err := json.Unmarshal(legsRaw, &a.Legs); err != nil {
			return nil, fmt.Errorf("decode legs for arbitrage %d: %w", a.ID, err)
		}
		if err := json.Unmarshal(stakesRaw, &a.Stakes); err != nil {
			return nil, fmt.Errorf("decode stakes for arbitrage %d: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
