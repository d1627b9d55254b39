package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/models"
)

// OddsSnapshot is one current_odds row joined with its match's teams, sport
// and kick-off, the arbitrage engine's working set.
type OddsSnapshot struct {
	models.CurrentOdds
	Sport     enums.Sport
	StartTime time.Time
	Team1     string
	Team2     string
}

// UpsertOdds replaces each five-tuple row in current_odds and appends the
// same observations to odds_history, chunked, one transaction per chunk.
// Within one batch the last write for a five-tuple wins.
func (s *Store) UpsertOdds(ctx context.Context, odds []models.CurrentOdds) error {
	if len(odds) == 0 {
		return nil
	}

	deduped := make([]models.CurrentOdds, 0, len(odds))
	seen := make(map[string]int, len(odds))
	for _, o := range odds {
		k := fmt.Sprintf("%d|%d|%d|%.2f|%s", o.MatchID, o.ProviderID, o.BetTypeID, o.Margin, o.Selection)
		if idx, ok := seen[k]; ok {
			deduped[idx] = o
			continue
		}
		seen[k] = len(deduped)
		deduped = append(deduped, o)
	}

	for start := 0; start < len(deduped); start += chunkSize {
		end := min(start+chunkSize, len(deduped))
		if err := s.upsertOddsChunk(ctx, deduped[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertOddsChunk(ctx context.Context, chunk []models.CurrentOdds) error {
	n := len(chunk)
	matchIDs := make([]int64, n)
	providerIDs := make([]int, n)
	betTypes := make([]int, n)
	margins := make([]float64, n)
	selections := make([]string, n)
	p1s := make([]float64, n)
	p2s := make([]sql.NullFloat64, n)
	p3s := make([]sql.NullFloat64, n)

	for i, o := range chunk {
		matchIDs[i] = o.MatchID
		providerIDs[i] = o.ProviderID
		betTypes[i] = o.BetTypeID
		margins[i] = o.Margin
		selections[i] = o.Selection
		p1s[i] = o.P1
		if o.P2 != nil {
			p2s[i] = sql.NullFloat64{Float64: *o.P2, Valid: true}
		}
		if o.P3 != nil {
			p3s[i] = sql.NullFloat64{Float64: *o.P3, Valid: true}
		}
	}

	args := []any{
		pq.Array(matchIDs), pq.Array(providerIDs), pq.Array(betTypes), pq.Array(margins),
		pq.Array(selections), pq.Array(p1s), pq.Array(p2s), pq.Array(p3s),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin odds tx: %w", err)
	}
	defer tx.Rollback()

	const upsert = `
		INSERT INTO current_odds (match_id, provider_id, bet_type_id, margin, selection, p1, p2, p3)
		SELECT * FROM UNNEST(
			$1::bigint[], $2::int[], $3::int[], $4::float8[],
			$5::text[], $6::float8[], $7::float8[], $8::float8[]
		)
		ON CONFLICT (match_id, provider_id, bet_type_id, margin, selection) DO UPDATE SET
			p1 = EXCLUDED.p1,
			p2 = EXCLUDED.p2,
			p3 = EXCLUDED.p3,
			updated_at = NOW()`
	if _, err := tx.ExecContext(ctx, upsert, args...); err != nil {
		return fmt.Errorf("upsert current odds: %w", err)
	}

	const history = `
		INSERT INTO odds_history (match_id, provider_id, bet_type_id, margin, selection, p1, p2, p3)
		SELECT * FROM UNNEST(
			$1::bigint[], $2::int[], $3::int[], $4::float8[],
			$5::text[], $6::float8[], $7::float8[], $8::float8[]
		)`
	if _, err := tx.ExecContext(ctx, history, args...); err != nil {
		return fmt.Errorf("append odds history: %w", err)
	}

	return tx.Commit()
}

// ActiveOddsSnapshot returns fresh odds rows for matches that have not
// started. Rows older than staleAfter are excluded: a provider that stopped
// refreshing a market must not pin a phantom price in detection.
func (s *Store) ActiveOddsSnapshot(ctx context.Context, staleAfter time.Duration) ([]OddsSnapshot, error) {
	cutoff := time.Now().Add(-staleAfter)
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.match_id, o.provider_id, o.bet_type_id, o.margin, o.selection,
		       o.p1, o.p2, o.p3, o.updated_at, m.sport_id, m.start_time,
		       m.team1_raw, m.team2_raw
		FROM current_odds o
		JOIN match m ON m.id = o.match_id
		WHERE m.status = $1 AND m.start_time > NOW() AND o.updated_at > $2
		ORDER BY o.match_id, o.bet_type_id, o.margin, o.selection, o.provider_id`,
		string(enums.StatusUpcoming), cutoff)
	if err != nil {
		return nil, fmt.Errorf("query odds snapshot: %w", err)
	}
	defer rows.Close()

	var out []OddsSnapshot
	for rows.Next() {
		snap, err := scanOddsRow(rows, true)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// OddsForMatch returns every provider's current prices for one match.
func (s *Store) OddsForMatch(ctx context.Context, matchID int64) ([]models.CurrentOdds, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id, provider_id, bet_type_id, margin, selection, p1, p2, p3, updated_at
		FROM current_odds
		WHERE match_id = $1
		ORDER BY bet_type_id, margin, selection, provider_id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("query odds for match %d: %w", matchID, err)
	}
	defer rows.Close()

	var out []models.CurrentOdds
	for rows.Next() {
		snap, err := scanOddsRow(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, snap.CurrentOdds)
	}
	return out, rows.Err()
}

func scanOddsRow(rows *sql.Rows, withSport bool) (OddsSnapshot, error) {
	var snap OddsSnapshot
	var p2, p3 sql.NullFloat64
	dest := []any{
		&snap.MatchID, &snap.ProviderID, &snap.BetTypeID, &snap.Margin, &snap.Selection,
		&snap.P1, &p2, &p3, &snap.UpdatedAt,
	}
	var sport int
	if withSport {
		dest = append(dest, &sport, &snap.StartTime, &snap.Team1, &snap.Team2)
	}
	if err := rows.Scan(dest...); err != nil {
		return OddsSnapshot{}, fmt.Errorf("scan odds row: %w", err)
	}
	if p2.Valid {
		snap.P2 = &p2.Float64
	}
	if p3.Valid {
		snap.P3 = &p3.Float64
	}
	snap.Sport = enums.Sport(sport)
	return snap, nil
}
