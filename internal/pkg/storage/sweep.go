package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
)

// MarkFinishedMatches flips upcoming matches to finished once they are
// grace past kickoff, so resolver candidates and the detection snapshot
// stop seeing them.
func (s *Store) MarkFinishedMatches(ctx context.Context, now time.Time, grace time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE match
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND start_time <= $3`,
		string(enums.StatusFinished), string(enums.StatusUpcoming), now.Add(-grace))
	if err != nil {
		return 0, fmt.Errorf("mark finished matches: %w", err)
	}
	return res.RowsAffected()
}

// DeactivateStartedArbitrage flips active rows whose match kicked off.
func (s *Store) DeactivateStartedArbitrage(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE arbitrage a
		SET active = FALSE
		FROM match m
		WHERE m.id = a.match_id AND a.active AND m.start_time <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate started arbitrage: %w", err)
	}
	return res.RowsAffected()
}

// PruneOddsHistory deletes history observations older than cutoff.
func (s *Store) PruneOddsHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM odds_history WHERE observed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune odds history: %w", err)
	}
	return res.RowsAffected()
}

// PruneMatches deletes matches that started before cutoff. Odds and
// arbitrage rows cascade.
func (s *Store) PruneMatches(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM match WHERE start_time < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune matches: %w", err)
	}
	return res.RowsAffected()
}

// PruneArbitrage deletes inactive rows last seen before cutoff.
func (s *Store) PruneArbitrage(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM arbitrage WHERE NOT active AND last_seen_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune arbitrage: %w", err)
	}
	return res.RowsAffected()
}
