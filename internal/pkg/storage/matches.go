package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/models"
)

const matchColumns = `id, team1_raw, team2_raw, team1_norm, team2_norm, sport_id,
	COALESCE(league_name, ''), start_time, external_ids, status, created_at, updated_at`

// UpsertMatches writes one resolved batch with a single UNNEST statement per
// chunk and fills each match's ID from the returned rows. Rows that collapse
// onto the same identity key are merged in memory first, so the statement
// never sees an intra-batch conflict.
func (s *Store) UpsertMatches(ctx context.Context, batch []*models.Match) error {
	if len(batch) == 0 {
		return nil
	}

	merged := make([]*models.Match, 0, len(batch))
	byKey := make(map[string]*models.Match, len(batch))
	for _, m := range batch {
		k := identityKey(m.Team1Norm, m.Team2Norm, m.Sport, m.StartTime)
		if prev, ok := byKey[k]; ok {
			for pid, ext := range m.ExternalIDs {
				prev.ExternalIDs[pid] = ext
			}
			if prev.LeagueName == "" {
				prev.LeagueName = m.LeagueName
			}
			continue
		}
		byKey[k] = m
		merged = append(merged, m)
	}

	ids := make(map[string]int64, len(merged))
	for start := 0; start < len(merged); start += chunkSize {
		end := min(start+chunkSize, len(merged))
		if err := s.upsertMatchChunk(ctx, merged[start:end], ids); err != nil {
			return err
		}
	}

	for _, m := range batch {
		m.ID = ids[identityKey(m.Team1Norm, m.Team2Norm, m.Sport, m.StartTime)]
	}
	return nil
}

func (s *Store) upsertMatchChunk(ctx context.Context, chunk []*models.Match, ids map[string]int64) error {
	n := len(chunk)
	team1 := make([]string, n)
	team2 := make([]string, n)
	team1Norm := make([]string, n)
	team2Norm := make([]string, n)
	sports := make([]int, n)
	leagues := make([]sql.NullString, n)
	starts := make([]time.Time, n)
	externals := make([]string, n)
	statuses := make([]string, n)

	for i, m := range chunk {
		team1[i] = m.Team1Raw
		team2[i] = m.Team2Raw
		team1Norm[i] = m.Team1Norm
		team2Norm[i] = m.Team2Norm
		sports[i] = int(m.Sport)
		if m.LeagueName != "" {
			leagues[i] = sql.NullString{String: m.LeagueName, Valid: true}
		}
		starts[i] = m.StartTime.UTC()
		ext, err := json.Marshal(encodeExternalIDs(m.ExternalIDs))
		if err != nil {
			return fmt.Errorf("encode external ids: %w", err)
		}
		externals[i] = string(ext)
		status := m.Status
		if status == "" {
			status = enums.StatusUpcoming
		}
		statuses[i] = string(status)
	}

	query := `
		INSERT INTO match (team1_raw, team2_raw, team1_norm, team2_norm, sport_id,
		                   league_name, start_time, external_ids, status)
		SELECT * FROM UNNEST(
			$1::text[], $2::text[], $3::text[], $4::text[], $5::int[],
			$6::text[], $7::timestamptz[], $8::jsonb[], $9::text[]
		)
		ON CONFLICT (team1_norm, team2_norm, sport_id, start_time) DO UPDATE SET
			external_ids = match.external_ids || EXCLUDED.external_ids,
			league_name = COALESCE(match.league_name, EXCLUDED.league_name),
			updated_at = NOW()
		RETURNING id, team1_norm, team2_norm, sport_id, start_time`

	rows, err := s.db.QueryContext(ctx, query,
		pq.Array(team1), pq.Array(team2), pq.Array(team1Norm), pq.Array(team2Norm),
		pq.Array(sports), pq.Array(leagues), pq.Array(starts), pq.Array(externals),
		pq.Array(statuses))
	if err != nil {
		return fmt.Errorf("upsert matches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var t1, t2 string
		var sport int
		var start time.Time
		if err := rows.Scan(&id, &t1, &t2, &sport, &start); err != nil {
			return fmt.Errorf("scan match id: %w", err)
		}
		ids[identityKey(t1, t2, enums.Sport(sport), start)] = id
	}
	return rows.Err()
}

// CandidatesBySport returns upcoming matches of one sport whose start time
// lies inside the window, the resolver's scoring pool.
func (s *Store) CandidatesBySport(ctx context.Context, sport enums.Sport, from, to time.Time) ([]models.Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+matchColumns+`
		FROM match
		WHERE sport_id = $1 AND status = $2 AND start_time BETWEEN $3 AND $4
		ORDER BY start_time, id`,
		int(sport), string(enums.StatusUpcoming), from, to)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()
	return scanMatches(rows)
}

// UpcomingMatches returns matches kicking off inside the horizon, newest
// first-to-start first. Sport 0 means every sport.
func (s *Store) UpcomingMatches(ctx context.Context, sport enums.Sport, horizon time.Duration, limit int) ([]models.Match, error) {
	if limit <= 0 {
		limit = 200
	}
	query := `
		SELECT ` + matchColumns + `
		FROM match
		WHERE status = $1 AND start_time BETWEEN NOW() AND NOW() + $2 * INTERVAL '1 second'`
	args := []any{string(enums.StatusUpcoming), int64(horizon.Seconds())}
	if sport != 0 {
		query += ` AND sport_id = $3`
		args = append(args, int(sport))
	}
	query += fmt.Sprintf(` ORDER BY start_time, id LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query upcoming matches: %w", err)
	}
	defer rows.Close()
	return scanMatches(rows)
}

// MatchByID returns one match, nil when absent.
func (s *Store) MatchByID(ctx context.Context, id int64) (*models.Match, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+matchColumns+`
		FROM match
		WHERE id = $1`, id)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query match %d: %w", id, err)
	}
	return &m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (models.Match, error) {
	var m models.Match
	var sport int
	var extRaw []byte
	var status string
	if err := row.Scan(&m.ID, &m.Team1Raw, &m.Team2Raw, &m.Team1Norm, &m.Team2Norm,
		&sport, &m.LeagueName, &m.StartTime, &extRaw, &status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return models.Match{}, err
	}
	m.Sport = enums.Sport(sport)
	m.Status = enums.MatchStatus(status)
	ext, err := decodeExternalIDs(extRaw)
	if err != nil {
		return models.Match{}, fmt.Errorf("decode external ids for match %d: %w", m.ID, err)
	}
	m.ExternalIDs = ext
	return m, nil
}

func scanMatches(rows *sql.Rows) ([]models.Match, error) {
	var out []models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func identityKey(t1, t2 string, sport enums.Sport, start time.Time) string {
	return fmt.Sprintf("%s|%s|%d|%d", t1, t2, sport, start.UTC().Unix())
}

// JSONB object keys are strings; provider ids convert on the boundary.
func encodeExternalIDs(ids map[int]string) map[string]string {
	out := make(map[string]string, len(ids))
	for pid, ext := range ids {
		out[strconv.Itoa(pid)] = ext
	}
	return out
}

func decodeExternalIDs(raw []byte) (map[int]string, error) {
	if len(raw) == 0 {
		return map[int]string{}, nil
	}
	var byName map[string]string
	if err := json.Unmarshal(raw, &byName); err != nil {
		return nil, err
	}
	out := make(map[int]string, len(byName))
	for k, v := range byName {
		pid, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[pid] = v
	}
	return out, nil
}
