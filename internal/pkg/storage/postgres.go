// Package storage is the persistence layer: one PostgreSQL pool shared by
// the scanner, the sweeper and the read API. Hot-path writes are batched
// with UNNEST arrays; per-row round-trips are reserved for single lookups.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/lib/pq"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
	"github.com/nstojkov/betsnipe/internal/pkg/models"
)

// chunkSize bounds one UNNEST statement's array length.
const chunkSize = 500

// Store wraps the shared PostgreSQL pool.
type Store struct {
	db *sql.DB
}

// New opens the pool, verifies connectivity, creates the schema and seeds
// the sport and bet type vocabularies.
func New(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := store.seedVocabulary(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed vocabulary: %w", err)
	}

	slog.Info("storage: postgres pool ready")
	return store, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the pool is alive, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS provider (
		id INTEGER PRIMARY KEY,
		name VARCHAR(50) NOT NULL UNIQUE,
		enabled BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS sport (
		id INTEGER PRIMARY KEY,
		name VARCHAR(50) NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS bet_type (
		id INTEGER PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		arity SMALLINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS match (
		id BIGSERIAL PRIMARY KEY,
		team1_raw VARCHAR(255) NOT NULL,
		team2_raw VARCHAR(255) NOT NULL,
		team1_norm VARCHAR(255) NOT NULL,
		team2_norm VARCHAR(255) NOT NULL,
		sport_id INTEGER NOT NULL REFERENCES sport(id),
		league_name VARCHAR(255),
		start_time TIMESTAMPTZ NOT NULL,
		external_ids JSONB NOT NULL DEFAULT '{}'::jsonb,
		status VARCHAR(20) NOT NULL DEFAULT 'upcoming',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (team1_norm, team2_norm, sport_id, start_time)
	);

	CREATE TABLE IF NOT EXISTS current_odds (
		match_id BIGINT NOT NULL REFERENCES match(id) ON DELETE CASCADE,
		provider_id INTEGER NOT NULL REFERENCES provider(id),
		bet_type_id INTEGER NOT NULL REFERENCES bet_type(id),
		margin DOUBLE PRECISION NOT NULL DEFAULT 0,
		selection VARCHAR(100) NOT NULL DEFAULT '',
		p1 DOUBLE PRECISION NOT NULL,
		p2 DOUBLE PRECISION,
		p3 DOUBLE PRECISION,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (match_id, provider_id, bet_type_id, margin, selection)
	);

	CREATE TABLE IF NOT EXISTS odds_history (
		id BIGSERIAL PRIMARY KEY,
		match_id BIGINT NOT NULL REFERENCES match(id) ON DELETE CASCADE,
		provider_id INTEGER NOT NULL,
		bet_type_id INTEGER NOT NULL,
		margin DOUBLE PRECISION NOT NULL DEFAULT 0,
		selection VARCHAR(100) NOT NULL DEFAULT '',
		p1 DOUBLE PRECISION NOT NULL,
		p2 DOUBLE PRECISION,
		p3 DOUBLE PRECISION,
		observed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS arbitrage (
		id BIGSERIAL PRIMARY KEY,
		match_id BIGINT NOT NULL REFERENCES match(id) ON DELETE CASCADE,
		bet_type_id INTEGER NOT NULL,
		margin DOUBLE PRECISION NOT NULL DEFAULT 0,
		profit_pct DOUBLE PRECISION NOT NULL,
		best_legs JSONB NOT NULL,
		stake_split JSONB NOT NULL,
		content_hash CHAR(64) NOT NULL UNIQUE,
		detected_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_match_sport_start ON match(sport_id, start_time);
	CREATE INDEX IF NOT EXISTS idx_match_status ON match(status);
	CREATE INDEX IF NOT EXISTS idx_current_odds_match ON current_odds(match_id);
	CREATE INDEX IF NOT EXISTS idx_odds_history_observed ON odds_history(observed_at);
	CREATE INDEX IF NOT EXISTS idx_arbitrage_active ON arbitrage(active) WHERE active;
	CREATE INDEX IF NOT EXISTS idx_arbitrage_match ON arbitrage(match_id);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *Store) seedVocabulary(ctx context.Context) error {
	sports := enums.GetAllSports()
	sportIDs := make([]int, len(sports))
	sportNames := make([]string, len(sports))
	for i, sp := range sports {
		sportIDs[i] = int(sp)
		sportNames[i] = sp.String()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO sport (id, name)
		SELECT UNNEST($1::int[]), UNNEST($2::text[])
		ON CONFLICT (id) DO NOTHING`,
		pq.Array(sportIDs), pq.Array(sportNames)); err != nil {
		return fmt.Errorf("seed sports: %w", err)
	}

	types := markets.All()
	btIDs := make([]int, len(types))
	btNames := make([]string, len(types))
	arities := make([]int, len(types))
	for i, bt := range types {
		btIDs[i] = bt.ID
		btNames[i] = bt.Name
		arities[i] = bt.Arity
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO bet_type (id, name, arity)
		SELECT UNNEST($1::int[]), UNNEST($2::text[]), UNNEST($3::smallint[])
		ON CONFLICT (id) DO NOTHING`,
		pq.Array(btIDs), pq.Array(btNames), pq.Array(arities)); err != nil {
		return fmt.Errorf("seed bet types: %w", err)
	}
	return nil
}

// SeedProviders registers the known provider ids, called once at startup
// with the adapter registry's contents. Renames apply on conflict so the
// table follows the code.
func (s *Store) SeedProviders(ctx context.Context, providers map[int]string) error {
	if len(providers) == 0 {
		return nil
	}
	ids := make([]int, 0, len(providers))
	for id := range providers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = providers[id]
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO provider (id, name)
		SELECT UNNEST($1::int[]), UNNEST($2::text[])
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		pq.Array(ids), pq.Array(names))
	if err != nil {
		return fmt.Errorf("seed providers: %w", err)
	}
	return nil
}

// Stats returns the row counts exposed on /stats and the read API.
func (s *Store) Stats(ctx context.Context) (*models.StoreStats, error) {
	var st models.StoreStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM match WHERE status = 'upcoming' AND start_time > NOW()),
			(SELECT COUNT(*) FROM current_odds),
			(SELECT COUNT(*) FROM arbitrage WHERE active),
			(SELECT COUNT(*) FROM provider)`).Scan(
		&st.UpcomingMatches, &st.CurrentOddsRows, &st.ActiveArbitrage, &st.ProvidersSeen)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return &st, nil
}
