// Package postgres implements repository.Store on PostgreSQL through pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/swing/internal/adapters/repository"
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/pkg/logger"
	"github.com/okian/swing/pkg/metrics"
)

var _ repository.Store = (*Store)(nil)

// Store keeps versions in the payload_versions table.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
	log  logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open connects to dsn and ensures the schema exists.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	s := &Store{pool: pool, now: time.Now, log: logger.Get().Named("postgres")}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the versions table and its indexes when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS payload_versions (
    game_id           TEXT        NOT NULL,
    version_number    INTEGER     NOT NULL,
    content_hash      TEXT        NOT NULL,
    moment_count      INTEGER     NOT NULL,
    event_count       INTEGER     NOT NULL,
    generation_source TEXT        NOT NULL,
    pipeline_run_id   TEXT        NOT NULL DEFAULT '',
    is_active         BOOLEAN     NOT NULL DEFAULT FALSE,
    created_at        TIMESTAMPTZ NOT NULL,
    sport             TEXT        NOT NULL,
    moments           JSONB       NOT NULL,
    traces            JSONB       NOT NULL,
    summary           JSONB       NOT NULL,
    PRIMARY KEY (game_id, version_number)
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_payload_versions_active
    ON payload_versions (game_id) WHERE is_active;
CREATE INDEX IF NOT EXISTS idx_payload_versions_hash ON payload_versions (content_hash);
`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// Commit implements repository.Store. A per-game advisory lock serialises
// version allocation; the insert and the flip share one transaction.
func (s *Store) Commit(ctx context.Context, b repository.Bundle) (model.PayloadVersion, error) {
	b, err := repository.Prepare(b)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_bundle")
		return model.PayloadVersion{}, err
	}
	moments, traces, summary, err := encode(b)
	if err != nil {
		return model.PayloadVersion{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.PayloadVersion{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	v := b.Version
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, v.GameID); err != nil {
		return model.PayloadVersion{}, fmt.Errorf("locking game: %w", err)
	}
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version_number), 0) + 1 FROM payload_versions WHERE game_id = $1`,
		v.GameID,
	).Scan(&v.VersionNumber); err != nil {
		return model.PayloadVersion{}, fmt.Errorf("allocating version: %w", err)
	}
	v.CreatedAt = s.now().UTC().Truncate(time.Microsecond)

	if _, err := tx.Exec(ctx, `
INSERT INTO payload_versions (
    game_id, version_number, content_hash, moment_count, event_count,
    generation_source, pipeline_run_id, is_active, created_at,
    sport, moments, traces, summary
) VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, $9, $10, $11, $12)`,
		v.GameID, v.VersionNumber, v.ContentHash, v.MomentCount, v.EventCount,
		v.GenerationSource, v.PipelineRunID, v.CreatedAt,
		b.Sport, moments, traces, summary,
	); err != nil {
		return model.PayloadVersion{}, fmt.Errorf("inserting version: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE payload_versions SET is_active = FALSE WHERE game_id = $1 AND is_active`, v.GameID,
	); err != nil {
		return model.PayloadVersion{}, fmt.Errorf("deactivating previous: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE payload_versions SET is_active = TRUE WHERE game_id = $1 AND version_number = $2`, v.GameID, v.VersionNumber,
	); err != nil {
		return model.PayloadVersion{}, fmt.Errorf("activating version: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return model.PayloadVersion{}, fmt.Errorf("committing transaction: %w", err)
	}

	v.IsActive = true
	s.log.Debug(ctx, "version committed",
		logger.String("game_id", v.GameID),
		logger.Int("version", v.VersionNumber))
	return v, nil
}

const selectBundle = `
SELECT game_id, version_number, content_hash, moment_count, event_count,
       generation_source, pipeline_run_id, is_active, created_at,
       sport, moments, traces, summary
FROM payload_versions`

// Active implements repository.Store.
func (s *Store) Active(ctx context.Context, gameID string) (repository.Bundle, error) {
	b, err := scanBundle(s.pool.QueryRow(ctx, selectBundle+` WHERE game_id = $1 AND is_active`, gameID))
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.Bundle{}, fmt.Errorf("%w: %s", repository.ErrNoActiveVersion, gameID)
	}
	return b, err
}

// Get implements repository.Store.
func (s *Store) Get(ctx context.Context, gameID string, version int) (repository.Bundle, error) {
	b, err := scanBundle(s.pool.QueryRow(ctx, selectBundle+` WHERE game_id = $1 AND version_number = $2`, gameID, version))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return repository.Bundle{}, fmt.Errorf("%w: %s v%d", repository.ErrNotFound, gameID, version)
	}
	return b, err
}

// List implements repository.Store.
func (s *Store) List(ctx context.Context, gameID string) ([]model.PayloadVersion, error) {
	rows, err := s.pool.Query(ctx, `
SELECT game_id, version_number, content_hash, moment_count, event_count,
       generation_source, pipeline_run_id, is_active, created_at
FROM payload_versions
WHERE game_id = $1
ORDER BY version_number ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	defer rows.Close()

	out := []model.PayloadVersion{}
	for rows.Next() {
		var v model.PayloadVersion
		if err := rows.Scan(&v.GameID, &v.VersionNumber, &v.ContentHash, &v.MomentCount, &v.EventCount,
			&v.GenerationSource, &v.PipelineRunID, &v.IsActive, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		v.CreatedAt = v.CreatedAt.UTC()
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating versions: %w", err)
	}
	return out, nil
}

// Stats implements repository.Store.
func (s *Store) Stats(ctx context.Context) (repository.Stats, error) {
	var st repository.Stats
	if err := s.pool.QueryRow(ctx, `
SELECT COUNT(DISTINCT game_id), COUNT(*), COUNT(*) FILTER (WHERE is_active)
FROM payload_versions`).Scan(&st.Games, &st.Versions, &st.ActiveGames); err != nil {
		return repository.Stats{}, fmt.Errorf("reading stats: %w", err)
	}
	return st, nil
}

// truncate empties the table; tests only.
func (s *Store) truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE payload_versions`)
	return err
}

func scanBundle(row pgx.Row) (repository.Bundle, error) {
	var (
		b                        repository.Bundle
		moments, traces, summary []byte
	)
	v := &b.Version
	if err := row.Scan(&v.GameID, &v.VersionNumber, &v.ContentHash, &v.MomentCount, &v.EventCount,
		&v.GenerationSource, &v.PipelineRunID, &v.IsActive, &v.CreatedAt,
		&b.Sport, &moments, &traces, &summary); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Bundle{}, err
		}
		return repository.Bundle{}, fmt.Errorf("scanning bundle: %w", err)
	}
	v.CreatedAt = v.CreatedAt.UTC()

	if err := json.Unmarshal(moments, &b.Moments); err != nil {
		return repository.Bundle{}, fmt.Errorf("decoding moments: %w", err)
	}
	if err := json.Unmarshal(traces, &b.Traces); err != nil {
		return repository.Bundle{}, fmt.Errorf("decoding traces: %w", err)
	}
	if err := json.Unmarshal(summary, &b.Summary); err != nil {
		return repository.Bundle{}, fmt.Errorf("decoding summary: %w", err)
	}
	return b, nil
}

func encode(b repository.Bundle) (moments, traces, summary []byte, err error) {
	if moments, err = json.Marshal(b.Moments); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding moments: %w", err)
	}
	if traces, err = json.Marshal(b.Traces); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding traces: %w", err)
	}
	if summary, err = json.Marshal(b.Summary); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding summary: %w", err)
	}
	return moments, traces, summary, nil
}
